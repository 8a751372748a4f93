package restapi

import (
	"net/url"
	"strconv"
	"time"

	"github.com/civicscope/transearch/internal/domain/search/request"
	"github.com/civicscope/transearch/internal/domain/search/result"
)

// searchResponseDTO mirrors the backend payload. Every display field is
// optional; decoding never fails on absent fields.
type searchResponseDTO struct {
	Items    []itemDTO `json:"items"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	TookMS   int64     `json:"took_ms"`
}

type itemDTO struct {
	ID         string     `json:"id"`
	Speaker    *string    `json:"speaker"`
	Text       *string    `json:"text"`
	RecordedAt *time.Time `json:"recorded_at"`
	Sentiment  *float64   `json:"sentiment"`
	Score      *float64   `json:"score"`
}

// toPage converts a backend payload into the domain page, echoing the
// request's pagination when the backend omits it. result.NewPage enforces
// the shape invariants.
func (dto *searchResponseDTO) toPage(req *request.Request) result.Page {
	items := make([]result.Item, 0, len(dto.Items))
	for _, it := range dto.Items {
		items = append(items, it.toItem())
	}

	page, size := dto.Page, dto.PageSize
	if req != nil {
		page, size = req.Page(), req.PageSize()
	} else if size <= 0 {
		size = len(items)
	}
	return result.NewPage(items, dto.Total, page, size, time.Duration(dto.TookMS)*time.Millisecond)
}

func (it *itemDTO) toItem() result.Item {
	var speaker, text string
	if it.Speaker != nil {
		speaker = *it.Speaker
	}
	if it.Text != nil {
		text = *it.Text
	}
	var score float64
	if it.Score != nil {
		score = *it.Score
	}
	return result.NewItem(it.ID, speaker, text, it.RecordedAt, it.Sentiment, score)
}

// suggestionsDTO mirrors the suggestion payload.
type suggestionsDTO struct {
	Suggestions []string `json:"suggestions"`
}

// filterQuery appends the request's filters as query parameters shared by
// both engines.
func filterQuery(q url.Values, req *request.Request) {
	f := req.Filters()
	if f.Speaker() != "" {
		q.Set("speaker", f.Speaker())
	}
	if f.Topic() != "" {
		q.Set("topic", f.Topic())
	}
	if f.Dataset() != "" {
		q.Set("dataset", f.Dataset())
	}
	if v := f.DateFrom(); v != nil {
		q.Set("date_from", v.Format(time.DateOnly))
	}
	if v := f.DateTo(); v != nil {
		q.Set("date_to", v.Format(time.DateOnly))
	}
	if v := f.SentimentMin(); v != nil {
		q.Set("sentiment_min", strconv.FormatFloat(*v, 'g', -1, 64))
	}
	if v := f.SentimentMax(); v != nil {
		q.Set("sentiment_max", strconv.FormatFloat(*v, 'g', -1, 64))
	}
}

func pagingQuery(q url.Values, req *request.Request) {
	q.Set("page", strconv.Itoa(req.Page()))
	q.Set("page_size", strconv.Itoa(req.PageSize()))
}
