package filter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Filters is a validated set of optional search filters extracted from a
// query or supplied explicitly by the caller.
type Filters struct {
	speaker  string
	topic    string
	dataset  string
	dateFrom *time.Time
	dateTo   *time.Time
	// sentimentMin/sentimentMax bound a [-1, 1] sentiment score.
	sentimentMin *float64
	sentimentMax *float64
	// similarityThreshold applies to semantic mode only.
	similarityThreshold *float64
}

// New validates and creates a filter set.
func New(
	speaker, topic, dataset string,
	dateFrom, dateTo *time.Time,
	sentimentMin, sentimentMax *float64,
	similarityThreshold *float64,
) (Filters, error) {
	if dateFrom != nil && dateTo != nil && dateTo.Before(*dateFrom) {
		return Filters{}, fmt.Errorf("date_to %s precedes date_from %s",
			dateTo.Format(time.DateOnly), dateFrom.Format(time.DateOnly))
	}
	for name, v := range map[string]*float64{"sentiment_min": sentimentMin, "sentiment_max": sentimentMax} {
		if v != nil && (*v < -1 || *v > 1) {
			return Filters{}, fmt.Errorf("%s must be between -1 and 1, got %v", name, *v)
		}
	}
	if sentimentMin != nil && sentimentMax != nil && *sentimentMax < *sentimentMin {
		return Filters{}, fmt.Errorf("sentiment_max %v precedes sentiment_min %v", *sentimentMax, *sentimentMin)
	}
	if similarityThreshold != nil && (*similarityThreshold < 0 || *similarityThreshold > 1) {
		return Filters{}, fmt.Errorf("similarity_threshold must be between 0 and 1, got %v", *similarityThreshold)
	}
	return Filters{
		speaker:             strings.ToLower(strings.TrimSpace(speaker)),
		topic:               strings.ToLower(strings.TrimSpace(topic)),
		dataset:             strings.TrimSpace(dataset),
		dateFrom:            dateFrom,
		dateTo:              dateTo,
		sentimentMin:        sentimentMin,
		sentimentMax:        sentimentMax,
		similarityThreshold: similarityThreshold,
	}, nil
}

// Speaker returns the speaker filter (lowercased, empty when unset).
func (f Filters) Speaker() string { return f.speaker }

// Topic returns the topic filter.
func (f Filters) Topic() string { return f.topic }

// Dataset returns the dataset filter.
func (f Filters) Dataset() string { return f.dataset }

// DateFrom returns the lower date bound (nil when unset).
func (f Filters) DateFrom() *time.Time { return f.dateFrom }

// DateTo returns the upper date bound (nil when unset).
func (f Filters) DateTo() *time.Time { return f.dateTo }

// SentimentMin returns the minimum sentiment bound (nil when unset).
func (f Filters) SentimentMin() *float64 { return f.sentimentMin }

// SentimentMax returns the maximum sentiment bound (nil when unset).
func (f Filters) SentimentMax() *float64 { return f.sentimentMax }

// SimilarityThreshold returns the semantic similarity cutoff (nil when unset).
func (f Filters) SimilarityThreshold() *float64 { return f.similarityThreshold }

// IsEmpty reports whether no filter is set.
func (f Filters) IsEmpty() bool {
	return f.speaker == "" && f.topic == "" && f.dataset == "" &&
		f.dateFrom == nil && f.dateTo == nil &&
		f.sentimentMin == nil && f.sentimentMax == nil &&
		f.similarityThreshold == nil
}

// Key returns a stable textual form of the filter set, suitable for cache
// key derivation. Unset fields are omitted; set fields sort by name so the
// result is deterministic.
func (f Filters) Key() string {
	parts := make([]string, 0, 8)
	add := func(name, v string) {
		if v != "" {
			parts = append(parts, name+"="+v)
		}
	}
	add("speaker", f.speaker)
	add("topic", f.topic)
	add("dataset", f.dataset)
	if f.dateFrom != nil {
		add("date_from", f.dateFrom.Format(time.DateOnly))
	}
	if f.dateTo != nil {
		add("date_to", f.dateTo.Format(time.DateOnly))
	}
	if f.sentimentMin != nil {
		add("sentiment_min", strconv.FormatFloat(*f.sentimentMin, 'g', -1, 64))
	}
	if f.sentimentMax != nil {
		add("sentiment_max", strconv.FormatFloat(*f.sentimentMax, 'g', -1, 64))
	}
	if f.similarityThreshold != nil {
		add("similarity", strconv.FormatFloat(*f.similarityThreshold, 'g', -1, 64))
	}
	sort.Strings(parts)
	return strings.Join(parts, "&")
}
