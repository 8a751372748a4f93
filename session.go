package transearch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/civicscope/transearch/internal/domain"
	"github.com/civicscope/transearch/internal/domain/search/request"
)

// ErrSessionClosed is returned by submissions to a closed session.
var ErrSessionClosed = domain.ErrSessionClosed

// Session serializes interactive searching for one consumer. Each
// submission takes a monotonically increasing token; a response is
// delivered to the handler only while its token is still the newest
// submitted, so a slow response for an old query can never overwrite a
// newer one. Free-text submissions are debounced so a burst of
// keystrokes produces a single request.
type Session struct {
	client  *Client
	handler func(Page, error)
	seq     atomic.Uint64
	closed  atomic.Bool

	mu    sync.Mutex
	timer *time.Timer
}

func newSession(c *Client, handler func(Page, error)) *Session {
	if handler == nil {
		handler = func(Page, error) {}
	}
	return &Session{client: c, handler: handler}
}

// Submit dispatches a prepared request. The handler receives the
// response asynchronously unless a newer submission supersedes it first.
func (s *Session) Submit(ctx context.Context, req *Request) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	token := s.seq.Add(1)
	go func() {
		page, err := s.client.Search(ctx, req)
		s.deliver(token, page, err)
	}()
	return nil
}

// SubmitText interprets free text and dispatches it after the debounce
// window. A newer SubmitText within the window replaces the pending one.
func (s *Session) SubmitText(ctx context.Context, text string) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.client.debounce, func() {
		s.fire(ctx, text)
	})
	return nil
}

// fire runs after the debounce: the token is claimed here, not at
// SubmitText time, so the coalesced request is the newest submission.
func (s *Session) fire(ctx context.Context, text string) {
	if s.closed.Load() {
		return
	}
	token := s.seq.Add(1)

	in, err := s.client.interpret.Interpret(text)
	if err != nil {
		s.deliver(token, Page{}, err)
		return
	}
	req, err := request.New(text, in.Query, in.Filters, in.Mode, "", 0, 0)
	if err != nil {
		s.deliver(token, Page{}, err)
		return
	}

	page, err := s.client.Search(ctx, &req)
	s.deliver(token, page, err)
}

// deliver hands a response to the handler. The lock serializes
// deliveries so two resolutions cannot interleave handler calls.
func (s *Session) deliver(token uint64, page Page, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return
	}
	if current := s.seq.Load(); current != token {
		s.client.logger.Debug("stale response discarded",
			zap.Uint64("token", token),
			zap.Uint64("current", current),
		)
		return
	}
	s.handler(page, err)
}

// Close stops pending debounce timers and suppresses any in-flight
// deliveries. Further submissions return ErrSessionClosed.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
}
