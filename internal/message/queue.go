// internal/message/queue.go
//
// Bounded in-process queue with one delivery worker.
//
// Enqueue never blocks: when the buffer is full the submission is dropped
// and counted.  Close stops intake and waits for the buffer to drain.

package message

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/profileform/internal/metrics"
)

// Queue fans each submission out to every publisher.
type Queue struct {
	ch      chan Submission
	pubs    []Publisher
	timeout time.Duration
	log     *zap.SugaredLogger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewQueue starts the worker.  timeout bounds one delivery to one publisher.
func NewQueue(size int, timeout time.Duration, log *zap.SugaredLogger, pubs ...Publisher) *Queue {
	if size < 1 {
		size = 1
	}
	if log == nil {
		log = zap.S()
	}
	q := &Queue{
		ch:      make(chan Submission, size),
		pubs:    pubs,
		timeout: timeout,
		log:     log,
	}
	q.wg.Add(1)
	go q.run()
	return q
}

// Enqueue hands s to the worker.  It reports false when s was dropped.
func (q *Queue) Enqueue(s Submission) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.dropped(s)
		return false
	}
	select {
	case q.ch <- s:
		return true
	default:
		q.dropped(s)
		return false
	}
}

// Close stops intake and waits until queued submissions are delivered.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) run() {
	defer q.wg.Done()
	for s := range q.ch {
		for _, p := range q.pubs {
			q.deliver(p, s)
		}
	}
}

func (q *Queue) deliver(p Publisher, s Submission) {
	ctx := context.Background()
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	if err := p.Publish(ctx, s); err != nil {
		metrics.NotificationsTotal.WithLabelValues(p.Name(), "error").Inc()
		q.log.Warnw("submission notification failed", "publisher", p.Name(), "session", s.Session, "err", err)
		return
	}
	metrics.NotificationsTotal.WithLabelValues(p.Name(), "ok").Inc()
}

func (q *Queue) dropped(s Submission) {
	for _, p := range q.pubs {
		metrics.NotificationsTotal.WithLabelValues(p.Name(), "dropped").Inc()
	}
	q.log.Warnw("submission notification dropped", "session", s.Session)
}

func jsonBody(s Submission) (*bytes.Reader, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}
