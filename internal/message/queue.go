// internal/message/queue.go
//
// Bounded in-process e-mail queue.
//
// Context
// -------
// Enqueue never blocks a request: when the buffer is full it fails fast
// with ErrQueueFull and the caller decides whether that is fatal.  A fixed
// pool of workers drains the buffer through the configured Transport.
// Close stops intake and waits for queued mail to flush or ctx to expire.
package message

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrQueueFull   = errors.New("message: queue full")
	ErrQueueClosed = errors.New("message: queue closed")
)

// Queue buffers e-mails for background delivery.
type Queue struct {
	transport Transport
	log       *zap.SugaredLogger

	mu     sync.RWMutex
	closed bool
	jobs   chan Email
	wg     sync.WaitGroup
}

// NewQueue starts workers goroutines draining a buffer of size.
func NewQueue(t Transport, size, workers int, log *zap.SugaredLogger) *Queue {
	if size <= 0 {
		size = 64
	}
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.S()
	}
	q := &Queue{transport: t, log: log, jobs: make(chan Email, size)}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.work()
	}
	return q
}

// Enqueue adds msg without blocking.
func (q *Queue) Enqueue(ctx context.Context, msg Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Len reports how many e-mails are waiting.
func (q *Queue) Len() int { return len(q.jobs) }

// Close stops intake and waits for workers to drain the buffer.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for msg := range q.jobs {
		if err := q.transport.Send(context.Background(), msg); err != nil {
			q.log.Errorw("email delivery failed", "to", msg.To, "subject", msg.Subject, "err", err)
			continue
		}
		q.log.Debugw("email delivered", "to", msg.To, "subject", msg.Subject)
	}
}
