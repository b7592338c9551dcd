package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrClosed is returned by Publish after the queue has been closed.
var ErrClosed = errors.New("queue closed")

// MemoryQueue is an in-process queue backed by a buffered channel.  It is
// the default driver for development and tests; requests are lost if the
// process dies.
type MemoryQueue struct {
	ch     chan MailRequest
	log    logrus.FieldLogger
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewMemoryQueue(buffer int, log logrus.FieldLogger) *MemoryQueue {
	if buffer < 1 {
		buffer = 1
	}
	return &MemoryQueue{ch: make(chan MailRequest, buffer), log: log}
}

// Publish enqueues req, blocking while the buffer is full.
func (q *MemoryQueue) Publish(ctx context.Context, req MailRequest) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.ch <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start runs workers goroutines that feed requests to h until Close.
func (q *MemoryQueue) Start(workers int, h Handler) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go func(worker int) {
			defer q.wg.Done()
			for req := range q.ch {
				if err := h(context.Background(), req); err != nil {
					q.log.WithError(err).WithFields(logrus.Fields{
						"worker":  worker,
						"mail_id": req.ID,
						"kind":    req.Kind,
					}).Error("mail-queue: handle request failed")
				}
			}
		}(i)
	}
}

// Close stops accepting requests and waits for workers to drain the buffer.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()
	q.wg.Wait()
	return nil
}
