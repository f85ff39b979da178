package hub

import (
	"context"
	"sync"
)

// Subscription is one live watch. Read batches from C until it closes.
type Subscription struct {
	hub *Hub
	id  int64

	// query is guarded by hub.mu (written by Subscribe/Replace, read by
	// the commit observer).
	query Query

	// Buffered batches awaiting delivery. The commit path appends here
	// and never blocks; pump drains to ch.
	bmu sync.Mutex
	buf []Batch

	wake chan struct{}
	done chan struct{}
	once sync.Once

	ch chan Batch
}

func newSubscription(h *Hub) *Subscription {
	return &Subscription{
		hub:  h,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		ch:   make(chan Batch),
	}
}

// C returns the delivery channel. It closes after Cancel (or context
// teardown); a closed channel is the only termination signal consumers
// need.
func (s *Subscription) C() <-chan Batch { return s.ch }

// Replace atomically swaps the watched query: undelivered batches from
// the old query are discarded and the new query's snapshot is delivered
// before any diff committed after the switch.
func (s *Subscription) Replace(ctx context.Context, q Query) error {
	select {
	case <-s.done:
		return ErrCanceled
	default:
	}
	return s.hub.replace(ctx, s, q)
}

// Cancel tears the subscription down and closes the channel. Idempotent;
// safe to call from any goroutine.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.drop(s)
		close(s.done)
	})
}

// enqueue appends a batch for delivery. Called from the commit critical
// section; must not block.
func (s *Subscription) enqueue(b Batch) {
	s.bmu.Lock()
	s.buf = append(s.buf, b)
	s.bmu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// resetTo discards undelivered batches and replaces them with the given
// snapshot. Used by Replace.
func (s *Subscription) resetTo(snapshot Batch) {
	s.bmu.Lock()
	s.buf = append(s.buf[:0], snapshot)
	s.bmu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pump drains the buffer to the channel at the consumer's pace. Runs in
// its own goroutine; exits and closes the channel when the subscription
// is canceled.
func (s *Subscription) pump() {
	defer close(s.ch)
	for {
		s.bmu.Lock()
		var next *Batch
		if len(s.buf) > 0 {
			b := s.buf[0]
			s.buf = s.buf[1:]
			next = &b
		}
		s.bmu.Unlock()

		if next == nil {
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}

		select {
		case s.ch <- *next:
		case <-s.done:
			return
		}
	}
}
