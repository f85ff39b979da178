package hub

import (
	"context"
	"errors"
	"sync"

	"github.com/reunite-dev/reunite/internal/store"
)

// ErrCanceled is returned by Replace on a subscription that was already
// torn down.
var ErrCanceled = errors.New("hub: subscription canceled")

// Metrics tracks the live subscription population. Implemented by
// internal/metrics; a no-op is used when unset.
type Metrics interface {
	SubscriptionOpened()
	SubscriptionClosed()
}

type noopMetrics struct{}

func (noopMetrics) SubscriptionOpened() {}
func (noopMetrics) SubscriptionClosed() {}

// Hub fans committed store changes out to live subscriptions.
type Hub struct {
	store   *store.Store
	metrics Metrics

	// mu guards subs. Lock ordering: store commit mutex first (via
	// store.View or the observer callback), then h.mu. Never the
	// reverse.
	mu     sync.Mutex
	subs   map[int64]*Subscription
	nextID int64
}

// Option configures a Hub.
type Option func(*Hub)

// WithMetrics attaches a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(h *Hub) {
		if m != nil {
			h.metrics = m
		}
	}
}

// New creates a Hub and registers it as a commit observer on the store.
func New(st *store.Store, opts ...Option) *Hub {
	h := &Hub{
		store:   st,
		metrics: noopMetrics{},
		subs:    make(map[int64]*Subscription),
	}
	for _, opt := range opts {
		opt(h)
	}
	st.AddObserver(h.onCommit)
	return h
}

// Subscribe opens a live watch. The subscription's channel first delivers
// the initial snapshot batch, then one batch per store commit that is
// visible to the query, in commit order.
//
// ctx cancellation tears the subscription down as if Cancel were called.
func (h *Hub) Subscribe(ctx context.Context, q Query) (*Subscription, error) {
	sub := newSubscription(h)

	err := h.store.View(func(seq int64) error {
		snapshot, err := h.snapshot(ctx, q, seq)
		if err != nil {
			return err
		}

		h.mu.Lock()
		h.nextID++
		sub.id = h.nextID
		sub.query = q
		h.subs[sub.id] = sub
		h.mu.Unlock()

		sub.enqueue(snapshot)
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.metrics.SubscriptionOpened()
	go sub.pump()
	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				sub.Cancel()
			case <-sub.done:
			}
		}()
	}
	return sub, nil
}

// snapshot reads the query's current result set. Runs under the store's
// commit mutex, so the result is consistent with commit sequence seq.
func (h *Hub) snapshot(ctx context.Context, q Query, seq int64) (Batch, error) {
	batch := Batch{Seq: seq, Snapshot: true, Diffs: []Diff{}}

	if q.ID != "" {
		doc, err := h.store.Get(ctx, q.Collection, q.ID)
		if err == store.ErrNotFound {
			return batch, nil
		}
		if err != nil {
			return Batch{}, err
		}
		batch.Diffs = append(batch.Diffs, Diff{
			Kind: DiffAdded, Collection: doc.Collection, ID: doc.ID, Doc: doc.Data,
		})
		return batch, nil
	}

	docs, err := h.store.Query(ctx, q.Collection, q.Pred)
	if err != nil {
		return Batch{}, err
	}
	for _, doc := range docs {
		batch.Diffs = append(batch.Diffs, Diff{
			Kind: DiffAdded, Collection: doc.Collection, ID: doc.ID, Doc: doc.Data,
		})
	}
	return batch, nil
}

// onCommit is the store observer. It runs inside the commit critical
// section and must only do non-blocking work: classify the change set
// per subscription and append to buffers.
func (h *Hub) onCommit(cs store.ChangeSet) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		var diffs []Diff
		for _, c := range cs.Changes {
			if d, ok := sub.query.classify(c); ok {
				diffs = append(diffs, d)
			}
		}
		if len(diffs) > 0 {
			sub.enqueue(Batch{Seq: cs.Seq, Diffs: diffs})
		}
	}
}

// replace swaps sub's query at the snapshot seam. Undelivered batches
// from the old query are dropped; the new snapshot precedes any diff
// committed after the swap.
func (h *Hub) replace(ctx context.Context, sub *Subscription, q Query) error {
	return h.store.View(func(seq int64) error {
		snapshot, err := h.snapshot(ctx, q, seq)
		if err != nil {
			return err
		}

		h.mu.Lock()
		sub.query = q
		h.mu.Unlock()

		sub.resetTo(snapshot)
		return nil
	})
}

// drop removes sub from the routing table. Idempotent.
func (h *Hub) drop(sub *Subscription) {
	h.mu.Lock()
	_, live := h.subs[sub.id]
	delete(h.subs, sub.id)
	h.mu.Unlock()

	if live {
		h.metrics.SubscriptionClosed()
	}
}
