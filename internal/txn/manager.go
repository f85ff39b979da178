package txn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/reunite-dev/reunite/internal/entity"
	"github.com/reunite-dev/reunite/internal/store"
)

// DefaultMaxAttempts is the retry budget for conflicting transactions.
const DefaultMaxAttempts = 5

// Metrics receives transaction lifecycle events. Implemented by
// internal/metrics; a no-op implementation is used when unset.
type Metrics interface {
	TxAttempt()
	TxConflict()
	TxCommit(attempts int)
	TxAbort()
}

type noopMetrics struct{}

func (noopMetrics) TxAttempt()   {}
func (noopMetrics) TxConflict()  {}
func (noopMetrics) TxCommit(int) {}
func (noopMetrics) TxAbort()     {}

// Manager executes workflow functions with optimistic retry.
type Manager struct {
	store       *store.Store
	maxAttempts int
	backoffBase time.Duration
	backoffMax  time.Duration
	metrics     Metrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxAttempts sets the retry budget.
//
// Default: 5 attempts (DefaultMaxAttempts).
// Use WithMaxAttempts(1) in tests that assert single-shot conflicts.
func WithMaxAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

// WithBackoff sets the base and cap of the jittered retry backoff.
func WithBackoff(base, max time.Duration) Option {
	return func(m *Manager) {
		m.backoffBase = base
		m.backoffMax = max
	}
}

// WithMetrics attaches a metrics sink.
func WithMetrics(mx Metrics) Option {
	return func(m *Manager) {
		if mx != nil {
			m.metrics = mx
		}
	}
}

// NewManager creates a transaction manager over the given store.
func NewManager(st *store.Store, opts ...Option) *Manager {
	m := &Manager{
		store:       st,
		maxAttempts: DefaultMaxAttempts,
		backoffBase: 5 * time.Millisecond,
		backoffMax:  250 * time.Millisecond,
		metrics:     noopMetrics{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run executes fn with optimistic retry. fn may run multiple times; all
// effects must flow through the Tx. Non-conflict errors from fn abort the
// transaction immediately with no writes and are returned verbatim.
func (m *Manager) Run(ctx context.Context, fn func(*Tx) error) error {
	_, err := RunValue(ctx, m, func(tx *Tx) (struct{}, error) {
		return struct{}{}, fn(tx)
	})
	return err
}

// RunValue executes fn with optimistic retry and returns its payload.
func RunValue[T any](ctx context.Context, m *Manager, fn func(*Tx) (T, error)) (T, error) {
	var zero T
	var lastConflict error

	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		m.metrics.TxAttempt()

		tx := newTx(ctx, m.store)
		val, err := fn(tx)
		if err != nil {
			return zero, err
		}

		_, err = m.store.Apply(ctx, tx.readSet(), tx.writeSet())
		if err == nil {
			m.metrics.TxCommit(attempt)
			return val, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return zero, err
		}

		m.metrics.TxConflict()
		lastConflict = err
		slog.Debug("transaction conflict, retrying",
			"attempt", attempt, "max_attempts", m.maxAttempts, "error", err)

		if attempt < m.maxAttempts {
			if err := m.sleep(ctx, attempt); err != nil {
				return zero, err
			}
		}
	}

	m.metrics.TxAbort()
	return zero, fmt.Errorf("%w: %w", entity.NewAborted(m.maxAttempts), lastConflict)
}

// sleep waits for a jittered, exponentially growing interval or until the
// context is done.
func (m *Manager) sleep(ctx context.Context, attempt int) error {
	d := m.backoffBase << (attempt - 1)
	if d > m.backoffMax {
		d = m.backoffMax
	}
	// Full jitter keeps colliding retries from re-colliding in lockstep.
	d = time.Duration(rand.Int63n(int64(d) + 1))

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
