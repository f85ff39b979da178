// Package metrics collects and exposes Prometheus metrics for the
// resolution engine: transaction lifecycle, workflow operation outcomes
// and the live subscription population.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reunite-dev/reunite/internal/entity"
)

// Collector implements the metrics interfaces consumed by internal/txn,
// internal/engine and internal/hub.
type Collector struct {
	txAttempts  prometheus.Counter
	txConflicts prometheus.Counter
	txCommits   prometheus.Counter
	txAborts    prometheus.Counter
	txRetries   prometheus.Histogram

	operations *prometheus.CounterVec

	subscriptions prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		txAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reunite_tx_attempts_total",
			Help: "Transaction attempts, including retries.",
		}),
		txConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reunite_tx_conflicts_total",
			Help: "Commit-time version conflicts that triggered a retry.",
		}),
		txCommits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reunite_tx_commits_total",
			Help: "Successfully committed transactions.",
		}),
		txAborts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reunite_tx_aborts_total",
			Help: "Transactions aborted after exhausting the retry budget.",
		}),
		txRetries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reunite_tx_attempts_per_commit",
			Help:    "Attempts needed per committed transaction.",
			Buckets: []float64{1, 2, 3, 4, 5},
		}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reunite_operations_total",
			Help: "Workflow operations by name and outcome code.",
		}, []string{"operation", "code"}),
		subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reunite_subscriptions_live",
			Help: "Currently live hub subscriptions.",
		}),
	}

	reg.MustRegister(
		c.txAttempts,
		c.txConflicts,
		c.txCommits,
		c.txAborts,
		c.txRetries,
		c.operations,
		c.subscriptions,
	)

	return c
}

// TxAttempt records one transaction attempt.
func (c *Collector) TxAttempt() { c.txAttempts.Inc() }

// TxConflict records a commit-time version conflict.
func (c *Collector) TxConflict() { c.txConflicts.Inc() }

// TxCommit records a successful commit and the attempts it took.
func (c *Collector) TxCommit(attempts int) {
	c.txCommits.Inc()
	c.txRetries.Observe(float64(attempts))
}

// TxAbort records a transaction that exhausted its retry budget.
func (c *Collector) TxAbort() { c.txAborts.Inc() }

// RecordOperation records a workflow operation outcome.
func (c *Collector) RecordOperation(op string, err error) {
	code := "ok"
	if err != nil {
		if ec := entity.CodeOf(err); ec != "" {
			code = string(ec)
		} else {
			code = "error"
		}
	}
	c.operations.WithLabelValues(op, code).Inc()
}

// SubscriptionOpened increments the live subscription gauge.
func (c *Collector) SubscriptionOpened() { c.subscriptions.Inc() }

// SubscriptionClosed decrements the live subscription gauge.
func (c *Collector) SubscriptionClosed() { c.subscriptions.Dec() }

// Handler returns the Prometheus scrape handler for the registry.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
