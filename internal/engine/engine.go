package engine

import (
	"context"
	"time"

	"github.com/reunite-dev/reunite/internal/entity"
	"github.com/reunite-dev/reunite/internal/store"
	"github.com/reunite-dev/reunite/internal/txn"
)

// ImageStore persists processed item photos. Implemented by internal/blob.
type ImageStore interface {
	// Save stores an encoded image under the given item id and returns
	// the stable URL recorded on the Item document.
	Save(ctx context.Context, itemID string, jpeg []byte) (string, error)
	// Delete removes a previously saved image. Deleting an unknown URL
	// is not an error.
	Delete(ctx context.Context, url string) error
}

// ImageProcessor validates and normalizes raw uploads before storage.
// Implemented by internal/imaging.
type ImageProcessor interface {
	Process(data []byte) ([]byte, error)
}

// Metrics counts completed operations by outcome. Implemented by
// internal/metrics; a no-op is used when unset.
type Metrics interface {
	RecordOperation(op string, err error)
}

type noopMetrics struct{}

func (noopMetrics) RecordOperation(string, error) {}

// Engine executes the resolution workflow operations.
type Engine struct {
	txns    *txn.Manager
	images  ImageStore
	process ImageProcessor
	ids     IDGenerator
	now     func() time.Time
	metrics Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides the document id generator (for tests).
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithNow overrides the wall clock (for tests).
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMetrics attaches an operation metrics sink.
func WithMetrics(m Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// New creates an Engine. images and process may be nil when the caller
// never supplies image payloads (tests, headless tools).
func New(txns *txn.Manager, images ImageStore, process ImageProcessor, opts ...Option) *Engine {
	e := &Engine{
		txns:    txns,
		images:  images,
		process: process,
		ids:     UUIDv7Generator{},
		now:     time.Now,
		metrics: noopMetrics{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// getItem reads an item inside the transaction, mapping absence to the
// workflow error taxonomy.
func getItem(tx *txn.Tx, id string) (entity.Item, error) {
	doc, err := tx.Get(entity.CollectionItems, id)
	if err == store.ErrNotFound {
		return entity.Item{}, entity.NewNotFound(entity.CollectionItems, id)
	}
	if err != nil {
		return entity.Item{}, err
	}
	var item entity.Item
	if err := doc.Decode(&item); err != nil {
		return entity.Item{}, err
	}
	return item, nil
}

func getPost(tx *txn.Tx, id string) (entity.Post, error) {
	doc, err := tx.Get(entity.CollectionPosts, id)
	if err == store.ErrNotFound {
		return entity.Post{}, entity.NewNotFound(entity.CollectionPosts, id)
	}
	if err != nil {
		return entity.Post{}, err
	}
	var post entity.Post
	if err := doc.Decode(&post); err != nil {
		return entity.Post{}, err
	}
	return post, nil
}

func getRoom(tx *txn.Tx, id string) (entity.Room, error) {
	doc, err := tx.Get(entity.CollectionRooms, id)
	if err == store.ErrNotFound {
		return entity.Room{}, entity.NewNotFound(entity.CollectionRooms, id)
	}
	if err != nil {
		return entity.Room{}, err
	}
	var room entity.Room
	if err := doc.Decode(&room); err != nil {
		return entity.Room{}, err
	}
	return room, nil
}

// getStats reads a user's aggregate counters. An absent stats document
// reads as all zeroes: counters default to zero rather than silently
// skipping credits.
func getStats(tx *txn.Tx, userID string) (entity.UserStats, error) {
	doc, err := tx.Get(entity.CollectionUsers, userID)
	if err == store.ErrNotFound {
		return entity.UserStats{ID: userID}, nil
	}
	if err != nil {
		return entity.UserStats{}, err
	}
	var stats entity.UserStats
	if err := doc.Decode(&stats); err != nil {
		return entity.UserStats{}, err
	}
	stats.ID = userID
	return stats, nil
}
