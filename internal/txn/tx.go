package txn

import (
	"context"

	"github.com/reunite-dev/reunite/internal/store"
)

type docKey struct {
	collection string
	id         string
}

// Tx is the transaction context handed to workflow functions.
//
// Reads record version stamps; writes and deletes are buffered and only
// reach the store when the manager commits. A Tx is not safe for
// concurrent use and must not outlive its workflow function.
type Tx struct {
	ctx    context.Context
	store  *store.Store
	stamps map[docKey]store.ReadStamp
	writes map[docKey]store.Write
	order  []docKey
}

func newTx(ctx context.Context, st *store.Store) *Tx {
	return &Tx{
		ctx:    ctx,
		store:  st,
		stamps: make(map[docKey]store.ReadStamp),
		writes: make(map[docKey]store.Write),
	}
}

// Context returns the context the transaction runs under.
func (tx *Tx) Context() context.Context { return tx.ctx }

// Get reads a document, recording the observed version in the read set.
// Absent documents are recorded as negative reads (version 0) and return
// store.ErrNotFound. Documents written earlier in the same transaction
// are read back from the write buffer.
func (tx *Tx) Get(collection, id string) (store.Document, error) {
	key := docKey{collection, id}

	if w, ok := tx.writes[key]; ok {
		if w.Delete {
			return store.Document{}, store.ErrNotFound
		}
		return store.Document{Collection: collection, ID: id, Data: w.Data}, nil
	}

	doc, err := tx.store.Get(tx.ctx, collection, id)
	if err == store.ErrNotFound {
		tx.stamp(store.ReadStamp{Collection: collection, ID: id, Version: 0})
		return store.Document{}, store.ErrNotFound
	}
	if err != nil {
		return store.Document{}, err
	}

	tx.stamp(store.ReadStamp{Collection: collection, ID: id, Version: doc.Version})
	return doc, nil
}

// Query reads matching documents, stamping each one into the read set.
// Buffered writes are not visible to queries; workflows that need
// read-your-writes use Get.
func (tx *Tx) Query(collection string, pred store.Predicate) ([]store.Document, error) {
	docs, err := tx.store.Query(tx.ctx, collection, pred)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		tx.stamp(store.ReadStamp{Collection: d.Collection, ID: d.ID, Version: d.Version})
	}
	return docs, nil
}

// Put buffers a document write. v is JSON-encoded immediately so a later
// mutation of v does not change the committed body.
func (tx *Tx) Put(collection, id string, v any) error {
	data, err := store.Encode(v)
	if err != nil {
		return err
	}
	tx.bufferWrite(store.Write{Collection: collection, ID: id, Data: data})
	return nil
}

// Delete buffers a document deletion.
func (tx *Tx) Delete(collection, id string) {
	tx.bufferWrite(store.Write{Collection: collection, ID: id, Delete: true})
}

// stamp records the first observed version of a document. Re-reads keep
// the original stamp: commit validation must check against what the
// transaction logic actually acted on first.
func (tx *Tx) stamp(s store.ReadStamp) {
	key := docKey{s.Collection, s.ID}
	if _, ok := tx.stamps[key]; ok {
		return
	}
	tx.stamps[key] = s
}

func (tx *Tx) bufferWrite(w store.Write) {
	key := docKey{w.Collection, w.ID}
	if _, ok := tx.writes[key]; !ok {
		tx.order = append(tx.order, key)
	}
	tx.writes[key] = w
}

func (tx *Tx) readSet() []store.ReadStamp {
	out := make([]store.ReadStamp, 0, len(tx.stamps))
	for _, s := range tx.stamps {
		out = append(out, s)
	}
	return out
}

func (tx *Tx) writeSet() []store.Write {
	out := make([]store.Write, 0, len(tx.order))
	for _, key := range tx.order {
		out = append(out, tx.writes[key])
	}
	return out
}
