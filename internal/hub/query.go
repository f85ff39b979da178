package hub

import "github.com/reunite-dev/reunite/internal/store"

// Query selects the documents a subscription watches. Exactly one of ID
// (point watch) or Pred (predicate watch) is consulted: a non-empty ID
// wins.
type Query struct {
	Collection string
	ID         string
	Pred       store.Predicate
}

// PointWatch builds a single-document query.
func PointWatch(collection, id string) Query {
	return Query{Collection: collection, ID: id}
}

// PredicateWatch builds a filtered collection query. The predicate limit
// applies to the initial snapshot; live diffs are classified by the
// conditions alone.
func PredicateWatch(collection string, pred store.Predicate) Query {
	return Query{Collection: collection, Pred: pred}
}

// DiffKind classifies a document change relative to a query.
type DiffKind string

const (
	DiffAdded    DiffKind = "added"
	DiffModified DiffKind = "modified"
	DiffRemoved  DiffKind = "removed"
)

// Diff is one document change as seen by a subscription. Doc carries the
// JSON body after the change; nil for removals.
type Diff struct {
	Kind       DiffKind
	Collection string
	ID         string
	Doc        []byte
}

// Batch groups the diffs of one commit (or the initial snapshot) with
// the commit sequence they correspond to.
type Batch struct {
	Seq      int64
	Snapshot bool
	Diffs    []Diff
}

// classify maps a committed change onto the query's view of the world,
// returning ok=false when the change is invisible to the query.
//
// Membership transitions matter as much as content: a document whose
// update makes it stop matching the predicate surfaces as Removed, one
// that starts matching surfaces as Added.
func (q Query) classify(c store.Change) (Diff, bool) {
	if c.Collection != q.Collection {
		return Diff{}, false
	}

	matchedBefore := c.Before != nil && q.matches(c.ID, c.Before)
	matchedAfter := c.After != nil && q.matches(c.ID, c.After)

	switch {
	case !matchedBefore && matchedAfter:
		return Diff{Kind: DiffAdded, Collection: c.Collection, ID: c.ID, Doc: c.After}, true
	case matchedBefore && matchedAfter:
		return Diff{Kind: DiffModified, Collection: c.Collection, ID: c.ID, Doc: c.After}, true
	case matchedBefore && !matchedAfter:
		return Diff{Kind: DiffRemoved, Collection: c.Collection, ID: c.ID}, true
	}
	return Diff{}, false
}

func (q Query) matches(id string, data []byte) bool {
	if q.ID != "" {
		return id == q.ID
	}
	return q.Pred.Matches(data)
}
