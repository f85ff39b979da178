package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no document exists.
var ErrNotFound = errors.New("store: document not found")

// ErrVersionConflict is the sentinel matched by errors.Is for commit
// failures caused by concurrent writes. The concrete error is a
// *ConflictError carrying the losing document.
var ErrVersionConflict = errors.New("store: version conflict")

// Document is a stored entity snapshot.
type Document struct {
	Collection string
	ID         string

	// Version increments on every write. 0 never occurs on a stored
	// document; it is reserved for "observed absent" read stamps.
	Version int64

	// Seq is the commit sequence of the document's last write.
	Seq int64

	// Data is the JSON-encoded entity body.
	Data []byte
}

// Decode unmarshals the document body into v.
func (d Document) Decode(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("decode %s/%s: %w", d.Collection, d.ID, err)
	}
	return nil
}

// Encode marshals v into a JSON document body.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// ReadStamp records the version at which a transaction observed a document.
// Version 0 records a negative read: the document was absent.
type ReadStamp struct {
	Collection string
	ID         string
	Version    int64
}

// Write is a buffered mutation applied at commit.
type Write struct {
	Collection string
	ID         string
	Data       []byte
	Delete     bool
}

// Cond is a top-level field equality condition evaluated against the JSON
// document body. Values may be strings, numbers or booleans.
type Cond struct {
	Field string
	Value any
}

// Predicate selects documents in one collection. An empty Conds slice
// matches every document. Limit truncates query results when positive;
// it does not constrain live change matching.
type Predicate struct {
	Conds []Cond
	Limit int
}

// Where builds a predicate from alternating field/value pairs.
func Where(pairs ...any) Predicate {
	if len(pairs)%2 != 0 {
		panic("store.Where: odd number of arguments")
	}
	p := Predicate{}
	for i := 0; i < len(pairs); i += 2 {
		p.Conds = append(p.Conds, Cond{Field: pairs[i].(string), Value: pairs[i+1]})
	}
	return p
}

// WithLimit returns a copy of the predicate with the given result limit.
func (p Predicate) WithLimit(n int) Predicate {
	p.Limit = n
	return p
}

// Matches evaluates the predicate against a JSON document body in Go.
// Used by the subscription hub to classify committed changes; the SQL
// path in Query pushes the same conditions down via json_extract.
func (p Predicate) Matches(data []byte) bool {
	if len(p.Conds) == 0 {
		return true
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return false
	}
	for _, c := range p.Conds {
		if !condMatches(body[c.Field], c.Value) {
			return false
		}
	}
	return true
}

func condMatches(got, want any) bool {
	switch w := want.(type) {
	case string:
		g, ok := got.(string)
		return ok && g == w
	case bool:
		g, ok := got.(bool)
		return ok && g == w
	case int:
		g, ok := got.(float64)
		return ok && g == float64(w)
	case int64:
		g, ok := got.(float64)
		return ok && g == float64(w)
	case float64:
		g, ok := got.(float64)
		return ok && g == w
	case nil:
		return got == nil
	}
	return false
}

// Change describes one document mutation within a commit. A nil Before
// means the document was created; a nil After means it was deleted.
type Change struct {
	Collection string
	ID         string
	Before     []byte
	After      []byte
}

// ChangeSet is the full set of mutations from one commit, stamped with the
// commit sequence. Observers receive change sets strictly in Seq order.
type ChangeSet struct {
	Seq     int64
	Changes []Change
}

// Observer receives committed change sets. Observers run inside the
// store's commit critical section and must not block.
type Observer func(ChangeSet)

// ConflictError reports the first stamped read that failed validation.
type ConflictError struct {
	Collection string
	ID         string
	Stamped    int64
	Current    int64
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("store: version conflict on %s/%s (read v%d, now v%d)",
		e.Collection, e.ID, e.Stamped, e.Current)
}

// Is matches ErrVersionConflict so callers can use errors.Is.
func (e *ConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}
