package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/reunite-dev/reunite/internal/entity"
	"github.com/reunite-dev/reunite/internal/hub"
	"github.com/reunite-dev/reunite/internal/store"
)

// wireBatch is the SSE payload for one delivered batch.
type wireBatch struct {
	Seq      int64      `json:"seq"`
	Snapshot bool       `json:"snapshot"`
	Diffs    []wireDiff `json:"diffs"`
}

type wireDiff struct {
	Kind       string          `json:"kind"`
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Doc        json.RawMessage `json:"doc,omitempty"`
}

// handleSubscribe streams live query results as server-sent events.
//
// Query parameters: collection (required), then either id for a point
// watch or zero or more where=field:value conditions, plus an optional
// limit for the initial snapshot. Each commit visible to the query
// arrives as one "batch" event; the first event is the snapshot.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	q, err := parseWatchQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, fmt.Errorf("response writer does not support streaming"))
		return
	}

	sub, err := s.hub.Subscribe(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for batch := range sub.C() {
		payload, err := json.Marshal(toWireBatch(batch))
		if err != nil {
			return
		}
		if _, err := fmt.Fprintf(w, "event: batch\ndata: %s\n\n", payload); err != nil {
			return
		}
		flusher.Flush()
	}
}

func toWireBatch(b hub.Batch) wireBatch {
	out := wireBatch{Seq: b.Seq, Snapshot: b.Snapshot, Diffs: []wireDiff{}}
	for _, d := range b.Diffs {
		out.Diffs = append(out.Diffs, wireDiff{
			Kind:       string(d.Kind),
			Collection: d.Collection,
			ID:         d.ID,
			Doc:        json.RawMessage(d.Doc),
		})
	}
	return out
}

// parseWatchQuery builds the hub query from URL parameters.
func parseWatchQuery(r *http.Request) (hub.Query, error) {
	params := r.URL.Query()

	collection := params.Get("collection")
	if collection == "" {
		return hub.Query{}, entity.NewValidation("collection is required")
	}

	if id := params.Get("id"); id != "" {
		if len(params["where"]) > 0 {
			return hub.Query{}, entity.NewValidation("id and where are mutually exclusive")
		}
		return hub.PointWatch(collection, id), nil
	}

	pred := store.Predicate{}
	for _, clause := range params["where"] {
		field, raw, ok := strings.Cut(clause, ":")
		if !ok || field == "" {
			return hub.Query{}, entity.NewValidation("where must be field:value, got " + strconv.Quote(clause))
		}
		pred.Conds = append(pred.Conds, store.Cond{Field: field, Value: parseCondValue(raw)})
	}
	if v := params.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return hub.Query{}, entity.NewValidation("limit must be a positive integer")
		}
		pred = pred.WithLimit(n)
	}
	return hub.PredicateWatch(collection, pred), nil
}

// parseCondValue coerces a where clause value: booleans and numbers
// compare typed, everything else compares as a string.
func parseCondValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}
