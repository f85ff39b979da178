package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Get retrieves a single document. Returns ErrNotFound if absent.
func (s *Store) Get(ctx context.Context, collection, id string) (Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT collection, id, version, updated_seq, data
		FROM documents
		WHERE collection = ? AND id = ?
	`, collection, id)

	var doc Document
	var data string
	err := row.Scan(&doc.Collection, &doc.ID, &doc.Version, &doc.Seq, &data)
	if err == sql.ErrNoRows {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	doc.Data = []byte(data)
	return doc, nil
}

// Query returns the documents of a collection matching the predicate.
// Conditions push down to SQL via json_extract; results are ordered
// deterministically: created_seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Query(ctx context.Context, collection string, pred Predicate) ([]Document, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT collection, id, version, updated_seq, data
		FROM documents
		WHERE collection = ?`)
	args := []any{collection}

	for _, c := range pred.Conds {
		if err := validateField(c.Field); err != nil {
			return nil, err
		}
		fmt.Fprintf(&sb, " AND json_extract(data, '$.%s') = ?", c.Field)
		args = append(args, c.Value)
	}

	sb.WriteString(" ORDER BY created_seq ASC, id COLLATE BINARY ASC")
	if pred.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, pred.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var doc Document
		var data string
		if err := rows.Scan(&doc.Collection, &doc.ID, &doc.Version, &doc.Seq, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		doc.Data = []byte(data)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", collection, err)
	}

	return docs, nil
}

// validateField rejects field names that cannot be spliced into a JSON
// path. Fields come from closed engine code, never from clients, so this
// is a guard against programming mistakes rather than injection.
func validateField(field string) error {
	if field == "" {
		return fmt.Errorf("query: empty field name")
	}
	for _, r := range field {
		ok := r == '_' ||
			(r >= '0' && r <= '9') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= 'a' && r <= 'z')
		if !ok {
			return fmt.Errorf("query: invalid field name %q", field)
		}
	}
	return nil
}
