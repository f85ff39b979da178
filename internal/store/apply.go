package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Apply atomically commits a set of writes after validating that every
// stamped read is still current. Either all writes apply or none do.
//
// Validation rules:
//   - Stamp version N > 0: the stored document must still be at version N
//   - Stamp version 0: the document must still be absent
//
// On success Apply returns the commit sequence assigned to this commit
// and notifies registered observers with the full change set before any
// later commit can be observed.
func (s *Store) Apply(ctx context.Context, reads []ReadStamp, writes []Write) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("apply: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := validateReads(ctx, tx, reads); err != nil {
		return 0, err
	}

	seq := s.seq + 1
	changes := make([]Change, 0, len(writes))
	for _, w := range writes {
		change, err := applyWrite(ctx, tx, w, seq)
		if err != nil {
			return 0, err
		}
		changes = append(changes, change)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaKeyCommitSeq, seq); err != nil {
		return 0, fmt.Errorf("apply: store commit seq: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("apply: commit: %w", err)
	}
	s.seq = seq

	// Observers run under s.mu so change sets arrive in commit order.
	cs := ChangeSet{Seq: seq, Changes: changes}
	for _, obs := range s.observers {
		obs(cs)
	}

	return seq, nil
}

// validateReads checks every read stamp against the current row versions.
func validateReads(ctx context.Context, tx *sql.Tx, reads []ReadStamp) error {
	for _, r := range reads {
		var current int64
		err := tx.QueryRowContext(ctx, `
			SELECT version FROM documents WHERE collection = ? AND id = ?
		`, r.Collection, r.ID).Scan(&current)
		if err == sql.ErrNoRows {
			current = 0
		} else if err != nil {
			return fmt.Errorf("apply: validate %s/%s: %w", r.Collection, r.ID, err)
		}

		if current != r.Version {
			return &ConflictError{
				Collection: r.Collection,
				ID:         r.ID,
				Stamped:    r.Version,
				Current:    current,
			}
		}
	}
	return nil
}

// applyWrite performs one upsert or delete and returns the before/after
// change record for observer notification.
func applyWrite(ctx context.Context, tx *sql.Tx, w Write, seq int64) (Change, error) {
	change := Change{Collection: w.Collection, ID: w.ID}

	var before string
	err := tx.QueryRowContext(ctx, `
		SELECT data FROM documents WHERE collection = ? AND id = ?
	`, w.Collection, w.ID).Scan(&before)
	switch {
	case err == sql.ErrNoRows:
		// Created below.
	case err != nil:
		return Change{}, fmt.Errorf("apply: read before-image %s/%s: %w", w.Collection, w.ID, err)
	default:
		change.Before = []byte(before)
	}

	if w.Delete {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM documents WHERE collection = ? AND id = ?
		`, w.Collection, w.ID); err != nil {
			return Change{}, fmt.Errorf("apply: delete %s/%s: %w", w.Collection, w.ID, err)
		}
		return change, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (collection, id, version, created_seq, updated_seq, data)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			version     = documents.version + 1,
			updated_seq = excluded.updated_seq,
			data        = excluded.data
	`, w.Collection, w.ID, seq, seq, string(w.Data)); err != nil {
		return Change{}, fmt.Errorf("apply: write %s/%s: %w", w.Collection, w.ID, err)
	}
	change.After = w.Data
	return change, nil
}
