// Package store provides SQLite-backed durable storage for the resolution
// engine's documents.
//
// The store keeps one logical collection per entity type (items, posts,
// rooms, messages, users) in a single versioned documents table:
//   - Point reads and predicate queries over JSON document bodies
//   - Atomic multi-document commits with read-set version validation
//     (optimistic concurrency: a commit fails with ErrVersionConflict if
//     any stamped read changed since it was taken)
//   - A monotonic commit sequence stamped on every successful commit
//   - Post-commit change notification to registered observers, delivered
//     strictly in commit order
//
// # Critical Patterns
//
// Versioned reads:
//   - Every document carries an integer version, bumped on every write
//   - Version 0 means "observed absent"; a commit that stamped an absent
//     read fails if the document has since appeared
//
// Deterministic query results:
//   - All queries order by created_seq ASC, id ASC COLLATE BINARY
//   - Ensures identical listings regardless of SQLite internals
//
// Commit ordering:
//   - Apply serializes commits under a store mutex; observers run inside
//     that critical section, so no observer ever sees commits out of order
//   - View runs a read closure under the same mutex, giving subscribers a
//     consistent snapshot seam with no gap or duplicate against the
//     observer stream
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON kept for parity even though the schema is one table
package store
