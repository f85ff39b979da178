// Package hub maintains live queries over the document store and fans
// committed changes out to subscribers.
//
// A subscription is either a point watch (one document) or a predicate
// watch (one collection filtered by field equality). Each subscription
// delivers batches on a channel:
//
//  1. First an initial snapshot batch (every matching document as Added)
//  2. Then incremental Added/Modified/Removed diffs, one batch per store
//     commit, strictly in commit order, published only after the commit
//
// The snapshot/stream seam is gap-free and duplicate-free: the snapshot
// is taken under the store's commit mutex (store.View), so no commit can
// land between the snapshot read and the registration of the live watch.
// Replace swaps a subscription's query atomically at the same seam,
// dropping undelivered diffs from the old query and delivering the new
// snapshot before any diff committed after the switch.
//
// Delivery never blocks a committing transaction: the commit path only
// appends to a per-subscription buffer; a dedicated pump goroutine per
// subscription drains the buffer to the channel at the consumer's pace.
package hub
