// Package engine implements the lost-and-found resolution workflow.
//
// The engine is the only writer of Item and Post documents and the only
// creator of Room documents. Every operation runs inside one optimistic
// transaction (internal/txn), so the cross-entity invariants hold before
// and after every commit:
//
//   - Item.IsLost == (Item.LostPostID != "")
//   - Item.LostPostID, when set, points at an unresolved Post
//   - at most one unresolved Post per item
//   - UserStats counters only ever increment, only inside resolutions
//
// State machines:
//
//	Item: Safe -> Lost (ReportLost only), Lost -> Safe (ResolvePost only)
//	Post: Open -> Resolved(reason, finder), terminal
//
// Concurrent operations on the same entities are serialized by the
// transaction manager's conflict-and-retry protocol. The operations are
// written to be re-executed safely: a retried OpenChat observes the
// winner's room through the freshly read Post.RoomIDs and returns it
// instead of creating a duplicate; a retried ReportLost observes the
// winner's open post and fails with INVALID_STATE.
//
// The image upload in CreateItem is the single permitted piece of
// non-transactional I/O: the blob is stored and confirmed before the
// document commit and deleted again if the commit fails. A crash between
// upload and commit can orphan a blob but never exposes a partial Item.
package engine
