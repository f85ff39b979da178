// Package entity defines the domain documents of the lost-and-found
// resolution engine and the shared error taxonomy.
//
// Five document kinds live in the store:
//   - Item: a physical object tracked by its owner, flagged lost or safe
//   - Post: a public lost/found report tied to one item, open until resolved
//   - Room: a two-party conversation thread scoped to one post
//   - Message: an append-only chat message inside a room
//   - UserStats: per-user aggregate counters, only ever incremented
//
// INVARIANTS (enforced by internal/engine, stated here for reference):
//   - Item.IsLost == (Item.LostPostID != "")
//   - Item.LostPostID, when set, references a Post with Resolved == false
//   - at most one unresolved Post exists per item at any time
//   - Post.Resolved == false implies ResolveReason/ResolvedAt/FoundBy unset
//   - Post.RoomIDs only grows while the post is unresolved
//
// All user-entered text is NFC normalized before storage so that equality
// checks (secret phrase, names) are not sensitive to Unicode encoding forms.
package entity
