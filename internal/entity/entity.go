package entity

import "time"

// Collection names as stored in the documents table.
const (
	CollectionItems    = "items"
	CollectionPosts    = "posts"
	CollectionRooms    = "rooms"
	CollectionMessages = "messages"
	CollectionUsers    = "users"
)

// PostType distinguishes lost reports from found reports.
type PostType string

const (
	PostTypeLost  PostType = "LOST"
	PostTypeFound PostType = "FOUND"
)

// ResolveReason records why a post was closed.
type ResolveReason string

const (
	// ResolveSelfFound: the owner found the item themselves.
	ResolveSelfFound ResolveReason = "SELF_FOUND"
	// ResolveFoundByOther: another user returned the item.
	ResolveFoundByOther ResolveReason = "FOUND_BY_OTHER"
	// ResolveGaveUp: the owner stopped looking.
	ResolveGaveUp ResolveReason = "GAVE_UP"
	// ResolveOther: any other reason.
	ResolveOther ResolveReason = "OTHER"
)

// ValidResolveReason reports whether r is one of the defined reasons.
func ValidResolveReason(r ResolveReason) bool {
	switch r {
	case ResolveSelfFound, ResolveFoundByOther, ResolveGaveUp, ResolveOther:
		return true
	}
	return false
}

// Item is a physical object tracked by its owner.
//
// IsLost and LostPostID move together: both are set by ReportLost and
// cleared by ResolvePost, never written directly by clients.
type Item struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	OwnerID      string    `json:"ownerId"`
	IsLost       bool      `json:"isLost"`
	LostPostID   string    `json:"lostPostId,omitempty"`
	SecretPhrase string    `json:"secretPhrase,omitempty"`
	TimesLost    int       `json:"timesLost"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Post is a public lost/found report. A post is terminal once resolved.
type Post struct {
	ID            string        `json:"id"`
	Type          PostType      `json:"type"`
	ItemID        string        `json:"itemId"`
	Title         string        `json:"title"`
	Message       string        `json:"message"`
	AuthorID      string        `json:"authorId"`
	CreatedAt     time.Time     `json:"createdAt"`
	Resolved      bool          `json:"resolved"`
	ResolvedAt    *time.Time    `json:"resolvedAt,omitempty"`
	ResolveReason ResolveReason `json:"resolveReason,omitempty"`
	FoundBy       string        `json:"foundBy,omitempty"`
	RoomIDs       []string      `json:"roomIds"`
	Views         int           `json:"views"`
}

// Room is a two-party conversation thread scoped to one post.
// At most one room exists per unordered (post, user pair).
type Room struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	UserIDs   [2]string `json:"userIds"`
	PostID    string    `json:"postId"`
	CreatedAt time.Time `json:"createdAt"`
	// Resolved marks the room stale for client-side archival once its
	// post resolves. Rooms are never deleted.
	Resolved bool `json:"resolved"`
}

// HasUser reports whether uid participates in the room.
func (r Room) HasUser(uid string) bool {
	return r.UserIDs[0] == uid || r.UserIDs[1] == uid
}

// SamePair reports whether the room covers the unordered pair (a, b).
func (r Room) SamePair(a, b string) bool {
	return (r.UserIDs[0] == a && r.UserIDs[1] == b) ||
		(r.UserIDs[0] == b && r.UserIDs[1] == a)
}

// Message is an append-only chat message. MessageID is the client-assigned
// idempotency key; ID is the server-assigned document id. Ordering is by
// CreatedAt with store commit order as tiebreaker.
type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	MessageID string    `json:"messageId"`
	Text      string    `json:"text"`
	UserID    string    `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserStats holds the per-user aggregate counters. Counters are only ever
// incremented, and only as a side effect of resolution transactions. A
// missing stats document reads as all zeroes.
type UserStats struct {
	ID                   string `json:"id"`
	TimesItemLost        int    `json:"timesItemLost"`
	TimesFoundOwnItem    int    `json:"timesFoundOwnItem"`
	TimesFoundOthersItem int    `json:"timesFoundOthersItem"`
	TimesOthersFoundItem int    `json:"timesOthersFoundItem"`
}
