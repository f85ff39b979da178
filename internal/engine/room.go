package engine

import (
	"context"
	"fmt"

	"github.com/reunite-dev/reunite/internal/entity"
	"github.com/reunite-dev/reunite/internal/txn"
)

// RoomTypeHandoff is the single room type the engine creates today.
const RoomTypeHandoff = "handoff"

// OpenChat returns the room between the requester and the post author,
// creating it on first use.
//
// Creation is idempotent per unordered (post, user pair): existing rooms
// are looked up through Post.RoomIDs inside the transaction, so when two
// callers race to create the "same" room the loser's retry re-reads the
// post, finds the winner's room and returns it instead of duplicating.
func (e *Engine) OpenChat(ctx context.Context, postID, requesterID string) (room entity.Room, err error) {
	defer func() { e.metrics.RecordOperation("open_chat", err) }()

	if requesterID == "" {
		return entity.Room{}, entity.NewValidation("requesterId must not be empty")
	}

	roomID := e.ids.Generate()

	return txn.RunValue(ctx, e.txns, func(tx *txn.Tx) (entity.Room, error) {
		post, err := getPost(tx, postID)
		if err != nil {
			return entity.Room{}, err
		}
		if post.Resolved {
			return entity.Room{}, entity.NewInvalidState(entity.CollectionPosts, postID,
				"post is resolved; no new chats can be opened")
		}
		if requesterID == post.AuthorID {
			return entity.Room{}, entity.NewValidation("cannot open a chat with yourself")
		}

		for _, id := range post.RoomIDs {
			existing, err := getRoom(tx, id)
			if err != nil {
				return entity.Room{}, err
			}
			if existing.SamePair(requesterID, post.AuthorID) {
				return existing, nil
			}
		}

		room := entity.Room{
			ID:        roomID,
			Type:      RoomTypeHandoff,
			UserIDs:   [2]string{requesterID, post.AuthorID},
			PostID:    post.ID,
			CreatedAt: e.now().UTC(),
		}

		// RoomIDs is append-only while the post is unresolved.
		post.RoomIDs = append(post.RoomIDs, room.ID)

		if err := tx.Put(entity.CollectionRooms, room.ID, room); err != nil {
			return entity.Room{}, err
		}
		if err := tx.Put(entity.CollectionPosts, post.ID, post); err != nil {
			return entity.Room{}, err
		}
		return room, nil
	})
}

// PostMessage appends a chat message to a room.
//
// ClientMessageID is the sender-assigned idempotency key: the stored
// document id is derived from it, so a retried send observes the first
// copy and returns it instead of appending twice. Messages are never
// updated or deleted; ordering is by CreatedAt with commit order as the
// tiebreaker.
func (e *Engine) PostMessage(ctx context.Context, roomID, senderID, clientMessageID, text string) (msg entity.Message, err error) {
	defer func() { e.metrics.RecordOperation("post_message", err) }()

	text, err = entity.RequireText("text", text)
	if err != nil {
		return entity.Message{}, err
	}
	if clientMessageID == "" {
		return entity.Message{}, entity.NewValidation("messageId must not be empty")
	}

	docID := messageDocID(roomID, clientMessageID)

	return txn.RunValue(ctx, e.txns, func(tx *txn.Tx) (entity.Message, error) {
		room, err := getRoom(tx, roomID)
		if err != nil {
			return entity.Message{}, err
		}
		if !room.HasUser(senderID) {
			return entity.Message{}, entity.NewPermissionDenied(entity.CollectionRooms, roomID,
				"sender is not a participant of this room")
		}

		if doc, err := tx.Get(entity.CollectionMessages, docID); err == nil {
			var existing entity.Message
			if err := doc.Decode(&existing); err != nil {
				return entity.Message{}, err
			}
			return existing, nil
		}

		msg := entity.Message{
			ID:        docID,
			RoomID:    roomID,
			MessageID: clientMessageID,
			Text:      text,
			UserID:    senderID,
			CreatedAt: e.now().UTC(),
		}
		if err := tx.Put(entity.CollectionMessages, docID, msg); err != nil {
			return entity.Message{}, err
		}
		return msg, nil
	})
}

// messageDocID derives the message document id from the idempotency key.
// Room ids are UUIDs, so the separator cannot collide.
func messageDocID(roomID, clientMessageID string) string {
	return fmt.Sprintf("%s.%s", roomID, clientMessageID)
}
