package engine

import (
	"context"

	"github.com/reunite-dev/reunite/internal/entity"
	"github.com/reunite-dev/reunite/internal/txn"
)

// ReportLost publishes a lost report for an item and flips it to Lost.
//
// Preconditions, checked from consistent reads inside the transaction:
// the item exists, the author owns it, and it has no open post. Two
// concurrent ReportLost calls serialize through conflict-and-retry; the
// loser re-reads the item, sees the winner's open post and fails with
// INVALID_STATE, so exactly one open post can ever exist per item.
func (e *Engine) ReportLost(ctx context.Context, itemID, authorID, title, message string) (post entity.Post, err error) {
	defer func() { e.metrics.RecordOperation("report_lost", err) }()

	title, err = entity.RequireText("title", title)
	if err != nil {
		return entity.Post{}, err
	}
	message = entity.NormalizeText(message)

	postID := e.ids.Generate()

	return txn.RunValue(ctx, e.txns, func(tx *txn.Tx) (entity.Post, error) {
		item, err := getItem(tx, itemID)
		if err != nil {
			return entity.Post{}, err
		}
		if item.OwnerID != authorID {
			return entity.Post{}, entity.NewPermissionDenied(entity.CollectionItems, itemID,
				"only the owner may report an item lost")
		}
		if item.LostPostID != "" {
			prev, err := getPost(tx, item.LostPostID)
			if err != nil {
				return entity.Post{}, err
			}
			if !prev.Resolved {
				return entity.Post{}, entity.NewInvalidState(entity.CollectionItems, itemID,
					"item already has an open lost post")
			}
		}

		post := entity.Post{
			ID:        postID,
			Type:      entity.PostTypeLost,
			ItemID:    itemID,
			Title:     title,
			Message:   message,
			AuthorID:  authorID,
			CreatedAt: e.now().UTC(),
			RoomIDs:   []string{},
		}

		item.IsLost = true
		item.LostPostID = post.ID
		item.TimesLost++

		stats, err := getStats(tx, authorID)
		if err != nil {
			return entity.Post{}, err
		}
		stats.TimesItemLost = credit(stats.TimesItemLost, 1)

		if err := tx.Put(entity.CollectionPosts, post.ID, post); err != nil {
			return entity.Post{}, err
		}
		if err := tx.Put(entity.CollectionItems, item.ID, item); err != nil {
			return entity.Post{}, err
		}
		if err := tx.Put(entity.CollectionUsers, authorID, stats); err != nil {
			return entity.Post{}, err
		}
		return post, nil
	})
}

// ResolvePost closes an open post, flips the item back to Safe, credits
// the finder and archives the post's rooms, all in one commit.
//
// A second resolution of the same post fails with ALREADY_RESOLVED and
// performs zero writes: duplicate resolutions are surfaced to the caller
// rather than silently ignored.
func (e *Engine) ResolvePost(ctx context.Context, postID, actorID string, reason entity.ResolveReason, finderID string) (err error) {
	defer func() { e.metrics.RecordOperation("resolve_post", err) }()

	if !entity.ValidResolveReason(reason) {
		return entity.NewValidation("unknown resolve reason")
	}
	if reason == entity.ResolveFoundByOther && finderID == "" {
		return entity.NewValidation("foundBy is required when resolving as FOUND_BY_OTHER")
	}

	return e.txns.Run(ctx, func(tx *txn.Tx) error {
		post, err := getPost(tx, postID)
		if err != nil {
			return err
		}
		if post.Resolved {
			return entity.NewAlreadyResolved(postID)
		}
		if post.AuthorID != actorID {
			return entity.NewPermissionDenied(entity.CollectionPosts, postID,
				"only the post author may resolve it")
		}

		item, err := getItem(tx, post.ItemID)
		if err != nil {
			return err
		}

		now := e.now().UTC()
		post.Resolved = true
		post.ResolvedAt = &now
		post.ResolveReason = reason
		post.FoundBy = finderID

		item.IsLost = false
		item.LostPostID = ""

		if err := tx.Put(entity.CollectionPosts, post.ID, post); err != nil {
			return err
		}
		if err := tx.Put(entity.CollectionItems, item.ID, item); err != nil {
			return err
		}

		if err := e.creditResolution(tx, item.OwnerID, finderID); err != nil {
			return err
		}

		// Rooms are archived, never deleted.
		for _, roomID := range post.RoomIDs {
			room, err := getRoom(tx, roomID)
			if err != nil {
				return err
			}
			room.Resolved = true
			if err := tx.Put(entity.CollectionRooms, room.ID, room); err != nil {
				return err
			}
		}
		return nil
	})
}

// RecordPostView increments the post's view counter. Views sit outside
// the resolution invariants; the transaction only guards lost updates.
func (e *Engine) RecordPostView(ctx context.Context, postID string) (err error) {
	defer func() { e.metrics.RecordOperation("record_view", err) }()

	return e.txns.Run(ctx, func(tx *txn.Tx) error {
		post, err := getPost(tx, postID)
		if err != nil {
			return err
		}
		post.Views++
		return tx.Put(entity.CollectionPosts, post.ID, post)
	})
}
