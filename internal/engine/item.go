package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reunite-dev/reunite/internal/entity"
	"github.com/reunite-dev/reunite/internal/txn"
)

// CreateItemParams carries the CreateItem inputs. ImagePayload is the raw
// uploaded image; empty means no photo. SecretPhrase is optional and lets
// a finder prove possession during handoff.
type CreateItemParams struct {
	OwnerID      string
	Name         string
	Description  string
	SecretPhrase string
	ImagePayload []byte
}

// CreateItem validates the inputs, stores the photo, and commits a new
// safe Item.
//
// The image upload is sequenced strictly before the document commit and
// rolled back (deleted) if the commit fails, so a failed CreateItem never
// leaves a partially visible Item. A crash between upload and commit can
// orphan a blob; orphan cleanup is out of scope.
func (e *Engine) CreateItem(ctx context.Context, p CreateItemParams) (item entity.Item, err error) {
	defer func() { e.metrics.RecordOperation("create_item", err) }()

	if p.OwnerID == "" {
		return entity.Item{}, entity.NewValidation("ownerId must not be empty")
	}
	name, err := entity.RequireText("name", p.Name)
	if err != nil {
		return entity.Item{}, err
	}
	desc, err := entity.RequireText("description", p.Description)
	if err != nil {
		return entity.Item{}, err
	}

	id := e.ids.Generate()

	imageURL := ""
	if len(p.ImagePayload) > 0 {
		if e.process == nil || e.images == nil {
			return entity.Item{}, entity.NewValidation("image uploads are not enabled")
		}
		jpeg, perr := e.process.Process(p.ImagePayload)
		if perr != nil {
			return entity.Item{}, entity.NewValidation(fmt.Sprintf("image rejected: %v", perr))
		}
		imageURL, err = e.images.Save(ctx, id, jpeg)
		if err != nil {
			return entity.Item{}, fmt.Errorf("store image: %w", err)
		}
	}

	item = entity.Item{
		ID:           id,
		Name:         name,
		Description:  desc,
		OwnerID:      p.OwnerID,
		SecretPhrase: entity.NormalizeText(p.SecretPhrase),
		ImageURL:     imageURL,
		CreatedAt:    e.now().UTC(),
	}

	err = e.txns.Run(ctx, func(tx *txn.Tx) error {
		return tx.Put(entity.CollectionItems, item.ID, item)
	})
	if err != nil {
		if imageURL != "" {
			if derr := e.images.Delete(ctx, imageURL); derr != nil {
				slog.Warn("failed to roll back image after commit failure",
					"item", item.ID, "url", imageURL, "error", derr)
			}
		}
		return entity.Item{}, err
	}

	return item, nil
}

// DeleteItem removes an item and its photo. Only the owner may delete.
//
// Deletion is forbidden while the item has an open post: allowing it
// would leave a live Post referencing a nonexistent item. Resolve the
// post first (GAVE_UP covers abandonment).
func (e *Engine) DeleteItem(ctx context.Context, itemID, requesterID string) (err error) {
	defer func() { e.metrics.RecordOperation("delete_item", err) }()

	var imageURL string
	err = e.txns.Run(ctx, func(tx *txn.Tx) error {
		item, err := getItem(tx, itemID)
		if err != nil {
			return err
		}
		if item.OwnerID != requesterID {
			return entity.NewPermissionDenied(entity.CollectionItems, itemID,
				"only the owner may delete an item")
		}
		if item.IsLost {
			return entity.NewInvalidState(entity.CollectionItems, itemID,
				"item has an open lost post; resolve it before deleting")
		}
		imageURL = item.ImageURL
		tx.Delete(entity.CollectionItems, itemID)
		return nil
	})
	if err != nil {
		return err
	}

	// Blob deletion after the commit: losing this race only leaves an
	// orphaned file, never a dangling document reference.
	if imageURL != "" && e.images != nil {
		if derr := e.images.Delete(ctx, imageURL); derr != nil {
			slog.Warn("failed to delete item image", "item", itemID, "error", derr)
		}
	}
	return nil
}
