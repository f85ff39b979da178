package engine

import (
	"github.com/reunite-dev/reunite/internal/entity"
	"github.com/reunite-dev/reunite/internal/txn"
)

// credit applies a counter increment. Counters are clamped at a minimum
// of 0 first: a corrupt negative value is repaired rather than credited
// from below zero. Absent counters arrive here as 0 (see getStats).
func credit(current, delta int) int {
	if current < 0 {
		current = 0
	}
	if delta < 0 {
		return current
	}
	return current + delta
}

// creditResolution applies the per-user counter effects of a resolution:
//
//	finder == owner: finder.timesFoundOwnItem + 1
//	finder != owner: finder.timesFoundOthersItem + 1
//	                 owner.timesOthersFoundItem + 1
//
// No finder means no credit (GAVE_UP / OTHER without a named finder).
func (e *Engine) creditResolution(tx *txn.Tx, ownerID, finderID string) error {
	if finderID == "" {
		return nil
	}

	if finderID == ownerID {
		stats, err := getStats(tx, finderID)
		if err != nil {
			return err
		}
		stats.TimesFoundOwnItem = credit(stats.TimesFoundOwnItem, 1)
		return tx.Put(entity.CollectionUsers, finderID, stats)
	}

	finder, err := getStats(tx, finderID)
	if err != nil {
		return err
	}
	finder.TimesFoundOthersItem = credit(finder.TimesFoundOthersItem, 1)
	if err := tx.Put(entity.CollectionUsers, finderID, finder); err != nil {
		return err
	}

	owner, err := getStats(tx, ownerID)
	if err != nil {
		return err
	}
	owner.TimesOthersFoundItem = credit(owner.TimesOthersFoundItem, 1)
	return tx.Put(entity.CollectionUsers, ownerID, owner)
}
