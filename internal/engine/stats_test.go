package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reunite-dev/reunite/internal/entity"
	"github.com/reunite-dev/reunite/internal/store"
)

func TestCredit_ClampsNegativeBase(t *testing.T) {
	assert.Equal(t, 1, credit(-5, 1), "corrupt negative counters are repaired")
	assert.Equal(t, 0, credit(-5, 0))
	assert.Equal(t, 3, credit(2, 1))
	assert.Equal(t, 2, credit(2, -1), "negative deltas are ignored")
}

// TestResolvePost_RepairsCorruptCounter seeds a negative counter out of
// band and checks the next credit lands on a clamped base.
func TestResolvePost_RepairsCorruptCounter(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	_, err := te.store.Apply(ctx, nil, []store.Write{{
		Collection: entity.CollectionUsers,
		ID:         "alice",
		Data:       []byte(`{"id":"alice","timesItemLost":-7}`),
	}})
	require.NoError(t, err)

	item := createItem(t, te, "alice")
	_, err = te.ReportLost(ctx, item.ID, "alice", "lost", "")
	require.NoError(t, err)

	assert.Equal(t, 1, te.stats(t, "alice").TimesItemLost)
}

// TestStats_AccumulateAcrossResolutions runs several lost/found cycles
// and checks counters only ever grow.
func TestStats_AccumulateAcrossResolutions(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	item := createItem(t, te, "alice")

	for i := 0; i < 3; i++ {
		post, err := te.ReportLost(ctx, item.ID, "alice", "lost again", "")
		require.NoError(t, err)
		require.NoError(t, te.ResolvePost(ctx, post.ID, "alice", entity.ResolveFoundByOther, "bob"))
	}

	alice := te.stats(t, "alice")
	assert.Equal(t, 3, alice.TimesItemLost)
	assert.Equal(t, 3, alice.TimesOthersFoundItem)
	assert.Equal(t, 3, te.stats(t, "bob").TimesFoundOthersItem)
	assert.Equal(t, 3, te.item(t, item.ID).TimesLost)
}
