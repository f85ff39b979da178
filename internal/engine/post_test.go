package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reunite-dev/reunite/internal/entity"
)

func createItem(t *testing.T, te testEngine, owner string) entity.Item {
	t.Helper()
	item, err := te.CreateItem(context.Background(), CreateItemParams{
		OwnerID:     owner,
		Name:        "blue umbrella",
		Description: "left on the bus",
	})
	require.NoError(t, err)
	return item
}

func TestReportLost_FlipsItemAndCreatesPost(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	item := createItem(t, te, "alice")

	post, err := te.ReportLost(ctx, item.ID, "alice", " Lost: umbrella ", " last seen downtown ")
	require.NoError(t, err)

	assert.Equal(t, entity.PostTypeLost, post.Type)
	assert.Equal(t, item.ID, post.ItemID)
	assert.Equal(t, "Lost: umbrella", post.Title)
	assert.Equal(t, "last seen downtown", post.Message)
	assert.Equal(t, "alice", post.AuthorID)
	assert.False(t, post.Resolved)
	assert.NotNil(t, post.RoomIDs)
	assert.Empty(t, post.RoomIDs)

	gotItem := te.item(t, item.ID)
	assert.True(t, gotItem.IsLost)
	assert.Equal(t, post.ID, gotItem.LostPostID)
	assert.Equal(t, 1, gotItem.TimesLost)

	assert.Equal(t, 1, te.stats(t, "alice").TimesItemLost)
}

func TestReportLost_OnlyOwner(t *testing.T) {
	te := newTestEngine(t)
	item := createItem(t, te, "alice")

	_, err := te.ReportLost(context.Background(), item.ID, "mallory", "lost", "")
	assert.True(t, entity.IsPermissionDenied(err))
}

func TestReportLost_BlankTitle(t *testing.T) {
	te := newTestEngine(t)
	item := createItem(t, te, "alice")

	_, err := te.ReportLost(context.Background(), item.ID, "alice", "  ", "")
	assert.True(t, entity.IsValidation(err))

	assert.False(t, te.item(t, item.ID).IsLost, "failed report leaves the item safe")
}

func TestReportLost_OpenPostBlocksSecondReport(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	item := createItem(t, te, "alice")

	_, err := te.ReportLost(ctx, item.ID, "alice", "first", "")
	require.NoError(t, err)

	_, err = te.ReportLost(ctx, item.ID, "alice", "second", "")
	assert.True(t, entity.IsInvalidState(err))
	assert.Equal(t, 1, te.item(t, item.ID).TimesLost)
}

func TestReportLost_AllowedAgainAfterResolve(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	item := createItem(t, te, "alice")

	first, err := te.ReportLost(ctx, item.ID, "alice", "first", "")
	require.NoError(t, err)
	require.NoError(t, te.ResolvePost(ctx, first.ID, "alice", entity.ResolveSelfFound, ""))

	second, err := te.ReportLost(ctx, item.ID, "alice", "second", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	gotItem := te.item(t, item.ID)
	assert.Equal(t, 2, gotItem.TimesLost)
	assert.Equal(t, second.ID, gotItem.LostPostID)
	assert.Equal(t, 2, te.stats(t, "alice").TimesItemLost)
}

func TestReportLost_MissingItem(t *testing.T) {
	te := newTestEngine(t)
	_, err := te.ReportLost(context.Background(), "ghost", "alice", "lost", "")
	assert.True(t, entity.IsNotFound(err))
}

// TestReportLost_ConcurrentSingleWinner races two reports for the same
// item. Exactly one may create a post; the loser observes the winner's
// open post after its retry and fails with INVALID_STATE.
func TestReportLost_ConcurrentSingleWinner(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	item := createItem(t, te, "alice")

	const racers = 8
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = te.ReportLost(ctx, item.ID, "alice", "lost umbrella", "")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, entity.IsInvalidState(err) || entity.IsAborted(err),
			"loser must fail cleanly, got %v", err)
	}
	require.Equal(t, 1, wins, "exactly one open post per item")

	gotItem := te.item(t, item.ID)
	assert.Equal(t, 1, gotItem.TimesLost)
	assert.Equal(t, 1, te.stats(t, "alice").TimesItemLost)
}

func TestResolvePost_SelfFound(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	item := createItem(t, te, "alice")
	post, err := te.ReportLost(ctx, item.ID, "alice", "lost", "")
	require.NoError(t, err)

	require.NoError(t, te.ResolvePost(ctx, post.ID, "alice", entity.ResolveSelfFound, "alice"))

	gotPost := te.post(t, post.ID)
	assert.True(t, gotPost.Resolved)
	require.NotNil(t, gotPost.ResolvedAt)
	assert.Equal(t, entity.ResolveSelfFound, gotPost.ResolveReason)

	gotItem := te.item(t, item.ID)
	assert.False(t, gotItem.IsLost)
	assert.Empty(t, gotItem.LostPostID)

	alice := te.stats(t, "alice")
	assert.Equal(t, 1, alice.TimesFoundOwnItem)
	assert.Equal(t, 0, alice.TimesFoundOthersItem)
	assert.Equal(t, 0, alice.TimesOthersFoundItem)
}

func TestResolvePost_GaveUpCreditsNobody(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	item := createItem(t, te, "alice")
	post, err := te.ReportLost(ctx, item.ID, "alice", "lost", "")
	require.NoError(t, err)

	require.NoError(t, te.ResolvePost(ctx, post.ID, "alice", entity.ResolveGaveUp, ""))

	alice := te.stats(t, "alice")
	assert.Equal(t, 0, alice.TimesFoundOwnItem)
	assert.Equal(t, 0, alice.TimesOthersFoundItem)
}

func TestResolvePost_FoundByOtherRequiresFinder(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	item := createItem(t, te, "alice")
	post, err := te.ReportLost(ctx, item.ID, "alice", "lost", "")
	require.NoError(t, err)

	err = te.ResolvePost(ctx, post.ID, "alice", entity.ResolveFoundByOther, "")
	assert.True(t, entity.IsValidation(err))
	assert.False(t, te.post(t, post.ID).Resolved)
}

func TestResolvePost_UnknownReason(t *testing.T) {
	te := newTestEngine(t)
	err := te.ResolvePost(context.Background(), "p", "alice", "MISPLACED", "")
	assert.True(t, entity.IsValidation(err))
}

func TestResolvePost_OnlyAuthor(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	item := createItem(t, te, "alice")
	post, err := te.ReportLost(ctx, item.ID, "alice", "lost", "")
	require.NoError(t, err)

	err = te.ResolvePost(ctx, post.ID, "bob", entity.ResolveSelfFound, "")
	assert.True(t, entity.IsPermissionDenied(err))
	assert.False(t, te.post(t, post.ID).Resolved)
}

// TestResolvePost_SecondResolveFailsWithZeroWrites resolves twice: the
// second call must fail with ALREADY_RESOLVED and must not commit, so
// counters cannot double-credit.
func TestResolvePost_SecondResolveFailsWithZeroWrites(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	item := createItem(t, te, "alice")
	post, err := te.ReportLost(ctx, item.ID, "alice", "lost", "")
	require.NoError(t, err)

	require.NoError(t, te.ResolvePost(ctx, post.ID, "alice", entity.ResolveFoundByOther, "bob"))
	seqAfterFirst := te.store.Seq()

	err = te.ResolvePost(ctx, post.ID, "alice", entity.ResolveFoundByOther, "bob")
	assert.True(t, entity.IsAlreadyResolved(err))
	assert.Equal(t, seqAfterFirst, te.store.Seq(), "duplicate resolution commits nothing")

	assert.Equal(t, 1, te.stats(t, "bob").TimesFoundOthersItem)
	assert.Equal(t, 1, te.stats(t, "alice").TimesOthersFoundItem)
}

// TestResolvePost_ConcurrentDoubleResolve races two resolutions of the
// same post: one wins, the other gets ALREADY_RESOLVED, and each counter
// advances exactly once.
func TestResolvePost_ConcurrentDoubleResolve(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	item := createItem(t, te, "alice")
	post, err := te.ReportLost(ctx, item.ID, "alice", "lost", "")
	require.NoError(t, err)

	const racers = 8
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = te.ResolvePost(ctx, post.ID, "alice", entity.ResolveFoundByOther, "bob")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, entity.IsAlreadyResolved(err) || entity.IsAborted(err),
			"loser must fail cleanly, got %v", err)
	}
	require.Equal(t, 1, wins)

	assert.Equal(t, 1, te.stats(t, "bob").TimesFoundOthersItem, "no double credit")
	assert.Equal(t, 1, te.stats(t, "alice").TimesOthersFoundItem)
}

func TestRecordPostView_Increments(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	item := createItem(t, te, "alice")
	post, err := te.ReportLost(ctx, item.ID, "alice", "lost", "")
	require.NoError(t, err)

	require.NoError(t, te.RecordPostView(ctx, post.ID))
	require.NoError(t, te.RecordPostView(ctx, post.ID))
	assert.Equal(t, 2, te.post(t, post.ID).Views)
}

// TestRecordPostView_ConcurrentCountsAll hammers the view counter; the
// optimistic retry loop must not lose any increment.
func TestRecordPostView_ConcurrentCountsAll(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	item := createItem(t, te, "alice")
	post, err := te.ReportLost(ctx, item.ID, "alice", "lost", "")
	require.NoError(t, err)

	const viewers = 10
	var wg sync.WaitGroup
	errs := make([]error, viewers)
	for i := 0; i < viewers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = te.RecordPostView(ctx, post.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, entity.IsAborted(err), "only retry exhaustion may fail, got %v", err)
		}
	}
	assert.Equal(t, succeeded, te.post(t, post.ID).Views, "every committed view is counted")
}
