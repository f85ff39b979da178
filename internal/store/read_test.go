package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDocs(t *testing.T, s *Store, writes ...Write) {
	t.Helper()
	ctx := context.Background()
	for _, w := range writes {
		_, err := s.Apply(ctx, nil, []Write{w})
		require.NoError(t, err)
	}
}

func TestQuery_EmptyCollectionReturnsEmptySlice(t *testing.T) {
	s := openTestStore(t)

	docs, err := s.Query(context.Background(), "items", Predicate{})
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestQuery_FiltersByFieldEquality(t *testing.T) {
	s := openTestStore(t)
	seedDocs(t, s,
		Write{Collection: "posts", ID: "p1", Data: []byte(`{"resolved":false,"authorId":"alice"}`)},
		Write{Collection: "posts", ID: "p2", Data: []byte(`{"resolved":true,"authorId":"alice"}`)},
		Write{Collection: "posts", ID: "p3", Data: []byte(`{"resolved":false,"authorId":"bob"}`)},
	)

	docs, err := s.Query(context.Background(), "posts", Where("resolved", false))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "p1", docs[0].ID)
	assert.Equal(t, "p3", docs[1].ID)

	docs, err = s.Query(context.Background(), "posts", Where("resolved", false, "authorId", "bob"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "p3", docs[0].ID)
}

func TestQuery_OrderIsCreationThenID(t *testing.T) {
	s := openTestStore(t)
	// Insert out of lexical order; creation order dominates.
	seedDocs(t, s,
		Write{Collection: "messages", ID: "z", Data: []byte(`{"n":1}`)},
		Write{Collection: "messages", ID: "a", Data: []byte(`{"n":2}`)},
	)
	// Updating z must not move it.
	ctx := context.Background()
	_, err := s.Apply(ctx,
		[]ReadStamp{{Collection: "messages", ID: "z", Version: 1}},
		[]Write{{Collection: "messages", ID: "z", Data: []byte(`{"n":3}`)}},
	)
	require.NoError(t, err)

	docs, err := s.Query(ctx, "messages", Predicate{})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "z", docs[0].ID, "creation order is stable under updates")
	assert.Equal(t, "a", docs[1].ID)
}

func TestQuery_SameCommitTiesBreakByID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.Apply(ctx, nil, []Write{
		{Collection: "rooms", ID: "b", Data: []byte(`{}`)},
		{Collection: "rooms", ID: "A", Data: []byte(`{}`)},
		{Collection: "rooms", ID: "a", Data: []byte(`{}`)},
	})
	require.NoError(t, err)

	docs, err := s.Query(ctx, "rooms", Predicate{})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	// Binary collation: uppercase sorts before lowercase.
	assert.Equal(t, []string{"A", "a", "b"}, []string{docs[0].ID, docs[1].ID, docs[2].ID})
}

func TestQuery_Limit(t *testing.T) {
	s := openTestStore(t)
	seedDocs(t, s,
		Write{Collection: "posts", ID: "p1", Data: []byte(`{}`)},
		Write{Collection: "posts", ID: "p2", Data: []byte(`{}`)},
		Write{Collection: "posts", ID: "p3", Data: []byte(`{}`)},
	)

	docs, err := s.Query(context.Background(), "posts", Predicate{}.WithLimit(2))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "p1", docs[0].ID)
	assert.Equal(t, "p2", docs[1].ID)
}

func TestQuery_RejectsInvalidFieldName(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Query(context.Background(), "posts", Where("bad field", "x"))
	require.Error(t, err)
	_, err = s.Query(context.Background(), "posts", Where("a'); DROP TABLE documents;--", "x"))
	require.Error(t, err)
}

func TestPredicate_Matches(t *testing.T) {
	data := []byte(`{"resolved":false,"views":3,"authorId":"alice"}`)

	assert.True(t, Predicate{}.Matches(data), "empty predicate matches everything")
	assert.True(t, Where("resolved", false).Matches(data))
	assert.True(t, Where("views", 3).Matches(data), "int conditions match JSON numbers")
	assert.True(t, Where("authorId", "alice", "resolved", false).Matches(data))
	assert.False(t, Where("resolved", true).Matches(data))
	assert.False(t, Where("missing", "x").Matches(data))
	assert.False(t, Where("authorId", 3).Matches(data), "type mismatch never matches")
}
