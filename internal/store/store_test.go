package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	for _, table := range []string{"documents", "meta"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %q not found after idempotent opens", table)
	}
}

func TestOpen_RestoresCommitSeq(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := s1.Apply(ctx, nil, []Write{
			{Collection: "items", ID: "a", Data: []byte(`{"n":1}`)},
		})
		require.NoError(t, err)
	}
	require.EqualValues(t, 3, s1.Seq())
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	assert.EqualValues(t, 3, s2.Seq(), "commit clock must survive restart")

	seq, err := s2.Apply(ctx, nil, []Write{
		{Collection: "items", ID: "b", Data: []byte(`{"n":2}`)},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 4, seq)
}

func TestView_ExposesCurrentSeq(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Apply(ctx, nil, []Write{
		{Collection: "items", ID: "a", Data: []byte(`{}`)},
	})
	require.NoError(t, err)

	var seen int64
	require.NoError(t, s.View(func(seq int64) error {
		seen = seq
		return nil
	}))
	assert.EqualValues(t, 1, seen)
}
