package archive

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/birdwatch/internal/types"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestSaveItemUpsert(t *testing.T) {
	a := openTestArchive(t)

	it := types.Item{Text: "hello", Author: "someone", Likes: 1}
	require.NoError(t, a.SaveItem("fp1", it))

	// Same fingerprint refreshes engagement counters.
	it.Likes = 99
	require.NoError(t, a.SaveItem("fp1", it))

	items, err := a.RecentItems(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 99, items[0].Likes)
	assert.Equal(t, "hello", items[0].Text)
}

func TestSaveAttemptKeepsFirst(t *testing.T) {
	a := openTestArchive(t)

	require.NoError(t, a.SaveAttempt("123", "failure", "composer", "hi"))
	require.NoError(t, a.SaveAttempt("123", "success", "", "hi again"))

	var outcome string
	err := a.db.QueryRow(`SELECT outcome FROM reply_attempts WHERE target_id = ?`, "123").Scan(&outcome)
	require.NoError(t, err)
	assert.Equal(t, "failure", outcome)
}
