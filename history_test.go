package imgconv

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryDB(t *testing.T) {
	file := filepath.Join(t.TempDir(), "history.db")

	db, err := NewHistoryDB(file)
	require.Nil(t, err)

	created := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	entries := []Entry{
		{RunID: "run1", Input: "a.bmp", Output: "a.png", InputFormat: "bmp", OutputFormat: "png", Width: 2, Height: 2, SHA1: "AA", Status: StatusOK, Created: created},
		{RunID: "run1", Input: "b.bmp", Output: "b.png", InputFormat: "bmp", OutputFormat: "png", Status: StatusFailed, Error: "loading failed"},
		{RunID: "run2", Input: "c.ppm", Output: "c.bmp", InputFormat: "ppm", OutputFormat: "bmp", Width: 1, Height: 9, SHA1: "AA", Status: StatusOK, Created: created},
	}

	for i, e := range entries {
		id, err := db.Record(e)
		require.Nil(t, err)
		assert.Equal(t, int64(i+1), id)
	}
	require.Nil(t, db.Close())

	// Reopening keeps the existing schema and rows
	db, err = NewHistoryDB(file)
	require.Nil(t, err)
	defer db.Close()

	recent, err := db.Recent(2)
	require.Nil(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c.ppm", recent[0].Input)
	assert.Equal(t, "b.bmp", recent[1].Input)
	assert.Equal(t, "loading failed", recent[1].Error)
	assert.Zero(t, recent[1].Width)
	assert.Empty(t, recent[1].SHA1)
	assert.False(t, recent[1].Created.IsZero())

	matches, err := db.FindByChecksum("AA")
	require.Nil(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, int64(1), matches[0].ID)
	assert.Equal(t, int64(3), matches[1].ID)
	assert.True(t, created.Equal(matches[0].Created))
	assert.Equal(t, 9, matches[1].Height)

	run, err := db.Run("run1")
	require.Nil(t, err)
	assert.Len(t, run, 2)

	none, err := db.FindByChecksum("BB")
	require.Nil(t, err)
	assert.Empty(t, none)
}
