package renderlog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "render_log.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenAppliesMigrations(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	rows, err := s.RecentResolutions(10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "render_log.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordResolution(Record{
		RequestID: "a1", Composite: "fog", State: "finalized", DurationMs: 12,
	}))
	require.NoError(t, s.Close())

	// Reopening an up-to-date database must not fail or lose rows.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	rows, err := s.RecentResolutions(10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "fog", rows[0].Composite)
}

func TestRecordAndRecentResolutions(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	require.NoError(t, s.RecordResolution(Record{
		RequestID:    "req-1",
		Composite:    "true_color",
		StandardName: "true_color",
		State:        "finalized",
		Warnings:     1,
		DurationMs:   840,
	}))
	require.NoError(t, s.RecordResolution(Record{
		RequestID:  "req-2",
		Composite:  "fog",
		State:      "failed",
		Error:      "band m04 not found",
		DurationMs: 15,
	}))

	rows, err := s.RecentResolutions(10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byID := make(map[string]Record, len(rows))
	for _, r := range rows {
		byID[r.RequestID] = r
		assert.False(t, r.CreatedAt.IsZero(), "created_at must be populated")
	}
	assert.Equal(t, "finalized", byID["req-1"].State)
	assert.Equal(t, 1, byID["req-1"].Warnings)
	assert.Equal(t, "band m04 not found", byID["req-2"].Error)
	assert.Equal(t, int64(15), byID["req-2"].DurationMs)
}

func TestRecentResolutionsHonorsLimit(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.RecordResolution(Record{RequestID: id, Composite: "fog", State: "finalized"}))
	}
	rows, err := s.RecentResolutions(2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
