package store_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/salazaj/provenance-recorder/internal/models"
	"github.com/salazaj/provenance-recorder/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairIndexRebuildsFromDisk(t *testing.T) {
	st := newTestStore(t)
	writeRawRun(t, st, "2026-02-09T14-06-45Z_bbb111",
		`{"run_id": "2026-02-09T14-06-45Z_bbb111", "name": "second", "timestamp": "2026-02-09T14:06:45Z"}`)
	writeRawRun(t, st, "2026-02-09T13-00-00Z_aaa111",
		`{"run_id": "2026-02-09T13-00-00Z_aaa111", "name": "first", "timestamp": "2026-02-09T13:00:00Z"}`)

	// Seed an index with one valid tag, one stale tag, and a bogus run entry.
	ix := models.NewIndex()
	ix.Runs = []models.RunSummary{{RunID: "ghost", Name: "ghost", Timestamp: "2026-01-01T00:00:00Z"}}
	ix.Tags["keep"] = "2026-02-09T13-00-00Z_aaa111"
	ix.Tags["stale"] = "ghost"
	require.NoError(t, st.SaveIndex(ix))

	rebuilt, result, err := st.RepairIndex(store.RepairOptions{Backup: true, KeepTags: true})
	require.NoError(t, err)

	assert.Equal(t, 2, result.RunsCount)
	assert.Equal(t, 2, result.TagsTotalBefore)
	assert.Equal(t, 1, result.TagsKept)
	require.Len(t, rebuilt.Runs, 2)
	assert.Equal(t, "2026-02-09T13-00-00Z_aaa111", rebuilt.Runs[0].RunID, "runs should be sorted by timestamp")
	assert.Equal(t, "2026-02-09T14-06-45Z_bbb111", rebuilt.Runs[1].RunID)
	assert.Equal(t, map[string]string{"keep": "2026-02-09T13-00-00Z_aaa111"}, rebuilt.Tags)

	require.NotEmpty(t, result.BackupPath)
	assert.True(t, strings.HasPrefix(filepath.Base(result.BackupPath), "index.json.bak-"))
	_, err = os.Stat(result.BackupPath)
	assert.NoError(t, err, "backup file should exist")

	// The repaired index is what loads afterwards.
	loaded, err := st.LoadIndex()
	require.NoError(t, err)
	assert.Equal(t, rebuilt.Runs, loaded.Runs)
}

func TestRepairIndexBackfillsTimestamp(t *testing.T) {
	st := newTestStore(t)
	writeRawRun(t, st, "2026-02-09T14-06-45Z_594e12",
		`{"run_id": "2026-02-09T14-06-45Z_594e12", "name": "no-ts"}`)

	rebuilt, result, err := st.RepairIndex(store.RepairOptions{KeepTags: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.TimestampsAdded)
	require.Len(t, rebuilt.Runs, 1)
	assert.Equal(t, "2026-02-09T14:06:45Z", rebuilt.Runs[0].Timestamp)

	// The inferred timestamp is written back into run.json.
	data, err := os.ReadFile(filepath.Join(st.RunDir("2026-02-09T14-06-45Z_594e12"), "run.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"timestamp": "2026-02-09T14:06:45Z"`)
}

func TestRepairIndexSkipsBrokenRuns(t *testing.T) {
	st := newTestStore(t)
	writeRawRun(t, st, "ok-run", `{"run_id": "ok-run", "timestamp": "2026-02-09T13:00:00Z"}`)
	writeRawRun(t, st, "bad-json", `{nope`)
	require.NoError(t, os.MkdirAll(st.RunDir("no-record"), 0o755))

	rebuilt, result, err := st.RepairIndex(store.RepairOptions{})
	require.NoError(t, err)
	require.Len(t, rebuilt.Runs, 1)
	assert.Equal(t, "ok-run", rebuilt.Runs[0].RunID)

	joined := strings.Join(result.Warnings, "\n")
	assert.Contains(t, joined, "Invalid run.json")
	assert.Contains(t, joined, "Missing run.json in runs/no-record")
}

func TestRepairIndexDryRun(t *testing.T) {
	st := newTestStore(t)
	writeRawRun(t, st, "2026-02-09T14-06-45Z_594e12", `{"run_id": "2026-02-09T14-06-45Z_594e12", "name": "no-ts"}`)

	rebuilt, result, err := st.RepairIndex(store.RepairOptions{Backup: true, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RunsCount)
	assert.Equal(t, 1, result.TimestampsAdded)
	require.Len(t, rebuilt.Runs, 1)

	// Nothing may be written in dry-run mode.
	_, err = os.Stat(st.IndexPath())
	assert.True(t, os.IsNotExist(err), "dry-run should not write index.json")
	assert.Empty(t, result.BackupPath)
	data, err := os.ReadFile(filepath.Join(st.RunDir("2026-02-09T14-06-45Z_594e12"), "run.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "timestamp", "dry-run should not backfill run.json")
}
