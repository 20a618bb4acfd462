package output_test

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"testing"

	"github.com/salazaj/provenance-recorder/internal/diffengine"
	"github.com/salazaj/provenance-recorder/internal/models"
	"github.com/salazaj/provenance-recorder/internal/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRun() *models.Run {
	branch := "main"
	return &models.Run{
		Version:   models.RunSchemaVersion,
		RunID:     "2026-02-09T14-06-45Z_594e12",
		Name:      "train",
		Timestamp: "2026-02-09T14:06:45Z",
		Status:    models.StatusRecordedOnly,
		Inputs: models.Manifest{
			"data/in.txt": {Bytes: 10, Hash: "hash1"},
		},
		Outputs: models.Manifest{
			"out/model.bin": {Bytes: 99, Hash: "hash9"},
		},
		Params:      &models.ParamsRecord{Path: "params.yaml", Bytes: 5, Hash: "phash"},
		Environment: models.Environment{"runtime_version": "go1.25.5", "platform": "linux/amd64"},
		Warnings:    []models.Warning{{Code: "GIT_DIRTY", Message: "working tree has uncommitted changes", Severity: "warning"}},
		Git: &models.GitRecord{
			IsRepo: true, Commit: "abc123", Branch: &branch, Dirty: true, Untracked: 2,
		},
	}
}

func topLevelKeys(t *testing.T, v any) []string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var obj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &obj))
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestShowKeySetBase(t *testing.T) {
	doc := output.BuildShow(sampleRun(), []string{"baseline"}, output.ShowOptions{})
	assert.Equal(t, []string{"counts", "environment", "git", "run"}, topLevelKeys(t, doc))
}

// Each optional flag adds exactly one top-level key and leaves the base keys
// untouched.
func TestShowKeySetGrowsWithFlags(t *testing.T) {
	doc := output.BuildShow(sampleRun(), nil, output.ShowOptions{Paths: true})
	assert.Equal(t, []string{"counts", "environment", "git", "paths", "run"}, topLevelKeys(t, doc))

	doc = output.BuildShow(sampleRun(), nil, output.ShowOptions{Warnings: true})
	assert.Equal(t, []string{"counts", "environment", "git", "run", "warnings"}, topLevelKeys(t, doc))

	doc = output.BuildShow(sampleRun(), nil, output.ShowOptions{Paths: true, Hashes: true, Warnings: true})
	assert.Equal(t, []string{"counts", "environment", "git", "paths", "run", "warnings"}, topLevelKeys(t, doc))
}

func TestShowRunBlock(t *testing.T) {
	doc := output.BuildShow(sampleRun(), []string{"baseline"}, output.ShowOptions{})

	assert.Equal(t, output.ContractVersion, doc.Run.Version)
	assert.Equal(t, "2026-02-09T14-06-45Z_594e12", doc.Run.RunID)
	assert.Equal(t, []string{"baseline"}, doc.Run.Tags)
	assert.Equal(t, 1, doc.Counts.Inputs)
	assert.Equal(t, 1, doc.Counts.Outputs)
	assert.Equal(t, 1, doc.Counts.Warnings)
	assert.True(t, doc.Counts.HasParams)
	assert.True(t, doc.Git.Recorded)
}

// Tags must serialize as an empty array, never null.
func TestShowEmptyTagsArray(t *testing.T) {
	doc := output.BuildShow(sampleRun(), nil, output.ShowOptions{})
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tags":[]`)
}

func TestShowPathsWithHashes(t *testing.T) {
	doc := output.BuildShow(sampleRun(), nil, output.ShowOptions{Paths: true, Hashes: true})
	require.NotNil(t, doc.Paths)
	assert.Equal(t, map[string]string{"data/in.txt": "hash1"}, doc.Paths.Inputs)
}

func TestShowGitNotRecorded(t *testing.T) {
	run := sampleRun()
	run.Git = nil
	doc := output.BuildShow(run, nil, output.ShowOptions{})
	assert.False(t, doc.Git.Recorded)
}

func TestEmptyShowDoc(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.WriteJSON(&buf, output.EmptyShowDoc{}))
	assert.JSONEq(t, `{"run": null}`, buf.String())
	assert.Equal(t, []string{"run"}, topLevelKeys(t, output.EmptyShowDoc{}))
}

func sampleDiff(t *testing.T) *diffengine.Result {
	t.Helper()
	a := sampleRun()
	b := sampleRun()
	b.RunID = "2026-02-11T16-08-36Z_27971d"
	b.Inputs = models.Manifest{
		"data/in.txt":  {Bytes: 10, Hash: "hash2"},
		"data/new.txt": {Bytes: 3, Hash: "hash3"},
	}
	return diffengine.Diff(a, b, []string{"baseline"}, nil)
}

func TestDiffKeySetBase(t *testing.T) {
	doc := output.BuildDiff(sampleDiff(t), output.DiffOptions{})
	assert.Equal(t,
		[]string{"a", "b", "environment", "git", "params", "summary", "version"},
		topLevelKeys(t, doc))
}

func TestDiffKeySetWithFlags(t *testing.T) {
	doc := output.BuildDiff(sampleDiff(t), output.DiffOptions{Paths: true})
	assert.Equal(t,
		[]string{"a", "b", "environment", "git", "inputs", "outputs", "params", "summary", "version"},
		topLevelKeys(t, doc))

	doc = output.BuildDiff(sampleDiff(t), output.DiffOptions{Warnings: true})
	assert.Equal(t,
		[]string{"a", "b", "environment", "git", "params", "summary", "version", "warnings"},
		topLevelKeys(t, doc))
}

func TestDiffSummaryCounts(t *testing.T) {
	doc := output.BuildDiff(sampleDiff(t), output.DiffOptions{Paths: true})

	assert.Equal(t, output.ContractVersion, doc.Version)
	assert.True(t, doc.Summary.TruthChanged)
	assert.True(t, doc.Summary.AnyChanged)
	assert.Equal(t, output.ManifestCounts{Added: 1, Removed: 0, Changed: 1}, doc.Summary.Counts.Inputs)
	assert.False(t, doc.Summary.Counts.ParamsChanged)
	require.NotNil(t, doc.Inputs)
	assert.Equal(t, []string{"data/new.txt"}, doc.Inputs.Added)
	assert.Equal(t, []string{"data/in.txt"}, doc.Inputs.Changed)
}

// The diff a/b blocks deliberately omit the timestamp.
func TestDiffSideBlockOmitsTimestamp(t *testing.T) {
	doc := output.BuildDiff(sampleDiff(t), output.DiffOptions{})
	data, err := json.Marshal(doc.A)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "timestamp")
	assert.Contains(t, string(data), `"run_id"`)
}

func TestDiffGitBlock(t *testing.T) {
	a := sampleRun()
	b := sampleRun()
	b.Git = nil
	res := diffengine.Diff(a, b, nil, nil)

	doc := output.BuildDiff(res, output.DiffOptions{})
	assert.True(t, doc.Git.Recorded.A)
	assert.False(t, doc.Git.Recorded.B)
	assert.True(t, doc.Git.Changed)
	assert.Equal(t, []string{"not recorded (B)"}, doc.Git.Reasons)
}

// An absolute manifest path reaching the serializer is an internal invariant
// violation, not a user error.
func TestAbsolutePathPanics(t *testing.T) {
	run := sampleRun()
	run.Inputs["/etc/passwd"] = models.FileStat{Hash: "x"}

	assert.Panics(t, func() {
		output.BuildShow(run, nil, output.ShowOptions{})
	})
}

func TestWriteJSONShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.WriteJSON(&buf, output.LatestDoc{RunID: "r1"}))
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	assert.JSONEq(t, `{"run_id": "r1"}`, buf.String())
}
