package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/salazaj/provenance-recorder/internal/models"
)

// RepairOptions controls index reconstruction.
type RepairOptions struct {
	// Backup copies the existing index.json aside before overwriting it.
	Backup bool
	// KeepTags carries over tags whose run still exists on disk.
	KeepTags bool
	// DryRun computes the repaired index without writing anything.
	DryRun bool
}

// RepairResult summarizes what a repair did or would do.
type RepairResult struct {
	RunsCount       int
	TagsKept        int
	TagsTotalBefore int
	BackupPath      string
	Warnings        []string
	TimestampsAdded int
}

// RepairIndex rebuilds index.json from the run directories on disk. Run
// records are read leniently so a single corrupt record skips with a warning
// instead of aborting the rebuild. Records missing a timestamp get one
// inferred from their run id and backfilled into run.json.
func (s *Store) RepairIndex(opts RepairOptions) (*models.Index, *RepairResult, error) {
	result := &RepairResult{Warnings: []string{}}

	existingTags := map[string]string{}
	if opts.KeepTags {
		if _, err := os.Stat(s.IndexPath()); err == nil {
			if ix, err := s.LoadIndex(); err == nil {
				existingTags = ix.Tags
				result.TagsTotalBefore = len(existingTags)
			}
		}
	}

	runs, warnings, added := s.rebuildRunsFromDisk(opts.DryRun)
	result.Warnings = append(result.Warnings, warnings...)
	result.TimestampsAdded = added
	result.RunsCount = len(runs)

	onDisk := make(map[string]bool, len(runs))
	for _, r := range runs {
		onDisk[r.RunID] = true
	}
	keptTags := map[string]string{}
	for tag, rid := range existingTags {
		if onDisk[rid] {
			keptTags[tag] = rid
		}
	}
	result.TagsKept = len(keptTags)

	ix := models.NewIndex()
	ix.Runs = runs
	ix.Tags = keptTags

	if opts.DryRun {
		return ix, result, nil
	}

	if opts.Backup {
		if _, err := os.Stat(s.IndexPath()); err == nil {
			bak := s.IndexPath() + ".bak-" + time.Now().UTC().Format("20060102T150405") + "Z"
			if err := copyFile(bak, s.IndexPath()); err != nil {
				return nil, nil, fmt.Errorf("backup index: %w", err)
			}
			result.BackupPath = bak
		}
	}
	if err := s.SaveIndex(ix); err != nil {
		return nil, nil, err
	}
	s.logger.Info("index rebuilt", "runs", result.RunsCount, "tags_kept", result.TagsKept, "backup", result.BackupPath)
	return ix, result, nil
}

func (s *Store) rebuildRunsFromDisk(dryRun bool) ([]models.RunSummary, []string, int) {
	warnings := []string{}
	runs := []models.RunSummary{}
	timestampsAdded := 0

	entries, err := os.ReadDir(s.RunsDir())
	if err != nil {
		return runs, []string{fmt.Sprintf("%s does not exist. Nothing to rebuild.", s.RunsDir())}, 0
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		runJSON := filepath.Join(s.RunDir(entry.Name()), runFileName)
		data, err := os.ReadFile(runJSON)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf(
				"Missing run.json in runs/%s (skipping). If this is a partial/corrupt run, you can delete the directory.",
				entry.Name()))
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal(data, &obj); err != nil {
			warnings = append(warnings, fmt.Sprintf("Invalid run.json in %s: %v", runJSON, err))
			continue
		}

		runID, _ := obj["run_id"].(string)
		if runID == "" {
			runID = entry.Name()
		}
		name, _ := obj["name"].(string)

		ts, _ := obj["timestamp"].(string)
		if ts == "" {
			inferred, ok := models.InferTimestamp(runID)
			if !ok {
				inferred, ok = models.InferTimestamp(entry.Name())
			}
			if ok {
				obj["timestamp"] = inferred
				ts = inferred
				timestampsAdded++
				if !dryRun {
					if err := writeJSONFile(runJSON, obj); err != nil {
						warnings = append(warnings, fmt.Sprintf("Could not backfill timestamp in %s: %v", runJSON, err))
					}
				}
			} else {
				warnings = append(warnings, fmt.Sprintf("Missing timestamp in %s and could not infer from run_id", runJSON))
			}
		}

		runs = append(runs, models.RunSummary{
			RunID:     runID,
			Name:      name,
			Timestamp: ts,
			Path:      filepath.ToSlash(filepath.Join(filepath.Base(s.dir), runsDirName, entry.Name())),
		})
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Timestamp != runs[j].Timestamp {
			return runs[i].Timestamp < runs[j].Timestamp
		}
		return runs[i].RunID < runs[j].RunID
	})
	return runs, warnings, timestampsAdded
}

func copyFile(dst, src string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
