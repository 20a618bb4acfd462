// Package record builds and persists run records: file manifests with
// hashes, the environment snapshot, git state, and warnings. The tool never
// executes the user's command, so every record it writes has status
// recorded_only.
package record

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/salazaj/provenance-recorder/internal/gitinfo"
	"github.com/salazaj/provenance-recorder/internal/models"
	"github.com/salazaj/provenance-recorder/internal/store"
)

// Options describes one recording request.
type Options struct {
	Name    string
	Inputs  []string
	Outputs []string
	// Params is the optional params artifact; hashed, never parsed.
	Params string
	// WorkDir anchors the git capture. Empty means the current directory.
	WorkDir string
}

// Recorder writes run records through a store.
type Recorder struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// New returns a recorder writing through st.
func New(st *store.Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: st, logger: logger, now: time.Now}
}

// Record captures manifests, environment, and git state, writes the run
// directory, and appends the run to the index.
func (r *Recorder) Record(opts Options) (*models.Run, error) {
	now := r.now().UTC().Truncate(time.Second)
	runID := models.NewRunID(now)
	timestamp := now.Format(time.RFC3339)

	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}
	git := gitinfo.Capture(workDir)
	warnings := gitWarnings(git)

	inputs, err := BuildManifest(opts.Inputs)
	if err != nil {
		return nil, fmt.Errorf("inputs: %w", err)
	}
	outputs, err := BuildManifest(opts.Outputs)
	if err != nil {
		return nil, fmt.Errorf("outputs: %w", err)
	}

	var params *models.ParamsRecord
	if opts.Params != "" {
		params, err = paramsRecord(opts.Params)
		if err != nil {
			return nil, err
		}
	}

	run := &models.Run{
		Version:     models.RunSchemaVersion,
		RunID:       runID,
		Name:        opts.Name,
		Timestamp:   timestamp,
		Status:      models.StatusRecordedOnly,
		Inputs:      inputs,
		Outputs:     outputs,
		Params:      params,
		Environment: CaptureEnvironment(),
		Warnings:    warnings,
	}
	// The git block is only present when a repository was found; is_repo is
	// always true in records this tool writes.
	if git.IsRepo {
		run.Git = &models.GitRecord{
			IsRepo:    true,
			Root:      git.Root,
			Commit:    git.Commit,
			Branch:    git.Branch,
			Detached:  git.Detached,
			Dirty:     git.Dirty,
			Untracked: git.Untracked,
		}
	}

	if err := r.store.WriteRun(run, summaryMarkdown(run, r.store.RunDir(runID))); err != nil {
		return nil, err
	}
	if _, err := r.store.AppendRun(models.RunSummary{
		RunID:     runID,
		Name:      opts.Name,
		Timestamp: timestamp,
		Path:      filepath.ToSlash(filepath.Join(filepath.Base(r.store.Dir()), "runs", runID)),
	}); err != nil {
		return nil, err
	}

	r.logger.Info("run recorded", "run_id", runID, "name", opts.Name,
		"inputs", len(inputs), "outputs", len(outputs), "warnings", len(warnings))
	return run, nil
}

func paramsRecord(path string) (*models.ParamsRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("params: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("params: %s is a directory", path)
	}
	hash, err := HashFile(path)
	if err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}
	return &models.ParamsRecord{Path: filepath.ToSlash(path), Bytes: info.Size(), Hash: hash}, nil
}

func gitWarnings(git gitinfo.Snapshot) []models.Warning {
	warnings := []models.Warning{}
	warn := func(code, message string) {
		warnings = append(warnings, models.Warning{Code: code, Message: message, Severity: "warning"})
	}
	if !git.IsRepo {
		warn("GIT_NOT_A_REPO", "not inside a git repository")
		return warnings
	}
	if git.Detached {
		warn("GIT_DETACHED_HEAD", "HEAD is detached")
	}
	if git.Dirty {
		warn("GIT_DIRTY", "working tree has uncommitted changes")
	}
	if git.Untracked > 0 {
		warn("GIT_UNTRACKED", fmt.Sprintf("%d untracked file(s)", git.Untracked))
	}
	return warnings
}

// summaryMarkdown renders the human-readable RUN.md stored next to the
// record. Write-only output; nothing loads it back.
func summaryMarkdown(run *models.Run, runDir string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Provenance record: %s\n\n", run.RunID)
	fmt.Fprintf(&b, "Name: %s\n", run.Name)
	fmt.Fprintf(&b, "Timestamp: %s\n", run.Timestamp)
	fmt.Fprintf(&b, "Artifacts stored at: %s\n\n", runDir)

	b.WriteString("## Warnings\n")
	if len(run.Warnings) == 0 {
		b.WriteString("- (none)\n")
	}
	for _, w := range run.Warnings {
		fmt.Fprintf(&b, "- %s\n", w.String())
	}

	b.WriteString("\n## Inputs\n")
	for _, p := range sortedPaths(run.Inputs) {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	b.WriteString("\n## Outputs\n")
	for _, p := range sortedPaths(run.Outputs) {
		fmt.Fprintf(&b, "- %s\n", p)
	}

	b.WriteString("\n## Git\n")
	if run.Git == nil {
		b.WriteString("- (not a git repository)\n")
		return b.String()
	}
	fmt.Fprintf(&b, "- commit: %s\n", run.Git.Commit)
	branch := "(detached)"
	if run.Git.Branch != nil {
		branch = *run.Git.Branch
	}
	fmt.Fprintf(&b, "- branch: %s\n", branch)
	fmt.Fprintf(&b, "- dirty: %t\n", run.Git.Dirty)
	fmt.Fprintf(&b, "- untracked: %d\n", run.Git.Untracked)
	return b.String()
}

func sortedPaths(m models.Manifest) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
