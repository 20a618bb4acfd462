package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/salazaj/provenance-recorder/internal/models"
)

const (
	indexFileName   = "index.json"
	runsDirName     = "runs"
	runFileName     = "run.json"
	inputsFileName  = "inputs.json"
	outputsFileName = "outputs.json"
	summaryFileName = "RUN.md"
)

// Store reads and writes the on-disk provenance layout:
//
//	<dir>/index.json
//	<dir>/runs/<run_id>/run.json
//	<dir>/runs/<run_id>/inputs.json
//	<dir>/runs/<run_id>/outputs.json
//	<dir>/runs/<run_id>/RUN.md
type Store struct {
	dir    string
	logger *slog.Logger
}

// New returns a store rooted at dir.
func New(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}
}

// Dir returns the provenance directory.
func (s *Store) Dir() string { return s.dir }

// RunsDir returns the directory holding all run records.
func (s *Store) RunsDir() string { return filepath.Join(s.dir, runsDirName) }

// RunDir returns the directory for one run.
func (s *Store) RunDir(runID string) string { return filepath.Join(s.RunsDir(), runID) }

// IndexPath returns the path of index.json.
func (s *Store) IndexPath() string { return filepath.Join(s.dir, indexFileName) }

// Exists reports whether the provenance directory exists as a directory.
func (s *Store) Exists() bool {
	fi, err := os.Stat(s.dir)
	return err == nil && fi.IsDir()
}

// RunExists reports whether a record exists for the run id.
func (s *Store) RunExists(runID string) bool {
	_, err := os.Stat(filepath.Join(s.RunDir(runID), runFileName))
	return err == nil
}

// LoadIndex reads index.json, returning an empty index when the file does
// not exist yet. Loading never writes.
func (s *Store) LoadIndex() (*models.Index, error) {
	data, err := os.ReadFile(s.IndexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewIndex(), nil
		}
		return nil, fmt.Errorf("read %s: %w", s.IndexPath(), err)
	}
	var ix models.Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.IndexPath(), err)
	}
	if ix.Version == 0 {
		ix.Version = models.IndexSchemaVersion
	}
	if ix.Version != models.IndexSchemaVersion {
		return nil, fmt.Errorf("%w: %s: unsupported index version %d", ErrCorrupt, s.IndexPath(), ix.Version)
	}
	if ix.Runs == nil {
		ix.Runs = []models.RunSummary{}
	}
	if ix.Tags == nil {
		ix.Tags = map[string]string{}
	}
	return &ix, nil
}

// SaveIndex writes index.json atomically: a temp file in the same directory
// first, then a rename over the old one.
func (s *Store) SaveIndex(ix *models.Index) error {
	data, err := json.MarshalIndent(ix, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	data = append(data, '\n')

	path := s.IndexPath()
	tmpPath := fmt.Sprintf("%s.tmp.%d", path, time.Now().UTC().UnixNano())
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", tmpPath, err)
	}
	s.logger.Debug("index saved", "path", path, "runs", len(ix.Runs), "tags", len(ix.Tags))
	return nil
}

// AppendRun loads the index, appends the summary, and saves it back.
func (s *Store) AppendRun(summary models.RunSummary) (*models.Index, error) {
	ix, err := s.LoadIndex()
	if err != nil {
		return nil, err
	}
	ix.Runs = append(ix.Runs, summary)
	if err := s.SaveIndex(ix); err != nil {
		return nil, err
	}
	return ix, nil
}

// SetTag validates the tag name and points it at the run. An existing
// assignment is only replaced when force is set.
func (s *Store) SetTag(tag, runID string, force bool) error {
	if err := models.ValidateTagName(tag); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTag, err)
	}
	ix, err := s.LoadIndex()
	if err != nil {
		return err
	}
	if _, taken := ix.Tags[tag]; taken && !force {
		return fmt.Errorf("%w: %q (use --force to overwrite)", ErrTagExists, tag)
	}
	ix.Tags[tag] = runID
	if err := s.SaveIndex(ix); err != nil {
		return err
	}
	s.logger.Debug("tag set", "tag", tag, "run_id", runID, "force", force)
	return nil
}

// DeleteTag removes the tag and returns the run id it pointed at.
func (s *Store) DeleteTag(tag string) (string, error) {
	ix, err := s.LoadIndex()
	if err != nil {
		return "", err
	}
	runID, ok := ix.Tags[tag]
	if !ok {
		return "", fmt.Errorf("%w: tag %q does not exist", ErrNotFound, tag)
	}
	delete(ix.Tags, tag)
	if err := s.SaveIndex(ix); err != nil {
		return "", err
	}
	s.logger.Debug("tag removed", "tag", tag, "run_id", runID)
	return runID, nil
}

// LoadRun reads and validates one run record. A missing record maps to
// ErrNotFound with a hint that the index may be stale; a record that exists
// but cannot be decoded maps to ErrCorrupt naming the offending field.
func (s *Store) LoadRun(runID string) (*models.Run, error) {
	data, err := s.readRunFile(runID)
	if err != nil {
		return nil, err
	}
	run, err := decodeRun(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, filepath.Join(s.RunDir(runID), runFileName), err)
	}
	return run, nil
}

// ReadRunRaw returns the stored run.json bytes verbatim.
func (s *Store) ReadRunRaw(runID string) ([]byte, error) {
	return s.readRunFile(runID)
}

func (s *Store) readRunFile(runID string) ([]byte, error) {
	path := filepath.Join(s.RunDir(runID), runFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: run %q does not exist under %s (index/tag may be stale; run 'prov runs' to inspect)",
				ErrNotFound, runID, s.RunsDir())
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// WriteRun creates the run directory and writes run.json, the standalone
// manifest files, and the human-readable RUN.md. The directory must not
// already exist; records are immutable once written.
func (s *Store) WriteRun(run *models.Run, summaryMD string) error {
	if err := os.MkdirAll(s.RunsDir(), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", s.RunsDir(), err)
	}
	dir := s.RunDir(run.RunID)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := writeJSONFile(filepath.Join(dir, runFileName), run); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(dir, inputsFileName), run.Inputs); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(dir, outputsFileName), run.Outputs); err != nil {
		return err
	}
	mdPath := filepath.Join(dir, summaryFileName)
	if err := os.WriteFile(mdPath, []byte(summaryMD), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", mdPath, err)
	}
	s.logger.Debug("run record written", "run_id", run.RunID, "dir", dir)
	return nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// decodeRun checks the record's shape before the typed decode so malformed
// records produce errors naming the offending field instead of a generic
// parse failure.
func decodeRun(data []byte) (*models.Run, error) {
	var top any
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	obj, ok := top.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object, got %s", jsonTypeName(top))
	}

	if v, present := obj["version"]; present {
		n, isNum := v.(float64)
		if !isNum || n != float64(models.RunSchemaVersion) {
			return nil, fmt.Errorf("unsupported record version %v", v)
		}
	}
	if rid, _ := obj["run_id"].(string); rid == "" {
		return nil, fmt.Errorf("field run_id: missing or empty")
	}
	for _, field := range []string{"inputs", "outputs"} {
		v, present := obj[field]
		if !present || v == nil {
			continue
		}
		m, isObj := v.(map[string]any)
		if !isObj {
			return nil, fmt.Errorf("field %s: expected object, got %s", field, jsonTypeName(v))
		}
		for p, entry := range m {
			if _, entryObj := entry.(map[string]any); !entryObj {
				return nil, fmt.Errorf("field %s[%s]: expected object, got %s", field, p, jsonTypeName(entry))
			}
		}
	}
	for _, field := range []string{"params", "git", "environment"} {
		v, present := obj[field]
		if !present || v == nil {
			continue
		}
		if _, isObj := v.(map[string]any); !isObj {
			return nil, fmt.Errorf("field %s: expected object, got %s", field, jsonTypeName(v))
		}
	}
	if v, present := obj["warnings"]; present && v != nil {
		if _, isArr := v.([]any); !isArr {
			return nil, fmt.Errorf("field warnings: expected array, got %s", jsonTypeName(v))
		}
	}

	var run models.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	if run.Version == 0 {
		run.Version = models.RunSchemaVersion
	}
	if run.Inputs == nil {
		run.Inputs = models.Manifest{}
	}
	if run.Outputs == nil {
		run.Outputs = models.Manifest{}
	}
	if run.Environment == nil {
		run.Environment = models.Environment{}
	}
	if run.Warnings == nil {
		run.Warnings = []models.Warning{}
	}
	return &run, nil
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "bool"
	case float64:
		return "number"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
