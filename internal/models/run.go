// Package models defines the data structures the provenance recorder stores
// on disk: run records, manifests, and the project index.
package models

import "encoding/json"

// RunSchemaVersion is the run.json schema version this tool reads and writes.
// Records without a version field are treated as version 1.
const RunSchemaVersion = 1

// Run statuses. This tool only ever writes StatusRecordedOnly; the other
// values belong to records produced by execution wrappers.
const (
	StatusRecordedOnly  = "recorded_only"
	StatusCommandFailed = "command_failed"
)

// FileStat is one manifest entry. Equality between runs is decided by Hash
// alone; Bytes and the mtimes are context.
type FileStat struct {
	Bytes      int64  `json:"bytes"`
	MtimeEpoch int64  `json:"mtime_epoch"`
	MtimeUTC   string `json:"mtime_utc"`
	Hash       string `json:"hash"`
}

// Manifest maps a relative file path to its recorded stats. Keys are never
// absolute paths.
type Manifest map[string]FileStat

// Hashes returns path -> content hash, skipping entries without one.
func (m Manifest) Hashes() map[string]string {
	out := make(map[string]string, len(m))
	for p, st := range m {
		if st.Hash != "" {
			out[p] = st.Hash
		}
	}
	return out
}

// ParamsRecord describes the optional params artifact of a run.
type ParamsRecord struct {
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
	Hash  string `json:"hash"`
}

// GitRecord is the repository state captured at record time. The block is
// only written when a repository was actually found, so IsRepo is true in
// every record this tool produces; older writers also stored is_repo=false
// blocks and those still load.
type GitRecord struct {
	IsRepo    bool    `json:"is_repo"`
	Root      string  `json:"root,omitempty"`
	Commit    string  `json:"commit"`
	Branch    *string `json:"branch"`
	Detached  bool    `json:"detached"`
	Dirty     bool    `json:"dirty"`
	Untracked int     `json:"untracked"`
}

// Environment is the flat snapshot of the recording environment.
type Environment map[string]string

// Warning is one recorded warning. Older records stored bare strings; those
// unmarshal with only Message set.
type Warning struct {
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity,omitempty"`
}

// String renders the warning as "CODE: message", or just the message when
// there is no code.
func (w Warning) String() string {
	if w.Code != "" {
		return w.Code + ": " + w.Message
	}
	return w.Message
}

// UnmarshalJSON accepts both the record form and the legacy bare-string form.
func (w *Warning) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*w = Warning{Message: s}
		return nil
	}
	type plain Warning
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*w = Warning(p)
	return nil
}

// Run is one recorded execution's metadata bundle. Immutable once written.
type Run struct {
	Version     int           `json:"version"`
	RunID       string        `json:"run_id"`
	Name        string        `json:"name"`
	Timestamp   string        `json:"timestamp"`
	Status      string        `json:"status,omitempty"`
	Inputs      Manifest      `json:"inputs"`
	Outputs     Manifest      `json:"outputs"`
	Params      *ParamsRecord `json:"params,omitempty"`
	Environment Environment   `json:"environment"`
	Warnings    []Warning     `json:"warnings"`
	Git         *GitRecord    `json:"git,omitempty"`
}

// ParamsHash returns the params fingerprint, or nil when the run has no
// usable params artifact. Absent params are a valid state, not an error.
func (r *Run) ParamsHash() *string {
	if r.Params == nil || r.Params.Hash == "" {
		return nil
	}
	h := r.Params.Hash
	return &h
}
