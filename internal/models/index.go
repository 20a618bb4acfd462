package models

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
)

// IndexSchemaVersion is the index.json schema version this tool reads and
// writes.
const IndexSchemaVersion = 1

// RunSummary is one index entry. Path is informational and never appears in
// serialized command output.
type RunSummary struct {
	RunID     string `json:"run_id"`
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path,omitempty"`
}

// Index is the project-wide catalog: run summaries in insertion order plus
// the tag -> run id map. Ordinals are derived from chronology, never stored.
type Index struct {
	Version int               `json:"version"`
	Runs    []RunSummary      `json:"runs"`
	Tags    map[string]string `json:"tags"`
}

// NewIndex returns an empty index at the current schema version.
func NewIndex() *Index {
	return &Index{
		Version: IndexSchemaVersion,
		Runs:    []RunSummary{},
		Tags:    map[string]string{},
	}
}

// ParseTimestamp parses the RFC 3339 timestamps stored in records and index
// entries.
func ParseTimestamp(ts string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.TrimSpace(ts))
}

// OrderedRunIDs returns run ids sorted by timestamp ascending (oldest
// first). Entries with a missing run id or an unparseable timestamp are
// skipped rather than fatal; ties keep insertion order.
func (ix *Index) OrderedRunIDs() []string {
	type keyed struct {
		at time.Time
		id string
	}
	sortable := make([]keyed, 0, len(ix.Runs))
	for _, r := range ix.Runs {
		if r.RunID == "" || r.Timestamp == "" {
			continue
		}
		at, err := ParseTimestamp(r.Timestamp)
		if err != nil {
			continue
		}
		sortable = append(sortable, keyed{at: at, id: r.RunID})
	}
	sort.SliceStable(sortable, func(i, j int) bool {
		return sortable[i].at.Before(sortable[j].at)
	})
	out := make([]string, len(sortable))
	for i, k := range sortable {
		out[i] = k.id
	}
	return out
}

// HasRun reports whether a summary with the given run id exists.
func (ix *Index) HasRun(runID string) bool {
	for _, r := range ix.Runs {
		if r.RunID == runID {
			return true
		}
	}
	return false
}

// TagsForRun returns all tags pointing at the run, sorted.
func (ix *Index) TagsForRun(runID string) []string {
	out := []string{}
	for tag, rid := range ix.Tags {
		if rid == runID {
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out
}

var tagNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateTagName rejects tag names that would shadow the other addressing
// schemes or that cannot round-trip safely:
//   - whitespace anywhere (including leading/trailing)
//   - digits-only (collides with ordinals)
//   - "#N" (collides with ordinals)
//   - characters outside [A-Za-z0-9._-]
func ValidateTagName(tag string) error {
	if strings.TrimSpace(tag) != tag {
		return fmt.Errorf("tag must not have leading or trailing whitespace")
	}
	for _, r := range tag {
		if unicode.IsSpace(r) {
			return fmt.Errorf("tag must not contain whitespace")
		}
	}
	if isAllDigits(tag) {
		return fmt.Errorf("tag must not be all digits (would collide with ordinals)")
	}
	if strings.HasPrefix(tag, "#") && isAllDigits(tag[1:]) {
		return fmt.Errorf("tag must not look like an ordinal (e.g. '#3')")
	}
	if !tagNameRe.MatchString(tag) {
		return fmt.Errorf("tag must match [A-Za-z0-9][A-Za-z0-9._-]*")
	}
	return nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
