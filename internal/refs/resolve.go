// Package refs classifies user-supplied run references and resolves them
// against the index. A reference is one of four lexical classes: ordinal
// ("#3" or bare "3", oldest = 1), tag name, literal run id, or unrecognized.
package refs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/salazaj/provenance-recorder/internal/models"
	"github.com/salazaj/provenance-recorder/internal/store"
)

// Kind is the lexical class of a reference.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindOrdinal
	KindTag
	KindRunID
)

func (k Kind) String() string {
	switch k {
	case KindOrdinal:
		return "ordinal"
	case KindTag:
		return "tag"
	case KindRunID:
		return "run_id"
	default:
		return "unrecognized"
	}
}

// Classify reports how Resolve would interpret ref. Precedence is ordinal,
// then tag, then run id; a tag can never collide with an ordinal because
// tag validation rejects ordinal-shaped names.
func Classify(ix *models.Index, ref string) Kind {
	ref = strings.TrimSpace(ref)
	if _, ok := ParseOrdinal(ref); ok {
		return KindOrdinal
	}
	if _, ok := ix.Tags[ref]; ok {
		return KindTag
	}
	if models.LooksLikeRunID(ref) || ix.HasRun(ref) {
		return KindRunID
	}
	return KindUnrecognized
}

// ParseOrdinal accepts the "#N" and bare "N" ordinal forms.
func ParseOrdinal(ref string) (int, bool) {
	s := strings.TrimPrefix(strings.TrimSpace(ref), "#")
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Resolve turns a user reference into a run id. Interpretation order, first
// match wins:
//
//  1. ordinal: 1-based index into the chronological run list
//  2. exact tag match
//  3. run id shape, or a string found verbatim in the run list
//
// The tag interpretation always wins over reading the same string as a run
// id; no alternate interpretation is attempted. The returned id is not
// checked for existence on disk; loading the record surfaces stale entries.
func Resolve(ix *models.Index, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if n, ok := ParseOrdinal(ref); ok {
		ordered := ix.OrderedRunIDs()
		if n < 1 || n > len(ordered) {
			return "", fmt.Errorf("%w: run index %d out of range (1..%d)", store.ErrNotFound, n, len(ordered))
		}
		return ordered[n-1], nil
	}
	if runID, ok := ix.Tags[ref]; ok {
		return runID, nil
	}
	if models.LooksLikeRunID(ref) || ix.HasRun(ref) {
		return ref, nil
	}
	return "", fmt.Errorf("%w: cannot resolve %q (not a tag, ordinal, or run id)", store.ErrNotFound, ref)
}

// ResolveRunID resolves a reference in a context that requires a literal run
// (an ordinal or a run id). A reference naming an existing tag is rejected
// with guidance instead of a generic not-found: silently reading it some
// other way would let the tag shadow the run the caller actually meant.
func ResolveRunID(ix *models.Index, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if n, ok := ParseOrdinal(ref); ok {
		ordered := ix.OrderedRunIDs()
		if n < 1 || n > len(ordered) {
			return "", fmt.Errorf("%w: run index %d out of range (1..%d)", store.ErrNotFound, n, len(ordered))
		}
		return ordered[n-1], nil
	}
	if _, ok := ix.Tags[ref]; ok {
		return "", fmt.Errorf("%w: %q is a tag; use an ordinal ('#N') or a literal run id here",
			store.ErrAmbiguousRef, ref)
	}
	if models.LooksLikeRunID(ref) || ix.HasRun(ref) {
		return ref, nil
	}
	return "", fmt.Errorf("%w: cannot resolve %q (not an ordinal or run id)", store.ErrNotFound, ref)
}

// ResolvePair resolves the two diff operands. Either may be empty:
//   - both empty: the last two runs chronologically
//   - only a: a vs the latest run, unless a resolves to the latest run,
//     then the previous run vs the latest
//   - both set: each resolved independently
func ResolvePair(ix *models.Index, a, b string) (runA, runB string, err error) {
	ordered := ix.OrderedRunIDs()

	if a == "" && b == "" {
		if len(ordered) < 2 {
			return "", "", errNeedTwoRuns()
		}
		return ordered[len(ordered)-2], ordered[len(ordered)-1], nil
	}

	if a != "" && b == "" {
		if len(ordered) < 2 {
			return "", "", errNeedTwoRuns()
		}
		latest := ordered[len(ordered)-1]
		prev := ordered[len(ordered)-2]
		resolved, err := Resolve(ix, a)
		if err != nil {
			return "", "", err
		}
		if resolved == latest {
			return prev, latest, nil
		}
		return resolved, latest, nil
	}

	// The CLI cannot produce b without a, but resolve both sides anyway.
	runA, err = Resolve(ix, a)
	if err != nil {
		return "", "", err
	}
	runB, err = Resolve(ix, b)
	if err != nil {
		return "", "", err
	}
	return runA, runB, nil
}

func errNeedTwoRuns() error {
	return fmt.Errorf("%w: need at least two recorded runs to diff (run 'prov record' first)", store.ErrNotFound)
}
