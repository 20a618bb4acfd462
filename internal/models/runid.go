package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

const runIDTimeLayout = "2006-01-02T15-04-05"

// runIDRe matches the "<timestamp with dashed clock>Z_<suffix>" id shape.
var runIDRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}Z_[A-Za-z0-9]+$`)

// NewRunID builds a run id from the given instant: a UTC timestamp with the
// clock colons replaced by dashes (filesystem safe) plus a short random
// suffix, e.g. "2026-02-09T14-06-45Z_594e12".
func NewRunID(now time.Time) string {
	return now.UTC().Format(runIDTimeLayout) + "Z_" + uuid.NewString()[:6]
}

// LooksLikeRunID reports whether s has the run id shape. Shape only; the
// run may or may not exist.
func LooksLikeRunID(s string) bool {
	return runIDRe.MatchString(s)
}

// InferTimestamp recovers the RFC 3339 timestamp embedded in a run id,
// turning "2026-02-09T14-06-45Z_594e12" into "2026-02-09T14:06:45Z".
// Returns false when the id does not carry a parseable timestamp.
func InferTimestamp(runID string) (string, bool) {
	if !LooksLikeRunID(runID) {
		return "", false
	}
	stamp := runID[:len(runIDTimeLayout)]
	at, err := time.Parse(runIDTimeLayout, stamp)
	if err != nil {
		return "", false
	}
	ts := at.UTC().Format("2006-01-02T15:04:05") + "Z"
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		return "", false
	}
	return ts, true
}
