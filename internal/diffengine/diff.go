// Package diffengine computes structured deltas between two run records.
// Five facets are computed independently so a consumer can react to exactly
// the dimension it cares about: inputs, outputs, params (the truth facets
// that affect reproducibility) and environment, git, warnings (context).
package diffengine

import (
	"maps"
	"slices"

	"github.com/salazaj/provenance-recorder/internal/models"
)

// ManifestDelta classifies the paths of two manifests. Equality is decided
// by content hash only; sizes and mtimes never drive the classification.
type ManifestDelta struct {
	Added     []string
	Removed   []string
	Changed   []string
	Unchanged []string
}

// HasChanges reports whether any path was added, removed, or changed.
func (d ManifestDelta) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Changed) > 0
}

// ParamsDelta compares the params fingerprints. A nil side means that run
// recorded no params artifact, a valid state rather than an error.
type ParamsDelta struct {
	A       *string
	B       *string
	Changed bool
}

// EnvDelta compares the environment snapshots structurally: any field
// mismatch marks the facet changed.
type EnvDelta struct {
	A       models.Environment
	B       models.Environment
	Changed bool
}

// GitSide is one run's git fingerprint. Recorded is false when the record
// carries no git block at all.
type GitSide struct {
	Recorded  bool
	IsRepo    bool
	Commit    string
	Branch    *string
	Detached  bool
	Dirty     bool
	Untracked int
}

// GitDelta carries both fingerprints plus an ordered list of human-readable
// reasons for the change verdict.
type GitDelta struct {
	A       GitSide
	B       GitSide
	Changed bool
	Reasons []string
}

// WarningsDelta compares the ordered warning lists structurally.
type WarningsDelta struct {
	A       []models.Warning
	B       []models.Warning
	Changed bool
}

// SideInfo identifies one side of the diff.
type SideInfo struct {
	RunID string
	Name  string
	Tags  []string
}

// Result is the complete delta between two runs. Transient and never
// persisted; fully reconstructable from the two records plus their tags.
type Result struct {
	A        SideInfo
	B        SideInfo
	Inputs   ManifestDelta
	Outputs  ManifestDelta
	Params   ParamsDelta
	Env      EnvDelta
	Git      GitDelta
	Warnings WarningsDelta

	// TruthChanged aggregates the facets that affect reproducibility:
	// inputs, outputs, params.
	TruthChanged bool
	// AnyChanged additionally covers environment, git, and warnings.
	AnyChanged bool
}

// Diff computes all facets between runs a and b.
func Diff(a, b *models.Run, aTags, bTags []string) *Result {
	r := &Result{
		A: SideInfo{RunID: a.RunID, Name: a.Name, Tags: normTags(aTags)},
		B: SideInfo{RunID: b.RunID, Name: b.Name, Tags: normTags(bTags)},
	}
	r.Inputs = diffManifests(a.Inputs, b.Inputs)
	r.Outputs = diffManifests(a.Outputs, b.Outputs)
	r.Params = ParamsDelta{A: a.ParamsHash(), B: b.ParamsHash()}
	r.Params.Changed = !eqStrPtr(r.Params.A, r.Params.B)
	r.Env = diffEnv(a.Environment, b.Environment)
	r.Git = diffGit(gitSide(a), gitSide(b))
	r.Warnings = diffWarnings(a.Warnings, b.Warnings)

	r.TruthChanged = r.Inputs.HasChanges() || r.Outputs.HasChanges() || r.Params.Changed
	r.AnyChanged = r.TruthChanged || r.Env.Changed || r.Git.Changed || r.Warnings.Changed
	return r
}

func diffManifests(a, b models.Manifest) ManifestDelta {
	aHashes, bHashes := a.Hashes(), b.Hashes()
	d := ManifestDelta{Added: []string{}, Removed: []string{}, Changed: []string{}, Unchanged: []string{}}
	for p := range bHashes {
		if _, ok := aHashes[p]; !ok {
			d.Added = append(d.Added, p)
		}
	}
	for p, hash := range aHashes {
		other, ok := bHashes[p]
		switch {
		case !ok:
			d.Removed = append(d.Removed, p)
		case hash != other:
			d.Changed = append(d.Changed, p)
		default:
			d.Unchanged = append(d.Unchanged, p)
		}
	}
	slices.Sort(d.Added)
	slices.Sort(d.Removed)
	slices.Sort(d.Changed)
	slices.Sort(d.Unchanged)
	return d
}

func diffEnv(a, b models.Environment) EnvDelta {
	if a == nil {
		a = models.Environment{}
	}
	if b == nil {
		b = models.Environment{}
	}
	return EnvDelta{A: a, B: b, Changed: !maps.Equal(a, b)}
}

func gitSide(run *models.Run) GitSide {
	if run.Git == nil {
		return GitSide{}
	}
	return GitSide{
		Recorded:  true,
		IsRepo:    run.Git.IsRepo,
		Commit:    run.Git.Commit,
		Branch:    run.Git.Branch,
		Detached:  run.Git.Detached,
		Dirty:     run.Git.Dirty,
		Untracked: run.Git.Untracked,
	}
}

// diffGit compares the recorded repository states. One side recorded while
// the other is not is itself a reportable difference; both missing is not.
// Reason order is stable: commit, branch, detached, dirty, untracked.
func diffGit(a, b GitSide) GitDelta {
	d := GitDelta{A: a, B: b, Reasons: []string{}}

	switch {
	case !a.Recorded && !b.Recorded:
		d.Reasons = append(d.Reasons, "not recorded (A, B)")
		return d
	case !a.Recorded:
		d.Changed = true
		d.Reasons = append(d.Reasons, "not recorded (A)")
		return d
	case !b.Recorded:
		d.Changed = true
		d.Reasons = append(d.Reasons, "not recorded (B)")
		return d
	}

	if a.IsRepo != b.IsRepo {
		d.Changed = true
		d.Reasons = append(d.Reasons, "repo status changed")
		return d
	}
	if !a.IsRepo {
		return d
	}

	if a.Commit != b.Commit {
		d.Reasons = append(d.Reasons, "commit changed")
	}
	if !eqStrPtr(a.Branch, b.Branch) {
		d.Reasons = append(d.Reasons, "branch changed")
	}
	if a.Detached != b.Detached {
		d.Reasons = append(d.Reasons, "detached changed")
	}
	if a.Dirty != b.Dirty {
		d.Reasons = append(d.Reasons, "dirty changed")
	}
	if a.Untracked != b.Untracked {
		d.Reasons = append(d.Reasons, "untracked changed")
	}
	d.Changed = len(d.Reasons) > 0
	return d
}

func diffWarnings(a, b []models.Warning) WarningsDelta {
	if a == nil {
		a = []models.Warning{}
	}
	if b == nil {
		b = []models.Warning{}
	}
	return WarningsDelta{A: a, B: b, Changed: !slices.Equal(a, b)}
}

func eqStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func normTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
