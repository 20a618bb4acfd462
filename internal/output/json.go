// Package output renders runs and diff results into the versioned JSON
// contract consumed by scripts and CI, and into plain text for humans.
//
// The JSON shapes are built from fixed structs, never ad-hoc maps, so a
// required key can neither go missing nor reorder. Optional sections only
// ever grow the top-level key set; base keys are never removed or renamed.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/salazaj/provenance-recorder/internal/diffengine"
	"github.com/salazaj/provenance-recorder/internal/models"
)

// ContractVersion is the version integer embedded in every emitted object.
const ContractVersion = 1

// GitSideView is one run's git state as serialized. Recorded is false when
// the record carries no git block; the remaining keys stay present (zeroed)
// so the key set is stable.
type GitSideView struct {
	Recorded  bool    `json:"recorded"`
	IsRepo    bool    `json:"is_repo"`
	Commit    string  `json:"commit"`
	Branch    *string `json:"branch"`
	Detached  bool    `json:"detached"`
	Dirty     bool    `json:"dirty"`
	Untracked int     `json:"untracked"`
}

func gitSideView(s diffengine.GitSide) GitSideView {
	return GitSideView{
		Recorded:  s.Recorded,
		IsRepo:    s.IsRepo,
		Commit:    s.Commit,
		Branch:    s.Branch,
		Detached:  s.Detached,
		Dirty:     s.Dirty,
		Untracked: s.Untracked,
	}
}

// ShowRunBlock is the run block of the show contract. The contract version
// integer lives here because show's top-level key set is pinned.
type ShowRunBlock struct {
	Version   int      `json:"version"`
	RunID     string   `json:"run_id"`
	Name      string   `json:"name"`
	Timestamp string   `json:"timestamp"`
	Tags      []string `json:"tags"`
}

// ShowCounts is the counts block of the show contract.
type ShowCounts struct {
	Inputs    int  `json:"inputs"`
	Outputs   int  `json:"outputs"`
	Warnings  int  `json:"warnings"`
	HasParams bool `json:"has_params"`
}

// ShowPaths is the optional paths section. Inputs and Outputs hold sorted
// path lists, or path-to-hash maps when hashes were requested.
type ShowPaths struct {
	Inputs  any `json:"inputs"`
	Outputs any `json:"outputs"`
}

// ShowDoc is the show contract. Without flags the top-level keys are exactly
// run, counts, environment, git; each optional flag adds exactly one key.
type ShowDoc struct {
	Run         ShowRunBlock       `json:"run"`
	Counts      ShowCounts         `json:"counts"`
	Environment models.Environment `json:"environment"`
	Git         GitSideView        `json:"git"`
	Paths       *ShowPaths         `json:"paths,omitempty"`
	Warnings    *[]models.Warning  `json:"warnings,omitempty"`
}

// ShowOptions selects the optional show sections.
type ShowOptions struct {
	Paths    bool
	Hashes   bool
	Warnings bool
}

// BuildShow renders one run into the show contract.
func BuildShow(run *models.Run, tags []string, opts ShowOptions) *ShowDoc {
	assertRelativeKeys(run.Inputs, "inputs")
	assertRelativeKeys(run.Outputs, "outputs")

	doc := &ShowDoc{
		Run: ShowRunBlock{
			Version:   ContractVersion,
			RunID:     run.RunID,
			Name:      run.Name,
			Timestamp: run.Timestamp,
			Tags:      normStrings(tags),
		},
		Counts: ShowCounts{
			Inputs:    len(run.Inputs),
			Outputs:   len(run.Outputs),
			Warnings:  len(run.Warnings),
			HasParams: run.Params != nil,
		},
		Environment: normEnv(run.Environment),
		Git:         gitSideView(gitSideOf(run)),
	}

	if opts.Paths {
		if opts.Hashes {
			doc.Paths = &ShowPaths{Inputs: run.Inputs.Hashes(), Outputs: run.Outputs.Hashes()}
		} else {
			doc.Paths = &ShowPaths{Inputs: sortedKeys(run.Inputs), Outputs: sortedKeys(run.Outputs)}
		}
	}
	if opts.Warnings {
		w := run.Warnings
		if w == nil {
			w = []models.Warning{}
		}
		doc.Warnings = &w
	}
	return doc
}

// EmptyShowDoc is the show contract for a project with no runs.
type EmptyShowDoc struct {
	Run *ShowRunBlock `json:"run"`
}

// DiffSideBlock identifies one side of the diff. The timestamp is
// deliberately omitted here.
type DiffSideBlock struct {
	RunID string   `json:"run_id"`
	Name  string   `json:"name"`
	Tags  []string `json:"tags"`
}

// ManifestCounts are the integer counts for one manifest facet.
type ManifestCounts struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Changed int `json:"changed"`
}

// SummaryCounts aggregates per-facet change indicators.
type SummaryCounts struct {
	Inputs          ManifestCounts `json:"inputs"`
	Outputs         ManifestCounts `json:"outputs"`
	ParamsChanged   bool           `json:"params_changed"`
	EnvChanged      bool           `json:"env_changed"`
	GitChanged      bool           `json:"git_changed"`
	WarningsChanged bool           `json:"warnings_changed"`
}

// DiffSummary is the summary block of the diff contract.
type DiffSummary struct {
	TruthChanged bool          `json:"truth_changed"`
	AnyChanged   bool          `json:"any_changed"`
	Counts       SummaryCounts `json:"counts"`
}

// ParamsBlock compares the params fingerprints; null means that side has no
// params artifact.
type ParamsBlock struct {
	A       *string `json:"a"`
	B       *string `json:"b"`
	Changed bool    `json:"changed"`
}

// EnvBlock carries both environment snapshots and the change verdict.
type EnvBlock struct {
	A       models.Environment `json:"a"`
	B       models.Environment `json:"b"`
	Changed bool               `json:"changed"`
}

// RecordedPair reports per side whether git state was recorded at all.
type RecordedPair struct {
	A bool `json:"a"`
	B bool `json:"b"`
}

// GitBlock is the git facet of the diff contract.
type GitBlock struct {
	A        GitSideView  `json:"a"`
	B        GitSideView  `json:"b"`
	Recorded RecordedPair `json:"recorded"`
	Changed  bool         `json:"changed"`
	Reasons  []string     `json:"reasons"`
}

// FacetPaths lists the paths behind one manifest facet's counts. Unchanged
// paths are counted but never listed.
type FacetPaths struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Changed []string `json:"changed"`
}

// WarningsBlock carries both warning lists and the change verdict.
type WarningsBlock struct {
	A       []models.Warning `json:"a"`
	B       []models.Warning `json:"b"`
	Changed bool             `json:"changed"`
}

// DiffDoc is the diff contract. Without flags the top-level keys are exactly
// version, a, b, summary, params, environment, git; --paths adds inputs and
// outputs, --warnings adds warnings.
type DiffDoc struct {
	Version     int            `json:"version"`
	A           DiffSideBlock  `json:"a"`
	B           DiffSideBlock  `json:"b"`
	Summary     DiffSummary    `json:"summary"`
	Params      ParamsBlock    `json:"params"`
	Environment EnvBlock       `json:"environment"`
	Git         GitBlock       `json:"git"`
	Inputs      *FacetPaths    `json:"inputs,omitempty"`
	Outputs     *FacetPaths    `json:"outputs,omitempty"`
	Warnings    *WarningsBlock `json:"warnings,omitempty"`
}

// DiffOptions selects the optional diff sections.
type DiffOptions struct {
	Paths    bool
	Warnings bool
}

// BuildDiff renders a computed diff into the diff contract.
func BuildDiff(res *diffengine.Result, opts DiffOptions) *DiffDoc {
	assertRelativePaths(res.Inputs, "inputs")
	assertRelativePaths(res.Outputs, "outputs")

	doc := &DiffDoc{
		Version: ContractVersion,
		A:       DiffSideBlock{RunID: res.A.RunID, Name: res.A.Name, Tags: normStrings(res.A.Tags)},
		B:       DiffSideBlock{RunID: res.B.RunID, Name: res.B.Name, Tags: normStrings(res.B.Tags)},
		Summary: DiffSummary{
			TruthChanged: res.TruthChanged,
			AnyChanged:   res.AnyChanged,
			Counts: SummaryCounts{
				Inputs:          manifestCounts(res.Inputs),
				Outputs:         manifestCounts(res.Outputs),
				ParamsChanged:   res.Params.Changed,
				EnvChanged:      res.Env.Changed,
				GitChanged:      res.Git.Changed,
				WarningsChanged: res.Warnings.Changed,
			},
		},
		Params:      ParamsBlock{A: res.Params.A, B: res.Params.B, Changed: res.Params.Changed},
		Environment: EnvBlock{A: normEnv(res.Env.A), B: normEnv(res.Env.B), Changed: res.Env.Changed},
		Git: GitBlock{
			A:        gitSideView(res.Git.A),
			B:        gitSideView(res.Git.B),
			Recorded: RecordedPair{A: res.Git.A.Recorded, B: res.Git.B.Recorded},
			Changed:  res.Git.Changed,
			Reasons:  normStrings(res.Git.Reasons),
		},
	}

	if opts.Paths {
		doc.Inputs = facetPaths(res.Inputs)
		doc.Outputs = facetPaths(res.Outputs)
	}
	if opts.Warnings {
		doc.Warnings = &WarningsBlock{A: res.Warnings.A, B: res.Warnings.B, Changed: res.Warnings.Changed}
	}
	return doc
}

// RunRow is one entry of the runs listing contract.
type RunRow struct {
	Ordinal   int      `json:"ordinal"`
	RunID     string   `json:"run_id"`
	Name      string   `json:"name"`
	Timestamp string   `json:"timestamp"`
	Tags      []string `json:"tags"`
}

// RunsDoc is the runs listing contract.
type RunsDoc struct {
	Runs []RunRow `json:"runs"`
}

// LatestDoc is the runs --latest contract.
type LatestDoc struct {
	RunID string `json:"run_id"`
}

// WriteJSON writes v with two-space indentation and a trailing newline.
func WriteJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func manifestCounts(d diffengine.ManifestDelta) ManifestCounts {
	return ManifestCounts{Added: len(d.Added), Removed: len(d.Removed), Changed: len(d.Changed)}
}

func facetPaths(d diffengine.ManifestDelta) *FacetPaths {
	return &FacetPaths{
		Added:   normStrings(d.Added),
		Removed: normStrings(d.Removed),
		Changed: normStrings(d.Changed),
	}
}

func gitSideOf(run *models.Run) diffengine.GitSide {
	if run.Git == nil {
		return diffengine.GitSide{}
	}
	return diffengine.GitSide{
		Recorded:  true,
		IsRepo:    run.Git.IsRepo,
		Commit:    run.Git.Commit,
		Branch:    run.Git.Branch,
		Detached:  run.Git.Detached,
		Dirty:     run.Git.Dirty,
		Untracked: run.Git.Untracked,
	}
}

func sortedKeys(m models.Manifest) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func normEnv(e models.Environment) models.Environment {
	if e == nil {
		return models.Environment{}
	}
	return e
}

// Path normalization happens upstream at record time; an absolute path
// reaching the serializer is an internal invariant violation, not a
// recoverable user error.
func assertRelativeKeys(m models.Manifest, facet string) {
	for p := range m {
		assertRelative(p, facet)
	}
}

func assertRelativePaths(d diffengine.ManifestDelta, facet string) {
	for _, list := range [][]string{d.Added, d.Removed, d.Changed} {
		for _, p := range list {
			assertRelative(p, facet)
		}
	}
}

func assertRelative(p, facet string) {
	if filepath.IsAbs(p) {
		panic(fmt.Sprintf("internal: absolute path in %s manifest reached the serializer: %s", facet, p))
	}
}
