package output

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/salazaj/provenance-recorder/internal/diffengine"
	"github.com/salazaj/provenance-recorder/internal/models"
)

// ShowTextOptions selects the optional sections of the show text rendering.
type ShowTextOptions struct {
	Paths    bool
	AbsPaths bool
	Hashes   bool
	Warnings bool
}

// RenderShowText prints the human-readable view of one run.
func RenderShowText(w io.Writer, run *models.Run, tags []string, runDir string, opts ShowTextOptions) {
	fmt.Fprintf(w, "Run %s\n", run.RunID)
	if run.Name != "" {
		fmt.Fprintf(w, "Name: %s\n", run.Name)
	}
	if run.Timestamp != "" {
		fmt.Fprintf(w, "Timestamp: %s\n", run.Timestamp)
	}
	fmt.Fprintf(w, "Path: %s\n", runDir)
	if len(tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(tags, ", "))
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Inputs\t"+fmt.Sprint(len(run.Inputs)))
	fmt.Fprintln(tw, "Outputs\t"+fmt.Sprint(len(run.Outputs)))
	fmt.Fprintln(tw, "Params\t"+presentOrNone(run.Params != nil))
	fmt.Fprintln(tw, "Warnings\t"+fmt.Sprint(len(run.Warnings)))
	for _, k := range envKeys(run.Environment) {
		v := run.Environment[k]
		if v == "" {
			v = "(unknown)"
		}
		fmt.Fprintf(tw, "%s\t%s\n", k, v)
	}
	if run.Git != nil {
		fmt.Fprintln(tw, "Git\trecorded")
	} else {
		fmt.Fprintln(tw, "Git\tnot recorded")
	}
	tw.Flush()

	if opts.Warnings {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Warnings")
		if len(run.Warnings) > 0 {
			for _, warning := range run.Warnings {
				fmt.Fprintf(w, "- %s\n", warning.String())
			}
		} else {
			fmt.Fprintln(w, "(none)")
		}
	}

	if opts.Paths {
		printManifestSection(w, "Inputs", run.Inputs, opts)
		printManifestSection(w, "Outputs", run.Outputs, opts)
	}
}

func printManifestSection(w io.Writer, title string, m models.Manifest, opts ShowTextOptions) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	if len(m) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	hashes := m.Hashes()
	for _, p := range sortedKeys(m) {
		shown := formatPath(p, opts.AbsPaths)
		if opts.Hashes && hashes[p] != "" {
			fmt.Fprintf(w, "- %s  %s\n", shown, hashes[p])
		} else {
			fmt.Fprintf(w, "- %s\n", shown)
		}
	}
}

// DiffTextOptions selects the optional sections of the diff text rendering.
type DiffTextOptions struct {
	Paths    bool
	AbsPaths bool
	Warnings bool
}

// RenderDiffText prints the human-readable diff: a header naming both runs,
// warning counts, the per-facet summary table, and path-level details when
// requested.
func RenderDiffText(w io.Writer, res *diffengine.Result, opts DiffTextOptions) {
	fmt.Fprintf(w, "Diff %s -> %s\n", res.A.RunID, res.B.RunID)
	fmt.Fprintf(w, "A: %s%s\n", res.A.Name, tagSuffix(res.A.Tags))
	fmt.Fprintf(w, "B: %s%s\n", res.B.Name, tagSuffix(res.B.Tags))
	fmt.Fprintln(w)

	printWarnDetails := opts.Paths || opts.Warnings
	fmt.Fprintln(w, "Warnings")
	printWarnSide(w, "A", res.Warnings.A, printWarnDetails)
	printWarnSide(w, "B", res.Warnings.B, printWarnDetails)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Section\tChanged?\tDetails")
	fmt.Fprintf(tw, "Inputs (truth)\t%s\t%s\n", yesNo(res.Inputs.HasChanges()), countLine(res.Inputs))
	fmt.Fprintf(tw, "Outputs (truth)\t%s\t%s\n", yesNo(res.Outputs.HasChanges()), countLine(res.Outputs))
	fmt.Fprintf(tw, "Params (truth)\t%s\t%s\n", yesNo(res.Params.Changed), sameOr(res.Params.Changed, "hash differs"))
	fmt.Fprintf(tw, "Environment\t%s\t%s\n", yesNo(res.Env.Changed), sameOr(res.Env.Changed, "snapshot differs"))
	gitDetail := "same"
	if len(res.Git.Reasons) > 0 {
		gitDetail = strings.Join(res.Git.Reasons, ", ")
	}
	fmt.Fprintf(tw, "Git\t%s\t%s\n", yesNo(res.Git.Changed), gitDetail)
	tw.Flush()

	if opts.Paths {
		printFacetDetails(w, "Inputs details", res.Inputs, opts.AbsPaths)
		printFacetDetails(w, "Outputs details", res.Outputs, opts.AbsPaths)

		if res.Params.Changed {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Params")
			fmt.Fprintf(w, "- A: %s\n", strOrNone(res.Params.A))
			fmt.Fprintf(w, "- B: %s\n", strOrNone(res.Params.B))
		}
		if res.Env.Changed {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Environment")
			fmt.Fprintf(w, "- A: %s\n", envLine(res.Env.A))
			fmt.Fprintf(w, "- B: %s\n", envLine(res.Env.B))
		}
		if res.Git.Changed {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Git")
			fmt.Fprintf(w, "- %s\n", strings.Join(res.Git.Reasons, ", "))
			fmt.Fprintf(w, "- A: %s\n", gitLine(res.Git.A))
			fmt.Fprintf(w, "- B: %s\n", gitLine(res.Git.B))
		}
	}
}

// RenderRunsText prints the runs listing, most recent first.
func RenderRunsText(w io.Writer, rows []RunRow) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tRun ID\tName\tTimestamp\tTags")
	for _, row := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			row.Ordinal, row.RunID, row.Name, row.Timestamp, strings.Join(row.Tags, ", "))
	}
	tw.Flush()
}

// RenderTagsText prints the tag map sorted by tag name.
func RenderTagsText(w io.Writer, tags map[string]string) {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Tag\tRun ID")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%s\n", name, tags[name])
	}
	tw.Flush()
}

func printWarnSide(w io.Writer, side string, warnings []models.Warning, details bool) {
	if len(warnings) == 0 {
		fmt.Fprintf(w, "- %s: (none)\n", side)
		return
	}
	fmt.Fprintf(w, "- %s: %d warning(s)\n", side, len(warnings))
	if details {
		for _, warning := range warnings {
			fmt.Fprintf(w, "  - %s\n", warning.String())
		}
	}
}

func printFacetDetails(w io.Writer, title string, d diffengine.ManifestDelta, abs bool) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	sections := []struct {
		label string
		paths []string
	}{
		{"added", d.Added},
		{"removed", d.Removed},
		{"changed", d.Changed},
	}
	for _, s := range sections {
		if len(s.paths) == 0 {
			fmt.Fprintf(w, "- %s: (none)\n", s.label)
			continue
		}
		fmt.Fprintf(w, "- %s:\n", s.label)
		for _, p := range s.paths {
			fmt.Fprintf(w, "  - %s\n", formatPath(p, abs))
		}
	}
}

func formatPath(p string, abs bool) string {
	if !abs {
		return p
	}
	resolved, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return resolved
}

func tagSuffix(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " (" + strings.Join(tags, ", ") + ")"
}

func countLine(d diffengine.ManifestDelta) string {
	return fmt.Sprintf("added %d, removed %d, changed %d", len(d.Added), len(d.Removed), len(d.Changed))
}

func yesNo(changed bool) string {
	if changed {
		return "YES"
	}
	return "no"
}

func sameOr(changed bool, detail string) string {
	if changed {
		return detail
	}
	return "same"
}

func presentOrNone(present bool) string {
	if present {
		return "present"
	}
	return "none"
}

func strOrNone(s *string) string {
	if s == nil {
		return "(none)"
	}
	return *s
}

func envLine(e models.Environment) string {
	parts := make([]string, 0, len(e))
	for _, k := range envKeys(e) {
		parts = append(parts, k+"="+e[k])
	}
	return strings.Join(parts, " ")
}

func gitLine(s diffengine.GitSide) string {
	if !s.Recorded {
		return "(not recorded)"
	}
	if !s.IsRepo {
		return "(not a repository)"
	}
	branch := "(detached)"
	if s.Branch != nil {
		branch = *s.Branch
	}
	return fmt.Sprintf("commit=%s branch=%s dirty=%t untracked=%d", s.Commit, branch, s.Dirty, s.Untracked)
}

func envKeys(e models.Environment) []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
