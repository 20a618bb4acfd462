package cli

import (
	"fmt"
	"os"

	"github.com/salazaj/provenance-recorder/internal/diffengine"
	"github.com/salazaj/provenance-recorder/internal/output"
	"github.com/salazaj/provenance-recorder/internal/refs"
	"github.com/spf13/cobra"
)

var (
	diffPaths    bool
	diffAbsPaths bool
	diffWarnings bool
	diffFormat   string
	diffFailOn   string
)

var diffCmd = &cobra.Command{
	Use:   "diff [a] [b]",
	Short: "Compare two runs and explain what changed",
	Long: `Compare two runs facet by facet: input/output manifests and params (the
truth-critical facets), plus environment, git, and warnings (context).

Operands default sensibly: with no arguments the last two runs are compared;
with one argument it is compared against the latest run.

With --fail-on, the exit code reports whether the selected tier changed:
  truth   inputs, outputs, or params differ
  any     anything differs`,
	Args: cobra.MaximumNArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().BoolVar(&diffPaths, "paths", false, "show path-level details")
	diffCmd.Flags().BoolVar(&diffAbsPaths, "abs-paths", false, "show absolute paths (implies --paths, text only)")
	diffCmd.Flags().BoolVar(&diffWarnings, "warnings", false, "show warning messages")
	diffCmd.Flags().StringVar(&diffFormat, "format", "text", "output format: text|json")
	diffCmd.Flags().StringVar(&diffFailOn, "fail-on", "none", "exit non-zero if changes: none|truth|any")
}

func runDiff(cmd *cobra.Command, args []string) error {
	if err := requireProvDir(); err != nil {
		return err
	}
	if err := validateFormat(diffFormat); err != nil {
		return err
	}
	if diffFailOn != "none" && diffFailOn != "truth" && diffFailOn != "any" {
		return usageErrf("fail-on must be one of: none, truth, any")
	}
	paths := diffPaths || diffAbsPaths
	if diffFormat == "json" && diffAbsPaths {
		return usageErrf("--abs-paths is supported only for text output")
	}

	ix, err := st.LoadIndex()
	if err != nil {
		return err
	}
	var refA, refB string
	if len(args) > 0 {
		refA = args[0]
	}
	if len(args) > 1 {
		refB = args[1]
	}
	a, b, err := refs.ResolvePair(ix, refA, refB)
	if err != nil {
		return err
	}

	if diffFormat == "text" {
		switch len(args) {
		case 0:
			fmt.Printf("Using last two runs: %s -> %s\n", a, b)
		case 1:
			fmt.Printf("Comparing: %s -> %s\n", a, b)
		}
	}

	runA, err := st.LoadRun(a)
	if err != nil {
		return err
	}
	runB, err := st.LoadRun(b)
	if err != nil {
		return err
	}

	res := diffengine.Diff(runA, runB, ix.TagsForRun(runA.RunID), ix.TagsForRun(runB.RunID))

	if diffFormat == "json" {
		doc := output.BuildDiff(res, output.DiffOptions{Paths: paths, Warnings: diffWarnings})
		if err := output.WriteJSON(os.Stdout, doc); err != nil {
			return err
		}
	} else {
		output.RenderDiffText(os.Stdout, res, output.DiffTextOptions{
			Paths:    paths,
			AbsPaths: diffAbsPaths,
			Warnings: diffWarnings,
		})
	}

	if (diffFailOn == "truth" && res.TruthChanged) || (diffFailOn == "any" && res.AnyChanged) {
		return ErrDifferences
	}
	return nil
}
