package cli

import (
	"fmt"
	"os"

	"github.com/salazaj/provenance-recorder/internal/output"
	"github.com/salazaj/provenance-recorder/internal/refs"
	"github.com/spf13/cobra"
)

var (
	showPaths    bool
	showAbsPaths bool
	showHashes   bool
	showWarnings bool
	showFormat   string
	showRaw      bool
)

var showCmd = &cobra.Command{
	Use:   "show [ref]",
	Short: "Show details for a single run",
	Long: `Show one run's record: counts, environment, and git state, plus paths and
warnings on request. The reference may be a run id, an ordinal (#N), or a
tag; it defaults to the latest run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showPaths, "paths", false, "show input/output paths")
	showCmd.Flags().BoolVar(&showAbsPaths, "abs-paths", false, "show absolute paths (implies --paths, text only)")
	showCmd.Flags().BoolVar(&showHashes, "hashes", false, "show input/output hashes (implies --paths)")
	showCmd.Flags().BoolVar(&showWarnings, "warnings", false, "show warning messages")
	showCmd.Flags().StringVar(&showFormat, "format", "text", "output format: text|json")
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "print the stored run.json verbatim (implies --format json)")
}

func runShow(cmd *cobra.Command, args []string) error {
	if err := requireProvDir(); err != nil {
		return err
	}
	if err := validateFormat(showFormat); err != nil {
		return err
	}
	paths := showPaths || showHashes || showAbsPaths
	format := showFormat
	if showRaw {
		format = "json"
	}
	// Absolute paths never enter the JSON contract; text only.
	if format == "json" && showAbsPaths {
		return usageErrf("--abs-paths is supported only for text output")
	}

	ix, err := st.LoadIndex()
	if err != nil {
		return err
	}
	ordered := ix.OrderedRunIDs()
	if len(ordered) == 0 {
		if format == "json" {
			return output.WriteJSON(os.Stdout, output.EmptyShowDoc{})
		}
		fmt.Println("(no runs)")
		return nil
	}

	ref := ordered[len(ordered)-1]
	if len(args) == 1 {
		ref = args[0]
	}
	runID, err := refs.Resolve(ix, ref)
	if err != nil {
		return err
	}

	if showRaw {
		raw, err := st.ReadRunRaw(runID)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(raw)
		return err
	}

	run, err := st.LoadRun(runID)
	if err != nil {
		return err
	}
	tags := ix.TagsForRun(run.RunID)

	if format == "json" {
		doc := output.BuildShow(run, tags, output.ShowOptions{
			Paths:    paths,
			Hashes:   showHashes,
			Warnings: showWarnings,
		})
		return output.WriteJSON(os.Stdout, doc)
	}

	output.RenderShowText(os.Stdout, run, tags, st.RunDir(run.RunID), output.ShowTextOptions{
		Paths:    paths,
		AbsPaths: showAbsPaths,
		Hashes:   showHashes,
		Warnings: showWarnings,
	})
	return nil
}
