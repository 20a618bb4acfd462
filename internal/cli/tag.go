package cli

import (
	"fmt"
	"os"

	"github.com/salazaj/provenance-recorder/internal/output"
	"github.com/salazaj/provenance-recorder/internal/refs"
	"github.com/spf13/cobra"
)

var tagForce bool

var tagCmd = &cobra.Command{
	Use:   "tag <run-ref> <name>",
	Short: "Point a tag at a run",
	Long: `Point a tag at a run. The two arguments are accepted in either order;
ordinals always land on the run side, and ambiguous combinations are
rejected with guidance rather than guessed at.

Examples:
  prov tag baseline #2
  prov tag baseline 2026-02-09T14-06-45Z_ab12cd`,
	Args: cobra.ExactArgs(2),
	RunE: runTag,
}

var untagCmd = &cobra.Command{
	Use:   "untag <name>",
	Short: "Remove a tag",
	Args:  cobra.ExactArgs(1),
	RunE:  runUntag,
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags",
	Args:  cobra.NoArgs,
	RunE:  runTags,
}

func init() {
	tagCmd.Flags().BoolVar(&tagForce, "force", false, "overwrite an existing tag")
}

func runTag(cmd *cobra.Command, args []string) error {
	if err := requireProvDir(); err != nil {
		return err
	}
	ix, err := st.LoadIndex()
	if err != nil {
		return err
	}

	runExists := func(ref string) bool {
		rid, err := refs.Resolve(ix, ref)
		return err == nil && st.RunExists(rid)
	}
	decided, err := refs.ResolveTagArgs(ix, args[0], args[1], runExists)
	if err != nil {
		return err
	}

	// The run side is a literal run context: a tag here gets the tag hint,
	// never a silent reinterpretation.
	runID, err := refs.ResolveRunID(ix, decided.RunRef)
	if err != nil {
		return err
	}
	if !st.RunExists(runID) {
		return usageErrf("run %q does not exist at %s; your index/tag may be stale, run 'prov runs' to inspect",
			runID, st.RunDir(runID))
	}

	if err := st.SetTag(decided.TagName, runID, tagForce); err != nil {
		return err
	}

	fmt.Printf("Tagged %s -> %s\n", decided.TagName, runID)
	return nil
}

func runUntag(cmd *cobra.Command, args []string) error {
	if err := requireProvDir(); err != nil {
		return err
	}
	runID, err := st.DeleteTag(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Removed tag %s (was %s)\n", args[0], runID)
	return nil
}

func runTags(cmd *cobra.Command, args []string) error {
	if err := requireProvDir(); err != nil {
		return err
	}
	ix, err := st.LoadIndex()
	if err != nil {
		return err
	}
	if len(ix.Tags) == 0 {
		fmt.Println("(no tags)")
		return nil
	}
	output.RenderTagsText(os.Stdout, ix.Tags)
	return nil
}
