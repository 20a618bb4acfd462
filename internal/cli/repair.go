package cli

import (
	"fmt"

	"github.com/salazaj/provenance-recorder/internal/store"
	"github.com/spf13/cobra"
)

var (
	repairBackup   bool
	repairKeepTags bool
	repairDryRun   bool
)

var repairCmd = &cobra.Command{
	Use:     "repair-index",
	Aliases: []string{"repair"},
	Short:   "Rebuild index.json from the run directories on disk",
	Long: `Rebuild the index from the run records under runs/: dangling tags are
dropped, and records missing a timestamp get one inferred from their run id
and backfilled into run.json.`,
	Args: cobra.NoArgs,
	RunE: runRepair,
}

func init() {
	repairCmd.Flags().BoolVar(&repairBackup, "backup", true, "back up the existing index.json first")
	repairCmd.Flags().BoolVar(&repairKeepTags, "keep-tags", true, "preserve tags whose run still exists")
	repairCmd.Flags().BoolVar(&repairDryRun, "dry-run", false, "show what would change without writing")
}

func runRepair(cmd *cobra.Command, args []string) error {
	if err := requireProvDir(); err != nil {
		return err
	}

	_, res, err := st.RepairIndex(store.RepairOptions{
		Backup:   repairBackup,
		KeepTags: repairKeepTags,
		DryRun:   repairDryRun,
	})
	if err != nil {
		return err
	}

	if res.BackupPath != "" {
		fmt.Printf("Backed up index to %s\n", res.BackupPath)
	}
	mode := "written"
	if repairDryRun {
		mode = "dry-run"
	}
	fmt.Printf("Repaired index (%s)\n", mode)
	fmt.Printf("- runs: %d\n", res.RunsCount)
	fmt.Printf("- tags kept: %d (from %d)\n", res.TagsKept, res.TagsTotalBefore)
	fmt.Printf("- timestamps added to run.json: %d\n", res.TimestampsAdded)
	if len(res.Warnings) > 0 {
		fmt.Println("Warnings")
		for _, w := range res.Warnings {
			fmt.Printf("- %s\n", w)
		}
	}
	return nil
}
