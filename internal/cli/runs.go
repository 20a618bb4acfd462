package cli

import (
	"fmt"
	"os"

	"github.com/salazaj/provenance-recorder/internal/models"
	"github.com/salazaj/provenance-recorder/internal/output"
	"github.com/spf13/cobra"
)

var (
	runsLimit  int
	runsLatest bool
	runsFormat string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List runs with ordinals (oldest = 1) and their tags",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 25, "how many runs to show (most recent first)")
	runsCmd.Flags().BoolVar(&runsLatest, "latest", false, "print only the latest run id and exit")
	runsCmd.Flags().StringVar(&runsFormat, "format", "text", "output format: text|json")
}

func runRuns(cmd *cobra.Command, args []string) error {
	if err := requireProvDir(); err != nil {
		return err
	}
	if err := validateFormat(runsFormat); err != nil {
		return err
	}

	ix, err := st.LoadIndex()
	if err != nil {
		return err
	}
	ordered := ix.OrderedRunIDs()
	if len(ordered) == 0 {
		if runsFormat == "json" {
			return output.WriteJSON(os.Stdout, output.RunsDoc{Runs: []output.RunRow{}})
		}
		fmt.Println("(no runs)")
		return nil
	}

	if runsLatest {
		latest := ordered[len(ordered)-1]
		if runsFormat == "json" {
			return output.WriteJSON(os.Stdout, output.LatestDoc{RunID: latest})
		}
		fmt.Println(latest)
		return nil
	}

	rows := runRows(ix, ordered, runsLimit)
	if runsFormat == "json" {
		return output.WriteJSON(os.Stdout, output.RunsDoc{Runs: rows})
	}
	output.RenderRunsText(os.Stdout, rows)
	return nil
}

// runRows builds the listing, most recent first, capped at limit.
func runRows(ix *models.Index, ordered []string, limit int) []output.RunRow {
	meta := make(map[string]models.RunSummary, len(ix.Runs))
	for _, r := range ix.Runs {
		if r.RunID != "" {
			meta[r.RunID] = r
		}
	}

	if limit < 1 {
		limit = 1
	}
	rows := []output.RunRow{}
	for i := len(ordered) - 1; i >= 0 && len(rows) < limit; i-- {
		rid := ordered[i]
		rows = append(rows, output.RunRow{
			Ordinal:   i + 1,
			RunID:     rid,
			Name:      meta[rid].Name,
			Timestamp: meta[rid].Timestamp,
			Tags:      ix.TagsForRun(rid),
		})
	}
	return rows
}
