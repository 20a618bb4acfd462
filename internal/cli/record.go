package cli

import (
	"fmt"
	"strings"

	"github.com/salazaj/provenance-recorder/internal/record"
	"github.com/spf13/cobra"
)

var (
	recordName    string
	recordInputs  []string
	recordOutputs []string
	recordParams  string
)

var recordCmd = &cobra.Command{
	Use:   "record --name <name> --inputs <path>... --outputs <path>...",
	Short: "Record provenance after an analysis has been run",
	Long: `Record a run: hash the input and output files (directories are walked
recursively), capture git state and the environment, and append the run to
the index.

The command itself is never executed by prov; records carry status
recorded_only.

Examples:
  prov record --name train --inputs data/ --outputs out/
  prov record --name train --inputs data/ --outputs out/ --params params.yaml`,
	Args: cobra.ArbitraryArgs,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVar(&recordName, "name", "", "short name for this run (required)")
	recordCmd.Flags().StringSliceVar(&recordInputs, "inputs", nil, "input files or directories (required)")
	recordCmd.Flags().StringSliceVar(&recordOutputs, "outputs", nil, "output files or directories (required)")
	recordCmd.Flags().StringVar(&recordParams, "params", "", "params file (hashed, never parsed)")
	recordCmd.MarkFlagRequired("name")
	recordCmd.MarkFlagRequired("inputs")
	recordCmd.MarkFlagRequired("outputs")
}

func runRecord(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageErrf("unexpected argument %q\n\nDid you mean:\n  prov record --name myrun --inputs <paths...> --outputs <paths...>", args[0])
	}
	if strings.TrimSpace(recordName) == "" {
		return usageErrf("--name is required\n\nExample:\n  prov record --name myrun --inputs data/ --outputs out/")
	}
	if err := requireProvDir(); err != nil {
		return err
	}

	rec := record.New(st, logger)
	run, err := rec.Record(record.Options{
		Name:    recordName,
		Inputs:  recordInputs,
		Outputs: recordOutputs,
		Params:  recordParams,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Recorded run %s\n", run.RunID)
	fmt.Printf("Artifacts: %s\n", st.RunDir(run.RunID))
	for _, w := range run.Warnings {
		fmt.Printf("Warning: %s\n", w.String())
	}
	return nil
}
