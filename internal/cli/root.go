// Package cli provides the command-line interface for prov.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/salazaj/provenance-recorder/internal/config"
	"github.com/salazaj/provenance-recorder/internal/store"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.2"

	// Global flags
	provDir string
	verbose bool

	// Global config, logger, and store
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	st         *store.Store
)

// ErrDifferences signals that --fail-on matched a reported change. Mapped to
// its own exit code in main; never printed as an error.
var ErrDifferences = errors.New("differences found")

// ErrUsage marks argument and flag validation failures, which share the
// could-not-resolve exit code.
var ErrUsage = errors.New("invalid usage")

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "prov",
	Short: "Record and compare provenance of analysis runs",
	Long: `Prov records structured execution metadata (file manifests with hashes,
parameters, git state, environment, warnings) and answers "what changed
between two runs?" by diffing two such records.

Runs are addressed by run id, ordinal (#N, oldest = 1), or tag.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if provDir == "" {
			provDir = cfg.ProvDir
		}

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, logCleanup = config.SetupLogger(cfg.LogFile, level)

		st = store.New(provDir, logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				logger.Warn("close log file", "error", err)
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&provDir, "prov-dir", "", "provenance directory (default .prov, or PROV_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(untagCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(versionCmd)
}

// requireProvDir guards every command that reads or writes the store.
func requireProvDir() error {
	if !st.Exists() {
		return fmt.Errorf("%w: %s does not exist; run 'prov init' first", ErrUsage, st.Dir())
	}
	return nil
}

func usageErrf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

func validateFormat(format string) error {
	if format != "text" && format != "json" {
		return usageErrf("format must be 'text' or 'json'")
	}
	return nil
}
