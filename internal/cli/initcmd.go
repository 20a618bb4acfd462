package cli

import (
	"fmt"

	"github.com/salazaj/provenance-recorder/internal/project"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the provenance directory in the current project",
	Long: `Create the provenance directory, its runs/ subdirectory, and an empty
index.json, and make sure .gitignore covers the directory.

Idempotent: running init in an already-initialized project is a no-op.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "allow init even if the path exists")
}

func runInit(cmd *cobra.Command, args []string) error {
	res, err := project.Init(st, initForce)
	if err != nil {
		return err
	}

	fmt.Println("Initialized provenance-recorder")
	fmt.Printf("Artifacts directory: %s\n", res.Dir)
	fmt.Printf("Runs stored at:      %s\n", res.RunsDir)
	fmt.Printf("Index file:          %s (%s)\n", res.IndexPath, createdOrExists(res.IndexCreated))
	if res.GitignoreChanged {
		fmt.Printf("Gitignore entry:     added to %s\n", res.GitignorePath)
	} else {
		fmt.Println("Gitignore entry:     already present")
	}
	return nil
}

func createdOrExists(created bool) string {
	if created {
		return "created"
	}
	return "exists"
}
