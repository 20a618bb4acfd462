// Package main provides the entry point for the prov CLI.
//
// Exit codes are part of the external contract:
//
//	0  success / no reportable difference
//	1  generic failure (IO, corrupt record, internal)
//	2  reference could not be resolved, or invalid usage
//	5  differences found under the requested --fail-on mode
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/salazaj/provenance-recorder/internal/cli"
	"github.com/salazaj/provenance-recorder/internal/store"
)

func main() {
	err := cli.Execute()
	if err == nil {
		return
	}
	// --fail-on exits by code alone; it is a verdict, not an error.
	if !errors.Is(err, cli.ErrDifferences) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, cli.ErrDifferences):
		return 5
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrAmbiguousRef),
		errors.Is(err, store.ErrInvalidTag),
		errors.Is(err, store.ErrTagExists),
		errors.Is(err, cli.ErrUsage):
		return 2
	default:
		return 1
	}
}
