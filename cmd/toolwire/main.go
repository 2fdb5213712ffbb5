// Package main is the entry point for the toolwire CLI.
//
// Usage:
//
//	toolwire [flags] <command> [args]
//
// Commands:
//
//	segment  - Decompose complete model output into text/tool-call segments
//	filter   - Stream model output, separating narrative from tool calls
//	session  - Inspect orchestration session definitions
package main

import (
	"fmt"
	"os"

	"github.com/tanmosh/toolwire/cmd/toolwire/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
