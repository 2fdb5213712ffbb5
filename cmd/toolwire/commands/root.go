package commands

import (
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "toolwire",
	Short: "Extract tool invocations from model output",
	Long: `toolwire - work with in-band tool invocation blocks in model output.

Models emit tool invocations inside delimited blocks interleaved with
free-form narrative text. This CLI extracts them:

  segment  decompose a complete text into ordered text/tool-call segments
  filter   stream text through the chunk parser, separating narrative
           from tool calls in real time
  session  inspect orchestration session definitions

Examples:
  # Segment a saved transcript
  toolwire segment < transcript.txt

  # Keep only the tool names
  toolwire segment --jq '.[].call.tool' < transcript.txt

  # Stream from a live pipe, narrative to stdout, calls to stderr
  some-model | toolwire filter

  # Show a session definition with defaults applied
  toolwire session show -f session.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
