package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tanmosh/toolwire/pkg/inband/stream"
)

var (
	filterChunkSize int
	filterCallsOut  string
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Stream model output, separating narrative from tool calls",
	Long: `Read model output from stdin, run it through the streaming chunk
parser, and write the narrative text to stdout as it arrives. Decoded
tool calls are written as JSON lines to stderr (or to a file with
--calls).

The input is consumed in fixed-size chunks to exercise the same code
path a live model stream uses.

Examples:
  some-model | toolwire filter
  toolwire filter --calls calls.jsonl < transcript.txt`,
	RunE: runFilter,
}

func runFilter(cmd *cobra.Command, args []string) error {
	callsOut := cmd.ErrOrStderr()
	if filterCallsOut != "" {
		f, err := os.Create(filterCallsOut)
		if err != nil {
			return fmt.Errorf("create calls file: %w", err)
		}
		defer f.Close()
		callsOut = f
	}

	enc := json.NewEncoder(callsOut)
	s := stream.Filter(stream.FromReader(cmd.InOrStdin(), filterChunkSize))
	defer s.Close()

	calls := 0
	for {
		chunk, err := s.Next()
		if errors.Is(err, stream.ErrDone) {
			break
		}
		if err != nil {
			return err
		}
		if chunk.Call != nil {
			calls++
			if err := enc.Encode(chunk.Call); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprint(cmd.OutOrStdout(), chunk.Text); err != nil {
			return err
		}
	}

	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "\n%d tool calls\n", calls)
	}
	return nil
}

func init() {
	filterCmd.Flags().IntVar(&filterChunkSize, "chunk-size", 512, "read chunk size in bytes")
	filterCmd.Flags().StringVar(&filterCallsOut, "calls", "", "write tool calls to this file instead of stderr")
	rootCmd.AddCommand(filterCmd)
}
