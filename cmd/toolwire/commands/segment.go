package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/tanmosh/toolwire/pkg/inband"
)

var (
	segInput  string
	segJQ     string
	segAsYAML bool
)

var segmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Decompose complete model output into segments",
	Long: `Read a complete model output text and decompose it into an ordered
list of segments: narrative text spans and decoded tool calls.

Output is a JSON array where each element is either

  {"text": "..."}

or

  {"call": {"id": "...", "tool": "...", "input": {...}, "stop": false}}

Use --jq to post-process the array with a jq expression, or --yaml to
emit YAML instead of JSON.

Examples:
  toolwire segment < transcript.txt
  toolwire segment -f transcript.txt --jq '[.[] | select(.call) | .call.tool]'
  toolwire segment --yaml < transcript.txt`,
	RunE: runSegment,
}

// jsonSegment is the CLI's wire shape for one segment.
type jsonSegment struct {
	Text string             `json:"text,omitzero" yaml:"text,omitempty"`
	Call *inband.Invocation `json:"call,omitzero" yaml:"call,omitempty"`
}

func runSegment(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, segInput)
	if err != nil {
		return err
	}

	segments := inband.Split(string(data))
	out := make([]jsonSegment, 0, len(segments))
	for _, seg := range segments {
		switch seg := seg.(type) {
		case inband.Text:
			out = append(out, jsonSegment{Text: string(seg)})
		case inband.Call:
			out = append(out, jsonSegment{Call: seg.Invocation})
		}
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "%d segments\n", len(out))
	}

	if segJQ != "" {
		return writeFiltered(cmd.OutOrStdout(), out, segJQ)
	}
	return writeValue(cmd.OutOrStdout(), out, segAsYAML)
}

// writeFiltered runs a jq expression over the segment list and prints
// every result, one JSON document per line.
func writeFiltered(w io.Writer, segments []jsonSegment, expr string) error {
	query, err := gojq.Parse(expr)
	if err != nil {
		return fmt.Errorf("parse jq expression: %w", err)
	}

	// gojq operates on generic JSON values.
	data, err := json.Marshal(segments)
	if err != nil {
		return err
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return err
	}

	iter := query.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := v.(error); isErr {
			return fmt.Errorf("jq: %w", err)
		}
		line, err := gojq.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(line))
	}
}

func writeValue(w io.Writer, v any, asYAML bool) error {
	if asYAML {
		// Round-trip through JSON so raw message bytes render as
		// structured values rather than binary blobs.
		jsonData, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(jsonData, &generic); err != nil {
			return err
		}
		data, err := yaml.Marshal(generic)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func init() {
	segmentCmd.Flags().StringVarP(&segInput, "file", "f", "", "input file (default stdin)")
	segmentCmd.Flags().StringVar(&segJQ, "jq", "", "jq expression applied to the segment array")
	segmentCmd.Flags().BoolVar(&segAsYAML, "yaml", false, "emit YAML instead of JSON")
	rootCmd.AddCommand(segmentCmd)
}
