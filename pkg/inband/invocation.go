package inband

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// OpenTag and CloseTag delimit a tool invocation block inside model
	// output. They are protocol constants shared with the model prompt.
	OpenTag  = "<tool_call>"
	CloseTag = "</tool_call>"

	// KeyTool is the reserved block key naming the invoked tool.
	KeyTool = "tool"

	// KeyStop is the reserved block key signaling "stop after this step".
	KeyStop = "stop"
)

// reservedKeys are stripped from the block object before it becomes
// Invocation.Input. They never reach tool argument decoding.
var reservedKeys = []string{KeyTool, KeyStop}

// Invocation is one decoded tool call extracted from a block.
type Invocation struct {
	// ID uniquely identifies this invocation within the process.
	ID string `json:"id"`

	// Tool is the invoked tool name. Always non-empty.
	Tool string `json:"tool"`

	// Input is the block object with the reserved keys removed. The
	// remaining keys and values are preserved byte for byte, including
	// escapes, embedded newlines, and key order.
	Input json.RawMessage `json:"input"`

	// Stop is true when the block carried the early-stop marker.
	Stop bool `json:"stop,omitzero"`
}

// Decode parses one captured block body into an Invocation.
//
// The body must be a single JSON object carrying a non-empty string value
// under the "tool" key. Reserved keys are stripped from the returned
// Input. Decode never fails loudly: any malformed body yields (nil, false).
func Decode(body string) (*Invocation, bool) {
	s := strings.TrimSpace(body)
	if s == "" || s[0] != '{' || !gjson.Valid(s) {
		return nil, false
	}
	root := gjson.Parse(s)
	if !root.IsObject() {
		return nil, false
	}

	name := root.Get(KeyTool)
	if name.Type != gjson.String || name.Str == "" {
		return nil, false
	}

	stop := false
	if v := root.Get(KeyStop); v.Exists() {
		stop = v.Bool()
	}

	// sjson.Delete removes one pair per call; a body with a duplicated
	// key needs repeated passes until no occurrence remains.
	input := s
	for _, key := range reservedKeys {
		for gjson.Get(input, key).Exists() {
			out, err := sjson.Delete(input, key)
			if err != nil {
				break
			}
			input = out
		}
	}

	return &Invocation{
		ID:    uuid.NewString(),
		Tool:  name.Str,
		Input: json.RawMessage(input),
		Stop:  stop,
	}, true
}
