package toolset

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/tanmosh/toolwire/pkg/inband"
)

type echoArgs struct {
	Text  string `json:"text"`
	Times int    `json:"times,omitempty"`
}

func echoTool(t *testing.T) *Tool {
	t.Helper()
	tool, err := New("echo", "Repeats text back.", func(_ context.Context, _ *inband.Invocation, args echoArgs) (any, error) {
		n := args.Times
		if n < 1 {
			n = 1
		}
		return strings.Repeat(args.Text, n), nil
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tool
}

func TestNew_SchemaFromArgs(t *testing.T) {
	tool := echoTool(t)
	if tool.Argument == nil {
		t.Fatal("argument schema should be derived from the args type")
	}
	data, err := json.Marshal(tool.Argument)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	if !strings.Contains(string(data), "text") {
		t.Errorf("schema %s should mention the text field", data)
	}
}

func TestNew_RequiresName(t *testing.T) {
	_, err := New("", "no name", func(_ context.Context, _ *inband.Invocation, _ echoArgs) (any, error) {
		return nil, nil
	})
	if err == nil {
		t.Error("New should reject an empty tool name")
	}
}

func TestDispatch_DecodedInvocation(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(echoTool(t)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	inv, ok := inband.Decode(`{"tool":"echo","text":"ha","times":2}`)
	if !ok {
		t.Fatal("Decode failed")
	}
	out, err := reg.Dispatch(context.Background(), inv)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out != "haha" {
		t.Errorf("Dispatch = %v, want haha", out)
	}
}

func TestDispatch_UnknownTool(t *testing.T) {
	reg := NewRegistry()
	inv, _ := inband.Decode(`{"tool":"nope"}`)
	if _, err := reg.Dispatch(context.Background(), inv); err == nil {
		t.Error("Dispatch should fail for an unregistered tool")
	}
}

func TestDispatch_RepairsSloppyArguments(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(echoTool(t)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Trailing comma: invalid JSON that jsonrepair can fix. The decoder
	// preserves input bytes verbatim, so the repair happens at dispatch.
	inv := &inband.Invocation{
		ID:    "test",
		Tool:  "echo",
		Input: json.RawMessage(`{"text":"ok",}`),
	}
	out, err := reg.Dispatch(context.Background(), inv)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out != "ok" {
		t.Errorf("Dispatch = %v, want ok", out)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(echoTool(t)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(echoTool(t)); err == nil {
		t.Error("duplicate Register should fail")
	}
}

func TestInspect(t *testing.T) {
	reg := NewRegistry()
	reg.Register(MustNew("b_tool", "Second.", func(_ context.Context, _ *inband.Invocation, _ struct{}) (any, error) {
		return nil, nil
	}))
	reg.Register(MustNew("a_tool", "First.", func(_ context.Context, _ *inband.Invocation, _ struct{}) (any, error) {
		return nil, nil
	}))

	text := reg.Inspect()
	if !strings.Contains(text, "### a_tool\nFirst.") || !strings.Contains(text, "### b_tool\nSecond.") {
		t.Errorf("Inspect output missing sections:\n%s", text)
	}
	if strings.Index(text, "a_tool") > strings.Index(text, "b_tool") {
		t.Error("Inspect should list tools in sorted order")
	}
}
