package inband

import (
	"encoding/json"
	"testing"
)

func TestDecode_Minimal(t *testing.T) {
	inv, ok := Decode("\n{\"tool\":\"x\"}\n")
	if !ok {
		t.Fatal("Decode should accept a minimal block body")
	}
	if inv.Tool != "x" {
		t.Errorf("Tool = %q, want %q", inv.Tool, "x")
	}
	if string(inv.Input) != "{}" {
		t.Errorf("Input = %s, want {}", inv.Input)
	}
	if inv.Stop {
		t.Error("Stop should default to false")
	}
	if inv.ID == "" {
		t.Error("ID should be assigned")
	}
}

func TestDecode_StripsReservedKeys(t *testing.T) {
	inv, ok := Decode(`{"tool":"t","stop":true,"path":"a"}`)
	if !ok {
		t.Fatal("Decode failed")
	}
	if !inv.Stop {
		t.Error("Stop marker should be decoded")
	}
	if string(inv.Input) != `{"path":"a"}` {
		t.Errorf("Input = %s, want {\"path\":\"a\"}", inv.Input)
	}
}

func TestDecode_PreservesInputBytes(t *testing.T) {
	body := `{"tool":"write","text":"line1\nline2 é","n":1.50,"nested":{"a":[1,2,3]}}`
	inv, ok := Decode(body)
	if !ok {
		t.Fatal("Decode failed")
	}
	want := `{"text":"line1\nline2 é","n":1.50,"nested":{"a":[1,2,3]}}`
	if string(inv.Input) != want {
		t.Errorf("Input = %s\nwant    %s", inv.Input, want)
	}
}

func TestDecode_Rejects(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"whitespace", "  \n\t "},
		{"not json", "call the search tool"},
		{"truncated", `{"tool":"x"`},
		{"array", `["tool","x"]`},
		{"scalar", `"tool"`},
		{"missing tool key", `{"query":"q"}`},
		{"empty tool name", `{"tool":""}`},
		{"non-string tool", `{"tool":7}`},
		{"trailing garbage", `{"tool":"x"} extra`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if inv, ok := Decode(tc.body); ok {
				t.Errorf("Decode(%q) = %+v, want rejection", tc.body, inv)
			}
		})
	}
}

func TestDecode_ReservedKeysNeverInInput(t *testing.T) {
	bodies := []string{
		`{"tool":"a"}`,
		`{"tool":"a","stop":false}`,
		`{"stop":true,"tool":"a","x":1}`,
		`{"x":{"tool":"inner"},"tool":"a"}`,
		`{"tool":"a","tool":"b","x":1}`,
		`{"stop":true,"tool":"a","stop":false,"stop":true}`,
	}
	for _, body := range bodies {
		inv, ok := Decode(body)
		if !ok {
			t.Fatalf("Decode(%q) failed", body)
		}
		top := parseTop(t, inv.Input)
		for _, key := range reservedKeys {
			if _, present := top[key]; present {
				t.Errorf("Decode(%q): reserved key %q leaked into input %s", body, key, inv.Input)
			}
		}
	}
}

func parseTop(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("input is not a JSON object: %v (%s)", err, raw)
	}
	return m
}

func TestDecode_DuplicatedReservedKey(t *testing.T) {
	// JSON permits duplicated keys; every occurrence of a reserved key
	// must be stripped, and the tool name comes from the first one.
	inv, ok := Decode(`{"tool":"a","tool":"b","x":1}`)
	if !ok {
		t.Fatal("Decode failed")
	}
	if inv.Tool != "a" {
		t.Errorf("Tool = %q, want first occurrence %q", inv.Tool, "a")
	}
	if string(inv.Input) != `{"x":1}` {
		t.Errorf("Input = %s, want {\"x\":1}", inv.Input)
	}
}

func TestDecode_NestedReservedLookalikeSurvives(t *testing.T) {
	inv, ok := Decode(`{"tool":"a","x":{"tool":"inner"}}`)
	if !ok {
		t.Fatal("Decode failed")
	}
	if string(inv.Input) != `{"x":{"tool":"inner"}}` {
		t.Errorf("nested object key should survive, got %s", inv.Input)
	}
}
