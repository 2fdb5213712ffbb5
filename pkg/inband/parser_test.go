package inband

import (
	"math/rand"
	"strings"
	"testing"
)

const (
	blockX = OpenTag + "\n{\"tool\":\"x\"}\n" + CloseTag
	blockY = OpenTag + "\n{\"tool\":\"y\",\"arg\":1}\n" + CloseTag
)

// parseAll feeds text to a fresh Parser in the given chunk sizes and
// returns the concatenated narrative and all extracted invocations.
func parseAll(text string, chunkSize int) (string, []*Invocation) {
	var p Parser
	var out strings.Builder
	var calls []*Invocation
	for len(text) > 0 {
		n := min(chunkSize, len(text))
		filtered, cs := p.Parse(text[:n])
		out.WriteString(filtered)
		calls = append(calls, cs...)
		text = text[n:]
	}
	out.WriteString(p.Flush())
	return out.String(), calls
}

func TestParse_PlainText(t *testing.T) {
	var p Parser
	text, calls := p.Parse("Hello, world!")
	if text != "Hello, world!" {
		t.Errorf("filtered text = %q, want %q", text, "Hello, world!")
	}
	if len(calls) != 0 {
		t.Errorf("got %d tool calls, want 0", len(calls))
	}
}

func TestParse_SingleBlock(t *testing.T) {
	var p Parser
	text, calls := p.Parse(blockX)
	if text != "" {
		t.Errorf("filtered text = %q, want empty", text)
	}
	if len(calls) != 1 {
		t.Fatalf("got %d tool calls, want 1", len(calls))
	}
	if calls[0].Tool != "x" {
		t.Errorf("tool = %q, want x", calls[0].Tool)
	}
	if string(calls[0].Input) != "{}" {
		t.Errorf("input = %s, want {}", calls[0].Input)
	}
}

func TestParse_TwoBlocksAroundText(t *testing.T) {
	var p Parser
	text, calls := p.Parse(blockX + "Middle text" + blockY)
	if text != "Middle text" {
		t.Errorf("filtered text = %q, want %q", text, "Middle text")
	}
	if len(calls) != 2 {
		t.Fatalf("got %d tool calls, want 2", len(calls))
	}
	if calls[0].Tool != "x" || calls[1].Tool != "y" {
		t.Errorf("tool order = %q, %q; want x, y", calls[0].Tool, calls[1].Tool)
	}
}

func TestParse_NewlineAbsorption(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lf both sides", "Before.\n" + blockX + "\nAfter.", "Before.After."},
		{"crlf both sides", "Before.\r\n" + blockX + "\r\nAfter.", "Before.After."},
		{"only one absorbed each side", "Before.\n\n" + blockX + "\n\nAfter.", "Before.\n\nAfter."},
		{"no newline to absorb", "Before." + blockX + "After.", "Before.After."},
		{"lone cr is not a newline", "Before.\r" + blockX + "\rAfter.", "Before.\r\rAfter."},
		{"blank line between blocks", blockX + "\n" + blockY, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := parseAll(tc.in, len(tc.in))
			if got != tc.want {
				t.Errorf("filtered text = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParse_ChunkInvariance(t *testing.T) {
	texts := []string{
		"Hello, world!",
		blockX,
		blockX + "Middle text" + blockY,
		"Lead.\n" + blockX + "\nTail with a stray < bracket.",
		"CRLF case.\r\n" + blockX + "\r\nNext line.",
		"Partial tag bait <tool_ca not a block " + blockY,
		"Broken " + OpenTag + "\n{nope}\n" + CloseTag + " kept going " + blockX,
		"Ends with newline\n",
		"Ends mid-tag " + OpenTag[:6],
		strings.Repeat("padding ", 40) + blockX + strings.Repeat("\nmore", 10),
	}
	for _, text := range texts {
		wantText, wantCalls := parseAll(text, len(text))
		for _, size := range []int{1, 2, 3, 7} {
			gotText, gotCalls := parseAll(text, size)
			if gotText != wantText {
				t.Errorf("chunk size %d: filtered text %q != whole-text %q (input %q)",
					size, gotText, wantText, text)
			}
			if len(gotCalls) != len(wantCalls) {
				t.Errorf("chunk size %d: %d calls != whole-text %d (input %q)",
					size, len(gotCalls), len(wantCalls), text)
				continue
			}
			for i := range gotCalls {
				if gotCalls[i].Tool != wantCalls[i].Tool ||
					string(gotCalls[i].Input) != string(wantCalls[i].Input) {
					t.Errorf("chunk size %d: call %d = %s(%s), want %s(%s)",
						size, i, gotCalls[i].Tool, gotCalls[i].Input,
						wantCalls[i].Tool, wantCalls[i].Input)
				}
			}
		}
	}
}

func TestParse_RandomPartitions(t *testing.T) {
	text := "Alpha.\n" + blockX + "\nBeta\r\n" + blockY + "\r\nGamma<not a tag>"
	wantText, wantCalls := parseAll(text, len(text))

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 50; trial++ {
		var p Parser
		var out strings.Builder
		var calls []*Invocation
		rest := text
		for len(rest) > 0 {
			n := 1 + rng.Intn(len(rest))
			filtered, cs := p.Parse(rest[:n])
			out.WriteString(filtered)
			calls = append(calls, cs...)
			rest = rest[n:]
		}
		out.WriteString(p.Flush())
		if out.String() != wantText || len(calls) != len(wantCalls) {
			t.Fatalf("trial %d: got (%q, %d calls), want (%q, %d calls)",
				trial, out.String(), len(calls), wantText, len(wantCalls))
		}
	}
}

func TestParse_MalformedBlockSuppressed(t *testing.T) {
	var p Parser
	text, calls := p.Parse("Keep." + OpenTag + "\nnot json at all\n" + CloseTag + "Also keep.")
	if text != "Keep.Also keep." {
		t.Errorf("filtered text = %q, want %q", text, "Keep.Also keep.")
	}
	if len(calls) != 0 {
		t.Errorf("malformed block produced %d calls, want 0", len(calls))
	}
}

func TestParse_UnterminatedBlockStaysBuffered(t *testing.T) {
	var p Parser
	text, calls := p.Parse("Intro." + OpenTag + "\n{\"tool\":\"x\"")
	if text != "Intro." {
		t.Errorf("filtered text = %q, want %q", text, "Intro.")
	}
	if len(calls) != 0 {
		t.Errorf("got %d calls before close tag, want 0", len(calls))
	}

	// Completing the block in a later call emits it.
	text, calls = p.Parse("}\n" + CloseTag + "Outro.")
	if text != "Outro." {
		t.Errorf("filtered text = %q, want %q", text, "Outro.")
	}
	if len(calls) != 1 || calls[0].Tool != "x" {
		t.Fatalf("got calls %v, want one call to x", calls)
	}
}

func TestParse_ResumesAfterBlock(t *testing.T) {
	var p Parser
	p.Parse(blockX)
	text, calls := p.Parse("between" + blockY + "after")
	if text != "between" {
		t.Errorf("filtered text = %q, want %q", text, "between")
	}
	if len(calls) != 1 || calls[0].Tool != "y" {
		t.Fatalf("parser did not resume scanning: calls %v", calls)
	}
	if got := p.Flush(); got != "after" {
		t.Errorf("Flush() = %q, want %q", got, "after")
	}
}

func TestFlush_DropsOpenBlock(t *testing.T) {
	var p Parser
	p.Parse("Shown." + OpenTag + "{\"tool\":\"lost\"")
	if got := p.Flush(); got != "" {
		t.Errorf("Flush() surfaced open-block content %q", got)
	}
	// The parser is reset and usable for nothing further, but must not
	// leak the dropped body into a subsequent call either.
	text, calls := p.Parse("fresh")
	if text != "fresh" || len(calls) != 0 {
		t.Errorf("state not reset after Flush: (%q, %d calls)", text, len(calls))
	}
}

func TestFlush_ReleasesHeldTail(t *testing.T) {
	var p Parser
	text, _ := p.Parse("Ends with newline\n")
	if text != "Ends with newline" {
		t.Errorf("filtered text = %q: trailing newline should be withheld", text)
	}
	if got := p.Flush(); got != "\n" {
		t.Errorf("Flush() = %q, want %q", got, "\n")
	}
}
