package inband

import "strings"

var (
	_ Segment = Text("")
	_ Segment = Call{}
)

// Segment is one span of a decomposed text: either narrative [Text] or a
// decoded tool [Call]. Concatenating the segments in order reconstructs
// the logical structure of the source with the delimiters removed.
type Segment interface {
	isSegment()
}

// Text is a narrative span.
type Text string

func (Text) isSegment() {}

// Call is a tool invocation span.
type Call struct {
	Invocation *Invocation
}

func (Call) isSegment() {}

// Split decomposes one complete text into its ordered text and tool-call
// segments. Unlike the streaming [Parser], which pools narrative and
// invocations separately per call, Split preserves their interleaving.
//
// A text span that is empty after trimming whitespace is dropped rather
// than emitted as an empty Text. A block with a malformed body is dropped
// entirely, matching the streaming parser: its raw span is not restored
// to the surrounding text. A trailing open tag with no close tag drops
// the remainder, the whole-text equivalent of an unterminated block.
func Split(full string) []Segment {
	var segs []Segment
	rest := full
	for {
		i := strings.Index(rest, OpenTag)
		if i < 0 {
			return appendText(segs, rest)
		}
		segs = appendText(segs, trimTagNewline(rest[:i]))
		rest = rest[i+len(OpenTag):]

		j := strings.Index(rest, CloseTag)
		if j < 0 {
			return segs
		}
		body := rest[:j]
		rest = trimLeadingNewline(rest[j+len(CloseTag):])
		if inv, ok := Decode(body); ok {
			segs = append(segs, Call{Invocation: inv})
		}
	}
}

func appendText(segs []Segment, s string) []Segment {
	if strings.TrimSpace(s) == "" {
		return segs
	}
	return append(segs, Text(s))
}

// trimLeadingNewline absorbs the one newline immediately following a
// close tag.
func trimLeadingNewline(s string) string {
	if strings.HasPrefix(s, "\r\n") {
		return s[2:]
	}
	if strings.HasPrefix(s, "\n") {
		return s[1:]
	}
	return s
}
