package inband

import "strings"

// Parser extracts invocation blocks from one stream of model output text.
//
// The zero value is ready to use. A Parser belongs to exactly one stream
// and is not safe for concurrent use; independent streams use independent
// Parser values.
//
// Parse is chunk-invariant: feeding a text in chunks of any size, down to
// one byte, produces the same concatenated narrative and the same ordered
// invocation list as a single call over the whole text. To make that hold,
// the parser withholds a tail that could still be affected by upcoming
// input: a partial delimiter, or one trailing newline that would be
// absorbed if an open tag follows. A withheld tail, like the body of a
// block that is never closed, is lost when the Parser is discarded;
// callers that reach a definite end of stream can recover the narrative
// part with [Parser.Flush].
type Parser struct {
	// buf holds unprocessed input: the body of an open block, or a
	// withheld narrative tail (partial open tag and/or one newline).
	buf string

	// inBlock is true between a matched open tag and its close tag.
	inBlock bool

	// skipNL is true when one newline following a close tag is still
	// pending absorption.
	skipNL bool
}

// Parse consumes the next chunk and returns the narrative text and the
// invocations completed within this call, in source order. Text inside an
// unterminated block stays buffered and is not returned. A block whose
// body fails to decode contributes nothing: no invocation and no
// narrative characters.
func (p *Parser) Parse(chunk string) (string, []*Invocation) {
	p.buf += chunk

	var text strings.Builder
	var calls []*Invocation
	for {
		if p.inBlock {
			i := strings.Index(p.buf, CloseTag)
			if i < 0 {
				// Unterminated block: keep buffering.
				return text.String(), calls
			}
			body := p.buf[:i]
			p.buf = p.buf[i+len(CloseTag):]
			p.inBlock = false
			p.skipNL = true
			if inv, ok := Decode(body); ok {
				calls = append(calls, inv)
			}
			continue
		}

		if p.skipNL && !p.resolveSkip() {
			return text.String(), calls
		}

		i := strings.Index(p.buf, OpenTag)
		if i < 0 {
			emit, hold := splitHold(p.buf)
			text.WriteString(emit)
			p.buf = hold
			return text.String(), calls
		}
		text.WriteString(trimTagNewline(p.buf[:i]))
		p.buf = p.buf[i+len(OpenTag):]
		p.inBlock = true
	}
}

// Flush releases any withheld narrative tail and resets the Parser. The
// body of a still-open block is discarded, never surfaced as narrative.
func (p *Parser) Flush() string {
	tail := p.buf
	p.buf = ""
	p.skipNL = false
	if p.inBlock {
		p.inBlock = false
		return ""
	}
	return tail
}

// resolveSkip absorbs the one newline pending after a close tag. It
// reports false when more input is needed to decide (empty buffer, or a
// lone '\r' that may yet become a CRLF).
func (p *Parser) resolveSkip() bool {
	switch {
	case p.buf == "":
		return false
	case p.buf[0] == '\n':
		p.buf = p.buf[1:]
	case strings.HasPrefix(p.buf, "\r\n"):
		p.buf = p.buf[2:]
	case p.buf == "\r":
		return false
	}
	p.skipNL = false
	return true
}

// splitHold divides pending narrative into an emittable head and a tail
// that must wait for more input: the longest suffix that is a prefix of
// the open tag, plus one newline directly before it (absorbed if the tag
// completes). A trailing '\r' is held as a possible CRLF start.
func splitHold(s string) (emit, hold string) {
	cut := len(s)
	for n := min(len(s), len(OpenTag)-1); n > 0; n-- {
		if strings.HasSuffix(s, OpenTag[:n]) {
			cut = len(s) - n
			break
		}
	}
	head := s[:cut]
	switch {
	case strings.HasSuffix(head, "\r\n"):
		cut -= 2
	case strings.HasSuffix(head, "\n"), strings.HasSuffix(head, "\r"):
		cut--
	}
	return s[:cut], s[cut:]
}

// trimTagNewline absorbs the one newline immediately preceding an open
// tag, so the tag line contributes no blank line to surrounding text.
func trimTagNewline(s string) string {
	if strings.HasSuffix(s, "\r\n") {
		return s[:len(s)-2]
	}
	if strings.HasSuffix(s, "\n") {
		return s[:len(s)-1]
	}
	return s
}
