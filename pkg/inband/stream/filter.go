package stream

import (
	"errors"
	"log/slog"

	"github.com/tanmosh/toolwire/pkg/inband"
)

// Filter runs an inband parser over the text chunks of in, returning a
// stream of filtered narrative and completed invocations. Chunks that
// already carry an invocation pass through untouched. When in ends, any
// narrative withheld by the parser is flushed as a final text chunk; the
// body of a block the model never closed is dropped.
func Filter(in Stream) Stream {
	out := NewBuilder(16)
	go func() {
		var p inband.Parser
		for {
			chunk, err := in.Next()
			if err != nil {
				if errors.Is(err, ErrDone) {
					if tail := p.Flush(); tail != "" {
						out.Add(&Chunk{Text: tail})
					}
					out.Done()
				} else {
					out.Abort(err)
				}
				return
			}
			if chunk.Call != nil {
				if err := out.Add(chunk); err != nil {
					in.CloseWithError(err)
					return
				}
				continue
			}
			text, calls := p.Parse(chunk.Text)
			if text != "" {
				if err := out.Add(&Chunk{Text: text}); err != nil {
					in.CloseWithError(err)
					return
				}
			}
			for _, inv := range calls {
				if err := out.Add(&Chunk{Call: inv}); err != nil {
					in.CloseWithError(err)
					return
				}
			}
		}
	}()
	return out.Stream()
}

// Collect drains s into its concatenated narrative and invocation list.
func Collect(s Stream) (string, []*inband.Invocation, error) {
	var text []byte
	var calls []*inband.Invocation
	for {
		chunk, err := s.Next()
		if err != nil {
			if errors.Is(err, ErrDone) {
				return string(text), calls, nil
			}
			return string(text), calls, err
		}
		if chunk.Call != nil {
			calls = append(calls, chunk.Call)
			continue
		}
		text = append(text, chunk.Text...)
	}
}

// Drain consumes and discards the rest of s, logging the abort cause if
// the stream ended abnormally. Useful when a caller stops caring about a
// stream but its producer goroutine must not block forever.
func Drain(s Stream) {
	for {
		_, err := s.Next()
		if err != nil {
			if !errors.Is(err, ErrDone) {
				slog.Debug("stream: drained with error", "error", err)
			}
			return
		}
	}
}
