// Package stream adapts the inband parser to a chunked stream pipeline:
// raw model output chunks go in, filtered narrative and completed tool
// invocations come out, in source order.
package stream

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/tanmosh/toolwire/pkg/inband"
)

// ErrDone is returned by Next when the stream has ended normally.
var ErrDone = errors.New("stream: done")

// Chunk is one element of a stream: either a fragment of narrative text
// or a completed tool invocation, never both.
type Chunk struct {
	Text string
	Call *inband.Invocation
}

// Stream is a pull-based sequence of chunks.
type Stream interface {
	// Next returns the next chunk. It blocks until a chunk is available
	// and returns ErrDone after the last one.
	Next() (*Chunk, error)

	// Close releases the stream. Pending and future Next calls fail.
	Close() error

	// CloseWithError closes the stream with a specific error.
	CloseWithError(error) error
}

// Builder produces a Stream fed by a writer goroutine. Add blocks while
// the consumer lags more than size chunks behind, providing flow control
// between producer and consumer.
type Builder struct {
	q *chunkQueue
}

// NewBuilder creates a Builder whose stream buffers up to size chunks.
func NewBuilder(size int) *Builder {
	return &Builder{q: newChunkQueue(size)}
}

// Add appends a chunk to the stream.
func (b *Builder) Add(c *Chunk) error {
	return b.q.add(c)
}

// Done marks the end of the stream. Buffered chunks remain readable;
// after they drain, Next returns ErrDone.
func (b *Builder) Done() error {
	return b.q.finish()
}

// Abort closes the stream with an error. Unread buffered chunks are
// discarded and every further Next or Add fails with err.
func (b *Builder) Abort(err error) error {
	return b.q.closeWithError(err)
}

// Stream returns the read side.
func (b *Builder) Stream() Stream {
	return (*builderStream)(b)
}

type builderStream Builder

func (s *builderStream) Next() (*Chunk, error) { return s.q.next() }

func (s *builderStream) Close() error { return s.q.closeWithError(io.ErrClosedPipe) }

func (s *builderStream) CloseWithError(err error) error { return s.q.closeWithError(err) }

// FromReader streams r as text chunks of at most chunkSize bytes. The
// reader's EOF ends the stream; any other read error aborts it.
func FromReader(r io.Reader, chunkSize int) Stream {
	if chunkSize < 1 {
		chunkSize = 1
	}
	b := NewBuilder(4)
	go func() {
		buf := make([]byte, chunkSize)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				if addErr := b.Add(&Chunk{Text: string(buf[:n])}); addErr != nil {
					return
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					b.Done()
				} else {
					b.Abort(err)
				}
				return
			}
		}
	}()
	return b.Stream()
}

// chunkQueue is a fixed-size blocking ring of chunks shared between one
// producer and one consumer.
type chunkQueue struct {
	cond *sync.Cond

	mu         sync.Mutex
	buf        []*Chunk
	head, tail int64
	closeWrite bool
	closeErr   error
}

func newChunkQueue(size int) *chunkQueue {
	if size < 1 {
		size = 1
	}
	q := &chunkQueue{buf: make([]*Chunk, size)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *chunkQueue) add(c *Chunk) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.closeErr != nil {
			return fmt.Errorf("stream: add to closed stream: %w", q.closeErr)
		}
		if q.closeWrite {
			return fmt.Errorf("stream: add to closed stream: %w", io.ErrClosedPipe)
		}
		if q.tail-q.head < int64(len(q.buf)) {
			break
		}
		q.cond.Wait()
	}
	q.buf[q.tail%int64(len(q.buf))] = c
	q.tail++
	q.cond.Signal()
	return nil
}

func (q *chunkQueue) next() (*Chunk, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.head == q.tail {
		if q.closeErr != nil {
			return nil, q.closeErr
		}
		if q.closeWrite {
			return nil, ErrDone
		}
		q.cond.Wait()
	}
	if q.closeErr != nil {
		return nil, q.closeErr
	}
	c := q.buf[q.head%int64(len(q.buf))]
	q.head++
	q.cond.Signal()
	return c, nil
}

func (q *chunkQueue) finish() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closeWrite = true
	q.cond.Broadcast()
	return nil
}

func (q *chunkQueue) closeWithError(err error) error {
	if err == nil {
		err = io.ErrClosedPipe
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closeErr == nil {
		q.closeErr = err
		q.closeWrite = true
	}
	q.cond.Broadcast()
	return nil
}
