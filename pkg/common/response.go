package common

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// ErrResponseCommitted is returned when a handler or middleware attempts to
// modify a response after it has been committed. A response is committed
// exactly once, when the innermost layer of the dispatch pipeline (or a
// short-circuiting middleware) has produced it.
var ErrResponseCommitted = errors.New("response already committed")

// Canceler is the minimal cancellation surface a stream producer observes.
// context.Context satisfies it.
type Canceler interface {
	Done() <-chan struct{}
	Err() error
}

// StreamFunc produces a response body as a lazy sequence of chunks. It is
// invoked by the adapter after status and headers have been emitted. A
// cancelled Canceler means the client is gone and the producer should
// return promptly so held resources are released.
type StreamFunc func(ctx Canceler, s *Stream) error

// Response is the per-exchange response builder: status code, header
// mapping, and a body that is either a complete byte payload or a stream
// producer. It is exclusively owned by the dispatch pipeline invocation
// processing the exchange.
type Response struct {
	status    int
	header    http.Header
	body      []byte
	stream    StreamFunc
	committed bool

	closeOnce sync.Once
	onClose   []func(error)
}

// NewResponse creates an empty response builder with status 200.
func NewResponse() *Response {
	return &Response{
		status: http.StatusOK,
		header: make(http.Header),
	}
}

// Status returns the response status code.
func (r *Response) Status() int { return r.status }

// SetStatus sets the response status code. It fails with
// ErrResponseCommitted once the response has been committed.
func (r *Response) SetStatus(code int) error {
	if r.committed {
		return ErrResponseCommitted
	}
	r.status = code
	return nil
}

// Header returns the response header mapping. Use Set for last-write-wins
// semantics and Add to append. Once the response has been committed the
// returned mapping is a copy, so late mutation never reaches the emitted
// response.
func (r *Response) Header() http.Header {
	if r.committed {
		return r.header.Clone()
	}
	return r.header
}

// Body returns the buffered response body.
func (r *Response) Body() []byte { return r.body }

// Write appends to the buffered response body. It fails with
// ErrResponseCommitted once the response has been committed.
func (r *Response) Write(p []byte) (int, error) {
	if r.committed {
		return 0, ErrResponseCommitted
	}
	r.body = append(r.body, p...)
	return len(p), nil
}

// WriteString appends a string to the buffered response body.
func (r *Response) WriteString(s string) (int, error) {
	return r.Write([]byte(s))
}

// SetBody replaces the buffered response body.
func (r *Response) SetBody(p []byte) error {
	if r.committed {
		return ErrResponseCommitted
	}
	r.body = p
	return nil
}

// SetStream installs a lazy body producer in place of a buffered body. The
// producer runs at the adapter boundary after status and headers have been
// emitted.
func (r *Response) SetStream(fn StreamFunc) error {
	if r.committed {
		return ErrResponseCommitted
	}
	r.stream = fn
	return nil
}

// Stream returns the installed body producer, or nil for buffered bodies.
func (r *Response) Stream() StreamFunc { return r.stream }

// Committed reports whether the response has been committed.
func (r *Response) Committed() bool { return r.committed }

// Commit marks the response as produced. Further writes are rejected.
// Committing an already-committed response is a no-op, so the flag flips
// exactly once per exchange.
func (r *Response) Commit() {
	r.committed = true
}

// Overwrite replaces a response regardless of its committed state and
// leaves it committed. It is reserved for the pipeline's failure
// conversion, which must be able to turn an uncaught failure into a
// well-formed response even when a layer has already produced output.
func (r *Response) Overwrite(status int, body []byte) {
	r.status = status
	r.body = body
	r.stream = nil
	r.committed = true
}

// OverwriteHeader sets a header regardless of the committed state. Like
// Overwrite, it is reserved for failure conversion, which may have to
// reshape a response a layer already committed.
func (r *Response) OverwriteHeader(key, value string) {
	r.header.Set(key, value)
}

// OnClose registers a hook invoked exactly once when a streaming body
// finishes, whether the stream ends normally, errors, or is cancelled.
// Hooks registered on a non-streaming response fire when the adapter
// finishes emitting the body.
func (r *Response) OnClose(fn func(error)) {
	r.onClose = append(r.onClose, fn)
}

// SignalClose delivers the final close signal to all registered hooks.
// Adapters call it after the body (buffered or streamed) has been fully
// emitted; repeated calls are ignored.
func (r *Response) SignalClose(err error) {
	r.closeOnce.Do(func() {
		for _, fn := range r.onClose {
			fn(err)
		}
	})
}

// Stream is the chunk writer handed to a StreamFunc by the adapter. Writes
// go directly to the host connection; Flush pushes buffered chunks to the
// client when the host supports it.
type Stream struct {
	w     io.Writer
	flush func()
}

// NewStream creates a stream writer over the given sink. flush may be nil
// when the host has no flushing concept.
func NewStream(w io.Writer, flush func()) *Stream {
	return &Stream{w: w, flush: flush}
}

// Write emits one chunk.
func (s *Stream) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// Flush pushes any buffered chunks to the client.
func (s *Stream) Flush() {
	if s.flush != nil {
		s.flush()
	}
}

// Event is one server-sent event.
type Event struct {
	ID   string
	Name string
	Data string
}

// WriteEvent emits a server-sent event followed by a flush, in the
// text/event-stream wire format.
func (s *Stream) WriteEvent(e Event) error {
	if e.ID != "" {
		if _, err := fmt.Fprintf(s, "id: %s\n", e.ID); err != nil {
			return err
		}
	}
	if e.Name != "" {
		if _, err := fmt.Fprintf(s, "event: %s\n", e.Name); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s, "data: %s\n\n", e.Data); err != nil {
		return err
	}
	s.Flush()
	return nil
}
