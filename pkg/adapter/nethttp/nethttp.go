// Package nethttp adapts the Plume engine to the net/http host runtime.
// It translates *http.Request into the engine's canonical request shape,
// runs the dispatch pipeline, and emits the resulting response, including
// streamed bodies. The engine itself never touches a net/http server
// type; this package is the one place the two meet.
package nethttp

import (
	"fmt"
	"net/http"

	"github.com/plumego/plume/pkg/common"
	"github.com/plumego/plume/pkg/router"
)

// Handler bridges a Plume router onto http.Handler.
type Handler struct {
	router *router.Router
}

// New creates the net/http adapter for the given router.
func New(r *router.Router) *Handler {
	return &Handler{router: r}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := &common.Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		Query:      r.URL.Query(),
		Header:     r.Header,
		Body:       r.Body,
		Host:       r.Host,
		RemoteAddr: r.RemoteAddr,
	}

	// The request context carries client-disconnect cancellation into the
	// engine, so suspended middleware and stream producers can release
	// held resources promptly.
	res := h.router.Process(r.Context(), req)

	header := w.Header()
	for k, vs := range res.Header() {
		header[k] = vs
	}

	if stream := res.Stream(); stream != nil {
		h.emitStream(w, r, res, stream)
		return
	}

	w.WriteHeader(res.Status())
	if len(res.Body()) > 0 {
		_, _ = w.Write(res.Body())
	}
	res.SignalClose(nil)
}

// emitStream runs a lazy body producer against the live connection. The
// final close signal is delivered exactly once whether the producer
// returns normally, errors, panics, or the client disconnects.
func (h *Handler) emitStream(w http.ResponseWriter, r *http.Request, res *common.Response, stream common.StreamFunc) {
	w.WriteHeader(res.Status())

	var flush func()
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	s := common.NewStream(w, flush)

	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("stream producer panicked: %v", rec)
			}
		}()
		return stream(r.Context(), s)
	}()

	if err == nil {
		err = r.Context().Err()
	}
	res.SignalClose(err)
}
