package router

import (
	"net/http"

	"github.com/plumego/plume/pkg/common"
)

// Codec defines an interface for marshaling and unmarshaling request and
// response data against the canonical request/response shapes. The
// framework includes JSON and Protocol Buffers implementations in the
// codec package.
type Codec[T any, U any] interface {
	// Decode extracts and deserializes the request body into a value of
	// type T.
	Decode(req *common.Request) (T, error)

	// Encode serializes a value of type U into the response, setting the
	// appropriate Content-Type.
	Encode(res *common.Response, resp U) error
}

// GenericHandler defines a handler with typed request and response data.
// The exchange context is still available for params, headers, and the
// store.
type GenericHandler[T any, U any] func(c *common.Context, data T) (U, error)

// RegisterGenericRoute registers a route whose body handling is delegated
// to a codec. This is a standalone function rather than a method because
// Go methods cannot have type parameters. The created terminal decodes
// the request, calls the typed handler, and encodes the reply; decode
// failures become a 400 without invoking the handler.
func RegisterGenericRoute[Req any, Resp any](r *Router, method, path string, codec Codec[Req, Resp], handler GenericHandler[Req, Resp], middlewares ...common.Middleware) (RouteID, error) {
	terminal := func(c *common.Context) error {
		data, err := codec.Decode(c.Request())
		if err != nil {
			return NewHTTPError(http.StatusBadRequest, "Failed to decode request")
		}

		resp, err := handler(c, data)
		if err != nil {
			return err
		}

		return codec.Encode(c.Response(), resp)
	}

	return r.Handle(method, path, terminal, middlewares...)
}
