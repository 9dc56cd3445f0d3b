// Package codec provides encoding and decoding functionality for different
// data formats against the canonical request and response shapes.
package codec

import (
	"encoding/json"

	"github.com/plumego/plume/pkg/common"
)

// JSONCodec is a codec that uses JSON for marshaling and unmarshaling.
type JSONCodec[T any, U any] struct{}

// NewJSONCodec creates a new JSONCodec instance for the specified types.
// T represents the request type and U represents the response type.
func NewJSONCodec[T any, U any]() *JSONCodec[T, U] {
	return &JSONCodec[T, U]{}
}

// Decode decodes the request body into a value of type T.
func (c *JSONCodec[T, U]) Decode(req *common.Request) (T, error) {
	var data T

	body, err := req.BodyBytes()
	if err != nil {
		return data, err
	}

	err = json.Unmarshal(body, &data)
	if err != nil {
		return data, err
	}

	return data, nil
}

// Encode encodes a value of type U into the response as JSON with the
// appropriate content type.
func (c *JSONCodec[T, U]) Encode(res *common.Response, resp U) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	res.Header().Set("Content-Type", "application/json")
	return res.SetBody(body)
}
