package codec

import (
	"reflect"

	"google.golang.org/protobuf/proto"

	"github.com/plumego/plume/pkg/common"
)

// ProtoCodec is a codec that uses Protocol Buffers for marshaling and
// unmarshaling. T and U must be pointer message types.
type ProtoCodec[T proto.Message, U proto.Message] struct{}

// NewProtoCodec creates a new ProtoCodec instance for the specified
// message types.
func NewProtoCodec[T proto.Message, U proto.Message]() *ProtoCodec[T, U] {
	return &ProtoCodec[T, U]{}
}

// Decode decodes the request body into a freshly allocated message of
// type T.
func (c *ProtoCodec[T, U]) Decode(req *common.Request) (T, error) {
	var zero T

	// T is a pointer message type; allocate the element it points to.
	msg := reflect.New(reflect.TypeOf(zero).Elem()).Interface().(T)

	body, err := req.BodyBytes()
	if err != nil {
		return zero, err
	}

	if err := proto.Unmarshal(body, msg); err != nil {
		return zero, err
	}

	return msg, nil
}

// Encode encodes a message of type U into the response in Protocol
// Buffers wire format with the appropriate content type.
func (c *ProtoCodec[T, U]) Encode(res *common.Response, resp U) error {
	body, err := proto.Marshal(resp)
	if err != nil {
		return err
	}

	res.Header().Set("Content-Type", "application/x-protobuf")
	return res.SetBody(body)
}
