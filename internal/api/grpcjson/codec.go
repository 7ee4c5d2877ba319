// Package grpcjson carries gRPC messages as JSON. Services registered with
// hand-written descriptors exchange plain Go structs, and clients select the
// codec with grpc.CallContentSubtype(Name).
package grpcjson

import (
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const Name = "json"

type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (codec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (codec) Name() string {
	return Name
}

func init() {
	encoding.RegisterCodec(codec{})
}

// CallOption selects the JSON codec for a client connection.
func CallOption() grpc.DialOption {
	return grpc.WithDefaultCallOptions(grpc.CallContentSubtype(Name))
}
