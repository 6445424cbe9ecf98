package tsnv1

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype these messages are sent with.
//
// The messages are plain structs, not protobuf messages, so the default
// "proto" codec cannot carry them. Every peer must use the content-type
// "application/grpc+json". NewSNetworkClient sets it on each call; other
// clients pass grpc.CallContentSubtype(CodecName) themselves. The server
// answers in the subtype the request used, so a call without it fails with
// codes.Internal while unmarshalling the request.
const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
