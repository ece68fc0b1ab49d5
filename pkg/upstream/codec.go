package upstream

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const jsonCodecName = "chronicle-json"

// jsonCodec lets the upstream client speak gRPC's framing (HTTP/2,
// flow control, streaming) without generated protobuf stubs: there is no
// .proto in this pack for the INX contract, so request/response values
// are plain Go structs and grpc-go is told to marshal them with
// encoding/json instead of protobuf. Registered once via init.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return jsonCodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
