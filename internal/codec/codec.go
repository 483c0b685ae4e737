package codec

import "encoding/json"

// Codec turns values into wire payloads and back.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// ContentType is sent alongside the payload so consumers can pick a decoder.
	ContentType() string
}

type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)   { return json.Marshal(v) }
func (JSONCodec) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }
func (JSONCodec) ContentType() string             { return "application/json" }

var _ Codec = JSONCodec{}
