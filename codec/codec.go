// Package codec converts payloads to and from bytes and wraps them in the
// admin interface envelope.
//
// Two layers are involved on every frame: the payload (a structured value such
// as map[string]any) is encoded on its own, and the resulting bytes become the
// "data" field of a protocol.Envelope which is encoded again. Both layers use
// MessagePack with named fields. JSONCodec only exists for the human-facing
// side (CLI input and output).
package codec

type CodecType byte

const (
	CodecTypeJSON    CodecType = 0
	CodecTypeMsgpack CodecType = 1
)

type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Type() CodecType // 0=JSON, 1=MessagePack
}

func GetCodec(codecType CodecType) Codec {
	if codecType == CodecTypeJSON {
		return &JSONCodec{}
	}

	return &MsgpackCodec{}
}
