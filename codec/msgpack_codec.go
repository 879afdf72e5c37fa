package codec

import (
	"bytes"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

// MsgpackCodec is the payload wire format spoken by conductors.
//
// Structs are always written as maps keyed by field name; `json` tags are
// honoured so the same request types serve both codecs. Integers are written in
// their smallest form.
//
// Decoding into *any uses loose rules and then folds unsigned integers back:
// every integer that fits in int64 comes back as int64 whatever width it was
// written with, only unsigned values above math.MaxInt64 stay uint64. Floats
// come back as float64, maps as map[string]any and arrays as []any.
type MsgpackCodec struct{}

func (c *MsgpackCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *MsgpackCodec) Decode(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	dec.UseLooseInterfaceDecoding(true)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if p, ok := v.(*any); ok {
		*p = normalizeInts(*p)
	}
	return nil
}

func (c *MsgpackCodec) Type() CodecType {
	return CodecTypeMsgpack
}

// normalizeInts turns uint64 leaves that fit in int64 into int64. Compact
// encoding writes 200 as uint8, which loose decoding reports as uint64.
func normalizeInts(v any) any {
	switch val := v.(type) {
	case uint64:
		if val <= math.MaxInt64 {
			return int64(val)
		}
		return val
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeInts(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeInts(item)
		}
		return val
	default:
		return v
	}
}
