package codec

import (
	"errors"
	"fmt"

	"admin-rpc/protocol"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Decode failures, in the order the checks run. Envelope and payload failures
// share their wording but stay distinct for errors.Is.
var (
	ErrUnexpectedFrameKind = errors.New("unexpected response from conductor")
	ErrEnvelopeDecode      = errors.New("failed to parse response from conductor as MessagePack")
	ErrUnexpectedVariant   = errors.New("unexpected message type from conductor")
	ErrPayloadDecode       = errors.New("failed to parse response from conductor as MessagePack")
)

var payloadCodec = &MsgpackCodec{}

// EncodeRequest builds the frame for an outbound admin request.
//
// payload must be MessagePack-encodable; anything else is a caller bug and panics.
func EncodeRequest(payload any) []byte {
	frame, err := encodeEnvelope(protocol.KindRequest, payload)
	if err != nil {
		panic(fmt.Sprintf("codec: admin request cannot be encoded: %v", err))
	}
	return frame
}

// EncodeResponse builds the frame a conductor sends back.
func EncodeResponse(payload any) ([]byte, error) {
	return encodeEnvelope(protocol.KindResponse, payload)
}

// DecodeResponse unwraps a frame received by the controlling side.
// The envelope id is not inspected.
func DecodeResponse(messageType int, frame []byte) (any, error) {
	return decodeEnvelope(messageType, frame, protocol.KindResponse)
}

// DecodeRequest unwraps a frame received by the conductor side.
func DecodeRequest(messageType int, frame []byte) (any, error) {
	return decodeEnvelope(messageType, frame, protocol.KindRequest)
}

func encodeEnvelope(kind protocol.Kind, payload any) ([]byte, error) {
	data, err := payloadCodec.Encode(payload)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(&protocol.Envelope{Type: kind, Data: data})
}

func decodeEnvelope(messageType int, frame []byte, want protocol.Kind) (any, error) {
	// Step 1: only binary frames carry envelopes
	if messageType != websocket.BinaryMessage {
		return nil, fmt.Errorf("%w: %s frame", ErrUnexpectedFrameKind, FrameKindName(messageType))
	}

	// Step 2: outer envelope, including an unknown discriminant
	var env protocol.Envelope
	if err := msgpack.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvelopeDecode, err)
	}
	if !env.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown message type %q", ErrEnvelopeDecode, env.Type)
	}

	// Step 3: variant
	if env.Type != want {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedVariant, env.Type)
	}

	// Step 4: inner payload
	var payload any
	if err := payloadCodec.Decode(env.Data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadDecode, err)
	}
	return payload, nil
}

// FrameKindName names a WebSocket message type for diagnostics.
func FrameKindName(messageType int) string {
	switch messageType {
	case websocket.TextMessage:
		return "text"
	case websocket.BinaryMessage:
		return "binary"
	case websocket.CloseMessage:
		return "close"
	case websocket.PingMessage:
		return "ping"
	case websocket.PongMessage:
		return "pong"
	default:
		return fmt.Sprintf("unknown(%d)", messageType)
	}
}
