// Package protocol defines the admin interface wire envelope shared by the
// conductor and the controlling process.
//
// WebSocket already delimits frames, so unlike a raw TCP protocol there is no
// header to parse. Each binary frame carries exactly one Envelope, encoded as a
// MessagePack map (named fields, never positional arrays):
//
//	┌────────┬──────────────────────────┬─────────────────────────────────┐
//	│ "type" │ "Request" | "Response"   │ discriminant                    │
//	│ "id"   │ str                      │ always "" on emission, unchecked│
//	│ "data" │ bin                      │ nested MessagePack payload      │
//	└────────┴──────────────────────────┴─────────────────────────────────┘
package protocol

import (
	"fmt"
	"net"
	"strconv"
)

// Kind is the envelope discriminant.
type Kind string

const (
	KindRequest  Kind = "Request"  // Controller → Conductor
	KindResponse Kind = "Response" // Conductor → Controller
)

// Valid reports whether k is one of the two known variants.
func (k Kind) Valid() bool {
	return k == KindRequest || k == KindResponse
}

// Envelope is the outer tagged structure of every admin frame.
//
// ID carries no correlation: a connection holds one request and one response,
// so the first response received is the answer.
type Envelope struct {
	Type Kind   `msgpack:"type"`
	ID   string `msgpack:"id"`
	Data []byte `msgpack:"data"`
}

// NewRequest wraps an already encoded payload in a Request envelope.
func NewRequest(data []byte) *Envelope {
	return &Envelope{Type: KindRequest, Data: data}
}

// NewResponse wraps an already encoded payload in a Response envelope.
func NewResponse(data []byte) *Envelope {
	return &Envelope{Type: KindResponse, Data: data}
}

// Scheme is the URL scheme of the admin socket. TLS is not spoken by conductors.
const Scheme = "ws"

// URL returns the admin socket address of a conductor, e.g. "ws://localhost:9000".
func URL(host string, port int) string {
	return fmt.Sprintf("%s://%s", Scheme, net.JoinHostPort(host, strconv.Itoa(port)))
}
