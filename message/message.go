// Package message defines the values that travel through the client-side
// middleware chain around a single admin call.
//
// A Call describes what is about to be sent; an Outcome is the one and only
// result the call produces.
package message

// Call carries the data for a single admin request.
//
//   - Address is the conductor admin socket, e.g. "ws://localhost:9000".
//   - PlayerID only labels log lines; it never influences routing.
//   - Frame is the already encoded Request envelope.
type Call struct {
	CallID   string // Random per call, for log correlation only
	PlayerID string
	Address  string
	Frame    []byte
}

// Outcome is the terminal result of a Call: either Payload or Err is meaningful.
type Outcome struct {
	Payload any
	Err     error
}

// Ok wraps a successful result.
func Ok(payload any) Outcome {
	return Outcome{Payload: payload}
}

// Fail wraps a failure.
func Fail(err error) Outcome {
	return Outcome{Err: err}
}

// Failed reports whether the outcome carries an error.
func (o Outcome) Failed() bool {
	return o.Err != nil
}
