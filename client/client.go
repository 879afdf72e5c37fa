// Package client is the public entry point for invoking one administrative
// operation on a conductor and waiting for its answer.
//
// Whatever goes wrong (dialing, sending, decoding, rate limiting, registry
// lookup) the caller receives a single *InternalError whose message names the
// failed step. No error codes are exposed.
package client

import (
	"context"
	"errors"
	"fmt"

	"admin-rpc/codec"
	"admin-rpc/message"
	"admin-rpc/middleware"
	"admin-rpc/protocol"
	"admin-rpc/registry"
	"admin-rpc/transport"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// InternalError is the only error kind RemoteCall returns. It deliberately
// does not unwrap; consumers needing finer detail must read Message.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Message
}

type Client struct {
	host     string            // Host part of every conductor address
	bridge   *transport.Bridge // One connection per call
	handler  middleware.HandlerFunc
	registry registry.Registry // nil if players are only addressed by port
	log      *logrus.Entry
}

// NewClient builds a client whose calls run through the given middlewares,
// outermost first. reg may be nil.
func NewClient(host string, bridge *transport.Bridge, reg registry.Registry, log *logrus.Entry, middlewares ...middleware.Middleware) *Client {
	c := &Client{
		host:     host,
		bridge:   bridge,
		registry: reg,
		log:      log,
	}
	c.handler = middleware.Chain(middlewares...)(c.send)
	return c
}

// RemoteCall sends payload to the conductor admin socket on port and returns
// its response payload. playerID only labels diagnostics.
func (c *Client) RemoteCall(ctx context.Context, port int, playerID string, payload any) (any, error) {
	return c.call(ctx, c.host, port, playerID, payload)
}

// CallPlayer looks the player's admin endpoint up in the registry, then calls it.
func (c *Client) CallPlayer(ctx context.Context, playerID string, payload any) (any, error) {
	if c.registry == nil {
		return nil, &InternalError{Message: "no player registry configured"}
	}
	instance, err := c.registry.Lookup(ctx, playerID)
	if err != nil {
		return nil, &InternalError{Message: fmt.Sprintf("failed to look up player admin interface: %v", err)}
	}
	host := instance.Host
	if host == "" {
		host = c.host
	}
	return c.call(ctx, host, instance.AdminPort, playerID, payload)
}

func (c *Client) call(ctx context.Context, host string, port int, playerID string, payload any) (any, error) {
	call := &message.Call{
		CallID:   uuid.NewString(),
		PlayerID: playerID,
		Address:  protocol.URL(host, port),
		Frame:    codec.EncodeRequest(payload),
	}
	c.log.WithFields(logrus.Fields{
		"player_id": playerID,
		"call_id":   call.CallID,
		"address":   call.Address,
	}).Debug("calling player admin interface")

	out := c.handler(ctx, call)
	if out.Failed() {
		return nil, flatten(out.Err)
	}
	return out.Payload, nil
}

// send is the innermost handler of the chain.
func (c *Client) send(ctx context.Context, call *message.Call) message.Outcome {
	payload, err := c.bridge.Call(ctx, call)
	if err != nil {
		return message.Fail(err)
	}
	return message.Ok(payload)
}

func flatten(err error) *InternalError {
	if isDecodeError(err) {
		return &InternalError{Message: "failed to parse admin response: " + err.Error()}
	}
	return &InternalError{Message: err.Error()}
}

func isDecodeError(err error) bool {
	return errors.Is(err, codec.ErrUnexpectedFrameKind) ||
		errors.Is(err, codec.ErrEnvelopeDecode) ||
		errors.Is(err, codec.ErrUnexpectedVariant) ||
		errors.Is(err, codec.ErrPayloadDecode)
}
