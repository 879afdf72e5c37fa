// Package transport turns the event-driven WebSocket client into a blocking
// admin call.
//
// Every call owns one connection and one pending slot. The caller blocks on the
// slot while a per-call goroutine (the event loop) drives the connection:
//
//	caller ──Call()──► dial ──fail──► ErrConnect (returned directly, no slot)
//	                     │
//	                     ▼ connected
//	  event loop:  send frame ──fail──► slot ← ErrSend, close(1011)
//	                     │
//	                     ▼
//	               read loop: 1st message ──► slot ← decode(frame), close(1000)
//	                          later messages ──► discarded
//	                          closed early   ──► slot ← ErrClosedBeforeResponse
//
//	caller ◄── <-slot (exactly one value)
//
// There is no response timeout: a peer that keeps the socket open and never
// answers blocks the caller.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"admin-rpc/codec"
	"admin-rpc/message"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var (
	ErrConnect              = errors.New("failed to connect to player admin interface")
	ErrSend                 = errors.New("failed to send message to player admin interface")
	ErrClosedBeforeResponse = errors.New("player admin interface closed before responding")
)

const (
	// CloseGracePeriod bounds how long the event loop waits for the peer's
	// close frame after the call resolved. It never affects the outcome.
	CloseGracePeriod = 2 * time.Second
	closeWriteWait   = time.Second
)

// Conn is the part of *websocket.Conn the bridge drives.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	Close() error
}

// DialFunc opens the admin socket at address. ctx bounds the handshake only.
type DialFunc func(ctx context.Context, address string) (Conn, error)

// WebsocketDialer adapts a gorilla dialer.
func WebsocketDialer(d *websocket.Dialer) DialFunc {
	return func(ctx context.Context, address string) (Conn, error) {
		conn, resp, err := d.DialContext(ctx, address, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// Bridge performs admin calls, one connection per call. It holds no per-call
// state and is safe for concurrent use.
type Bridge struct {
	dial   DialFunc
	log    *logrus.Entry
	decode func(messageType int, frame []byte) (any, error)
}

// NewBridge creates a bridge. A nil dial uses websocket.DefaultDialer.
func NewBridge(dial DialFunc, log *logrus.Entry) *Bridge {
	if dial == nil {
		dial = WebsocketDialer(websocket.DefaultDialer)
	}
	return &Bridge{
		dial:   dial,
		log:    log,
		decode: codec.DecodeResponse,
	}
}

// Call sends req.Frame to req.Address and blocks until exactly one outcome is
// known. Decode failures are returned as the codec's errors.
func (b *Bridge) Call(ctx context.Context, req *message.Call) (any, error) {
	log := b.log.WithFields(logrus.Fields{
		"player_id": req.PlayerID,
		"call_id":   req.CallID,
		"address":   req.Address,
	})

	conn, err := b.dial(ctx, req.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	c := &call{
		conn:    conn,
		log:     log,
		decode:  b.decode,
		pending: make(chan message.Outcome, 1),
	}
	go c.run(req.Frame)

	out := <-c.pending
	return out.Payload, out.Err
}

// call is the state of one connection. Only the event loop goroutine touches
// conn; the caller only reads pending.
type call struct {
	conn     Conn
	log      *logrus.Entry
	decode   func(messageType int, frame []byte) (any, error)
	pending  chan message.Outcome // capacity one, written at most once
	resolved atomic.Bool
}

func (c *call) run(frame []byte) {
	defer c.conn.Close()

	if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		c.resolve(message.Fail(fmt.Errorf("%w: %v", ErrSend, err)))
		c.close(websocket.CloseInternalServerErr)
		return
	}

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			c.onClosed(err)
			return
		}
		c.onMessage(messageType, data)
	}
}

func (c *call) onMessage(messageType int, data []byte) {
	log := c.log.WithFields(logrus.Fields{
		"frame": codec.FrameKindName(messageType),
		"size":  len(data),
	})
	if c.resolved.Load() {
		log.Debug("ignoring admin interface message received after the call resolved")
		return
	}
	log.Debug("received admin interface response")

	payload, err := c.decode(messageType, data)
	c.resolve(message.Outcome{Payload: payload, Err: err})
	c.close(websocket.CloseNormalClosure)

	// Keep reading until the peer acknowledges the close, but not forever
	if err := c.conn.SetReadDeadline(time.Now().Add(CloseGracePeriod)); err != nil {
		c.log.WithError(err).Debug("failed to arm close grace period")
	}
}

func (c *call) onClosed(err error) {
	if c.resolved.Load() {
		c.log.WithError(err).Debug("admin interface connection closed")
		return
	}
	c.resolve(message.Fail(fmt.Errorf("%w: %v", ErrClosedBeforeResponse, err)))
}

// resolve writes the slot once; later outcomes are dropped.
func (c *call) resolve(out message.Outcome) bool {
	if !c.resolved.CompareAndSwap(false, true) {
		return false
	}
	c.pending <- out
	return true
}

func (c *call) close(code int) {
	msg := websocket.FormatCloseMessage(code, "")
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait)); err != nil {
		c.log.WithError(err).Warn("silently ignoring error: failed to close admin interface connection")
	}
}
