// Package server implements the conductor side of the admin socket: a small
// stand-in used by tests and by `adminctl serve` for local experiments.
//
// Request processing pipeline:
//
//	HTTP upgrade → handleConn (single goroutine reads frames)
//	  → for each frame: go handleRequest (parallel processing)
//	    → codec.DecodeRequest → dispatch on "method" → codec.EncodeResponse → write
//
// The method name is read from the payload's "method" key, or "type" when
// "method" is absent. The whole payload map is passed to the handler.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"admin-rpc/codec"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// HandlerFunc answers one admin request.
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// Server is the admin socket of a stub conductor.
type Server struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc // "ping" → handler
	upgrader websocket.Upgrader
	http     *http.Server
	listener net.Listener
	wg       sync.WaitGroup // In-flight requests, for graceful shutdown
	shutdown atomic.Bool    // Suppresses the Serve error caused by Shutdown
	log      *logrus.Entry

	// Upgraded connections are hijacked, so http.Server no longer sees them.
	// closing is set under connMu; no request or connection is added after it.
	connMu  sync.Mutex
	conns   map[*websocket.Conn]struct{}
	connWg  sync.WaitGroup
	closing bool
}

// NewServer creates a server with no methods.
func NewServer(log *logrus.Entry) *Server {
	s := &Server{
		handlers: make(map[string]HandlerFunc),
		conns:    make(map[*websocket.Conn]struct{}),
		log:      log,
		upgrader: websocket.Upgrader{
			// Admin sockets are reached by local tooling, not browsers
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.http = &http.Server{Handler: s}
	return s
}

// Handle registers fn under method, replacing any previous handler.
func (s *Server) Handle(method string, fn HandlerFunc) {
	s.mu.Lock()
	s.handlers[method] = fn
	s.mu.Unlock()
}

// Register exposes every method of rcvr shaped func(map[string]any) (any, error).
func (s *Server) Register(rcvr any) error {
	svc, err := NewService(rcvr)
	if err != nil {
		return err
	}
	for name, mt := range svc.method {
		mt := mt
		s.Handle(name, func(ctx context.Context, args map[string]any) (any, error) {
			return svc.Call(mt, args)
		})
	}
	return nil
}

// Methods lists registered method names in order.
func (s *Server) Methods() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListenAndServe listens on addr ("127.0.0.1:9000", ":0", ...) and serves until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve accepts admin connections on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	s.log.WithField("addr", l.Addr().String()).Info("admin interface listening")
	err := s.http.Serve(l)
	if s.shutdown.Load() && errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Addr returns the listening address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ServeHTTP upgrades the request and runs the connection's read loop.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("admin interface upgrade failed")
		return
	}
	if !s.trackConn(conn) {
		conn.Close()
		return
	}
	defer s.untrackConn(conn)
	s.handleConn(conn)
}

func (s *Server) trackConn(conn *websocket.Conn) bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.closing {
		return false
	}
	s.conns[conn] = struct{}{}
	s.connWg.Add(1)
	return true
}

func (s *Server) untrackConn(conn *websocket.Conn) {
	s.connMu.Lock()
	delete(s.conns, conn)
	s.connMu.Unlock()
	s.connWg.Done()
}

// beginRequest counts a request in, unless Shutdown already started waiting.
func (s *Server) beginRequest() bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.closing {
		return false
	}
	s.wg.Add(1)
	return true
}

// handleConn reads frames sequentially and answers each in its own goroutine.
// writeMu serialises the responses of one connection.
func (s *Server) handleConn(conn *websocket.Conn) {
	defer conn.Close()
	log := s.log.WithField("remote", conn.RemoteAddr().String())
	writeMu := &sync.Mutex{}
	for {
		messageType, frame, err := conn.ReadMessage()
		if err != nil {
			log.WithError(err).Debug("admin connection closed")
			return
		}
		if !s.beginRequest() {
			log.Debug("dropping admin request received during shutdown")
			return
		}
		go s.handleRequest(conn, writeMu, log, messageType, frame)
	}
}

func (s *Server) handleRequest(conn *websocket.Conn, writeMu *sync.Mutex, log *logrus.Entry, messageType int, frame []byte) {
	defer s.wg.Done()

	payload, err := codec.DecodeRequest(messageType, frame)
	if err != nil {
		log.WithError(err).Warn("dropping undecodable admin request")
		return
	}

	result := s.dispatch(context.Background(), payload)
	resp, err := codec.EncodeResponse(result)
	if err != nil {
		log.WithError(err).Error("failed to encode admin response")
		return
	}

	writeMu.Lock()
	defer writeMu.Unlock()
	if err := conn.WriteMessage(websocket.BinaryMessage, resp); err != nil {
		log.WithError(err).Warn("failed to write admin response")
	}
}

// dispatch runs the handler named by the payload. Failures become {"error": "..."}.
func (s *Server) dispatch(ctx context.Context, payload any) any {
	args, ok := payload.(map[string]any)
	if !ok {
		return errorResult(fmt.Errorf("request must be a map, got %T", payload))
	}
	method, _ := args["method"].(string)
	if method == "" {
		method, _ = args["type"].(string)
	}

	s.mu.RLock()
	fn, ok := s.handlers[method]
	s.mu.RUnlock()
	if !ok {
		return errorResult(fmt.Errorf("unknown method %q", method))
	}

	result, err := fn(ctx, args)
	if err != nil {
		return errorResult(err)
	}
	return result
}

func errorResult(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}

// Shutdown stops accepting connections, waits for in-flight requests, then
// closes every open admin connection with status 1001.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.shutdown.Store(true)
	s.connMu.Lock()
	s.closing = true
	s.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		return err
	}

	if err := waitGroup(ctx, &s.wg); err != nil {
		s.closeConns()
		return fmt.Errorf("timeout waiting for ongoing requests to finish")
	}

	s.closeConns()
	if err := waitGroup(ctx, &s.connWg); err != nil {
		return fmt.Errorf("timeout waiting for admin connections to close")
	}
	return nil
}

func (s *Server) closeConns() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	for conn := range s.conns {
		if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
			s.log.WithError(err).Debug("failed to send close frame")
		}
		conn.Close()
	}
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
