package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"admin-rpc/codec"
	"admin-rpc/logging"
	"admin-rpc/message"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inbound struct {
	kind int
	data []byte
}

// fakeConn replays scripted inbound messages and records what the bridge does.
type fakeConn struct {
	mu         sync.Mutex
	writeErr   error
	controlErr error
	inbound    []inbound
	readErr    error
	written    [][]byte
	closeCodes []int
	reads      int

	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		readErr: &websocket.CloseError{Code: websocket.CloseNormalClosure},
		closed:  make(chan struct{}),
	}
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if len(f.inbound) == 0 {
		return 0, nil, f.readErr
	}
	next := f.inbound[0]
	f.inbound = f.inbound[1:]
	return next.kind, next.data, nil
}

func (f *fakeConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if messageType == websocket.CloseMessage && len(data) >= 2 {
		f.closeCodes = append(f.closeCodes, int(binary.BigEndian.Uint16(data)))
	}
	return f.controlErr
}

func (f *fakeConn) SetReadDeadline(time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) waitClosed(t *testing.T) {
	t.Helper()
	select {
	case <-f.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("connection was never closed")
	}
}

func dialTo(conn Conn) DialFunc {
	return func(context.Context, string) (Conn, error) {
		return conn, nil
	}
}

// countingDecoder wraps codec.DecodeResponse and counts invocations.
func countingDecoder(n *atomic.Int32) func(int, []byte) (any, error) {
	return func(messageType int, frame []byte) (any, error) {
		n.Add(1)
		return codec.DecodeResponse(messageType, frame)
	}
}

func responseFrame(t *testing.T, payload any) []byte {
	t.Helper()
	frame, err := codec.EncodeResponse(payload)
	require.NoError(t, err)
	return frame
}

func newCall(frame []byte) *message.Call {
	return &message.Call{CallID: "c1", PlayerID: "p1", Address: "ws://localhost:1", Frame: frame}
}

func TestBridgeReturnsFirstResponse(t *testing.T) {
	conn := newFakeConn()
	conn.inbound = []inbound{{websocket.BinaryMessage, responseFrame(t, map[string]any{"result": int64(42)})}}

	var decodes atomic.Int32
	b := NewBridge(dialTo(conn), logging.NewNop())
	b.decode = countingDecoder(&decodes)

	request := codec.EncodeRequest(map[string]any{"method": "ping"})
	got, err := b.Call(context.Background(), newCall(request))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"result": int64(42)}, got)

	conn.waitClosed(t)
	conn.mu.Lock()
	defer conn.mu.Unlock()
	assert.Equal(t, [][]byte{request}, conn.written)
	assert.Equal(t, []int{websocket.CloseNormalClosure}, conn.closeCodes)
	assert.Equal(t, int32(1), decodes.Load())
}

func TestBridgeIgnoresSecondMessage(t *testing.T) {
	conn := newFakeConn()
	conn.inbound = []inbound{
		{websocket.BinaryMessage, responseFrame(t, "first")},
		{websocket.BinaryMessage, responseFrame(t, "second")},
	}

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	var decodes atomic.Int32
	b := NewBridge(dialTo(conn), logrus.NewEntry(logger))
	b.decode = countingDecoder(&decodes)

	got, err := b.Call(context.Background(), newCall(codec.EncodeRequest("q")))
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	conn.waitClosed(t)
	assert.Equal(t, int32(1), decodes.Load())

	var ignored int
	for _, e := range hook.AllEntries() {
		if e.Message == "ignoring admin interface message received after the call resolved" {
			ignored++
		}
	}
	assert.Equal(t, 1, ignored)
}

func TestBridgeSendFailureSkipsDecode(t *testing.T) {
	conn := newFakeConn()
	conn.writeErr = errors.New("broken pipe")
	conn.controlErr = errors.New("use of closed network connection")
	conn.inbound = []inbound{{websocket.BinaryMessage, responseFrame(t, "never read")}}

	logger, hook := logtest.NewNullLogger()

	var decodes atomic.Int32
	b := NewBridge(dialTo(conn), logrus.NewEntry(logger))
	b.decode = countingDecoder(&decodes)

	_, err := b.Call(context.Background(), newCall(codec.EncodeRequest("q")))
	require.ErrorIs(t, err, ErrSend)
	assert.Contains(t, err.Error(), "broken pipe")

	conn.waitClosed(t)
	assert.Equal(t, int32(0), decodes.Load())

	conn.mu.Lock()
	assert.Equal(t, 0, conn.reads)
	assert.Equal(t, []int{websocket.CloseInternalServerErr}, conn.closeCodes)
	conn.mu.Unlock()

	// The failed close is logged, never returned
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestBridgeConnectFailure(t *testing.T) {
	dial := func(context.Context, string) (Conn, error) {
		return nil, errors.New("connection refused")
	}
	b := NewBridge(dial, logging.NewNop())

	_, err := b.Call(context.Background(), newCall(codec.EncodeRequest("q")))
	require.ErrorIs(t, err, ErrConnect)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestBridgeDecodeFailureIsTheOutcome(t *testing.T) {
	conn := newFakeConn()
	conn.inbound = []inbound{{websocket.TextMessage, []byte(`{"result":42}`)}}

	b := NewBridge(dialTo(conn), logging.NewNop())
	_, err := b.Call(context.Background(), newCall(codec.EncodeRequest("q")))
	require.ErrorIs(t, err, codec.ErrUnexpectedFrameKind)

	conn.waitClosed(t)
	conn.mu.Lock()
	defer conn.mu.Unlock()
	assert.Equal(t, []int{websocket.CloseNormalClosure}, conn.closeCodes)
}

func TestBridgePeerClosesBeforeResponding(t *testing.T) {
	conn := newFakeConn()
	conn.readErr = io.ErrUnexpectedEOF

	b := NewBridge(dialTo(conn), logging.NewNop())
	_, err := b.Call(context.Background(), newCall(codec.EncodeRequest("q")))
	require.ErrorIs(t, err, ErrClosedBeforeResponse)
	assert.Contains(t, err.Error(), io.ErrUnexpectedEOF.Error())
}

func TestBridgeConcurrentCallsAreIndependent(t *testing.T) {
	frame := responseFrame(t, "ok")
	b := NewBridge(func(context.Context, string) (Conn, error) {
		conn := newFakeConn()
		conn.inbound = []inbound{{websocket.BinaryMessage, frame}}
		return conn, nil
	}, logging.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := b.Call(context.Background(), newCall(codec.EncodeRequest(i)))
			if err != nil {
				t.Errorf("call failed: %v", err)
				return
			}
			if got != "ok" {
				t.Errorf("expect ok, got %v", got)
			}
		}()
	}
	wg.Wait()
}
