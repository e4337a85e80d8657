package network

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"captureflag/pkg/log"
	"captureflag/pkg/messages"

	"github.com/gorilla/websocket"
)

// WSTransport is the live transport over a WebSocket connection. It shares
// the codec with the TCP transport; each WebSocket binary frame carries one
// compressed envelope, so no length prefix is needed.
type WSTransport struct {
	mu               sync.Mutex
	listener         Listener
	conn             *websocket.Conn
	connected        bool
	reported         bool
	lastReport       bool
	idle             bool
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	backoff          BackoffConfig
	pingInterval     time.Duration
	idlePingInterval time.Duration
	rng              *rand.Rand
}

// NewWSTransport creates a new WebSocket transport.
func NewWSTransport() *WSTransport {
	return &WSTransport{
		backoff:          DefaultBackoff,
		pingInterval:     defaultPingInterval,
		idlePingInterval: defaultIdlePingInterval,
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetListener registers the listener for inbound responses and connection
// transitions. Pass nil to stop deliveries. Registration clears the report
// memory so the next state evaluation reaches the new listener even when the
// state itself has not changed since the last report.
func (t *WSTransport) SetListener(l Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listener = l
	t.reported = false
}

// Connect starts connecting to the server. It returns immediately; the
// outcome is reported through the listener.
func (t *WSTransport) Connect(host string, port int) error {
	t.mu.Lock()
	if t.cancel != nil {
		t.mu.Unlock()
		log.Warn("WebSocket transport is already connecting")
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.mu.Unlock()

	u := url.URL{Scheme: "ws", Host: fmt.Sprintf("%s:%d", host, port), Path: "/"}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.run(ctx, u.String())
	}()
	return nil
}

func (t *WSTransport) run(ctx context.Context, addr string) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}
		attempt++
		log.Debug("Connecting to WebSocket server at %s", addr)
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
		if err != nil {
			log.Warn("Failed to connect to WebSocket server at %s: %v", addr, err)
			t.setConnected(ctx, nil, false)
			select {
			case <-ctx.Done():
				return
			case <-time.After(t.backoff.Delay(attempt, t.rng)):
				continue
			}
		}

		log.Info("Connected to WebSocket server at %s", addr)
		attempt = 0
		t.setConnected(ctx, conn, true)

		connCtx, connCancel := context.WithCancel(ctx)
		go t.keepAlive(connCtx)
		err = t.readLoop(ctx, conn)
		connCancel()
		t.setConnected(ctx, nil, false)

		if ctx.Err() != nil {
			return
		}
		log.Warn("WebSocket connection lost: %v", err)
	}
}

func (t *WSTransport) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return &ErrConnectionClosedByClient{}
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return &ErrConnectionClosedByServer{}
			}
			return fmt.Errorf("failed to read message: %v", err)
		}

		envelope, err := messages.Decompress(data)
		if err != nil {
			log.Warn("Failed to decompress message: %v", err)
			t.deliver(ctx, &messages.Corrupted{Reason: err.Error()})
			continue
		}

		resp := messages.DecodeResponse(envelope)
		switch r := resp.(type) {
		case *messages.Pong:
			log.Trace("Received server pong")
			continue
		case *messages.Corrupted:
			log.Warn("Received corrupted message: %s", r.Reason)
		}
		t.deliver(ctx, resp)
	}
}

func (t *WSTransport) deliver(ctx context.Context, resp messages.Response) {
	t.mu.Lock()
	listener := t.listener
	t.mu.Unlock()
	if listener == nil || ctx.Err() != nil {
		return
	}
	listener.OnResponse(resp)
}

func (t *WSTransport) setConnected(ctx context.Context, conn *websocket.Conn, connected bool) {
	t.mu.Lock()
	t.conn = conn
	t.connected = connected
	changed := !t.reported || t.lastReport != connected
	t.reported = true
	t.lastReport = connected
	listener := t.listener
	t.mu.Unlock()

	if !changed || listener == nil || ctx.Err() != nil {
		return
	}
	listener.OnConnectionStateChange(connected)
}

func (t *WSTransport) keepAlive(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(t.currentPingInterval()):
			if err := t.Send(messages.Ping{}); err != nil {
				log.Trace("Failed to send keep-alive ping: %v", err)
			}
		}
	}
}

func (t *WSTransport) currentPingInterval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.idle {
		return t.idlePingInterval
	}
	return t.pingInterval
}

// IsConnected reports whether a live connection is currently established.
func (t *WSTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// SetIdle relaxes or restores the keep-alive cadence while the app is
// backgrounded.
func (t *WSTransport) SetIdle(idle bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.idle = idle
	log.Debug("WebSocket transport idle: %t", idle)
}

// Send writes a request to the server. Writes are serialized under the
// transport lock since the WebSocket connection does not allow concurrent
// writers.
func (t *WSTransport) Send(req messages.Request) error {
	b, err := messages.EncodeRequest(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %v", err)
	}
	compressed, err := messages.Compress(b)
	if err != nil {
		return fmt.Errorf("failed to compress request: %v", err)
	}

	t.mu.Lock()
	conn := t.conn
	if !t.connected || conn == nil {
		t.mu.Unlock()
		return ErrNotConnected
	}
	err = conn.WriteMessage(websocket.BinaryMessage, compressed)
	t.mu.Unlock()

	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to write request: %v", err)
	}
	return nil
}

// Disconnect tears down the connection and stops reconnect attempts. No
// listener callbacks are delivered after Disconnect returns.
func (t *WSTransport) Disconnect() error {
	t.mu.Lock()
	cancel := t.cancel
	conn := t.conn
	t.cancel = nil
	t.conn = nil
	t.connected = false
	t.reported = false
	t.mu.Unlock()

	if cancel == nil {
		log.Warn("WebSocket transport is already disconnected")
		return nil
	}
	cancel()
	if conn != nil {
		conn.Close()
	}
	t.wg.Wait()
	return nil
}
