package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"sync"
	"time"

	"captureflag/pkg/log"
	"captureflag/pkg/messages"
)

const (
	defaultDialTimeout      = 10 * time.Second
	defaultPingInterval     = 30 * time.Second
	defaultIdlePingInterval = 5 * time.Minute
)

// TCPTransport is the live transport over a persistent TCP connection.
// It reconnects on its own with exponential backoff and reports
// connection-state transitions through the registered listener.
type TCPTransport struct {
	mu               sync.Mutex
	listener         Listener
	conn             net.Conn
	connected        bool
	reported         bool
	lastReport       bool
	idle             bool
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	backoff          BackoffConfig
	dialTimeout      time.Duration
	pingInterval     time.Duration
	idlePingInterval time.Duration
	rng              *rand.Rand
}

// NewTCPTransport creates a new TCP transport.
func NewTCPTransport() *TCPTransport {
	return &TCPTransport{
		backoff:          DefaultBackoff,
		dialTimeout:      defaultDialTimeout,
		pingInterval:     defaultPingInterval,
		idlePingInterval: defaultIdlePingInterval,
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetListener registers the listener for inbound responses and connection
// transitions. Pass nil to stop deliveries. Registration clears the report
// memory so the next state evaluation reaches the new listener even when the
// state itself has not changed since the last report.
func (t *TCPTransport) SetListener(l Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listener = l
	t.reported = false
}

// Connect starts connecting to the server. It returns immediately; the
// outcome is reported through the listener.
func (t *TCPTransport) Connect(host string, port int) error {
	t.mu.Lock()
	if t.cancel != nil {
		t.mu.Unlock()
		log.Warn("TCP transport is already connecting")
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.mu.Unlock()

	addr := fmt.Sprintf("%s:%d", host, port)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.run(ctx, addr)
	}()
	return nil
}

func (t *TCPTransport) run(ctx context.Context, addr string) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}
		attempt++
		log.Debug("Connecting to TCP server at %s", addr)
		conn, err := net.DialTimeout("tcp", addr, t.dialTimeout)
		if err != nil {
			log.Warn("Failed to connect to TCP server at %s: %v", addr, err)
			t.setConnected(ctx, nil, false)
			select {
			case <-ctx.Done():
				return
			case <-time.After(t.backoff.Delay(attempt, t.rng)):
				continue
			}
		}

		log.Info("Connected to TCP server at %s", addr)
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
		log.Warn("TCP connection lost: %v", err)
	}
}

func (t *TCPTransport) readLoop(ctx context.Context, conn net.Conn) error {
	for {
		b, err := messages.ReadFrame(conn)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return &ErrConnectionClosedByClient{}
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return &ErrConnectionClosedByServer{}
			}
			return fmt.Errorf("failed to read frame: %v", err)
		}

		resp := messages.DecodeResponse(b)
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

func (t *TCPTransport) deliver(ctx context.Context, resp messages.Response) {
	t.mu.Lock()
	listener := t.listener
	t.mu.Unlock()
	if listener == nil || ctx.Err() != nil {
		return
	}
	listener.OnResponse(resp)
}

func (t *TCPTransport) setConnected(ctx context.Context, conn net.Conn, connected bool) {
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

func (t *TCPTransport) keepAlive(ctx context.Context) {
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

func (t *TCPTransport) currentPingInterval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.idle {
		return t.idlePingInterval
	}
	return t.pingInterval
}

// IsConnected reports whether a live connection is currently established.
func (t *TCPTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// SetIdle relaxes or restores the keep-alive cadence while the app is
// backgrounded. The connection itself stays up.
func (t *TCPTransport) SetIdle(idle bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.idle = idle
	log.Debug("TCP transport idle: %t", idle)
}

// Send writes a request to the server. An error means the request never left
// the client; a write failure also tears down the connection so the read
// loop reconnects.
func (t *TCPTransport) Send(req messages.Request) error {
	b, err := messages.EncodeRequest(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %v", err)
	}

	t.mu.Lock()
	conn := t.conn
	if !t.connected || conn == nil {
		t.mu.Unlock()
		return ErrNotConnected
	}
	err = messages.WriteFrame(conn, b)
	t.mu.Unlock()

	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to write request: %v", err)
	}
	return nil
}

// Disconnect tears down the connection and stops reconnect attempts. No
// listener callbacks are delivered after Disconnect returns.
func (t *TCPTransport) Disconnect() error {
	t.mu.Lock()
	cancel := t.cancel
	conn := t.conn
	t.cancel = nil
	t.conn = nil
	t.connected = false
	t.reported = false
	t.mu.Unlock()

	if cancel == nil {
		log.Warn("TCP transport is already disconnected")
		return nil
	}
	cancel()
	if conn != nil {
		conn.Close()
	}
	t.wg.Wait()
	return nil
}
