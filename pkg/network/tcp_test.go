package network

import (
	"encoding/json"
	"net"
	"strconv"
	"testing"
	"time"

	"captureflag/pkg/game/types"
	"captureflag/pkg/messages"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackoff() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     50 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func startTestServer(t *testing.T) (net.Listener, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	return ln, ln.Addr().(*net.TCPAddr).Port
}

func writeResponse(t *testing.T, conn net.Conn, msgType messages.MessageType, payload interface{}) {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	envelope, err := json.Marshal(&messages.Message{Type: msgType, Payload: b})
	require.NoError(t, err)
	require.NoError(t, messages.WriteFrame(conn, envelope))
}

func TestTCPTransportConnectAndExchange(t *testing.T) {
	ln, port := startTestServer(t)

	transport := NewTCPTransport()
	transport.backoff = fastBackoff()
	listener := newRecordingListener()
	transport.SetListener(listener)

	assert.ErrorIs(t, transport.Send(messages.ListGames{}), ErrNotConnected)

	require.NoError(t, transport.Connect("127.0.0.1", port))
	serverConn, err := ln.Accept()
	require.NoError(t, err)
	defer serverConn.Close()

	assert.True(t, listener.nextConnState(t))

	require.NoError(t, transport.Send(messages.JoinGame{GameID: "G1", PlayerName: "Alice"}))
	envelope, err := messages.ReadFrame(serverConn)
	require.NoError(t, err)
	msg := &messages.Message{}
	require.NoError(t, json.Unmarshal(envelope, msg))
	assert.Equal(t, messages.MessageTypeJoinGame, msg.Type)

	writeResponse(t, serverConn, messages.MessageTypeJoined, &messages.Joined{
		Game:   &types.Game{ID: "G1"},
		Player: &types.Player{ID: "P1", Name: "Alice"},
	})
	joined, ok := listener.nextResponse(t).(*messages.Joined)
	require.True(t, ok, "expected *Joined")
	assert.Equal(t, "G1", joined.Game.ID)

	require.NoError(t, transport.Disconnect())
	assert.False(t, transport.IsConnected())
}

func TestTCPTransportForwardsCorrupted(t *testing.T) {
	ln, port := startTestServer(t)

	transport := NewTCPTransport()
	transport.backoff = fastBackoff()
	listener := newRecordingListener()
	transport.SetListener(listener)

	require.NoError(t, transport.Connect("127.0.0.1", port))
	serverConn, err := ln.Accept()
	require.NoError(t, err)
	defer serverConn.Close()
	listener.nextConnState(t)

	require.NoError(t, messages.WriteFrame(serverConn, []byte("not a valid envelope")))
	_, ok := listener.nextResponse(t).(*messages.Corrupted)
	assert.True(t, ok, "expected *Corrupted")

	require.NoError(t, transport.Disconnect())
}

func TestTCPTransportReconnectsAfterDrop(t *testing.T) {
	ln, port := startTestServer(t)

	transport := NewTCPTransport()
	transport.backoff = fastBackoff()
	listener := newRecordingListener()
	transport.SetListener(listener)

	require.NoError(t, transport.Connect("127.0.0.1", port))
	serverConn, err := ln.Accept()
	require.NoError(t, err)
	assert.True(t, listener.nextConnState(t))

	// Server drops the connection; the transport reports the loss and
	// reconnects on its own.
	serverConn.Close()
	assert.False(t, listener.nextConnState(t))

	reconnected, err := ln.Accept()
	require.NoError(t, err)
	defer reconnected.Close()
	assert.True(t, listener.nextConnState(t))

	require.NoError(t, transport.Disconnect())
}

func TestTCPTransportReportsStateToReplacedListener(t *testing.T) {
	// Reserve a port, then close the listener so every dial fails.
	ln, port := startTestServer(t)
	ln.Close()

	transport := NewTCPTransport()
	transport.backoff = fastBackoff()
	first := newRecordingListener()
	transport.SetListener(first)

	require.NoError(t, transport.Connect("127.0.0.1", port))
	assert.False(t, first.nextConnState(t))

	// Deactivate, then hand the transport to a new listener while the link
	// keeps failing. The new listener must still hear the current state; the
	// report memory must not carry over from the first listener.
	transport.SetListener(nil)
	second := newRecordingListener()
	transport.SetListener(second)
	assert.False(t, second.nextConnState(t))

	require.NoError(t, transport.Disconnect())
}

func TestTCPTransportRetriesWhileServerDown(t *testing.T) {
	// Reserve a port, then close the listener so the first dials fail.
	ln, port := startTestServer(t)
	ln.Close()

	transport := NewTCPTransport()
	transport.backoff = fastBackoff()
	listener := newRecordingListener()
	transport.SetListener(listener)

	require.NoError(t, transport.Connect("127.0.0.1", port))
	assert.False(t, listener.nextConnState(t))

	restarted, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		// The port can be taken between close and rebind; nothing left to
		// verify in that case.
		t.Skipf("could not rebind test port: %v", err)
	}
	defer restarted.Close()

	conn, err := restarted.Accept()
	require.NoError(t, err)
	defer conn.Close()
	assert.True(t, listener.nextConnState(t))

	require.NoError(t, transport.Disconnect())
}
