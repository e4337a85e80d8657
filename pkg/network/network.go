// Package network provides the transport channel between the session
// controller and a game server. Two live implementations (TCP, WebSocket)
// talk to a real server; the offline transport answers locally so the client
// keeps working with no network.
package network

import "captureflag/pkg/messages"

// ConnState is the tri-valued connection state memory used to debounce
// user-visible connection notices.
type ConnState int

const (
	ConnStateUnknown ConnState = iota
	ConnStateConnected
	ConnStateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case ConnStateUnknown:
		return "unknown"
	case ConnStateConnected:
		return "connected"
	case ConnStateDisconnected:
		return "disconnected"
	}
	return "invalid"
}

// Listener receives inbound responses and connection-state transitions from
// the transport it is registered on. Callbacks are invoked from transport
// goroutines and must not block for long.
type Listener interface {
	OnResponse(resp messages.Response)
	OnConnectionStateChange(connected bool)
}

// Transport is an interchangeable channel for typed requests and responses.
// Connect and Disconnect are asynchronous: completion and failure are
// observed only through the registered listener. Send is fire-and-forget;
// a returned error means the request never left the client, delivery
// confirmation only ever arrives as a correlated response.
type Transport interface {
	Connect(host string, port int) error
	Disconnect() error
	IsConnected() bool
	Send(req messages.Request) error
	SetIdle(idle bool)
	SetListener(l Listener)
}
