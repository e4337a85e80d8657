package network

import "errors"

// ErrNotConnected is returned by Send when the transport has no live
// connection to hand the request to.
var ErrNotConnected = errors.New("transport is not connected")

// ErrConnectionClosedByServer is returned when the connection is closed by the server
type ErrConnectionClosedByServer struct{}

func (e *ErrConnectionClosedByServer) Error() string {
	return "connection closed by server"
}

// ErrConnectionClosedByClient is returned when the connection is closed locally
type ErrConnectionClosedByClient struct{}

func (e *ErrConnectionClosedByClient) Error() string {
	return "connection closed by client"
}
