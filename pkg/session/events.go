package session

import (
	"captureflag/pkg/game/types"
	"captureflag/pkg/messages"
)

// Events marshaled onto the session's single event loop. Transport
// callbacks, location fixes, push notices, and UI actions all arrive here so
// exactly one goroutine ever mutates session state.
type event interface{}

type transportResponseEvent struct {
	epoch int
	resp  messages.Response
}

type connStateEvent struct {
	epoch     int
	connected bool
}

type locationEvent struct {
	coord types.Coordinate
}

type pushCaptureEvent struct {
	capturer *types.Player
}

type joinGameEvent struct {
	gameID     string
	playerName string
}

type createGameEvent struct {
	gameName   string
	playerName string
}

type listGamesEvent struct{}

type leaveGameEvent struct{}

type switchModeEvent struct {
	online bool
}

type setIdleEvent struct {
	idle bool
}

type attachListenerEvent struct {
	listener GameListener
}

type detachListenerEvent struct{}
