package session

import "captureflag/pkg/game/types"

// ErrorKind categorizes server-reported errors surfaced to the UI.
type ErrorKind int

const (
	ErrorKindGameFull ErrorKind = iota
	ErrorKindServerException
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindGameFull:
		return "game-full"
	case ErrorKindServerException:
		return "server-exception"
	}
	return "unknown"
}

// GameListener is implemented by the UI layer. Callbacks are invoked from
// the session's event loop and must return promptly. A listener may be
// attached and detached at any time; notifications produced while detached
// are buffered and replayed on attach.
type GameListener interface {
	// OnGameList delivers the games currently open on the server.
	OnGameList(games []*types.Game)
	// OnJoined signals the transition into a game.
	OnJoined(game *types.Game, player *types.Player)
	// OnPlayerUpdated delivers a roster entry whose position changed. The
	// entry carries the marker handle from any prior entry for the same
	// player.
	OnPlayerUpdated(player *types.Player)
	// OnGameEnded announces the capture that ended the game. It fires
	// exactly once per capture, whether the notice arrived in-band or as an
	// out-of-band push.
	OnGameEnded(capturerName string, capturerTeam types.Team)
	// OnGameLeft signals that the game was cleared; the UI should drop all
	// of its markers.
	OnGameLeft()
	// OnError surfaces a server-reported error. Session state is unchanged.
	OnError(kind ErrorKind, detail string)
	// OnConnectionChanged fires on debounced connection transitions.
	OnConnectionChanged(connected bool)
}
