package network

import (
	"sync"

	"captureflag/pkg/game/types"
	"captureflag/pkg/geo"
	"captureflag/pkg/log"
	"captureflag/pkg/messages"

	"github.com/google/uuid"
)

const (
	// DefaultCaptureRadiusMeters is how close the player must get to the
	// opposing flag for the offline game to end.
	DefaultCaptureRadiusMeters = 25.0

	ownFlagOffsetMeters = 50.0
	// The opposing flag is placed a few capture radii east of the player's
	// first reported position so an offline game is winnable on foot.
	enemyFlagRadiusMultiple = 4.0

	offlineDeliveryBuffer = 32
)

type offlineDelivery struct {
	resp      messages.Response
	connState *bool
}

// OfflineTransport answers requests locally without touching a network. It
// exists so the client keeps functioning when no server is reachable:
// joining or creating a game synthesizes a single-player game, position
// updates are echoed back, and walking within the capture radius of the
// opposing flag ends the game.
type OfflineTransport struct {
	mu            sync.Mutex
	listener      Listener
	connected     bool
	captureRadius float64
	out           chan offlineDelivery
	done          chan struct{}

	game        *types.Game
	player      *types.Player
	flagsPlaced bool
	captured    bool
}

// NewOfflineTransport creates a new offline transport with the given capture
// radius in meters.
func NewOfflineTransport(captureRadiusMeters float64) *OfflineTransport {
	if captureRadiusMeters <= 0 {
		captureRadiusMeters = DefaultCaptureRadiusMeters
	}
	return &OfflineTransport{
		captureRadius: captureRadiusMeters,
	}
}

// SetListener registers the listener for inbound responses and connection
// transitions. Pass nil to stop deliveries.
func (t *OfflineTransport) SetListener(l Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listener = l
}

// Connect needs no credentials and no network; it reports Connected
// immediately. Host and port are ignored. A redundant Connect re-reports
// Connected so a freshly registered listener hears the current state.
func (t *OfflineTransport) Connect(host string, port int) error {
	t.mu.Lock()
	if t.connected {
		connected := true
		select {
		case t.out <- offlineDelivery{connState: &connected}:
		default:
			log.Warn("Offline transport delivery buffer full, dropping connection notice")
		}
		t.mu.Unlock()
		return nil
	}
	t.connected = true
	t.out = make(chan offlineDelivery, offlineDeliveryBuffer)
	t.done = make(chan struct{})
	go t.pump(t.out, t.done)
	connected := true
	t.out <- offlineDelivery{connState: &connected}
	t.mu.Unlock()

	log.Info("Offline transport connected")
	return nil
}

// pump delivers queued responses in order on a single goroutine, mimicking
// the asynchronous arrival of server messages.
func (t *OfflineTransport) pump(out <-chan offlineDelivery, done chan struct{}) {
	defer close(done)
	for d := range out {
		t.mu.Lock()
		listener := t.listener
		t.mu.Unlock()
		if listener == nil {
			continue
		}
		if d.connState != nil {
			listener.OnConnectionStateChange(*d.connState)
			continue
		}
		listener.OnResponse(d.resp)
	}
}

// IsConnected reports whether the transport is active.
func (t *OfflineTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// SetIdle is a no-op; there is no connection to keep alive.
func (t *OfflineTransport) SetIdle(idle bool) {
	log.Trace("Offline transport idle: %t", idle)
}

// Send answers the request locally. Responses arrive asynchronously through
// the listener, like any other transport.
func (t *OfflineTransport) Send(req messages.Request) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return ErrNotConnected
	}

	switch r := req.(type) {
	case messages.JoinGame:
		t.startGame(r.GameID, "Offline game", r.PlayerName)
	case messages.CreateGame:
		t.startGame("", r.GameName, r.PlayerName)
	case messages.ListGames:
		games := []*types.Game{}
		if t.game != nil {
			games = append(games, cloneGame(t.game))
		}
		t.emit(&messages.GameList{Games: games})
	case messages.UpdatePlayerPosition:
		t.updatePosition(r)
	case messages.Ping:
		t.emit(&messages.Pong{})
	default:
		log.Warn("Offline transport dropping unsupported request type %s", req.RequestType())
	}
	return nil
}

// startGame synthesizes a single-player game. Flags are placed once the
// player's first position fix arrives.
func (t *OfflineTransport) startGame(gameID, gameName, playerName string) {
	if gameID == "" {
		gameID = uuid.New().String()
	}
	t.player = &types.Player{
		ID:   uuid.New().String(),
		Name: playerName,
		Team: types.TeamRed,
	}
	t.game = &types.Game{
		ID:      gameID,
		Name:    gameName,
		Players: []*types.Player{t.player},
	}
	t.flagsPlaced = false
	t.captured = false
	log.Debug("Offline transport synthesized game %s for player %s", gameID, playerName)
	t.emit(&messages.Joined{Game: cloneGame(t.game), Player: clonePlayer(t.player)})
}

func (t *OfflineTransport) updatePosition(r messages.UpdatePlayerPosition) {
	if t.game == nil || t.game.HasEnded || t.player == nil {
		log.Trace("Offline transport dropping position update with no running game")
		return
	}
	if r.PlayerID != t.player.ID {
		log.Trace("Offline transport dropping position update for unknown player %s", r.PlayerID)
		return
	}

	coord := types.Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}
	t.player.Position = coord
	if !t.flagsPlaced {
		t.placeFlags(coord)
	}
	t.emit(&messages.PlayerUpdated{Player: clonePlayer(t.player)})

	enemyFlag := t.game.FlagForTeam(t.player.Team.Opponent())
	if !t.captured && enemyFlag != nil && geo.Distance(coord, enemyFlag.Position) <= t.captureRadius {
		t.captured = true
		t.game.HasEnded = true
		log.Debug("Offline player %s captured the %s flag", t.player.Name, enemyFlag.Team)
		t.emit(&messages.FlagCaptured{Capturer: clonePlayer(t.player)})
	}
}

func (t *OfflineTransport) placeFlags(origin types.Coordinate) {
	t.game.Flags = []types.Flag{
		{
			Team:     t.player.Team,
			Position: geo.Offset(origin, ownFlagOffsetMeters, 0),
		},
		{
			Team:     t.player.Team.Opponent(),
			Position: geo.Offset(origin, 0, enemyFlagRadiusMultiple*t.captureRadius),
		},
	}
	t.flagsPlaced = true
}

// emit queues a response for asynchronous delivery. Caller must hold the lock.
func (t *OfflineTransport) emit(resp messages.Response) {
	select {
	case t.out <- offlineDelivery{resp: resp}:
	default:
		log.Warn("Offline transport delivery buffer full, dropping %s", resp.ResponseType())
	}
}

// Disconnect stops deliveries. The synthesized game is kept so a later
// reconnect can resume it.
func (t *OfflineTransport) Disconnect() error {
	t.mu.Lock()
	if !t.connected {
		t.mu.Unlock()
		log.Warn("Offline transport is already disconnected")
		return nil
	}
	t.connected = false
	out := t.out
	done := t.done
	t.out = nil
	t.done = nil
	t.mu.Unlock()

	close(out)
	<-done
	return nil
}

func clonePlayer(p *types.Player) *types.Player {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Marker = nil
	return &clone
}

func cloneGame(g *types.Game) *types.Game {
	if g == nil {
		return nil
	}
	clone := *g
	clone.Flags = append([]types.Flag(nil), g.Flags...)
	clone.Players = make([]*types.Player, 0, len(g.Players))
	for _, p := range g.Players {
		clone.Players = append(clone.Players, clonePlayer(p))
	}
	return &clone
}
