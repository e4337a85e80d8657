package session

import (
	"context"
	"sync"

	"captureflag/pkg/game"
	"captureflag/pkg/game/types"
	"captureflag/pkg/log"
	"captureflag/pkg/messages"
	"captureflag/pkg/network"
	"captureflag/pkg/queue"
)

// Phase is the session controller's coarse state for reasoning about
// transitions. It is not an exhaustive protocol state.
type Phase int

const (
	PhaseNoGame Phase = iota
	PhaseAwaitingJoin
	PhaseInGame
	PhaseGameEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseNoGame:
		return "no-game"
	case PhaseAwaitingJoin:
		return "awaiting-join"
	case PhaseInGame:
		return "in-game"
	case PhaseGameEnded:
		return "game-ended"
	}
	return "unknown"
}

const eventBufferSize = 256

// Session owns the authoritative client-side game state and exactly one
// active transport. It applies inbound responses to state, emits outbound
// requests for location fixes and user actions, and notifies the UI layer
// through a registered GameListener. It is constructed once at the
// application composition root and passed to everything that needs it.
type Session struct {
	host    string
	port    int
	live    network.Transport
	offline network.Transport

	state  *game.State
	events chan event
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	phase   Phase
	started bool

	// Owned by the event loop.
	active        network.Transport
	epoch         int
	listener      GameListener
	pending       queue.Queue
	lastConnState network.ConnState
	captureSeen   map[string]struct{}
}

// New creates a session controller backed by the given live and offline
// transports. The live transport connects to host:port.
func New(host string, port int, live, offline network.Transport) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		host:        host,
		port:        port,
		live:        live,
		offline:     offline,
		state:       game.NewState(),
		events:      make(chan event, eventBufferSize),
		ctx:         ctx,
		cancel:      cancel,
		phase:       PhaseNoGame,
		pending:     queue.NewInMemoryQueue(queue.DefaultCapacity),
		captureSeen: make(map[string]struct{}),
	}
}

// Start launches the event loop and activates the live transport.
func (s *Session) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		log.Warn("Session already started")
		return
	}
	s.started = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(s.ctx)
	s.dispatch(switchModeEvent{online: true})
}

// Stop shuts down the event loop and both transports. The session cannot be
// restarted afterwards.
func (s *Session) Stop() {
	if s.ctx.Err() != nil {
		log.Warn("Session already stopped")
		return
	}
	s.cancel()
	if err := s.live.Disconnect(); err != nil {
		log.Warn("Failed to disconnect live transport: %v", err)
	}
	if err := s.offline.Disconnect(); err != nil {
		log.Warn("Failed to disconnect offline transport: %v", err)
	}
	s.wg.Wait()
	log.Info("Session stopped")
}

// dispatch marshals an event onto the event loop. Events are dropped once
// the session is stopping.
func (s *Session) dispatch(e event) {
	select {
	case s.events <- e:
	case <-s.ctx.Done():
	}
}

// AttachListener registers the UI listener. Notifications buffered while no
// listener was attached are replayed in order.
func (s *Session) AttachListener(l GameListener) {
	s.dispatch(attachListenerEvent{listener: l})
}

// DetachListener removes the UI listener. State keeps advancing; UI-facing
// notifications are buffered until the next attach.
func (s *Session) DetachListener() {
	s.dispatch(detachListenerEvent{})
}

// JoinGame requests to join an existing game.
func (s *Session) JoinGame(gameID, playerName string) {
	s.dispatch(joinGameEvent{gameID: gameID, playerName: playerName})
}

// CreateGame requests a new game.
func (s *Session) CreateGame(gameName, playerName string) {
	s.dispatch(createGameEvent{gameName: gameName, playerName: playerName})
}

// RequestGameList asks the server for the currently open games.
func (s *Session) RequestGameList() {
	s.dispatch(listGamesEvent{})
}

// LeaveGame clears the current game and player.
func (s *Session) LeaveGame() {
	s.dispatch(leaveGameEvent{})
}

// SwitchMode swaps the active transport. Session state is not reset; only
// the transport backing it changes. Responses in flight on the replaced
// transport are applied best-effort and may be dropped.
func (s *Session) SwitchMode(online bool) {
	s.dispatch(switchModeEvent{online: online})
}

// SetIdle forwards the app's foreground/background state to the active
// transport so it can relax keep-alives.
func (s *Session) SetIdle(idle bool) {
	s.dispatch(setIdleEvent{idle: idle})
}

// UpdatePosition feeds a location fix. A request goes out only when the
// coordinate actually differs from the local player's last known one.
func (s *Session) UpdatePosition(latitude, longitude float64) {
	s.dispatch(locationEvent{coord: types.Coordinate{Latitude: latitude, Longitude: longitude}})
}

// HandlePushNotice routes an out-of-band "flag captured" push message to the
// same game-ended transition as the in-band response. Corrupt payloads are
// logged and dropped.
func (s *Session) HandlePushNotice(raw []byte) {
	capturer, err := messages.DecodePushNotice(raw)
	if err != nil {
		log.Warn("Dropping corrupted push notice: %v", err)
		return
	}
	s.dispatch(pushCaptureEvent{capturer: capturer})
}

// Phase returns the controller's current phase.
func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != p {
		log.Debug("Session phase %s -> %s", s.phase, p)
	}
	s.phase = p
}

// CurrentGame returns the active game, or nil.
func (s *Session) CurrentGame() *types.Game {
	return s.state.Game()
}

// LocalPlayer returns the local player, or nil.
func (s *Session) LocalPlayer() *types.Player {
	return s.state.Player()
}

// transportListener marshals transport callbacks onto the event loop,
// stamped with the activation epoch so anything delivered after a disconnect
// or mode switch is discarded before touching state.
type transportListener struct {
	s     *Session
	epoch int
}

func (l *transportListener) OnResponse(resp messages.Response) {
	l.s.dispatch(transportResponseEvent{epoch: l.epoch, resp: resp})
}

func (l *transportListener) OnConnectionStateChange(connected bool) {
	l.s.dispatch(connStateEvent{epoch: l.epoch, connected: connected})
}

func (s *Session) loop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-s.events:
			s.handleEvent(e)
		}
	}
}

func (s *Session) handleEvent(e event) {
	switch ev := e.(type) {
	case transportResponseEvent:
		if ev.epoch != s.epoch {
			log.Trace("Discarding stale response from epoch %d", ev.epoch)
			return
		}
		s.handleResponse(ev.resp)
	case connStateEvent:
		if ev.epoch != s.epoch {
			log.Trace("Discarding stale connection state from epoch %d", ev.epoch)
			return
		}
		s.handleConnState(ev.connected)
	case locationEvent:
		s.handleLocation(ev.coord)
	case pushCaptureEvent:
		s.handleFlagCaptured(ev.capturer)
	case joinGameEvent:
		s.sendJoinRequest(messages.JoinGame{GameID: ev.gameID, PlayerName: ev.playerName})
	case createGameEvent:
		s.sendJoinRequest(messages.CreateGame{GameName: ev.gameName, PlayerName: ev.playerName})
	case listGamesEvent:
		if err := s.active.Send(messages.ListGames{}); err != nil {
			log.Warn("Failed to send game list request: %v", err)
		}
	case leaveGameEvent:
		s.state.Clear()
		s.setPhase(PhaseNoGame)
		s.notify(func(l GameListener) { l.OnGameLeft() })
	case switchModeEvent:
		s.switchMode(ev.online)
	case setIdleEvent:
		s.active.SetIdle(ev.idle)
	case attachListenerEvent:
		s.listener = ev.listener
		for _, item := range s.pending.ReadAll() {
			if fn, ok := item.(func(GameListener)); ok {
				fn(ev.listener)
			}
		}
	case detachListenerEvent:
		s.listener = nil
	default:
		log.Warn("Session dropping unknown event %T", e)
	}
}

// notify delivers a UI notification if a listener is attached, buffering it
// otherwise. State has already advanced by the time this is called.
func (s *Session) notify(fn func(GameListener)) {
	if s.listener == nil {
		s.pending.Enqueue(fn)
		return
	}
	fn(s.listener)
}

func (s *Session) switchMode(online bool) {
	target := s.offline
	if online {
		target = s.live
	}
	if s.active != target {
		s.epoch++
		if s.active != nil {
			s.active.SetListener(nil)
		}
		s.active = target
		target.SetListener(&transportListener{s: s, epoch: s.epoch})
		mode := "offline"
		if online {
			mode = "online"
		}
		log.Info("Session switched to %s mode", mode)
	}
	if online {
		if !target.IsConnected() {
			if err := target.Connect(s.host, s.port); err != nil {
				log.Warn("Failed to start live transport: %v", err)
			}
		}
	} else {
		if err := target.Connect("", 0); err != nil {
			log.Warn("Failed to start offline transport: %v", err)
		}
	}
}

func (s *Session) sendJoinRequest(req messages.Request) {
	if s.Phase() == PhaseInGame {
		log.Warn("Ignoring %s request while already in a game", req.RequestType())
		return
	}
	prev := s.Phase()
	s.setPhase(PhaseAwaitingJoin)
	if err := s.active.Send(req); err != nil {
		log.Warn("Failed to send %s request: %v", req.RequestType(), err)
		s.setPhase(prev)
	}
}

func (s *Session) handleResponse(resp messages.Response) {
	switch r := resp.(type) {
	case *messages.GameList:
		s.notify(func(l GameListener) { l.OnGameList(r.Games) })
	case *messages.Joined:
		s.handleJoined(r)
	case *messages.PlayerUpdated:
		s.handlePlayerUpdated(r.Player)
	case *messages.FlagCaptured:
		s.handleFlagCaptured(r.Capturer)
	case *messages.ServerError:
		s.handleServerError(r)
	case *messages.Corrupted:
		log.Warn("Session dropping corrupted response: %s", r.Reason)
	default:
		log.Warn("Session dropping unexpected response type %s", resp.ResponseType())
	}
}

func (s *Session) handleJoined(r *messages.Joined) {
	if s.Phase() != PhaseAwaitingJoin {
		log.Warn("Ignoring joined response in phase %s", s.Phase())
		return
	}
	s.state.SetGame(r.Game, r.Player)
	s.setPhase(PhaseInGame)
	log.Info("Joined game %s as player %s", r.Game.ID, r.Player.ID)
	s.notify(func(l GameListener) { l.OnJoined(r.Game, r.Player) })
}

func (s *Session) handlePlayerUpdated(p *types.Player) {
	// A late update for a game that is already gone is expected after the
	// game ends; discard silently.
	if s.state.Game() == nil {
		return
	}
	entry := s.state.UpsertPlayer(p)
	if entry == nil {
		return
	}
	s.notify(func(l GameListener) { l.OnPlayerUpdated(entry) })
}

// handleFlagCaptured converges the in-band FlagCaptured response and the
// out-of-band push notice on one game-ended transition, keyed by game and
// capturer so double delivery announces once.
func (s *Session) handleFlagCaptured(capturer *types.Player) {
	g := s.state.Game()
	if g == nil || capturer == nil {
		return
	}
	key := g.ID + "/" + capturer.ID
	if capturer.ID == "" {
		key = g.ID + "/" + capturer.Name
	}
	if _, seen := s.captureSeen[key]; seen {
		log.Debug("Ignoring duplicate capture notice for %s", key)
		return
	}
	s.captureSeen[key] = struct{}{}

	if !s.state.EndGame() {
		return
	}
	s.setPhase(PhaseGameEnded)
	log.Info("Game %s ended, flag captured by %s (%s)", g.ID, capturer.Name, capturer.Team)
	s.notify(func(l GameListener) { l.OnGameEnded(capturer.Name, capturer.Team) })
}

func (s *Session) handleServerError(r *messages.ServerError) {
	kind := ErrorKindServerException
	if r.Code == messages.ErrorCodeGameFull {
		kind = ErrorKindGameFull
	}
	log.Warn("Server error %d: %s", r.Code, r.Message)
	s.notify(func(l GameListener) { l.OnError(kind, r.Message) })
}

func (s *Session) handleConnState(connected bool) {
	newState := network.ConnStateDisconnected
	if connected {
		newState = network.ConnStateConnected
	}
	if newState == s.lastConnState {
		return
	}
	s.lastConnState = newState
	s.notify(func(l GameListener) { l.OnConnectionChanged(connected) })
}

func (s *Session) handleLocation(coord types.Coordinate) {
	if !s.state.MoveLocalPlayer(coord) {
		return
	}
	p := s.state.Player()
	g := s.state.Game()
	s.notify(func(l GameListener) { l.OnPlayerUpdated(p) })

	req := messages.UpdatePlayerPosition{
		PlayerID:  p.ID,
		GameID:    g.ID,
		Latitude:  coord.Latitude,
		Longitude: coord.Longitude,
	}
	if err := s.active.Send(req); err != nil {
		log.Warn("Failed to send position update: %v", err)
	}
}
