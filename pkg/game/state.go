package game

import (
	"sync"

	"captureflag/pkg/game/types"
)

// State is the authoritative client-side model of the current game and the
// local player. It holds at most one game; the local player is set only while
// a game is active. All mutations come from the session controller's single
// event loop; the mutex exists so other goroutines can take snapshots.
type State struct {
	mu     sync.RWMutex
	game   *types.Game
	player *types.Player
}

func NewState() *State {
	return &State{}
}

// SetGame adopts a game and the local player, typically from a Joined
// response. The local player is guaranteed a roster entry.
func (s *State) SetGame(g *types.Game, p *types.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game = g
	s.player = p
	if g != nil && p != nil && g.FindPlayer(p.ID) == nil {
		g.Players = append(g.Players, p)
	}
}

// Clear drops the current game and local player.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game = nil
	s.player = nil
}

// Game returns the current game, or nil if none is active.
func (s *State) Game() *types.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.game
}

// Player returns the local player, or nil if no game is active.
func (s *State) Player() *types.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.player
}

// InGame reports whether a game is active and still running.
func (s *State) InGame() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.game != nil && !s.game.HasEnded
}

// UpsertPlayer applies a player update to the roster. A new identifier is
// appended; an existing one is replaced in place with the marker handle
// carried over from the prior entry, so the roster never holds two entries
// for the same player. Returns the roster entry now holding the update, or
// nil if no game is active.
func (s *State) UpsertPlayer(updated *types.Player) *types.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil || updated == nil {
		return nil
	}
	for i, existing := range s.game.Players {
		if existing.ID != updated.ID {
			continue
		}
		updated.Marker = existing.Marker
		s.game.Players[i] = updated
		if s.player != nil && s.player.ID == updated.ID {
			s.player = updated
		}
		return updated
	}
	s.game.Players = append(s.game.Players, updated)
	return updated
}

// MoveLocalPlayer records a new coordinate for the local player. It reports
// whether the coordinate actually changed; an unchanged fix is a no-op so
// callers can bound outbound traffic.
func (s *State) MoveLocalPlayer(coord types.Coordinate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil || s.game.HasEnded || s.player == nil {
		return false
	}
	if s.player.Position.Equal(coord) {
		return false
	}
	s.player.Position = coord
	return true
}

// EndGame marks the current game as ended. Returns false if no game is
// active or it has already ended.
func (s *State) EndGame() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil || s.game.HasEnded {
		return false
	}
	s.game.HasEnded = true
	return true
}
