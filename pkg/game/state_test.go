package game

import (
	"fmt"
	"testing"

	"captureflag/pkg/game/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState() (*State, *types.Game, *types.Player) {
	local := &types.Player{ID: "P1", Name: "Alice", Team: types.TeamRed}
	g := &types.Game{ID: "G1", Players: []*types.Player{local}}
	s := NewState()
	s.SetGame(g, local)
	return s, g, local
}

func TestStateUpsertPlayerKeepsRosterUnique(t *testing.T) {
	s, g, _ := newTestState()

	marker := "ui-marker-handle"
	first := &types.Player{ID: "P2", Name: "Bob", Marker: marker}
	s.UpsertPlayer(first)
	require.Len(t, g.Players, 2)

	// Many updates for the same player never grow the roster, and the
	// marker handle is carried to each replacement entry.
	for i := 0; i < 5; i++ {
		update := &types.Player{
			ID:       "P2",
			Name:     "Bob",
			Position: types.Coordinate{Latitude: float64(i), Longitude: float64(i)},
		}
		entry := s.UpsertPlayer(update)
		require.NotNil(t, entry)
		assert.Equal(t, marker, entry.Marker, "marker handle lost on update %d", i)
	}

	assert.Len(t, g.Players, 2)
	seen := map[string]int{}
	for _, p := range g.Players {
		seen[p.ID]++
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, fmt.Sprintf("duplicate roster entry for %s", id))
	}
	assert.Equal(t, 4.0, g.FindPlayer("P2").Position.Latitude)
}

func TestStateUpsertPlayerTracksLocalPlayer(t *testing.T) {
	s, _, local := newTestState()
	local.Marker = "local-marker"

	update := &types.Player{ID: "P1", Name: "Alice", Position: types.Coordinate{Latitude: 1, Longitude: 2}}
	entry := s.UpsertPlayer(update)
	require.NotNil(t, entry)

	assert.Same(t, entry, s.Player())
	assert.Equal(t, "local-marker", s.Player().Marker)
	assert.Equal(t, 1.0, s.Player().Position.Latitude)
}

func TestStateUpsertPlayerWithoutGame(t *testing.T) {
	s := NewState()
	assert.Nil(t, s.UpsertPlayer(&types.Player{ID: "P2"}))
}

func TestStateMoveLocalPlayer(t *testing.T) {
	s, _, _ := newTestState()

	coord := types.Coordinate{Latitude: 60.1699, Longitude: 24.9384}
	assert.True(t, s.MoveLocalPlayer(coord))
	// The identical fix is not a move.
	assert.False(t, s.MoveLocalPlayer(coord))
	// Any exact delta is significant, no epsilon.
	coord.Longitude += 0.0000001
	assert.True(t, s.MoveLocalPlayer(coord))
}

func TestStateMoveLocalPlayerAfterGameEnded(t *testing.T) {
	s, _, _ := newTestState()
	require.True(t, s.EndGame())
	assert.False(t, s.MoveLocalPlayer(types.Coordinate{Latitude: 1}))
}

func TestStateEndGameOnlyOnce(t *testing.T) {
	s, g, _ := newTestState()
	assert.True(t, s.EndGame())
	assert.True(t, g.HasEnded)
	assert.False(t, s.EndGame())
	assert.False(t, s.InGame())
}

func TestStateClear(t *testing.T) {
	s, _, _ := newTestState()
	s.Clear()
	assert.Nil(t, s.Game())
	assert.Nil(t, s.Player())
	assert.False(t, s.InGame())
}

func TestStateSetGameEnsuresLocalRosterEntry(t *testing.T) {
	local := &types.Player{ID: "P1"}
	g := &types.Game{ID: "G1"}
	s := NewState()
	s.SetGame(g, local)
	assert.Same(t, local, g.FindPlayer("P1"))
}
