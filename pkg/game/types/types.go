package types

// Team identifies which side a player or flag belongs to.
type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

// Opponent returns the opposing team.
func (t Team) Opponent() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Equal reports whether both latitude and longitude match exactly.
// Position updates are gated on an exact delta, no epsilon.
func (c Coordinate) Equal(other Coordinate) bool {
	return c.Latitude == other.Latitude && c.Longitude == other.Longitude
}

// Flag is a capturable zone marker in a game.
type Flag struct {
	Team     Team       `json:"team"`
	Position Coordinate `json:"position"`
}

// Player is one participant in a game.
type Player struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Team     Team       `json:"team"`
	Position Coordinate `json:"position"`

	// Marker is an opaque handle owned by the rendering layer. It is never
	// created or destroyed here, only carried forward across roster updates,
	// and is excluded from the wire format.
	Marker interface{} `json:"-"`
}

// Game is the client-side view of one game session.
type Game struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Flags    []Flag    `json:"flags"`
	Players  []*Player `json:"players"`
	HasEnded bool      `json:"hasEnded"`
}

// FlagForTeam returns the flag belonging to the given team, or nil.
func (g *Game) FlagForTeam(team Team) *Flag {
	for i := range g.Flags {
		if g.Flags[i].Team == team {
			return &g.Flags[i]
		}
	}
	return nil
}

// FindPlayer returns the roster entry with the given ID, or nil.
func (g *Game) FindPlayer(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}
