package messages

import (
	"encoding/json"

	"captureflag/pkg/game/types"
)

// MessageType identifies the payload carried by a wire envelope.
type MessageType string

// Client to server message types
const (
	MessageTypeJoinGame             MessageType = "join-game"
	MessageTypeCreateGame           MessageType = "create-game"
	MessageTypeListGames            MessageType = "list-games"
	MessageTypeUpdatePlayerPosition MessageType = "update-player"
	MessageTypePing                 MessageType = "ping"
)

// Server to client message types
const (
	MessageTypeGameList      MessageType = "game-list"
	MessageTypeJoined        MessageType = "joined"
	MessageTypePlayerUpdated MessageType = "player-updated"
	MessageTypeFlagCaptured  MessageType = "flag-captured"
	MessageTypeError         MessageType = "error"
	MessageTypePong          MessageType = "pong"
)

// Message is the generic wire envelope for serialization/deserialization.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Request is an outbound message to the game server. Delivery is
// fire-and-forget; confirmation only arrives as a later correlated Response.
type Request interface {
	RequestType() MessageType
}

// JoinGame asks to join an existing game by ID.
type JoinGame struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
}

func (JoinGame) RequestType() MessageType { return MessageTypeJoinGame }

// CreateGame asks the server to create a new game and join it.
type CreateGame struct {
	GameName   string `json:"gameName"`
	PlayerName string `json:"playerName"`
}

func (CreateGame) RequestType() MessageType { return MessageTypeCreateGame }

// ListGames asks for the games currently open on the server.
type ListGames struct{}

func (ListGames) RequestType() MessageType { return MessageTypeListGames }

// UpdatePlayerPosition reports a new coordinate for the local player.
type UpdatePlayerPosition struct {
	PlayerID  string  `json:"playerId"`
	GameID    string  `json:"gameId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (UpdatePlayerPosition) RequestType() MessageType { return MessageTypeUpdatePlayerPosition }

// Ping is a transport keep-alive. Servers answer with a pong; neither is
// surfaced past the transport layer.
type Ping struct{}

func (Ping) RequestType() MessageType { return MessageTypePing }

// Response is an inbound message from the game server. Decoding is total:
// anything unrecognized or malformed becomes a Corrupted variant.
type Response interface {
	ResponseType() MessageType
}

// GameList carries the games currently open on the server.
type GameList struct {
	Games []*types.Game `json:"games"`
}

func (*GameList) ResponseType() MessageType { return MessageTypeGameList }

// Joined confirms a join or create and carries the adopted game and the
// local player the server assigned.
type Joined struct {
	Game   *types.Game   `json:"game"`
	Player *types.Player `json:"player"`
}

func (*Joined) ResponseType() MessageType { return MessageTypeJoined }

// PlayerUpdated carries a roster update for one player.
type PlayerUpdated struct {
	Player *types.Player `json:"player"`
}

func (*PlayerUpdated) ResponseType() MessageType { return MessageTypePlayerUpdated }

// FlagCaptured announces the capture that ends the game.
type FlagCaptured struct {
	Capturer *types.Player `json:"capturer"`
}

func (*FlagCaptured) ResponseType() MessageType { return MessageTypeFlagCaptured }

// Server error codes
const (
	ErrorCodeGameFull  = 1
	ErrorCodeException = 2
)

// ServerError is a server-reported failure.
type ServerError struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

func (*ServerError) ResponseType() MessageType { return MessageTypeError }

// Pong answers a keep-alive ping. Handled by the transport, never forwarded.
type Pong struct{}

func (*Pong) ResponseType() MessageType { return MessageTypePong }

// Corrupted stands in for any payload that could not be decoded. The reason
// is for logging only.
type Corrupted struct {
	Reason string
}

func (*Corrupted) ResponseType() MessageType { return "corrupted" }
