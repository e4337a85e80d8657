package messages

import (
	"encoding/json"
	"testing"

	"captureflag/pkg/game/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEnvelope(t *testing.T, msgType MessageType, payload interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	envelope, err := json.Marshal(&Message{Type: msgType, Payload: b})
	require.NoError(t, err)
	return envelope
}

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		check func(t *testing.T, resp Response)
	}{
		{
			name: "joined with game and player",
			input: mustEnvelope(t, MessageTypeJoined, &Joined{
				Game:   &types.Game{ID: "G1"},
				Player: &types.Player{ID: "P1", Name: "Alice"},
			}),
			check: func(t *testing.T, resp Response) {
				joined, ok := resp.(*Joined)
				require.True(t, ok, "expected *Joined, got %T", resp)
				assert.Equal(t, "G1", joined.Game.ID)
				assert.Equal(t, "Alice", joined.Player.Name)
			},
		},
		{
			name:  "joined missing player is corrupted",
			input: mustEnvelope(t, MessageTypeJoined, map[string]interface{}{"game": &types.Game{ID: "G1"}}),
			check: func(t *testing.T, resp Response) {
				corrupted, ok := resp.(*Corrupted)
				require.True(t, ok, "expected *Corrupted, got %T", resp)
				assert.Contains(t, corrupted.Reason, "missing player")
			},
		},
		{
			name:  "joined missing game is corrupted",
			input: mustEnvelope(t, MessageTypeJoined, map[string]interface{}{"player": &types.Player{ID: "P1"}}),
			check: func(t *testing.T, resp Response) {
				corrupted, ok := resp.(*Corrupted)
				require.True(t, ok, "expected *Corrupted, got %T", resp)
				assert.Contains(t, corrupted.Reason, "missing game")
			},
		},
		{
			name:  "player updated",
			input: mustEnvelope(t, MessageTypePlayerUpdated, &PlayerUpdated{Player: &types.Player{ID: "P2"}}),
			check: func(t *testing.T, resp Response) {
				updated, ok := resp.(*PlayerUpdated)
				require.True(t, ok, "expected *PlayerUpdated, got %T", resp)
				assert.Equal(t, "P2", updated.Player.ID)
			},
		},
		{
			name:  "player updated missing player is corrupted",
			input: mustEnvelope(t, MessageTypePlayerUpdated, map[string]interface{}{}),
			check: func(t *testing.T, resp Response) {
				_, ok := resp.(*Corrupted)
				require.True(t, ok, "expected *Corrupted, got %T", resp)
			},
		},
		{
			name:  "flag captured",
			input: mustEnvelope(t, MessageTypeFlagCaptured, &FlagCaptured{Capturer: &types.Player{Name: "Bob", Team: types.TeamBlue}}),
			check: func(t *testing.T, resp Response) {
				captured, ok := resp.(*FlagCaptured)
				require.True(t, ok, "expected *FlagCaptured, got %T", resp)
				assert.Equal(t, types.TeamBlue, captured.Capturer.Team)
			},
		},
		{
			name:  "server error",
			input: mustEnvelope(t, MessageTypeError, &ServerError{Code: ErrorCodeGameFull}),
			check: func(t *testing.T, resp Response) {
				serverErr, ok := resp.(*ServerError)
				require.True(t, ok, "expected *ServerError, got %T", resp)
				assert.Equal(t, ErrorCodeGameFull, serverErr.Code)
			},
		},
		{
			name:  "unknown type is corrupted",
			input: mustEnvelope(t, MessageType("mystery"), map[string]interface{}{}),
			check: func(t *testing.T, resp Response) {
				corrupted, ok := resp.(*Corrupted)
				require.True(t, ok, "expected *Corrupted, got %T", resp)
				assert.Contains(t, corrupted.Reason, "unknown message type")
			},
		},
		{
			name:  "garbage bytes are corrupted",
			input: []byte("not json at all"),
			check: func(t *testing.T, resp Response) {
				_, ok := resp.(*Corrupted)
				require.True(t, ok, "expected *Corrupted, got %T", resp)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, DecodeResponse(tt.input))
		})
	}
}

func TestEncodeRequest(t *testing.T) {
	b, err := EncodeRequest(JoinGame{GameID: "G1", PlayerName: "Alice"})
	require.NoError(t, err)

	msg := &Message{}
	require.NoError(t, json.Unmarshal(b, msg))
	assert.Equal(t, MessageTypeJoinGame, msg.Type)

	join := &JoinGame{}
	require.NoError(t, json.Unmarshal(msg.Payload, join))
	assert.Equal(t, "G1", join.GameID)
	assert.Equal(t, "Alice", join.PlayerName)
}

func TestDecodePushNotice(t *testing.T) {
	b, err := json.Marshal(&FlagCaptured{Capturer: &types.Player{ID: "P9", Name: "Carol"}})
	require.NoError(t, err)

	capturer, err := DecodePushNotice(b)
	require.NoError(t, err)
	assert.Equal(t, "Carol", capturer.Name)

	_, err = DecodePushNotice([]byte(`{}`))
	assert.Error(t, err)

	_, err = DecodePushNotice([]byte("garbage"))
	assert.Error(t, err)
}
