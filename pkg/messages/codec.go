package messages

import (
	"encoding/json"
	"fmt"

	"captureflag/pkg/game/types"
)

// EncodeRequest serializes an outbound request into envelope bytes.
func EncodeRequest(req Request) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %v", err)
	}
	b, err := json.Marshal(&Message{
		Type:    req.RequestType(),
		Payload: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request envelope: %v", err)
	}
	return b, nil
}

// DecodeResponse parses envelope bytes into a typed response. It is total:
// any malformed envelope, unknown type, or payload missing a required field
// yields a Corrupted variant instead of an error.
func DecodeResponse(b []byte) Response {
	msg := &Message{}
	if err := json.Unmarshal(b, msg); err != nil {
		return &Corrupted{Reason: fmt.Sprintf("malformed envelope: %v", err)}
	}

	switch msg.Type {
	case MessageTypeGameList:
		list := &GameList{}
		if err := json.Unmarshal(msg.Payload, list); err != nil {
			return &Corrupted{Reason: fmt.Sprintf("malformed game list payload: %v", err)}
		}
		return list
	case MessageTypeJoined:
		joined := &Joined{}
		if err := json.Unmarshal(msg.Payload, joined); err != nil {
			return &Corrupted{Reason: fmt.Sprintf("malformed joined payload: %v", err)}
		}
		if joined.Game == nil {
			return &Corrupted{Reason: "joined payload missing game"}
		}
		if joined.Player == nil {
			return &Corrupted{Reason: "joined payload missing player"}
		}
		return joined
	case MessageTypePlayerUpdated:
		updated := &PlayerUpdated{}
		if err := json.Unmarshal(msg.Payload, updated); err != nil {
			return &Corrupted{Reason: fmt.Sprintf("malformed player update payload: %v", err)}
		}
		if updated.Player == nil {
			return &Corrupted{Reason: "player update payload missing player"}
		}
		return updated
	case MessageTypeFlagCaptured:
		captured := &FlagCaptured{}
		if err := json.Unmarshal(msg.Payload, captured); err != nil {
			return &Corrupted{Reason: fmt.Sprintf("malformed flag captured payload: %v", err)}
		}
		if captured.Capturer == nil {
			return &Corrupted{Reason: "flag captured payload missing capturer"}
		}
		return captured
	case MessageTypeError:
		serverErr := &ServerError{}
		if err := json.Unmarshal(msg.Payload, serverErr); err != nil {
			return &Corrupted{Reason: fmt.Sprintf("malformed error payload: %v", err)}
		}
		return serverErr
	case MessageTypePong:
		return &Pong{}
	default:
		return &Corrupted{Reason: fmt.Sprintf("unknown message type: %q", msg.Type)}
	}
}

// DecodePushNotice parses an out-of-band "flag captured" push payload into
// the capturing player. Push payloads carry the capturer directly.
func DecodePushNotice(b []byte) (*types.Player, error) {
	notice := &FlagCaptured{}
	if err := json.Unmarshal(b, notice); err != nil {
		return nil, fmt.Errorf("failed to parse push notice: %v", err)
	}
	if notice.Capturer == nil {
		return nil, fmt.Errorf("push notice missing capturer")
	}
	return notice.Capturer, nil
}
