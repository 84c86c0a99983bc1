package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// Decode parses raw wire data into one of the Message variants. Malformed
// data returns an error; a well-formed frame with an unrecognized type
// returns Unknown. The caller decides whether to drop either case.
func Decode(data []byte) (Message, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	switch f.Type {
	case TypeHello:
		return Hello{Payload: f.Payload}, nil
	case TypeJoined:
		var m Joined
		if err := json.Unmarshal(f.Payload, &m); err != nil {
			return nil, fmt.Errorf("decode joined payload: %w", err)
		}
		return m, nil
	case TypeState:
		var snap Snapshot
		if err := json.Unmarshal(f.Payload, &snap); err != nil {
			return nil, fmt.Errorf("decode state payload: %w", err)
		}
		return State{Snapshot: &snap}, nil
	case TypePong:
		return Pong{}, nil
	case TypeError:
		var m ErrorMsg
		if err := json.Unmarshal(f.Payload, &m); err != nil {
			return nil, fmt.Errorf("decode error payload: %w", err)
		}
		return m, nil
	case TypeSystem:
		var m System
		if err := json.Unmarshal(f.Payload, &m); err != nil {
			return nil, fmt.Errorf("decode system payload: %w", err)
		}
		return m, nil
	default:
		return Unknown{Type: f.Type, Payload: f.Payload}, nil
	}
}

// Encode serializes an outbound frame to wire bytes.
func Encode(f Frame) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", f.Type, err)
	}
	return data, nil
}

func frame(typ string, payload any) Frame {
	// Payloads below are plain structs of strings and ints; marshalling
	// them cannot fail.
	data, _ := json.Marshal(payload)
	return Frame{Type: typ, Payload: data}
}

// Join asks to enter a room under a display name.
func Join(roomID, name string) Frame {
	return frame(TypeJoin, struct {
		RoomID string `json:"roomId"`
		Name   string `json:"name"`
	}{roomID, name})
}

// Start asks the server to begin the game in a room.
func Start(roomID string) Frame {
	return frame(TypeStart, roomPayload{roomID})
}

// Draw requests a manual tile draw. The server auto-draws in normal play;
// this is kept for parity with the wire protocol.
func Draw(roomID string) Frame {
	return frame(TypeDraw, roomPayload{roomID})
}

// Discard announces the intent to discard a tile.
func Discard(roomID, tile string) Frame {
	return frame(TypeDiscard, struct {
		RoomID string `json:"roomId"`
		Tile   string `json:"tile"`
	}{roomID, tile})
}

// Claim answers an open reaction window with one of the server-offered
// action ids.
func Claim(roomID, actionID string) Frame {
	return frame(TypeClaim, struct {
		RoomID string `json:"roomId"`
		Claim  struct {
			ID string `json:"id"`
		} `json:"claim"`
	}{RoomID: roomID, Claim: struct {
		ID string `json:"id"`
	}{ID: actionID}})
}

// Ting proposes entering the declared-wait state.
func Ting(roomID string) Frame {
	return frame(TypeTing, roomPayload{roomID})
}

// TingCancel withdraws a pending declared-wait proposal.
func TingCancel(roomID string) Frame {
	return frame(TypeTingCancel, roomPayload{roomID})
}

// RollDice rolls to open the next round.
func RollDice(roomID string) Frame {
	return frame(TypeRollDice, roomPayload{roomID})
}

// Ping is the liveness probe. The timestamp is echoed for observability only.
func Ping(ts time.Time) Frame {
	return frame(TypePing, struct {
		Ts int64 `json:"ts"`
	}{ts.UnixMilli()})
}

type roomPayload struct {
	RoomID string `json:"roomId"`
}
