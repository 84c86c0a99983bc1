package protocol

import "encoding/json"

// Frame is the wire envelope for every message in either direction.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound frame types.
const (
	TypeHello  = "hello"
	TypeJoined = "joined"
	TypeState  = "state"
	TypePong   = "pong"
	TypeError  = "error"
	TypeSystem = "system"
)

// Outbound frame types.
const (
	TypeJoin       = "join"
	TypeStart      = "start"
	TypeDraw       = "draw"
	TypeDiscard    = "discard"
	TypeClaim      = "claim"
	TypeTing       = "ting"
	TypeTingCancel = "ting_cancel"
	TypeRollDice   = "roll_dice"
	TypePing       = "ping"
)

// Message is the decoded form of an inbound frame, a closed variant set.
// Unrecognized types decode to Unknown so callers can observe them before
// dropping.
type Message interface{ isMessage() }

// Hello is the session greeting. Its payload is opaque to the client.
type Hello struct {
	Payload json.RawMessage
}

// Joined confirms room entry under a given name.
type Joined struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

// State carries a full Snapshot replacement.
type State struct {
	Snapshot *Snapshot
}

// Pong acknowledges a liveness probe. Nothing in its payload is consumed;
// arrival time is what matters.
type Pong struct{}

// ErrorMsg is an authority-reported error for display. It never alters the
// connection phase or the current snapshot.
type ErrorMsg struct {
	Message string `json:"message"`
}

// System is a human-readable room notice (join/leave announcements).
type System struct {
	Message string `json:"message"`
}

// Unknown is any frame whose type is outside the recognized set.
type Unknown struct {
	Type    string
	Payload json.RawMessage
}

func (Hello) isMessage()    {}
func (Joined) isMessage()   {}
func (State) isMessage()    {}
func (Pong) isMessage()     {}
func (ErrorMsg) isMessage() {}
func (System) isMessage()   {}
func (Unknown) isMessage()  {}
