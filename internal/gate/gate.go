// Package gate decides whether a player intent may be sent at all, and
// synthesizes the outbound frame when it may. The gating is advisory
// hardening only: the server re-validates every intent, so the gate's sole
// job is keeping obviously-invalid actions off the wire.
package gate

import (
	"errors"
	"time"

	"github.com/luoxi-dev/mahjong-client/internal/protocol"
	"github.com/luoxi-dev/mahjong-client/internal/session"
	"github.com/luoxi-dev/mahjong-client/internal/view"
)

var (
	ErrNoSnapshot        = errors.New("no game state received yet")
	ErrTileNotActionable = errors.New("tile is not discardable now")
	ErrNoReactionWindow  = errors.New("no reaction window is open")
	ErrClaimUnavailable  = errors.New("claim is not among the offered actions")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrAlreadyTing       = errors.New("ting already declared or pending")
	ErrNoTingPending     = errors.New("no ting proposal pending")
	ErrNotDiceRoller     = errors.New("not your dice roll")
)

// Conn is the slice of the session client the gate needs. *session.Client
// satisfies it.
type Conn interface {
	Send(protocol.Frame) session.SendResult
	Snapshot() *protocol.Snapshot
}

// Gate gates intents for one room.
type Gate struct {
	conn   Conn
	roomID string
	now    func() time.Time
}

func New(conn Conn, roomID string) *Gate {
	return &Gate{conn: conn, roomID: roomID, now: time.Now}
}

// Discard sends a discard intent if the tile is currently actionable. The
// SendResult is meaningful only when the returned error is nil.
func (g *Gate) Discard(tile string) (session.SendResult, error) {
	s := g.conn.Snapshot()
	if s == nil {
		return session.DroppedNotConnected, ErrNoSnapshot
	}
	v := view.Project(s, g.now())
	if !v.ActionableTiles[tile] {
		return session.DroppedNotConnected, ErrTileNotActionable
	}
	return g.conn.Send(protocol.Discard(g.roomID, tile)), nil
}

// Claim answers the open reaction window with one of the offered action ids.
func (g *Gate) Claim(actionID string) (session.SendResult, error) {
	s := g.conn.Snapshot()
	if s == nil {
		return session.DroppedNotConnected, ErrNoSnapshot
	}
	if !s.ReactionActive {
		return session.DroppedNotConnected, ErrNoReactionWindow
	}
	if _, ok := s.OfferedAction(actionID); !ok {
		return session.DroppedNotConnected, ErrClaimUnavailable
	}
	return g.conn.Send(protocol.Claim(g.roomID, actionID)), nil
}

// Ting proposes the declared-wait state. Only permitted on the local
// player's turn, and only if they are not already waiting or proposing.
func (g *Gate) Ting() (session.SendResult, error) {
	s := g.conn.Snapshot()
	if s == nil {
		return session.DroppedNotConnected, ErrNoSnapshot
	}
	v := view.Project(s, g.now())
	if !v.IsYourTurn {
		return session.DroppedNotConnected, ErrNotYourTurn
	}
	you := s.You()
	if you == nil || you.Ting || s.YourTingPending {
		return session.DroppedNotConnected, ErrAlreadyTing
	}
	return g.conn.Send(protocol.Ting(g.roomID)), nil
}

// TingCancel withdraws a pending ting proposal.
func (g *Gate) TingCancel() (session.SendResult, error) {
	s := g.conn.Snapshot()
	if s == nil {
		return session.DroppedNotConnected, ErrNoSnapshot
	}
	if !s.YourTingPending {
		return session.DroppedNotConnected, ErrNoTingPending
	}
	return g.conn.Send(protocol.TingCancel(g.roomID)), nil
}

// RollDice opens the next round; only the player the server is waiting on
// may roll.
func (g *Gate) RollDice() (session.SendResult, error) {
	s := g.conn.Snapshot()
	if s == nil {
		return session.DroppedNotConnected, ErrNoSnapshot
	}
	you := s.You()
	if !s.WaitingForDice || s.DiceRoller == nil || you == nil || s.DiceRoller.Name != you.Name {
		return session.DroppedNotConnected, ErrNotDiceRoller
	}
	return g.conn.Send(protocol.RollDice(g.roomID)), nil
}

// Join and Start are ungated: the server accepts them in any phase of play.

func (g *Gate) Join(name string) session.SendResult {
	return g.conn.Send(protocol.Join(g.roomID, name))
}

func (g *Gate) Start() session.SendResult {
	return g.conn.Send(protocol.Start(g.roomID))
}
