package gate

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luoxi-dev/mahjong-client/internal/protocol"
	"github.com/luoxi-dev/mahjong-client/internal/session"
	"github.com/luoxi-dev/mahjong-client/internal/view"
)

// fakeConn records frames the gate lets through.
type fakeConn struct {
	snap *protocol.Snapshot
	sent []protocol.Frame
}

func (c *fakeConn) Send(f protocol.Frame) session.SendResult {
	c.sent = append(c.sent, f)
	return session.Sent
}

func (c *fakeConn) Snapshot() *protocol.Snapshot { return c.snap }

func tingPendingSnapshot() *protocol.Snapshot {
	return &protocol.Snapshot{
		Started:        true,
		ExpectsDiscard: true,
		Players: []protocol.Player{
			{Name: "guest", Index: 0, You: true, Turn: true},
			{Name: "east", Index: 1},
		},
		YourHand:         []string{"C4", "C5", "C6", "C7"},
		YourTingPending:  true,
		TingDiscardables: []string{"C5", "C6"},
	}
}

func TestDiscardGatedByTingConstraint(t *testing.T) {
	conn := &fakeConn{snap: tingPendingSnapshot()}
	g := New(conn, "lobby")

	_, err := g.Discard("C4")
	require.ErrorIs(t, err, ErrTileNotActionable)
	require.Empty(t, conn.sent)

	res, err := g.Discard("C5")
	require.NoError(t, err)
	require.Equal(t, session.Sent, res)
	require.Len(t, conn.sent, 1)
	require.Equal(t, protocol.TypeDiscard, conn.sent[0].Type)
	require.JSONEq(t, `{"roomId":"lobby","tile":"C5"}`, string(conn.sent[0].Payload))
}

func TestDiscardRejectedOffTurn(t *testing.T) {
	snap := tingPendingSnapshot()
	snap.Players[0].Turn = false
	conn := &fakeConn{snap: snap}
	g := New(conn, "lobby")

	_, err := g.Discard("C5")
	require.ErrorIs(t, err, ErrTileNotActionable)
	require.Empty(t, conn.sent)
}

func TestDiscardWithoutSnapshot(t *testing.T) {
	g := New(&fakeConn{}, "lobby")
	_, err := g.Discard("B1")
	require.ErrorIs(t, err, ErrNoSnapshot)
}

func TestClaimGating(t *testing.T) {
	snap := tingPendingSnapshot()
	snap.ReactionActive = true
	snap.YourActions = []protocol.Action{
		{ID: "pong-C5", Type: "pong", Tiles: []string{"C5", "C5"}},
		{ID: "pass", Type: "pass"},
	}
	conn := &fakeConn{snap: snap}
	g := New(conn, "lobby")

	_, err := g.Claim("chi-C4-C6")
	require.ErrorIs(t, err, ErrClaimUnavailable)

	res, err := g.Claim("pong-C5")
	require.NoError(t, err)
	require.Equal(t, session.Sent, res)
	require.JSONEq(t, `{"roomId":"lobby","claim":{"id":"pong-C5"}}`, string(conn.sent[0].Payload))

	snap.ReactionActive = false
	_, err = g.Claim("pong-C5")
	require.ErrorIs(t, err, ErrNoReactionWindow)
}

func TestTingGating(t *testing.T) {
	snap := tingPendingSnapshot()
	snap.YourTingPending = false
	conn := &fakeConn{snap: snap}
	g := New(conn, "lobby")

	res, err := g.Ting()
	require.NoError(t, err)
	require.Equal(t, session.Sent, res)
	require.Equal(t, protocol.TypeTing, conn.sent[0].Type)

	// Already declared.
	snap.Players[0].Ting = true
	_, err = g.Ting()
	require.ErrorIs(t, err, ErrAlreadyTing)
	snap.Players[0].Ting = false

	// Proposal already pending.
	snap.YourTingPending = true
	_, err = g.Ting()
	require.ErrorIs(t, err, ErrAlreadyTing)
	snap.YourTingPending = false

	// Off turn.
	snap.ExpectsDiscard = false
	_, err = g.Ting()
	require.ErrorIs(t, err, ErrNotYourTurn)
}

func TestTingCancelGating(t *testing.T) {
	snap := tingPendingSnapshot()
	conn := &fakeConn{snap: snap}
	g := New(conn, "lobby")

	res, err := g.TingCancel()
	require.NoError(t, err)
	require.Equal(t, session.Sent, res)
	require.Equal(t, protocol.TypeTingCancel, conn.sent[0].Type)

	snap.YourTingPending = false
	_, err = g.TingCancel()
	require.ErrorIs(t, err, ErrNoTingPending)
}

func TestRollDiceGating(t *testing.T) {
	snap := tingPendingSnapshot()
	conn := &fakeConn{snap: snap}
	g := New(conn, "lobby")

	_, err := g.RollDice()
	require.ErrorIs(t, err, ErrNotDiceRoller)

	snap.WaitingForDice = true
	snap.DiceRoller = &protocol.DiceRoller{Name: "east"}
	_, err = g.RollDice()
	require.ErrorIs(t, err, ErrNotDiceRoller)

	snap.DiceRoller = &protocol.DiceRoller{Name: "guest"}
	res, err := g.RollDice()
	require.NoError(t, err)
	require.Equal(t, session.Sent, res)
	require.Equal(t, protocol.TypeRollDice, conn.sent[0].Type)
}

// End-to-end: a state push through a live session client makes the discard
// both derivable and sendable, and the wire frame has the documented shape.

type e2eTransport struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   sync.Once
}

func (t *e2eTransport) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-t.in:
		return data, nil
	case <-t.closed:
		return nil, errors.New("connection reset by peer")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *e2eTransport) Write(ctx context.Context, data []byte) error {
	select {
	case t.out <- data:
		return nil
	case <-t.closed:
		return errors.New("write on closed connection")
	}
}

func (t *e2eTransport) Close() error {
	t.once.Do(func() { close(t.closed) })
	return nil
}

func TestDiscardEndToEnd(t *testing.T) {
	tr := &e2eTransport{
		in:     make(chan []byte, 4),
		out:    make(chan []byte, 4),
		closed: make(chan struct{}),
	}
	states := make(chan *protocol.Snapshot, 1)
	client := session.NewClient(session.Options{
		URL:               "ws://test/ws",
		HeartbeatInterval: time.Hour, // keep pings out of the capture
		Dialer: func(ctx context.Context, url string) (session.Transport, error) {
			return tr, nil
		},
		Handlers: session.Handlers{
			OnState: func(s *protocol.Snapshot) { states <- s },
		},
	})
	defer client.Disconnect()
	client.Connect()

	tr.in <- []byte(`{"type":"state","payload":{
		"started":true,"expectsDiscard":true,
		"players":[{"name":"guest","index":0,"you":true,"turn":true},
		           {"name":"east","index":1}],
		"yourHand":["B1","B2"],
		"yourTingPending":false}}`)

	select {
	case <-states:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for state")
	}

	v := view.Project(client.Snapshot(), time.Now())
	require.True(t, v.IsYourTurn)
	require.Equal(t, map[string]bool{"B1": true, "B2": true}, v.ActionableTiles)

	g := New(client, "lobby")
	res, err := g.Discard("B1")
	require.NoError(t, err)
	require.Equal(t, session.Sent, res)

	select {
	case data := <-tr.out:
		var f protocol.Frame
		require.NoError(t, json.Unmarshal(data, &f))
		require.Equal(t, protocol.TypeDiscard, f.Type)
		require.JSONEq(t, `{"roomId":"lobby","tile":"B1"}`, string(f.Payload))
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for discard frame")
	}
}
