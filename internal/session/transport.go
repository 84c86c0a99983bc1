package session

import (
	"context"
	"errors"

	"github.com/coder/websocket"
)

// Transport is one live bidirectional connection. Exactly one Transport is
// held by a Client at a time.
type Transport interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// Dialer opens a Transport to the given URL. Tests substitute an in-memory
// implementation; production uses DialWebsocket.
type Dialer func(ctx context.Context, url string) (Transport, error)

// DialWebsocket connects over a websocket.
func DialWebsocket(ctx context.Context, url string) (Transport, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	// Snapshots grow with the discard piles; the default 32KiB limit is too
	// tight late in a round.
	conn.SetReadLimit(1 << 20)
	return &wsTransport{conn: conn}, nil
}

type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) Read(ctx context.Context) ([]byte, error) {
	_, data, err := t.conn.Read(ctx)
	return data, err
}

func (t *wsTransport) Write(ctx context.Context, data []byte) error {
	return t.conn.Write(ctx, websocket.MessageText, data)
}

func (t *wsTransport) Close() error {
	return t.conn.Close(websocket.StatusNormalClosure, "bye")
}

// CloseInfo records why the last connection ended. Code is the websocket
// close status, or -1 when the failure produced no close frame (dial errors,
// torn sockets).
type CloseInfo struct {
	Code   int    `json:"code"`
	Reason string `json:"reason"`
}

func closeInfoFromError(err error) CloseInfo {
	var ce websocket.CloseError
	if errors.As(err, &ce) {
		return CloseInfo{Code: int(ce.Code), Reason: ce.Reason}
	}
	return CloseInfo{Code: -1, Reason: err.Error()}
}
