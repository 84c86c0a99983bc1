// Package session owns the connection lifecycle against the game server:
// connect, heartbeat, disconnect detection and fixed-delay reconnection. It
// holds the latest authoritative snapshot raw; deriving anything from it is
// the view package's job.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luoxi-dev/mahjong-client/internal/protocol"
)

// Phase is the connection lifecycle state.
type Phase string

const (
	PhaseDisconnected Phase = "disconnected"
	PhaseConnecting   Phase = "connecting"
	PhaseConnected    Phase = "connected"
)

// SendResult reports whether an outbound frame reached the transport.
type SendResult int

const (
	Sent SendResult = iota
	DroppedNotConnected
)

func (r SendResult) String() string {
	switch r {
	case Sent:
		return "sent"
	case DroppedNotConnected:
		return "dropped: not connected"
	default:
		return "unknown"
	}
}

// Handlers are the upward notifications a Client emits. All are optional and
// are invoked without internal locks held, so a handler may call back into
// the Client. OnPhaseChange deliveries are serialized and arrive in
// transition order.
type Handlers struct {
	OnPhaseChange func(Phase)
	OnHello       func(json.RawMessage)
	OnJoined      func(protocol.Joined)
	OnState       func(*protocol.Snapshot)
	OnErrorMsg    func(string)
	OnSystem      func(string)
}

type Options struct {
	URL               string
	HeartbeatInterval time.Duration // default 10s
	ReconnectDelay    time.Duration // default 2s
	Dialer            Dialer        // default DialWebsocket
	Logger            *zap.Logger   // default zap.NewNop()
	Handlers          Handlers
}

const (
	defaultHeartbeatInterval = 10 * time.Second
	defaultReconnectDelay    = 2 * time.Second
	dialTimeout              = 10 * time.Second
	writeTimeout             = 3 * time.Second
)

// Client is the session client. All methods are safe for concurrent use and
// safe to call from Handlers callbacks.
type Client struct {
	opts Options
	log  *zap.Logger

	mu        sync.Mutex
	phase     Phase
	gen       uint64 // connection attempt generation; stale callbacks check it
	transport Transport
	hbStop    chan struct{}
	reconnect *time.Timer
	lastPong  time.Time
	lastClose *CloseInfo
	joined    *protocol.Joined
	snapshot  *protocol.Snapshot

	// Phase notifications are queued under mu in transition order and
	// drained by a single goroutine at a time, so OnPhaseChange observes
	// transitions in the order they happened.
	notifyQueue []Phase
	notifying   bool
}

func NewClient(opts Options) *Client {
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = defaultHeartbeatInterval
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	if opts.Dialer == nil {
		opts.Dialer = DialWebsocket
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		opts:  opts,
		log:   opts.Logger,
		phase: PhaseDisconnected,
	}
}

// Connect starts a connection attempt. It is a no-op while already
// connecting or connected.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.phase != PhaseDisconnected {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	c.phase = PhaseConnecting
	c.enqueuePhaseLocked(PhaseConnecting)
	c.mu.Unlock()

	c.flushPhases()
	go c.dial(gen)
}

// Disconnect tears the session down: cancels any pending reconnect, stops the
// heartbeat, closes the transport if open. No reconnect is scheduled. Safe to
// call from any state, including before any Connect.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.gen++ // invalidates in-flight dial and read callbacks
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	c.stopHeartbeatLocked()
	t := c.transport
	c.transport = nil
	if c.phase != PhaseDisconnected {
		c.phase = PhaseDisconnected
		c.enqueuePhaseLocked(PhaseDisconnected)
	}
	c.mu.Unlock()

	if t != nil {
		_ = t.Close()
	}
	c.flushPhases()
}

// Send transmits a frame if the transport is open. There is no queueing: a
// frame offered while disconnected, or that fails to reach the wire, reports
// DroppedNotConnected and is gone.
func (c *Client) Send(f protocol.Frame) SendResult {
	c.mu.Lock()
	t := c.transport
	open := c.phase == PhaseConnected && t != nil
	c.mu.Unlock()
	if !open {
		return DroppedNotConnected
	}

	data, err := protocol.Encode(f)
	if err != nil {
		c.log.Warn("encode failed", zap.String("type", f.Type), zap.Error(err))
		return DroppedNotConnected
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := t.Write(ctx, data); err != nil {
		c.log.Warn("write failed", zap.String("type", f.Type), zap.Error(err))
		return DroppedNotConnected
	}
	return Sent
}

// Phase returns the current connection phase.
func (c *Client) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Snapshot returns the latest authoritative snapshot, or nil before the
// first state frame arrives.
func (c *Client) Snapshot() *protocol.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// LastPongAt reports when the last liveness acknowledgment arrived.
func (c *Client) LastPongAt() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPong, !c.lastPong.IsZero()
}

// LastClose reports why the previous connection ended.
func (c *Client) LastClose() (CloseInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastClose == nil {
		return CloseInfo{}, false
	}
	return *c.lastClose, true
}

// Joined reports the room confirmation received on the current session.
func (c *Client) Joined() (protocol.Joined, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.joined == nil {
		return protocol.Joined{}, false
	}
	return *c.joined, true
}

func (c *Client) dial(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	t, err := c.opts.Dialer(ctx, c.opts.URL)
	if err != nil {
		c.transportClosed(gen, CloseInfo{Code: -1, Reason: err.Error()})
		return
	}

	c.mu.Lock()
	if gen != c.gen || c.phase != PhaseConnecting {
		c.mu.Unlock()
		_ = t.Close()
		return
	}
	c.transport = t
	c.phase = PhaseConnected
	c.enqueuePhaseLocked(PhaseConnected)
	stop := make(chan struct{})
	c.hbStop = stop
	c.mu.Unlock()

	c.log.Info("connected", zap.String("url", c.opts.URL))
	c.flushPhases()
	go c.heartbeatLoop(stop)
	go c.readLoop(gen, t)
}

func (c *Client) readLoop(gen uint64, t Transport) {
	for {
		data, err := t.Read(context.Background())
		if err != nil {
			c.transportClosed(gen, closeInfoFromError(err))
			return
		}
		c.handleFrame(gen, data)
	}
}

func (c *Client) heartbeatLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(c.opts.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Send(protocol.Ping(time.Now()))
		case <-stop:
			return
		}
	}
}

// handleFrame processes one inbound frame from the connection attempt gen.
// A frame read just before the connection was superseded must neither mutate
// client state nor reach the handlers.
func (c *Client) handleFrame(gen uint64, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		// Best-effort decode: one malformed frame must not tear the
		// session down.
		c.log.Debug("dropping malformed frame", zap.Error(err))
		return
	}

	h := c.opts.Handlers
	switch m := msg.(type) {
	case protocol.Hello:
		if c.stale(gen) {
			return
		}
		if h.OnHello != nil {
			h.OnHello(m.Payload)
		}
	case protocol.Joined:
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		joined := m
		c.joined = &joined
		c.mu.Unlock()
		if h.OnJoined != nil {
			h.OnJoined(m)
		}
	case protocol.State:
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		c.snapshot = m.Snapshot
		c.mu.Unlock()
		if h.OnState != nil {
			h.OnState(m.Snapshot)
		}
	case protocol.Pong:
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		c.lastPong = time.Now()
		c.mu.Unlock()
	case protocol.ErrorMsg:
		if c.stale(gen) {
			return
		}
		if h.OnErrorMsg != nil {
			h.OnErrorMsg(m.Message)
		}
	case protocol.System:
		if c.stale(gen) {
			return
		}
		if h.OnSystem != nil {
			h.OnSystem(m.Message)
		}
	case protocol.Unknown:
		c.log.Debug("dropping unknown frame", zap.String("type", m.Type))
	}
}

func (c *Client) stale(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen != c.gen
}

func (c *Client) transportClosed(gen uint64, info CloseInfo) {
	c.mu.Lock()
	if gen != c.gen {
		// A newer attempt or an explicit Disconnect superseded this
		// connection.
		c.mu.Unlock()
		return
	}
	c.lastClose = &info
	c.stopHeartbeatLocked()
	t := c.transport
	c.transport = nil
	c.phase = PhaseDisconnected
	c.enqueuePhaseLocked(PhaseDisconnected)
	c.scheduleReconnectLocked()
	c.mu.Unlock()

	if t != nil {
		_ = t.Close()
	}
	c.log.Info("disconnected",
		zap.Int("code", info.Code),
		zap.String("reason", info.Reason))
	c.flushPhases()
}

// scheduleReconnectLocked arms the reconnect timer unless one is already
// pending. At most one timer exists at any time. The callback re-checks the
// generation: a timer that fires concurrently with Disconnect escapes
// timer.Stop, and must not resurrect the session.
func (c *Client) scheduleReconnectLocked() {
	if c.reconnect != nil {
		return
	}
	gen := c.gen
	c.reconnect = time.AfterFunc(c.opts.ReconnectDelay, func() {
		c.mu.Lock()
		c.reconnect = nil
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
		c.Connect()
	})
}

func (c *Client) stopHeartbeatLocked() {
	if c.hbStop != nil {
		close(c.hbStop)
		c.hbStop = nil
	}
}

// enqueuePhaseLocked records a phase transition for delivery. Callers hold
// c.mu, which makes the queue order the transition order.
func (c *Client) enqueuePhaseLocked(p Phase) {
	if c.opts.Handlers.OnPhaseChange == nil {
		return
	}
	c.notifyQueue = append(c.notifyQueue, p)
}

// flushPhases drains the notification queue. Only one goroutine drains at a
// time; a transition made by a reentrant handler call is delivered by the
// drainer already running instead of deadlocking on it.
func (c *Client) flushPhases() {
	h := c.opts.Handlers.OnPhaseChange
	if h == nil {
		return
	}
	c.mu.Lock()
	if c.notifying {
		c.mu.Unlock()
		return
	}
	c.notifying = true
	for len(c.notifyQueue) > 0 {
		p := c.notifyQueue[0]
		c.notifyQueue = c.notifyQueue[1:]
		c.mu.Unlock()
		h(p)
		c.mu.Lock()
	}
	c.notifying = false
	c.mu.Unlock()
}
