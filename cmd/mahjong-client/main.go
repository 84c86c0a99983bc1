package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/luoxi-dev/mahjong-client/internal/gate"
	"github.com/luoxi-dev/mahjong-client/internal/httpapi"
	"github.com/luoxi-dev/mahjong-client/internal/protocol"
	"github.com/luoxi-dev/mahjong-client/internal/session"
	"github.com/luoxi-dev/mahjong-client/internal/view"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	url := envStr("WS_URL", "ws://localhost:8000/ws")
	roomID := envStr("ROOM_ID", "lobby")
	name := envStr("PLAYER_NAME", "guest")
	debugAddr := envStr("DEBUG_ADDR", "127.0.0.1:6060")

	var g *gate.Gate
	client := session.NewClient(session.Options{
		URL:               url,
		HeartbeatInterval: envDuration("HEARTBEAT_INTERVAL_MS", 10*time.Second),
		ReconnectDelay:    envDuration("RECONNECT_DELAY_MS", 2*time.Second),
		Logger:            logger.Named("session"),
		Handlers: session.Handlers{
			OnPhaseChange: func(p session.Phase) {
				logger.Info("phase", zap.String("phase", string(p)))
			},
			OnHello: func(_ json.RawMessage) {
				g.Join(name)
			},
			OnJoined: func(j protocol.Joined) {
				logger.Info("joined", zap.String("room", j.RoomID), zap.String("name", j.Name))
			},
			OnState: func(s *protocol.Snapshot) {
				logger.Info("state",
					zap.Bool("started", s.Started),
					zap.Int("wall", s.WallCount),
					zap.Int("turn", s.TurnIndex))
			},
			OnErrorMsg: func(msg string) {
				logger.Warn("server error", zap.String("message", msg))
			},
			OnSystem: func(msg string) {
				logger.Info("system", zap.String("message", msg))
			},
		},
	})
	g = gate.New(client, roomID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("debug server listening", zap.String("addr", debugAddr))
		if err := http.ListenAndServe(debugAddr, httpapi.SetupRoutes(client)); err != nil {
			logger.Warn("debug server stopped", zap.Error(err))
		}
	}()

	var last view.View
	ticker := view.NewTicker(view.DefaultTickInterval, client.Snapshot, func(v view.View) {
		if viewEqual(v, last) {
			return
		}
		last = v
		fields := []zap.Field{zap.Bool("yourTurn", v.IsYourTurn)}
		if v.ReactionOpen {
			fields = append(fields, zap.Int("reactionSeconds", v.ReactionSecondsRemaining))
		}
		logger.Info("view", fields...)
	})
	go ticker.Run(ctx)

	client.Connect()
	<-ctx.Done()
	client.Disconnect()
}

func viewEqual(a, b view.View) bool {
	if a.IsYourTurn != b.IsYourTurn || a.CanTing != b.CanTing ||
		a.ReactionOpen != b.ReactionOpen ||
		a.ReactionSecondsRemaining != b.ReactionSecondsRemaining ||
		len(a.ActionableTiles) != len(b.ActionableTiles) {
		return false
	}
	for t := range a.ActionableTiles {
		if !b.ActionableTiles[t] {
			return false
		}
	}
	return true
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
