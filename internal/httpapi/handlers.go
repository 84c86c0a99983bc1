package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/luoxi-dev/mahjong-client/internal/session"
)

// StatusReport mirrors the session client's observable state for operators
// poking at a running client.
type StatusReport struct {
	Phase      session.Phase      `json:"phase"`
	LastPongAt *time.Time         `json:"lastPongAt,omitempty"`
	LastClose  *session.CloseInfo `json:"lastClose,omitempty"`
	RoomID     string             `json:"roomId,omitempty"`
	PlayerName string             `json:"playerName,omitempty"`
	HasState   bool               `json:"hasState"`
}

func Status(c *session.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := StatusReport{
			Phase:    c.Phase(),
			HasState: c.Snapshot() != nil,
		}
		if t, ok := c.LastPongAt(); ok {
			report.LastPongAt = &t
		}
		if info, ok := c.LastClose(); ok {
			report.LastClose = &info
		}
		if j, ok := c.Joined(); ok {
			report.RoomID = j.RoomID
			report.PlayerName = j.Name
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
