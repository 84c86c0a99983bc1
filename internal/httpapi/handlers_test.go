package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/luoxi-dev/mahjong-client/internal/session"
)

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(SetupRoutes(session.NewClient(session.Options{URL: "ws://test/ws"})))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestStatusReflectsFreshClient(t *testing.T) {
	srv := httptest.NewServer(SetupRoutes(session.NewClient(session.Options{URL: "ws://test/ws"})))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	defer resp.Body.Close()

	var report StatusReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("status decode failed: %v", err)
	}
	if report.Phase != session.PhaseDisconnected {
		t.Fatalf("expected disconnected, got %s", report.Phase)
	}
	if report.HasState || report.LastPongAt != nil || report.LastClose != nil {
		t.Fatalf("fresh client should report no activity: %+v", report)
	}
}
