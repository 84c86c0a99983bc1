package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/luoxi-dev/mahjong-client/internal/session"
)

func SetupRoutes(c *session.Client) http.Handler {
	r := chi.NewRouter()

	// Local debug surface only; never exposed beyond loopback.
	r.Get("/healthz", Healthz)
	r.Get("/status", Status(c))
	return r
}
