// Package handler exposes the chat engine over HTTP: the websocket gateway,
// a thread read endpoint and operational routes.
package handler

import (
	"ethos/backend/internal/chat"
	"ethos/backend/internal/chathub"
	"ethos/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Handler holds the collaborators the routes need.
type Handler struct {
	Hub   *chathub.ManagerService
	Chat  *chat.Service
	Auth  *TokenAuth
	Store storage.Storage

	// Redis is checked by /healthz when set.
	Redis *redis.Client
	// Gatherer backs /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer
}

func NewHandler(hub *chathub.ManagerService, svc *chat.Service, auth *TokenAuth, store storage.Storage) *Handler {
	return &Handler{
		Hub:      hub,
		Chat:     svc,
		Auth:     auth,
		Store:    store,
		Gatherer: prometheus.DefaultGatherer,
	}
}

// Routes mounts every endpoint on r.
func (h *Handler) Routes(r *gin.Engine) {
	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{})))

	authed := r.Group("/", h.RequireIdentity())
	authed.GET("/ws", h.ServeWebSocket)
	authed.GET("/cases/:code/thread", h.GetThread)
}
