// Package handler exposes the hub over HTTP: the WebSocket endpoint, the
// membership REST endpoints that feed the hub, and a few read-only views.
package handler

import (
	"context"
	"net/http"
	"teamchat/backend/internal/apperr"
	"teamchat/backend/internal/auth"
	"teamchat/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// PresenceReader reports presence recorded by any hub process.
type PresenceReader interface {
	IsOnline(ctx context.Context, userID string) (bool, error)
	OnlineUsers(ctx context.Context) ([]string, error)
}

// Options configures a Handler. Zero values disable the optional parts.
type Options struct {
	// Issuer enables POST /auth/token. Leave nil in production.
	Issuer *auth.TokenIssuer

	// Presence answers for users connected to other processes.
	Presence PresenceReader

	Pump chathub.PumpOptions

	// AllowedOrigins for the WebSocket handshake; "*" allows any origin.
	// Empty means same origin only.
	AllowedOrigins []string
}

// Handler містить посилання на ChatHub і все, що потрібно HTTP-шару
type Handler struct {
	Hub      *chathub.ManagerService
	Verifier auth.Verifier

	log      *logrus.Logger
	opts     Options
	upgrader websocket.Upgrader
}

func NewHandler(hub *chathub.ManagerService, verifier auth.Verifier, log *logrus.Logger, opts Options) *Handler {
	h := &Handler{
		Hub:      hub,
		Verifier: verifier,
		log:      log,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if len(opts.AllowedOrigins) > 0 {
		h.upgrader.CheckOrigin = h.checkOrigin
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || lo.Contains(h.opts.AllowedOrigins, "*") || lo.Contains(h.opts.AllowedOrigins, origin)
}

// respondError writes err as {"statusCode", "title"}, the same shape the hub
// uses for Error events.
func respondError(c *gin.Context, err error) {
	status, title := apperr.StatusCode(err)
	c.AbortWithStatusJSON(status, gin.H{"statusCode": status, "title": title})
}
