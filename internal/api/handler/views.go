package handler

import (
	"net/http"
	"teamchat/backend/internal/apperr"
	"teamchat/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetStats serves the hub counters.
func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Hub.Stats())
}

// GetPresence reports whether a user has a live connection on this process
// or, when a PresenceReader is configured, on any process.
func (h *Handler) GetPresence(c *gin.Context) {
	userID := c.Param("userId")
	online := h.Hub.Registry.Online(userID)

	if !online && h.opts.Presence != nil {
		var err error
		online, err = h.opts.Presence.IsOnline(c.Request.Context(), userID)
		if err != nil {
			h.log.WithField("user_id", userID).WithError(err).Warn("Presence lookup failed")
		}
	}

	c.JSON(http.StatusOK, gin.H{"userId": userID, "online": online})
}

// ListOnline returns the users with a live connection: on any process when a
// PresenceReader is configured, on this one otherwise.
func (h *Handler) ListOnline(c *gin.Context) {
	local := lo.Uniq(lo.Map(h.Hub.Registry.All(), func(conn chathub.Conn, _ int) string { return conn.UserID() }))
	if h.opts.Presence == nil {
		c.JSON(http.StatusOK, gin.H{"userIds": local})
		return
	}

	remote, err := h.opts.Presence.OnlineUsers(c.Request.Context())
	if err != nil {
		respondError(c, apperr.Transport("Presence is unavailable", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"userIds": lo.Union(local, remote)})
}
