package handler

import (
	"teamchat/backend/internal/auth"
	"teamchat/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ServeWebSocket перевіряє токен і оновлює HTTP-з'єднання до WebSocket.
// Токен передається в параметрі access_token, бо браузерний WebSocket не
// дозволяє додати заголовок Authorization.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	token := c.Query("access_token")
	if token == "" {
		token = auth.BearerToken(c)
	}

	id, err := h.Verifier.Verify(token)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log.WithField("user_id", id.UserID).WithError(err).Debug("WebSocket upgrade failed")
		return
	}

	client := chathub.NewWebSocketClient(h.Hub, conn, id.UserID, h.opts.Pump)
	if err := client.Serve(c.Request.Context(), id); err != nil {
		h.log.WithFields(logrus.Fields{"user_id": id.UserID, "conn_id": client.Handle()}).
			WithError(err).Info("Connection rejected")
	}
}
