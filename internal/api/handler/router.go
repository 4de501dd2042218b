package handler

import (
	"net/http"
	"teamchat/backend/internal/auth"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Router builds the gin engine with every route of the service.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	r.GET("/healthz", h.Healthz)
	r.GET("/ws", h.ServeWebSocket)
	if h.opts.Issuer != nil {
		r.POST("/auth/token", h.IssueToken)
	}

	api := r.Group("/api")
	api.GET("/me", auth.RequireIdentity(h.Verifier, auth.AllowUnverified()), h.GetMe)

	authed := api.Group("", auth.RequireIdentity(h.Verifier))
	authed.GET("/stats", h.GetStats)
	authed.GET("/presence", h.ListOnline)
	authed.GET("/users/:userId/presence", h.GetPresence)

	channel := func(c *gin.Context) auth.Resource { return auth.Channel(c.Param("channelId")) }
	canManageChannel := auth.RequireCapability(h.Hub.Storage, channel, auth.ActionManageMembers)
	authed.POST("/channels/:channelId/members", canManageChannel, h.AddChannelMembers)
	authed.DELETE("/channels/:channelId/members", canManageChannel, h.RemoveChannelMembers)

	workspace := func(c *gin.Context) auth.Resource { return auth.Workspace(c.Param("workspaceId")) }
	canManageWorkspace := auth.RequireCapability(h.Hub.Storage, workspace, auth.ActionManageMembers)
	authed.POST("/workspaces/:workspaceId/members", canManageWorkspace, h.AddWorkspaceMembers)
	authed.DELETE("/workspaces/:workspaceId/members", canManageWorkspace, h.RemoveWorkspaceMembers)

	return r
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := h.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("Request failed")
		} else {
			entry.Debug("Request served")
		}
	}
}
