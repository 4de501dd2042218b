package handler

import (
	"context"
	"net/http"
	"teamchat/backend/internal/apperr"
	"teamchat/backend/internal/auth"
	"teamchat/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type membersRequest struct {
	UserIDs []string `json:"userIds" binding:"required,min=1,dive,required"`
}

type persistFunc func(ctx context.Context, actorID, targetID string, userIDs []string) error

func (h *Handler) AddChannelMembers(c *gin.Context) {
	h.changeMembers(c, models.ScopeChannel, c.Param("channelId"), true, h.Hub.Storage.AddChannelMembers)
}

func (h *Handler) RemoveChannelMembers(c *gin.Context) {
	h.changeMembers(c, models.ScopeChannel, c.Param("channelId"), false, h.Hub.Storage.RemoveChannelMembers)
}

func (h *Handler) AddWorkspaceMembers(c *gin.Context) {
	h.changeMembers(c, models.ScopeWorkspace, c.Param("workspaceId"), true, h.Hub.Storage.AddWorkspaceMembers)
}

func (h *Handler) RemoveWorkspaceMembers(c *gin.Context) {
	h.changeMembers(c, models.ScopeWorkspace, c.Param("workspaceId"), false, h.Hub.Storage.RemoveWorkspaceMembers)
}

// changeMembers persists a membership change and hands it to the hub, which
// joins or evicts live connections and notifies the affected users.
// The capability check has already run in the middleware chain.
func (h *Handler) changeMembers(c *gin.Context, scope models.MembershipScope, targetID string, add bool, persist persistFunc) {
	var req membersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Domain("Malformed request data"))
		return
	}

	ctx := c.Request.Context()
	actorID := auth.CurrentUser(ctx)
	if err := persist(ctx, actorID, targetID, req.UserIDs); err != nil {
		respondError(c, err)
		return
	}

	change := models.MembershipChange{
		Scope:    scope,
		TargetID: targetID,
		UserIDs:  req.UserIDs,
		Added:    add,
		ActorID:  actorID,
	}
	notified := h.Hub.PropagateMembershipChange(ctx, change, "")

	c.JSON(http.StatusOK, gin.H{
		"scope":    scope,
		"targetId": targetID,
		"userIds":  req.UserIDs,
		"added":    add,
		"notified": notified,
	})
}
