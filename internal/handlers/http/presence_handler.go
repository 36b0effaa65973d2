package http

import (
	"net/http"
	"strings"

	"interviewsignal/internal/core/domain"
	"interviewsignal/internal/core/ports"
	"interviewsignal/pkg/errors"
	"interviewsignal/pkg/validation"

	"github.com/gin-gonic/gin"
)

type PresenceHandler struct {
	presence ports.PresenceQuery
	notifier ports.UserNotifier
}

func NewPresenceHandler(presence ports.PresenceQuery, notifier ports.UserNotifier) *PresenceHandler {
	return &PresenceHandler{
		presence: presence,
		notifier: notifier,
	}
}

// SetupRoutes mounts the read API behind auth and the notify endpoint
// behind service.
func (h *PresenceHandler) SetupRoutes(router gin.IRouter, auth, service gin.HandlerFunc) {
	api := router.Group("/api/v1")

	read := api.Group("", auth)
	{
		read.GET("/presence", h.ListOnline)
		read.GET("/presence/:userId", h.GetPresence)
		read.GET("/rooms/:roomId/members", h.ListRoomMembers)
	}

	api.POST("/users/:userId/notify", service, h.NotifyUser)
}

func (h *PresenceHandler) ListOnline(c *gin.Context) {
	entries := h.presence.PresenceSnapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"users": entries,
		"count": len(entries),
	})
}

func (h *PresenceHandler) GetPresence(c *gin.Context) {
	userID := c.Param("userId")
	if err := validation.ValidateUserID(userID); err != nil {
		_ = c.Error(errors.NewValidationError(domain.ReasonInvalidParameters, err.Error()))
		return
	}

	c.JSON(http.StatusOK, domain.PresenceUpdate{
		UserID:   domain.UserID(userID),
		IsOnline: h.presence.IsOnline(c.Request.Context(), domain.UserID(userID)),
	})
}

func (h *PresenceHandler) ListRoomMembers(c *gin.Context) {
	roomID := c.Param("roomId")
	if err := validation.ValidateRoomID(roomID); err != nil {
		_ = c.Error(errors.NewValidationError(domain.ReasonInvalidParameters, err.Error()))
		return
	}

	members := h.presence.RoomMembers(domain.RoomID(roomID))
	if members == nil {
		members = []domain.Member{}
	}
	c.JSON(http.StatusOK, gin.H{
		"roomId":  roomID,
		"members": members,
	})
}

type notifyRequest struct {
	Event   string      `json:"event" binding:"required"`
	Payload interface{} `json:"payload"`
}

func (h *PresenceHandler) NotifyUser(c *gin.Context) {
	userID := c.Param("userId")
	if err := validation.ValidateUserID(userID); err != nil {
		_ = c.Error(errors.NewValidationError(domain.ReasonInvalidParameters, err.Error()))
		return
	}

	var req notifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.NewValidationError(domain.ReasonMissingParameters, "event is required"))
		return
	}
	if strings.HasPrefix(req.Event, "interview:") || req.Event == domain.EventAck {
		_ = c.Error(errors.NewValidationError(domain.ReasonInvalidParameters, "reserved event name"))
		return
	}

	delivered := h.notifier.NotifyUser(domain.UserID(userID), req.Event, req.Payload)
	c.JSON(http.StatusOK, gin.H{"delivered": delivered})
}
