package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hrbackend/internal/middleware"
	"hrbackend/internal/service"
	"hrbackend/pkg/pagination"
	"hrbackend/pkg/response"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/notifications")
	group.Use(middleware.RequireRole("admin", "hr", "supervisor", "employee"))
	{
		group.GET("", h.ListNotifications)
		group.PUT("/:id/read", h.MarkRead)
	}
}

// ListNotifications returns the caller's visible notifications: direct ones,
// ones for their role and global broadcasts
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	roleRaw, _ := c.Get("userRole")
	role, _ := roleRaw.(string)

	params := pagination.Parse(c)
	notifications, total, err := h.notificationService.ListForUser(c.Request.Context(), actor, role, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessPaginated(http.StatusOK, notifications, total, params.Page, params.Limit))
}

// MarkRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), id, actor); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"read": true}))
}
