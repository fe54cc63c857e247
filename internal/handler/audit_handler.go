package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hrbackend/internal/middleware"
	"hrbackend/internal/service"
	"hrbackend/pkg/response"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/audit-logs")
	group.Use(middleware.RequireRole("admin", "hr")) // Protect history logs
	{
		group.GET("", h.GetTrail)
	}
}

// GetTrail retrieves paginated audit entries, optionally scoped to one action
// @Summary      Get audit trail
// @Description  Retrieves audit entries newest first, optionally filtered by action id
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        action_id  query     string  false  "Action id filter"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 200, max 500)"
// @Success      200        {object}  response.Response{data=object}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetTrail(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	var actionID *uuid.UUID
	if raw := c.Query("action_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid action_id"))
			return
		}
		actionID = &id
	}

	logs, total, err := h.auditService.GetTrail(c.Request.Context(), actionID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve audit trail: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"total": total,
		"page":  page,
	}))
}
