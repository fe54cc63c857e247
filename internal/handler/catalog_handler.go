package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hrbackend/internal/middleware"
	"hrbackend/internal/service"
	"hrbackend/pkg/response"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	runs := router.Group("/api/payroll-runs")
	{
		runs.GET("", middleware.RequireRole("admin", "hr", "supervisor", "employee"), h.ListRuns)
		runs.POST("", middleware.RequirePermission("payroll.write"), h.CreateRun)
		runs.PUT("/:id/close", middleware.RequirePermission("payroll.write"), h.CloseRun)
		runs.PUT("/:id/apply", middleware.RequirePermission("payroll.apply"), h.MarkRunApplied)
	}

	movements := router.Group("/api/movements")
	{
		movements.GET("", middleware.RequireRole("admin", "hr", "supervisor", "employee"), h.ListMovements)
		movements.POST("", middleware.RequirePermission("masterdata.write"), h.CreateMovement)
		movements.PUT("/:id", middleware.RequirePermission("masterdata.write"), h.UpdateMovement)
	}
}

func (h *CatalogHandler) ListRuns(c *gin.Context) {
	companyID, err := uuid.Parse(c.Query("company_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid company_id"))
		return
	}

	runs, err := h.catalogService.ListRuns(c.Request.Context(), companyID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, runs))
}

func (h *CatalogHandler) CreateRun(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req service.CreatePayrollRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	run, err := h.catalogService.CreateRun(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, run))
}

// CloseRun moves an OPEN run to CLOSED, after which lines can no longer target it
func (h *CatalogHandler) CloseRun(c *gin.Context) {
	h.moveRun(c, h.catalogService.CloseRun)
}

// MarkRunApplied moves a CLOSED run to APPLIED once payroll has been executed
func (h *CatalogHandler) MarkRunApplied(c *gin.Context) {
	h.moveRun(c, h.catalogService.MarkRunApplied)
}

func (h *CatalogHandler) moveRun(c *gin.Context, fn func(ctx context.Context, actor, id uuid.UUID) error) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := fn(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"updated": true}))
}

func (h *CatalogHandler) ListMovements(c *gin.Context) {
	movements, err := h.catalogService.ListMovements(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, movements))
}

func (h *CatalogHandler) CreateMovement(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req service.CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	movement, err := h.catalogService.CreateMovement(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}

func (h *CatalogHandler) UpdateMovement(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.UpdateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	movement, err := h.catalogService.UpdateMovement(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, movement))
}
