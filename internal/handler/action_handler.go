package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hrbackend/internal/middleware"
	"hrbackend/internal/model"
	"hrbackend/internal/repository"
	"hrbackend/internal/service"
	"hrbackend/pkg/pagination"
	"hrbackend/pkg/response"
)

type ActionHandler struct {
	actionService service.ActionService
}

func NewActionHandler(actionService service.ActionService) *ActionHandler {
	return &ActionHandler{actionService: actionService}
}

func (h *ActionHandler) RegisterRoutes(router *gin.RouterGroup) {
	actions := router.Group("/api/actions")
	actions.Use(middleware.RequireRole("admin", "hr", "supervisor", "employee"))
	{
		actions.GET("", h.ListActions)
		actions.GET("/stats", h.GetStats)
		actions.GET("/eligibility", h.GetEligibility)
		actions.GET("/:id", h.GetAction)
		actions.GET("/:id/group", h.GetActionGroup)
		actions.POST("/:type", h.CreateAction)
		actions.PUT("/:id", h.UpdateAction)
		actions.PUT("/:id/advance", h.AdvanceAction)
		actions.PUT("/:id/invalidate", h.InvalidateAction)
		actions.PUT("/:id/approve", h.ApproveAction)
		actions.PUT("/:id/reject", h.RejectAction)
		actions.PUT("/:id/associate-payroll", middleware.RequirePermission("payroll.apply"), h.AssociateToPayroll)
	}
}

// @Summary      Create a personal action
// @Description  Creates one or more action headers of the given type. Line sets spanning several payroll runs fan out into one header per run under a shared group id.
// @Tags         actions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        type     path      string                       true  "Action type (ABSENCE, LICENSE, DISABILITY, BONUS, OVERTIME, RETENTION, DISCOUNT, GENERIC)"
// @Param        payload  body      service.CreateActionRequest  true  "Action payload"
// @Success      201      {object}  response.Response{data=[]service.ActionResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/actions/{type} [post]
func (h *ActionHandler) CreateAction(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	actionType := strings.ToUpper(c.Param("type"))

	var req service.CreateActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	created, err := h.actionService.Create(c.Request.Context(), actor, actionType, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

// @Summary      Replace an action's line set
// @Description  Replaces the full line set of an editable header. Submitting an identical set succeeds without recording anything.
// @Tags         actions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Action id"
// @Param        payload  body      service.UpdateActionRequest  true  "New line set"
// @Success      200      {object}  response.Response{data=service.ActionResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/actions/{id} [put]
func (h *ActionHandler) UpdateAction(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.UpdateActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	updated, err := h.actionService.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, updated))
}

// GetAction returns one header with its ordered lines
func (h *ActionHandler) GetAction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	action, err := h.actionService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, action))
}

// GetActionGroup returns all headers fanned out from the same submission
func (h *ActionHandler) GetActionGroup(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	group, err := h.actionService.GetGroup(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, group))
}

// ListActions returns headers filtered by company, employee, type and status
func (h *ActionHandler) ListActions(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.ActionFilter{
		ActionType: strings.ToUpper(c.Query("type")),
		Page:       params.Page,
		Limit:      params.Limit,
	}
	if raw := c.Query("company_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid company_id"))
			return
		}
		filter.CompanyID = &id
	}
	if raw := c.Query("employee_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid employee_id"))
			return
		}
		filter.EmployeeID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status, err := strconv.Atoi(raw)
		if err != nil || status < model.StatusDraft || status > model.StatusRejected {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid status"))
			return
		}
		filter.Status = status
	}
	filter.Live = c.Query("live") == "true"

	actions, total, err := h.actionService.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessPaginated(http.StatusOK, actions, total, params.Page, params.Limit))
}

// AdvanceAction moves a lined header one step along 1→2→3→4
func (h *ActionHandler) AdvanceAction(c *gin.Context) {
	h.runTransition(c, h.actionService.Advance)
}

// @Summary      Invalidate an action
// @Description  Retires a live lined header to Invalidated. The reason, when given, is stored on the header.
// @Tags         actions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true   "Action id"
// @Param        payload  body      service.TransitionRequest  false  "Optional reason"
// @Success      200      {object}  response.Response{data=service.ActionResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/actions/{id}/invalidate [put]
func (h *ActionHandler) InvalidateAction(c *gin.Context) {
	h.runReasonedTransition(c, h.actionService.Invalidate)
}

// ApproveAction resolves a generic action to Approved
func (h *ActionHandler) ApproveAction(c *gin.Context) {
	h.runTransition(c, h.actionService.Approve)
}

// RejectAction resolves a generic action to Rejected; the reason is mandatory
func (h *ActionHandler) RejectAction(c *gin.Context) {
	h.runReasonedTransition(c, h.actionService.Reject)
}

// AssociateToPayroll marks an approved header consumed by a payroll run
func (h *ActionHandler) AssociateToPayroll(c *gin.Context) {
	h.runTransition(c, h.actionService.AssociateToPayroll)
}

func (h *ActionHandler) runTransition(c *gin.Context, fn func(ctx context.Context, actor, id uuid.UUID) (service.ActionResponse, error)) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func (h *ActionHandler) runReasonedTransition(c *gin.Context, fn func(ctx context.Context, actor, id uuid.UUID, reason string) (service.ActionResponse, error)) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Empty body is fine; the service decides whether a reason is mandatory.
		req.Reason = ""
	}

	result, err := fn(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// GetStats returns header counts grouped by status name
func (h *ActionHandler) GetStats(c *gin.Context) {
	var companyID *uuid.UUID
	if raw := c.Query("company_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid company_id"))
			return
		}
		companyID = &id
	}

	stats, err := h.actionService.Stats(c.Request.Context(), companyID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// GetEligibility returns the payroll runs and movements a line may reference,
// with previously selected but no-longer-eligible entries flagged
func (h *ActionHandler) GetEligibility(c *gin.Context) {
	employeeID, err := uuid.Parse(c.Query("employee_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid employee_id"))
		return
	}
	actionType := strings.ToUpper(c.Query("type"))

	var actionID *uuid.UUID
	if raw := c.Query("action_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid action_id"))
			return
		}
		actionID = &id
	}

	eligibility, err := h.actionService.Eligibility(c.Request.Context(), employeeID, actionType, actionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, eligibility))
}
