package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hrbackend/internal/middleware"
	"hrbackend/internal/service"
	"hrbackend/pkg/pagination"
	"hrbackend/pkg/response"
)

type EmployeeHandler struct {
	employeeService service.EmployeeService
}

func NewEmployeeHandler(employeeService service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employeeService: employeeService}
}

func (h *EmployeeHandler) RegisterRoutes(router *gin.RouterGroup) {
	employees := router.Group("/api/employees")
	{
		employees.GET("", middleware.RequireRole("admin", "hr", "supervisor"), h.ListEmployees)
		employees.GET("/:id", middleware.RequireRole("admin", "hr", "supervisor"), h.GetEmployee)
		employees.GET("/:id/compensation", middleware.RequireRole("admin", "hr"), h.GetCompensation)
		employees.POST("", middleware.RequirePermission("employees.write"), h.CreateEmployee)
		employees.PUT("/:id", middleware.RequirePermission("employees.write"), h.UpdateEmployee)
		employees.DELETE("/:id", middleware.RequirePermission("employees.delete"), h.DeleteEmployee)
	}
}

func (h *EmployeeHandler) ListEmployees(c *gin.Context) {
	params := pagination.Parse(c)

	var companyID *uuid.UUID
	if raw := c.Query("company_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid company_id"))
			return
		}
		companyID = &id
	}

	employees, total, err := h.employeeService.List(c.Request.Context(), companyID, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessPaginated(http.StatusOK, employees, total, params.Page, params.Limit))
}

func (h *EmployeeHandler) GetEmployee(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	employee, err := h.employeeService.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, employee))
}

// GetCompensation returns the salary snapshot the line calculator works from
func (h *EmployeeHandler) GetCompensation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	compensation, err := h.employeeService.GetCompensation(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, compensation))
}

func (h *EmployeeHandler) CreateEmployee(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req service.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	employee, err := h.employeeService.Create(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, employee))
}

func (h *EmployeeHandler) UpdateEmployee(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	employee, err := h.employeeService.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, employee))
}

func (h *EmployeeHandler) DeleteEmployee(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.employeeService.Delete(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
