package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hrbackend/internal/middleware"
	"hrbackend/internal/service"
	"hrbackend/pkg/response"
)

type MasterDataHandler struct {
	masterDataService service.MasterDataService
}

func NewMasterDataHandler(masterDataService service.MasterDataService) *MasterDataHandler {
	return &MasterDataHandler{masterDataService: masterDataService}
}

func (h *MasterDataHandler) RegisterRoutes(router *gin.RouterGroup) {
	companies := router.Group("/api/companies")
	{
		companies.GET("", middleware.RequireRole("admin", "hr", "supervisor", "employee"), h.ListCompanies)
		companies.POST("", middleware.RequirePermission("masterdata.write"), h.CreateCompany)
		companies.GET("/:id/departments", middleware.RequireRole("admin", "hr", "supervisor", "employee"), h.ListDepartments)
		companies.GET("/:id/projects", middleware.RequireRole("admin", "hr", "supervisor", "employee"), h.ListProjects)
		companies.GET("/:id/accounts", middleware.RequireRole("admin", "hr"), h.ListAccounts)
	}

	departments := router.Group("/api/departments")
	{
		departments.POST("", middleware.RequirePermission("masterdata.write"), h.CreateDepartment)
		departments.PUT("/:id", middleware.RequirePermission("masterdata.write"), h.UpdateDepartment)
		departments.DELETE("/:id", middleware.RequirePermission("masterdata.delete"), h.DeleteDepartment)
	}

	projects := router.Group("/api/projects")
	{
		projects.POST("", middleware.RequirePermission("masterdata.write"), h.CreateProject)
	}

	accounts := router.Group("/api/accounting-accounts")
	{
		accounts.POST("", middleware.RequirePermission("masterdata.write"), h.CreateAccount)
	}
}

func (h *MasterDataHandler) ListCompanies(c *gin.Context) {
	companies, err := h.masterDataService.ListCompanies(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, companies))
}

func (h *MasterDataHandler) CreateCompany(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req service.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	company, err := h.masterDataService.CreateCompany(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, company))
}

func (h *MasterDataHandler) ListDepartments(c *gin.Context) {
	h.listByCompany(c, func(companyID uuid.UUID) (interface{}, error) {
		return h.masterDataService.ListDepartments(c.Request.Context(), companyID)
	})
}

func (h *MasterDataHandler) ListProjects(c *gin.Context) {
	h.listByCompany(c, func(companyID uuid.UUID) (interface{}, error) {
		return h.masterDataService.ListProjects(c.Request.Context(), companyID)
	})
}

func (h *MasterDataHandler) ListAccounts(c *gin.Context) {
	h.listByCompany(c, func(companyID uuid.UUID) (interface{}, error) {
		return h.masterDataService.ListAccounts(c.Request.Context(), companyID)
	})
}

func (h *MasterDataHandler) listByCompany(c *gin.Context, fetch func(companyID uuid.UUID) (interface{}, error)) {
	companyID, ok := pathID(c)
	if !ok {
		return
	}
	data, err := fetch(companyID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, data))
}

func (h *MasterDataHandler) CreateDepartment(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req service.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	department, err := h.masterDataService.CreateDepartment(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, department))
}

func (h *MasterDataHandler) UpdateDepartment(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.UpdateNamedEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	department, err := h.masterDataService.UpdateDepartment(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, department))
}

func (h *MasterDataHandler) DeleteDepartment(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.masterDataService.DeleteDepartment(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

func (h *MasterDataHandler) CreateProject(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req service.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	project, err := h.masterDataService.CreateProject(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, project))
}

func (h *MasterDataHandler) CreateAccount(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req service.CreateAccountingAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	account, err := h.masterDataService.CreateAccount(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, account))
}
