package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrbackend/internal/engine"
	"hrbackend/internal/model"
	"hrbackend/internal/repository"
)

// --- DTOs ---

type CreateCompanyRequest struct {
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name" binding:"required"`
	TaxID    string `json:"tax_id"`
	Currency string `json:"currency" binding:"required"`
}

type CreateDepartmentRequest struct {
	CompanyID string `json:"company_id" binding:"required"`
	Code      string `json:"code" binding:"required"`
	Name      string `json:"name" binding:"required"`
}

type CreateProjectRequest struct {
	CompanyID string `json:"company_id" binding:"required"`
	Code      string `json:"code" binding:"required"`
	Name      string `json:"name" binding:"required"`
}

type CreateAccountingAccountRequest struct {
	CompanyID string `json:"company_id" binding:"required"`
	Code      string `json:"code" binding:"required"`
	Name      string `json:"name" binding:"required"`
}

type UpdateNamedEntityRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// --- Interface ---

// MasterDataService is plain CRUD over the catalog entities that actions and
// payroll runs hang off: companies, departments, projects and accounting
// accounts. Every mutation leaves an audit entry.
type MasterDataService interface {
	ListCompanies(ctx context.Context) ([]model.Company, error)
	CreateCompany(ctx context.Context, actorID uuid.UUID, req CreateCompanyRequest) (*model.Company, error)

	ListDepartments(ctx context.Context, companyID uuid.UUID) ([]model.Department, error)
	CreateDepartment(ctx context.Context, actorID uuid.UUID, req CreateDepartmentRequest) (*model.Department, error)
	UpdateDepartment(ctx context.Context, actorID, id uuid.UUID, req UpdateNamedEntityRequest) (*model.Department, error)
	DeleteDepartment(ctx context.Context, actorID, id uuid.UUID) error

	ListProjects(ctx context.Context, companyID uuid.UUID) ([]model.Project, error)
	CreateProject(ctx context.Context, actorID uuid.UUID, req CreateProjectRequest) (*model.Project, error)

	ListAccounts(ctx context.Context, companyID uuid.UUID) ([]model.AccountingAccount, error)
	CreateAccount(ctx context.Context, actorID uuid.UUID, req CreateAccountingAccountRequest) (*model.AccountingAccount, error)
}

type masterDataService struct {
	db        *gorm.DB
	auditSvc  AuditService
	txManager repository.TransactionManager
}

func NewMasterDataService(db *gorm.DB, auditSvc AuditService, txManager repository.TransactionManager) MasterDataService {
	return &masterDataService{db: db, auditSvc: auditSvc, txManager: txManager}
}

// --- Implementation ---

func (s *masterDataService) ListCompanies(ctx context.Context) ([]model.Company, error) {
	var companies []model.Company
	if err := s.db.WithContext(ctx).Order("code").Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch companies: %w", err)
	}
	return companies, nil
}

func (s *masterDataService) CreateCompany(ctx context.Context, actorID uuid.UUID, req CreateCompanyRequest) (*model.Company, error) {
	company := model.Company{
		Code:     req.Code,
		Name:     req.Name,
		TaxID:    req.TaxID,
		Currency: req.Currency,
	}
	if err := s.createWithAudit(ctx, actorID, &company, "company", req.Code+" "+req.Name); err != nil {
		return nil, err
	}
	return &company, nil
}

func (s *masterDataService) ListDepartments(ctx context.Context, companyID uuid.UUID) ([]model.Department, error) {
	var departments []model.Department
	if err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Order("code").Find(&departments).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch departments: %w", err)
	}
	return departments, nil
}

func (s *masterDataService) CreateDepartment(ctx context.Context, actorID uuid.UUID, req CreateDepartmentRequest) (*model.Department, error) {
	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		return nil, errors.New("invalid company id")
	}
	department := model.Department{CompanyID: companyID, Code: req.Code, Name: req.Name}
	if err := s.createWithAudit(ctx, actorID, &department, "department", req.Code+" "+req.Name); err != nil {
		return nil, err
	}
	return &department, nil
}

func (s *masterDataService) UpdateDepartment(ctx context.Context, actorID, id uuid.UUID, req UpdateNamedEntityRequest) (*model.Department, error) {
	var department model.Department
	if err := s.db.WithContext(ctx).First(&department, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("department %s: %w", id, engine.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch department: %w", err)
	}

	if req.Code != "" {
		department.Code = req.Code
	}
	if req.Name != "" {
		department.Name = req.Name
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := repository.GetDB(txCtx, s.db).Save(&department).Error; err != nil {
			return fmt.Errorf("failed to update department: %w", err)
		}
		actor := actorID
		_, err := s.auditSvc.RecordChange(txCtx, ChangeRecord{
			UserID:      &actor,
			Action:      model.ActionUpdateMasterData,
			EntityName:  "department",
			Description: department.Code + " " + department.Name,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &department, nil
}

func (s *masterDataService) DeleteDepartment(ctx context.Context, actorID, id uuid.UUID) error {
	var department model.Department
	if err := s.db.WithContext(ctx).First(&department, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("department %s: %w", id, engine.ErrNotFound)
		}
		return fmt.Errorf("failed to fetch department: %w", err)
	}

	var assigned int64
	if err := s.db.WithContext(ctx).Model(&model.Employee{}).Where("department_id = ?", id).Count(&assigned).Error; err != nil {
		return fmt.Errorf("failed to count department members: %w", err)
	}
	if assigned > 0 {
		return fmt.Errorf("department still has %d employees: %w", assigned, engine.ErrConflict)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := repository.GetDB(txCtx, s.db).Delete(&department).Error; err != nil {
			return fmt.Errorf("failed to delete department: %w", err)
		}
		actor := actorID
		_, err := s.auditSvc.RecordChange(txCtx, ChangeRecord{
			UserID:      &actor,
			Action:      model.ActionDeleteMasterData,
			EntityName:  "department",
			Description: department.Code + " " + department.Name,
		})
		return err
	})
}

func (s *masterDataService) ListProjects(ctx context.Context, companyID uuid.UUID) ([]model.Project, error) {
	var projects []model.Project
	if err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Order("code").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}
	return projects, nil
}

func (s *masterDataService) CreateProject(ctx context.Context, actorID uuid.UUID, req CreateProjectRequest) (*model.Project, error) {
	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		return nil, errors.New("invalid company id")
	}
	project := model.Project{CompanyID: companyID, Code: req.Code, Name: req.Name, IsActive: true}
	if err := s.createWithAudit(ctx, actorID, &project, "project", req.Code+" "+req.Name); err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *masterDataService) ListAccounts(ctx context.Context, companyID uuid.UUID) ([]model.AccountingAccount, error) {
	var accounts []model.AccountingAccount
	if err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Order("code").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch accounting accounts: %w", err)
	}
	return accounts, nil
}

func (s *masterDataService) CreateAccount(ctx context.Context, actorID uuid.UUID, req CreateAccountingAccountRequest) (*model.AccountingAccount, error) {
	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		return nil, errors.New("invalid company id")
	}
	account := model.AccountingAccount{CompanyID: companyID, Code: req.Code, Name: req.Name}
	if err := s.createWithAudit(ctx, actorID, &account, "accounting account", req.Code+" "+req.Name); err != nil {
		return nil, err
	}
	return &account, nil
}

// createWithAudit inserts the row and its audit entry in one transaction.
func (s *masterDataService) createWithAudit(ctx context.Context, actorID uuid.UUID, entity any, entityName, description string) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := repository.GetDB(txCtx, s.db).Create(entity).Error; err != nil {
			return fmt.Errorf("failed to create %s: %w", entityName, err)
		}
		actor := actorID
		_, err := s.auditSvc.RecordChange(txCtx, ChangeRecord{
			UserID:      &actor,
			Action:      model.ActionCreateMasterData,
			EntityName:  entityName,
			Description: description,
		})
		return err
	})
}
