package service

import (
	"context"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

type CreateCompanyDTO struct {
	Name    string `json:"name" binding:"required"`
	Code    string `json:"code" binding:"required,max=20"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email" binding:"omitempty,email"`
}

type UpdateCompanyDTO struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Email    string `json:"email" binding:"omitempty,email"`
	IsActive *bool  `json:"is_active"`
}

type CompanyResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	IsActive bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

type CompanyService interface {
	CreateCompany(ctx context.Context, actor model.Principal, req CreateCompanyDTO) (*CompanyResponse, error)
	GetCompany(ctx context.Context, id string) (*CompanyResponse, error)
	ListCompanies(ctx context.Context, activeOnly bool) ([]CompanyResponse, error)
	UpdateCompany(ctx context.Context, actor model.Principal, id string, req UpdateCompanyDTO) (*CompanyResponse, error)
}

type companyService struct {
	companyRepo repository.CompanyRepository
	auditRepo   repository.AuditRepository
}

func NewCompanyService(companyRepo repository.CompanyRepository, auditRepo repository.AuditRepository) CompanyService {
	return &companyService{companyRepo: companyRepo, auditRepo: auditRepo}
}

func toCompanyResponse(c *model.Company) *CompanyResponse {
	return &CompanyResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Code:      c.Code,
		Address:   c.Address,
		Phone:     c.Phone,
		Email:     c.Email,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func (s *companyService) CreateCompany(ctx context.Context, actor model.Principal, req CreateCompanyDTO) (*CompanyResponse, error) {
	if !actor.IsAdmin() {
		return nil, authorizationErrorf("only administrators may create companies")
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, validationErrorf("company code is required")
	}
	if _, err := s.companyRepo.GetByCode(ctx, code); err == nil {
		return nil, validationErrorf("company code %s already exists", code)
	}

	company := &model.Company{
		Name:     req.Name,
		Code:     code,
		Address:  req.Address,
		Phone:    req.Phone,
		Email:    req.Email,
		IsActive: true,
	}
	if err := s.companyRepo.Create(ctx, company); err != nil {
		return nil, err
	}

	userID := actor.UserID
	_ = s.auditRepo.Create(ctx, &model.AuditLog{
		UserID:     &userID,
		Action:     model.ActionCreateCompany,
		EntityID:   company.ID.String(),
		EntityName: company.Code,
	})

	return toCompanyResponse(company), nil
}

func (s *companyService) GetCompany(ctx context.Context, id string) (*CompanyResponse, error) {
	companyID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationErrorf("invalid company id: %v", err)
	}
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return toCompanyResponse(company), nil
}

func (s *companyService) ListCompanies(ctx context.Context, activeOnly bool) ([]CompanyResponse, error) {
	companies, err := s.companyRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	result := make([]CompanyResponse, 0, len(companies))
	for i := range companies {
		result = append(result, *toCompanyResponse(&companies[i]))
	}
	return result, nil
}

func (s *companyService) UpdateCompany(ctx context.Context, actor model.Principal, id string, req UpdateCompanyDTO) (*CompanyResponse, error) {
	if !actor.IsAdmin() {
		return nil, authorizationErrorf("only administrators may update companies")
	}

	companyID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationErrorf("invalid company id: %v", err)
	}
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		company.Name = req.Name
	}
	if req.Address != "" {
		company.Address = req.Address
	}
	if req.Phone != "" {
		company.Phone = req.Phone
	}
	if req.Email != "" {
		company.Email = req.Email
	}
	if req.IsActive != nil {
		company.IsActive = *req.IsActive
	}

	if err := s.companyRepo.Update(ctx, company); err != nil {
		return nil, err
	}
	return toCompanyResponse(company), nil
}
