package service

import (
	"context"
	"encoding/json"
	"strings"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

type CreateDepartmentDTO struct {
	CompanyID string `json:"company_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Code      string `json:"code" binding:"required,max=20"`
}

type AssignSectionHeadDTO struct {
	UserID string `json:"user_id" binding:"required"`
}

type DepartmentResponse struct {
	ID              string `json:"id"`
	CompanyID       string `json:"company_id"`
	CompanyCode     string `json:"company_code,omitempty"`
	Name            string `json:"name"`
	Code            string `json:"code"`
	SectionHeadID   string `json:"section_head_id,omitempty"`
	SectionHeadName string `json:"section_head_name,omitempty"`
}

// DepartmentService covers the admin-side primitives the workflow depends
// on: department setup and section head assignment. A department without a
// section head stalls every request it submits, so the missing-heads report
// sits here alongside assignment.
type DepartmentService interface {
	CreateDepartment(ctx context.Context, actor model.Principal, req CreateDepartmentDTO) (*DepartmentResponse, error)
	GetDepartment(ctx context.Context, id string) (*DepartmentResponse, error)
	ListDepartments(ctx context.Context, companyID string) ([]DepartmentResponse, error)
	// AssignSectionHead makes the user the department's single section head:
	// any current holder loses the role in the same transaction.
	AssignSectionHead(ctx context.Context, actor model.Principal, departmentID string, req AssignSectionHeadDTO) (*DepartmentResponse, error)
	// ListMissingSectionHeads reports departments where submitted requests
	// would stall at the first chain role.
	ListMissingSectionHeads(ctx context.Context, actor model.Principal) ([]DepartmentResponse, error)
}

type departmentService struct {
	txManager      repository.TransactionManager
	departmentRepo repository.DepartmentRepository
	companyRepo    repository.CompanyRepository
	userRepo       repository.UserRepository
	roleRepo       repository.RoleRepository
	auditRepo      repository.AuditRepository
}

func NewDepartmentService(
	txManager repository.TransactionManager,
	departmentRepo repository.DepartmentRepository,
	companyRepo repository.CompanyRepository,
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	auditRepo repository.AuditRepository,
) DepartmentService {
	return &departmentService{
		txManager:      txManager,
		departmentRepo: departmentRepo,
		companyRepo:    companyRepo,
		userRepo:       userRepo,
		roleRepo:       roleRepo,
		auditRepo:      auditRepo,
	}
}

func (s *departmentService) toResponse(ctx context.Context, d *model.Department) *DepartmentResponse {
	resp := &DepartmentResponse{
		ID:        d.ID.String(),
		CompanyID: d.CompanyID.String(),
		Name:      d.Name,
		Code:      d.Code,
	}
	if d.Company != nil {
		resp.CompanyCode = d.Company.Code
	}
	if head := s.sectionHead(ctx, d); head != nil {
		resp.SectionHeadID = head.ID.String()
		resp.SectionHeadName = head.Name
	}
	return resp
}

// sectionHead returns the department's current section head, if any
func (s *departmentService) sectionHead(ctx context.Context, d *model.Department) *model.User {
	heads, err := s.userRepo.ListByRole(ctx, model.RoleSectionHead, &d.CompanyID, &d.ID)
	if err != nil || len(heads) == 0 {
		return nil
	}
	return &heads[0]
}

func (s *departmentService) CreateDepartment(ctx context.Context, actor model.Principal, req CreateDepartmentDTO) (*DepartmentResponse, error) {
	if !actor.IsAdmin() {
		return nil, authorizationErrorf("only administrators may create departments")
	}

	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		return nil, validationErrorf("invalid company id: %v", err)
	}
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !company.IsActive {
		return nil, validationErrorf("company %s is inactive", company.Code)
	}

	department := &model.Department{
		CompanyID: company.ID,
		Name:      req.Name,
		Code:      strings.ToUpper(strings.TrimSpace(req.Code)),
	}
	if err := s.departmentRepo.Create(ctx, department); err != nil {
		return nil, err
	}

	userID := actor.UserID
	_ = s.auditRepo.Create(ctx, &model.AuditLog{
		UserID:     &userID,
		Action:     model.ActionCreateDepartment,
		EntityID:   department.ID.String(),
		EntityName: company.Code + "-" + department.Code,
	})

	department.Company = company
	return s.toResponse(ctx, department), nil
}

func (s *departmentService) GetDepartment(ctx context.Context, id string) (*DepartmentResponse, error) {
	departmentID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationErrorf("invalid department id: %v", err)
	}
	department, err := s.departmentRepo.GetByID(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, department), nil
}

func (s *departmentService) ListDepartments(ctx context.Context, companyID string) ([]DepartmentResponse, error) {
	companyUUID, err := parseOptionalUUID(companyID)
	if err != nil {
		return nil, validationErrorf("invalid company id: %v", err)
	}

	departments, err := s.departmentRepo.List(ctx, companyUUID)
	if err != nil {
		return nil, err
	}
	result := make([]DepartmentResponse, 0, len(departments))
	for i := range departments {
		result = append(result, *s.toResponse(ctx, &departments[i]))
	}
	return result, nil
}

func (s *departmentService) AssignSectionHead(ctx context.Context, actor model.Principal, departmentID string, req AssignSectionHeadDTO) (*DepartmentResponse, error) {
	if !actor.IsAdmin() {
		return nil, authorizationErrorf("only administrators may assign section heads")
	}

	deptID, err := uuid.Parse(departmentID)
	if err != nil {
		return nil, validationErrorf("invalid department id: %v", err)
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, validationErrorf("invalid user id: %v", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		department, err := s.departmentRepo.GetByID(txCtx, deptID)
		if err != nil {
			return err
		}
		user, err := s.userRepo.GetByID(txCtx, userID)
		if err != nil {
			return err
		}
		if user.DepartmentID == nil || *user.DepartmentID != department.ID {
			return validationErrorf("user %s does not belong to department %s", user.EmployeeID, department.Code)
		}

		role, err := s.roleRepo.GetByName(txCtx, model.RoleSectionHead)
		if err != nil {
			return err
		}

		// At most one section head per department: demote any current holder
		current, err := s.userRepo.ListByRole(txCtx, model.RoleSectionHead, &department.CompanyID, &department.ID)
		if err != nil {
			return err
		}
		for i := range current {
			if current[i].ID == user.ID {
				return validationErrorf("user %s is already section head of %s", user.EmployeeID, department.Code)
			}
			remaining := make([]model.Role, 0, len(current[i].Roles))
			for _, r := range current[i].Roles {
				if r.Name != model.RoleSectionHead {
					remaining = append(remaining, r)
				}
			}
			if err := s.userRepo.ReplaceRoles(txCtx, &current[i], remaining); err != nil {
				return err
			}
		}

		if !user.HasRole(model.RoleSectionHead) {
			if err := s.userRepo.ReplaceRoles(txCtx, user, append(user.Roles, *role)); err != nil {
				return err
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"department": department.Code,
			"user":       user.EmployeeID,
		})
		actorID := actor.UserID
		return s.auditRepo.Create(txCtx, &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionAssignSectionHead,
			EntityID:   department.ID.String(),
			EntityName: department.Code,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetDepartment(ctx, departmentID)
}

func (s *departmentService) ListMissingSectionHeads(ctx context.Context, actor model.Principal) ([]DepartmentResponse, error) {
	if !actor.IsAdmin() {
		return nil, authorizationErrorf("only administrators may run this report")
	}

	departments, err := s.departmentRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	var missing []DepartmentResponse
	for i := range departments {
		if s.sectionHead(ctx, &departments[i]) == nil {
			missing = append(missing, *s.toResponse(ctx, &departments[i]))
		}
	}
	return missing, nil
}
