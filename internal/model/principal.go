package model

import "github.com/google/uuid"

// Principal is the authenticated actor performing a workflow operation.
// It is passed explicitly into every service call; the engine never reaches
// for a request context or global session.
type Principal struct {
	UserID       uuid.UUID
	CompanyID    *uuid.UUID
	DepartmentID *uuid.UUID
	Roles        []string
}

// HasRole reports whether the principal holds the named role
func (p Principal) HasRole(name string) bool {
	for _, r := range p.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the principal bypasses visibility scoping
func (p Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// HasAnyApproverRole reports whether the principal holds at least one role
// that participates in the approval chain.
func (p Principal) HasAnyApproverRole() bool {
	for _, r := range p.Roles {
		if _, ok := ApproverScopes[ApprovalRole(r)]; ok {
			return true
		}
	}
	return false
}

// InCompany reports whether the principal belongs to the given company
func (p Principal) InCompany(companyID uuid.UUID) bool {
	return p.CompanyID != nil && *p.CompanyID == companyID
}

// InDepartment reports whether the principal belongs to the given department
func (p Principal) InDepartment(departmentID uuid.UUID) bool {
	return p.DepartmentID != nil && *p.DepartmentID == departmentID
}
