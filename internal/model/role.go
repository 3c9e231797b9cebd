package model

import (
	"time"

	"github.com/google/uuid"
)

// Role name constants. A user carries a set of roles (user_roles join table);
// approver authority is additionally scoped by company/department per RoleScope.
const (
	RoleAdmin       = "admin"
	RoleUser        = "user"
	RoleSectionHead = "section_head"
	RoleSCMHead     = "scm_head"
	RolePJO         = "pjo"
)

// RoleScope declares how an approver role's authority is bounded.
// scm_head is centralized and approves across all companies.
type RoleScope struct {
	CompanyScoped    bool
	DepartmentScoped bool
}

// ApproverScopes is the single policy table consumed by the approval chain and
// by authorization checks. Roles absent from this map cannot approve anything.
var ApproverScopes = map[ApprovalRole]RoleScope{
	RoleSectionHead: {CompanyScoped: true, DepartmentScoped: true},
	RoleSCMHead:     {CompanyScoped: false, DepartmentScoped: false},
	RolePJO:         {CompanyScoped: true, DepartmentScoped: false},
}

// Role represents an assignable user role
type Role struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsSystem    bool      `gorm:"default:false" json:"is_system"` // Prevent deletion of built-in roles
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultRoles are seeded at startup so the approval chain always has
// resolvable role rows to assign.
func DefaultRoles() []Role {
	return []Role{
		{Name: RoleAdmin, Description: "System administrator", IsSystem: true},
		{Name: RoleUser, Description: "Requester", IsSystem: true},
		{Name: RoleSectionHead, Description: "Section head approver, scoped to one department", IsSystem: true},
		{Name: RoleSCMHead, Description: "SCM head approver, centralized across companies", IsSystem: true},
		{Name: RolePJO, Description: "Project officer, final approver per company", IsSystem: true},
	}
}
