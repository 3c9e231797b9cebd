package middleware

import (
	"testing"

	"backend/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestPrincipalFromClaims(t *testing.T) {
	userID := uuid.New()
	companyID := uuid.New()
	departmentID := uuid.New()

	claims := jwt.MapClaims{
		"sub":           userID.String(),
		"roles":         []interface{}{model.RoleUser, model.RoleSectionHead},
		"company_id":    companyID.String(),
		"department_id": departmentID.String(),
	}

	p, ok := principalFromClaims(claims)
	if !ok {
		t.Fatal("expected claims to resolve")
	}
	if p.UserID != userID {
		t.Errorf("UserID = %s, want %s", p.UserID, userID)
	}
	if !p.HasRole(model.RoleSectionHead) || !p.HasRole(model.RoleUser) {
		t.Errorf("roles not carried over: %v", p.Roles)
	}
	if p.CompanyID == nil || *p.CompanyID != companyID {
		t.Error("company scope not carried over")
	}
	if p.DepartmentID == nil || *p.DepartmentID != departmentID {
		t.Error("department scope not carried over")
	}
}

func TestPrincipalFromClaimsWithoutScope(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":   uuid.New().String(),
		"roles": []interface{}{model.RoleSCMHead},
	}
	p, ok := principalFromClaims(claims)
	if !ok {
		t.Fatal("scope-free claims must still resolve")
	}
	if p.CompanyID != nil || p.DepartmentID != nil {
		t.Error("absent scope claims must stay nil")
	}
}

func TestPrincipalFromClaimsRejectsBadSubject(t *testing.T) {
	if _, ok := principalFromClaims(jwt.MapClaims{"sub": "not-a-uuid"}); ok {
		t.Error("malformed subject must be rejected")
	}
	if _, ok := principalFromClaims(jwt.MapClaims{}); ok {
		t.Error("missing subject must be rejected")
	}
}
