package service

import (
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
)

func principalWith(roles []string, companyID, departmentID *uuid.UUID) model.Principal {
	return model.Principal{
		UserID:       uuid.New(),
		CompanyID:    companyID,
		DepartmentID: departmentID,
		Roles:        roles,
	}
}

func TestCanViewOwnerAlwaysSees(t *testing.T) {
	owner := principalWith([]string{model.RoleUser}, nil, nil)
	for _, status := range model.AllRequestStatuses {
		r := &model.Request{UserID: owner.UserID, Status: status}
		if !CanView(owner, r) {
			t.Errorf("owner must see own request at status %s", status)
		}
	}
}

func TestCanViewAdminSeesEverything(t *testing.T) {
	admin := principalWith([]string{model.RoleAdmin}, nil, nil)
	r := &model.Request{UserID: uuid.New(), Status: model.StatusDraft}
	if !CanView(admin, r) {
		t.Error("admin must see any request")
	}
}

func TestCanViewSectionHeadScope(t *testing.T) {
	companyID := uuid.New()
	departmentID := uuid.New()
	head := principalWith([]string{model.RoleSectionHead}, &companyID, &departmentID)

	inScope := &model.Request{
		UserID: uuid.New(), Status: model.StatusSubmitted,
		CompanyID: companyID, DepartmentID: departmentID,
	}
	if !CanView(head, inScope) {
		t.Error("section head must see submitted requests of own department")
	}

	otherDept := &model.Request{
		UserID: uuid.New(), Status: model.StatusSubmitted,
		CompanyID: companyID, DepartmentID: uuid.New(),
	}
	if CanView(head, otherDept) {
		t.Error("section head must not see other departments")
	}

	wrongStatus := &model.Request{
		UserID: uuid.New(), Status: model.StatusDraft,
		CompanyID: companyID, DepartmentID: departmentID,
	}
	if CanView(head, wrongStatus) {
		t.Error("section head must not see drafts it does not own")
	}
}

func TestCanViewSCMHeadCentralized(t *testing.T) {
	companyID := uuid.New()
	scm := principalWith([]string{model.RoleSCMHead}, &companyID, nil)

	otherCompany := &model.Request{
		UserID: uuid.New(), Status: model.StatusSectionApproved,
		CompanyID: uuid.New(), DepartmentID: uuid.New(),
	}
	if !CanView(scm, otherCompany) {
		t.Error("scm head visibility must span companies")
	}

	wrongStatus := &model.Request{
		UserID: uuid.New(), Status: model.StatusSubmitted,
		CompanyID: companyID,
	}
	if CanView(scm, wrongStatus) {
		t.Error("scm head must only see section_approved requests")
	}
}

func TestCanViewPJOCompanyScope(t *testing.T) {
	companyID := uuid.New()
	pjo := principalWith([]string{model.RolePJO}, &companyID, nil)

	inScope := &model.Request{
		UserID: uuid.New(), Status: model.StatusSCMApproved, CompanyID: companyID,
	}
	if !CanView(pjo, inScope) {
		t.Error("pjo must see scm_approved requests of own company")
	}

	otherCompany := &model.Request{
		UserID: uuid.New(), Status: model.StatusSCMApproved, CompanyID: uuid.New(),
	}
	if CanView(pjo, otherCompany) {
		t.Error("pjo must not see other companies")
	}
}

func TestCanEdit(t *testing.T) {
	owner := principalWith([]string{model.RoleUser}, nil, nil)
	stranger := principalWith([]string{model.RoleUser}, nil, nil)

	draft := &model.Request{UserID: owner.UserID, Status: model.StatusDraft}
	if !CanEdit(owner, draft) {
		t.Error("owner must edit own draft")
	}
	if CanEdit(stranger, draft) {
		t.Error("stranger must not edit")
	}

	revision := &model.Request{UserID: owner.UserID, Status: model.StatusRevisionRequested}
	if !CanEdit(owner, revision) {
		t.Error("owner must edit after revision request")
	}

	submitted := &model.Request{UserID: owner.UserID, Status: model.StatusSubmitted}
	if CanEdit(owner, submitted) {
		t.Error("submitted request must be frozen")
	}
}

func TestCanCancel(t *testing.T) {
	owner := principalWith([]string{model.RoleUser}, nil, nil)

	for _, status := range []model.RequestStatus{
		model.StatusDraft, model.StatusSubmitted, model.StatusSectionApproved, model.StatusSCMApproved,
	} {
		r := &model.Request{UserID: owner.UserID, Status: status}
		if !CanCancel(owner, r) {
			t.Errorf("owner must cancel at %s", status)
		}
	}

	for _, status := range []model.RequestStatus{
		model.StatusCompleted, model.StatusRejected, model.StatusCancelled, model.StatusRevisionRequested,
	} {
		r := &model.Request{UserID: owner.UserID, Status: status}
		if CanCancel(owner, r) {
			t.Errorf("cancel must be refused at %s", status)
		}
	}
}

func TestCanDelete(t *testing.T) {
	owner := principalWith([]string{model.RoleUser}, nil, nil)
	admin := principalWith([]string{model.RoleAdmin}, nil, nil)
	stranger := principalWith([]string{model.RoleUser}, nil, nil)

	draft := &model.Request{UserID: owner.UserID, Status: model.StatusDraft}
	if !CanDelete(owner, draft) || !CanDelete(admin, draft) {
		t.Error("owner and admin must delete drafts")
	}
	if CanDelete(stranger, draft) {
		t.Error("stranger must not delete")
	}

	completed := &model.Request{UserID: owner.UserID, Status: model.StatusCompleted}
	if CanDelete(admin, completed) {
		t.Error("completed requests are permanent, even for admin")
	}
}

func TestCanSubmitAndResubmit(t *testing.T) {
	owner := principalWith([]string{model.RoleUser}, nil, nil)

	draft := &model.Request{UserID: owner.UserID, Status: model.StatusDraft}
	if !CanSubmit(owner, draft) {
		t.Error("owner must submit a draft")
	}
	if CanResubmit(owner, draft) {
		t.Error("resubmit only applies after a revision request")
	}

	revision := &model.Request{UserID: owner.UserID, Status: model.StatusRevisionRequested}
	if !CanResubmit(owner, revision) {
		t.Error("owner must resubmit after a revision request")
	}
	if CanSubmit(owner, revision) {
		t.Error("submit only applies to drafts")
	}
}
