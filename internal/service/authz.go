package service

import (
	"backend/internal/model"
	"backend/internal/repository"

	"gorm.io/gorm"
)

// Visibility and permission rules. Approve permission itself is *not*
// computed here: it delegates to the pending-approval existence check in the
// approval service, so role policy lives in exactly one place.

// VisibleRequests builds the query predicate limiting a listing to what the
// principal may see. The rules are a union and a principal always sees its
// own requests:
//   - admin: everything
//   - plain user: own requests only
//   - section_head: own + submitted requests of the same company+department
//   - scm_head: own + every section_approved request (centralized)
//   - pjo: own + scm_approved requests of the same company
func VisibleRequests(p model.Principal) repository.Scope {
	if p.IsAdmin() {
		return func(q *gorm.DB) *gorm.DB { return q }
	}

	return func(q *gorm.DB) *gorm.DB {
		cond := q.Session(&gorm.Session{NewDB: true}).
			Where("requests.user_id = ?", p.UserID)

		if p.HasRole(model.RoleSectionHead) && p.CompanyID != nil && p.DepartmentID != nil {
			cond = cond.Or(
				"requests.status = ? AND requests.company_id = ? AND requests.department_id = ?",
				model.StatusSubmitted, *p.CompanyID, *p.DepartmentID,
			)
		}
		if p.HasRole(model.RoleSCMHead) {
			cond = cond.Or("requests.status = ?", model.StatusSectionApproved)
		}
		if p.HasRole(model.RolePJO) && p.CompanyID != nil {
			cond = cond.Or(
				"requests.status = ? AND requests.company_id = ?",
				model.StatusSCMApproved, *p.CompanyID,
			)
		}

		return q.Where(cond)
	}
}

// CanView reports whether one concrete request falls inside the principal's
// visibility union. Used on single-request reads so an out-of-scope id is
// indistinguishable from a missing one.
func CanView(p model.Principal, r *model.Request) bool {
	if p.IsAdmin() || r.IsOwnedBy(p) {
		return true
	}
	if p.HasRole(model.RoleSectionHead) &&
		r.Status == model.StatusSubmitted &&
		p.InCompany(r.CompanyID) && p.InDepartment(r.DepartmentID) {
		return true
	}
	if p.HasRole(model.RoleSCMHead) && r.Status == model.StatusSectionApproved {
		return true
	}
	if p.HasRole(model.RolePJO) &&
		r.Status == model.StatusSCMApproved && p.InCompany(r.CompanyID) {
		return true
	}
	return false
}

// CanEdit: owner only, and only while the request is editable
func CanEdit(p model.Principal, r *model.Request) bool {
	return r.IsOwnedBy(p) && r.Status.Editable()
}

// CanCancel: owner only, from draft or any awaiting-approval status
func CanCancel(p model.Principal, r *model.Request) bool {
	return r.IsOwnedBy(p) && r.Status.Cancellable()
}

// CanDelete: owner (or admin) while the request is still draft or rejected
func CanDelete(p model.Principal, r *model.Request) bool {
	if !r.Deletable() {
		return false
	}
	return p.IsAdmin() || r.IsOwnedBy(p)
}

// CanSubmit: owner only, from draft
func CanSubmit(p model.Principal, r *model.Request) bool {
	return r.IsOwnedBy(p) && r.Status == model.StatusDraft
}

// CanResubmit: owner only, from revision_requested
func CanResubmit(p model.Principal, r *model.Request) bool {
	return r.IsOwnedBy(p) && r.Status == model.StatusRevisionRequested
}
