package model

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalRole identifies a step of the approval chain
type ApprovalRole string

// ApprovalStatus is the state of one approver's attestation record
type ApprovalStatus string

const (
	ApprovalPending           ApprovalStatus = "pending"
	ApprovalApproved          ApprovalStatus = "approved"
	ApprovalRejected          ApprovalStatus = "rejected"
	ApprovalCancelled         ApprovalStatus = "cancelled"
	ApprovalRevisionRequested ApprovalStatus = "revision_requested"
)

// DefaultApprovalChain is the full ordered role sequence. Deployments without
// a final project officer step may configure a subset; order is always kept.
var DefaultApprovalChain = []ApprovalRole{RoleSectionHead, RoleSCMHead, RolePJO}

// roleAdvance maps an approval role to the status its approval advances the
// request to, and statusRole maps an awaiting status back to the role that
// must resolve it. Both derive from the same chain semantics.
var roleAdvance = map[ApprovalRole]RequestStatus{
	RoleSectionHead: StatusSectionApproved,
	RoleSCMHead:     StatusSCMApproved,
	RolePJO:         StatusCompleted,
}

var statusRole = map[RequestStatus]ApprovalRole{
	StatusSubmitted:       RoleSectionHead,
	StatusSectionApproved: RoleSCMHead,
	StatusSCMApproved:     RolePJO,
}

// NextApproverRole returns the role whose pending approval gates the request
// at the given status, or false when the status awaits no approval.
func NextApproverRole(s RequestStatus) (ApprovalRole, bool) {
	role, ok := statusRole[s]
	return role, ok
}

// StatusAfterApproval returns the request status reached once the given role
// approves. The final chain role yields StatusCompleted.
func StatusAfterApproval(role ApprovalRole) (RequestStatus, bool) {
	s, ok := roleAdvance[role]
	return s, ok
}

// Approval is one approver's attestation record for one request. Several
// approvers may share a role (fan-out); the first to act wins and the
// siblings are cancelled, so (request_id, role, user_id) is unique while
// (request_id, role) is not.
type Approval struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_approvals_request_role_user" json:"request_id"`
	Request      *Request       `gorm:"foreignKey:RequestID" json:"-"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_approvals_request_role_user" json:"user_id"`
	User         *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role         ApprovalRole   `gorm:"type:varchar(30);not null;uniqueIndex:idx_approvals_request_role_user;index:idx_approvals_role_status" json:"role"`
	Status       ApprovalStatus `gorm:"type:varchar(30);not null;default:'pending';index:idx_approvals_role_status" json:"status"`
	Comments     string         `gorm:"type:text" json:"comments,omitempty"`
	SignatureRef string         `gorm:"type:varchar(255)" json:"signature_ref,omitempty"` // Opaque handle from the signature stamp service
	ApprovedAt   *time.Time     `json:"approved_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
