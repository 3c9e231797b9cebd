package model

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the workflow state of a procurement request
type RequestStatus string

const (
	StatusDraft             RequestStatus = "draft"
	StatusSubmitted         RequestStatus = "submitted"
	StatusSectionApproved   RequestStatus = "section_approved"
	StatusSCMApproved       RequestStatus = "scm_approved"
	StatusCompleted         RequestStatus = "completed"
	StatusRejected          RequestStatus = "rejected"
	StatusCancelled         RequestStatus = "cancelled"
	StatusRevisionRequested RequestStatus = "revision_requested"
)

// AllRequestStatuses lists every value the status column may hold
var AllRequestStatuses = []RequestStatus{
	StatusDraft,
	StatusSubmitted,
	StatusSectionApproved,
	StatusSCMApproved,
	StatusCompleted,
	StatusRejected,
	StatusCancelled,
	StatusRevisionRequested,
}

// requestTransitions is the single source of truth for legal status changes.
// Services never write the status column except through a transition listed here.
var requestTransitions = map[RequestStatus][]RequestStatus{
	StatusDraft:             {StatusSubmitted, StatusCancelled},
	StatusSubmitted:         {StatusSectionApproved, StatusRejected, StatusCancelled, StatusRevisionRequested},
	StatusSectionApproved:   {StatusSCMApproved, StatusRejected, StatusCancelled, StatusRevisionRequested},
	StatusSCMApproved:       {StatusCompleted, StatusRejected, StatusCancelled, StatusRevisionRequested},
	StatusRevisionRequested: {StatusSubmitted},
	StatusCompleted:         nil,
	StatusRejected:          nil,
	StatusCancelled:         nil,
}

// Valid reports whether s is one of the defined status values
func (s RequestStatus) Valid() bool {
	_, ok := requestTransitions[s]
	return ok
}

// CanTransitionTo reports whether the transition s -> next is legal
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, t := range requestTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s RequestStatus) IsTerminal() bool {
	return s.Valid() && len(requestTransitions[s]) == 0
}

// AwaitingApproval reports whether the request sits at a pending approval role
func (s RequestStatus) AwaitingApproval() bool {
	_, ok := NextApproverRole(s)
	return ok
}

// Editable reports whether the owner may still change items and notes
func (s RequestStatus) Editable() bool {
	return s == StatusDraft || s == StatusRevisionRequested
}

// Cancellable reports whether the owner may cancel at this status
func (s RequestStatus) Cancellable() bool {
	return s == StatusDraft || s.AwaitingApproval()
}

// Request is the workflow subject: a multi-item procurement request moving
// through the sequential approval chain.
type Request struct {
	ID                 uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestNumber      string        `gorm:"type:varchar(50);uniqueIndex;not null" json:"request_number"`
	RequestDate        time.Time     `gorm:"type:date;not null" json:"request_date"`
	CompanyID          uuid.UUID     `gorm:"type:uuid;not null;index:idx_requests_scope" json:"company_id"`
	Company            *Company      `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	DepartmentID       uuid.UUID     `gorm:"type:uuid;not null;index:idx_requests_scope" json:"department_id"`
	Department         *Department   `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	UserID             uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	User               *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status             RequestStatus `gorm:"type:varchar(30);not null;default:'draft';index:idx_requests_scope" json:"status"`
	Notes              string        `gorm:"type:text" json:"notes,omitempty"`
	CancellationReason string        `gorm:"type:text" json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty"`
	Items              []RequestItem `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Approvals          []Approval    `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"approvals,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// IsOwnedBy reports whether the principal created this request
func (r *Request) IsOwnedBy(p Principal) bool {
	return r.UserID == p.UserID
}

// Deletable reports whether a physical delete is still allowed
func (r *Request) Deletable() bool {
	return r.Status == StatusDraft || r.Status == StatusRejected
}

// RequestItem is one line of a request. Items exist only while the parent
// request is editable; quantity must be positive.
type RequestItem struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID         uuid.UUID `gorm:"type:uuid;not null;index:idx_request_items_order" json:"request_id"`
	ItemNumber        int       `gorm:"not null;index:idx_request_items_order" json:"item_number"`
	Description       string    `gorm:"type:varchar(255);not null" json:"description"`
	Specification     string    `gorm:"type:text;not null" json:"specification"`
	Quantity          int       `gorm:"not null" json:"quantity"`
	UnitOfMeasurement string    `gorm:"type:varchar(50);not null" json:"unit_of_measurement"`
	Remarks           string    `gorm:"type:text" json:"remarks,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
