package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateRequest     = "CREATE_REQUEST"
	ActionUpdateRequest     = "UPDATE_REQUEST"
	ActionDeleteRequest     = "DELETE_REQUEST"
	ActionSubmitRequest     = "SUBMIT_REQUEST"
	ActionApproveRequest    = "APPROVE_REQUEST"
	ActionRejectRequest     = "REJECT_REQUEST"
	ActionCancelRequest     = "CANCEL_REQUEST"
	ActionRequestRevision   = "REQUEST_REVISION"
	ActionResubmitRequest   = "RESUBMIT_REQUEST"
	ActionCreateUser        = "CREATE_USER"
	ActionUpdateUser        = "UPDATE_USER"
	ActionDeleteUser        = "DELETE_USER"
	ActionCreateCompany     = "CREATE_COMPANY"
	ActionCreateDepartment  = "CREATE_DEPARTMENT"
	ActionAssignSectionHead = "ASSIGN_SECTION_HEAD"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated job
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/request number)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
