package model

import (
	"time"

	"github.com/google/uuid"
)

// Department is an organizational unit within a company. Department code is
// unique per company and appears in generated request numbers.
// At most one active section_head role-holder is allowed per department;
// this is enforced by the assignment operation, not by a DB constraint.
type Department struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_departments_company_code" json:"company_id"`
	Company   *Company  `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Code      string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_departments_company_code" json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
