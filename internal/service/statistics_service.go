package service

import (
	"context"

	"backend/internal/model"

	"gorm.io/gorm"
)

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type CompanyThroughput struct {
	CompanyCode string `json:"company_code"`
	CompanyName string `json:"company_name"`
	Total       int64  `json:"total"`
	Completed   int64  `json:"completed"`
}

type DepartmentThroughput struct {
	CompanyCode    string `json:"company_code"`
	DepartmentCode string `json:"department_code"`
	Total          int64  `json:"total"`
	Completed      int64  `json:"completed"`
}

type WorkflowStatistics struct {
	ByStatus     []StatusCount          `json:"by_status"`
	ByCompany    []CompanyThroughput    `json:"by_company"`
	ByDepartment []DepartmentThroughput `json:"by_department"`
	StuckCount   int64                  `json:"stuck_count"`
	PendingTotal int64                  `json:"pending_total"`
}

// StatisticsService aggregates workflow throughput for the admin dashboard
type StatisticsService interface {
	GetStatistics(ctx context.Context, actor model.Principal) (WorkflowStatistics, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

func (s *statisticsService) GetStatistics(ctx context.Context, actor model.Principal) (WorkflowStatistics, error) {
	var stats WorkflowStatistics
	if !actor.IsAdmin() {
		return stats, authorizationErrorf("only administrators may read workflow statistics")
	}

	if err := s.db.WithContext(ctx).
		Model(&model.Request{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Order("count DESC").
		Scan(&stats.ByStatus).Error; err != nil {
		return stats, err
	}

	if err := s.db.WithContext(ctx).
		Table("requests").
		Select(`companies.code as company_code, companies.name as company_name,
			COUNT(*) as total,
			COUNT(*) FILTER (WHERE requests.status = 'completed') as completed`).
		Joins("JOIN companies ON companies.id = requests.company_id").
		Group("companies.id, companies.code, companies.name").
		Order("total DESC").
		Scan(&stats.ByCompany).Error; err != nil {
		return stats, err
	}

	if err := s.db.WithContext(ctx).
		Table("requests").
		Select(`companies.code as company_code, departments.code as department_code,
			COUNT(*) as total,
			COUNT(*) FILTER (WHERE requests.status = 'completed') as completed`).
		Joins("JOIN companies ON companies.id = requests.company_id").
		Joins("JOIN departments ON departments.id = requests.department_id").
		Group("companies.code, departments.code").
		Order("total DESC").
		Scan(&stats.ByDepartment).Error; err != nil {
		return stats, err
	}

	if err := s.db.WithContext(ctx).
		Model(&model.Approval{}).
		Where("status = ?", model.ApprovalPending).
		Count(&stats.PendingTotal).Error; err != nil {
		return stats, err
	}

	// Requests stalled at a role nobody holds
	if err := s.db.WithContext(ctx).
		Model(&model.Request{}).
		Where("status IN ?", []model.RequestStatus{
			model.StatusSubmitted, model.StatusSectionApproved, model.StatusSCMApproved,
		}).
		Where(`NOT EXISTS (
			SELECT 1 FROM approvals a
			WHERE a.request_id = requests.id
			AND a.role = CASE requests.status
				WHEN 'submitted' THEN 'section_head'
				WHEN 'section_approved' THEN 'scm_head'
				WHEN 'scm_approved' THEN 'pjo'
			END
		)`).
		Count(&stats.StuckCount).Error; err != nil {
		return stats, err
	}

	return stats, nil
}
