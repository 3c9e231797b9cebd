package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApprovalRepository defines data access for approval records
type ApprovalRepository interface {
	CreateBatch(ctx context.Context, approvals []model.Approval) error
	// GetPendingForUpdate loads the actor's pending approval for the given
	// role under a row lock; gorm.ErrRecordNotFound when absent.
	GetPendingForUpdate(ctx context.Context, requestID uuid.UUID, role model.ApprovalRole, userID uuid.UUID) (*model.Approval, error)
	GetForUser(ctx context.Context, requestID uuid.UUID, role model.ApprovalRole, userID uuid.UUID) (*model.Approval, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Approval, error)
	ListPendingForUser(ctx context.Context, userID uuid.UUID) ([]model.Approval, error)
	Update(ctx context.Context, approval *model.Approval) error
	// CancelSiblingPendings supersedes the other pending approvals of the
	// same (request, role) after one approver has acted.
	CancelSiblingPendings(ctx context.Context, requestID uuid.UUID, role model.ApprovalRole, winnerID uuid.UUID) error
	CancelAllPending(ctx context.Context, requestID uuid.UUID) error
	// ResetForRequest puts every approval of the request back to pending
	// and clears resolution fields (full-chain restart on resubmission).
	ResetForRequest(ctx context.Context, requestID uuid.UUID) error
}

type approvalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) CreateBatch(ctx context.Context, approvals []model.Approval) error {
	if len(approvals) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&approvals).Error
}

func (r *approvalRepository) GetPendingForUpdate(ctx context.Context, requestID uuid.UUID, role model.ApprovalRole, userID uuid.UUID) (*model.Approval, error) {
	var approval model.Approval
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("request_id = ? AND role = ? AND user_id = ? AND status = ?",
			requestID, role, userID, model.ApprovalPending).
		First(&approval).Error
	if err != nil {
		return nil, err
	}
	return &approval, nil
}

func (r *approvalRepository) GetForUser(ctx context.Context, requestID uuid.UUID, role model.ApprovalRole, userID uuid.UUID) (*model.Approval, error) {
	var approval model.Approval
	err := GetDB(ctx, r.db).
		Where("request_id = ? AND role = ? AND user_id = ?", requestID, role, userID).
		First(&approval).Error
	if err != nil {
		return nil, err
	}
	return &approval, nil
}

func (r *approvalRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Approval, error) {
	var approvals []model.Approval
	err := GetDB(ctx, r.db).
		Preload("User").
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&approvals).Error
	if err != nil {
		return nil, err
	}
	return approvals, nil
}

func (r *approvalRepository) ListPendingForUser(ctx context.Context, userID uuid.UUID) ([]model.Approval, error) {
	var approvals []model.Approval
	err := GetDB(ctx, r.db).
		Preload("Request").
		Preload("Request.Company").
		Preload("Request.Department").
		Where("user_id = ? AND status = ?", userID, model.ApprovalPending).
		Order("created_at ASC").
		Find(&approvals).Error
	if err != nil {
		return nil, err
	}
	return approvals, nil
}

func (r *approvalRepository) Update(ctx context.Context, approval *model.Approval) error {
	return GetDB(ctx, r.db).Save(approval).Error
}

func (r *approvalRepository) CancelSiblingPendings(ctx context.Context, requestID uuid.UUID, role model.ApprovalRole, winnerID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Model(&model.Approval{}).
		Where("request_id = ? AND role = ? AND id <> ? AND status = ?",
			requestID, role, winnerID, model.ApprovalPending).
		Update("status", model.ApprovalCancelled).Error
}

func (r *approvalRepository) CancelAllPending(ctx context.Context, requestID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Model(&model.Approval{}).
		Where("request_id = ? AND status = ?", requestID, model.ApprovalPending).
		Update("status", model.ApprovalCancelled).Error
}

func (r *approvalRepository) ResetForRequest(ctx context.Context, requestID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Model(&model.Approval{}).
		Where("request_id = ?", requestID).
		Updates(map[string]interface{}{
			"status":        model.ApprovalPending,
			"comments":      "",
			"signature_ref": "",
			"approved_at":   gorm.Expr("NULL"),
			"updated_at":    time.Now(),
		}).Error
}
