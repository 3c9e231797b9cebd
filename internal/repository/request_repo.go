package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestFilter narrows request listings; zero values mean "no filter"
type RequestFilter struct {
	Status       model.RequestStatus
	CompanyID    *uuid.UUID
	DepartmentID *uuid.UUID
}

// Scope is a query predicate applied to request listings (visibility filtering)
type Scope func(*gorm.DB) *gorm.DB

// RequestRepository defines data access for requests and their items
type RequestRepository interface {
	Create(ctx context.Context, request *model.Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Request, error)
	// GetForUpdate loads the request row under a row-level lock. Every
	// state-machine transition starts here so concurrent mutations serialize.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Request, error)
	List(ctx context.Context, scope Scope, filter RequestFilter, page, limit int) ([]model.Request, int64, error)
	// ListStuck returns active requests whose gating role has no approval
	// rows at all, i.e. no eligible approver existed at submission.
	ListStuck(ctx context.Context) ([]model.Request, error)
	Update(ctx context.Context, request *model.Request) error
	ReplaceItems(ctx context.Context, requestID uuid.UUID, items []model.RequestItem) error
	CountItems(ctx context.Context, requestID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	LastNumberWithPrefix(ctx context.Context, prefix string) (string, error)
	AdvisoryLock(ctx context.Context, key string) error
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, request *model.Request) error {
	return GetDB(ctx, r.db).Create(request).Error
}

func (r *requestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var request model.Request
	err := GetDB(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_number ASC") }).
		Preload("Approvals").
		Preload("Approvals.User").
		Preload("Company").
		Preload("Department").
		Preload("User").
		First(&request, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var request model.Request
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&request, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) List(ctx context.Context, scope Scope, filter RequestFilter, page, limit int) ([]model.Request, int64, error) {
	var requests []model.Request
	var total int64

	db := GetDB(ctx, r.db)

	apply := func(q *gorm.DB) *gorm.DB {
		if scope != nil {
			q = scope(q)
		}
		if filter.Status != "" {
			q = q.Where("requests.status = ?", filter.Status)
		}
		if filter.CompanyID != nil {
			q = q.Where("requests.company_id = ?", *filter.CompanyID)
		}
		if filter.DepartmentID != nil {
			q = q.Where("requests.department_id = ?", *filter.DepartmentID)
		}
		return q
	}

	if err := apply(db.Model(&model.Request{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := apply(db.Model(&model.Request{})).
		Preload("Company").
		Preload("Department").
		Preload("User").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *requestRepository) ListStuck(ctx context.Context) ([]model.Request, error) {
	var requests []model.Request
	err := GetDB(ctx, r.db).
		Preload("Company").
		Preload("Department").
		Where(`requests.status IN ?`, []model.RequestStatus{
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
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *requestRepository) Update(ctx context.Context, request *model.Request) error {
	return GetDB(ctx, r.db).Save(request).Error
}

func (r *requestRepository) ReplaceItems(ctx context.Context, requestID uuid.UUID, items []model.RequestItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("request_id = ?", requestID).Delete(&model.RequestItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].RequestID = requestID
	}
	if len(items) == 0 {
		return nil
	}
	return db.Create(&items).Error
}

func (r *requestRepository) CountItems(ctx context.Context, requestID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&model.RequestItem{}).
		Where("request_id = ?", requestID).
		Count(&count).Error
	return count, err
}

func (r *requestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Request{}, "id = ?", id).Error
}

// LastNumberWithPrefix returns the highest request number sharing the prefix.
// Sequence suffixes are zero-padded to a fixed width, so lexicographic order
// matches numeric order.
func (r *requestRepository) LastNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	var last string
	err := GetDB(ctx, r.db).
		Model(&model.Request{}).
		Select("request_number").
		Where("request_number LIKE ?", prefix+"%").
		Order("request_number DESC").
		Limit(1).
		Scan(&last).Error
	if err != nil {
		return "", err
	}
	return last, nil
}

// AdvisoryLock serializes callers on the given key for the rest of the
// enclosing transaction. Keys for different allocation scopes do not block
// each other.
func (r *requestRepository) AdvisoryLock(ctx context.Context, key string) error {
	return GetDB(ctx, r.db).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}
