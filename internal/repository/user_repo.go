package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*model.User, error)
	List(ctx context.Context, companyID *uuid.UUID, page, limit int) ([]model.User, int64, error)
	// ListByRole resolves the eligible approver set for one chain role.
	// companyID/departmentID are applied only when non-nil, matching the
	// role's scope policy.
	ListByRole(ctx context.Context, role string, companyID, departmentID *uuid.UUID) ([]model.User, error)
	ReplaceRoles(ctx context.Context, user *model.User, roles []model.Role) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Roles").Preload("Company").Preload("Department").
		First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Roles").First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Roles").First(&user, "employee_id = ?", employeeID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, companyID *uuid.UUID, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.User{})
	if companyID != nil {
		query = query.Where("company_id = ?", *companyID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Preload("Roles").Preload("Company").Preload("Department")
	if companyID != nil {
		fetch = fetch.Where("company_id = ?", *companyID)
	}
	if err := fetch.Order("employee_id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role string, companyID, departmentID *uuid.UUID) ([]model.User, error) {
	var users []model.User
	query := GetDB(ctx, r.db).
		Preload("Roles").
		Joins("JOIN user_roles ur ON ur.user_id = users.id").
		Joins("JOIN roles ro ON ro.id = ur.role_id").
		Where("ro.name = ?", role)
	if companyID != nil {
		query = query.Where("users.company_id = ?", *companyID)
	}
	if departmentID != nil {
		query = query.Where("users.department_id = ?", *departmentID)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) ReplaceRoles(ctx context.Context, user *model.User, roles []model.Role) error {
	return GetDB(ctx, r.db).Model(user).Association("Roles").Replace(roles)
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Save(user).Error
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.User{}, "id = ?", id).Error
}
