package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Name         string   `json:"name" binding:"required"`
	Email        string   `json:"email" binding:"required,email"`
	EmployeeID   string   `json:"employee_id" binding:"required"`
	Password     string   `json:"password" binding:"required,min=6"`
	Position     string   `json:"position"`
	CompanyID    string   `json:"company_id"`
	DepartmentID string   `json:"department_id"`
	Roles        []string `json:"roles" binding:"required,min=1"`
}

type UpdateUserRequest struct {
	Name         string   `json:"name"`
	Email        string   `json:"email" binding:"omitempty,email"`
	Position     string   `json:"position"`
	CompanyID    string   `json:"company_id"`
	DepartmentID string   `json:"department_id"`
	Roles        []string `json:"roles"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserResponse returns User data without exposing sensitive fields
type UserResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	EmployeeID   string   `json:"employee_id"`
	Position     string   `json:"position,omitempty"`
	CompanyID    string   `json:"company_id,omitempty"`
	DepartmentID string   `json:"department_id,omitempty"`
	Roles        []string `json:"roles"`
	CreatedAt    string   `json:"created_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, actor model.Principal, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, companyID string, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, actor model.Principal, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, actor model.Principal, id string) error
}

type userService struct {
	db        *gorm.DB
	userRepo  repository.UserRepository
	roleRepo  repository.RoleRepository
	jwtSecret []byte
	accessTTL time.Duration
}

// NewUserService returns a new instance of UserService
func NewUserService(db *gorm.DB, userRepo repository.UserRepository, roleRepo repository.RoleRepository, jwtSecret []byte) UserService {
	return &userService{
		db:        db,
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		jwtSecret: jwtSecret,
		accessTTL: 24 * time.Hour,
	}
}

// --- Helpers ---

func mapToUserResponse(user *model.User) *UserResponse {
	resp := &UserResponse{
		ID:         user.ID.String(),
		Name:       user.Name,
		Email:      user.Email,
		EmployeeID: user.EmployeeID,
		Position:   user.Position,
		Roles:      user.RoleNames(),
		CreatedAt:  user.CreatedAt.Format(time.RFC3339),
	}
	if user.CompanyID != nil {
		resp.CompanyID = user.CompanyID.String()
	}
	if user.DepartmentID != nil {
		resp.DepartmentID = user.DepartmentID.String()
	}
	return resp
}

func parseOptionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// --- Implementation ---

func (s *userService) CreateUser(ctx context.Context, actor model.Principal, req CreateUserRequest) (*UserResponse, error) {
	if !actor.IsAdmin() {
		return nil, authorizationErrorf("only administrators may create users")
	}

	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, validationErrorf("email already exists")
	}
	if _, err := s.userRepo.GetByEmployeeID(ctx, req.EmployeeID); err == nil {
		return nil, validationErrorf("employee id already exists")
	}

	roles, err := s.roleRepo.GetByNames(ctx, req.Roles)
	if err != nil {
		return nil, err
	}
	if len(roles) != len(req.Roles) {
		return nil, validationErrorf("one or more roles do not exist")
	}

	companyID, err := parseOptionalUUID(req.CompanyID)
	if err != nil {
		return nil, validationErrorf("invalid company id: %v", err)
	}
	departmentID, err := parseOptionalUUID(req.DepartmentID)
	if err != nil {
		return nil, validationErrorf("invalid department id: %v", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		EmployeeID:   req.EmployeeID,
		Password:     string(hashedPassword),
		Position:     req.Position,
		CompanyID:    companyID,
		DepartmentID: departmentID,
		Roles:        roles,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return mapToUserResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, authorizationErrorf("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, authorizationErrorf("invalid email or password")
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var stored model.RefreshToken
	err := s.db.WithContext(ctx).First(&stored, "token = ?", refreshToken).Error
	if err != nil || time.Now().After(stored.ExpiresAt) {
		return nil, authorizationErrorf("invalid or expired refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, authorizationErrorf("invalid refresh token")
	}

	// Rotate: the old token is single-use
	if err := s.db.WithContext(ctx).Delete(&stored).Error; err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"roles": user.RoleNames(),
		"exp":   time.Now().Add(s.accessTTL).Unix(),
	}
	if user.CompanyID != nil {
		claims["company_id"] = user.CompanyID.String()
	}
	if user.DepartmentID != nil {
		claims["department_id"] = user.DepartmentID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	refresh := model.RefreshToken{
		UserID:    user.ID,
		Token:     hex.EncodeToString(raw),
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	if err := s.db.WithContext(ctx).Create(&refresh).Error; err != nil {
		return nil, err
	}

	return &TokenResponse{AccessToken: accessToken, RefreshToken: refresh.Token}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationErrorf("invalid user id: %v", err)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return mapToUserResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, companyID string, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	companyUUID, err := parseOptionalUUID(companyID)
	if err != nil {
		return nil, 0, validationErrorf("invalid company id: %v", err)
	}

	users, total, err := s.userRepo.List(ctx, companyUUID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToUserResponse(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor model.Principal, id string, req UpdateUserRequest) (*UserResponse, error) {
	if !actor.IsAdmin() {
		return nil, authorizationErrorf("only administrators may update users")
	}

	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationErrorf("invalid user id: %v", err)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" && req.Email != user.Email {
		if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
			return nil, validationErrorf("email already exists")
		}
		user.Email = req.Email
	}
	if req.Position != "" {
		user.Position = req.Position
	}
	if req.CompanyID != "" {
		companyID, err := parseOptionalUUID(req.CompanyID)
		if err != nil {
			return nil, validationErrorf("invalid company id: %v", err)
		}
		user.CompanyID = companyID
	}
	if req.DepartmentID != "" {
		departmentID, err := parseOptionalUUID(req.DepartmentID)
		if err != nil {
			return nil, validationErrorf("invalid department id: %v", err)
		}
		user.DepartmentID = departmentID
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if len(req.Roles) > 0 {
		roles, err := s.roleRepo.GetByNames(ctx, req.Roles)
		if err != nil {
			return nil, err
		}
		if len(roles) != len(req.Roles) {
			return nil, validationErrorf("one or more roles do not exist")
		}
		if err := s.userRepo.ReplaceRoles(ctx, user, roles); err != nil {
			return nil, err
		}
		user.Roles = roles
	}

	return mapToUserResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, actor model.Principal, id string) error {
	if !actor.IsAdmin() {
		return authorizationErrorf("only administrators may delete users")
	}
	userID, err := uuid.Parse(id)
	if err != nil {
		return validationErrorf("invalid user id: %v", err)
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, userID)
}
