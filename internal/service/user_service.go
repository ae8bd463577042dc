package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"occ-api/internal/model"
	"occ-api/internal/repository"
	"occ-api/pkg/pagination"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// DTOs for Request validation
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}

type UpdateUserRequest struct {
	Name   string `json:"name" binding:"omitempty,max=255"`
	Email  string `json:"email" binding:"omitempty,email"`
	Role   string `json:"role"`
	Active *bool  `json:"active"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

type TokenResponse struct {
	Token        string        `json:"token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	User         *UserResponse `json:"user"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Active      bool      `json:"active"`
	Permissions []string  `json:"permissions,omitempty"`
	LastLoginAt string    `json:"last_login_at,omitempty"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
}

// AuthSettings configures token issuance.
type AuthSettings struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// UserService covers authentication for every account and CRUD for staff accounts.
type UserService interface {
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, actor Actor) (*UserResponse, error)
	ChangePassword(ctx context.Context, actor Actor, req ChangePasswordRequest) error

	CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, p pagination.Params) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, actor Actor, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, actor Actor, id string) error

	SeedSuperAdmin(ctx context.Context, email, password string) error
}

type userService struct {
	repo     repository.UserRepository
	tokens   repository.RefreshTokenRepository
	roles    RoleService
	audit    AuditService
	auth     AuthSettings
	log      *zap.Logger
	hashCost int
	now      func() time.Time
}

// NewUserService returns a new instance of UserService
func NewUserService(
	repo repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	roles RoleService,
	audit AuditService,
	auth AuthSettings,
	log *zap.Logger,
) UserService {
	return &userService{
		repo:     repo,
		tokens:   tokens,
		roles:    roles,
		audit:    audit,
		auth:     auth,
		log:      log,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	res := &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Active:    user.Active,
		CreatedAt: user.CreatedAt.Format(timeLayout),
		UpdatedAt: user.UpdatedAt.Format(timeLayout),
	}
	if user.LastLoginAt != nil {
		res.LastLoginAt = user.LastLoginAt.Format(timeLayout)
	}
	return res
}

func (s *userService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// issueTokens signs an access token and stores a new refresh token for the user.
func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.auth.AccessTTL).Unix(),
	})
	tokenString, err := token.SignedString(s.auth.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	refresh := &model.RefreshToken{
		UserID:    user.ID,
		Token:     strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", ""),
		ExpiresAt: now.Add(s.auth.RefreshTTL),
	}
	if err := s.tokens.Create(ctx, refresh); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenResponse{
		Token:        tokenString,
		RefreshToken: refresh.Token,
		ExpiresIn:    int64(s.auth.AccessTTL.Seconds()),
		User:         mapToResponse(user),
	}, nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrInactiveUser
	}

	res, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.repo.TouchLogin(ctx, user.ID, now); err != nil {
		s.log.Warn("failed to record last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	} else {
		res.User.LastLoginAt = now.Format(timeLayout)
	}

	s.audit.Record(ctx, Actor{ID: user.ID, Role: user.Role}, model.ActionLogin, "user", user.ID.String(), nil)
	return res, nil
}

// RefreshToken rotates the refresh token: the presented one is revoked and a new pair issued.
func (s *userService) RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error) {
	stored, err := s.tokens.GetActive(ctx, req.RefreshToken, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to fetch refresh token: %w", err)
	}

	user, err := s.repo.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if !user.Active {
		return nil, ErrInactiveUser
	}

	if err := s.tokens.Revoke(ctx, stored.Token, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return s.issueTokens(ctx, user)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.tokens.Revoke(ctx, refreshToken, s.now()); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (s *userService) Me(ctx context.Context, actor Actor) (*UserResponse, error) {
	user, err := s.getUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	res := mapToResponse(user)
	res.Permissions = []string{}
	perms, err := s.roles.GetPermissionsByRoleName(ctx, user.Role)
	if err != nil {
		s.log.Warn("failed to load permissions", zap.String("role", user.Role), zap.Error(err))
	} else if perms != nil {
		res.Permissions = perms
	}
	return res, nil
}

func (s *userService) ChangePassword(ctx context.Context, actor Actor, req ChangePasswordRequest) error {
	user, err := s.getUser(ctx, actor.ID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return invalidInput("current_password", "current password does not match")
	}
	if req.CurrentPassword == req.NewPassword {
		return invalidInput("new_password", "new password must differ from the current one")
	}

	hashed, err := s.hash(req.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	if err := s.repo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	// Every session must log in again with the new password.
	if err := s.tokens.RevokeAllForUser(ctx, user.ID, s.now()); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionChangePassword, "user", user.ID.String(), nil)
	return nil
}

func (s *userService) getUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}

// getStaff loads a user managed through /users; client accounts are owned by ClientService.
func (s *userService) getStaff(ctx context.Context, id string) (*model.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, invalidInput("id", "invalid user id")
	}
	user, err := s.getUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if !model.IsStaffRole(user.Role) {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) checkRole(actor Actor, role string) error {
	if !model.IsStaffRole(role) {
		return invalidInput("role", "must be %s or %s", model.RoleSuperAdmin, model.RoleAdmin)
	}
	if role == model.RoleSuperAdmin && actor.Role != model.RoleSuperAdmin {
		return fmt.Errorf("%w: only %s can grant %s", ErrForbidden, model.RoleSuperAdmin, model.RoleSuperAdmin)
	}
	return nil
}

func (s *userService) emailAvailable(ctx context.Context, email string) error {
	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	return nil
}

func (s *userService) CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error) {
	if err := s.checkRole(actor, req.Role); err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)
	if err := s.emailAvailable(ctx, email); err != nil {
		return nil, err
	}

	hashed, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: hashed,
		Role:     req.Role,
		Active:   true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionCreateUser, "user", user.ID.String(), map[string]interface{}{
		"email": user.Email,
		"role":  user.Role,
	})
	return mapToResponse(user), nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.getStaff(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, p pagination.Params) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, []string{model.RoleSuperAdmin, model.RoleAdmin}, repository.Page{Offset: p.Offset, Limit: p.Limit})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor Actor, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.getStaff(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == model.RoleSuperAdmin && actor.Role != model.RoleSuperAdmin {
		return nil, ErrForbidden
	}

	changes := map[string]interface{}{}
	if req.Role != "" && req.Role != user.Role {
		if err := s.checkRole(actor, req.Role); err != nil {
			return nil, err
		}
		if user.ID == actor.ID {
			return nil, invalidInput("role", "cannot change your own role")
		}
		user.Role = req.Role
		changes["role"] = req.Role
	}

	if req.Email != "" {
		email := normalizeEmail(req.Email)
		if email != user.Email {
			if err := s.emailAvailable(ctx, email); err != nil {
				return nil, err
			}
			user.Email = email
			changes["email"] = email
		}
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}

	if req.Active != nil && *req.Active != user.Active {
		if user.ID == actor.ID && !*req.Active {
			return nil, invalidInput("active", "cannot deactivate your own account")
		}
		user.Active = *req.Active
		changes["active"] = user.Active
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if !user.Active {
		if err := s.tokens.RevokeAllForUser(ctx, user.ID, s.now()); err != nil {
			s.log.Warn("failed to revoke sessions", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}

	s.audit.Record(ctx, actor, model.ActionUpdateUser, "user", user.ID.String(), changes)
	return mapToResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, actor Actor, id string) error {
	user, err := s.getStaff(ctx, id)
	if err != nil {
		return err
	}
	if user.ID == actor.ID {
		return invalidInput("id", "cannot delete your own account")
	}
	if user.Role == model.RoleSuperAdmin && actor.Role != model.RoleSuperAdmin {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if err := s.tokens.RevokeAllForUser(ctx, user.ID, s.now()); err != nil {
		s.log.Warn("failed to revoke sessions", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	s.audit.Record(ctx, actor, model.ActionDeleteUser, "user", user.ID.String(), map[string]interface{}{"email": user.Email})
	return nil
}

// SeedSuperAdmin creates the first SUPER_ADMIN when the email is not registered yet.
func (s *userService) SeedSuperAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		s.log.Info("super admin seed skipped: SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD not set")
		return nil
	}
	if err := s.emailAvailable(ctx, email); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil
		}
		return err
	}

	hashed, err := s.hash(password)
	if err != nil {
		return err
	}
	user := &model.User{Name: "Administrador", Email: email, Password: hashed, Role: model.RoleSuperAdmin, Active: true}
	if err := s.repo.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to seed super admin: %w", err)
	}
	s.log.Info("super admin created", zap.String("email", email))
	return nil
}
