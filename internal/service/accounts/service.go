// Package accounts owns user registration, authentication and the admin
// account-management operations.
package accounts

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"biostorex/internal/auth"
	"biostorex/internal/config"
	"biostorex/internal/domain/apperr"
	"biostorex/internal/domain/models"
	"biostorex/internal/repository"
)

// Service implements account operations.
type Service struct {
	users  repository.UserStore
	tokens *auth.TokenManager
	logger *zap.Logger
}

// NewService wires an accounts service instance.
func NewService(users repository.UserStore, tokens *auth.TokenManager, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, tokens: tokens, logger: logger}
}

// RegisterInput carries self-service registration fields.
type RegisterInput struct {
	UserName string
	FullName string
	Email    string
	Password string
	Role     string
}

// Register creates a Student account. Any attempt to self-register another
// role is rejected.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.UserName == "" || in.FullName == "" || in.Email == "" || in.Password == "" {
		return nil, apperr.Validation("all fields are required")
	}
	if in.Role != "" && in.Role != string(models.RoleStudent) {
		return nil, apperr.Authorization("only students can register using this route")
	}

	userName := strings.ToLower(strings.TrimSpace(in.UserName))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if err := s.ensureIdentityFree(ctx, userName, email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user := &models.User{
		UserName:     userName,
		FullName:     in.FullName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		IsActive:     true,
	}
	if err := s.users.InsertUser(ctx, user); err != nil {
		return nil, apperr.Internal("failed to create user", err)
	}

	s.logger.Info("student registered", zap.String("user", user.ID), zap.String("userName", userName))
	return user, nil
}

// TokenPair is the session material handed back on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Login authenticates by username or email and issues a token pair. The
// refresh token is persisted so rotation can invalidate old sessions.
func (s *Service) Login(ctx context.Context, userName, email, password string) (*models.User, *TokenPair, error) {
	if userName == "" && email == "" {
		return nil, nil, apperr.Validation("email or username is required")
	}

	var user *models.User
	var err error
	if userName != "" {
		user, err = s.users.FindUserByUserName(ctx, strings.ToLower(userName))
	} else {
		user, err = s.users.FindUserByEmail(ctx, strings.ToLower(email))
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, nil, apperr.Internal("failed to find user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, apperr.Unauthorized("invalid password")
	}
	if !user.IsActive {
		return nil, nil, apperr.Authorization("user account is deactivated")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Logout clears the persisted refresh token, ending the session.
func (s *Service) Logout(ctx context.Context, user *models.User) error {
	user.RefreshToken = ""
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return apperr.Internal("failed to clear refresh token", err)
	}
	return nil
}

// Refresh verifies the presented refresh token against the persisted one
// and rotates the pair.
func (s *Service) Refresh(ctx context.Context, rawToken string) (*TokenPair, error) {
	if rawToken == "" {
		return nil, apperr.Unauthorized("no refresh token provided")
	}

	userID, err := s.tokens.ParseRefreshToken(rawToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Unauthorized("user not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to find user", err)
	}
	if user.RefreshToken != rawToken {
		return nil, apperr.Unauthorized("invalid refresh token")
	}

	return s.issueTokens(ctx, user)
}

// ChangePassword verifies the current password before setting the new one.
func (s *Service) ChangePassword(ctx context.Context, user *models.User, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperr.Validation("current password and new password are required")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return apperr.Unauthorized("invalid current password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal("failed to hash password", err)
	}
	user.PasswordHash = string(hash)

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return apperr.Internal("failed to update user", err)
	}
	return nil
}

// UpdateProfile changes username and/or full name, re-checking username
// uniqueness.
func (s *Service) UpdateProfile(ctx context.Context, user *models.User, userName, fullName string) (*models.User, error) {
	if userName == "" && fullName == "" {
		return nil, apperr.Validation("at least one field is required")
	}

	if userName != "" {
		normalized := strings.ToLower(strings.TrimSpace(userName))
		existing, err := s.users.FindUserByUserName(ctx, normalized)
		if err == nil && existing.ID != user.ID {
			return nil, apperr.Conflict("username is already taken")
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Internal("failed to check username", err)
		}
		user.UserName = normalized
	}
	if fullName != "" {
		user.FullName = fullName
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, apperr.Internal("failed to update user", err)
	}
	return user, nil
}

// AddStorekeeper provisions a Storekeeper account; admin only.
func (s *Service) AddStorekeeper(ctx context.Context, actor *models.User, in RegisterInput) (*models.User, error) {
	if err := auth.Authorize(actor, auth.OpProvisionStorekeeper); err != nil {
		return nil, err
	}
	if in.UserName == "" || in.FullName == "" || in.Email == "" || in.Password == "" {
		return nil, apperr.Validation("all fields are required")
	}

	userName := strings.ToLower(strings.TrimSpace(in.UserName))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if err := s.ensureIdentityFree(ctx, userName, email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user := &models.User{
		UserName:     userName,
		FullName:     in.FullName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleStorekeeper,
		IsActive:     true,
	}
	if err := s.users.InsertUser(ctx, user); err != nil {
		return nil, apperr.Internal("failed to create user", err)
	}

	s.logger.Info("storekeeper provisioned", zap.String("user", user.ID), zap.String("by", actor.ID))
	return user, nil
}

// SetActive flips the blacklist flag on an account; admin only.
func (s *Service) SetActive(ctx context.Context, actor *models.User, userID string, active bool) (*models.User, error) {
	op := auth.OpBlacklistUser
	if active {
		op = auth.OpActivateUser
	}
	if err := auth.Authorize(actor, op); err != nil {
		return nil, err
	}

	user, err := s.users.FindUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to find user", err)
	}

	user.IsActive = active
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, apperr.Internal("failed to update user", err)
	}

	s.logger.Info("user active flag changed",
		zap.String("user", user.ID),
		zap.Bool("active", active),
		zap.String("by", actor.ID))
	return user, nil
}

// ListUsers lists every account; admin only.
func (s *Service) ListUsers(ctx context.Context, actor *models.User) ([]models.User, error) {
	if err := auth.Authorize(actor, auth.OpListUsers); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list users", err)
	}
	return users, nil
}

// GetUser loads an account by ID; used by the authentication middleware.
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Unauthorized("user not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to find user", err)
	}
	return user, nil
}

// EnsureDefaultAdmin guarantees exactly one Admin exists at process start,
// creating one from the configured credentials otherwise.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, cfg config.AdminConfig) error {
	existing, err := s.users.FindUserByRole(ctx, models.RoleAdmin)
	if err == nil {
		s.logger.Info("admin already exists", zap.String("email", existing.Email))
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return apperr.Internal("failed to look up admin", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal("failed to hash admin password", err)
	}

	admin := &models.User{
		UserName:     strings.ToLower(cfg.UserName),
		FullName:     cfg.FullName,
		Email:        strings.ToLower(cfg.Email),
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := s.users.InsertUser(ctx, admin); err != nil {
		return apperr.Internal("failed to create default admin", err)
	}

	s.logger.Info("default admin created", zap.String("email", admin.Email))
	return nil
}

func (s *Service) ensureIdentityFree(ctx context.Context, userName, email string) error {
	if _, err := s.users.FindUserByUserName(ctx, userName); err == nil {
		return apperr.Conflict("user with this email or username already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return apperr.Internal("failed to check username", err)
	}
	if _, err := s.users.FindUserByEmail(ctx, email); err == nil {
		return apperr.Conflict("user with this email or username already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return apperr.Internal("failed to check email", err)
	}
	return nil
}

func (s *Service) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, apperr.Internal("failed to issue access token", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, apperr.Internal("failed to issue refresh token", err)
	}

	user.RefreshToken = refresh
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, apperr.Internal("failed to persist refresh token", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
