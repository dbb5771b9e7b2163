package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Ayman482/nile-dose-cafe-website/internal/auth"
	"github.com/Ayman482/nile-dose-cafe-website/internal/dbconnector"
	apperr "github.com/Ayman482/nile-dose-cafe-website/internal/errors"
	"github.com/Ayman482/nile-dose-cafe-website/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	// bcrypt input limit, in bytes
	maxPasswordLength = 72
)

type UserService struct {
	storage Storage
	tokens  *auth.TokenManager
	log     *zap.Logger
}

func NewUserService(storage Storage, tokens *auth.TokenManager, log *zap.Logger) *UserService {
	return &UserService{storage: storage, tokens: tokens, log: log.Named("user.service")}
}

func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (models.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return models.AuthResponse{}, apperr.Validation("a valid email is required")
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return models.AuthResponse{}, err
	}

	user := dbconnector.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         dbconnector.RoleCustomer,
	}
	if err := s.storage.AddUser(ctx, &user); err != nil {
		return models.AuthResponse{}, apperr.Storage("register user", err)
	}
	s.log.Info("user registered", zap.String("user_id", user.ID))
	return s.authResponse(user)
}

func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error) {
	user, err := s.storage.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, apperr.ErrNotFound) {
		return models.AuthResponse{}, fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthorized)
	}
	if err != nil {
		return models.AuthResponse{}, apperr.Storage("login", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.log.Info("failed login", zap.String("user_id", user.ID))
		return models.AuthResponse{}, fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthorized)
	}
	return s.authResponse(user)
}

func (s *UserService) Me(ctx context.Context, userID string) (models.UserResponse, error) {
	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		return models.UserResponse{}, apperr.Storage("get user", err)
	}
	return toUserResponse(user), nil
}

// UpdateProfile changes the name and phone of the signed-in user.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req models.ProfileRequest) (models.UserResponse, error) {
	fields := make(map[string]any, 2)
	if req.FullName != nil {
		fields["full_name"] = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}
	if len(fields) == 0 {
		return models.UserResponse{}, apperr.Validation("nothing to update")
	}

	user, err := s.storage.UpdateUser(ctx, userID, fields)
	if err != nil {
		return models.UserResponse{}, apperr.Storage("update profile", err)
	}
	s.log.Info("profile updated", zap.String("user_id", userID))
	return toUserResponse(user), nil
}

// ChangePassword replaces the password after checking the current one.
// Tokens issued before the change stay valid until they expire.
func (s *UserService) ChangePassword(ctx context.Context, userID string, req models.PasswordChangeRequest) error {
	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		return apperr.Storage("change password", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		s.log.Info("password change with wrong current password", zap.String("user_id", userID))
		return apperr.Validation("current password is incorrect")
	}
	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	if _, err := s.storage.UpdateUser(ctx, userID, map[string]any{"password_hash": hash}); err != nil {
		return apperr.Storage("change password", err)
	}
	s.log.Info("password changed", zap.String("user_id", userID))
	return nil
}

// PromoteAdmin gives an existing account the admin role.
func (s *UserService) PromoteAdmin(ctx context.Context, email string) error {
	if err := s.storage.SetUserRole(ctx, normalizeEmail(email), dbconnector.RoleAdmin); err != nil {
		return apperr.Storage("promote admin", err)
	}
	s.log.Info("admin role granted", zap.String("email", email))
	return nil
}

func (s *UserService) authResponse(user dbconnector.User) (models.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return models.AuthResponse{}, fmt.Errorf("issue token: %w", err)
	}
	return models.AuthResponse{Token: token, User: toUserResponse(user)}, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", apperr.Validation("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return "", apperr.Validation("password must be at most %d bytes", maxPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
