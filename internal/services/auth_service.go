package services

import (
	"context"
	"log"

	"pos-backend/internal/apperrors"
	"pos-backend/internal/auth"
	"pos-backend/internal/models"
)

// UserStore persists staff accounts
type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash, role string, branchID *int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Get(ctx context.Context, id int) (*models.User, error)
}

type AuthService struct {
	users      UserStore
	jwtManager *auth.JWTManager
}

func NewAuthService(users UserStore, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{users: users, jwtManager: jwtManager}
}

// Login verifies credentials and issues a JWT
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		// Same response for unknown email and bad password
		return nil, apperrors.Validation("invalid email or password")
	}

	if !user.IsActive {
		return nil, apperrors.Conflict("account is deactivated")
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, apperrors.Validation("invalid email or password")
	}

	token, err := s.jwtManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	log.Printf("[Auth] User %s logged in", user.Email)
	return &models.LoginResponse{Token: token, User: user}, nil
}

// Register creates a staff account
func (s *AuthService) Register(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	return s.users.Create(ctx, req.Name, req.Email, hash, req.Role, req.BranchID)
}
