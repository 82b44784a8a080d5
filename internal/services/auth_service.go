package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"shop/internal/models"
	"shop/internal/repositories"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Identity is the authenticated caller extracted from a token.
type Identity struct {
	UserID   uint
	Username string
	IsStaff  bool
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour,
		logger:     logger,
	}
}

// RegisterUser hashes the password and stores a new non-staff user.
func (s *AuthService) RegisterUser(ctx context.Context, user *models.User) error {
	if err := s.ensureFree(ctx, user); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)
	user.IsStaff = false

	if err := s.userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

func (s *AuthService) ensureFree(ctx context.Context, user *models.User) error {
	if _, err := s.userRepo.GetByUsername(ctx, user.Username); err == nil {
		return fmt.Errorf("username '%s': %w", user.Username, ErrUsernameTaken)
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return err
	}
	if _, err := s.userRepo.GetByEmail(ctx, user.Email); err == nil {
		return fmt.Errorf("email '%s': %w", user.Email, ErrEmailTaken)
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return err
	}
	return nil
}

// EnsureStaffUser creates the staff account, or promotes and re-keys an
// existing user with that username.
func (s *AuthService) EnsureStaffUser(ctx context.Context, username, email, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		user = &models.User{Username: username, Email: email, Password: string(hashedPassword), IsStaff: true}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return err
		}
		s.logger.Info("staff user created", zap.String("username", username))
		return nil
	case err != nil:
		return err
	}

	user.Password = string(hashedPassword)
	user.IsStaff = true
	if email != "" {
		user.Email = email
	}
	return s.userRepo.Update(ctx, user)
}

// LoginUser authenticates a user and returns a signed JWT.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"is_staff": user.IsStaff,
		"exp":      now.Add(s.tokenDurat).Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT and returns the caller identity.
func (s *AuthService) ValidateToken(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	// JSON numbers decode as float64.
	rawID, ok := claims["user_id"].(float64)
	if !ok || rawID <= 0 {
		return nil, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}
	username, _ := claims["username"].(string)
	isStaff, _ := claims["is_staff"].(bool)

	return &Identity{UserID: uint(rawID), Username: username, IsStaff: isStaff}, nil
}
