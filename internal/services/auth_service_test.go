package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"shop/internal/models"
	"shop/internal/repositories"
	"shop/internal/services"
)

const testJWTSecret = "test_jwt_secret"

func TestAuthService_RegisterUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, zap.NewNop())

	// Test successful registration
	user := &models.User{Username: "testuser", Email: "test@example.com", Password: "password123", IsStaff: true}
	mockRepo.On("GetByUsername", ctx, "testuser").Return(nil, repositories.ErrUserNotFound).Once()
	mockRepo.On("GetByEmail", ctx, "test@example.com").Return(nil, repositories.ErrUserNotFound).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()

	err := authService.RegisterUser(ctx, user)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	assert.False(t, user.IsStaff, "registration never grants staff")
	mockRepo.AssertExpectations(t)

	// Test username already taken
	mockRepo.On("GetByUsername", ctx, "testuser").Return(&models.User{ID: 1}, nil).Once()
	err = authService.RegisterUser(ctx, &models.User{Username: "testuser", Email: "other@example.com", Password: "x"})
	assert.True(t, errors.Is(err, services.ErrUsernameTaken))
	mockRepo.AssertExpectations(t)

	// Test email already registered
	mockRepo.On("GetByUsername", ctx, "newuser").Return(nil, repositories.ErrUserNotFound).Once()
	mockRepo.On("GetByEmail", ctx, "test@example.com").Return(&models.User{ID: 1}, nil).Once()
	err = authService.RegisterUser(ctx, &models.User{Username: "newuser", Email: "test@example.com", Password: "x"})
	assert.True(t, errors.Is(err, services.ErrEmailTaken))
	assert.Contains(t, err.Error(), "test@example.com")
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, zap.NewNop())

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{ID: 42, Username: "testuser", Password: string(hashedPassword), IsStaff: true}

	// Test successful login
	mockRepo.On("GetByUsername", ctx, "testuser").Return(user, nil).Once()
	token, err := authService.LoginUser(ctx, "testuser", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, float64(42), claims["user_id"])
	assert.Equal(t, "testuser", claims["username"])
	assert.Equal(t, true, claims["is_staff"])

	identity, err := authService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, &services.Identity{UserID: 42, Username: "testuser", IsStaff: true}, identity)
	mockRepo.AssertExpectations(t)

	// Test invalid credentials (wrong password)
	mockRepo.On("GetByUsername", ctx, "testuser").Return(user, nil).Once()
	_, err = authService.LoginUser(ctx, "testuser", "wrongpassword")
	assert.Equal(t, services.ErrInvalidCredentials, err)

	// Test invalid credentials (user not found)
	mockRepo.On("GetByUsername", ctx, "nonexistentuser").Return(nil, repositories.ErrUserNotFound).Once()
	_, err = authService.LoginUser(ctx, "nonexistentuser", "password123")
	assert.Equal(t, services.ErrInvalidCredentials, err)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken_Rejects(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret, zap.NewNop())

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 1})
	foreign, err := other.SignedString([]byte("another_secret"))
	require.NoError(t, err)

	noUser := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"username": "x"})
	missingID, err := noUser.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":       "not-a-token",
		"wrong secret":  foreign,
		"no user claim": missingID,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := authService.ValidateToken(token)
			assert.True(t, errors.Is(err, services.ErrInvalidToken))
		})
	}
}

func TestAuthService_EnsureStaffUser(t *testing.T) {
	ctx := context.Background()

	t.Run("creates missing user", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService := services.NewAuthService(mockRepo, testJWTSecret, zap.NewNop())

		mockRepo.On("GetByUsername", ctx, "admin").Return(nil, repositories.ErrUserNotFound).Once()
		mockRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
			return u.Username == "admin" && u.IsStaff && u.Password != "secret"
		})).Return(nil).Once()

		require.NoError(t, authService.EnsureStaffUser(ctx, "admin", "admin@example.com", "secret"))
		mockRepo.AssertExpectations(t)
	})

	t.Run("promotes existing user", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService := services.NewAuthService(mockRepo, testJWTSecret, zap.NewNop())

		existing := &models.User{ID: 3, Username: "admin", Email: "old@example.com"}
		mockRepo.On("GetByUsername", ctx, "admin").Return(existing, nil).Once()
		mockRepo.On("Update", ctx, existing).Return(nil).Once()

		require.NoError(t, authService.EnsureStaffUser(ctx, "admin", "", "secret"))
		assert.True(t, existing.IsStaff)
		assert.Equal(t, "old@example.com", existing.Email)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(existing.Password), []byte("secret")))
		mockRepo.AssertExpectations(t)
	})
}
