package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shop/internal/middleware"
	"shop/internal/repositories"
	"shop/internal/services"
	"shop/internal/testutil"
)

func TestAuthAndStaffRequired(t *testing.T) {
	db := testutil.NewDB(t)
	authService := services.NewAuthService(repositories.NewGORMUserRepository(db), "test_jwt_secret", zap.NewNop())
	ctx := context.Background()
	require.NoError(t, authService.EnsureStaffUser(ctx, "admin", "admin@example.com", "password123"))
	require.NoError(t, authService.EnsureStaffUser(ctx, "clerk", "clerk@example.com", "password123"))
	require.NoError(t, db.Exec("UPDATE users SET is_staff = ? WHERE username = ?", false, "clerk").Error)

	staffToken, err := authService.LoginUser(ctx, "admin", "password123")
	require.NoError(t, err)
	userToken, err := authService.LoginUser(ctx, "clerk", "password123")
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/me", middleware.AuthRequired(authService), func(c *fiber.Ctx) error {
		return c.SendString(middleware.CurrentIdentity(c).Username)
	})
	app.Get("/staff", middleware.AuthRequired(authService), middleware.StaffRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"no header", "/me", "", http.StatusUnauthorized},
		{"wrong scheme", "/me", "Token " + userToken, http.StatusUnauthorized},
		{"bad token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"user", "/me", "Bearer " + userToken, http.StatusOK},
		{"user on staff route", "/staff", "Bearer " + userToken, http.StatusForbidden},
		{"staff", "/staff", "Bearer " + staffToken, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestStaffRequired_WithoutIdentity(t *testing.T) {
	app := fiber.New()
	app.Get("/staff", middleware.StaffRequired(), func(c *fiber.Ctx) error { return nil })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/staff", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
