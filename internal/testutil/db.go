// Package testutil provides helpers shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shop/internal/config"
	"shop/internal/database"
	"shop/internal/models"
)

// NewDB opens a private in-memory SQLite database with the schema migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: dsn, LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(t *testing.T, db *gorm.DB, username string, staff bool) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Password: "x", IsStaff: staff}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateProduct inserts a product with the given name and price.
func CreateProduct(t *testing.T, db *gorm.DB, name, description, price string) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Description: description, Price: decimal.RequireFromString(price)}
	require.NoError(t, db.Create(p).Error)
	return p
}
