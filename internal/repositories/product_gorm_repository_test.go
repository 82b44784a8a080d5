package repositories_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop/internal/models"
	"shop/internal/repositories"
	"shop/internal/testutil"
)

func names(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func TestGORMProductRepository_SearchMatchesWildcardsLiterally(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewGORMProductRepository(db)
	ctx := context.Background()

	testutil.CreateProduct(t, db, "50% off", "Clearance", "10.00")
	testutil.CreateProduct(t, db, "500 gram", "Coffee beans", "12.00")
	testutil.CreateProduct(t, db, "a_b", "Underscored", "1.00")
	testutil.CreateProduct(t, db, "axb", "Plain", "1.00")
	testutil.CreateProduct(t, db, `back\slash`, "Escaped", "1.00")

	got, err := repo.List(ctx, repositories.ProductQuery{Search: []string{"0%"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"50% off"}, names(got))

	got, err = repo.List(ctx, repositories.ProductQuery{Search: []string{"a_b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a_b"}, names(got))

	got, err = repo.List(ctx, repositories.ProductQuery{Search: []string{"%"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"50% off"}, names(got))

	got, err = repo.List(ctx, repositories.ProductQuery{Search: []string{`k\s`}})
	require.NoError(t, err)
	assert.Equal(t, []string{`back\slash`}, names(got))
}

func TestGORMProductRepository_ListQuery(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewGORMProductRepository(db)
	ctx := context.Background()

	testutil.CreateProduct(t, db, "Laptop", "High performance laptop", "1200.00")
	testutil.CreateProduct(t, db, "Keyboard", "Mechanical keyboard", "75.50")
	mouse := testutil.CreateProduct(t, db, "Mouse", "Ergonomic wireless mouse", "25.00")
	_, err := repo.SetArchived(ctx, []uint{mouse.ID}, true)
	require.NoError(t, err)

	t.Run("search matches name or description case-insensitively", func(t *testing.T) {
		got, err := repo.List(ctx, repositories.ProductQuery{Search: []string{"KEYB"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Keyboard"}, names(got))

		got, err = repo.List(ctx, repositories.ProductQuery{Search: []string{"wireless"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Mouse"}, names(got))
	})

	t.Run("every search term must match", func(t *testing.T) {
		got, err := repo.List(ctx, repositories.ProductQuery{Search: []string{"laptop", "performance"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Laptop"}, names(got))

		got, err = repo.List(ctx, repositories.ProductQuery{Search: []string{"laptop", "mouse"}})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("exact filters", func(t *testing.T) {
		price := decimal.RequireFromString("75.5")
		got, err := repo.List(ctx, repositories.ProductQuery{Price: &price})
		require.NoError(t, err)
		assert.Equal(t, []string{"Keyboard"}, names(got))

		archived := true
		got, err = repo.List(ctx, repositories.ProductQuery{Archived: &archived})
		require.NoError(t, err)
		assert.Equal(t, []string{"Mouse"}, names(got))

		name := "Lap"
		got, err = repo.List(ctx, repositories.ProductQuery{Name: &name})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ordering", func(t *testing.T) {
		got, err := repo.List(ctx, repositories.ProductQuery{Ordering: []string{"-price"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Laptop", "Keyboard", "Mouse"}, names(got))

		got, err = repo.List(ctx, repositories.ProductQuery{Ordering: []string{"name"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Keyboard", "Laptop", "Mouse"}, names(got))
	})

	t.Run("exclude archived", func(t *testing.T) {
		got, err := repo.List(ctx, repositories.ProductQuery{ExcludeArchived: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"Laptop", "Keyboard"}, names(got))
	})
}

func TestGORMProductRepository_GetAndImages(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewGORMProductRepository(db)
	ctx := context.Background()

	p := testutil.CreateProduct(t, db, "Desk", "Oak desk", "300")
	require.NoError(t, repo.AddImage(ctx, &models.ProductImage{ProductID: p.ID, Image: "products/desk-1.jpg"}))
	require.NoError(t, repo.AddImage(ctx, &models.ProductImage{ProductID: p.ID, Image: "products/desk-2.jpg"}))

	got, err := repo.GetByIDWithImages(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Images, 2)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(300)))

	_, err = repo.GetByID(ctx, 999)
	assert.True(t, errors.Is(err, repositories.ErrProductNotFound))

	err = repo.AddImage(ctx, &models.ProductImage{ProductID: 999, Image: "x.jpg"})
	assert.True(t, errors.Is(err, repositories.ErrProductNotFound))
}

func TestGORMProductRepository_UpdateAndDelete(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewGORMProductRepository(db)
	orders := repositories.NewGORMOrderRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice", false)
	p := testutil.CreateProduct(t, db, "Lamp", "Desk lamp", "40")
	other := testutil.CreateProduct(t, db, "Chair", "Office chair", "150")

	p.Discount = 10
	p.Description = ""
	require.NoError(t, repo.Update(ctx, p))
	reloaded, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int16(10), reloaded.Discount)
	assert.Empty(t, reloaded.Description)

	err = repo.Update(ctx, &models.Product{ID: 999, Name: "ghost"})
	assert.True(t, errors.Is(err, repositories.ErrProductNotFound))

	order := &models.Order{UserID: user.ID, Products: []models.Product{*p, *other}}
	require.NoError(t, orders.Create(ctx, order))

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.GetByID(ctx, p.ID)
	assert.True(t, errors.Is(err, repositories.ErrProductNotFound))

	got, err := orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{other.ID}, got.ProductIDs())

	assert.True(t, errors.Is(repo.Delete(ctx, p.ID), repositories.ErrProductNotFound))
}

func TestGORMProductRepository_LatestAndSetArchived(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewGORMProductRepository(db)
	ctx := context.Background()

	var ids []uint
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		ids = append(ids, testutil.CreateProduct(t, db, n, "", "1").ID)
	}

	latest, err := repo.Latest(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"g", "f", "e", "d", "c"}, names(latest))

	n, err := repo.SetArchived(ctx, ids[:3], true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	visible, err := repo.List(ctx, repositories.ProductQuery{ExcludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, visible, 4)

	n, err = repo.SetArchived(ctx, nil, true)
	require.NoError(t, err)
	assert.Zero(t, n)
}
