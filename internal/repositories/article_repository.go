package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"shop/internal/models"
)

// ArticleRepository defines blog article data access.
type ArticleRepository interface {
	// ListSummaries returns articles with author, category and tags loaded
	// and the content column left out.
	ListSummaries(ctx context.Context) ([]models.Article, error)
	Create(ctx context.Context, article *models.Article) error
}

type GORMArticleRepository struct {
	db *gorm.DB
}

func NewGORMArticleRepository(db *gorm.DB) *GORMArticleRepository {
	return &GORMArticleRepository{db: db}
}

func (r *GORMArticleRepository) ListSummaries(ctx context.Context) ([]models.Article, error) {
	var articles []models.Article
	err := r.db.WithContext(ctx).
		Omit("content").
		Preload("Author").
		Preload("Category").
		Preload("Tags").
		Order("id ASC").
		Find(&articles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return articles, nil
}

func (r *GORMArticleRepository) Create(ctx context.Context, article *models.Article) error {
	if err := r.db.WithContext(ctx).Create(article).Error; err != nil {
		return fmt.Errorf("failed to create article: %w", err)
	}
	return nil
}
