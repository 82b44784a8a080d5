package services

import (
	"context"

	"shop/internal/models"
	"shop/internal/repositories"
)

// ArticleService serves the blog.
type ArticleService struct {
	repo repositories.ArticleRepository
}

func NewArticleService(repo repositories.ArticleRepository) *ArticleService {
	return &ArticleService{repo: repo}
}

// ListArticles returns article summaries without their content.
func (s *ArticleService) ListArticles(ctx context.Context) ([]models.Article, error) {
	return s.repo.ListSummaries(ctx)
}
