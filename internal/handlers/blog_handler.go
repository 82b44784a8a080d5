package handlers

import (
	"github.com/gofiber/fiber/v2"

	"shop/internal/services"
)

type BlogHandler struct {
	service *services.ArticleService
}

func NewBlogHandler(service *services.ArticleService) *BlogHandler {
	return &BlogHandler{service: service}
}

func (h *BlogHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/blog/articles", h.HandleArticles)
}

// HandleArticles lists articles without their content.
func (h *BlogHandler) HandleArticles(c *fiber.Ctx) error {
	articles, err := h.service.ListArticles(c.UserContext())
	if err != nil {
		return respondError(c, "Could not retrieve articles", err)
	}
	return c.JSON(fiber.Map{"articles": articles})
}
