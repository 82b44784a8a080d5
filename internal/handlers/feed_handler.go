package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/feeds"

	"shop/internal/services"
)

const (
	feedPath        = "/products/latest/feed/"
	feedTitle       = "Latest Products"
	feedDescription = "Updates on the latest products in the shop."
	feedSize        = 5
)

// FeedHandler renders the RSS feed of the newest products.
type FeedHandler struct {
	service *services.ProductService
	baseURL string
}

func NewFeedHandler(service *services.ProductService, baseURL string) *FeedHandler {
	return &FeedHandler{service: service, baseURL: strings.TrimRight(baseURL, "/")}
}

func (h *FeedHandler) RegisterRoutes(router fiber.Router) {
	router.Get(strings.TrimSuffix(feedPath, "/"), h.HandleLatest)
}

// HandleLatest lists the five most recently added products.
func (h *FeedHandler) HandleLatest(c *fiber.Ctx) error {
	products, err := h.service.LatestProducts(c.UserContext(), feedSize)
	if err != nil {
		return respondError(c, "Could not build feed", err)
	}

	feed := &feeds.Feed{
		Title:       feedTitle,
		Link:        &feeds.Link{Href: h.baseURL + feedPath},
		Description: feedDescription,
		Created:     time.Now(),
	}
	for i := range products {
		p := &products[i]
		link := h.baseURL + p.AbsoluteURL()
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          link,
			Title:       p.Name,
			Link:        &feeds.Link{Href: link},
			Description: p.Description,
			Created:     p.CreatedAt,
		})
		if i == 0 {
			feed.Updated = p.CreatedAt
		}
	}

	rss, err := feed.ToRss()
	if err != nil {
		return respondError(c, "Could not build feed", err)
	}
	c.Set(fiber.HeaderContentType, "application/rss+xml; charset=utf-8")
	return c.SendString(rss)
}
