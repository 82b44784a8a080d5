package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type indexProduct struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
}

var indexProducts = []indexProduct{
	{Name: "Laptop", Price: 1999},
	{Name: "Desktop", Price: 2999},
	{Name: "Smartphone", Price: 999},
}

// ShopHandler serves the shop index and the health check.
type ShopHandler struct {
	started time.Time
}

func NewShopHandler(started time.Time) *ShopHandler {
	return &ShopHandler{started: started}
}

func (h *ShopHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleIndex)
	router.Get("/health", h.HandleHealth)
}

func (h *ShopHandler) HandleIndex(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"products":     indexProducts,
		"time_running": time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *ShopHandler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
