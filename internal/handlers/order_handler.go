package handlers

import (
	"github.com/gofiber/fiber/v2"

	"shop/internal/middleware"
	"shop/internal/services"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order and per-user order routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	orderRoutes := router.Group("/orders", guards.Auth)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", guards.Staff, h.HandleGetOrderByID)

	userRoutes := router.Group("/users/:user_id/orders", guards.Auth)
	userRoutes.Get("/", h.HandleUserOrders)
	// Deliberately stricter than any authenticated user: the handler only
	// serves the export to its owner or to staff.
	userRoutes.Get("/export", h.HandleExportUserOrders)
}

// HandleGetOrders lists every order with its user and products.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(c.UserContext())
	if err != nil {
		return respondError(c, "Could not retrieve orders", err)
	}
	return c.JSON(fiber.Map{"orders": newOrderResponses(orders)})
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.service.GetOrder(c.UserContext(), id)
	if err != nil {
		return respondError(c, "Could not retrieve order", err)
	}
	return c.JSON(fiber.Map{"order": newOrderResponse(order)})
}

// HandleUserOrders returns a user and that user's orders.
func (h *OrderHandler) HandleUserOrders(c *fiber.Ctx) error {
	userID, err := paramID(c, "user_id")
	if err != nil {
		return err
	}
	owner, orders, err := h.service.UserOrders(c.UserContext(), userID)
	if err != nil {
		return respondError(c, "Could not retrieve orders", err)
	}
	return c.JSON(fiber.Map{
		"owner":  owner,
		"orders": newOrderResponses(orders),
	})
}

// HandleExportUserOrders serves the cached JSON export of a user's orders
// to that user or to staff.
func (h *OrderHandler) HandleExportUserOrders(c *fiber.Ctx) error {
	userID, err := paramID(c, "user_id")
	if err != nil {
		return err
	}
	identity := middleware.CurrentIdentity(c)
	if identity == nil || (identity.UserID != userID && !identity.IsStaff) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You may only export your own orders",
		})
	}

	payload, err := h.service.ExportUserOrders(c.UserContext(), userID)
	if err != nil {
		return respondError(c, "Could not export orders", err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}
