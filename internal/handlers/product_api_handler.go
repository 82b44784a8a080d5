package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"shop/internal/repositories"
	"shop/internal/services"
)

var orderingFields = map[string]bool{"name": true, "price": true, "discount": true}

// ProductAPIHandler serves the product collection API.
type ProductAPIHandler struct {
	service *services.ProductService
}

// NewProductAPIHandler creates a new ProductAPIHandler.
func NewProductAPIHandler(service *services.ProductService) *ProductAPIHandler {
	return &ProductAPIHandler{service: service}
}

// RegisterRoutes registers /api/products. Reads are open, writes need a
// staff user.
func (h *ProductAPIHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	api := router.Group("/api/products")
	api.Get("/", h.HandleList)
	api.Post("/", guards.Auth, guards.Staff, h.HandleCreate)
	api.Get("/:id", h.HandleRetrieve)
	api.Put("/:id", guards.Auth, guards.Staff, h.HandleUpdate)
	api.Patch("/:id", guards.Auth, guards.Staff, h.HandlePatch)
	api.Delete("/:id", guards.Auth, guards.Staff, h.HandleDelete)
}

// ParseProductQuery reads search, filter and ordering parameters. Unknown
// ordering fields are dropped; a filter value that does not parse is a
// field error.
func ParseProductQuery(c *fiber.Ctx) (repositories.ProductQuery, error) {
	q := repositories.ProductQuery{
		Search: services.SplitSearchTerms(c.Query("search")),
	}
	verr := &services.ValidationError{}
	args := c.Context().QueryArgs()

	if args.Has("name") {
		v := c.Query("name")
		q.Name = &v
	}
	if args.Has("description") {
		v := c.Query("description")
		q.Description = &v
	}
	if args.Has("price") {
		price, err := decimal.NewFromString(strings.TrimSpace(c.Query("price")))
		if err != nil {
			verr.Add("price", "enter a number")
		} else {
			q.Price = &price
		}
	}
	if args.Has("discount") {
		n, err := strconv.ParseInt(strings.TrimSpace(c.Query("discount")), 10, 16)
		if err != nil {
			verr.Add("discount", "enter a whole number")
		} else {
			discount := int16(n)
			q.Discount = &discount
		}
	}
	if args.Has("archived") {
		archived, ok := parseBoolParam(c.Query("archived"))
		if !ok {
			verr.Add("archived", "enter true or false")
		} else {
			q.Archived = &archived
		}
	}

	for _, field := range strings.Split(c.Query("ordering"), ",") {
		field = strings.TrimSpace(field)
		if orderingFields[strings.TrimPrefix(field, "-")] {
			q.Ordering = append(q.Ordering, field)
		}
	}
	return q, verr.OrNil()
}

func parseBoolParam(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

// HandleList lists products, archived ones included, without pagination.
func (h *ProductAPIHandler) HandleList(c *fiber.Ctx) error {
	q, err := ParseProductQuery(c)
	if err != nil {
		return respondError(c, "Invalid query", err)
	}
	products, err := h.service.QueryProducts(c.UserContext(), q)
	if err != nil {
		return respondError(c, "Could not retrieve products", err)
	}
	return c.JSON(newProductResponses(products))
}

// HandleRetrieve returns one product.
func (h *ProductAPIHandler) HandleRetrieve(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.service.GetProductByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, "Could not retrieve product", err)
	}
	return c.JSON(newProductResponse(product))
}

// HandleCreate creates a product from a JSON body.
func (h *ProductAPIHandler) HandleCreate(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	product, err := h.service.CreateProduct(c.UserContext(), in)
	if err != nil {
		return respondError(c, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(newProductResponse(product))
}

// HandleUpdate replaces a product.
func (h *ProductAPIHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	product, err := h.service.UpdateProduct(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, "Could not update product", err)
	}
	return c.JSON(newProductResponse(product))
}

// HandlePatch updates the fields present in the body.
func (h *ProductAPIHandler) HandlePatch(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var patch services.ProductPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	product, err := h.service.PatchProduct(c.UserContext(), id, patch)
	if err != nil {
		return respondError(c, "Could not update product", err)
	}
	return c.JSON(newProductResponse(product))
}

// HandleDelete removes the product row and its order links.
func (h *ProductAPIHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return respondError(c, "Could not delete product", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
