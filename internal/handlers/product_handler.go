package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"shop/internal/services"
)

// ProductHandler serves the product listing, detail and form views.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product views. Static paths come before the
// :id routes so they are not shadowed.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleList)
	productRoutes.Post("/create", guards.Auth, h.HandleCreate)
	productRoutes.Get("/export", h.HandleExport)
	productRoutes.Get("/:id", h.HandleDetail)
	productRoutes.Post("/:id/update", guards.Auth, h.HandleUpdate)
	productRoutes.Get("/:id/archive", guards.Auth, h.HandleArchiveConfirm)
	productRoutes.Post("/:id/archive", guards.Auth, h.HandleArchive)
}

// productForm is the body of the create and update views. Numbers arrive as
// text so that a bad value becomes a field error instead of a parse failure.
type productForm struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
	Price       string `json:"price" form:"price"`
	Discount    string `json:"discount" form:"discount"`
	Preview     string `json:"preview" form:"preview"`
}

func (f *productForm) input() (services.ProductInput, error) {
	in := services.ProductInput{
		Name:        strings.TrimSpace(f.Name),
		Description: f.Description,
		Preview:     f.Preview,
	}
	verr := &services.ValidationError{}

	if p := strings.TrimSpace(f.Price); p != "" {
		price, err := decimal.NewFromString(p)
		if err != nil {
			verr.Add("price", "enter a number")
		}
		in.Price = price
	}
	if d := strings.TrimSpace(f.Discount); d != "" {
		discount, err := strconv.ParseInt(d, 10, 16)
		if err != nil {
			verr.Add("discount", "enter a whole number")
		}
		in.Discount = int16(discount)
	}
	return in, verr.OrNil()
}

// HandleList lists the products that are not archived.
func (h *ProductHandler) HandleList(c *fiber.Ctx) error {
	products, err := h.service.ListVisibleProducts(c.UserContext())
	if err != nil {
		return respondError(c, "Could not retrieve products", err)
	}
	return c.JSON(fiber.Map{"products": newProductResponses(products)})
}

// HandleDetail shows a product with its images. Archived products are
// still served.
func (h *ProductHandler) HandleDetail(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.service.GetProductDetails(c.UserContext(), id)
	if err != nil {
		return respondError(c, "Could not retrieve product", err)
	}
	return c.JSON(fiber.Map{"product": newProductResponse(product)})
}

// HandleCreate validates the form and redirects to the listing.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	var form productForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	in, err := form.input()
	if err != nil {
		return respondError(c, "Could not create product", err)
	}
	if _, err := h.service.CreateProduct(c.UserContext(), in); err != nil {
		return respondError(c, "Could not create product", err)
	}
	return c.Redirect("/products/")
}

// HandleUpdate validates the form and redirects to the product detail.
func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var form productForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	in, err := form.input()
	if err != nil {
		return respondError(c, "Could not update product", err)
	}
	product, err := h.service.UpdateProduct(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, "Could not update product", err)
	}
	return c.Redirect(product.AbsoluteURL())
}

// HandleArchiveConfirm returns the product the archive view would hide.
func (h *ProductHandler) HandleArchiveConfirm(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.service.GetProductByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, "Could not retrieve product", err)
	}
	return c.JSON(fiber.Map{
		"message": "Confirm archiving this product",
		"product": newProductResponse(product),
	})
}

// HandleArchive marks the product archived. The row is kept.
func (h *ProductHandler) HandleArchive(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.service.SetArchived(c.UserContext(), id, true); err != nil {
		return respondError(c, "Could not archive product", err)
	}
	return c.Redirect("/products/")
}

// HandleExport dumps every product ordered by pk.
func (h *ProductHandler) HandleExport(c *fiber.Ctx) error {
	rows, err := h.service.ExportData(c.UserContext())
	if err != nil {
		return respondError(c, "Could not export products", err)
	}
	return c.JSON(fiber.Map{"products": rows})
}
