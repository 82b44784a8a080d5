package handlers

import (
	"bytes"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"

	"shop/internal/csvimport"
	"shop/internal/logger"
	"shop/internal/services"
)

const (
	flashKey         = "flash"
	flashSeparator   = "\n"
	importSuccessMsg = "Orders imported successfully."
	importFileField  = "file"
)

// Admin product actions.
const (
	ActionMarkArchived   = "mark_archived"
	ActionMarkUnarchived = "mark_unarchived"
	ActionExportCSV      = "export_csv"
)

// AdminHandler serves the staff-only shop administration.
type AdminHandler struct {
	products *services.ProductService
	orders   *services.OrderService
	sessions *session.Store
}

// NewAdminHandler creates a new AdminHandler. Flash messages live in
// sessions.
func NewAdminHandler(products *services.ProductService, orders *services.OrderService, sessions *session.Store) *AdminHandler {
	return &AdminHandler{
		products: products,
		orders:   orders,
		sessions: sessions,
	}
}

// RegisterRoutes registers the /admin/shop routes behind the staff guard.
func (h *AdminHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	admin := router.Group("/admin/shop", guards.Auth, guards.Staff)
	admin.Get("/products", h.HandleProducts)
	admin.Post("/products/actions", h.HandleProductAction)
	admin.Post("/products/:id/images", h.HandleAddImage)
	admin.Get("/orders", h.HandleOrders)
	admin.Get("/orders/import", h.HandleImportForm)
	admin.Post("/orders/import", h.HandleImport)
}

type adminProductRow struct {
	PK               uint   `json:"pk"`
	Name             string `json:"name"`
	DescriptionShort string `json:"description_short"`
	Price            string `json:"price"`
	Discount         int16  `json:"discount"`
	Archived         bool   `json:"archived"`
}

// HandleProducts lists products by name descending, filtered by q.
func (h *AdminHandler) HandleProducts(c *fiber.Ctx) error {
	products, err := h.products.AdminListProducts(c.UserContext(), c.Query("q"))
	if err != nil {
		return respondError(c, "Could not retrieve products", err)
	}
	rows := make([]adminProductRow, 0, len(products))
	for i := range products {
		p := &products[i]
		rows = append(rows, adminProductRow{
			PK:               p.ID,
			Name:             p.Name,
			DescriptionShort: p.DescriptionShort(),
			Price:            p.Price.StringFixed(2),
			Discount:         p.Discount,
			Archived:         p.Archived,
		})
	}
	return c.JSON(fiber.Map{"products": rows})
}

// ProductActionRequest selects products for a bulk action.
type ProductActionRequest struct {
	Action string `json:"action"`
	IDs    []uint `json:"ids"`
}

// HandleProductAction runs a bulk action on the selected products.
func (h *AdminHandler) HandleProductAction(c *fiber.Ctx) error {
	var req ProductActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if len(req.IDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  map[string]string{"ids": "select at least one product"},
		})
	}

	ctx := c.UserContext()
	switch req.Action {
	case ActionMarkArchived, ActionMarkUnarchived:
		updated, err := h.products.SetArchivedBulk(ctx, req.IDs, req.Action == ActionMarkArchived)
		if err != nil {
			return respondError(c, "Could not update products", err)
		}
		return c.JSON(fiber.Map{"action": req.Action, "updated": updated})

	case ActionExportCSV:
		var buf bytes.Buffer
		if err := h.products.ExportCSV(ctx, &buf, req.IDs); err != nil {
			return respondError(c, "Could not export products", err)
		}
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="products.csv"`)
		return c.Send(buf.Bytes())
	}

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  map[string]string{"action": "unknown action " + req.Action},
	})
}

type imageRequest struct {
	Image       string `json:"image"`
	Description string `json:"description"`
}

// HandleAddImage attaches an image to a product.
func (h *AdminHandler) HandleAddImage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req imageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	image, err := h.products.AddImage(c.UserContext(), id, req.Image, req.Description)
	if err != nil {
		return respondError(c, "Could not add image", err)
	}
	return c.Status(fiber.StatusCreated).JSON(image)
}

// HandleOrders lists orders together with the pending flash messages.
func (h *AdminHandler) HandleOrders(c *fiber.Ctx) error {
	orders, err := h.orders.ListOrders(c.UserContext())
	if err != nil {
		return respondError(c, "Could not retrieve orders", err)
	}
	messages, err := h.popFlash(c)
	if err != nil {
		logger.FromContext(c.UserContext()).Warn("could not read flash messages", zap.Error(err))
	}
	return c.JSON(fiber.Map{
		"orders":   newOrderResponses(orders),
		"messages": messages,
	})
}

// HandleImportForm describes the import form.
func (h *AdminHandler) HandleImportForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"form": fiber.Map{
			"enctype": fiber.MIMEMultipartForm,
			"fields": []fiber.Map{
				{"name": importFileField, "type": "file", "required": true},
			},
			"columns": []string{
				services.ColumnUsername,
				services.ColumnDeliveryAddress,
				services.ColumnPromocode,
				services.ColumnProductIDs,
			},
		},
	})
}

// HandleImport runs the order import on the uploaded file.
func (h *AdminHandler) HandleImport(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile(importFileField)
	if err != nil {
		return formError(c, "This field is required.")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return formError(c, "The uploaded file could not be read.")
	}
	defer file.Close()

	result, err := h.orders.ImportOrders(c.UserContext(), file)
	if err != nil {
		var rowErr *csvimport.RowError
		// Row errors come first: a bad row may wrap ErrInvalidEncoding.
		switch {
		case errors.As(err, &rowErr):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message":  "Import failed",
				"error":    rowErr.Error(),
				"row":      rowErr,
				"imported": result.Orders,
			})
		case errors.Is(err, csvimport.ErrEmptyFile),
			errors.Is(err, csvimport.ErrInvalidEncoding),
			errors.Is(err, csvimport.ErrMissingHeader):
			return formError(c, err.Error())
		}
		return respondError(c, "Import failed", err)
	}

	if err := h.pushFlash(c, importSuccessMsg); err != nil {
		logger.FromContext(c.UserContext()).Warn("could not store flash message", zap.Error(err))
	}
	return c.Redirect("/admin/shop/orders/")
}

func formError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  map[string]string{importFileField: msg},
	})
}

func (h *AdminHandler) pushFlash(c *fiber.Ctx, msg string) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return err
	}
	if prev, ok := sess.Get(flashKey).(string); ok && prev != "" {
		msg = prev + flashSeparator + msg
	}
	sess.Set(flashKey, msg)
	return sess.Save()
}

func (h *AdminHandler) popFlash(c *fiber.Ctx) ([]string, error) {
	messages := []string{}
	sess, err := h.sessions.Get(c)
	if err != nil {
		return messages, err
	}
	raw, _ := sess.Get(flashKey).(string)
	if raw == "" {
		return messages, nil
	}
	sess.Delete(flashKey)
	if err := sess.Save(); err != nil {
		return messages, err
	}
	return strings.Split(raw, flashSeparator), nil
}
