// Package app wires repositories, services and handlers into a Fiber app.
package app

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shop/internal/cache"
	"shop/internal/config"
	"shop/internal/handlers"
	"shop/internal/logger"
	"shop/internal/middleware"
	"shop/internal/repositories"
	"shop/internal/services"
)

// Deps are the external resources the application runs on.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Cache  cache.Store
	// Publisher is optional; leave it nil to disable order events.
	Publisher services.OrderEventPublisher
	Logger    *zap.Logger
	Started   time.Time
}

// App is the assembled HTTP application.
type App struct {
	Fiber    *fiber.App
	Auth     *services.AuthService
	Products *services.ProductService
	Orders   *services.OrderService
}

// New builds the services and registers every route.
func New(d Deps) *App {
	if d.Started.IsZero() {
		d.Started = time.Now()
	}

	productRepo := repositories.NewGORMProductRepository(d.DB)
	orderRepo := repositories.NewGORMOrderRepository(d.DB)
	userRepo := repositories.NewGORMUserRepository(d.DB)
	articleRepo := repositories.NewGORMArticleRepository(d.DB)

	authService := services.NewAuthService(userRepo, d.Config.JWT.Secret, d.Logger)
	productService := services.NewProductService(productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, userRepo, services.OrderServiceConfig{
		Cache:     d.Cache,
		ExportTTL: d.Config.Cache.OrdersTTL,
		Location:  d.Config.App.Location,
		Publisher: d.Publisher,
	}, d.Logger)
	articleService := services.NewArticleService(articleRepo)

	app := fiber.New(fiber.Config{
		AppName:      "shop",
		ErrorHandler: errorHandler,
		BodyLimit:    10 * 1024 * 1024,
	})
	app.Use(logger.FiberMiddleware(d.Logger))
	app.Use(recover.New())

	guards := handlers.Guards{
		Auth:  middleware.AuthRequired(authService),
		Staff: middleware.StaffRequired(),
	}
	sessions := session.New(session.Config{
		Expiration:     time.Hour,
		CookieHTTPOnly: true,
		CookieSecure:   d.Config.IsProduction(),
	})

	handlers.NewShopHandler(d.Started).RegisterRoutes(app)
	handlers.NewAuthHandler(authService).RegisterRoutes(app)
	handlers.NewFeedHandler(productService, d.Config.App.BaseURL).RegisterRoutes(app)
	handlers.NewProductHandler(productService).RegisterRoutes(app, guards)
	handlers.NewProductAPIHandler(productService).RegisterRoutes(app, guards)
	handlers.NewOrderHandler(orderService).RegisterRoutes(app, guards)
	handlers.NewBlogHandler(articleService).RegisterRoutes(app)
	handlers.NewAdminHandler(productService, orderService, sessions).RegisterRoutes(app, guards)

	return &App{
		Fiber:    app,
		Auth:     authService,
		Products: productService,
		Orders:   orderService,
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}
	return c.Status(code).JSON(fiber.Map{
		"message": message,
	})
}
