package routes

import (
	"PriceLens-Backend/internal/api/handlers"
	"PriceLens-Backend/internal/middleware"
	"PriceLens-Backend/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App            *fiber.App
	ReceiptHandler handlers.ReceiptHandler
	StoreHandler   handlers.StoreHandler
	ProductHandler handlers.ProductHandler
	Middleware     middleware.Middleware
	JWTService     jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.GuestRoute()
	c.Receipts()
	c.Stores()
	c.Products()
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
}

func (c *Config) Receipts() {
	receipts := c.App.Group("/api/v1/receipts", c.Middleware.AuthMiddleware(c.JWTService))

	receipts.Post("", c.ReceiptHandler.UploadReceipt)
	receipts.Get("", c.ReceiptHandler.GetReceipts)
	receipts.Get("/:id", c.ReceiptHandler.GetReceiptDetails)
	receipts.Post("/:id/ocr", c.ReceiptHandler.IngestOcrResult)
	receipts.Post("/:id/confirm-store", c.ReceiptHandler.ConfirmStore)
	receipts.Post("/:id/normalize", c.ReceiptHandler.NormalizeReceipt)
}

func (c *Config) Stores() {
	stores := c.App.Group("/api/v1/stores", c.Middleware.AuthMiddleware(c.JWTService))

	stores.Post("/resolve", c.StoreHandler.ResolveStore)
}

func (c *Config) Products() {
	products := c.App.Group("/api/v1/products", c.Middleware.AuthMiddleware(c.JWTService))

	products.Get("/stats", c.ProductHandler.GetStats)
	products.Post("/search-similar", c.ProductHandler.SearchSimilar)
	products.Post("/search-similar/batch", c.ProductHandler.SearchSimilarBatch)
	products.Post("/:id/link", c.ProductHandler.LinkToCatalog)
	products.Post("/:id/unlink", c.ProductHandler.Unlink)
}
