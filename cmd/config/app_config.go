package config

import (
	"PriceLens-Backend/internal/api/handlers"
	"PriceLens-Backend/internal/api/routes"
	"PriceLens-Backend/internal/middleware"
	"PriceLens-Backend/internal/utils"
	"PriceLens-Backend/internal/utils/storage"
	"PriceLens-Backend/pkg/catalog"
	"PriceLens-Backend/pkg/classifier"
	"PriceLens-Backend/pkg/embedding"
	"PriceLens-Backend/pkg/jwt"
	"PriceLens-Backend/pkg/linking"
	"PriceLens-Backend/pkg/receipt"
	"PriceLens-Backend/pkg/registry"
	"PriceLens-Backend/pkg/similarity"
	"PriceLens-Backend/pkg/store"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "America/Vancouver",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	s3 := storage.NewAwsS3()
	embedder := embedding.NewHTTPProvider(utils.GetEmbeddingDimensions())
	lineClassifier := classifier.NewLineClassifier()

	// Repository
	storeRepository := store.NewStoreRepository(db)
	receiptRepository := receipt.NewReceiptRepository(db)
	searchRepository := similarity.NewSearchRepository(db)
	registryRepository := registry.NewRegistryRepository(db)
	linkingRepository := linking.NewLinkingRepository(db)
	catalogRepository := catalog.NewCatalogRepository(db)

	// Service
	jwtService := jwt.NewJWTService()
	storeService := store.NewStoreService(storeRepository)
	searchService := similarity.NewSearchService(searchRepository, embedder)
	registryService := registry.NewRegistryService(registryRepository, searchService)
	linkingService := linking.NewLinkingService(linkingRepository)
	catalogService := catalog.NewCatalogService(catalogRepository, registryRepository, embedder)
	receiptService := receipt.NewReceiptService(
		receiptRepository,
		storeRepository,
		storeService,
		lineClassifier,
		embedder,
		registryService,
		linkingService,
		catalogService,
		s3,
	)

	// Handler
	receiptHandler := handlers.NewReceiptHandler(receiptService, validator)
	storeHandler := handlers.NewStoreHandler(storeService, validator)
	productHandler := handlers.NewProductHandler(searchService, catalogService, registryService, validator)

	// routes
	routesConfig := routes.Config{
		App:            app,
		ReceiptHandler: receiptHandler,
		StoreHandler:   storeHandler,
		ProductHandler: productHandler,
		Middleware:     middlewares,
		JWTService:     jwtService,
	}
	routesConfig.Setup()
	return app, nil
}
