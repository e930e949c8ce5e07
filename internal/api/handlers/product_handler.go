package handlers

import (
	"PriceLens-Backend/domain"
	"PriceLens-Backend/internal/api/presenters"
	"PriceLens-Backend/pkg/catalog"
	"PriceLens-Backend/pkg/embedding"
	"PriceLens-Backend/pkg/registry"
	"PriceLens-Backend/pkg/similarity"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	ProductHandler interface {
		SearchSimilar(c *fiber.Ctx) error
		SearchSimilarBatch(c *fiber.Ctx) error
		LinkToCatalog(c *fiber.Ctx) error
		Unlink(c *fiber.Ctx) error
		GetStats(c *fiber.Ctx) error
	}

	productHandler struct {
		searchService   similarity.SearchService
		catalogService  catalog.CatalogService
		registryService registry.RegistryService
		validator       *validator.Validate
	}
)

func NewProductHandler(searchService similarity.SearchService, catalogService catalog.CatalogService, registryService registry.RegistryService, validator *validator.Validate) ProductHandler {
	return &productHandler{
		searchService:   searchService,
		catalogService:  catalogService,
		registryService: registryService,
		validator:       validator,
	}
}

func (h *productHandler) SearchSimilar(c *fiber.Ctx) error {
	req := new(domain.SearchSimilarRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSearchSimilar, err)
	}

	res, err := h.searchService.Search(c.Context(), *req)
	if err != nil {
		if errors.Is(err, embedding.ErrUnavailable) {
			return presenters.ErrorResponse(c, fiber.StatusServiceUnavailable, domain.MessageFailedSearchSimilar, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSearchSimilar, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessSearchSimilar)
}

func (h *productHandler) SearchSimilarBatch(c *fiber.Ctx) error {
	req := new(domain.BatchSearchSimilarRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSearchSimilar, err)
	}

	res, err := h.searchService.SearchBatch(c.Context(), *req)
	if err != nil {
		if errors.Is(err, embedding.ErrUnavailable) {
			return presenters.ErrorResponse(c, fiber.StatusServiceUnavailable, domain.MessageFailedSearchSimilar, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSearchSimilar, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessSearchSimilar)
}

func (h *productHandler) LinkToCatalog(c *fiber.Ctx) error {
	normalizedProductID := c.Params("id")

	res, err := h.catalogService.LinkToCatalog(c.Context(), normalizedProductID)
	if err != nil {
		if errors.Is(err, domain.ErrNormalizedProductNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedLinkProduct, err)
		}
		if errors.Is(err, domain.ErrNotEligibleForLinking) {
			return presenters.ErrorResponse(c, fiber.StatusUnprocessableEntity, domain.MessageFailedLinkProduct, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedLinkProduct, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessLinkProduct)
}

func (h *productHandler) Unlink(c *fiber.Ctx) error {
	normalizedProductID := c.Params("id")

	if err := h.catalogService.Unlink(c.Context(), normalizedProductID); err != nil {
		if errors.Is(err, domain.ErrNormalizedProductNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedUnlinkProduct, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUnlinkProduct, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessUnlinkProduct)
}

func (h *productHandler) GetStats(c *fiber.Ctx) error {
	res, err := h.registryService.GetStats(c.Context())
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetStats, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetStats)
}
