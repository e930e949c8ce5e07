package handlers

import (
	"PriceLens-Backend/domain"
	"PriceLens-Backend/internal/api/presenters"
	"PriceLens-Backend/pkg/store"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	StoreHandler interface {
		ResolveStore(c *fiber.Ctx) error
	}

	storeHandler struct {
		storeService store.StoreService
		validator    *validator.Validate
	}
)

func NewStoreHandler(storeService store.StoreService, validator *validator.Validate) StoreHandler {
	return &storeHandler{
		storeService: storeService,
		validator:    validator,
	}
}

func (h *storeHandler) ResolveStore(c *fiber.Ctx) error {
	req := new(domain.ResolveStoreRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedResolveStore, err)
	}

	res, err := h.storeService.ResolveStore(c.Context(), *req)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedResolveStore, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessResolveStore)
}
