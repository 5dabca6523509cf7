package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// CategoriesHandler serves category picker options.
type CategoriesHandler struct {
	service *service.CategoryService
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(categoryService *service.CategoryService) *CategoriesHandler {
	return &CategoriesHandler{service: categoryService}
}

// Options GET /api/categories. Never fails; a load failure is reported as
// a single disabled option.
func (h *CategoriesHandler) Options(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.ToCategoryOptions(h.service.Options(c.UserContext()))})
}
