package handlers

import (
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// CatalogHandler serves the static pick lists of the event form.
type CatalogHandler struct{}

func NewCatalogHandler() *CatalogHandler { return &CatalogHandler{} }

func (h *CatalogHandler) All(c *fiber.Ctx) error {
	return c.JSON(dto.CatalogResponse{Licenses: domain.Licenses, Categories: domain.Categories})
}

func (h *CatalogHandler) Licenses(c *fiber.Ctx) error {
	return c.JSON(domain.Licenses)
}

func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	return c.JSON(domain.Categories)
}
