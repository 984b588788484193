package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/gestion-pro/internal/application/dto"
	"github.com/tu-usuario/gestion-pro/internal/tenancy"
)

// AdminHandler diagnóstico e invalidación del caché de acceso.
type AdminHandler struct {
	cache *tenancy.AccessCache
}

// NewAdminHandler construye el handler.
func NewAdminHandler(cache *tenancy.AccessCache) *AdminHandler {
	return &AdminHandler{cache: cache}
}

// CacheStats GET /api/admin/cache — tamaño y claves vigentes.
func (h *AdminHandler) CacheStats(c *fiber.Ctx) error {
	return c.JSON(h.cache.Stats())
}

// InvalidateCache POST /api/admin/cache/invalidate
// Body: {user_id?, organization_id?}. Ambos vacíos vacía el caché completo.
func (h *AdminHandler) InvalidateCache(c *fiber.Ctx) error {
	var in struct {
		UserID         string `json:"user_id"`
		OrganizationID string `json:"organization_id"`
	}
	if err := c.BodyParser(&in); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Error("INVALID_BODY", "cuerpo inválido"))
	}
	h.cache.Invalidate(in.UserID, in.OrganizationID)
	return c.JSON(fiber.Map{"success": true, "size": h.cache.Stats().Size})
}
