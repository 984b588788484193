package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/gestion-pro/internal/application/dto"
	"github.com/tu-usuario/gestion-pro/internal/domain"
	"github.com/tu-usuario/gestion-pro/internal/tenancy"
)

// respondError mapea errores de dominio y del gateway al cuerpo estándar
// {success:false, code, message}. Ningún error cruza esta frontera sin mapear.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, tenancy.ErrInvalidModel):
		// Error de programación, no frontera de seguridad: 400.
		return c.Status(fiber.StatusBadRequest).JSON(dto.Error("INVALID_MODEL", err.Error()))
	case errors.Is(err, tenancy.ErrInvalidFilter):
		return c.Status(fiber.StatusBadRequest).JSON(dto.Error("VALIDATION", err.Error()))
	case errors.Is(err, tenancy.ErrOrganizationAccess):
		return c.Status(fiber.StatusForbidden).JSON(dto.Error("ORG_ACCESS", "la fila pertenece a otra organización"))
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.Error("VALIDATION", "entrada inválida"))
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.Error("NOT_FOUND", "recurso no encontrado"))
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrEmailAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(dto.Error("DUPLICATE", "recurso duplicado"))
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Error("UNAUTHORIZED", "credenciales inválidas"))
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.Error("FORBIDDEN", "acceso denegado"))
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Error("INTERNAL", err.Error()))
	}
}
