package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/gestion-pro/internal/application/dto"
	"github.com/tu-usuario/gestion-pro/internal/application/usecase"
)

// OrganizationHandler administración de organizaciones y memberships.
// Flujo administrativo: opera sobre modelos globales, protegido por rol.
type OrganizationHandler struct {
	orgUC        *usecase.OrganizationUseCase
	membershipUC *usecase.MembershipUseCase
	invalidator  usecase.AccessInvalidator
}

// NewOrganizationHandler construye el handler.
func NewOrganizationHandler(orgUC *usecase.OrganizationUseCase, membershipUC *usecase.MembershipUseCase, invalidator usecase.AccessInvalidator) *OrganizationHandler {
	return &OrganizationHandler{orgUC: orgUC, membershipUC: membershipUC, invalidator: invalidator}
}

// Create POST /api/organizations
func (h *OrganizationHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrganizationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Error("INVALID_BODY", "cuerpo inválido"))
	}
	org, err := h.orgUC.Create(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(org)
}

// List GET /api/organizations?limit=20&offset=0
func (h *OrganizationHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	list, err := h.orgUC.List(c.Context(), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// GetByID GET /api/organizations/:id
func (h *OrganizationHandler) GetByID(c *fiber.Ctx) error {
	org, err := h.orgUC.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(org)
}

// Deactivate DELETE /api/organizations/:id
// Desactiva (no borra) la organización e invalida sus accesos cacheados.
func (h *OrganizationHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.orgUC.Deactivate(c.Context(), c.Params("id"), h.invalidator); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GrantMembership POST /api/organizations/:id/members
func (h *OrganizationHandler) GrantMembership(c *fiber.Ctx) error {
	var in dto.GrantMembershipRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Error("INVALID_BODY", "cuerpo inválido"))
	}
	m, err := h.membershipUC.Grant(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

// ListMemberships GET /api/organizations/:id/members
func (h *OrganizationHandler) ListMemberships(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	list, err := h.membershipUC.ListByOrg(c.Context(), c.Params("id"), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// UpdateMembership PUT /api/organizations/:id/members/:userId
func (h *OrganizationHandler) UpdateMembership(c *fiber.Ctx) error {
	var in dto.UpdateMembershipRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Error("INVALID_BODY", "cuerpo inválido"))
	}
	m, err := h.membershipUC.UpdateRole(c.Context(), c.Params("id"), c.Params("userId"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(m)
}

// RevokeMembership DELETE /api/organizations/:id/members/:userId
func (h *OrganizationHandler) RevokeMembership(c *fiber.Ctx) error {
	if err := h.membershipUC.Revoke(c.Context(), c.Params("id"), c.Params("userId")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
