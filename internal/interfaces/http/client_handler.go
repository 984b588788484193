package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/tu-usuario/gestion-pro/internal/application/dto"
	"github.com/tu-usuario/gestion-pro/internal/tenancy"
)

// ClientHandler CRUD de clientes de la organización, vía el gateway scoped.
// Nótese que ningún método menciona la organización: el gateway del contexto
// inyecta el filtro en cada operación.
type ClientHandler struct{}

// NewClientHandler construye el handler.
func NewClientHandler() *ClientHandler {
	return &ClientHandler{}
}

// Create POST /api/clients
func (h *ClientHandler) Create(c *fiber.Ctx) error {
	tctx := GetTenantContext(c)
	var in struct {
		Name  string `json:"name"`
		TaxID string `json:"tax_id"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Error("INVALID_BODY", "cuerpo inválido"))
	}
	if in.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Error("VALIDATION", "name es requerido"))
	}
	now := time.Now()
	record, err := tctx.DB().Create(c.Context(), tenancy.ModelClients, tenancy.Record{
		"id":         uuid.New().String(),
		"name":       in.Name,
		"tax_id":     in.TaxID,
		"email":      in.Email,
		"phone":      in.Phone,
		"created_at": now,
		"updated_at": now,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

// List GET /api/clients?limit=20&offset=0
func (h *ClientHandler) List(c *fiber.Ctx) error {
	tctx := GetTenantContext(c)
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	records, err := tctx.DB().FindMany(c.Context(), tenancy.ModelClients, nil, tenancy.FindOptions{
		OrderBy: "created_at", Desc: true, Limit: limit, Offset: offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(records)
}

// GetByID GET /api/clients/:id
func (h *ClientHandler) GetByID(c *fiber.Ctx) error {
	tctx := GetTenantContext(c)
	record, err := tctx.DB().FindByID(c.Context(), tenancy.ModelClients, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if record == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.Error("NOT_FOUND", "cliente no encontrado"))
	}
	return c.JSON(record)
}

// Update PUT /api/clients/:id
func (h *ClientHandler) Update(c *fiber.Ctx) error {
	tctx := GetTenantContext(c)
	var in map[string]any
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Error("INVALID_BODY", "cuerpo inválido"))
	}
	changes := tenancy.Record(in)
	changes["updated_at"] = time.Now()
	affected, err := tctx.DB().Update(c.Context(), tenancy.ModelClients,
		tenancy.Filter{"id": c.Params("id")}, changes)
	if err != nil {
		return respondError(c, err)
	}
	if affected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(dto.Error("NOT_FOUND", "cliente no encontrado"))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Delete DELETE /api/clients/:id
func (h *ClientHandler) Delete(c *fiber.Ctx) error {
	tctx := GetTenantContext(c)
	affected, err := tctx.DB().Delete(c.Context(), tenancy.ModelClients,
		tenancy.Filter{"id": c.Params("id")})
	if err != nil {
		return respondError(c, err)
	}
	if affected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(dto.Error("NOT_FOUND", "cliente no encontrado"))
	}
	return c.SendStatus(fiber.StatusNoContent)
}
