package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/tu-usuario/gestion-pro/internal/application/dto"
	"github.com/tu-usuario/gestion-pro/internal/tenancy"
)

// ProjectHandler CRUD de proyectos (scope directo) y de sus tareas (scope por
// relación: una tarea llega a la organización a través de su proyecto).
type ProjectHandler struct{}

// NewProjectHandler construye el handler.
func NewProjectHandler() *ProjectHandler {
	return &ProjectHandler{}
}

// Create POST /api/projects
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	tctx := GetTenantContext(c)
	var in struct {
		ClientID string `json:"client_id"`
		Name     string `json:"name"`
		Status   string `json:"status"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Error("INVALID_BODY", "cuerpo inválido"))
	}
	if in.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Error("VALIDATION", "name es requerido"))
	}
	status := in.Status
	if status == "" {
		status = "open"
	}
	now := time.Now()
	record, err := tctx.DB().Create(c.Context(), tenancy.ModelProjects, tenancy.Record{
		"id":         uuid.New().String(),
		"client_id":  nullable(in.ClientID),
		"name":       in.Name,
		"status":     status,
		"created_at": now,
		"updated_at": now,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

// List GET /api/projects?status=open&limit=20&offset=0
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	tctx := GetTenantContext(c)
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	filter := tenancy.Filter{}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}
	records, err := tctx.DB().FindMany(c.Context(), tenancy.ModelProjects, filter, tenancy.FindOptions{
		OrderBy: "created_at", Desc: true, Limit: limit, Offset: offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(records)
}

// GetByID GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *fiber.Ctx) error {
	tctx := GetTenantContext(c)
	record, err := tctx.DB().FindByID(c.Context(), tenancy.ModelProjects, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if record == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.Error("NOT_FOUND", "proyecto no encontrado"))
	}
	return c.JSON(record)
}

// Update PUT /api/projects/:id
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	tctx := GetTenantContext(c)
	var in map[string]any
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Error("INVALID_BODY", "cuerpo inválido"))
	}
	changes := tenancy.Record(in)
	changes["updated_at"] = time.Now()
	affected, err := tctx.DB().Update(c.Context(), tenancy.ModelProjects,
		tenancy.Filter{"id": c.Params("id")}, changes)
	if err != nil {
		return respondError(c, err)
	}
	if affected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(dto.Error("NOT_FOUND", "proyecto no encontrado"))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Delete DELETE /api/projects/:id
// Borra el proyecto y sus tareas en una sola transacción del gateway.
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	tctx := GetTenantContext(c)
	projectID := c.Params("id")
	var affected int64
	err := tctx.DB().Transaction(c.Context(), func(tx *tenancy.Gateway) error {
		if _, err := tx.Delete(c.Context(), tenancy.ModelTasks, tenancy.Filter{"project_id": projectID}); err != nil {
			return err
		}
		n, err := tx.Delete(c.Context(), tenancy.ModelProjects, tenancy.Filter{"id": projectID})
		if err != nil {
			return err
		}
		affected = n
		return nil
	})
	if err != nil {
		return respondError(c, err)
	}
	if affected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(dto.Error("NOT_FOUND", "proyecto no encontrado"))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateTask POST /api/projects/:id/tasks
// El gateway verifica que el proyecto referenciado pertenezca a la organización
// antes de insertar: no se puede colgar una tarea de un proyecto ajeno.
func (h *ProjectHandler) CreateTask(c *fiber.Ctx) error {
	tctx := GetTenantContext(c)
	var in struct {
		Title      string `json:"title"`
		AssigneeID string `json:"assignee_id"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Error("INVALID_BODY", "cuerpo inválido"))
	}
	if in.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Error("VALIDATION", "title es requerido"))
	}
	now := time.Now()
	record, err := tctx.DB().Create(c.Context(), tenancy.ModelTasks, tenancy.Record{
		"id":          uuid.New().String(),
		"project_id":  c.Params("id"),
		"title":       in.Title,
		"assignee_id": nullable(in.AssigneeID),
		"done":        false,
		"created_at":  now,
		"updated_at":  now,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

// ListTasks GET /api/projects/:id/tasks
func (h *ProjectHandler) ListTasks(c *fiber.Ctx) error {
	tctx := GetTenantContext(c)
	records, err := tctx.DB().FindMany(c.Context(), tenancy.ModelTasks,
		tenancy.Filter{"project_id": c.Params("id")},
		tenancy.FindOptions{OrderBy: "created_at"})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(records)
}

// nullable convierte "" en nil para columnas opcionales.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
