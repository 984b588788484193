package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/gestion-pro/internal/application/dto"
	"github.com/tu-usuario/gestion-pro/internal/tenancy"
)

// InvoiceHandler facturación de la organización. La creación usa la operación
// transaccional del gateway: factura y líneas quedan visibles juntas o no queda
// nada. Las líneas son scope por relación (invoice_items -> invoices).
type InvoiceHandler struct{}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler() *InvoiceHandler {
	return &InvoiceHandler{}
}

// Create POST /api/invoices
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	tctx := GetTenantContext(c)
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Error("INVALID_BODY", "cuerpo inválido"))
	}
	if in.ClientID == "" || in.Number == "" || len(in.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Error("VALIDATION", "client_id, number e items son requeridos"))
	}

	invoiceID := uuid.New().String()
	now := time.Now()
	total := decimal.Zero
	for _, item := range in.Items {
		total = total.Add(item.Total())
	}

	var created tenancy.Record
	err := tctx.DB().Transaction(c.Context(), func(tx *tenancy.Gateway) error {
		record, err := tx.Create(c.Context(), tenancy.ModelInvoices, tenancy.Record{
			"id":         invoiceID,
			"client_id":  in.ClientID,
			"number":     in.Number,
			"status":     "draft",
			"total":      total,
			"notes":      in.Notes,
			"created_at": now,
			"updated_at": now,
		})
		if err != nil {
			return err
		}
		created = record
		for _, item := range in.Items {
			if _, err := tx.Create(c.Context(), tenancy.ModelInvoiceItems, tenancy.Record{
				"id":          uuid.New().String(),
				"invoice_id":  invoiceID,
				"description": item.Description,
				"quantity":    item.Quantity,
				"unit_price":  item.UnitPrice,
				"total":       item.Total(),
				"created_at":  now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// List GET /api/invoices?limit=20&offset=0
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	tctx := GetTenantContext(c)
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	records, err := tctx.DB().FindMany(c.Context(), tenancy.ModelInvoices, nil, tenancy.FindOptions{
		OrderBy: "created_at", Desc: true, Limit: limit, Offset: offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	total, err := tctx.DB().Count(c.Context(), tenancy.ModelInvoices, nil)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": records,
		"page": dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	})
}

// GetByID GET /api/invoices/:id — factura con sus líneas.
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	tctx := GetTenantContext(c)
	invoice, err := tctx.DB().FindByID(c.Context(), tenancy.ModelInvoices, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if invoice == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.Error("NOT_FOUND", "factura no encontrada"))
	}
	items, err := tctx.DB().FindMany(c.Context(), tenancy.ModelInvoiceItems,
		tenancy.Filter{"invoice_id": c.Params("id")},
		tenancy.FindOptions{OrderBy: "created_at"})
	if err != nil {
		return respondError(c, err)
	}
	invoice["items"] = items
	return c.JSON(invoice)
}

// CreateEstimate POST /api/estimates
func (h *InvoiceHandler) CreateEstimate(c *fiber.Ctx) error {
	tctx := GetTenantContext(c)
	var in dto.CreateEstimateRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Error("INVALID_BODY", "cuerpo inválido"))
	}
	if in.ClientID == "" || in.Number == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Error("VALIDATION", "client_id y number son requeridos"))
	}
	now := time.Now()
	record, err := tctx.DB().Create(c.Context(), tenancy.ModelEstimates, tenancy.Record{
		"id":         uuid.New().String(),
		"client_id":  in.ClientID,
		"number":     in.Number,
		"amount":     in.Amount,
		"status":     "draft",
		"notes":      in.Notes,
		"created_at": now,
		"updated_at": now,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

// ListEstimates GET /api/estimates
func (h *InvoiceHandler) ListEstimates(c *fiber.Ctx) error {
	tctx := GetTenantContext(c)
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	records, err := tctx.DB().FindMany(c.Context(), tenancy.ModelEstimates, nil, tenancy.FindOptions{
		OrderBy: "created_at", Desc: true, Limit: limit, Offset: offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(records)
}
