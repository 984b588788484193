package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/gestion-pro/internal/application/auth"
	"github.com/tu-usuario/gestion-pro/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC     *auth.AuthUseCase
	OrgHandler *OrganizationHandler
	Admin      *AdminHandler
	Tenant     TenantMiddlewareDeps
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas: TenantMiddleware resuelve identidad + organización y
	// adjunta el gateway scoped; ningún handler de acá abajo corre sin contexto.
	protected := api.Group("/", TenantMiddleware(deps.Tenant))

	// Organizations y memberships (administrativo, modelos globales). Crear y
	// listar organizaciones es de super; las rutas con :id exigen además que un
	// admin opere sobre su propia organización, no sobre una ajena.
	organizations := protected.Group("/organizations", RequireRole(entity.RoleSuper, entity.RoleAdmin))
	ownOrg := RequireOwnOrganization("id")
	organizations.Post("/", RequireRole(entity.RoleSuper), deps.OrgHandler.Create)
	organizations.Get("/", RequireRole(entity.RoleSuper), deps.OrgHandler.List)
	organizations.Get("/:id", ownOrg, deps.OrgHandler.GetByID)
	organizations.Delete("/:id", ownOrg, deps.OrgHandler.Deactivate)
	organizations.Post("/:id/members", ownOrg, deps.OrgHandler.GrantMembership)
	organizations.Get("/:id/members", ownOrg, deps.OrgHandler.ListMemberships)
	organizations.Put("/:id/members/:userId", ownOrg, deps.OrgHandler.UpdateMembership)
	organizations.Delete("/:id/members/:userId", ownOrg, deps.OrgHandler.RevokeMembership)

	// Clients (protegido)
	clients := protected.Group("/clients")
	clientHandler := NewClientHandler()
	clients.Post("/", clientHandler.Create)
	clients.Get("/", clientHandler.List)
	clients.Get("/:id", clientHandler.GetByID)
	clients.Put("/:id", clientHandler.Update)
	clients.Delete("/:id", clientHandler.Delete)

	// Projects y tasks (protegido)
	projects := protected.Group("/projects")
	projectHandler := NewProjectHandler()
	projects.Post("/", projectHandler.Create)
	projects.Get("/", projectHandler.List)
	projects.Get("/:id", projectHandler.GetByID)
	projects.Put("/:id", projectHandler.Update)
	projects.Delete("/:id", projectHandler.Delete)
	projects.Post("/:id/tasks", projectHandler.CreateTask)
	projects.Get("/:id/tasks", projectHandler.ListTasks)

	// Invoices y estimates (protegido)
	invoiceHandler := NewInvoiceHandler()
	invoices := protected.Group("/invoices")
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.GetByID)
	estimates := protected.Group("/estimates")
	estimates.Post("/", invoiceHandler.CreateEstimate)
	estimates.Get("/", invoiceHandler.ListEstimates)

	// Admin: diagnóstico e invalidación del caché de acceso
	admin := protected.Group("/admin", RequireRole(entity.RoleSuper, entity.RoleAdmin))
	admin.Get("/cache", deps.Admin.CacheStats)
	admin.Post("/cache/invalidate", deps.Admin.InvalidateCache)
}
