package tenancy

// Context contexto de tenant resuelto para una request. Inmutable: se
// construye una vez en el middleware, se adjunta a la request y se descarta al
// terminar; nunca se persiste ni se comparte entre requests. Los campos son
// privados a propósito, solo lectura vía accessors.
type Context struct {
	userID       string
	orgID        string
	role         string
	kind         AccessKind
	organization *OrganizationSummary
	db           *Gateway
}

// NewContext construye el contexto con el gateway ya atado al orgID.
func NewContext(userID, orgID, role string, kind AccessKind, org *OrganizationSummary, db *Gateway) *Context {
	return &Context{
		userID:       userID,
		orgID:        orgID,
		role:         role,
		kind:         kind,
		organization: org,
		db:           db,
	}
}

// UserID identidad verificada del caller.
func (c *Context) UserID() string { return c.userID }

// OrganizationID tenant resuelto de la request.
func (c *Context) OrganizationID() string { return c.orgID }

// Role rol efectivo dentro de la organización.
func (c *Context) Role() string { return c.role }

// AccessKind cómo se obtuvo el acceso (super, primary, secondary).
func (c *Context) AccessKind() AccessKind { return c.kind }

// Organization resumen de la organización (nil en bypass super).
func (c *Context) Organization() *OrganizationSummary { return c.organization }

// DB gateway de datos atado a la organización de este contexto.
func (c *Context) DB() *Gateway { return c.db }
