package entity

import "time"

// Estados válidos para Organization.
const (
	OrgStatusActive   = "active"
	OrgStatusInactive = "inactive"
)

// Organization representa un tenant del sistema: la raíz del aislamiento de datos.
// La identidad es inmutable una vez creada; mientras existan registros que la
// referencien se desactiva (status inactive) en lugar de borrarse.
type Organization struct {
	ID        string
	Name      string
	Code      string // código corto único (subdominio, prefijo de facturas, etc.)
	Status    string // active, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive informa si la organización admite operaciones.
func (o *Organization) IsActive() bool {
	return o != nil && o.Status == OrgStatusActive
}
