package tenancy

import "fmt"

// Model identifica un tipo de registro en el Registry. Conjunto cerrado:
// agregar un modelo nuevo exige registrarlo aquí con su estrategia de scope,
// y el test de exhaustividad del paquete obliga a clasificarlo.
type Model string

// Modelos registrados.
const (
	ModelOrganizations Model = "organizations"
	ModelUsers         Model = "users"
	ModelMemberships   Model = "memberships"
	ModelClients       Model = "clients"
	ModelProjects      Model = "projects"
	ModelTasks         Model = "tasks"
	ModelEstimates     Model = "estimates"
	ModelInvoices      Model = "invoices"
	ModelInvoiceItems  Model = "invoice_items"
	ModelTimeEntries   Model = "time_entries"
)

// AllModels lista cerrada de modelos; el Registry se construye desde aquí.
var AllModels = []Model{
	ModelOrganizations,
	ModelUsers,
	ModelMemberships,
	ModelClients,
	ModelProjects,
	ModelTasks,
	ModelEstimates,
	ModelInvoices,
	ModelInvoiceItems,
	ModelTimeEntries,
}

// ScopeKind estrategia de aislamiento de un modelo.
type ScopeKind int

const (
	// ScopeGlobal sin filtro de tenant (solo tablas compartidas como organizations).
	ScopeGlobal ScopeKind = iota
	// ScopeDirect la tabla tiene su propia columna de organización.
	ScopeDirect
	// ScopeRelationship la organización se deriva siguiendo foreign keys hasta
	// un ancestro que sí tiene columna de organización.
	ScopeRelationship
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGlobal:
		return "global"
	case ScopeDirect:
		return "direct"
	case ScopeRelationship:
		return "relationship"
	default:
		return fmt.Sprintf("ScopeKind(%d)", int(k))
	}
}

// RelationStep un salto de la cadena de relación: la columna FK en la tabla
// actual y la tabla padre a la que apunta.
type RelationStep struct {
	FKColumn    string // columna en la tabla hija, ej. "project_id"
	ParentTable string // tabla padre, ej. "projects"
}

// ModelInfo descriptor estático de un modelo: tabla, estrategia de scope y,
// según la estrategia, la columna de tenant o la cadena de relación.
type ModelInfo struct {
	Name  Model
	Table string
	Kind  ScopeKind
	// TenantColumn columna de organización (ScopeDirect, y en la tabla final
	// de una cadena ScopeRelationship).
	TenantColumn string
	// Path cadena de FKs hacia el ancestro con TenantColumn (solo ScopeRelationship).
	// El último paso apunta a una tabla que tiene TenantColumn.
	Path []RelationStep
	// Refs claves foráneas de datos hacia otros modelos scoped, fuera de la
	// cadena de scope (ej. invoices.client_id -> clients). El gateway verifica
	// en cada escritura que la fila referenciada pertenezca a la organización:
	// una FK hacia otro tenant colgaría el registro fuera de su aislamiento.
	Refs []RelationStep
}

// Registry mapea cada modelo a su clasificación. Estático y compilado: se
// construye completo al inicio y no muta en runtime.
type Registry struct {
	models map[Model]ModelInfo
}

// DefaultRegistry construye el registro con todos los modelos del sistema.
// Invariante: todo modelo no-global es alcanzable a exactamente una organización.
func DefaultRegistry() *Registry {
	infos := []ModelInfo{
		{Name: ModelOrganizations, Table: "organizations", Kind: ScopeGlobal},
		// users es global: la identidad vive fuera del tenant; su tenant primario
		// es una referencia, no un scope de pertenencia.
		{Name: ModelUsers, Table: "users", Kind: ScopeGlobal},
		{Name: ModelMemberships, Table: "memberships", Kind: ScopeDirect, TenantColumn: "organization_id"},
		{Name: ModelClients, Table: "clients", Kind: ScopeDirect, TenantColumn: "organization_id"},
		{
			Name: ModelProjects, Table: "projects", Kind: ScopeDirect,
			TenantColumn: "organization_id",
			Refs:         []RelationStep{{FKColumn: "client_id", ParentTable: "clients"}},
		},
		{
			Name: ModelEstimates, Table: "estimates", Kind: ScopeDirect,
			TenantColumn: "organization_id",
			Refs:         []RelationStep{{FKColumn: "client_id", ParentTable: "clients"}},
		},
		{
			Name: ModelInvoices, Table: "invoices", Kind: ScopeDirect,
			TenantColumn: "organization_id",
			Refs:         []RelationStep{{FKColumn: "client_id", ParentTable: "clients"}},
		},
		{
			Name: ModelTasks, Table: "tasks", Kind: ScopeRelationship,
			TenantColumn: "organization_id",
			Path:         []RelationStep{{FKColumn: "project_id", ParentTable: "projects"}},
		},
		{
			Name: ModelInvoiceItems, Table: "invoice_items", Kind: ScopeRelationship,
			TenantColumn: "organization_id",
			Path:         []RelationStep{{FKColumn: "invoice_id", ParentTable: "invoices"}},
		},
		{
			Name: ModelTimeEntries, Table: "time_entries", Kind: ScopeRelationship,
			TenantColumn: "organization_id",
			Path: []RelationStep{
				{FKColumn: "task_id", ParentTable: "tasks"},
				{FKColumn: "project_id", ParentTable: "projects"},
			},
		},
	}

	m := make(map[Model]ModelInfo, len(infos))
	for _, info := range infos {
		m[info.Name] = info
	}
	return &Registry{models: m}
}

// Lookup devuelve el descriptor del modelo. Modelo desconocido -> ErrInvalidModel:
// se falla cerrado, jamás se deja pasar una consulta sin scope.
func (r *Registry) Lookup(name Model) (ModelInfo, error) {
	info, ok := r.models[name]
	if !ok {
		return ModelInfo{}, fmt.Errorf("%w: %q", ErrInvalidModel, string(name))
	}
	return info, nil
}

// lookupByTable resuelve el descriptor por nombre de tabla (para validar
// padres de cadenas de relación). Las tablas padre de toda cadena deben estar
// registradas como modelos; el test de exhaustividad lo verifica.
func (r *Registry) lookupByTable(table string) (ModelInfo, error) {
	for _, info := range r.models {
		if info.Table == table {
			return info, nil
		}
	}
	return ModelInfo{}, fmt.Errorf("%w: tabla %q", ErrInvalidModel, table)
}

// Len cantidad de modelos registrados.
func (r *Registry) Len() int {
	return len(r.models)
}
