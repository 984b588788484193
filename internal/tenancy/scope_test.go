package tenancy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrg = "org-123"

func mustInfo(t *testing.T, m Model) ModelInfo {
	t.Helper()
	info, err := DefaultRegistry().Lookup(m)
	require.NoError(t, err)
	return info
}

// ──────────────────────────────────────────────────────────────────────────────
// SELECT — inyección de la condición de scope
// ──────────────────────────────────────────────────────────────────────────────

// Modelo direct: el filtro del caller se combina con la columna de tenant.
// El caller jamás nombra la organización; la condición se inyecta siempre.
func TestBuildSelect_DirectInyectaTenant(t *testing.T) {
	info := mustInfo(t, ModelClients)

	sql, args, err := buildSelect(info, testOrg, Filter{"status": "active"}, FindOptions{})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT * FROM clients WHERE clients.status = $1 AND clients.organization_id = $2",
		sql)
	assert.Equal(t, []any{"active", testOrg}, args)
}

// Sin filtro del caller, el scope queda como única condición.
func TestBuildSelect_DirectSinFiltro(t *testing.T) {
	info := mustInfo(t, ModelProjects)

	sql, args, err := buildSelect(info, testOrg, nil, FindOptions{})
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM projects WHERE projects.organization_id = $1", sql)
	assert.Equal(t, []any{testOrg}, args)
}

// Modelo global: ninguna condición de tenant.
func TestBuildSelect_GlobalSinScope(t *testing.T) {
	info := mustInfo(t, ModelOrganizations)

	sql, args, err := buildSelect(info, testOrg, nil, FindOptions{})
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM organizations", sql)
	assert.Empty(t, args)
}

// Relationship de un salto: EXISTS hacia la tabla padre con columna de tenant.
func TestBuildSelect_RelationshipUnSalto(t *testing.T) {
	info := mustInfo(t, ModelTasks)

	sql, args, err := buildSelect(info, testOrg, nil, FindOptions{})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT * FROM tasks WHERE EXISTS (SELECT 1 FROM projects"+
			" WHERE projects.id = tasks.project_id AND projects.organization_id = $1)",
		sql)
	assert.Equal(t, []any{testOrg}, args)
}

// Relationship de dos saltos: EXISTS anidados, construidos de adentro hacia afuera.
func TestBuildSelect_RelationshipDosSaltos(t *testing.T) {
	info := mustInfo(t, ModelTimeEntries)

	sql, args, err := buildSelect(info, testOrg, nil, FindOptions{})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT * FROM time_entries WHERE EXISTS (SELECT 1 FROM tasks"+
			" WHERE tasks.id = time_entries.task_id AND EXISTS (SELECT 1 FROM projects"+
			" WHERE projects.id = tasks.project_id AND projects.organization_id = $1))",
		sql)
	assert.Equal(t, []any{testOrg}, args)
}

// Filtro del caller + scope relationship: los placeholders del filtro van primero.
func TestBuildSelect_RelationshipConFiltro(t *testing.T) {
	info := mustInfo(t, ModelTasks)

	sql, args, err := buildSelect(info, testOrg, Filter{"status": "open"}, FindOptions{})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT * FROM tasks WHERE tasks.status = $1 AND EXISTS (SELECT 1 FROM projects"+
			" WHERE projects.id = tasks.project_id AND projects.organization_id = $2)",
		sql)
	assert.Equal(t, []any{"open", testOrg}, args)
}

// Valor nil en el filtro → IS NULL, sin placeholder.
func TestBuildSelect_FiltroNilGeneraIsNull(t *testing.T) {
	info := mustInfo(t, ModelClients)

	sql, args, err := buildSelect(info, testOrg, Filter{"deleted_at": nil}, FindOptions{})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT * FROM clients WHERE clients.deleted_at IS NULL AND clients.organization_id = $1",
		sql)
	assert.Equal(t, []any{testOrg}, args)
}

func TestBuildSelect_OrdenYPaginacion(t *testing.T) {
	info := mustInfo(t, ModelClients)

	sql, _, err := buildSelect(info, testOrg, nil, FindOptions{
		OrderBy: "created_at", Desc: true, Limit: 20, Offset: 40,
	})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT * FROM clients WHERE clients.organization_id = $1"+
			" ORDER BY created_at DESC LIMIT 20 OFFSET 40",
		sql)
}

// Identificadores fuera de snake_case se rechazan: las columnas vienen del
// caller y jamás se interpolan sin validar.
func TestBuildSelect_IdentificadorInvalido(t *testing.T) {
	info := mustInfo(t, ModelClients)

	_, _, err := buildSelect(info, testOrg, Filter{"name; DROP TABLE clients": "x"}, FindOptions{})
	assert.ErrorIs(t, err, ErrInvalidFilter)

	_, _, err = buildSelect(info, testOrg, nil, FindOptions{OrderBy: "1 = 1 --"})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

// ──────────────────────────────────────────────────────────────────────────────
// INSERT — anti-spoofing
// ──────────────────────────────────────────────────────────────────────────────

// La columna de tenant se fuerza del lado servidor: cualquier valor que venga
// en data se sobreescribe con la organización a la que está atado el gateway.
func TestBuildInsert_FuerzaColumnaTenant(t *testing.T) {
	info := mustInfo(t, ModelClients)

	sql, args, err := buildInsert(info, testOrg, Record{
		"name":            "Acme",
		"organization_id": "org-de-otro", // intento de spoofing
	})
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO clients (name, organization_id) VALUES ($1, $2) RETURNING *",
		sql)
	assert.Equal(t, []any{"Acme", testOrg}, args,
		"el valor spoofeado debe reemplazarse por la organización del gateway")
}

// Sin columna de tenant en data, igual se agrega.
func TestBuildInsert_AgregaColumnaTenantSiFalta(t *testing.T) {
	info := mustInfo(t, ModelClients)

	sql, args, err := buildInsert(info, testOrg, Record{"name": "Acme"})
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO clients (name, organization_id) VALUES ($1, $2) RETURNING *",
		sql)
	assert.Equal(t, []any{"Acme", testOrg}, args)
}

// En modelos relationship no hay columna propia de tenant que forzar: la
// pertenencia la da la FK al padre (verificada aparte por el gateway).
func TestBuildInsert_RelationshipNoFuerzaColumna(t *testing.T) {
	info := mustInfo(t, ModelTasks)

	sql, args, err := buildInsert(info, testOrg, Record{"name": "tarea", "project_id": "p1"})
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO tasks (name, project_id) VALUES ($1, $2) RETURNING *",
		sql)
	assert.Equal(t, []any{"tarea", "p1"}, args)
}

// buildInsert no debe mutar el Record del caller.
func TestBuildInsert_NoMutaElRecord(t *testing.T) {
	info := mustInfo(t, ModelClients)
	data := Record{"name": "Acme"}

	_, _, err := buildInsert(info, testOrg, data)
	require.NoError(t, err)

	_, existe := data["organization_id"]
	assert.False(t, existe, "el Record del caller no debe modificarse")
}

// ──────────────────────────────────────────────────────────────────────────────
// UPDATE / DELETE — scoped siempre
// ──────────────────────────────────────────────────────────────────────────────

// La columna de tenant se elimina de los cambios: un update jamás puede mover
// una fila a otra organización.
func TestBuildUpdate_EliminaColumnaTenantDeLosCambios(t *testing.T) {
	info := mustInfo(t, ModelClients)

	sql, args, err := buildUpdate(info, testOrg,
		Filter{"id": "c1"},
		Record{"name": "Nuevo", "organization_id": "org-de-otro"})
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE clients SET name = $1 WHERE clients.id = $2 AND clients.organization_id = $3",
		sql)
	assert.Equal(t, []any{"Nuevo", "c1", testOrg}, args)
}

// Update cuyo único cambio era la columna de tenant → inválido.
func TestBuildUpdate_SoloColumnaTenantEsInvalido(t *testing.T) {
	info := mustInfo(t, ModelClients)

	_, _, err := buildUpdate(info, testOrg, Filter{"id": "c1"}, Record{"organization_id": "x"})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

// buildUpdate no debe mutar el Record del caller al limpiar la columna de tenant.
func TestBuildUpdate_NoMutaLosCambios(t *testing.T) {
	info := mustInfo(t, ModelClients)
	changes := Record{"name": "Nuevo", "organization_id": "x"}

	_, _, err := buildUpdate(info, testOrg, Filter{"id": "c1"}, changes)
	require.NoError(t, err)

	assert.Contains(t, changes, "organization_id", "el Record del caller no debe modificarse")
}

func TestBuildDelete_Scoped(t *testing.T) {
	info := mustInfo(t, ModelTasks)

	sql, args, err := buildDelete(info, testOrg, Filter{"id": "t1"})
	require.NoError(t, err)

	assert.Equal(t,
		"DELETE FROM tasks WHERE tasks.id = $1 AND EXISTS (SELECT 1 FROM projects"+
			" WHERE projects.id = tasks.project_id AND projects.organization_id = $2)",
		sql)
	assert.Equal(t, []any{"t1", testOrg}, args)
}

func TestBuildCount_Scoped(t *testing.T) {
	info := mustInfo(t, ModelInvoices)

	sql, args, err := buildCount(info, testOrg, Filter{"status": "draft"})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT COUNT(*) FROM invoices WHERE invoices.status = $1 AND invoices.organization_id = $2",
		sql)
	assert.Equal(t, []any{"draft", testOrg}, args)
}

// ──────────────────────────────────────────────────────────────────────────────
// Sonda de pertenencia (chequeo post-fetch de lecturas por primary key)
// ──────────────────────────────────────────────────────────────────────────────

func TestBuildOwnershipProbe_Relationship(t *testing.T) {
	info := mustInfo(t, ModelTasks)

	sql, args := buildOwnershipProbe(info, testOrg, "t1")

	assert.Equal(t,
		"SELECT EXISTS (SELECT 1 FROM tasks WHERE tasks.id = $1"+
			" AND EXISTS (SELECT 1 FROM projects WHERE projects.id = tasks.project_id"+
			" AND projects.organization_id = $2))",
		sql)
	assert.Equal(t, []any{"t1", testOrg}, args)
}

func TestBuildOwnershipProbe_DosSaltos(t *testing.T) {
	info := mustInfo(t, ModelTimeEntries)

	sql, args := buildOwnershipProbe(info, testOrg, "te1")

	assert.Equal(t,
		"SELECT EXISTS (SELECT 1 FROM time_entries WHERE time_entries.id = $1"+
			" AND EXISTS (SELECT 1 FROM tasks WHERE tasks.id = time_entries.task_id"+
			" AND EXISTS (SELECT 1 FROM projects WHERE projects.id = tasks.project_id"+
			" AND projects.organization_id = $2)))",
		sql)
	assert.Equal(t, []any{"te1", testOrg}, args)
}
