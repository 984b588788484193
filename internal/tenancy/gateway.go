package tenancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tu-usuario/gestion-pro/pkg/logger"
)

// DBTX operaciones de pgx que usa el gateway; lo satisfacen *pgxpool.Pool y
// pgx.Tx, así el mismo código corre dentro y fuera de una transacción.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GatewayFactory construye gateways atados a una organización. Se crea una vez
// en main con el pool y el registry; el middleware pide un gateway por request.
type GatewayFactory struct {
	pool     *pgxpool.Pool
	registry *Registry
	strict   bool
	log      *logger.Logger
}

// NewGatewayFactory construye la fábrica.
// strict controla el chequeo post-fetch de propiedad: true responde con
// ErrOrganizationAccess, false trata la fila ajena como no-encontrada.
func NewGatewayFactory(pool *pgxpool.Pool, registry *Registry, strict bool, log *logger.Logger) *GatewayFactory {
	return &GatewayFactory{pool: pool, registry: registry, strict: strict, log: log}
}

// ForOrganization devuelve un gateway atado al orgID dado.
func (f *GatewayFactory) ForOrganization(orgID string) *Gateway {
	return &Gateway{
		db:       f.pool,
		pool:     f.pool,
		registry: f.registry,
		orgID:    orgID,
		strict:   f.strict,
		log:      f.log,
	}
}

// Gateway capa de acceso a datos atada a una organización fija. Toda operación
// consulta el Registry por el nombre de modelo y reescribe la consulta con el
// filtro de tenant que corresponda (directo o derivado por relación) antes de
// tocar la DB. El caller no puede leer ni escribir fuera de su organización,
// para ningún modelo registrado, sin código adicional por call site.
type Gateway struct {
	db       DBTX
	pool     *pgxpool.Pool // nil dentro de una transacción
	registry *Registry
	orgID    string
	strict   bool
	log      *logger.Logger
}

// OrganizationID organización a la que está atado este gateway.
func (g *Gateway) OrganizationID() string {
	return g.orgID
}

// FindMany lista filas del modelo con el filtro dado, siempre scoped.
func (g *Gateway) FindMany(ctx context.Context, model Model, filter Filter, opts FindOptions) ([]Record, error) {
	info, err := g.registry.Lookup(model)
	if err != nil {
		return nil, err
	}
	sql, args, err := buildSelect(info, g.orgID, filter, opts)
	if err != nil {
		return nil, err
	}
	rows, err := g.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find many %s: %w", model, err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("find many %s: %w", model, err)
	}
	records := make([]Record, len(maps))
	for i, m := range maps {
		records[i] = Record(m)
	}
	return records, nil
}

// FindOne devuelve la primera fila que cumpla el filtro, o nil si no hay.
func (g *Gateway) FindOne(ctx context.Context, model Model, filter Filter) (Record, error) {
	records, err := g.FindMany(ctx, model, filter, FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// FindByID busca por primary key. Este camino no pasa por el filtro scoped,
// así que corre un chequeo de propiedad post-fetch antes de devolver la fila:
// según strict, una fila ajena produce ErrOrganizationAccess o se reporta como
// no-encontrada. Jamás se devuelve una fila de otra organización.
func (g *Gateway) FindByID(ctx context.Context, model Model, id any) (Record, error) {
	info, err := g.registry.Lookup(model)
	if err != nil {
		return nil, err
	}

	rows, err := g.db.Query(ctx, fmt.Sprintf("SELECT * FROM %s WHERE id = $1 LIMIT 1", info.Table), id)
	if err != nil {
		return nil, fmt.Errorf("find by id %s: %w", model, err)
	}
	record, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find by id %s: %w", model, err)
	}

	owned, err := g.recordOwned(ctx, info, Record(record), id)
	if err != nil {
		return nil, err
	}
	if !owned {
		g.log.Warn().
			Str("model", string(model)).
			Str("org_id", g.orgID).
			Msg("lectura por id de fila ajena bloqueada")
		if g.strict {
			return nil, fmt.Errorf("%w: %s", ErrOrganizationAccess, model)
		}
		return nil, nil
	}
	return Record(record), nil
}

// recordOwned resuelve la organización de la fila ya leída: comparación de
// columna en modelos direct, EXISTS por la cadena de relación en relationship.
func (g *Gateway) recordOwned(ctx context.Context, info ModelInfo, record Record, id any) (bool, error) {
	switch info.Kind {
	case ScopeGlobal:
		return true, nil
	case ScopeDirect:
		return tenantString(record[info.TenantColumn]) == g.orgID, nil
	case ScopeRelationship:
		sql, args := buildOwnershipProbe(info, g.orgID, id)
		var owned bool
		if err := g.db.QueryRow(ctx, sql, args...).Scan(&owned); err != nil {
			return false, fmt.Errorf("probe ownership %s: %w", info.Name, err)
		}
		return owned, nil
	default:
		return false, nil
	}
}

// tenantString normaliza el valor de la columna de tenant a string para
// compararlo con la organización del gateway: pgx decodifica columnas uuid
// como [16]byte, no como texto.
func tenantString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case [16]byte:
		return uuid.UUID(t).String()
	case []byte:
		if len(t) == 16 {
			if u, err := uuid.FromBytes(t); err == nil {
				return u.String()
			}
		}
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Create inserta una fila. En modelos direct la columna de tenant se fuerza
// del lado servidor (lo que traiga el payload se sobreescribe); toda FK hacia
// otro modelo scoped (el padre de la cadena de relación, las referencias
// declaradas) se verifica antes, si no la inserción colgaría la fila de otro
// tenant.
func (g *Gateway) Create(ctx context.Context, model Model, data Record) (Record, error) {
	info, err := g.registry.Lookup(model)
	if err != nil {
		return nil, err
	}

	if err := g.checkWriteRefs(ctx, info, data, true); err != nil {
		return nil, err
	}

	sql, args, err := buildInsert(info, g.orgID, data)
	if err != nil {
		return nil, err
	}
	rows, err := g.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", model, err)
	}
	record, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", model, err)
	}
	return Record(record), nil
}

// checkWriteRefs valida las claves foráneas de una escritura: el padre de la
// cadena de relación (obligatorio al crear, verificado también cuando un
// update lo reescribe) y las referencias declaradas en Refs. La condición
// scoped del WHERE solo ve los padres viejos de la fila, así que una FK nueva
// hacia una fila de otra organización debe rechazarse acá, antes de escribir.
func (g *Gateway) checkWriteRefs(ctx context.Context, info ModelInfo, data Record, creating bool) error {
	if info.Kind == ScopeRelationship {
		step := info.Path[0]
		parentID, ok := data[step.FKColumn]
		if creating && (!ok || parentID == nil) {
			return fmt.Errorf("%w: falta %s", ErrInvalidFilter, step.FKColumn)
		}
		if ok && parentID != nil {
			if err := g.checkRefOwned(ctx, step.ParentTable, parentID); err != nil {
				return err
			}
		}
	}
	for _, ref := range info.Refs {
		if v, ok := data[ref.FKColumn]; ok && v != nil {
			if err := g.checkRefOwned(ctx, ref.ParentTable, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkRefOwned corre la sonda de pertenencia sobre la fila referenciada.
func (g *Gateway) checkRefOwned(ctx context.Context, table string, id any) error {
	refInfo, err := g.registry.lookupByTable(table)
	if err != nil {
		return err
	}
	sql, args := buildOwnershipProbe(refInfo, g.orgID, id)
	var owned bool
	if err := g.db.QueryRow(ctx, sql, args...).Scan(&owned); err != nil {
		return fmt.Errorf("verificar referencia %s: %w", table, err)
	}
	if !owned {
		return fmt.Errorf("%w: %s %v", ErrOrganizationAccess, table, id)
	}
	return nil
}

// Update modifica las filas que cumplan el filtro, siempre scoped. La columna
// de tenant se descarta de los cambios: una fila no puede cambiar de
// organización. Las FKs presentes en los cambios pasan por el mismo chequeo de
// pertenencia que en Create. Devuelve la cantidad de filas afectadas.
func (g *Gateway) Update(ctx context.Context, model Model, filter Filter, changes Record) (int64, error) {
	info, err := g.registry.Lookup(model)
	if err != nil {
		return 0, err
	}
	if err := g.checkWriteRefs(ctx, info, changes, false); err != nil {
		return 0, err
	}
	sql, args, err := buildUpdate(info, g.orgID, filter, changes)
	if err != nil {
		return 0, err
	}
	tag, err := g.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", model, err)
	}
	return tag.RowsAffected(), nil
}

// Delete elimina las filas que cumplan el filtro, siempre scoped.
func (g *Gateway) Delete(ctx context.Context, model Model, filter Filter) (int64, error) {
	info, err := g.registry.Lookup(model)
	if err != nil {
		return 0, err
	}
	sql, args, err := buildDelete(info, g.orgID, filter)
	if err != nil {
		return 0, err
	}
	tag, err := g.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", model, err)
	}
	return tag.RowsAffected(), nil
}

// Count cuenta filas que cumplan el filtro, siempre scoped.
func (g *Gateway) Count(ctx context.Context, model Model, filter Filter) (int64, error) {
	info, err := g.registry.Lookup(model)
	if err != nil {
		return 0, err
	}
	sql, args, err := buildCount(info, g.orgID, filter)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := g.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", model, err)
	}
	return count, nil
}

// Transaction ejecuta fn con un gateway atado a la misma organización pero
// sobre una única transacción: o todas las operaciones del callback quedan
// visibles o ninguna. Cada operación interna sigue pasando por el algoritmo de
// scope completo. Sin retries internos: los errores transitorios se propagan.
func (g *Gateway) Transaction(ctx context.Context, fn func(tx *Gateway) error) error {
	if g.pool == nil {
		return ErrNestedTransaction
	}
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	txGateway := &Gateway{
		db:       tx,
		pool:     nil,
		registry: g.registry,
		orgID:    g.orgID,
		strict:   g.strict,
		log:      g.log,
	}
	if err := fn(txGateway); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
