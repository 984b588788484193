package tenancy

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// identPattern columnas y órdenes válidos: snake_case minúsculas. Los nombres
// de columna vienen del caller, jamás se interpolan sin pasar por acá.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func validIdent(s string) bool {
	return identPattern.MatchString(s)
}

// Filter condiciones de igualdad columna -> valor. nil genera IS NULL.
type Filter map[string]any

// Record fila genérica del gateway (columna -> valor).
type Record map[string]any

// FindOptions opciones de listado.
type FindOptions struct {
	OrderBy string // columna de orden, opcional
	Desc    bool
	Limit   int // <= 0: sin límite
	Offset  int
}

// sortedKeys claves en orden estable para que el SQL generado sea determinista.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// scopeCondition genera la condición de aislamiento del modelo, con placeholders
// a partir de argN. Global devuelve condición vacía. Relationship genera EXISTS
// anidados siguiendo la cadena de FKs hasta el ancestro con columna de tenant:
//
//	EXISTS (SELECT 1 FROM projects
//	         WHERE projects.id = tasks.project_id
//	           AND projects.organization_id = $1)
func scopeCondition(info ModelInfo, orgID string, argN int) (string, []any) {
	switch info.Kind {
	case ScopeGlobal:
		return "", nil
	case ScopeDirect:
		return fmt.Sprintf("%s.%s = $%d", info.Table, info.TenantColumn, argN), []any{orgID}
	case ScopeRelationship:
		// Se construye de adentro hacia afuera: la condición más interna es la
		// columna de tenant del último ancestro de la cadena.
		last := info.Path[len(info.Path)-1]
		cond := fmt.Sprintf("%s.%s = $%d", last.ParentTable, info.TenantColumn, argN)
		for i := len(info.Path) - 1; i >= 0; i-- {
			step := info.Path[i]
			child := info.Table
			if i > 0 {
				child = info.Path[i-1].ParentTable
			}
			cond = fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s.id = %s.%s AND %s)",
				step.ParentTable, step.ParentTable, child, step.FKColumn, cond)
		}
		return cond, []any{orgID}
	default:
		return "", nil
	}
}

// buildWhere combina las condiciones del filtro del caller con la condición de
// scope del modelo. El caller nunca necesita (ni puede) nombrar el tenant: la
// condición se inyecta siempre, venga el filtro que venga.
func buildWhere(info ModelInfo, orgID string, filter Filter, argN int) (string, []any, error) {
	var conds []string
	var args []any

	for _, col := range sortedKeys(filter) {
		if !validIdent(col) {
			return "", nil, fmt.Errorf("%w: %q", ErrInvalidFilter, col)
		}
		val := filter[col]
		if val == nil {
			conds = append(conds, fmt.Sprintf("%s.%s IS NULL", info.Table, col))
			continue
		}
		conds = append(conds, fmt.Sprintf("%s.%s = $%d", info.Table, col, argN))
		args = append(args, val)
		argN++
	}

	if scope, scopeArgs := scopeCondition(info, orgID, argN); scope != "" {
		conds = append(conds, scope)
		args = append(args, scopeArgs...)
	}

	if len(conds) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// buildSelect genera el SELECT scoped completo.
func buildSelect(info ModelInfo, orgID string, filter Filter, opts FindOptions) (string, []any, error) {
	where, args, err := buildWhere(info, orgID, filter, 1)
	if err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("SELECT * FROM %s%s", info.Table, where)

	if opts.OrderBy != "" {
		if !validIdent(opts.OrderBy) {
			return "", nil, fmt.Errorf("%w: order by %q", ErrInvalidFilter, opts.OrderBy)
		}
		sql += " ORDER BY " + opts.OrderBy
		if opts.Desc {
			sql += " DESC"
		}
	}
	if opts.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Offset > 0 {
		sql += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}
	return sql, args, nil
}

// buildCount genera el COUNT scoped.
func buildCount(info ModelInfo, orgID string, filter Filter) (string, []any, error) {
	where, args, err := buildWhere(info, orgID, filter, 1)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", info.Table, where), args, nil
}

// buildInsert genera el INSERT con RETURNING *. En modelos direct la columna de
// tenant se fuerza del lado servidor: cualquier valor que venga en data se
// sobreescribe con el orgID al que está atado el gateway (garantía anti-spoofing).
func buildInsert(info ModelInfo, orgID string, data Record) (string, []any, error) {
	row := make(Record, len(data)+1)
	for k, v := range data {
		row[k] = v
	}
	if info.Kind == ScopeDirect {
		row[info.TenantColumn] = orgID
	}

	cols := sortedKeys(row)
	placeholders := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for i, col := range cols {
		if !validIdent(col) {
			return "", nil, fmt.Errorf("%w: %q", ErrInvalidFilter, col)
		}
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, row[col])
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		info.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return sql, args, nil
}

// buildUpdate genera el UPDATE scoped. La columna de tenant se elimina de los
// cambios: un update jamás puede mover una fila a otra organización.
func buildUpdate(info ModelInfo, orgID string, filter Filter, changes Record) (string, []any, error) {
	if info.Kind == ScopeDirect {
		clean := make(Record, len(changes))
		for k, v := range changes {
			if k == info.TenantColumn {
				continue
			}
			clean[k] = v
		}
		changes = clean
	}
	if len(changes) == 0 {
		return "", nil, fmt.Errorf("%w: update sin cambios", ErrInvalidFilter)
	}

	var sets []string
	var args []any
	argN := 1
	for _, col := range sortedKeys(changes) {
		if !validIdent(col) {
			return "", nil, fmt.Errorf("%w: %q", ErrInvalidFilter, col)
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argN))
		args = append(args, changes[col])
		argN++
	}

	where, whereArgs, err := buildWhere(info, orgID, filter, argN)
	if err != nil {
		return "", nil, err
	}
	args = append(args, whereArgs...)

	sql := fmt.Sprintf("UPDATE %s SET %s%s", info.Table, strings.Join(sets, ", "), where)
	return sql, args, nil
}

// buildDelete genera el DELETE scoped.
func buildDelete(info ModelInfo, orgID string, filter Filter) (string, []any, error) {
	where, args, err := buildWhere(info, orgID, filter, 1)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("DELETE FROM %s%s", info.Table, where), args, nil
}

// buildOwnershipProbe genera el EXISTS que resuelve, vía la cadena de relación,
// si la fila id pertenece a la organización. Se usa en el chequeo post-fetch de
// lecturas por primary key en modelos relationship.
func buildOwnershipProbe(info ModelInfo, orgID string, id any) (string, []any) {
	scope, scopeArgs := scopeCondition(info, orgID, 2)
	cond := fmt.Sprintf("%s.id = $1", info.Table)
	if scope != "" {
		cond += " AND " + scope
	}
	args := append([]any{id}, scopeArgs...)
	return fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s)", info.Table, cond), args
}
