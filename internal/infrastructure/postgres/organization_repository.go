package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tu-usuario/gestion-pro/internal/domain"
	"github.com/tu-usuario/gestion-pro/internal/domain/entity"
	"github.com/tu-usuario/gestion-pro/internal/domain/repository"
)

// Asegura que OrganizationRepo implementa repository.OrganizationRepository.
var _ repository.OrganizationRepository = (*OrganizationRepo)(nil)

// OrganizationRepo implementación del puerto OrganizationRepository sobre PostgreSQL.
type OrganizationRepo struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository construye el adaptador de persistencia para organizaciones.
func NewOrganizationRepository(pool *pgxpool.Pool) *OrganizationRepo {
	return &OrganizationRepo{pool: pool}
}

const orgColumns = `id, name, code, status, created_at, updated_at`

// Create persiste una nueva organización.
func (r *OrganizationRepo) Create(ctx context.Context, org *entity.Organization) error {
	query := `
		INSERT INTO organizations (` + orgColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query,
		org.ID, org.Name, org.Code, org.Status, org.CreatedAt, org.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

// GetByID obtiene una organización por ID. Devuelve nil si no existe.
func (r *OrganizationRepo) GetByID(ctx context.Context, id string) (*entity.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetByCode obtiene una organización por su código corto.
func (r *OrganizationRepo) GetByCode(ctx context.Context, code string) (*entity.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE code = $1`
	return r.scanOne(ctx, query, code)
}

func (r *OrganizationRepo) scanOne(ctx context.Context, query string, arg any) (*entity.Organization, error) {
	var o entity.Organization
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&o.ID, &o.Name, &o.Code, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &o, nil
}

// Update actualiza nombre, código y estado. La identidad (ID) es inmutable.
func (r *OrganizationRepo) Update(ctx context.Context, org *entity.Organization) error {
	query := `
		UPDATE organizations SET name = $2, code = $3, status = $4, updated_at = $5
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, query,
		org.ID, org.Name, org.Code, org.Status, org.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update organization: %w", err)
	}
	return nil
}

// List devuelve organizaciones con paginación.
func (r *OrganizationRepo) List(ctx context.Context, limit, offset int) ([]*entity.Organization, error) {
	query := `
		SELECT ` + orgColumns + `
		FROM organizations ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var list []*entity.Organization
	for rows.Next() {
		var o entity.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Code, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		list = append(list, &o)
	}
	return list, rows.Err()
}

// Deactivate marca la organización como inactive. Nunca se borra una
// organización referenciada por registros de dominio.
func (r *OrganizationRepo) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE organizations SET status = $2, updated_at = now() WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id, entity.OrgStatusInactive)
	if err != nil {
		return fmt.Errorf("deactivate organization: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
