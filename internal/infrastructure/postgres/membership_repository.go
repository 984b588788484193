package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tu-usuario/gestion-pro/internal/domain"
	"github.com/tu-usuario/gestion-pro/internal/domain/entity"
	"github.com/tu-usuario/gestion-pro/internal/domain/repository"
)

// Asegura que MembershipRepo implementa repository.MembershipRepository.
var _ repository.MembershipRepository = (*MembershipRepo)(nil)

// MembershipRepo implementación del puerto MembershipRepository sobre PostgreSQL.
// Es la tabla que consulta el verificador de acceso en cache miss.
type MembershipRepo struct {
	pool *pgxpool.Pool
}

// NewMembershipRepository construye el adaptador de persistencia para memberships.
func NewMembershipRepository(pool *pgxpool.Pool) *MembershipRepo {
	return &MembershipRepo{pool: pool}
}

const membershipColumns = `id, user_id, organization_id, role, status, created_at, updated_at`

// Create persiste un nuevo membership. (user_id, organization_id) es único.
func (r *MembershipRepo) Create(ctx context.Context, m *entity.Membership) error {
	query := `
		INSERT INTO memberships (` + membershipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query,
		m.ID, m.UserID, m.OrganizationID, m.Role, m.Status, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

// GetByUserAndOrg obtiene el membership de (userID, orgID). Devuelve nil si no existe.
func (r *MembershipRepo) GetByUserAndOrg(ctx context.Context, userID, orgID string) (*entity.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships WHERE user_id = $1 AND organization_id = $2`
	var m entity.Membership
	err := r.pool.QueryRow(ctx, query, userID, orgID).Scan(
		&m.ID, &m.UserID, &m.OrganizationID, &m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &m, nil
}

// ListByUser devuelve todos los memberships de un usuario.
func (r *MembershipRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships WHERE user_id = $1 ORDER BY created_at`
	return r.list(ctx, query, userID)
}

// ListByOrg devuelve los memberships de una organización con paginación.
func (r *MembershipRepo) ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]*entity.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships WHERE organization_id = $1 ORDER BY created_at LIMIT $2 OFFSET $3`
	return r.list(ctx, query, orgID, limit, offset)
}

func (r *MembershipRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Membership, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var list []*entity.Membership
	for rows.Next() {
		var m entity.Membership
		if err := rows.Scan(&m.ID, &m.UserID, &m.OrganizationID, &m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// Update actualiza rol y estado de un membership.
func (r *MembershipRepo) Update(ctx context.Context, m *entity.Membership) error {
	query := `
		UPDATE memberships SET role = $3, status = $4, updated_at = $5
		WHERE user_id = $1 AND organization_id = $2`
	_, err := r.pool.Exec(ctx, query, m.UserID, m.OrganizationID, m.Role, m.Status, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update membership: %w", err)
	}
	return nil
}

// Revoke marca el membership como revoked. El caso de uso que lo llama debe
// invalidar el caché de acceso a continuación.
func (r *MembershipRepo) Revoke(ctx context.Context, userID, orgID string) error {
	query := `
		UPDATE memberships SET status = $3, updated_at = now()
		WHERE user_id = $1 AND organization_id = $2`
	cmd, err := r.pool.Exec(ctx, query, userID, orgID, entity.MembershipStatusRevoked)
	if err != nil {
		return fmt.Errorf("revoke membership: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
