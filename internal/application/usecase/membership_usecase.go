package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/gestion-pro/internal/application/dto"
	"github.com/tu-usuario/gestion-pro/internal/domain"
	"github.com/tu-usuario/gestion-pro/internal/domain/entity"
	"github.com/tu-usuario/gestion-pro/internal/domain/repository"
)

// AccessInvalidator hook de invalidación del caché de verificación de acceso.
// Lo implementa tenancy.AccessCache; la interfaz evita acoplar los casos de
// uso administrativos al paquete tenancy. Parámetros vacíos actúan como
// comodín (ambos vacíos = vaciar todo el caché).
type AccessInvalidator interface {
	Invalidate(userID, orgID string)
}

// MembershipUseCase administración de memberships. Toda escritura invalida el
// caché de acceso del par afectado: una revocación debe surtir efecto en el
// siguiente request, sin esperar al TTL.
type MembershipUseCase struct {
	membershipRepo repository.MembershipRepository
	userRepo       repository.UserRepository
	invalidator    AccessInvalidator
}

// NewMembershipUseCase construye el caso de uso.
func NewMembershipUseCase(membershipRepo repository.MembershipRepository, userRepo repository.UserRepository, invalidator AccessInvalidator) *MembershipUseCase {
	return &MembershipUseCase{membershipRepo: membershipRepo, userRepo: userRepo, invalidator: invalidator}
}

// Grant otorga a un usuario acceso a la organización con el rol dado.
func (uc *MembershipUseCase) Grant(ctx context.Context, orgID string, in dto.GrantMembershipRequest) (*dto.MembershipResponse, error) {
	if in.UserID == "" {
		return nil, domain.ErrInvalidInput
	}
	user, err := uc.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	role := in.Role
	if role == "" {
		role = entity.RoleMember
	}
	now := time.Now()
	m := &entity.Membership{
		ID:             uuid.New().String(),
		UserID:         in.UserID,
		OrganizationID: orgID,
		Role:           role,
		Status:         entity.MembershipStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.membershipRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	uc.invalidator.Invalidate(in.UserID, orgID)
	return toMembershipResponse(m), nil
}

// UpdateRole cambia el rol del membership.
func (uc *MembershipUseCase) UpdateRole(ctx context.Context, orgID, userID string, in dto.UpdateMembershipRequest) (*dto.MembershipResponse, error) {
	m, err := uc.membershipRepo.GetByUserAndOrg(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	m.Role = in.Role
	m.UpdatedAt = time.Now()
	if err := uc.membershipRepo.Update(ctx, m); err != nil {
		return nil, err
	}
	uc.invalidator.Invalidate(userID, orgID)
	return toMembershipResponse(m), nil
}

// Revoke revoca el acceso del usuario a la organización.
func (uc *MembershipUseCase) Revoke(ctx context.Context, orgID, userID string) error {
	if err := uc.membershipRepo.Revoke(ctx, userID, orgID); err != nil {
		return err
	}
	uc.invalidator.Invalidate(userID, orgID)
	return nil
}

// ListByOrg memberships de una organización.
func (uc *MembershipUseCase) ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]*dto.MembershipResponse, error) {
	list, err := uc.membershipRepo.ListByOrg(ctx, orgID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.MembershipResponse, len(list))
	for i, m := range list {
		out[i] = toMembershipResponse(m)
	}
	return out, nil
}

func toMembershipResponse(m *entity.Membership) *dto.MembershipResponse {
	return &dto.MembershipResponse{
		ID:             m.ID,
		UserID:         m.UserID,
		OrganizationID: m.OrganizationID,
		Role:           m.Role,
		Status:         m.Status,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
