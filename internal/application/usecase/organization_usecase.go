package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/gestion-pro/internal/application/dto"
	"github.com/tu-usuario/gestion-pro/internal/domain"
	"github.com/tu-usuario/gestion-pro/internal/domain/entity"
	"github.com/tu-usuario/gestion-pro/internal/domain/repository"
)

// OrganizationUseCase administración de organizaciones (flujo administrativo,
// opera sobre modelos globales sin scope de tenant).
type OrganizationUseCase struct {
	orgRepo repository.OrganizationRepository
}

// NewOrganizationUseCase construye el caso de uso.
func NewOrganizationUseCase(orgRepo repository.OrganizationRepository) *OrganizationUseCase {
	return &OrganizationUseCase{orgRepo: orgRepo}
}

// Create da de alta una organización activa.
func (uc *OrganizationUseCase) Create(ctx context.Context, in dto.CreateOrganizationRequest) (*dto.OrganizationResponse, error) {
	name := strings.TrimSpace(in.Name)
	code := strings.ToLower(strings.TrimSpace(in.Code))
	if name == "" || code == "" {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.orgRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	org := &entity.Organization{
		ID:        uuid.New().String(),
		Name:      name,
		Code:      code,
		Status:    entity.OrgStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.orgRepo.Create(ctx, org); err != nil {
		return nil, err
	}
	return toOrganizationResponse(org), nil
}

// GetByID obtiene una organización.
func (uc *OrganizationUseCase) GetByID(ctx context.Context, id string) (*dto.OrganizationResponse, error) {
	org, err := uc.orgRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return toOrganizationResponse(org), nil
}

// List devuelve organizaciones con paginación.
func (uc *OrganizationUseCase) List(ctx context.Context, limit, offset int) ([]*dto.OrganizationResponse, error) {
	orgs, err := uc.orgRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.OrganizationResponse, len(orgs))
	for i, org := range orgs {
		out[i] = toOrganizationResponse(org)
	}
	return out, nil
}

// Deactivate desactiva la organización. Los accesos cacheados hacia ella se
// invalidan para que el corte sea inmediato y no espere al TTL.
func (uc *OrganizationUseCase) Deactivate(ctx context.Context, id string, invalidator AccessInvalidator) error {
	if err := uc.orgRepo.Deactivate(ctx, id); err != nil {
		return err
	}
	invalidator.Invalidate("", id)
	return nil
}

func toOrganizationResponse(o *entity.Organization) *dto.OrganizationResponse {
	return &dto.OrganizationResponse{
		ID:        o.ID,
		Name:      o.Name,
		Code:      o.Code,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
