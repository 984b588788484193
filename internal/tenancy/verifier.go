package tenancy

import (
	"context"
	"fmt"

	"github.com/tu-usuario/gestion-pro/internal/domain/entity"
	"github.com/tu-usuario/gestion-pro/pkg/logger"
)

// AccessKind cómo se obtuvo el acceso a la organización.
type AccessKind string

const (
	// AccessSuper bypass privilegiado: rol global "super", sin membership.
	AccessSuper AccessKind = "super"
	// AccessPrimary la organización es el tenant primario del usuario.
	AccessPrimary AccessKind = "primary"
	// AccessSecondary acceso otorgado por un membership explícito.
	AccessSecondary AccessKind = "secondary"
	// AccessNone sin acceso.
	AccessNone AccessKind = "none"
)

// DenyReason distingue los motivos de denegación para el mapeo HTTP
// (403 acceso denegado vs 403 organización inactiva). Viaja dentro del
// AccessResult para que también los negativos cacheados mapeen bien.
type DenyReason string

const (
	DenyNone        DenyReason = ""
	DenyNoAccess    DenyReason = "no_access"
	DenyOrgInactive DenyReason = "org_inactive"
)

// OrganizationSummary resumen de la organización resuelto por el verificador.
type OrganizationSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// AccessResult resultado efímero de una verificación. No se persiste: vive
// solo en el AccessCache y en el contexto de la request.
type AccessResult struct {
	Allowed      bool
	Kind         AccessKind
	Role         string // rol efectivo dentro de la organización
	Organization *OrganizationSummary
	DenyReason   DenyReason
}

// DenialError traduce una denegación a su error tipado. nil si Allowed.
func (r AccessResult) DenialError() error {
	if r.Allowed {
		return nil
	}
	if r.DenyReason == DenyOrgInactive {
		return ErrOrganizationNotActive
	}
	return ErrOrganizationAccessDenied
}

// Puertos mínimos que necesita el verificador; los implementan los repos de
// infrastructure. Interfaces del lado del consumidor para evitar acoplar el
// paquete tenancy a repository.
type membershipSource interface {
	GetByUserAndOrg(ctx context.Context, userID, orgID string) (*entity.Membership, error)
}

type userSource interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

type organizationSource interface {
	GetByID(ctx context.Context, id string) (*entity.Organization, error)
}

// VerifierConfig opciones del verificador.
type VerifierConfig struct {
	// SuperBypass habilita el bypass del rol global "super".
	SuperBypass bool
}

// Verifier decide si una identidad puede actuar dentro de una organización y
// con qué rol. Consulta primero el AccessCache y solo en miss va al
// system-of-record; todo resultado (incluidas denegaciones) se cachea con el
// TTL configurado para que los reintentos denegados tampoco toquen la DB.
type Verifier struct {
	cache       *AccessCache
	memberships membershipSource
	users       userSource
	orgs        organizationSource
	cfg         VerifierConfig
	log         *logger.Logger
}

// NewVerifier construye el verificador. El caché se inyecta ya construido
// (ciclo de vida: creado en main, compartido por todas las requests).
func NewVerifier(cache *AccessCache, memberships membershipSource, users userSource, orgs organizationSource, cfg VerifierConfig, log *logger.Logger) *Verifier {
	return &Verifier{cache: cache, memberships: memberships, users: users, orgs: orgs, cfg: cfg, log: log}
}

// Cache expone el caché para el hook de invalidación y el diagnóstico.
func (v *Verifier) Cache() *AccessCache {
	return v.cache
}

// Verify aplica el algoritmo de verificación en orden estricto de precedencia:
//
//  1. rol global "super" con bypass habilitado -> permitido sin tocar caché ni DB
//  2. entrada viva en caché -> se devuelve tal cual (camino común)
//  3. membership explícito activo + organización activa -> secondary
//  4. fallback al tenant primario del usuario -> primary
//  5. denegado (access-kind none)
//
// Un fallo de DB en 3-4 se propaga como ErrVerificationStorage, nunca como
// denegación silenciosa.
func (v *Verifier) Verify(ctx context.Context, userID, orgID, globalRole string) (AccessResult, error) {
	if v.cfg.SuperBypass && globalRole == entity.RoleSuper {
		return AccessResult{Allowed: true, Kind: AccessSuper, Role: entity.RoleSuper}, nil
	}

	if result, ok := v.cache.Get(userID, orgID); ok {
		return result, nil
	}

	result, err := v.verifyAgainstStorage(ctx, userID, orgID)
	if err != nil {
		return AccessResult{}, err
	}

	// Positivos y negativos se cachean: reintentos denegados tampoco van a la DB.
	v.cache.Set(userID, orgID, result)

	if !result.Allowed {
		v.log.Warn().
			Str("user_id", userID).
			Str("org_id", orgID).
			Str("reason", string(result.DenyReason)).
			Msg("acceso a organización denegado")
	}
	return result, nil
}

func (v *Verifier) verifyAgainstStorage(ctx context.Context, userID, orgID string) (AccessResult, error) {
	membership, err := v.memberships.GetByUserAndOrg(ctx, userID, orgID)
	if err != nil {
		return AccessResult{}, fmt.Errorf("%w: consultar membership: %v", ErrVerificationStorage, err)
	}

	if membership != nil {
		// Un membership revocado es una denegación explícita: no se cae al
		// fallback del tenant primario (fallar cerrado ante revocación).
		if !membership.IsActive() {
			return AccessResult{Allowed: false, Kind: AccessNone, DenyReason: DenyNoAccess}, nil
		}
		return v.resultForOrg(ctx, orgID, AccessSecondary, membership.Role)
	}

	user, err := v.users.GetByID(ctx, userID)
	if err != nil {
		return AccessResult{}, fmt.Errorf("%w: consultar usuario: %v", ErrVerificationStorage, err)
	}
	if user != nil && user.OrganizationID != "" && user.OrganizationID == orgID {
		return v.resultForOrg(ctx, orgID, AccessPrimary, user.Role)
	}

	return AccessResult{Allowed: false, Kind: AccessNone, DenyReason: DenyNoAccess}, nil
}

// resultForOrg valida que la organización exista y esté activa antes de
// conceder el acceso con el rol dado.
func (v *Verifier) resultForOrg(ctx context.Context, orgID string, kind AccessKind, role string) (AccessResult, error) {
	org, err := v.orgs.GetByID(ctx, orgID)
	if err != nil {
		return AccessResult{}, fmt.Errorf("%w: consultar organización: %v", ErrVerificationStorage, err)
	}
	if org == nil {
		return AccessResult{Allowed: false, Kind: AccessNone, DenyReason: DenyNoAccess}, nil
	}
	if !org.IsActive() {
		return AccessResult{Allowed: false, Kind: AccessNone, DenyReason: DenyOrgInactive}, nil
	}
	return AccessResult{
		Allowed: true,
		Kind:    kind,
		Role:    role,
		Organization: &OrganizationSummary{
			ID:   org.ID,
			Name: org.Name,
			Code: org.Code,
		},
	}, nil
}
