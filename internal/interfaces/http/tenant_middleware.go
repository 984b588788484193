package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/gestion-pro/internal/application/dto"
	"github.com/tu-usuario/gestion-pro/internal/tenancy"
	pkgjwt "github.com/tu-usuario/gestion-pro/pkg/jwt"
	"github.com/tu-usuario/gestion-pro/pkg/logger"
)

// LocalTenantContext key del contexto de tenant en c.Locals.
const LocalTenantContext = "tenant_context"

// AccessVerifier contrato mínimo que necesita el middleware para verificar el
// acceso a la organización. Lo implementa *tenancy.Verifier; la interfaz
// permite stubearlo en tests.
type AccessVerifier interface {
	Verify(ctx context.Context, userID, orgID, globalRole string) (tenancy.AccessResult, error)
}

// TenantMiddlewareDeps dependencias del middleware de contexto de tenant.
type TenantMiddlewareDeps struct {
	JWTSecret string
	Verifier  AccessVerifier
	Gateways  *tenancy.GatewayFactory
	// VerifyAccess false omite la verificación de membership (solo token).
	VerifyAccess bool
	Log          *logger.Logger
}

// TenantMiddleware resuelve la identidad y la organización del token, verifica
// el acceso (cache-asistido) y adjunta a la request un contexto inmutable con
// el gateway de datos ya atado a esa organización. Ante cualquier falla corta
// con el error mapeado antes de que corra lógica de handler: el gateway es
// inalcanzable sin contexto válido.
//
// Estados: sin autenticar -> credencial extraída -> identidad verificada ->
// contexto adjunto; cualquier falla va al estado terminal de rechazo.
func TenantMiddleware(deps TenantMiddlewareDeps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, errResp := extractBearer(c)
		if errResp != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(*errResp)
		}

		claims, err := pkgjwt.Parse(deps.JWTSecret, tokenString)
		if err != nil {
			status, body := mapTokenError(err)
			return c.Status(status).JSON(body)
		}

		userID := claims.UserID
		orgID := claims.Organization()

		role := claims.Role
		kind := tenancy.AccessPrimary
		var orgSummary *tenancy.OrganizationSummary

		if deps.VerifyAccess {
			result, err := deps.Verifier.Verify(c.Context(), userID, orgID, claims.Role)
			if err != nil {
				// Fallo de DB: se distingue de una denegación para que el
				// monitoreo alerte en vez de degradar la seguridad en silencio.
				deps.Log.Error().Err(err).
					Str("user_id", userID).
					Str("org_id", orgID).
					Msg("verificación de acceso no disponible")
				return c.Status(fiber.StatusInternalServerError).
					JSON(dto.Error("VERIFICATION_UNAVAILABLE", "no se pudo verificar el acceso, intente más tarde"))
			}
			if !result.Allowed {
				return denialResponse(c, result)
			}
			role = result.Role
			kind = result.Kind
			orgSummary = result.Organization
		}

		tctx := tenancy.NewContext(userID, orgID, role, kind, orgSummary, deps.Gateways.ForOrganization(orgID))
		c.Locals(LocalTenantContext, tctx)
		return c.Next()
	}
}

// extractBearer saca el token del header Authorization. Esquema exigido: Bearer.
func extractBearer(c *fiber.Ctx) (string, *dto.ErrorResponse) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		body := dto.Error("MISSING_TOKEN", "Authorization header requerido")
		return "", &body
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		body := dto.Error("MISSING_TOKEN", "formato: Bearer <token>")
		return "", &body
	}
	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		body := dto.Error("MISSING_TOKEN", "token vacío")
		return "", &body
	}
	return tokenString, nil
}

func mapTokenError(err error) (int, dto.ErrorResponse) {
	switch {
	case errors.Is(err, pkgjwt.ErrExpiredToken):
		return fiber.StatusUnauthorized, dto.Error("EXPIRED_TOKEN", "token expirado")
	case errors.Is(err, pkgjwt.ErrUnsupportedVersion):
		return fiber.StatusUnauthorized, dto.Error("INVALID_TOKEN", "versión de token no soportada")
	case errors.Is(err, pkgjwt.ErrMissingOrgClaim):
		return fiber.StatusForbidden, dto.Error("MISSING_ORG_CONTEXT", "el token no incluye organización")
	default:
		return fiber.StatusUnauthorized, dto.Error("INVALID_TOKEN", "token inválido")
	}
}

func denialResponse(c *fiber.Ctx, result tenancy.AccessResult) error {
	if result.DenyReason == tenancy.DenyOrgInactive {
		return c.Status(fiber.StatusForbidden).
			JSON(dto.Error("ORG_INACTIVE", "la organización está desactivada"))
	}
	return c.Status(fiber.StatusForbidden).
		JSON(dto.Error("ORG_ACCESS_DENIED", "sin acceso a esta organización"))
}

// GetTenantContext devuelve el contexto de tenant adjunto por TenantMiddleware,
// o nil si la ruta no pasó por él.
func GetTenantContext(c *fiber.Ctx) *tenancy.Context {
	v := c.Locals(LocalTenantContext)
	if v == nil {
		return nil
	}
	tctx, _ := v.(*tenancy.Context)
	return tctx
}

// RequireRole autoriza por rol efectivo dentro de la organización. Debe usarse
// DESPUÉS de TenantMiddleware.
func RequireRole(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tctx := GetTenantContext(c)
		if tctx == nil {
			return c.Status(fiber.StatusUnauthorized).
				JSON(dto.Error("UNAUTHORIZED", "contexto de tenant no resuelto"))
		}
		role := tctx.Role()
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).
				JSON(dto.Error("MISSING_ROLE", "el token no incluye rol"))
		}
		for _, allowed := range allowedRoles {
			if role == allowed {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).
			JSON(dto.Error("FORBIDDEN", "rol sin permiso para esta ruta"))
	}
}

// RequireOwnOrganization restringe rutas que reciben la organización por
// parámetro a la organización del propio contexto. Un admin administra solo
// su organización; el super accede a cualquiera. Debe usarse DESPUÉS de
// TenantMiddleware.
func RequireOwnOrganization(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tctx := GetTenantContext(c)
		if tctx == nil {
			return c.Status(fiber.StatusUnauthorized).
				JSON(dto.Error("UNAUTHORIZED", "contexto de tenant no resuelto"))
		}
		if tctx.AccessKind() == tenancy.AccessSuper {
			return c.Next()
		}
		if c.Params(param) != tctx.OrganizationID() {
			return c.Status(fiber.StatusForbidden).
				JSON(dto.Error("FORBIDDEN", "solo se puede administrar la organización propia"))
		}
		return c.Next()
	}
}
