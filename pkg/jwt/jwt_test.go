package jwt_test

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/tu-usuario/gestion-pro/pkg/jwt"
)

const (
	testSecret = "test-secret-key-for-unit-tests"
	testUserID = "00000000-0000-0000-0000-000000000001"
	testOrgID  = "00000000-0000-0000-0000-000000000002"
	testIssuer = "gestion-pro-test"
	testExpMin = 60
)

// ──────────────────────────────────────────────────────────────────────────────
// Generate + Parse — camino feliz
// ──────────────────────────────────────────────────────────────────────────────

func TestJWT_GenerateAndParse(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testUserID, testOrgID, "admin", testIssuer, testExpMin)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := pkgjwt.Parse(testSecret, tok)
	require.NoError(t, err)

	assert.Equal(t, testUserID, claims.UserID)
	assert.Equal(t, testOrgID, claims.Organization())
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, pkgjwt.SupportedVersion, claims.Version)
}

// El claim legado "organization_id" debe aceptarse igual que "org_id":
// tokens emitidos por versiones anteriores del sistema siguen funcionando.
func TestJWT_ClaimLegadoOrganizationID(t *testing.T) {
	now := time.Now()
	claims := pkgjwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   testUserID,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(time.Hour)),
		},
		UserID:         testUserID,
		OrganizationID: testOrgID, // nombre legado, sin org_id
		Role:           "member",
		Version:        pkgjwt.SupportedVersion,
	}
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	parsed, err := pkgjwt.Parse(testSecret, tok)
	require.NoError(t, err, "el claim legado organization_id debe aceptarse")
	assert.Equal(t, testOrgID, parsed.Organization())
}

// Si vienen ambos nombres de claim, "org_id" tiene prioridad.
func TestJWT_OrgIDPrevaleceSobreLegado(t *testing.T) {
	c := &pkgjwt.Claims{OrgID: "nueva", OrganizationID: "vieja"}
	assert.Equal(t, "nueva", c.Organization())
}

// ──────────────────────────────────────────────────────────────────────────────
// Rechazos
// ──────────────────────────────────────────────────────────────────────────────

func TestJWT_TokenExpirado(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testUserID, testOrgID, "admin", testIssuer, -1)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, tok)
	assert.ErrorIs(t, err, pkgjwt.ErrExpiredToken,
		"un token vencido debe mapear a ErrExpiredToken, no a error genérico")
}

func TestJWT_SecretIncorrecto(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testUserID, testOrgID, "admin", testIssuer, testExpMin)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("otro-secret-completamente-distinto", tok)
	assert.ErrorIs(t, err, pkgjwt.ErrInvalidToken)
}

func TestJWT_TokenMalformado(t *testing.T) {
	_, err := pkgjwt.Parse(testSecret, "no.es.un.jwt")
	assert.ErrorIs(t, err, pkgjwt.ErrInvalidToken)
}

// Firma válida pero versión de formato desconocida → rechazo explícito.
func TestJWT_VersionNoSoportada(t *testing.T) {
	now := time.Now()
	claims := pkgjwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   testUserID,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(time.Hour)),
		},
		UserID:  testUserID,
		OrgID:   testOrgID,
		Role:    "admin",
		Version: pkgjwt.SupportedVersion + 1,
	}
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, tok)
	assert.ErrorIs(t, err, pkgjwt.ErrUnsupportedVersion)
}

// Token sin ningún claim de organización → ErrMissingOrgClaim (el middleware lo
// traduce a 403, no a 401: la identidad es válida pero falta el contexto).
func TestJWT_SinClaimDeOrganizacion(t *testing.T) {
	now := time.Now()
	claims := pkgjwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   testUserID,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(time.Hour)),
		},
		UserID:  testUserID,
		Role:    "admin",
		Version: pkgjwt.SupportedVersion,
	}
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, tok)
	assert.ErrorIs(t, err, pkgjwt.ErrMissingOrgClaim)
}

// Tokens antiguos sin user_id propio: se acepta Subject como identidad.
func TestJWT_SubjectComoFallbackDeUserID(t *testing.T) {
	now := time.Now()
	claims := pkgjwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   testUserID,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(time.Hour)),
		},
		OrgID:   testOrgID,
		Role:    "member",
		Version: pkgjwt.SupportedVersion,
	}
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	parsed, err := pkgjwt.Parse(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, testUserID, parsed.UserID)
}

func TestJWT_SecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", testUserID, testOrgID, "admin", testIssuer, testExpMin)
	assert.Error(t, err)

	_, err = pkgjwt.Parse("", "cualquier-cosa")
	assert.Error(t, err)
}
