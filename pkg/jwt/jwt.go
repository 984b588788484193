package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SupportedVersion única versión de formato de token aceptada.
// Tokens con otra versión se rechazan aunque la firma sea válida.
const SupportedVersion = 1

// Errores del resolutor de tokens. El middleware los mapea a estados HTTP.
var (
	ErrInvalidToken       = errors.New("jwt: token inválido")
	ErrExpiredToken       = errors.New("jwt: token expirado")
	ErrMissingOrgClaim    = errors.New("jwt: el token no incluye organización")
	ErrUnsupportedVersion = errors.New("jwt: versión de token no soportada")
)

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
// La organización se acepta bajo "org_id" o el nombre legado "organization_id":
// tokens emitidos por versiones anteriores del sistema siguen siendo válidos.
type Claims struct {
	jwt.RegisteredClaims
	UserID         string `json:"user_id"`
	OrgID          string `json:"org_id,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"` // nombre legado
	Role           string `json:"role"`                      // rol global: "super" | "admin" | "member"
	Version        int    `json:"ver"`
}

// Organization devuelve el claim de organización, sea cual sea el nombre usado.
func (c *Claims) Organization() string {
	if c.OrgID != "" {
		return c.OrgID
	}
	return c.OrganizationID
}

// Generate genera un token JWT firmado con userID, orgID, rol global y versión de formato.
func Generate(secret, userID, orgID, role, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:  userID,
		OrgID:   orgID,
		Role:    role,
		Version: SupportedVersion,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida firma, expiración, versión y presencia del claim de organización.
// Función pura del token más la clave de verificación; sin efectos secundarios.
// Errores: ErrExpiredToken, ErrInvalidToken, ErrUnsupportedVersion, ErrMissingOrgClaim.
func Parse(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Version != SupportedVersion {
		return nil, ErrUnsupportedVersion
	}
	if claims.UserID == "" {
		// Tokens antiguos usaban solo Subject; se acepta como identidad.
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if claims.Organization() == "" {
		return nil, ErrMissingOrgClaim
	}
	return claims, nil
}
