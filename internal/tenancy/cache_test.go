package tenancy_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/gestion-pro/internal/tenancy"
)

func allowed(kind tenancy.AccessKind, role string) tenancy.AccessResult {
	return tenancy.AccessResult{Allowed: true, Kind: kind, Role: role}
}

// ──────────────────────────────────────────────────────────────────────────────
// Get / Set básicos
// ──────────────────────────────────────────────────────────────────────────────

func TestAccessCache_SetYGet(t *testing.T) {
	c := tenancy.NewAccessCache(time.Minute)

	_, ok := c.Get("u1", "org1")
	assert.False(t, ok, "caché recién creado debe reportar miss")

	c.Set("u1", "org1", allowed(tenancy.AccessSecondary, "admin"))

	got, ok := c.Get("u1", "org1")
	require.True(t, ok)
	assert.True(t, got.Allowed)
	assert.Equal(t, tenancy.AccessSecondary, got.Kind)
	assert.Equal(t, "admin", got.Role)
}

// Los negativos también se cachean: un reintento denegado no debe ir a la DB.
func TestAccessCache_CacheaDenegaciones(t *testing.T) {
	c := tenancy.NewAccessCache(time.Minute)
	c.Set("u1", "org1", tenancy.AccessResult{
		Allowed: false, Kind: tenancy.AccessNone, DenyReason: tenancy.DenyNoAccess,
	})

	got, ok := c.Get("u1", "org1")
	require.True(t, ok, "la denegación debe estar cacheada")
	assert.False(t, got.Allowed)
	assert.Equal(t, tenancy.DenyNoAccess, got.DenyReason)
}

// (u1, org1) y (u1, org2) son entradas independientes.
func TestAccessCache_ClavePorUsuarioYOrganizacion(t *testing.T) {
	c := tenancy.NewAccessCache(time.Minute)
	c.Set("u1", "org1", allowed(tenancy.AccessPrimary, "admin"))

	_, ok := c.Get("u1", "org2")
	assert.False(t, ok, "otra organización del mismo usuario es otra entrada")

	_, ok = c.Get("u2", "org1")
	assert.False(t, ok, "otro usuario en la misma organización es otra entrada")
}

// ──────────────────────────────────────────────────────────────────────────────
// Expiración
// ──────────────────────────────────────────────────────────────────────────────

func TestAccessCache_EntradaVencidaNuncaSeDevuelve(t *testing.T) {
	c := tenancy.NewAccessCache(10 * time.Millisecond)
	c.Set("u1", "org1", allowed(tenancy.AccessPrimary, "admin"))

	_, ok := c.Get("u1", "org1")
	require.True(t, ok, "dentro del TTL la entrada debe estar viva")

	time.Sleep(25 * time.Millisecond)

	_, ok = c.Get("u1", "org1")
	assert.False(t, ok, "pasado el TTL la entrada vencida jamás se devuelve")

	// La expiración es perezosa: el Get que la tocó ya la desalojó.
	assert.Equal(t, 0, c.Stats().Size, "el Get debe desalojar la entrada vencida")
}

// TTL <= 0 desactiva el caché por completo: cada request re-verifica.
func TestAccessCache_TTLCeroDesactivaElCache(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Second} {
		c := tenancy.NewAccessCache(ttl)
		assert.False(t, c.Enabled())

		c.Set("u1", "org1", allowed(tenancy.AccessPrimary, "admin"))
		_, ok := c.Get("u1", "org1")
		assert.False(t, ok, "con TTL %v el caché no debe guardar nada", ttl)
		assert.Equal(t, 0, c.Stats().Size)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Invalidación
// ──────────────────────────────────────────────────────────────────────────────

func TestAccessCache_InvalidateExacto(t *testing.T) {
	c := tenancy.NewAccessCache(time.Minute)
	c.Set("u1", "org1", allowed(tenancy.AccessSecondary, "member"))
	c.Set("u1", "org2", allowed(tenancy.AccessSecondary, "member"))

	c.Invalidate("u1", "org1")

	_, ok := c.Get("u1", "org1")
	assert.False(t, ok, "la entrada invalidada debe desaparecer de inmediato")
	_, ok = c.Get("u1", "org2")
	assert.True(t, ok, "las demás entradas del usuario no se tocan")
}

// Invalidate(user, "") borra todas las organizaciones de ese usuario.
func TestAccessCache_InvalidatePorUsuario(t *testing.T) {
	c := tenancy.NewAccessCache(time.Minute)
	c.Set("u1", "org1", allowed(tenancy.AccessSecondary, "member"))
	c.Set("u1", "org2", allowed(tenancy.AccessSecondary, "member"))
	c.Set("u2", "org1", allowed(tenancy.AccessPrimary, "admin"))

	c.Invalidate("u1", "")

	_, ok := c.Get("u1", "org1")
	assert.False(t, ok)
	_, ok = c.Get("u1", "org2")
	assert.False(t, ok)
	_, ok = c.Get("u2", "org1")
	assert.True(t, ok, "entradas de otros usuarios quedan intactas")
}

// Invalidate("", org) borra todos los usuarios de esa organización
// (lo usa la desactivación de organizaciones).
func TestAccessCache_InvalidatePorOrganizacion(t *testing.T) {
	c := tenancy.NewAccessCache(time.Minute)
	c.Set("u1", "org1", allowed(tenancy.AccessSecondary, "member"))
	c.Set("u2", "org1", allowed(tenancy.AccessPrimary, "admin"))
	c.Set("u1", "org2", allowed(tenancy.AccessSecondary, "member"))

	c.Invalidate("", "org1")

	_, ok := c.Get("u1", "org1")
	assert.False(t, ok)
	_, ok = c.Get("u2", "org1")
	assert.False(t, ok)
	_, ok = c.Get("u1", "org2")
	assert.True(t, ok)
}

func TestAccessCache_InvalidateTodoVaciaElCache(t *testing.T) {
	c := tenancy.NewAccessCache(time.Minute)
	c.Set("u1", "org1", allowed(tenancy.AccessSecondary, "member"))
	c.Set("u2", "org2", allowed(tenancy.AccessPrimary, "admin"))

	c.Invalidate("", "")

	assert.Equal(t, 0, c.Stats().Size)
}

// ──────────────────────────────────────────────────────────────────────────────
// Stats
// ──────────────────────────────────────────────────────────────────────────────

func TestAccessCache_Stats(t *testing.T) {
	c := tenancy.NewAccessCache(time.Minute)
	c.Set("u2", "org1", allowed(tenancy.AccessPrimary, "admin"))
	c.Set("u1", "org1", allowed(tenancy.AccessSecondary, "member"))

	stats := c.Stats()
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, []string{"u1|org1", "u2|org1"}, stats.Keys, "las claves salen ordenadas")
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia — correr con -race
// ──────────────────────────────────────────────────────────────────────────────

func TestAccessCache_AccesoConcurrente(t *testing.T) {
	c := tenancy.NewAccessCache(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			user := fmt.Sprintf("u%d", n%8)
			org := fmt.Sprintf("org%d", n%4)
			for j := 0; j < 200; j++ {
				c.Set(user, org, allowed(tenancy.AccessSecondary, "member"))
				c.Get(user, org)
				if j%50 == 0 {
					c.Invalidate(user, "")
				}
			}
		}(i)
	}
	wg.Wait()
}
