package tenancy

import (
	"hash/fnv"
	"sort"
	"sync"
	"time"
)

// shardCount potencia de dos; el shard se elige por hash FNV de la clave.
const shardCount = 16

// AccessCache almacena resultados de verificación (usuario, organización) con
// vigencia acotada. Estado compartido de proceso: todas las requests protegidas
// lo leen y escriben concurrentemente, por eso está particionado en shards con
// RWMutex propio. La expiración es perezosa: una entrada vencida se desaloja
// en el siguiente Get que la toque.
//
// Se construye explícitamente en main y se inyecta (nada de singletons a nivel
// de módulo): tests y despliegues multi-instancia lo agradecen.
type AccessCache struct {
	ttl    time.Duration
	shards [shardCount]cacheShard
}

type cacheShard struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result    AccessResult
	expiresAt time.Time
}

// CacheStats instantánea para diagnóstico operacional.
type CacheStats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

// NewAccessCache construye el caché con la vigencia dada.
// ttl <= 0 desactiva el caché: Set no escribe y Get siempre falla, de modo que
// cada verificación vuelve al system-of-record.
func NewAccessCache(ttl time.Duration) *AccessCache {
	c := &AccessCache{ttl: ttl}
	for i := range c.shards {
		c.shards[i].entries = make(map[string]cacheEntry)
	}
	return c
}

// Enabled informa si el caché guarda resultados.
func (c *AccessCache) Enabled() bool {
	return c.ttl > 0
}

// TTL vigencia configurada.
func (c *AccessCache) TTL() time.Duration {
	return c.ttl
}

func cacheKey(userID, orgID string) string {
	return userID + "|" + orgID
}

func (c *AccessCache) shardFor(key string) *cacheShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &c.shards[h.Sum32()%shardCount]
}

// Get devuelve el resultado vigente para (userID, orgID). Una entrada vencida
// jamás se devuelve: se desaloja y se reporta miss.
func (c *AccessCache) Get(userID, orgID string) (AccessResult, bool) {
	if !c.Enabled() {
		return AccessResult{}, false
	}
	key := cacheKey(userID, orgID)
	s := c.shardFor(key)

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return AccessResult{}, false
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		// Re-chequear bajo el lock de escritura: otra goroutine pudo reescribirla.
		if cur, ok := s.entries[key]; ok && time.Now().After(cur.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return AccessResult{}, false
	}
	return entry.result, true
}

// Set guarda el resultado (positivo o negativo) con vencimiento absoluto now+TTL.
func (c *AccessCache) Set(userID, orgID string, result AccessResult) {
	if !c.Enabled() {
		return
	}
	key := cacheKey(userID, orgID)
	s := c.shardFor(key)

	s.mu.Lock()
	s.entries[key] = cacheEntry{result: result, expiresAt: time.Now().Add(c.ttl)}
	s.mu.Unlock()
}

// Invalidate elimina entradas que coincidan con los parámetros dados.
// userID y orgID vacíos actúan como comodín: Invalidate("", "") vacía todo,
// Invalidate(user, "") borra todas las organizaciones de ese usuario, etc.
// Lo llaman los flujos administrativos al crear/modificar/revocar memberships;
// el efecto es inmediato para el siguiente lookup.
func (c *AccessCache) Invalidate(userID, orgID string) {
	if userID == "" && orgID == "" {
		c.Clear()
		return
	}
	if userID != "" && orgID != "" {
		key := cacheKey(userID, orgID)
		s := c.shardFor(key)
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return
	}
	// Comodín parcial: recorrer todos los shards.
	prefix := userID + "|"
	suffix := "|" + orgID
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		for key := range s.entries {
			if userID != "" && len(key) >= len(prefix) && key[:len(prefix)] == prefix {
				delete(s.entries, key)
			}
			if orgID != "" && len(key) >= len(suffix) && key[len(key)-len(suffix):] == suffix {
				delete(s.entries, key)
			}
		}
		s.mu.Unlock()
	}
}

// Clear vacía el caché completo.
func (c *AccessCache) Clear() {
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		s.entries = make(map[string]cacheEntry)
		s.mu.Unlock()
	}
}

// Stats devuelve tamaño y claves para el endpoint de diagnóstico.
// No desaloja vencidas: es una foto del estado interno.
func (c *AccessCache) Stats() CacheStats {
	stats := CacheStats{Keys: []string{}}
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.RLock()
		for key := range s.entries {
			stats.Keys = append(stats.Keys, key)
		}
		s.mu.RUnlock()
	}
	sort.Strings(stats.Keys)
	stats.Size = len(stats.Keys)
	return stats
}
