package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/owndc/owndc/internal/domain"
)

// Registry tracks which connection currently represents each online user.
// At most one entry per identity: a reconnect overwrites the previous entry
// and Register hands the superseded connection back so the caller can close
// it instead of leaving a ghost listener.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.UserID]Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.UserID]Connection)}
}

// Register records conn as the active connection for id. When a previous
// connection existed it is returned with replaced=true; the registry never
// closes it itself.
func (r *Registry) Register(id domain.UserID, conn Connection) (prev Connection, replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, replaced = r.conns[id]
	r.conns[id] = conn
	log.Info().Str("module", "core.registry").Str("user", string(id)).Bool("replaced", replaced).Msg("registered connection")
	return prev, replaced
}

// Lookup resolves id to its active connection. Absence means the user is
// offline and is never an error.
func (r *Registry) Lookup(id domain.UserID) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// Unregister removes the mapping only if conn is still the registered
// connection for id. Ownership is re-validated at teardown time so a stale
// disconnect cannot evict a newer reconnection.
func (r *Registry) Unregister(id domain.UserID, conn Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.conns[id]
	if !ok || cur != conn {
		log.Debug().Str("module", "core.registry").Str("user", string(id)).Msg("stale unregister ignored")
		return false
	}
	delete(r.conns, id)
	log.Info().Str("module", "core.registry").Str("user", string(id)).Msg("unregistered connection")
	return true
}

// Online returns a snapshot of the currently connected identities.
func (r *Registry) Online() []domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.UserID, 0, len(r.conns))
	for id := range r.conns {
		out = append(out, id)
	}
	return out
}

// Connections returns a snapshot of every active connection, for
// system-wide broadcasts.
func (r *Registry) Connections() []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Connection, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}
