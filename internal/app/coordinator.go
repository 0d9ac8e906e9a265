// Package app implements the realtime coordinator: presence, voice-room
// membership, signaling relay, and chat fan-out. It owns all mutable realtime
// state through one injected Coordinator value; there is no ambient global
// state and nothing here survives a restart.
package app

import (
	"github.com/rs/zerolog/log"

	"github.com/owndc/owndc/internal/core"
	"github.com/owndc/owndc/internal/domain"
	"github.com/owndc/owndc/internal/store"
)

// Coordinator composes the connection registry, the voice room tracker, the
// chat topic subscriptions, and the durable store. Every realtime operation
// is fire-and-forget: a target that cannot be resolved to a connection is a
// silent no-op, never an error surfaced to the sender.
type Coordinator struct {
	registry *core.Registry
	rooms    *core.RoomTracker
	topics   *core.Topics
	store    store.Store
}

func NewCoordinator(st store.Store) *Coordinator {
	return &Coordinator{
		registry: core.NewRegistry(),
		rooms:    core.NewRoomTracker(),
		topics:   core.NewTopics(),
		store:    st,
	}
}

func (c *Coordinator) Registry() *core.Registry { return c.registry }

// sendTo delivers one event to one identity, dropping it silently when the
// identity is offline or the connection is saturated.
func (c *Coordinator) sendTo(id domain.UserID, v any) {
	conn, ok := c.registry.Lookup(id)
	if !ok {
		return
	}
	frame, ok := encode(v)
	if !ok {
		return
	}
	if err := conn.TrySend(frame); err != nil {
		log.Debug().Err(err).Str("module", "app").Str("user", string(id)).Msg("send dropped")
	}
}

// broadcast delivers one event to every active connection system-wide.
func (c *Coordinator) broadcast(v any) {
	frame, ok := encode(v)
	if !ok {
		return
	}
	for _, conn := range c.registry.Connections() {
		if err := conn.TrySend(frame); err != nil {
			log.Debug().Err(err).Str("module", "app").Msg("broadcast drop")
		}
	}
}

// publicUsers resolves display data for a set of identities, skipping any the
// store no longer knows.
func (c *Coordinator) publicUsers(ids []domain.UserID) []domain.PublicUser {
	out := make([]domain.PublicUser, 0, len(ids))
	for _, id := range ids {
		u, err := c.store.UserByID(id)
		if err != nil {
			continue
		}
		out = append(out, u.Public())
	}
	return out
}
