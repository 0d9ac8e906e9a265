package app

import (
	"github.com/rs/zerolog/log"

	"github.com/owndc/owndc/internal/core"
	"github.com/owndc/owndc/internal/domain"
)

// Connect registers conn as id's active connection and announces presence.
// A superseded connection from an earlier session is closed here rather than
// left orphaned; its own later disconnect then fails the ownership check in
// Disconnect and touches nothing.
func (c *Coordinator) Connect(id domain.UserID, conn core.Connection) {
	prev, replaced := c.registry.Register(id, conn)
	if replaced {
		log.Info().Str("module", "app.presence").Str("user", string(id)).Msg("closing superseded connection")
		prev.Close()
	}
	// Durable status is a best-effort side effect, eventually consistent
	// with the broadcast.
	if err := c.store.SetStatus(id, "online"); err != nil {
		log.Error().Err(err).Str("module", "app.presence").Str("user", string(id)).Msg("set status online")
	}
	c.broadcast(presenceEvent{Type: EvUserOnline, UserID: id})
}

// Disconnect tears down id's realtime state, but only when conn still owns
// the registration. A stale disconnect after a reconnect is a no-op.
func (c *Coordinator) Disconnect(id domain.UserID, conn core.Connection) {
	if !c.registry.Unregister(id, conn) {
		return
	}

	for _, dep := range c.rooms.LeaveAll(id) {
		c.notifyLeft(id, dep.Room, dep.Remaining)
	}
	c.topics.UnsubscribeAll(id)

	if err := c.store.SetStatus(id, "offline"); err != nil {
		log.Error().Err(err).Str("module", "app.presence").Str("user", string(id)).Msg("set status offline")
	}
	c.broadcast(presenceEvent{Type: EvUserOffline, UserID: id})
}

// Online reports the identities with an active connection.
func (c *Coordinator) Online() []domain.UserID {
	return c.registry.Online()
}
