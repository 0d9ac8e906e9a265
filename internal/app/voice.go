package app

import (
	"github.com/rs/zerolog/log"

	"github.com/owndc/owndc/internal/domain"
)

// JoinVoice runs the voice join sequence: notify each resolvable existing
// member that a peer joined, hand the joiner the full pre-existing member
// list so it can offer to every peer (full mesh, not a star), add the joiner,
// then broadcast the room's hydrated membership system-wide.
//
// The global broadcast is deliberate: any client can render ambient
// "who's in which voice room" state without a per-room subscription. Known
// fan-out cost at scale.
func (c *Coordinator) JoinVoice(id domain.UserID, room domain.RoomID) {
	joiner, err := c.store.UserByID(id)
	if err != nil {
		log.Error().Err(err).Str("module", "app.voice").Str("user", string(id)).Msg("join: unknown user")
		return
	}

	existing, already := c.rooms.Join(id, room)

	// A duplicate join must not double-notify the peers; the set already
	// absorbed the re-add.
	if !already {
		for _, peer := range existing {
			c.sendTo(peer, voiceUserJoinedEvent{
				Type:     EvVoiceUserJoined,
				UserID:   id,
				Username: joiner.Username,
				RoomID:   room,
			})
		}
	}

	c.sendTo(id, voiceRoomUsersEvent{
		Type:   EvVoiceRoomUsers,
		RoomID: room,
		Users:  c.publicUsers(existing),
	})

	c.broadcastRoomUpdate(room)
}

// LeaveVoice removes id from room, tells the remaining members, and
// broadcasts the updated membership (an empty list when the room died).
// Leaving a room the identity never joined is a no-op.
func (c *Coordinator) LeaveVoice(id domain.UserID, room domain.RoomID) {
	remaining, left := c.rooms.Leave(id, room)
	if !left {
		return
	}
	c.notifyLeft(id, room, remaining)
}

func (c *Coordinator) notifyLeft(id domain.UserID, room domain.RoomID, remaining []domain.UserID) {
	for _, peer := range remaining {
		c.sendTo(peer, voiceUserLeftEvent{Type: EvVoiceUserLeft, UserID: id, RoomID: room})
	}
	c.broadcastRoomUpdate(room)
}

func (c *Coordinator) broadcastRoomUpdate(room domain.RoomID) {
	members := c.rooms.Members(room)
	c.broadcast(voiceRoomUsersEvent{
		Type:   EvVoiceRoomUpdate,
		RoomID: room,
		Users:  c.publicUsers(members),
	})
}

// SyncVoiceStates sends the requesting identity a hydrated snapshot of every
// active voice room, covering broadcasts it missed before connecting.
func (c *Coordinator) SyncVoiceStates(id domain.UserID) {
	snap := c.rooms.Snapshot()
	states := make(map[domain.RoomID][]domain.PublicUser, len(snap))
	for room, members := range snap {
		states[room] = c.publicUsers(members)
	}
	c.sendTo(id, voiceStatesSyncEvent{Type: EvVoiceStatesSync, States: states})
}
