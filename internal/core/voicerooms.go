package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/owndc/owndc/internal/domain"
)

// RoomTracker maintains, per voice room, the set of joined identities.
// Rooms are created lazily on first join and deleted once empty; there are no
// other states. Compound operations (snapshot existing members, then add) run
// under one lock so concurrent joins on the same room cannot lose updates or
// double-notify.
type RoomTracker struct {
	mu     sync.RWMutex
	rooms  map[domain.RoomID]map[domain.UserID]struct{}
	ofUser map[domain.UserID]map[domain.RoomID]struct{}
}

// RoomDeparture reports one room left during LeaveAll, with the members that
// remain and should be notified.
type RoomDeparture struct {
	Room      domain.RoomID
	Remaining []domain.UserID
}

func NewRoomTracker() *RoomTracker {
	return &RoomTracker{
		rooms:  make(map[domain.RoomID]map[domain.UserID]struct{}),
		ofUser: make(map[domain.UserID]map[domain.RoomID]struct{}),
	}
}

// Join adds id to room and returns the members that were present before the
// add. Joining a room the identity already occupies is an idempotent no-op
// reported via already, so callers can skip re-notifying peers.
func (t *RoomTracker) Join(id domain.UserID, room domain.RoomID) (existing []domain.UserID, already bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	members, ok := t.rooms[room]
	if !ok {
		members = make(map[domain.UserID]struct{})
		t.rooms[room] = members
	}
	if _, already = members[id]; already {
		log.Debug().Str("module", "core.rooms").Str("user", string(id)).Str("room", string(room)).Msg("duplicate join")
	}

	existing = make([]domain.UserID, 0, len(members))
	for m := range members {
		if m != id {
			existing = append(existing, m)
		}
	}

	members[id] = struct{}{}
	if t.ofUser[id] == nil {
		t.ofUser[id] = make(map[domain.RoomID]struct{})
	}
	t.ofUser[id][room] = struct{}{}
	log.Info().Str("module", "core.rooms").Str("user", string(id)).Str("room", string(room)).Int("size", len(members)).Msg("joined voice room")
	return existing, already
}

// Leave removes id from room. A leave without a prior join is a no-op with
// left=false. The room is deleted once its member set is empty; remaining
// holds the members still present after the removal.
func (t *RoomTracker) Leave(id domain.UserID, room domain.RoomID) (remaining []domain.UserID, left bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.leaveLocked(id, room)
}

func (t *RoomTracker) leaveLocked(id domain.UserID, room domain.RoomID) ([]domain.UserID, bool) {
	members, ok := t.rooms[room]
	if !ok {
		return nil, false
	}
	if _, ok := members[id]; !ok {
		return nil, false
	}
	delete(members, id)
	if rooms := t.ofUser[id]; rooms != nil {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(t.ofUser, id)
		}
	}

	remaining := make([]domain.UserID, 0, len(members))
	for m := range members {
		remaining = append(remaining, m)
	}
	if len(members) == 0 {
		delete(t.rooms, room)
		log.Info().Str("module", "core.rooms").Str("room", string(room)).Msg("voice room emptied")
	}
	log.Info().Str("module", "core.rooms").Str("user", string(id)).Str("room", string(room)).Int("size", len(remaining)).Msg("left voice room")
	return remaining, true
}

// LeaveAll performs the leave sequence for every room id occupies, in the
// disconnect path.
func (t *RoomTracker) LeaveAll(id domain.UserID) []RoomDeparture {
	t.mu.Lock()
	defer t.mu.Unlock()

	rooms := t.ofUser[id]
	if len(rooms) == 0 {
		return nil
	}
	out := make([]RoomDeparture, 0, len(rooms))
	for room := range rooms {
		remaining, left := t.leaveLocked(id, room)
		if left {
			out = append(out, RoomDeparture{Room: room, Remaining: remaining})
		}
	}
	return out
}

// Members returns the current member set of room, nil when the room does not
// exist.
func (t *RoomTracker) Members(room domain.RoomID) []domain.UserID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	members, ok := t.rooms[room]
	if !ok {
		return nil
	}
	out := make([]domain.UserID, 0, len(members))
	for m := range members {
		out = append(out, m)
	}
	return out
}

// Snapshot returns the full room -> members mapping, used to resynchronize a
// newly connected client in one exchange. Empty rooms never appear: they are
// deleted on their last leave.
func (t *RoomTracker) Snapshot() map[domain.RoomID][]domain.UserID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[domain.RoomID][]domain.UserID, len(t.rooms))
	for room, members := range t.rooms {
		ids := make([]domain.UserID, 0, len(members))
		for m := range members {
			ids = append(ids, m)
		}
		out[room] = ids
	}
	return out
}
