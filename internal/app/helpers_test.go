package app

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/owndc/owndc/internal/core"
	"github.com/owndc/owndc/internal/domain"
	"github.com/owndc/owndc/internal/store"
)

// fakeConn records every frame it receives, decoded to a generic map.
type fakeConn struct {
	mu     sync.Mutex
	frames []map[string]any
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrBackpressure
	}
	var m map[string]any
	if err := json.Unmarshal(f, &m); err != nil {
		return err
	}
	c.frames = append(c.frames, m)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) ofType(typ string) []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []map[string]any
	for _, m := range c.frames {
		if m["type"] == typ {
			out = append(out, m)
		}
	}
	return out
}

func (c *fakeConn) countOf(typ string) int { return len(c.ofType(typ)) }

func (c *fakeConn) asConnection() core.Connection { return c }

// reset forgets recorded frames, so tests can ignore connect-time presence
// broadcasts.
func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

// stubStore serves user display data from memory and can be told to fail
// message persistence. Unimplemented Store methods panic via the embedded
// nil interface, which no coordinator path should reach.
type stubStore struct {
	store.Store
	mu       sync.Mutex
	users    map[domain.UserID]*domain.User
	statuses map[domain.UserID]string
	failSave bool
}

func newStubStore(usernames ...string) *stubStore {
	s := &stubStore{
		users:    make(map[domain.UserID]*domain.User),
		statuses: make(map[domain.UserID]string),
	}
	for _, name := range usernames {
		id := domain.UserID(name)
		s.users[id] = &domain.User{ID: id, Username: name, Avatar: name + ".png"}
	}
	return s
}

func (s *stubStore) UserByID(id domain.UserID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (s *stubStore) SetStatus(id domain.UserID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[id] = status
	return nil
}

func (s *stubStore) status(id domain.UserID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[id]
}

func (s *stubStore) save(conv string, sender domain.UserID, content string) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return nil, fmt.Errorf("disk full")
	}
	u := s.users[sender]
	if u == nil {
		return nil, store.ErrNotFound
	}
	return &domain.Message{
		ID:             "m-" + content,
		ConversationID: conv,
		SenderID:       sender,
		Content:        content,
		Username:       u.Username,
		Avatar:         u.Avatar,
	}, nil
}

func (s *stubStore) SaveChannelMessage(ch domain.ChannelID, sender domain.UserID, content string) (*domain.Message, error) {
	return s.save(string(ch), sender, content)
}

func (s *stubStore) SaveDirectMessage(sender, receiver domain.UserID, content string) (*domain.Message, error) {
	return s.save(string(receiver), sender, content)
}

func (s *stubStore) SaveGroupMessage(g domain.GroupID, sender domain.UserID, content string) (*domain.Message, error) {
	return s.save(string(g), sender, content)
}

// connectUsers builds a coordinator with one fake connection per seeded user.
func connectUsers(t *testing.T, usernames ...string) (*Coordinator, *stubStore, map[string]*fakeConn) {
	t.Helper()
	st := newStubStore(usernames...)
	coord := NewCoordinator(st)
	conns := make(map[string]*fakeConn, len(usernames))
	for _, name := range usernames {
		conn := &fakeConn{}
		coord.Connect(domain.UserID(name), conn)
		conns[name] = conn
	}
	// Drop the connect-time presence broadcasts; tests assert on what
	// happens after setup.
	for _, conn := range conns {
		conn.reset()
	}
	return coord, st, conns
}
