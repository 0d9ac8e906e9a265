package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/owndc/owndc/internal/domain"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	s := openTestStore(t)

	u, err := s.CreateUser("alice", "alice@example.com", "hunter22222")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" || u.Username != "alice" || u.Status != "offline" {
		t.Fatalf("created user=%+v", u)
	}

	got, err := s.Authenticate("alice", "hunter22222")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("authenticated id=%s, want %s", got.ID, u.ID)
	}

	if _, err := s.Authenticate("alice", "wrong"); !errors.Is(err, ErrBadLogin) {
		t.Fatalf("bad password err=%v, want ErrBadLogin", err)
	}
	if _, err := s.Authenticate("nobody", "x"); !errors.Is(err, ErrBadLogin) {
		t.Fatalf("unknown user err=%v, want ErrBadLogin", err)
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.CreateUser("alice", "a@example.com", "password12"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := s.CreateUser("alice", "b@example.com", "password12"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate username err=%v, want ErrUsernameTaken", err)
	}
	if _, err := s.CreateUser("bob", "a@example.com", "password12"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate email err=%v, want ErrEmailTaken", err)
	}
}

func TestUserByID_NotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.UserByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}

func TestSetStatus(t *testing.T) {
	s := openTestStore(t)
	u, _ := s.CreateUser("alice", "a@example.com", "password12")

	if err := s.SetStatus(u.ID, "online"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	got, _ := s.UserByID(u.ID)
	if got.Status != "online" {
		t.Fatalf("status=%s, want online", got.Status)
	}
}

func TestChannelMessages_Hydrated(t *testing.T) {
	s := openTestStore(t)
	u, _ := s.CreateUser("alice", "a@example.com", "password12")
	ch, err := s.CreateChannel("general", u.ID)
	if err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}

	msg, err := s.SaveChannelMessage(ch.ID, u.ID, "hello")
	if err != nil {
		t.Fatalf("SaveChannelMessage: %v", err)
	}
	if msg.Username != "alice" || msg.Content != "hello" || msg.ConversationID != string(ch.ID) {
		t.Fatalf("hydrated message=%+v", msg)
	}

	history, err := s.ChannelMessages(ch.ID, 10)
	if err != nil {
		t.Fatalf("ChannelMessages: %v", err)
	}
	if len(history) != 1 || history[0].ID != msg.ID {
		t.Fatalf("history=%v, want the saved message", history)
	}
}

func TestDirectMessages_BothDirections(t *testing.T) {
	s := openTestStore(t)
	a, _ := s.CreateUser("alice", "a@example.com", "password12")
	b, _ := s.CreateUser("bob", "b@example.com", "password12")

	if _, err := s.SaveDirectMessage(a.ID, b.ID, "hi bob"); err != nil {
		t.Fatalf("SaveDirectMessage: %v", err)
	}
	if _, err := s.SaveDirectMessage(b.ID, a.ID, "hi alice"); err != nil {
		t.Fatalf("SaveDirectMessage: %v", err)
	}

	history, err := s.DirectMessages(a.ID, b.ID, 10)
	if err != nil {
		t.Fatalf("DirectMessages: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history len=%d, want both directions", len(history))
	}
}

func TestGroups(t *testing.T) {
	s := openTestStore(t)
	a, _ := s.CreateUser("alice", "a@example.com", "password12")
	b, _ := s.CreateUser("bob", "b@example.com", "password12")

	g, err := s.CreateGroup("trio", a.ID, []domain.UserID{b.ID})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	for _, id := range []domain.UserID{a.ID, b.ID} {
		groups, err := s.GroupsOf(id)
		if err != nil {
			t.Fatalf("GroupsOf: %v", err)
		}
		if len(groups) != 1 || groups[0].ID != g.ID {
			t.Fatalf("GroupsOf(%s)=%v, want [%s]", id, groups, g.ID)
		}
	}

	msg, err := s.SaveGroupMessage(g.ID, b.ID, "yo")
	if err != nil {
		t.Fatalf("SaveGroupMessage: %v", err)
	}
	if msg.Username != "bob" {
		t.Fatalf("group message=%+v, want hydrated sender", msg)
	}
	history, err := s.GroupMessages(g.ID, 10)
	if err != nil {
		t.Fatalf("GroupMessages: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history len=%d, want 1", len(history))
	}
}

func TestFriends(t *testing.T) {
	s := openTestStore(t)
	a, _ := s.CreateUser("alice", "a@example.com", "password12")
	b, _ := s.CreateUser("bob", "b@example.com", "password12")

	if err := s.RequestFriend(a.ID, b.ID); err != nil {
		t.Fatalf("RequestFriend: %v", err)
	}
	// Pending requests are not friendships yet.
	friends, _ := s.Friends(a.ID)
	if len(friends) != 0 {
		t.Fatalf("friends before accept=%v, want none", friends)
	}

	if err := s.AcceptFriend(a.ID, b.ID); err != nil {
		t.Fatalf("AcceptFriend: %v", err)
	}
	friends, _ = s.Friends(a.ID)
	if len(friends) != 1 || friends[0].ID != b.ID {
		t.Fatalf("alice friends=%v, want [bob]", friends)
	}
	friends, _ = s.Friends(b.ID)
	if len(friends) != 1 || friends[0].ID != a.ID {
		t.Fatalf("bob friends=%v, want [alice]", friends)
	}

	if err := s.AcceptFriend(b.ID, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("accept of nonexistent request err=%v, want ErrNotFound", err)
	}
}

func TestPendingAndDeclineFriends(t *testing.T) {
	s := openTestStore(t)
	a, _ := s.CreateUser("alice", "a@example.com", "password12")
	b, _ := s.CreateUser("bob", "b@example.com", "password12")

	if err := s.RequestFriend(a.ID, b.ID); err != nil {
		t.Fatalf("RequestFriend: %v", err)
	}

	// The receiver sees the requester; the requester has nothing pending.
	pending, err := s.PendingFriends(b.ID)
	if err != nil {
		t.Fatalf("PendingFriends: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != a.ID {
		t.Fatalf("bob pending=%v, want [alice]", pending)
	}
	pending, _ = s.PendingFriends(a.ID)
	if len(pending) != 0 {
		t.Fatalf("alice pending=%v, want none", pending)
	}

	if err := s.DeclineFriend(a.ID, b.ID); err != nil {
		t.Fatalf("DeclineFriend: %v", err)
	}
	pending, _ = s.PendingFriends(b.ID)
	if len(pending) != 0 {
		t.Fatalf("pending after decline=%v, want none", pending)
	}
	if err := s.DeclineFriend(a.ID, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("decline of nothing err=%v, want ErrNotFound", err)
	}
}

func TestServers(t *testing.T) {
	s := openTestStore(t)
	a, _ := s.CreateUser("alice", "a@example.com", "password12")
	b, _ := s.CreateUser("bob", "b@example.com", "password12")

	srv, err := s.CreateServer("hangout", "icon.png", a.ID)
	if err != nil {
		t.Fatalf("CreateServer: %v", err)
	}

	servers, err := s.ServersOf(a.ID)
	if err != nil {
		t.Fatalf("ServersOf: %v", err)
	}
	if len(servers) != 1 || servers[0].ID != srv.ID {
		t.Fatalf("owner servers=%v, want [%s]", servers, srv.ID)
	}

	// Creation seeds a text and a voice channel.
	channels, err := s.ServerChannels(srv.ID, a.ID)
	if err != nil {
		t.Fatalf("ServerChannels: %v", err)
	}
	if len(channels) != 2 {
		t.Fatalf("default channels=%v, want text and voice", channels)
	}
	kinds := map[string]bool{}
	for _, ch := range channels {
		kinds[ch.Type] = true
		if ch.ServerID != srv.ID {
			t.Fatalf("channel server=%s, want %s", ch.ServerID, srv.ID)
		}
	}
	if !kinds["text"] || !kinds["voice"] {
		t.Fatalf("channel types=%v, want text and voice", kinds)
	}

	// Server channels stay out of the standalone listing.
	standalone, err := s.Channels()
	if err != nil {
		t.Fatalf("Channels: %v", err)
	}
	if len(standalone) != 0 {
		t.Fatalf("standalone channels=%v, want none", standalone)
	}

	if _, err := s.ServerChannels(srv.ID, b.ID); !errors.Is(err, ErrNotMember) {
		t.Fatalf("outsider channels err=%v, want ErrNotMember", err)
	}
	if err := s.JoinServer(srv.ID, b.ID); err != nil {
		t.Fatalf("JoinServer: %v", err)
	}
	if err := s.JoinServer(srv.ID, b.ID); err != nil {
		t.Fatalf("repeat JoinServer: %v", err)
	}
	servers, _ = s.ServersOf(b.ID)
	if len(servers) != 1 {
		t.Fatalf("bob servers=%v, want one membership after repeat join", servers)
	}
	if _, err := s.ServerChannels(srv.ID, b.ID); err != nil {
		t.Fatalf("member channels: %v", err)
	}

	if err := s.JoinServer("missing", b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("join unknown server err=%v, want ErrNotFound", err)
	}
}

func TestSearchUsers(t *testing.T) {
	s := openTestStore(t)
	s.CreateUser("alice", "a@example.com", "password12")
	s.CreateUser("alicia", "b@example.com", "password12")
	s.CreateUser("bob", "c@example.com", "password12")

	users, err := s.SearchUsers("ali", 10)
	if err != nil {
		t.Fatalf("SearchUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("search results=%v, want alice and alicia", users)
	}
}
