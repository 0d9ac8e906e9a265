package app

import (
	"testing"

	"github.com/owndc/owndc/internal/domain"
)

func TestConnect_BroadcastsOnlineAndSetsStatus(t *testing.T) {
	st := newStubStore("alice", "bob")
	coord := NewCoordinator(st)

	aliceConn := &fakeConn{}
	coord.Connect("alice", aliceConn)

	bobConn := &fakeConn{}
	coord.Connect("bob", bobConn)

	if st.status("alice") != "online" || st.status("bob") != "online" {
		t.Fatal("durable status not set to online")
	}
	// The broadcast reaches every participant, the new connection included:
	// alice sees her own announcement and then bob's.
	evs := aliceConn.ofType(EvUserOnline)
	if len(evs) != 2 || evs[0]["userId"] != "alice" || evs[1]["userId"] != "bob" {
		t.Fatalf("alice online events=%v, want [alice bob]", evs)
	}
	if got := bobConn.countOf(EvUserOnline); got != 1 {
		t.Fatalf("bob online events=%d, want 1 (his own)", got)
	}
}

func TestConnect_ClosesSupersededConnection(t *testing.T) {
	coord, _, conns := connectUsers(t, "alice")
	old := conns["alice"]

	fresh := &fakeConn{}
	coord.Connect("alice", fresh)

	if !old.closed {
		t.Fatal("superseded connection left open")
	}
	got, ok := coord.Registry().Lookup("alice")
	if !ok || got != fresh.asConnection() {
		t.Fatal("registry does not hold the fresh connection")
	}
}

func TestDisconnect_CleansUpAndBroadcastsOffline(t *testing.T) {
	coord, st, conns := connectUsers(t, "alice", "bob")

	coord.JoinVoice("alice", "lobby")
	coord.JoinVoice("bob", "lobby")
	coord.JoinChannel("alice", "general")

	coord.Disconnect("alice", conns["alice"].asConnection())

	if st.status("alice") != "offline" {
		t.Fatal("durable status not set to offline")
	}
	if evs := conns["bob"].ofType(EvUserOffline); len(evs) != 1 || evs[0]["userId"] != "alice" {
		t.Fatalf("bob offline events=%v, want one for alice", evs)
	}
	if evs := conns["bob"].ofType(EvVoiceUserLeft); len(evs) != 1 {
		t.Fatalf("bob voice-user-left events=%d, want 1", len(evs))
	}
	if _, ok := coord.Registry().Lookup("alice"); ok {
		t.Fatal("alice still registered after disconnect")
	}
}

func TestDisconnect_StaleConnectionIsNoop(t *testing.T) {
	coord, st, conns := connectUsers(t, "alice", "bob")
	stale := conns["alice"]

	fresh := &fakeConn{}
	coord.Connect("alice", fresh)
	coord.JoinVoice("alice", "lobby")

	// The superseded connection tears down late; nothing may change.
	coord.Disconnect("alice", stale.asConnection())

	if _, ok := coord.Registry().Lookup("alice"); !ok {
		t.Fatal("stale disconnect evicted the newer registration")
	}
	if st.status("alice") == "offline" {
		t.Fatal("stale disconnect flipped durable status")
	}
	if evs := conns["bob"].ofType(EvUserOffline); len(evs) != 0 {
		t.Fatalf("stale disconnect broadcast user-offline: %v", evs)
	}
	if members := coord.rooms.Members("lobby"); len(members) != 1 {
		t.Fatalf("stale disconnect emptied the voice room: %v", members)
	}
}

func TestOnline(t *testing.T) {
	coord, _, _ := connectUsers(t, "alice", "bob")
	online := coord.Online()
	if len(online) != 2 {
		t.Fatalf("Online=%v, want two identities", online)
	}
	seen := map[domain.UserID]bool{}
	for _, id := range online {
		seen[id] = true
	}
	if !seen["alice"] || !seen["bob"] {
		t.Fatalf("Online=%v, want alice and bob", online)
	}
}
