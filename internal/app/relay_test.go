package app

import (
	"testing"

	"github.com/pion/webrtc/v4"
)

func sdp(kind webrtc.SDPType, body string) webrtc.SessionDescription {
	return webrtc.SessionDescription{Type: kind, SDP: body}
}

func TestRelay_OfferCarriesSenderAndRoom(t *testing.T) {
	coord, _, conns := connectUsers(t, "a", "b")

	coord.RelayOffer("a", "b", "lobby", sdp(webrtc.SDPTypeOffer, "v=0 offer"))

	evs := conns["b"].ofType(EvOffer)
	if len(evs) != 1 {
		t.Fatalf("offers=%d, want 1", len(evs))
	}
	ev := evs[0]
	if ev["from"] != "a" || ev["roomId"] != "lobby" {
		t.Fatalf("offer envelope=%v, want from=a roomId=lobby", ev)
	}
	if ev["signal"].(map[string]any)["sdp"] != "v=0 offer" {
		t.Fatalf("offer signal=%v", ev["signal"])
	}
	// The sender hears nothing back.
	if got := conns["a"].countOf(EvOffer); got != 0 {
		t.Fatalf("sender received its own offer %d times", got)
	}
}

func TestRelay_AnswerAndCandidate(t *testing.T) {
	coord, _, conns := connectUsers(t, "a", "b")

	coord.RelayAnswer("b", "a", sdp(webrtc.SDPTypeAnswer, "v=0 answer"))
	mid := "0"
	coord.RelayCandidate("b", "a", webrtc.ICECandidateInit{Candidate: "candidate:1", SDPMid: &mid})

	if evs := conns["a"].ofType(EvAnswer); len(evs) != 1 || evs[0]["from"] != "b" {
		t.Fatalf("answers=%v, want one from b", evs)
	}
	evs := conns["a"].ofType(EvCandidate)
	if len(evs) != 1 {
		t.Fatalf("candidates=%d, want 1", len(evs))
	}
	if evs[0]["candidate"].(map[string]any)["candidate"] != "candidate:1" {
		t.Fatalf("candidate payload=%v", evs[0])
	}
}

func TestRelay_OfflineTargetIsSilentNoop(t *testing.T) {
	coord, _, conns := connectUsers(t, "a")

	coord.RelayOffer("a", "ghost", "lobby", sdp(webrtc.SDPTypeOffer, "x"))
	coord.CallUser("a", "ghost", sdp(webrtc.SDPTypeOffer, "x"))
	coord.EndCall("a", "ghost")

	// No error surfaced, no event delivered anywhere.
	if got := len(conns["a"].frames); got != 0 {
		t.Fatalf("sender observed %d events after offline relays", got)
	}
}

func TestCall_Scenario(t *testing.T) {
	coord, _, conns := connectUsers(t, "a", "b")

	coord.CallUser("a", "b", sdp(webrtc.SDPTypeOffer, "call me"))

	incoming := conns["b"].ofType(EvIncomingCall)
	if len(incoming) != 1 {
		t.Fatalf("incoming-call=%d, want 1", len(incoming))
	}
	ev := incoming[0]
	if ev["from"] != "a" || ev["callerName"] != "a" || ev["callerAvatar"] != "a.png" {
		t.Fatalf("incoming-call envelope=%v, want server-resolved caller data", ev)
	}
	if ev["signal"].(map[string]any)["sdp"] != "call me" {
		t.Fatalf("incoming-call signal=%v", ev["signal"])
	}

	coord.AnswerCall("b", "a", sdp(webrtc.SDPTypeAnswer, "picked up"))
	accepted := conns["a"].ofType(EvCallAccepted)
	if len(accepted) != 1 || accepted[0]["from"] != "b" {
		t.Fatalf("call-accepted=%v, want one from b", accepted)
	}
}

func TestCall_ControlSignals(t *testing.T) {
	coord, _, conns := connectUsers(t, "a", "b")

	coord.RejectCall("b", "a")
	coord.EndCall("b", "a")
	coord.ScreenShareStarted("b", "a")
	coord.ScreenShareStopped("b", "a")
	coord.RelayCallCandidate("b", "a", webrtc.ICECandidateInit{Candidate: "candidate:9"})

	for _, typ := range []string{EvCallRejected, EvCallEnded, EvScreenShareStarted, EvScreenShareStopped, EvCallICECandidate} {
		evs := conns["a"].ofType(typ)
		if len(evs) != 1 || evs[0]["from"] != "b" {
			t.Fatalf("%s events=%v, want one from b", typ, evs)
		}
	}
	if got := len(conns["b"].frames); got != 0 {
		t.Fatalf("sender observed %d events", got)
	}
}

func TestCall_UnknownCallerDropped(t *testing.T) {
	coord, _, conns := connectUsers(t, "b")

	// The caller identity cannot be hydrated; the callee must not receive a
	// half-built event.
	coord.CallUser("stranger", "b", sdp(webrtc.SDPTypeOffer, "x"))

	if got := conns["b"].countOf(EvIncomingCall); got != 0 {
		t.Fatalf("incoming-call=%d, want 0", got)
	}
}
