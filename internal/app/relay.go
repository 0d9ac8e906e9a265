package app

import (
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/owndc/owndc/internal/domain"
)

// Signaling relay: forward opaque payloads between exactly two identities.
// The relay stamps the sender identity server-side and never inspects the
// payload beyond the routing envelope. Every operation is single-shot and
// fire-and-forget; an offline target drops the payload silently, so callers
// own their call-timeout UX. The server keeps no call state: 1:1 call
// uniqueness is not enforced centrally, matching the reference behavior.

// RelayOffer forwards a mesh offer. The room id travels with it so the
// receiver can validate context.
func (c *Coordinator) RelayOffer(from, to domain.UserID, room domain.RoomID, sdp webrtc.SessionDescription) {
	c.sendTo(to, meshSignalEvent{Type: EvOffer, From: from, RoomID: room, Signal: &sdp})
}

func (c *Coordinator) RelayAnswer(from, to domain.UserID, sdp webrtc.SessionDescription) {
	c.sendTo(to, meshSignalEvent{Type: EvAnswer, From: from, Signal: &sdp})
}

func (c *Coordinator) RelayCandidate(from, to domain.UserID, cand webrtc.ICECandidateInit) {
	c.sendTo(to, meshSignalEvent{Type: EvCandidate, From: from, Candidate: &cand})
}

// CallUser starts a 1:1 call: the callee receives the caller's identity and
// display data resolved server-side, plus the initial session description.
func (c *Coordinator) CallUser(from, to domain.UserID, sdp webrtc.SessionDescription) {
	caller, err := c.store.UserByID(from)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Str("user", string(from)).Msg("call: unknown caller")
		return
	}
	c.sendTo(to, incomingCallEvent{
		Type:         EvIncomingCall,
		From:         from,
		CallerName:   caller.Username,
		CallerAvatar: caller.Avatar,
		Signal:       &sdp,
	})
}

func (c *Coordinator) AnswerCall(from, to domain.UserID, sdp webrtc.SessionDescription) {
	c.sendTo(to, callControlEvent{Type: EvCallAccepted, From: from, Signal: &sdp})
}

func (c *Coordinator) RejectCall(from, to domain.UserID) {
	c.sendTo(to, callControlEvent{Type: EvCallRejected, From: from})
}

func (c *Coordinator) EndCall(from, to domain.UserID) {
	c.sendTo(to, callControlEvent{Type: EvCallEnded, From: from})
}

func (c *Coordinator) RelayCallCandidate(from, to domain.UserID, cand webrtc.ICECandidateInit) {
	c.sendTo(to, callControlEvent{Type: EvCallICECandidate, From: from, Candidate: &cand})
}

// Screen share signals are presentational hints only.
func (c *Coordinator) ScreenShareStarted(from, to domain.UserID) {
	c.sendTo(to, callControlEvent{Type: EvScreenShareStarted, From: from})
}

func (c *Coordinator) ScreenShareStopped(from, to domain.UserID) {
	c.sendTo(to, callControlEvent{Type: EvScreenShareStopped, From: from})
}

// NotifyFriendRequest pokes the target to refetch its pending requests.
func (c *Coordinator) NotifyFriendRequest(from, to domain.UserID) {
	c.sendTo(to, presenceEvent{Type: EvFriendRequestReceived, UserID: from})
}

func (c *Coordinator) NotifyFriendAccepted(from, to domain.UserID) {
	c.sendTo(to, presenceEvent{Type: EvFriendAcceptedSync, UserID: from})
}
