package gateway

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/owndc/owndc/internal/app"
	"github.com/owndc/owndc/internal/domain"
)

// Client -> server envelope. Payload fields are flattened next to the type
// tag, mirroring what the browser client emits.
type clientFrame struct {
	Type string `json:"type"`

	ChannelID  domain.ChannelID `json:"channelId,omitempty"`
	GroupID    domain.GroupID   `json:"groupId,omitempty"`
	ReceiverID domain.UserID    `json:"receiverId,omitempty"`
	RoomID     domain.RoomID    `json:"roomId,omitempty"`
	Content    string           `json:"content,omitempty"`

	To        domain.UserID              `json:"to,omitempty"`
	Signal    *webrtc.SessionDescription `json:"signal,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
	WithVideo bool                       `json:"withVideo,omitempty"`
}

func (ctl *Controller) handleFrame(uid domain.UserID, c *wsConn, data []byte) {
	var f clientFrame
	if err := json.Unmarshal(data, &f); err != nil {
		log.Warn().Err(err).Str("module", "gateway").Str("user", string(uid)).Msg("bad frame")
		return
	}

	switch f.Type {
	case "join-channel":
		ctl.Coord.JoinChannel(uid, f.ChannelID)
	case "leave-channel":
		ctl.Coord.LeaveChannel(uid, f.ChannelID)
	case "send-message":
		ctl.sendChat(uid, c, func() error {
			return ctl.Coord.SendChannelMessage(uid, f.ChannelID, f.Content)
		})
	case "send-dm":
		ctl.sendChat(uid, c, func() error {
			return ctl.Coord.SendDirectMessage(uid, f.ReceiverID, f.Content)
		})
	case "typing":
		ctl.Coord.Typing(uid, f.ChannelID)
	case "join-group":
		ctl.Coord.JoinGroup(uid, f.GroupID)
	case "send-group-message":
		ctl.sendChat(uid, c, func() error {
			return ctl.Coord.SendGroupMessage(uid, f.GroupID, f.Content)
		})

	case "join-voice":
		ctl.Coord.JoinVoice(uid, f.RoomID)
	case "leave-voice":
		ctl.Coord.LeaveVoice(uid, f.RoomID)
	case "get-voice-states":
		ctl.Coord.SyncVoiceStates(uid)

	case "offer":
		if f.Signal != nil {
			ctl.Coord.RelayOffer(uid, f.To, f.RoomID, *f.Signal)
		}
	case "answer":
		if f.Signal != nil {
			ctl.Coord.RelayAnswer(uid, f.To, *f.Signal)
		}
	case "candidate":
		if f.Candidate != nil {
			ctl.Coord.RelayCandidate(uid, f.To, *f.Candidate)
		}

	case "call-user":
		if f.Signal != nil {
			ctl.Coord.CallUser(uid, f.To, *f.Signal)
		}
	case "answer-call":
		if f.Signal != nil {
			ctl.Coord.AnswerCall(uid, f.To, *f.Signal)
		}
	case "reject-call":
		ctl.Coord.RejectCall(uid, f.To)
	case "end-call":
		ctl.Coord.EndCall(uid, f.To)
	case "call-ice-candidate":
		if f.Candidate != nil {
			ctl.Coord.RelayCallCandidate(uid, f.To, *f.Candidate)
		}
	case "screen-share-started":
		ctl.Coord.ScreenShareStarted(uid, f.To)
	case "screen-share-stopped":
		ctl.Coord.ScreenShareStopped(uid, f.To)

	case "friend-request-sent":
		ctl.Coord.NotifyFriendRequest(uid, f.To)
	case "friend-accepted":
		ctl.Coord.NotifyFriendAccepted(uid, f.To)

	default:
		log.Warn().Str("module", "gateway").Str("type", f.Type).Msg("unknown frame type")
	}
}

// sendChat applies the per-user rate limit and reports a persistence failure
// back to the originating connection only.
func (ctl *Controller) sendChat(uid domain.UserID, c *wsConn, send func() error) {
	if !ctl.limiter.Allow(uid) {
		log.Warn().Str("module", "gateway").Str("user", string(uid)).Msg("chat rate limited")
		return
	}
	if err := send(); err != nil {
		b, merr := json.Marshal(map[string]string{"type": app.EvMessageFailed, "error": "message not delivered"})
		if merr != nil {
			return
		}
		_ = c.TrySend(b)
	}
}
