package app

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/owndc/owndc/internal/core"
	"github.com/owndc/owndc/internal/domain"
)

// Server -> client event names. Clients switch on the "type" field of every
// frame.
const (
	EvUserOnline  = "user-online"
	EvUserOffline = "user-offline"

	EvNewMessage      = "new-message"
	EvNewDM           = "new-dm"
	EvNewGroupMessage = "new-group-message"
	EvMessageFailed   = "message-failed"
	EvUserTyping      = "user-typing"

	EvVoiceRoomUsers  = "voice-room-users"
	EvVoiceUserJoined = "voice-user-joined"
	EvVoiceUserLeft   = "voice-user-left"
	EvVoiceRoomUpdate = "voice-room-update"
	EvVoiceStatesSync = "voice-states-sync"

	EvOffer     = "offer"
	EvAnswer    = "answer"
	EvCandidate = "candidate"

	EvIncomingCall       = "incoming-call"
	EvCallAccepted       = "call-accepted"
	EvCallRejected       = "call-rejected"
	EvCallEnded          = "call-ended"
	EvCallICECandidate   = "call-ice-candidate"
	EvScreenShareStarted = "screen-share-started"
	EvScreenShareStopped = "screen-share-stopped"

	EvFriendRequestReceived = "friend-request-received"
	EvFriendAcceptedSync    = "friend-accepted-sync"
)

type presenceEvent struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
}

type messageEvent struct {
	Type    string          `json:"type"`
	Message *domain.Message `json:"message"`
}

// typingEvent is ephemeral; the username is resolved server-side like every
// other display field.
type typingEvent struct {
	Type      string           `json:"type"`
	Username  string           `json:"username"`
	ChannelID domain.ChannelID `json:"channelId"`
}

type voiceRoomUsersEvent struct {
	Type   string              `json:"type"`
	RoomID domain.RoomID       `json:"roomId"`
	Users  []domain.PublicUser `json:"users"`
}

type voiceUserJoinedEvent struct {
	Type     string        `json:"type"`
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
	RoomID   domain.RoomID `json:"roomId"`
}

type voiceUserLeftEvent struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
	RoomID domain.RoomID `json:"roomId"`
}

type voiceStatesSyncEvent struct {
	Type   string                                `json:"type"`
	States map[domain.RoomID][]domain.PublicUser `json:"states"`
}

// meshSignalEvent carries mesh voice signaling. From is stamped by the relay,
// never trusted from the client. RoomID is set on offers only, so the
// receiver can validate context.
type meshSignalEvent struct {
	Type      string                     `json:"type"`
	From      domain.UserID              `json:"from"`
	RoomID    domain.RoomID              `json:"roomId,omitempty"`
	Signal    *webrtc.SessionDescription `json:"signal,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
}

type incomingCallEvent struct {
	Type         string                     `json:"type"`
	From         domain.UserID              `json:"from"`
	CallerName   string                     `json:"callerName"`
	CallerAvatar string                     `json:"callerAvatar"`
	Signal       *webrtc.SessionDescription `json:"signal"`
}

type callControlEvent struct {
	Type      string                     `json:"type"`
	From      domain.UserID              `json:"from"`
	Signal    *webrtc.SessionDescription `json:"signal,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
}

func encode(v any) (core.Frame, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app").Msg("encode event")
		return nil, false
	}
	return core.Frame(b), true
}
