package domain

import "errors"

const MaxNameLen = 64

var (
	ErrNameEmpty   = errors.New("name empty")
	ErrNameTooLong = errors.New("name too long")
)

type (
	ServerID  string
	ChannelID string
	GroupID   string
	// RoomID identifies a voice room. Voice rooms are channel-scoped in the
	// UI but the coordinator treats the token as opaque.
	RoomID string
)

// Server is a community: a named container of members and channels.
type Server struct {
	ID        ServerID `json:"id"`
	Name      string   `json:"name"`
	OwnerID   UserID   `json:"owner_id"`
	Icon      string   `json:"icon"`
	CreatedAt string   `json:"created_at"`
}

// Channel belongs to a server or stands alone; ServerID is empty for the
// latter.
type Channel struct {
	ID        ChannelID `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	OwnerID   UserID    `json:"owner_id"`
	ServerID  ServerID  `json:"server_id"`
	CreatedAt string    `json:"created_at"`
}

type Group struct {
	ID        GroupID `json:"id"`
	Name      string  `json:"name"`
	OwnerID   UserID  `json:"owner_id"`
	Avatar    string  `json:"avatar"`
	CreatedAt string  `json:"created_at"`
}

// Message is a fully-hydrated chat message: the persisted row joined with the
// sender's display data, as broadcast to subscribers. ConversationID is the
// channel, group, or DM-receiver id depending on which table it came from.
type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       UserID `json:"sender_id"`
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp"`
	Username       string `json:"username"`
	Avatar         string `json:"avatar"`
}
