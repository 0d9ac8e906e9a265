// Package store is the durable storage collaborator: users, friendships,
// channels, groups, and message history. The realtime coordinator only ever
// issues simple query/insert calls through the Store interface and treats
// failures as scoped to the single operation involved.
package store

import (
	"errors"

	"github.com/owndc/owndc/internal/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username taken")
	ErrEmailTaken    = errors.New("email taken")
	ErrBadLogin      = errors.New("invalid credentials")
	ErrNotMember     = errors.New("not a member")
)

type Store interface {
	// Users
	CreateUser(username, email, password string) (*domain.User, error)
	Authenticate(username, password string) (*domain.User, error)
	UserByID(id domain.UserID) (*domain.User, error)
	SearchUsers(query string, limit int) ([]domain.PublicUser, error)
	SetStatus(id domain.UserID, status string) error

	// Friends
	Friends(id domain.UserID) ([]domain.PublicUser, error)
	PendingFriends(id domain.UserID) ([]domain.PublicUser, error)
	RequestFriend(from, to domain.UserID) error
	AcceptFriend(from, to domain.UserID) error
	DeclineFriend(from, to domain.UserID) error

	// Servers
	CreateServer(name, icon string, owner domain.UserID) (*domain.Server, error)
	ServersOf(id domain.UserID) ([]domain.Server, error)
	JoinServer(server domain.ServerID, user domain.UserID) error
	ServerChannels(server domain.ServerID, user domain.UserID) ([]domain.Channel, error)

	// Channels
	CreateChannel(name string, owner domain.UserID) (*domain.Channel, error)
	Channels() ([]domain.Channel, error)
	SaveChannelMessage(channel domain.ChannelID, sender domain.UserID, content string) (*domain.Message, error)
	ChannelMessages(channel domain.ChannelID, limit int) ([]domain.Message, error)

	// Direct messages
	SaveDirectMessage(sender, receiver domain.UserID, content string) (*domain.Message, error)
	DirectMessages(a, b domain.UserID, limit int) ([]domain.Message, error)

	// Groups
	CreateGroup(name string, owner domain.UserID, members []domain.UserID) (*domain.Group, error)
	GroupsOf(id domain.UserID) ([]domain.Group, error)
	SaveGroupMessage(group domain.GroupID, sender domain.UserID, content string) (*domain.Message, error)
	GroupMessages(group domain.GroupID, limit int) ([]domain.Message, error)

	Close() error
}
