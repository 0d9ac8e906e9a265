// Package domain contains entities without logic, just meta-data.
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const MaxUsernameLen = 32

var (
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameTooLong = errors.New("username too long")
	ErrEmailEmpty      = errors.New("email empty")
)

type UserID string

// User is the stable identity established by the auth layer. Status is the
// durable presence field ("online"/"offline") mirrored by the realtime layer.
type User struct {
	ID        UserID `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	Status    string `json:"status"`
	Bio       string `json:"bio"`
	CreatedAt string `json:"created_at"`
}

// PublicUser is display data resolved server-side for realtime events.
// Never trusted from the client.
type PublicUser struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

func NewUser(username, email string) (*User, error) {
	if username == "" {
		return nil, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	if email == "" {
		return nil, ErrEmailEmpty
	}
	return &User{
		ID:       UserID(uuid.NewString()),
		Username: username,
		Email:    email,
		Status:   "offline",
	}, nil
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}
