package auth

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidDisplayName = errors.New("invalid display name")
	ErrInvalidAvatar      = errors.New("invalid avatar")
	ErrAccountNotFound    = errors.New("account not found")
)

const (
	maxDisplayNameRunes = 24
	maxAvatarLength     = 256
)

// Account is the public profile of a registered player.
type Account struct {
	ID          uint64 `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar,omitempty"`
}

// Name is the label shown at the table.
func (a Account) Name() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Username
}

// Service is the auth/session contract consumed by the gateway and HTTP handlers.
type Service interface {
	Register(username, password string) (Account, string, error)
	Login(username, password string) (Account, string, error)
	ResolveSession(token string) (Account, bool)
	UpdateProfile(accountID uint64, displayName, avatar string) (Account, error)
	Logout(token string)
	Close() error
}

func normalizeProfile(displayName, avatar string) (string, string, error) {
	displayName = strings.TrimSpace(displayName)
	avatar = strings.TrimSpace(avatar)
	if displayName == "" || utf8.RuneCountInString(displayName) > maxDisplayNameRunes {
		return "", "", ErrInvalidDisplayName
	}
	if len(avatar) > maxAvatarLength {
		return "", "", ErrInvalidAvatar
	}
	return displayName, avatar, nil
}
