package domain

import (
	"io"
	"strings"
)

// User is the profile of the authenticated operator as reported by the server.
type User struct {
	ID          int64
	Username    string
	Email       string
	FirstName   string
	LastName    string
	IsSuperuser bool
}

// DisplayName returns "First Last" when available, otherwise the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full != "" {
		return full
	}
	return u.Username
}

// Avatar is an optional profile picture uploaded during registration.
type Avatar struct {
	Filename string
	Content  io.Reader
}

// Registration is the payload sent to the remote register operation.
type Registration struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
	Phone           string
	Avatar          *Avatar
}

// ProfileUpdate carries a partial profile update; nil fields are not sent.
type ProfileUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
}

// IsEmpty reports whether the update carries no fields.
func (p ProfileUpdate) IsEmpty() bool {
	return p.Email == nil && p.FirstName == nil && p.LastName == nil
}

// AuthResult is returned by the remote login and register operations.
type AuthResult struct {
	User        *User
	Credentials Credentials
}
