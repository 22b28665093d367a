package rocketbot

// User identifies a chat user by canonical username. Nick and full name
// default to the username when not provided. Equality is by username.
type User struct {
	username string
	nick     string
	fullname string
}

// NewUser creates a User from a canonical username.
func NewUser(username string) *User {
	return &User{username: username}
}

// NewUserFull creates a User with an optional nickname and full name.
// Empty values fall back to the username.
func NewUserFull(username, nick, fullname string) *User {
	return &User{username: username, nick: nick, fullname: fullname}
}

// Username returns the canonical username.
func (u *User) Username() string {
	return u.username
}

// Nick returns the display nickname, falling back to the username.
func (u *User) Nick() string {
	if u.nick != "" {
		return u.nick
	}
	return u.username
}

// Fullname returns the full name, falling back to the username.
func (u *User) Fullname() string {
	if u.fullname != "" {
		return u.fullname
	}
	return u.username
}

// String returns the canonical username.
func (u *User) String() string {
	return u.username
}

// Equal reports whether two users share the same canonical username.
func (u *User) Equal(other *User) bool {
	if other == nil {
		return false
	}
	return u.username == other.username
}
