// Package models defines server-side data models persisted by the stores.
package models

import "time"

// User is an account able to authenticate. PasswordHash is the encoded
// argon2id hash and must never leave the server.
type User struct {
	ID           string
	Login        string
	PasswordHash string
	Name         string
	Email        string
	CreatedAt    time.Time
}

// Profile is the public view of a User.
type Profile struct {
	ID    string `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProfileFromUser strips credential material from u.
func ProfileFromUser(u *User) *Profile {
	return &Profile{
		ID:    u.ID,
		Login: u.Login,
		Name:  u.Name,
		Email: u.Email,
	}
}
