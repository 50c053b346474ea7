// Package models contains the row structs persisted by the server
// repositories.
package models

import "time"

// User is a row in the users table. UUID is the stable public identifier
// used as the token subject; the surrogate ID never leaves the database
// layer. PasswordHash is an argon2id PHC string and must be cleared before
// a User crosses a service boundary.
type User struct {
	ID           int64
	UUID         string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
