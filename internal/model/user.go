// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Usernames are unique — they double as the public handle in URLs like
// /api/snippets/{username}/{slug}. The bcrypt hash is never serialized;
// the `json:"-"` tag keeps it out of every API response.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
