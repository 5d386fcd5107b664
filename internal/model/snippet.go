package model

import "time"

// Tag is a display label attached to a snippet.
// Tags are stored as a JSON array inside the snippets table — they have no
// identity of their own and are never queried individually.
type Tag struct {
	Title string `json:"title"`
	Color string `json:"color"`
}

// DefaultTags are applied to snippets created without explicit tags.
func DefaultTags() []Tag {
	return []Tag{
		{Title: "React", Color: "red"},
		{Title: "HTML", Color: "pink"},
	}
}

// Snippet represents a saved code snippet.
//
// Each snippet is owned by exactly one user (OwnerID). The slug is derived
// from the title at creation time and is globally unique — a short random
// suffix disambiguates snippets whose titles normalize to the same text.
type Snippet struct {
	ID          string    `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"`
	Code        string    `json:"code"        db:"code"`
	Language    string    `json:"language"    db:"language"`
	Tags        []Tag     `json:"tags"        db:"tags"`
	Slug        string    `json:"slug"        db:"slug"`
	OwnerID     string    `json:"userId"      db:"user_id"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}
