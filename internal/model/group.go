package model

import "time"

// Group is a user-owned collection of snippet references.
//
// SnippetIDs is the membership list: ordered newest-added-first and
// duplicate-free. Membership is a reference, not ownership — removing an ID
// from a group leaves the snippet itself untouched, and deleting a snippet
// removes it from every group it belongs to.
type Group struct {
	ID          string    `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"`
	OwnerID     string    `json:"userId"      db:"user_id"`
	SnippetIDs  []string  `json:"snippets"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// GroupWithSnippets bundles a group with its membership list resolved to
// full snippet records, in membership order.
type GroupWithSnippets struct {
	Group    *Group    `json:"group"`
	Snippets []Snippet `json:"snippets"`
}
