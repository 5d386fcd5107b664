// Package repository defines the storage interfaces the service layer
// depends on. The sqlite subpackage provides the concrete implementation;
// tests substitute in-memory mocks.
//
// Every operation on an owned resource takes the owner's user ID and scopes
// the lookup by it. That WHERE clause is the authorization predicate: a
// resource that exists but belongs to someone else is indistinguishable from
// one that doesn't exist.
package repository

import (
	"context"

	"github.com/sakif/snipvault/internal/model"
)

// ListOptions controls pagination for listing queries.
// A Limit <= 0 means "no limit" — the caller gets everything.
type ListOptions struct {
	Limit  int
	Offset int
}

// Method names are entity-qualified where the sqlite implementation would
// otherwise collide — one *sqlite.DB implements all three interfaces.
type UserRepository interface {
	// CreateUser inserts a new user. Returns apperror.ErrConflict if the
	// username is already taken.
	CreateUser(ctx context.Context, user *model.User) error
	// GetUserByUsername returns apperror.ErrNotFound if no such user exists.
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

type SnippetRepository interface {
	// Create inserts a new snippet. Returns apperror.ErrConflict if the
	// owner already has a snippet with the same title.
	Create(ctx context.Context, snippet *model.Snippet) error
	// GetByOwnerSlug looks up a snippet scoped by owner and slug. Serves
	// both the public read path and the mutation paths; callers decide how
	// to phrase a miss.
	GetByOwnerSlug(ctx context.Context, ownerID, slug string) (*model.Snippet, error)
	// SlugExists reports whether any snippet, under any owner, claims the
	// slug. Slug assignment checks this before falling back to a
	// disambiguating suffix.
	SlugExists(ctx context.Context, slug string) (bool, error)
	// Update persists changes, scoped by id and owner.
	Update(ctx context.Context, snippet *model.Snippet) error
	// Delete removes the owner's snippet by slug.
	Delete(ctx context.Context, ownerID, slug string) error
	// List returns snippets newest-first across all owners.
	List(ctx context.Context, opts ListOptions) ([]model.Snippet, error)
	// ListByOwner returns the owner's snippets newest-first.
	ListByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]model.Snippet, error)
}

type GroupRepository interface {
	CreateGroup(ctx context.Context, group *model.Group) error
	// GetGroupByOwner loads a group with its membership list populated.
	GetGroupByOwner(ctx context.Context, ownerID, groupID string) (*model.Group, error)
	UpdateGroup(ctx context.Context, group *model.Group) error
	DeleteGroup(ctx context.Context, ownerID, groupID string) error
	// ListGroupsByOwner returns the owner's groups newest-first,
	// membership lists populated.
	ListGroupsByOwner(ctx context.Context, ownerID string) ([]model.Group, error)
	// AddSnippet records membership atomically: the insert either takes
	// effect or reports apperror.ErrConflict when the pair already exists.
	// Never a load-mutate-save sequence.
	AddSnippet(ctx context.Context, ownerID, groupID, snippetID string) error
	// RemoveSnippet deletes the membership row; apperror.ErrNotFound when
	// the snippet wasn't a member.
	RemoveSnippet(ctx context.Context, ownerID, groupID, snippetID string) error
	// ListMembers resolves a group's membership list to full snippet
	// records, newest-added-first. References whose target no longer
	// exists resolve to nothing rather than failing the read.
	ListMembers(ctx context.Context, groupID string) ([]model.Snippet, error)
}
