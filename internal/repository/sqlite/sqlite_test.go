package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/snipvault/internal/model"
)

// newTestDB opens an in-memory database that lives for one test. Fast, fully
// isolated, destroyed on close.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, PasswordHash: "$2a$04$fakehashforrepotests"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %q: %v", username, err)
	}
	return user
}

func createTestSnippet(t *testing.T, db *DB, ownerID, title, slug string) *model.Snippet {
	t.Helper()
	snippet := &model.Snippet{
		Title:    title,
		Code:     "print('hello')",
		Language: "python",
		Slug:     slug,
		OwnerID:  ownerID,
	}
	if err := db.Create(context.Background(), snippet); err != nil {
		t.Fatalf("failed to create test snippet %q: %v", title, err)
	}
	return snippet
}

func createTestGroup(t *testing.T, db *DB, ownerID, title string) *model.Group {
	t.Helper()
	group := &model.Group{Title: title, OwnerID: ownerID}
	if err := db.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("failed to create test group %q: %v", title, err)
	}
	return group
}
