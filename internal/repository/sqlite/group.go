package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snipvault/internal/apperror"
	"github.com/sakif/snipvault/internal/model"
	"github.com/sakif/snipvault/internal/repository"
)

// Compile-time check that *DB implements repository.GroupRepository.
var _ repository.GroupRepository = (*DB)(nil)

// CreateGroup inserts a new group. No uniqueness constraint on titles — a
// user may have any number of identically named groups.
func (db *DB) CreateGroup(ctx context.Context, group *model.Group) error {
	now := time.Now()
	group.ID = xid.New().String()
	group.CreatedAt = now
	group.UpdatedAt = now
	if group.SnippetIDs == nil {
		group.SnippetIDs = []string{}
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO groups (id, title, description, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		group.ID,
		group.Title,
		group.Description,
		group.OwnerID,
		group.CreatedAt,
		group.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating group %q: %w", group.Title, err)
	}

	return nil
}

// GetGroupByOwner fetches a group scoped by owner, with its membership list
// populated newest-added-first.
func (db *DB) GetGroupByOwner(ctx context.Context, ownerID, groupID string) (*model.Group, error) {
	var g model.Group

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, description, user_id, created_at, updated_at
		 FROM groups WHERE id = ? AND user_id = ?`,
		groupID, ownerID,
	).Scan(
		&g.ID,
		&g.Title,
		&g.Description,
		&g.OwnerID,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFoundOrForbidden("group")
		}
		return nil, fmt.Errorf("sqlite: getting group %s: %w", groupID, err)
	}

	if g.SnippetIDs, err = db.memberIDs(ctx, g.ID); err != nil {
		return nil, err
	}

	return &g, nil
}

// UpdateGroup persists title and description, scoped by id and owner.
func (db *DB) UpdateGroup(ctx context.Context, group *model.Group) error {
	group.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE groups SET title = ?, description = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		group.Title,
		group.Description,
		group.UpdatedAt,
		group.ID,
		group.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating group %s: %w", group.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFoundOrForbidden("group")
	}

	return nil
}

// DeleteGroup removes the owner's group. Membership rows cascade away; the
// member snippets themselves are untouched.
func (db *DB) DeleteGroup(ctx context.Context, ownerID, groupID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM groups WHERE id = ? AND user_id = ?`,
		groupID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting group %s: %w", groupID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFoundOrForbidden("group")
	}

	return nil
}

// ListGroupsByOwner returns the owner's groups newest-first with membership
// lists populated.
func (db *DB) ListGroupsByOwner(ctx context.Context, ownerID string) ([]model.Group, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, description, user_id, created_at, updated_at
		 FROM groups WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing groups: %w", err)
	}
	defer rows.Close()

	groups := []model.Group{}
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(
			&g.ID, &g.Title, &g.Description, &g.OwnerID,
			&g.CreatedAt, &g.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning group row: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating groups: %w", err)
	}

	for i := range groups {
		if groups[i].SnippetIDs, err = db.memberIDs(ctx, groups[i].ID); err != nil {
			return nil, err
		}
	}

	return groups, nil
}

// AddSnippet records group membership.
//
// Ownership and existence are checked first, then the membership row is
// written with a single INSERT OR IGNORE. The composite primary key on
// (group_id, snippet_id) decides the outcome atomically: zero rows affected
// means the pair already existed. Two concurrent adds of the same pair can
// both pass the preliminary checks, but only one insert takes effect — the
// uniqueness invariant is enforced by the database, not by a read followed
// by a write.
func (db *DB) AddSnippet(ctx context.Context, ownerID, groupID, snippetID string) error {
	if err := db.groupOwned(ctx, ownerID, groupID); err != nil {
		return err
	}
	if err := db.snippetExists(ctx, snippetID); err != nil {
		return err
	}

	result, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO group_snippets (group_id, snippet_id, added_at)
		 VALUES (?, ?, ?)`,
		groupID, snippetID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding snippet %s to group %s: %w", snippetID, groupID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.Conflict("snippet is already in group")
	}

	return nil
}

// RemoveSnippet deletes a membership row. Mirrors AddSnippet: a single
// DELETE whose affected-row count reports whether the snippet was a member.
func (db *DB) RemoveSnippet(ctx context.Context, ownerID, groupID, snippetID string) error {
	if err := db.groupOwned(ctx, ownerID, groupID); err != nil {
		return err
	}
	if err := db.snippetExists(ctx, snippetID); err != nil {
		return err
	}

	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM group_snippets WHERE group_id = ? AND snippet_id = ?`,
		groupID, snippetID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing snippet %s from group %s: %w", snippetID, groupID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: "snippet is not in group",
		}
	}

	return nil
}

// ListMembers resolves a group's membership list to full snippet records,
// newest-added-first. The JOIN only yields snippets that still exist, so a
// stale reference (impossible under the cascade, but cheap to tolerate)
// simply doesn't appear.
func (db *DB) ListMembers(ctx context.Context, groupID string) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT s.id, s.title, s.description, s.code, s.language, s.tags, s.slug, s.user_id, s.created_at, s.updated_at
		 FROM group_snippets gs
		 JOIN snippets s ON s.id = gs.snippet_id
		 WHERE gs.group_id = ?
		 ORDER BY gs.added_at DESC, gs.rowid DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing group members: %w", err)
	}
	defer rows.Close()

	snippets := []model.Snippet{}
	for rows.Next() {
		s, err := scanSnippet(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning member row: %w", err)
		}
		snippets = append(snippets, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating group members: %w", err)
	}

	return snippets, nil
}

// memberIDs returns a group's membership list, newest-added-first.
func (db *DB) memberIDs(ctx context.Context, groupID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT snippet_id FROM group_snippets
		 WHERE group_id = ?
		 ORDER BY added_at DESC, rowid DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing membership of group %s: %w", groupID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning membership row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating membership rows: %w", err)
	}

	return ids, nil
}

// groupOwned verifies the group exists and belongs to ownerID.
func (db *DB) groupOwned(ctx context.Context, ownerID, groupID string) error {
	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM groups WHERE id = ? AND user_id = ?`,
		groupID, ownerID,
	).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperror.NotFoundOrForbidden("group")
		}
		return fmt.Errorf("sqlite: checking group %s: %w", groupID, err)
	}
	return nil
}

// snippetExists verifies the snippet exists, regardless of owner — groups
// may reference any public snippet.
func (db *DB) snippetExists(ctx context.Context, snippetID string) error {
	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM snippets WHERE id = ?`,
		snippetID,
	).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperror.NotFound("snippet")
		}
		return fmt.Errorf("sqlite: checking snippet %s: %w", snippetID, err)
	}
	return nil
}
