package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snipvault/internal/apperror"
	"github.com/sakif/snipvault/internal/model"
	"github.com/sakif/snipvault/internal/repository"
)

// Compile-time check that *DB implements repository.SnippetRepository.
var _ repository.SnippetRepository = (*DB)(nil)

const snippetColumns = `id, title, description, code, language, tags, slug, user_id, created_at, updated_at`

// Create inserts a new snippet. The caller must have set Title, Code,
// Language, Slug, and OwnerID; ID and timestamps are filled in here.
//
// The UNIQUE index on (user_id, title) makes the duplicate-title check
// atomic with the insert itself.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	now := time.Now()
	snippet.ID = xid.New().String()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	if snippet.Tags == nil {
		snippet.Tags = model.DefaultTags()
	}
	tags, err := json.Marshal(snippet.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding snippet tags: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO snippets (id, title, description, code, language, tags, slug, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Title,
		snippet.Description,
		snippet.Code,
		snippet.Language,
		string(tags),
		snippet.Slug,
		snippet.OwnerID,
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		// Two UNIQUE constraints can fire here and they mean different
		// things: (user_id, title) is a duplicate title under the same
		// owner, slug is a global slug collision the caller can escape by
		// regenerating.
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "snippets.slug") {
				return &apperror.AppError{
					Err:     apperror.ErrConflict,
					Message: "snippet slug already taken",
					Field:   "slug",
				}
			}
			return apperror.Conflict("snippet already exists")
		}
		return fmt.Errorf("sqlite: creating snippet %q: %w", snippet.Title, err)
	}

	return nil
}

// SlugExists reports whether the slug is claimed by any snippet.
func (db *DB) SlugExists(ctx context.Context, slug string) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM snippets WHERE slug = ?`, slug,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: checking slug %q: %w", slug, err)
	}
	return true, nil
}

// GetByOwnerSlug fetches a snippet where both slug and owner match. A miss
// never reveals whether the slug exists under another owner.
func (db *DB) GetByOwnerSlug(ctx context.Context, ownerID, slug string) (*model.Snippet, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE slug = ? AND user_id = ?`,
		slug, ownerID,
	)

	snippet, err := scanSnippet(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet")
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s/%s: %w", ownerID, slug, err)
	}

	return snippet, nil
}

// GetByID fetches any snippet by ID, regardless of owner. The membership
// path keeps its existence check inline (group.go); this is a plain lookup.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`,
		id,
	)

	snippet, err := scanSnippet(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet")
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	return snippet, nil
}

// Update persists title, description, code, language, and tags. The WHERE
// clause carries both id and owner; zero rows affected means the snippet is
// gone or belongs to someone else.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now()

	tags, err := json.Marshal(snippet.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding snippet tags: %w", err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, description = ?, code = ?, language = ?, tags = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		snippet.Title,
		snippet.Description,
		snippet.Code,
		snippet.Language,
		string(tags),
		snippet.UpdatedAt,
		snippet.ID,
		snippet.OwnerID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("snippet already exists")
		}
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFoundOrForbidden("snippet")
	}

	return nil
}

// Delete removes the owner's snippet by slug. Membership rows in
// group_snippets cascade away in the same statement.
func (db *DB) Delete(ctx context.Context, ownerID, slug string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE slug = ? AND user_id = ?`,
		slug, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", slug, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFoundOrForbidden("snippet")
	}

	return nil
}

// List returns snippets newest-first across all owners. opts.Limit <= 0
// returns everything — the public listing contract has no enforced cap.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	return db.listSnippets(ctx,
		`SELECT `+snippetColumns+` FROM snippets ORDER BY created_at DESC, id DESC`,
		nil, opts,
	)
}

// ListByOwner returns the owner's snippets newest-first.
func (db *DB) ListByOwner(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Snippet, error) {
	return db.listSnippets(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		[]any{ownerID}, opts,
	)
}

func (db *DB) listSnippets(ctx context.Context, query string, args []any, opts repository.ListOptions) ([]model.Snippet, error) {
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		offset := opts.Offset
		if offset < 0 {
			offset = 0
		}
		args = append(args, opts.Limit, offset)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := []model.Snippet{}
	for rows.Next() {
		s, err := scanSnippet(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// scanSnippet reads one snippet row. Taking the Scan function (rather than
// *sql.Row or *sql.Rows) lets the same code serve both single-row and
// iterator queries.
func scanSnippet(scan func(...any) error) (*model.Snippet, error) {
	var s model.Snippet
	var tags string

	err := scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&s.Code,
		&s.Language,
		&tags,
		&s.Slug,
		&s.OwnerID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &s.Tags); err != nil {
		return nil, fmt.Errorf("decoding snippet tags: %w", err)
	}

	return &s, nil
}
