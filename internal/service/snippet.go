package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snipvault/internal/apperror"
	"github.com/sakif/snipvault/internal/model"
	"github.com/sakif/snipvault/internal/repository"
	"github.com/sakif/snipvault/internal/slug"
)

const (
	MaxTitleLength = 100
	MaxCodeLength  = 100000 // ~100KB of code

	// maxSlugAttempts bounds the suffix draws when a slug stem is taken.
	maxSlugAttempts = 5
)

// SnippetService handles business logic for code snippets.
type SnippetService struct {
	snippets repository.SnippetRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

func NewSnippetService(
	snippets repository.SnippetRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		snippets: snippets,
		users:    users,
		logger:   logger,
	}
}

// UpdateSnippetFields carries the fields of an update request. Nil pointers
// mean "not provided, leave unchanged" — an explicitly empty description is
// distinct from an absent one.
type UpdateSnippetFields struct {
	Title       *string
	Description *string
	Code        *string
	Language    *string
}

// Create validates and saves a new snippet owned by ownerID. The slug is
// derived from the title here, once, at creation; it never changes
// afterwards, even if the title does.
func (s *SnippetService) Create(ctx context.Context, ownerID, title, description, code, language string) (*model.Snippet, error) {
	title = strings.TrimSpace(title)
	language = strings.TrimSpace(language)

	if title == "" {
		return nil, apperror.ValidationFailed("title", "snippet title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("snippet title must be %d characters or less", MaxTitleLength))
	}
	if code == "" {
		return nil, apperror.ValidationFailed("code", "snippet code is required")
	}
	if len(code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}
	if language == "" {
		return nil, apperror.ValidationFailed("language", "snippet language is required")
	}

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		slugStr, err := s.assignSlug(ctx, title)
		if err != nil {
			return nil, err
		}

		snippet := &model.Snippet{
			Title:       title,
			Description: strings.TrimSpace(description),
			Code:        code,
			Language:    language,
			Slug:        slugStr,
			OwnerID:     ownerID,
		}

		err = s.snippets.Create(ctx, snippet)
		if err == nil {
			s.logger.Info("snippet created",
				slog.String("id", snippet.ID),
				slog.String("slug", snippet.Slug),
				slog.String("ownerID", ownerID),
			)
			return snippet, nil
		}
		// A concurrent create can claim the slug between the existence
		// check and the insert; draw a fresh suffix and try again.
		if slugConflict(err) {
			continue
		}
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create snippet",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/snippet: creating snippet: %w", err)
	}

	return nil, fmt.Errorf("service/snippet: no free slug for title %q", title)
}

// assignSlug picks the snippet's slug: the normalized title stem when no
// snippet claims it yet, otherwise the stem with a random suffix, redrawn
// until a free slug turns up. The stem-first rule keeps slugs readable and
// fetchable by their literal title; the suffix only appears on collision.
func (s *SnippetService) assignSlug(ctx context.Context, title string) (string, error) {
	stem := slug.Normalize(title)

	candidate := stem
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		if candidate == "" {
			c, err := slug.WithSuffix(stem)
			if err != nil {
				return "", fmt.Errorf("service/snippet: deriving slug: %w", err)
			}
			candidate = c
		}

		taken, err := s.snippets.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("service/snippet: checking slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = ""
	}

	return "", fmt.Errorf("service/snippet: no free slug for title %q", title)
}

// slugConflict reports whether a create failed on the global slug
// constraint rather than the owner's duplicate-title constraint.
func slugConflict(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr) && errors.Is(err, apperror.ErrConflict) && appErr.Field == "slug"
}

// Update applies the provided fields to the caller's snippet. The lookup is
// scoped by owner: a slug that exists under another owner reports the same
// not-found-or-forbidden error as one that doesn't exist at all.
func (s *SnippetService) Update(ctx context.Context, ownerID, slugStr string, fields UpdateSnippetFields) (*model.Snippet, error) {
	slugStr = strings.TrimSpace(slugStr)
	if slugStr == "" {
		return nil, apperror.ValidationFailed("slug", "snippet slug is required")
	}

	snippet, err := s.snippets.GetByOwnerSlug(ctx, ownerID, slugStr)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundOrForbidden("snippet")
		}
		return nil, fmt.Errorf("service/snippet: loading snippet: %w", err)
	}

	if fields.Title != nil {
		title := strings.TrimSpace(*fields.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "snippet title must not be empty")
		}
		if len(title) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("snippet title must be %d characters or less", MaxTitleLength))
		}
		snippet.Title = title
	}
	if fields.Description != nil {
		snippet.Description = strings.TrimSpace(*fields.Description)
	}
	if fields.Code != nil {
		if *fields.Code == "" {
			return nil, apperror.ValidationFailed("code", "snippet code must not be empty")
		}
		if len(*fields.Code) > MaxCodeLength {
			return nil, apperror.ValidationFailed("code",
				fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
		}
		snippet.Code = *fields.Code
	}
	if fields.Language != nil {
		language := strings.TrimSpace(*fields.Language)
		if language == "" {
			return nil, apperror.ValidationFailed("language", "snippet language must not be empty")
		}
		snippet.Language = language
	}

	if err := s.snippets.Update(ctx, snippet); err != nil {
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to update snippet",
			slog.String("slug", slugStr),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/snippet: updating snippet: %w", err)
	}

	s.logger.Info("snippet updated",
		slog.String("id", snippet.ID),
		slog.String("slug", snippet.Slug),
	)

	return snippet, nil
}

// Delete removes the caller's snippet by slug.
func (s *SnippetService) Delete(ctx context.Context, ownerID, slugStr string) error {
	slugStr = strings.TrimSpace(slugStr)
	if slugStr == "" {
		return apperror.ValidationFailed("slug", "snippet slug is required")
	}

	if err := s.snippets.Delete(ctx, ownerID, slugStr); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to delete snippet",
			slog.String("slug", slugStr),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("service/snippet: deleting snippet: %w", err)
	}

	s.logger.Info("snippet deleted",
		slog.String("slug", slugStr),
		slog.String("ownerID", ownerID),
	)
	return nil
}

// ListAll returns snippets newest-first. With paginate set, the result is
// the slice [limit*page, limit*page+limit); without, everything is
// returned — the public listing has no enforced cap.
func (s *SnippetService) ListAll(ctx context.Context, page, limit int, paginate bool) ([]model.Snippet, error) {
	opts := listOptions(page, limit, paginate)

	snippets, err := s.snippets.List(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/snippet: listing snippets: %w", err)
	}

	return snippets, nil
}

// ListByUsername returns a user's snippets newest-first. An unknown
// username yields an empty list, not an error — the listing endpoint never
// reveals whether an account exists.
func (s *SnippetService) ListByUsername(ctx context.Context, username string, page, limit int, paginate bool) ([]model.Snippet, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return []model.Snippet{}, nil
		}
		return nil, fmt.Errorf("service/snippet: resolving username: %w", err)
	}

	snippets, err := s.snippets.ListByOwner(ctx, user.ID, listOptions(page, limit, paginate))
	if err != nil {
		s.logger.Error("failed to list snippets by owner",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/snippet: listing snippets: %w", err)
	}

	return snippets, nil
}

// GetByUsernameAndSlug is the public single-snippet read.
func (s *SnippetService) GetByUsernameAndSlug(ctx context.Context, username, slugStr string) (*model.Snippet, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("snippet")
		}
		return nil, fmt.Errorf("service/snippet: resolving username: %w", err)
	}

	snippet, err := s.snippets.GetByOwnerSlug(ctx, user.ID, slugStr)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("snippet")
		}
		return nil, fmt.Errorf("service/snippet: getting snippet: %w", err)
	}

	return snippet, nil
}

func listOptions(page, limit int, paginate bool) repository.ListOptions {
	if !paginate || limit <= 0 {
		return repository.ListOptions{}
	}
	if page < 0 {
		page = 0
	}
	return repository.ListOptions{
		Limit:  limit,
		Offset: limit * page,
	}
}
