package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/xid"
	"github.com/sakif/snipvault/internal/apperror"
	"github.com/sakif/snipvault/internal/model"
	"github.com/sakif/snipvault/internal/repository"
)

// GroupService handles business logic for snippet groups.
type GroupService struct {
	groups repository.GroupRepository
	logger *slog.Logger
}

func NewGroupService(groups repository.GroupRepository, logger *slog.Logger) *GroupService {
	return &GroupService{
		groups: groups,
		logger: logger,
	}
}

// Create saves a new group owned by ownerID. Group titles are not unique —
// creation only fails on persistence errors.
func (s *GroupService) Create(ctx context.Context, ownerID, title, description string) (*model.Group, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "group title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("group title must be %d characters or less", MaxTitleLength))
	}

	group := &model.Group{
		Title:       title,
		Description: strings.TrimSpace(description),
		OwnerID:     ownerID,
	}

	if err := s.groups.CreateGroup(ctx, group); err != nil {
		s.logger.Error("failed to create group",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/group: creating group: %w", err)
	}

	s.logger.Info("group created",
		slog.String("id", group.ID),
		slog.String("ownerID", ownerID),
	)

	return group, nil
}

// Update renames the caller's group.
func (s *GroupService) Update(ctx context.Context, ownerID, groupID, title, description string) (*model.Group, error) {
	groupID, err := cleanID(groupID)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "group title is required")
	}

	group, err := s.groups.GetGroupByOwner(ctx, ownerID, groupID)
	if err != nil {
		return nil, err
	}

	group.Title = title
	group.Description = strings.TrimSpace(description)

	if err := s.groups.UpdateGroup(ctx, group); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update group",
			slog.String("groupID", groupID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/group: updating group: %w", err)
	}

	s.logger.Info("group updated", slog.String("id", group.ID))
	return group, nil
}

// Delete removes the caller's group. Member snippets are untouched.
func (s *GroupService) Delete(ctx context.Context, ownerID, groupID string) error {
	groupID, err := cleanID(groupID)
	if err != nil {
		return err
	}

	if err := s.groups.DeleteGroup(ctx, ownerID, groupID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to delete group",
			slog.String("groupID", groupID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("service/group: deleting group: %w", err)
	}

	s.logger.Info("group deleted", slog.String("id", groupID))
	return nil
}

// ListMine returns the caller's groups newest-first.
func (s *GroupService) ListMine(ctx context.Context, ownerID string) ([]model.Group, error) {
	groups, err := s.groups.ListGroupsByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list groups", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/group: listing groups: %w", err)
	}
	return groups, nil
}

// GetWithSnippets loads the caller's group and resolves every membership
// reference to its full snippet record, newest-added-first.
func (s *GroupService) GetWithSnippets(ctx context.Context, ownerID, groupID string) (*model.GroupWithSnippets, error) {
	groupID, err := cleanID(groupID)
	if err != nil {
		return nil, err
	}

	group, err := s.groups.GetGroupByOwner(ctx, ownerID, groupID)
	if err != nil {
		return nil, err
	}

	snippets, err := s.groups.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("service/group: resolving members: %w", err)
	}

	return &model.GroupWithSnippets{Group: group, Snippets: snippets}, nil
}

// AddSnippet adds a snippet reference to the front of the caller's group.
// The membership write itself is atomic at the storage layer; this method
// only sequences the precondition checks and reloads the group for the
// response.
func (s *GroupService) AddSnippet(ctx context.Context, ownerID, groupID, snippetID string) (*model.Group, error) {
	groupID, err := cleanID(groupID)
	if err != nil {
		return nil, err
	}
	snippetID, err = cleanID(snippetID)
	if err != nil {
		return nil, err
	}

	if err := s.groups.AddSnippet(ctx, ownerID, groupID, snippetID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to add snippet to group",
			slog.String("groupID", groupID),
			slog.String("snippetID", snippetID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/group: adding snippet: %w", err)
	}

	s.logger.Info("snippet added to group",
		slog.String("groupID", groupID),
		slog.String("snippetID", snippetID),
	)

	return s.groups.GetGroupByOwner(ctx, ownerID, groupID)
}

// RemoveSnippet removes a snippet reference from the caller's group.
func (s *GroupService) RemoveSnippet(ctx context.Context, ownerID, groupID, snippetID string) (*model.Group, error) {
	groupID, err := cleanID(groupID)
	if err != nil {
		return nil, err
	}
	snippetID, err = cleanID(snippetID)
	if err != nil {
		return nil, err
	}

	if err := s.groups.RemoveSnippet(ctx, ownerID, groupID, snippetID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to remove snippet from group",
			slog.String("groupID", groupID),
			slog.String("snippetID", snippetID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/group: removing snippet: %w", err)
	}

	s.logger.Info("snippet removed from group",
		slog.String("groupID", groupID),
		slog.String("snippetID", snippetID),
	)

	return s.groups.GetGroupByOwner(ctx, ownerID, groupID)
}

// cleanID trims and validates a path ID. IDs are xids; anything that
// doesn't parse is rejected before touching storage.
func cleanID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if _, err := xid.FromString(id); err != nil {
		return "", apperror.ValidationFailed("id", "invalid ID")
	}
	return id, nil
}
