package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"slices"
	"testing"

	"github.com/rs/xid"
	"github.com/sakif/snipvault/internal/apperror"
	"github.com/sakif/snipvault/internal/model"
)

// mockGroupRepo is an in-memory repository.GroupRepository. Membership is
// a set per group with insertion order tracked newest-first, matching the
// sqlite join-table semantics.
type mockGroupRepo struct {
	groups   map[string]*model.Group
	members  map[string][]string // group ID → snippet IDs, newest first
	snippets map[string]model.Snippet
}

func newMockGroupRepo() *mockGroupRepo {
	return &mockGroupRepo{
		groups:   make(map[string]*model.Group),
		members:  make(map[string][]string),
		snippets: make(map[string]model.Snippet),
	}
}

func (m *mockGroupRepo) addKnownSnippet(s model.Snippet) {
	m.snippets[s.ID] = s
}

func (m *mockGroupRepo) CreateGroup(_ context.Context, group *model.Group) error {
	group.ID = xid.New().String()
	group.SnippetIDs = []string{}
	stored := *group
	m.groups[group.ID] = &stored
	return nil
}

func (m *mockGroupRepo) GetGroupByOwner(_ context.Context, ownerID, groupID string) (*model.Group, error) {
	group, ok := m.groups[groupID]
	if !ok || group.OwnerID != ownerID {
		return nil, apperror.NotFoundOrForbidden("group")
	}
	result := *group
	result.SnippetIDs = slices.Clone(m.members[groupID])
	if result.SnippetIDs == nil {
		result.SnippetIDs = []string{}
	}
	return &result, nil
}

func (m *mockGroupRepo) UpdateGroup(_ context.Context, group *model.Group) error {
	existing, ok := m.groups[group.ID]
	if !ok || existing.OwnerID != group.OwnerID {
		return apperror.NotFoundOrForbidden("group")
	}
	stored := *group
	m.groups[group.ID] = &stored
	return nil
}

func (m *mockGroupRepo) DeleteGroup(_ context.Context, ownerID, groupID string) error {
	group, ok := m.groups[groupID]
	if !ok || group.OwnerID != ownerID {
		return apperror.NotFoundOrForbidden("group")
	}
	delete(m.groups, groupID)
	delete(m.members, groupID)
	return nil
}

func (m *mockGroupRepo) ListGroupsByOwner(_ context.Context, ownerID string) ([]model.Group, error) {
	mine := []model.Group{}
	for id, group := range m.groups {
		if group.OwnerID != ownerID {
			continue
		}
		g := *group
		g.SnippetIDs = slices.Clone(m.members[id])
		if g.SnippetIDs == nil {
			g.SnippetIDs = []string{}
		}
		mine = append(mine, g)
	}
	return mine, nil
}

func (m *mockGroupRepo) AddSnippet(_ context.Context, ownerID, groupID, snippetID string) error {
	group, ok := m.groups[groupID]
	if !ok || group.OwnerID != ownerID {
		return apperror.NotFoundOrForbidden("group")
	}
	if _, ok := m.snippets[snippetID]; !ok {
		return apperror.NotFound("snippet")
	}
	if slices.Contains(m.members[groupID], snippetID) {
		return apperror.Conflict("snippet is already in group")
	}
	m.members[groupID] = append([]string{snippetID}, m.members[groupID]...)
	return nil
}

func (m *mockGroupRepo) RemoveSnippet(_ context.Context, ownerID, groupID, snippetID string) error {
	group, ok := m.groups[groupID]
	if !ok || group.OwnerID != ownerID {
		return apperror.NotFoundOrForbidden("group")
	}
	if _, ok := m.snippets[snippetID]; !ok {
		return apperror.NotFound("snippet")
	}
	before := len(m.members[groupID])
	m.members[groupID] = slices.DeleteFunc(m.members[groupID], func(id string) bool {
		return id == snippetID
	})
	if len(m.members[groupID]) == before {
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: "snippet is not in group"}
	}
	return nil
}

func (m *mockGroupRepo) ListMembers(_ context.Context, groupID string) ([]model.Snippet, error) {
	members := []model.Snippet{}
	for _, id := range m.members[groupID] {
		if s, ok := m.snippets[id]; ok {
			members = append(members, s)
		}
	}
	return members, nil
}

func newTestGroupService(t *testing.T) (*GroupService, *mockGroupRepo) {
	t.Helper()
	repo := newMockGroupRepo()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewGroupService(repo, logger), repo
}

func seedSnippet(repo *mockGroupRepo, title string) model.Snippet {
	s := model.Snippet{ID: xid.New().String(), Title: title}
	repo.addKnownSnippet(s)
	return s
}

// =========================================================================
// GROUP CRUD TESTS
// =========================================================================

func TestGroupCreate_Success(t *testing.T) {
	svc, _ := newTestGroupService(t)

	group, err := svc.Create(context.Background(), "owner-1", "  Favorites  ", "keepers")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if group.Title != "Favorites" {
		t.Errorf("Title = %q, want trimmed %q", group.Title, "Favorites")
	}
	if group.SnippetIDs == nil || len(group.SnippetIDs) != 0 {
		t.Errorf("SnippetIDs = %v, want empty non-nil slice", group.SnippetIDs)
	}
}

func TestGroupCreate_EmptyTitle(t *testing.T) {
	svc, _ := newTestGroupService(t)

	_, err := svc.Create(context.Background(), "owner-1", "   ", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() error = %v, want ErrValidation", err)
	}
}

func TestGroupCreate_DuplicateTitlesAllowed(t *testing.T) {
	svc, _ := newTestGroupService(t)

	if _, err := svc.Create(context.Background(), "owner-1", "Favorites", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(context.Background(), "owner-1", "Favorites", ""); err != nil {
		t.Errorf("second Create() with same title error = %v, want success", err)
	}
}

func TestGroupUpdate_NonOwner(t *testing.T) {
	svc, _ := newTestGroupService(t)

	group, _ := svc.Create(context.Background(), "owner-1", "Mine", "")

	_, err := svc.Update(context.Background(), "intruder", group.ID, "Stolen", "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() by non-owner error = %v, want ErrNotFound", err)
	}
}

func TestGroupUpdate_InvalidID(t *testing.T) {
	svc, _ := newTestGroupService(t)

	_, err := svc.Update(context.Background(), "owner-1", "not-an-xid", "Title", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Update() error = %v, want ErrValidation", err)
	}
}

func TestGroupDelete(t *testing.T) {
	svc, repo := newTestGroupService(t)

	group, _ := svc.Create(context.Background(), "owner-1", "Doomed", "")

	if err := svc.Delete(context.Background(), "owner-1", group.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(repo.groups) != 0 {
		t.Error("Delete() left the group in storage")
	}
}

// =========================================================================
// MEMBERSHIP TESTS
// =========================================================================

func TestAddSnippet_InsertsAtFront(t *testing.T) {
	svc, repo := newTestGroupService(t)

	group, _ := svc.Create(context.Background(), "owner-1", "Favorites", "")
	first := seedSnippet(repo, "first")
	second := seedSnippet(repo, "second")

	if _, err := svc.AddSnippet(context.Background(), "owner-1", group.ID, first.ID); err != nil {
		t.Fatalf("AddSnippet() error = %v", err)
	}
	updated, err := svc.AddSnippet(context.Background(), "owner-1", group.ID, second.ID)
	if err != nil {
		t.Fatalf("AddSnippet() error = %v", err)
	}

	want := []string{second.ID, first.ID}
	if !slices.Equal(updated.SnippetIDs, want) {
		t.Errorf("SnippetIDs = %v, want %v (newest first)", updated.SnippetIDs, want)
	}
}

func TestAddSnippet_AlreadyMember(t *testing.T) {
	svc, repo := newTestGroupService(t)

	group, _ := svc.Create(context.Background(), "owner-1", "Favorites", "")
	snippet := seedSnippet(repo, "only")

	if _, err := svc.AddSnippet(context.Background(), "owner-1", group.ID, snippet.ID); err != nil {
		t.Fatal(err)
	}

	updated, err := svc.AddSnippet(context.Background(), "owner-1", group.ID, snippet.ID)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second AddSnippet() error = %v, want ErrConflict", err)
	}
	if updated != nil {
		t.Error("second AddSnippet() returned a group alongside the error")
	}
	// The membership list stays a set
	if got := len(repo.members[group.ID]); got != 1 {
		t.Errorf("group has %d members, want 1", got)
	}
}

func TestAddSnippet_InvalidIDs(t *testing.T) {
	svc, repo := newTestGroupService(t)

	group, _ := svc.Create(context.Background(), "owner-1", "Favorites", "")
	snippet := seedSnippet(repo, "s")

	tests := []struct {
		name      string
		groupID   string
		snippetID string
	}{
		{"bad group ID", "nope", snippet.ID},
		{"bad snippet ID", group.ID, "nope"},
		{"empty snippet ID", group.ID, "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddSnippet(context.Background(), "owner-1", tt.groupID, tt.snippetID)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("AddSnippet() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestAddSnippet_UnknownSnippet(t *testing.T) {
	svc, _ := newTestGroupService(t)

	group, _ := svc.Create(context.Background(), "owner-1", "Favorites", "")

	// Well-formed ID that no snippet carries
	_, err := svc.AddSnippet(context.Background(), "owner-1", group.ID, xid.New().String())
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("AddSnippet() error = %v, want ErrNotFound", err)
	}
}

func TestAddSnippet_ForeignGroup(t *testing.T) {
	svc, repo := newTestGroupService(t)

	group, _ := svc.Create(context.Background(), "owner-1", "Private", "")
	snippet := seedSnippet(repo, "s")

	_, err := svc.AddSnippet(context.Background(), "intruder", group.ID, snippet.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("AddSnippet() to foreign group error = %v, want ErrNotFound", err)
	}
}

func TestRemoveSnippet(t *testing.T) {
	svc, repo := newTestGroupService(t)

	group, _ := svc.Create(context.Background(), "owner-1", "Favorites", "")
	snippet := seedSnippet(repo, "s")
	svc.AddSnippet(context.Background(), "owner-1", group.ID, snippet.ID)

	updated, err := svc.RemoveSnippet(context.Background(), "owner-1", group.ID, snippet.ID)
	if err != nil {
		t.Fatalf("RemoveSnippet() error = %v", err)
	}
	if len(updated.SnippetIDs) != 0 {
		t.Errorf("SnippetIDs = %v, want empty", updated.SnippetIDs)
	}
}

func TestRemoveSnippet_NotMember(t *testing.T) {
	svc, repo := newTestGroupService(t)

	group, _ := svc.Create(context.Background(), "owner-1", "Favorites", "")
	snippet := seedSnippet(repo, "never added")

	_, err := svc.RemoveSnippet(context.Background(), "owner-1", group.ID, snippet.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("RemoveSnippet() error = %v, want ErrNotFound", err)
	}
}

func TestGetWithSnippets_ResolvesMembers(t *testing.T) {
	svc, repo := newTestGroupService(t)

	group, _ := svc.Create(context.Background(), "owner-1", "Favorites", "")
	first := seedSnippet(repo, "first")
	second := seedSnippet(repo, "second")
	svc.AddSnippet(context.Background(), "owner-1", group.ID, first.ID)
	svc.AddSnippet(context.Background(), "owner-1", group.ID, second.ID)

	got, err := svc.GetWithSnippets(context.Background(), "owner-1", group.ID)
	if err != nil {
		t.Fatalf("GetWithSnippets() error = %v", err)
	}
	if len(got.Snippets) != 2 {
		t.Fatalf("resolved %d snippets, want 2", len(got.Snippets))
	}
	if got.Snippets[0].Title != "second" {
		t.Errorf("first resolved snippet = %q, want newest-added %q", got.Snippets[0].Title, "second")
	}
}
