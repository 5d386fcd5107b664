package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/snipvault/internal/service"
	"github.com/sakif/snipvault/internal/validation"
)

// GroupHandler exposes group management and membership endpoints. Every
// route here is owner-scoped and sits behind the auth middleware.
type GroupHandler struct {
	groups   *service.GroupService
	validate *validation.Validator
	logger   *slog.Logger
}

func NewGroupHandler(groups *service.GroupService, validate *validation.Validator, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{
		groups:   groups,
		validate: validate,
		logger:   logger,
	}
}

type createGroupRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description"`
}

// HandleCreate saves a new group for the caller.
//
// POST /api/groups/create (auth)
func (h *GroupHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}
	if err := h.validate.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	group, err := h.groups.Create(r.Context(), identity.UserID, req.Title, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Group created successfully",
		"group":   group,
	})
}

// HandleAddSnippet adds a snippet reference to the front of the caller's
// group membership list.
//
// POST /api/groups/add/{groupId}/{snippetId} (auth)
func (h *GroupHandler) HandleAddSnippet(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	group, err := h.groups.AddSnippet(r.Context(), identity.UserID, chi.URLParam(r, "groupId"), chi.URLParam(r, "snippetId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Snippet added to group",
		"group":   group,
	})
}

// HandleRemoveSnippet removes a snippet reference from the caller's
// group. The snippet itself is untouched.
//
// DELETE /api/groups/unadd/{groupId}/{snippetId} (auth)
func (h *GroupHandler) HandleRemoveSnippet(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	group, err := h.groups.RemoveSnippet(r.Context(), identity.UserID, chi.URLParam(r, "groupId"), chi.URLParam(r, "snippetId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Snippet removed from group",
		"group":   group,
	})
}

// HandleMembers returns the caller's group with every membership
// reference resolved to its full snippet record.
//
// GET /api/groups/snippets/{groupId} (auth)
func (h *GroupHandler) HandleMembers(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	result, err := h.groups.GetWithSnippets(r.Context(), identity.UserID, chi.URLParam(r, "groupId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Group snippets retrieved successfully",
		"snippets": result.Snippets,
	})
}

// HandleMine lists the caller's groups, newest-first.
//
// GET /api/groups/me (auth)
func (h *GroupHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	groups, err := h.groups.ListMine(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Groups retrieved successfully",
		"groups":  groups,
	})
}
