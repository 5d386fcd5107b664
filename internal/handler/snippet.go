package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/snipvault/internal/apperror"
	"github.com/sakif/snipvault/internal/auth"
	"github.com/sakif/snipvault/internal/service"
	"github.com/sakif/snipvault/internal/validation"
)

// SnippetHandler exposes snippet CRUD and the public listing endpoints.
type SnippetHandler struct {
	snippets *service.SnippetService
	validate *validation.Validator
	logger   *slog.Logger
}

func NewSnippetHandler(snippets *service.SnippetService, validate *validation.Validator, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{
		snippets: snippets,
		validate: validate,
		logger:   logger,
	}
}

// caller extracts the authenticated identity. The auth middleware always
// sets it on protected routes; a miss means the route was wired without
// the guard.
func caller(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication failed",
		})
	}
	return identity, ok
}

type createSnippetRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description"`
	Code        string `json:"code" validate:"required"`
	Language    string `json:"language" validate:"required"`
}

type updateSnippetRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Code        *string `json:"code"`
	Language    *string `json:"language"`
}

// HandleCreate saves a new snippet for the caller.
//
// POST /api/snippets/create (auth)
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	var req createSnippetRequest
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

	snippet, err := h.snippets.Create(r.Context(), identity.UserID, req.Title, req.Description, req.Code, req.Language)
	if err != nil {
		// Duplicate titles come back as 400 here, unlike the 409 the
		// rest of the API uses for conflicts.
		if errors.Is(err, apperror.ErrConflict) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "conflict",
				Message: "Snippet already exists",
			})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Snippet created successfully",
		"snippet": snippet,
	})
}

// HandleUpdate applies the provided fields to the caller's snippet.
// Absent fields keep their stored values.
//
// PUT /api/snippets/update/{slug} (auth)
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	var req updateSnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	snippet, err := h.snippets.Update(r.Context(), identity.UserID, chi.URLParam(r, "slug"), service.UpdateSnippetFields{
		Title:       req.Title,
		Description: req.Description,
		Code:        req.Code,
		Language:    req.Language,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Snippet updated successfully",
		"snippet": snippet,
	})
}

// HandleDelete removes the caller's snippet.
//
// DELETE /api/snippets/delete/{slug} (auth)
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.snippets.Delete(r.Context(), identity.UserID, chi.URLParam(r, "slug")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Snippet deleted successfully",
	})
}

// HandleListAll returns every snippet, newest-first. Pagination applies
// only when both page and limit are present.
//
// GET /api/snippets/all?page=0&limit=10
func (h *SnippetHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	page, limit, paginate := pagination(r)

	snippets, err := h.snippets.ListAll(r.Context(), page, limit, paginate)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Snippets fetched",
		"snippets": snippets,
	})
}

// HandleListByUser returns a user's snippets. An unknown username yields
// an empty list, not an error.
//
// GET /api/snippets/user/{username}?page=0&limit=10
func (h *SnippetHandler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	page, limit, paginate := pagination(r)

	snippets, err := h.snippets.ListByUsername(r.Context(), chi.URLParam(r, "username"), page, limit, paginate)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Snippets fetched",
		"snippets": snippets,
	})
}

// HandleGetBySlug fetches one snippet by its owner's username and slug.
//
// GET /api/snippets/{username}/{title}
func (h *SnippetHandler) HandleGetBySlug(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.snippets.GetByUsernameAndSlug(r.Context(), chi.URLParam(r, "username"), chi.URLParam(r, "title"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Snippet fetched",
		"snippet": snippet,
	})
}

// pagination reads page and limit from the query string. Listings are
// paginated only when both parameters are supplied; a malformed page
// falls back to 0 and a malformed limit to 10.
func pagination(r *http.Request) (page, limit int, paginate bool) {
	pageStr := r.URL.Query().Get("page")
	limitStr := r.URL.Query().Get("limit")
	if pageStr == "" || limitStr == "" {
		return 0, 0, false
	}

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 0 {
		page = 0
	}
	limit, err = strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 10
	}
	return page, limit, true
}
