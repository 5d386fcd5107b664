package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/snipvault/internal/service"
	"github.com/sakif/snipvault/internal/validation"
)

// AuthHandler exposes signup and login.
type AuthHandler struct {
	auth     *service.AuthService
	validate *validation.Validator
	logger   *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, validate *validation.Validator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		validate: validate,
		logger:   logger,
	}
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required,max=40"`
	Password string `json:"password" validate:"required"`
}

// userResponse is the public view of a user returned on login. The full
// model carries timestamps the clients don't need.
type userResponse struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
}

// HandleSignup registers a new account.
//
// POST /api/users/signup {"username": ..., "password": ...}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
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

	if _, err := h.auth.Signup(r.Context(), req.Username, req.Password); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "User created successfully",
	})
}

// HandleLogin verifies credentials and issues a bearer token.
//
// POST /api/users/login {"username": ..., "password": ...}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
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

	result, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   result.Token,
		"user": userResponse{
			Username: result.User.Username,
			UserID:   result.User.ID,
		},
	})
}
