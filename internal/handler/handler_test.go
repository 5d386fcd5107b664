package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/snipvault/internal/auth"
	"github.com/sakif/snipvault/internal/handler"
	"github.com/sakif/snipvault/internal/model"
	"github.com/sakif/snipvault/internal/repository/sqlite"
	"github.com/sakif/snipvault/internal/service"
	"github.com/sakif/snipvault/internal/validation"
)

// testEnv carries a full handler stack over an in-memory database.
// Handler tests exercise the real services and repositories; only the
// HTTP server itself is replaced by httptest.
type testEnv struct {
	auth     *handler.AuthHandler
	snippets *handler.SnippetHandler
	groups   *handler.GroupHandler

	authSvc    *service.AuthService
	snippetSvc *service.SnippetService
	groupSvc   *service.GroupService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("creating token service: %v", err)
	}
	passwords := auth.NewPasswordServiceWithCost(4)
	validate := validation.New()

	authSvc := service.NewAuthService(db, tokens, passwords, logger)
	snippetSvc := service.NewSnippetService(db, db, logger)
	groupSvc := service.NewGroupService(db, logger)

	return &testEnv{
		auth:       handler.NewAuthHandler(authSvc, validate, logger),
		snippets:   handler.NewSnippetHandler(snippetSvc, validate, logger),
		groups:     handler.NewGroupHandler(groupSvc, validate, logger),
		authSvc:    authSvc,
		snippetSvc: snippetSvc,
		groupSvc:   groupSvc,
	}
}

// signup registers a user and returns their identity for authenticated
// requests.
func (e *testEnv) signup(t *testing.T, username, password string) auth.Identity {
	t.Helper()
	user, err := e.authSvc.Signup(context.Background(), username, password)
	if err != nil {
		t.Fatalf("signup %q: %v", username, err)
	}
	return auth.Identity{UserID: user.ID, Username: user.Username}
}

func (e *testEnv) createSnippet(t *testing.T, id auth.Identity, title string) *model.Snippet {
	t.Helper()
	snippet, err := e.snippetSvc.Create(context.Background(), id.UserID, title, "", "code", "go")
	if err != nil {
		t.Fatalf("creating snippet %q: %v", title, err)
	}
	return snippet
}

func (e *testEnv) createGroup(t *testing.T, id auth.Identity, title string) *model.Group {
	t.Helper()
	group, err := e.groupSvc.Create(context.Background(), id.UserID, title, "")
	if err != nil {
		t.Fatalf("creating group %q: %v", title, err)
	}
	return group
}

// doJSON performs a request against a single handler func, optionally as
// an authenticated caller and with router path values set. Invoking the
// handler directly keeps these tests focused on handler behaviour; the
// route table itself is covered by the server tests.
func doJSON(method, target string, body any, id *auth.Identity, pathVals map[string]string, h http.HandlerFunc) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if id != nil {
		req = req.WithContext(auth.ContextWithIdentity(req.Context(), *id))
	}
	rctx := chi.NewRouteContext()
	for k, v := range pathVals {
		rctx.URLParams.Add(k, v)
	}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return body
}
