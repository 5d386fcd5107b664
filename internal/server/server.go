// Package server wires handlers, middleware and routes, and owns the
// HTTP listener lifecycle. It is the composition root: every dependency
// chain (db → repository → service → handler) is assembled here.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/snipvault/internal/auth"
	"github.com/sakif/snipvault/internal/config"
	"github.com/sakif/snipvault/internal/handler"
	"github.com/sakif/snipvault/internal/middleware"
	sqliteRepo "github.com/sakif/snipvault/internal/repository/sqlite"
	"github.com/sakif/snipvault/internal/service"
	"github.com/sakif/snipvault/internal/validation"
)

// Server holds the router and the resources it must release on shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain and registers every route.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(tokens)

	return s, nil
}

// Handler exposes the router, mainly for tests driving the full stack
// through httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes registers middleware and the canonical route table. Routes
// are defined once, here, and nowhere else.
func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.config.CORSOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	validate := validation.New()
	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	snippetService := service.NewSnippetService(s.db, s.db, s.logger)
	groupService := service.NewGroupService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, validate, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, validate, s.logger)
	groupHandler := handler.NewGroupHandler(groupService, validate, s.logger)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/signup", authHandler.HandleSignup)
			r.Post("/login", authHandler.HandleLogin)
		})

		r.Route("/snippets", func(r chi.Router) {
			r.Get("/all", snippetHandler.HandleListAll)
			r.Get("/user/{username}", snippetHandler.HandleListByUser)
			r.Get("/{username}/{title}", snippetHandler.HandleGetBySlug)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/create", snippetHandler.HandleCreate)
				r.Put("/update/{slug}", snippetHandler.HandleUpdate)
				r.Delete("/delete/{slug}", snippetHandler.HandleDelete)
			})
		})

		r.Route("/groups", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/create", groupHandler.HandleCreate)
			r.Post("/add/{groupId}/{snippetId}", groupHandler.HandleAddSnippet)
			r.Delete("/unadd/{groupId}/{snippetId}", groupHandler.HandleRemoveSnippet)
			r.Get("/snippets/{groupId}", groupHandler.HandleMembers)
			r.Get("/me", groupHandler.HandleMine)
		})
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"not_found","message":"API request URL not found"}`)
	})
}

// Start runs the listener until a shutdown signal arrives, then drains
// in-flight requests and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
