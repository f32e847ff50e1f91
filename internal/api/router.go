package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/suchetaslalom-sf/mcp-key-server/internal/api/handler"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/api/middleware"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/apikey"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/auth"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/npmpkg"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	AuthService *auth.Service
	UserRepo    auth.UserRepository
	KeyRepo     apikey.Repository
	PackageRepo npmpkg.Repository
	Installer   handler.PackageInstaller
	SyncInstall bool
	DBPinger    handler.DBPinger
	Version     string
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)

	authHandler := handler.NewAuthHandler(deps.AuthService, deps.UserRepo)
	keyHandler := handler.NewAPIKeyHandler(deps.KeyRepo)
	pkgHandler := handler.NewPackageHandler(deps.PackageRepo)
	npmHandler := handler.NewNpmHandler(deps.Installer, deps.SyncInstall)

	authenticated := middleware.Auth(deps.AuthService)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Get("/me", authHandler.Me)
				r.Put("/me", authHandler.UpdateMe)

				r.With(middleware.RequireAdmin()).Get("/users", authHandler.ListUsers)
			})
		})

		r.Route("/keys", func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/", keyHandler.Create)
			r.Get("/", keyHandler.List)
			r.With(middleware.RequireAdmin()).Get("/admin", keyHandler.AdminList)
			r.Get("/{id}", keyHandler.GetByID)
			r.Put("/{id}", keyHandler.Update)
			r.Delete("/{id}", keyHandler.Delete)
		})

		r.Route("/npm", func(r chi.Router) {
			r.Use(authenticated)
			r.Route("/packages", func(r chi.Router) {
				r.Post("/", pkgHandler.Create)
				r.Get("/", pkgHandler.List)
				r.Get("/{id}", pkgHandler.GetByID)
				r.Put("/{id}", pkgHandler.Update)
				r.Delete("/{id}", pkgHandler.Delete)
			})
			r.Post("/install", npmHandler.Install)
			r.Get("/installed", npmHandler.ListInstalled)
		})
	})

	return r
}
