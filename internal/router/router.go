package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sftp-gateway/internal/config"
	"sftp-gateway/internal/handler"
	"sftp-gateway/internal/metrics"
	"sftp-gateway/internal/middleware"
)

const verifyPINPath = "/verify-pin"

type Handlers struct {
	PIN         *handler.PINHandler
	Directory   *handler.DirectoryHandler
	File        *handler.FileHandler
	Trash       *handler.TrashHandler
	Preferences *handler.PreferenceHandler
	Static      *handler.StaticHandler
}

func New(cfg *config.Config, gate *middleware.PINGate, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.PINRateLimitRPM, verifyPINPath)

	r.Use(middleware.ClientIP(cfg.TrustedProxies))
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)
	r.Use(gate.Handler)

	r.Get("/health", handler.Health)

	r.Post(verifyPINPath, h.PIN.Verify)
	r.Post("/logout", h.PIN.Logout)

	r.Route("/api", func(api chi.Router) {
		api.NotFound(handler.NotFound)
		api.MethodNotAllowed(handler.NotFound)

		api.With(middleware.TransferTimeout(cfg.DownloadTimeout, cfg.DownloadIdleTimeout)).Get("/files/download", h.File.Download)

		api.Group(func(g chi.Router) {
			g.Use(middleware.Timeout(cfg.RequestTimeout))

			g.Get("/files", h.Directory.List)
			g.Delete("/files", h.Trash.Delete)
			g.Get("/recycle-bin", h.Trash.List)

			g.Get("/preferences", h.Preferences.Get)
			g.Put("/favorites/{id}", h.Preferences.SetFavorite)
			g.Delete("/favorites/{id}", h.Preferences.DeleteFavorite)
			g.Put("/renames/{id}", h.Preferences.SetRename)
			g.Delete("/renames/{id}", h.Preferences.DeleteRename)
		})
	})

	r.NotFound(h.Static.ServeHTTP)

	return r
}

// GateExemptPaths are reachable without a session.
func GateExemptPaths() []string {
	return []string{verifyPINPath, "/health"}
}

// NewMetrics serves Prometheus metrics on their own listener, kept off the
// public port so PIN-attempt counters are not readable without access.
func NewMetrics() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery)
	r.Get("/health", handler.Health)
	r.Handle("/metrics", metrics.Handler())
	return r
}
