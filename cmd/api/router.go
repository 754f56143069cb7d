package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crucial707/geo-catalog/internal/audit"
	"github.com/crucial707/geo-catalog/internal/auth"
	"github.com/crucial707/geo-catalog/internal/config"
	"github.com/crucial707/geo-catalog/internal/handlers"
	"github.com/crucial707/geo-catalog/internal/middleware"
	"github.com/crucial707/geo-catalog/internal/repo"
)

// newRouter wires every route. verifier is built once at startup and shared.
func newRouter(database *sql.DB, cfg config.Config, verifier *auth.Verifier, logger *slog.Logger) http.Handler {
	recorder := audit.NewRecorder(logger)

	layerH := &handlers.LayerHandler{Repo: repo.NewLayerRepo(database, recorder)}
	featureH := &handlers.FeatureHandler{Repo: repo.NewFeatureRepo(database, recorder)}
	groupH := &handlers.FeatureGroupHandler{Repo: repo.NewFeatureGroupRepo(database, recorder)}
	userH := &handlers.UserHandler{Repo: repo.NewUserRepo(database, recorder)}
	idpH := &handlers.IdentityProviderHandler{Repo: repo.NewIdentityProviderRepo(database, recorder)}
	auditH := &handlers.AuditHandler{Ledger: audit.NewLedger(database)}

	mutations := middleware.PerMinute(cfg.MutationsPerMinute)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// ===== Health =====
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := database.PingContext(ctx); err != nil {
			handlers.JSONError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintln(w, "ready")
	})
	r.Handle("/metrics", promhttp.Handler())

	// ===== v1 =====
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.CurrentUser(verifier))
		r.Get("/", handlers.Index)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(mutations.Mutations)
			r.Use(middleware.MaxBytes(int64(cfg.MaxBodyBytes)))

			r.Get("/audit", auditH.ListAudit)

			r.Route("/layer", func(r chi.Router) {
				r.Get("/", layerH.ListLayers)
				r.Put("/", layerH.CreateLayer)
				r.Patch("/{id}", layerH.UpdateLayer)
				r.Delete("/{id}", layerH.DeleteLayer)
			})

			r.Route("/feature", func(r chi.Router) {
				r.Get("/", featureH.ListFeatures)
				r.Put("/", featureH.CreateFeature)
				r.Patch("/{id}", featureH.UpdateFeature)
				r.Delete("/{id}", featureH.DeleteFeature)
			})

			r.Route("/featureGroup", func(r chi.Router) {
				r.Get("/", groupH.ListFeatureGroups)
				r.Put("/", groupH.CreateFeatureGroup)
				r.Patch("/{id}", groupH.UpdateFeatureGroup)
				r.Delete("/{id}", groupH.DeleteFeatureGroup)
			})

			r.Route("/user", func(r chi.Router) {
				r.Get("/", userH.ListUsers)
				r.Put("/", userH.CreateUser)
				r.Patch("/{id}", userH.UpdateUser)
				r.Delete("/{id}", userH.DeleteUser)
			})

			r.Route("/identityProvider", func(r chi.Router) {
				r.Get("/", idpH.ListIdentityProviders)
				r.Put("/", idpH.CreateIdentityProvider)
				r.Patch("/{id}", idpH.UpdateIdentityProvider)
				r.Delete("/{id}", idpH.DeleteIdentityProvider)
			})
		})
	})

	return r
}
