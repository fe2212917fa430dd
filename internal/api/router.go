package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	mw "github.com/kiranshivaraju/bizlens/internal/api/middleware"
	"github.com/kiranshivaraju/bizlens/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth        *mw.Auth
	RateLimit   *mw.RateLimit
	CORSOrigins []string

	HealthHandler   http.HandlerFunc
	FeaturesHandler http.HandlerFunc
	RenderHandler   http.HandlerFunc

	SubmitHandler       http.HandlerFunc
	ListReportsHandler  http.HandlerFunc
	ClearReportsHandler http.HandlerFunc
	GetCurrentHandler   http.HandlerFunc
	NewAnalysisHandler  http.HandlerFunc
	LoadSavedHandler    http.HandlerFunc
	ExportPDFHandler    http.HandlerFunc

	AgentHandler http.HandlerFunc

	ListArchiveHandler   http.HandlerFunc
	ReportContentHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", "X-Export-URL", "X-Page-Count", mw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Get("/api/v1/features", orNotImplemented(deps.FeaturesHandler))
	r.Post("/api/v1/render", orNotImplemented(deps.RenderHandler))

	// Protected routes
	r.Group(func(r chi.Router) {
		if deps.Auth != nil {
			r.Use(deps.Auth.Authenticate)
		}
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Route("/api/v1/analyses/{feature}", func(r chi.Router) {
			r.Post("/", orNotImplemented(deps.SubmitHandler))
			r.Get("/reports", orNotImplemented(deps.ListReportsHandler))
			r.Delete("/reports", orNotImplemented(deps.ClearReportsHandler))
			r.Get("/reports/{reportID}/pdf", orNotImplemented(deps.ExportPDFHandler))
			r.Get("/current", orNotImplemented(deps.GetCurrentHandler))
			r.Delete("/current", orNotImplemented(deps.NewAnalysisHandler))
			r.Put("/current/{reportID}", orNotImplemented(deps.LoadSavedHandler))
		})

		r.Post("/api/v1/agent/messages", orNotImplemented(deps.AgentHandler))

		r.Get("/api/reports", orNotImplemented(deps.ListArchiveHandler))
		r.Get("/api/report-content/{filename}", orNotImplemented(deps.ReportContentHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
