package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dgallion1/firdesk/internal/catalog"
	"github.com/dgallion1/firdesk/internal/classify"
	"github.com/dgallion1/firdesk/internal/config"
	"github.com/dgallion1/firdesk/internal/llm"
	"github.com/dgallion1/firdesk/internal/places"
	"github.com/dgallion1/firdesk/internal/render"
	"github.com/dgallion1/firdesk/internal/session"
	"github.com/dgallion1/firdesk/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StationFinder looks up the police station nearest a point.
type StationFinder interface {
	NearestPoliceStation(ctx context.Context, lat, lng float64) (*places.Station, error)
}

// Deps are the collaborators the API serves. Renderer, Classifier, LLM and
// Places may be nil; their routes then answer 503.
type Deps struct {
	Store      store.Store
	Sessions   *session.Registry
	Catalog    *catalog.Catalog
	Renderer   render.Renderer
	Classifier classify.Classifier
	LLM        llm.Generator
	Places     StationFinder
	Limiter    *IPRateLimiter
}

// Server is the HTTP API server for firdesk.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(CORS(s.cfg.AllowOrigin))
	if s.deps.Limiter != nil {
		r.Use(s.deps.Limiter.Middleware)
	}

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Route("/api/fir", func(r chi.Router) {
			r.Post("/save", s.handleSaveFIR)
			r.Get("/", s.handleListFIRs)
			r.Get("/{id}", s.handleGetFIR)
			r.Get("/{id}/pdf", s.handleFIRPDF)
			r.Get("/{id}/html", s.handleFIRHTML)
		})

		r.Get("/api/catalogs", s.handleCatalogs)

		r.Route("/api/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/answer", s.handleAnswer)
				r.Post("/skip", s.handleSkip)
				r.Post("/back", s.handleBack)
				r.Put("/fields", s.handleEditField)
				r.Post("/statement", s.handleStatement)
				r.Post("/predict-sections", s.handleSessionSections)
				r.Post("/save", s.handleSaveSession)
			})
		})

		r.Post("/api/bns/predict-section", s.handlePredictSection)
		r.Post("/api/llm/ask-llm", s.handleAskLLM)
		r.Post("/api/nearest-police/nearest-police-station", s.handleNearestPolice)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
