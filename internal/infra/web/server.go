package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ai-coding-tutor/internal/infra/logging"
	"ai-coding-tutor/internal/infra/metrics"
	"ai-coding-tutor/internal/usecase"
)

//go:embed static
var staticFS embed.FS

// Server wires the public JSON API to the state store and the tutor.
type Server struct {
	stateUC usecase.StateUseCase
	tutorUC usecase.TutorUseCase
	log     *zerolog.Logger
}

func NewServer(stateUC usecase.StateUseCase, tutorUC usecase.TutorUseCase, logger *zerolog.Logger) *Server {
	return &Server{stateUC: stateUC, tutorUC: tutorUC, log: logger}
}

// Router builds the chi mux with all API routes registered.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(traceMiddleware)
	r.Use(routeMetrics)

	notFound := func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Route("/api", func(api chi.Router) {
		api.NotFound(notFound)
		api.MethodNotAllowed(notFound)
		api.Post("/chat", s.handleChat)
		api.Get("/state", s.handleGetState)
		api.Post("/state", s.handleUpdateState)
		api.Post("/concept", s.handleConcept)
		api.Post("/practice", s.handlePractice)
		api.Post("/review", s.handleReview)
		api.Post("/reset", s.handleReset)
		api.Get("/health", s.handleHealth)
	})

	r.Handle("/metrics", promhttp.Handler())

	// Embedded single-page chat UI.
	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/*", http.FileServer(http.FS(static)))

	return r
}

// corsMiddleware keeps the API open to any origin so browser frontends
// can call it directly.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithTraceID(r.Context(), uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func routeMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.IncHTTPRequest(route, rec.status)
	})
}
