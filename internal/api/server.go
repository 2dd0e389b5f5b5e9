package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"sjsage522/jobofferworker/internal/crawler"
	"sjsage522/jobofferworker/logger"
)

// Scraper produces one envelope per call
type Scraper interface {
	Scrape(ctx context.Context) crawler.Envelope
}

type Server struct {
	router         *chi.Mux
	scraper        Scraper
	requestTimeout time.Duration
}

// NewServer creates the HTTP surface around scraper. requestTimeout bounds a
// whole scrape; zero leaves it to the client connection.
func NewServer(scraper Scraper, requestTimeout time.Duration) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		scraper:        scraper,
		requestTimeout: requestTimeout,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/scrape", s.handleScrape)
}

func (s *Server) Router() http.Handler {
	return s.router
}

// requestLogger logs every request once it has been served
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		logger.ForRequest(middleware.GetReqID(r.Context())).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("Request served")
	})
}
