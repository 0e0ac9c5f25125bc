package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/hvga/hvga-og/internal/chat"
	"github.com/hvga/hvga-og/internal/speech"
)

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	PublicDir      string // static assets served at /
	AllowedOrigins []string
	RequestTimeout time.Duration
	MaxUploadBytes int64
	Version        string
	DeepgramAPIKey string // handed to the browser by /api/config
}

// Responder answers chat turns. *chat.Engine implements it.
type Responder interface {
	Respond(ctx context.Context, turn chat.Turn) (*chat.Reply, error)
}

// Backend is the subset of the hosted backend the HTTP routes pass through.
type Backend interface {
	ListMembers(ctx context.Context) (json.RawMessage, error)
	SubmitFeedback(ctx context.Context, message string) error
}

// Deps are the services behind the routes. Nil members disable their routes'
// functionality but the routes stay mounted.
type Deps struct {
	Chat    Responder
	Speech  speech.Transcriber
	Backend Backend
}

// Server is the HVGA OG HTTP API.
type Server struct {
	cfg        Config
	deps       Deps
	router     chi.Router
	httpServer *http.Server
}

// New creates a server and builds its router.
func New(cfg Config, deps Deps) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{cfg: cfg, deps: deps}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Telemetry)
	r.Use(Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Post("/speech-to-text", s.handleSpeech)
		r.Get("/config", s.handleConfig)
		r.Get("/members", s.handleMembers)
		r.Post("/feedback", s.handleFeedback)
		r.Get("/version", s.handleVersion)
	})

	if s.cfg.PublicDir != "" {
		if _, err := os.Stat(s.cfg.PublicDir); err == nil {
			r.Handle("/*", http.FileServer(http.Dir(s.cfg.PublicDir)))
		} else {
			log.Warn().Str("dir", s.cfg.PublicDir).Msg("public directory not found, static files disabled")
		}
	}

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Start begins listening on the configured address.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().
		Str("addr", s.Addr()).
		Str("local", fmt.Sprintf("http://localhost:%d", s.cfg.Port)).
		Msg("hvga server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
