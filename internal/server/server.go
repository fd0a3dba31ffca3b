// Package server exposes the retrieval worker and the chat proxies over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-logr/logr"

	"scadarag/internal/config"
	"scadarag/internal/llm"
	"scadarag/internal/loader"
	"scadarag/internal/worker"
)

// Dispatcher hands a message to the retrieval worker and waits for its reply.
type Dispatcher interface {
	Do(ctx context.Context, req worker.Request) (worker.Response, error)
}

type Server struct {
	cfg        config.ServerConfig
	worker     Dispatcher
	loader     *loader.Loader
	chats      *llm.Registry
	log        logr.Logger
	router     chi.Router
	httpServer *http.Server
}

// New wires the routes. chats may be nil, in which case every chat provider
// is unknown.
func New(cfg config.ServerConfig, w Dispatcher, l *loader.Loader, chats *llm.Registry, log logr.Logger) *Server {
	if chats == nil {
		chats = llm.NewRegistry(config.LLMConfig{})
	}
	s := &Server{
		cfg:    cfg,
		worker: w,
		loader: l,
		chats:  chats,
		log:    log.WithName("http"),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// websocket connections are long lived and stay outside the timeout
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(120 * time.Second))
		r.Post("/documents", s.handleUpload)
		r.Delete("/documents", s.handleReset)
		r.Delete("/documents/{id}", s.handleRemove)
		r.Post("/query", s.handleQuery)
		r.Post("/chat/{provider}", s.handleChat)
	})
	return r
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.log.Info("listening", "addr", s.cfg.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.V(1).Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		}()
		next.ServeHTTP(ww, r)
	})
}
