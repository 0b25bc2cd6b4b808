package httpapi

import (
	"context"
	"net/http"
	"time"

	"nadlan-parser/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// Server - HTTP-вход в приложение.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
}

// NewServer собирает роутер. Таймаут записи больше таймаута живого
// извлечения: браузерная сессия может идти больше минуты.
func NewServer(addr string, h *Handlers, writeTimeout time.Duration, log zerolog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    log.With().Str("component", "http_server").Logger(),
	}

	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-Id", "X-Acquisition-Status"},
		MaxAge:         300,
	}))
	h.RegisterRoutes(s.router)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler отдает роутер, удобно для httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start блокируется до остановки сервера.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown дожидается активных запросов в пределах ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware кладет логгер с request_id в контекст и пишет итог запроса.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		reqLog := s.log.With().Str("request_id", reqID).Logger()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), reqLog)))

		reqLog.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
