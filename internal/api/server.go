package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-ledger/internal/config"
	"github.com/babylonlabs-io/staking-ledger/internal/observability/tracing"
	"github.com/babylonlabs-io/staking-ledger/internal/services"
)

type Server struct {
	httpServer *http.Server
}

func NewServer(cfg *config.ServerConfig, service *services.Service) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Address(),
			Handler:      NewRouter(NewHandler(service)),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(traceMiddleware, logMiddleware)

	r.Get("/healthcheck", wrap(h.healthcheck))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/vaults", wrap(h.createVault))
		r.Get("/vaults/{authority}", wrap(h.getVault))
		r.Get("/vaults/{authority}/consistency", wrap(h.checkVaultConsistency))

		r.Post("/stakers", wrap(h.createStakeRecord))
		r.Get("/stakers/{participant}", wrap(h.getStakeRecord))
		r.Post("/stakers/{participant}/stake", wrap(h.stake))
		r.Post("/stakers/{participant}/unstake", wrap(h.unstake))
		r.Post("/stakers/{participant}/claim", wrap(h.claim))
	})

	return r
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Msgf("Starting ledger server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// traceMiddleware continues the caller's trace id or starts a new one and
// echoes it back.
func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := tracing.WithTraceID(r.Context(), r.Header.Get(tracing.TraceIDHeader))
		w.Header().Set(tracing.TraceIDHeader, tracing.TraceID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.Ctx(r.Context()).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request served")
	})
}
