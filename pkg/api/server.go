package api

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"fiber_router/pkg/logging"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	MaxConcurrent  int
	CORSOrigin     string
}

// DefaultConfig returns defaults sized for three sequential upstream
// fetches per route request.
func DefaultConfig(addr string) ServerConfig {
	return ServerConfig{
		Addr:           addr,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   150 * time.Second,
		RequestTimeout: 140 * time.Second,
		MaxConcurrent:  runtime.NumCPU() * 2,
		CORSOrigin:     "",
	}
}

// NewServer creates an HTTP server with all routes and middleware. metrics
// may be nil to leave /metrics unmounted.
func NewServer(cfg ServerConfig, handlers *Handlers, metrics http.Handler, log logging.Logger) *http.Server {
	if log == nil {
		log = logging.Noop()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	mux := http.NewServeMux()

	// Concurrency limiter.
	sem := make(chan struct{}, cfg.MaxConcurrent)
	wrap := func(h http.HandlerFunc, limited bool) http.HandlerFunc {
		return withMiddleware(h, sem, limited, cfg, log)
	}

	// Routes.
	mux.HandleFunc("GET /calculate", wrap(handlers.HandleCalculate, true))
	mux.HandleFunc("POST /api/v1/route", wrap(handlers.HandleRoute, true))
	mux.HandleFunc("GET /api/v1/health", wrap(handlers.HandleHealth, false))
	mux.HandleFunc("GET /api/v1/stats", wrap(handlers.HandleStats, false))
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// ListenAndServe starts the server and blocks until ctx is cancelled, then
// shuts down gracefully.
func ListenAndServe(ctx context.Context, srv *http.Server, log logging.Logger) error {
	if log == nil {
		log = logging.Noop()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server listening", logging.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info(context.Background(), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withMiddleware wraps a handler with request IDs, logging, recovery,
// security headers, and, for route handlers, concurrency limiting and a
// request deadline.
func withMiddleware(handler http.HandlerFunc, sem chan struct{}, limited bool, cfg ServerConfig, log logging.Logger) http.HandlerFunc {
	if log == nil {
		log = logging.Noop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, reqID := logging.EnsureRequestID(r.Context())
		w.Header().Set("X-Request-ID", reqID)

		// Security headers.
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")

		// CORS.
		if cfg.CORSOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSOrigin)
		}

		if limited {
			// Concurrency limiter.
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			default:
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Status: "error", Message: "service unavailable"})
				return
			}

			// Request timeout.
			if cfg.RequestTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.RequestTimeout)
				defer cancel()
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		// Recovery.
		defer func() {
			if p := recover(); p != nil {
				log.Error(ctx, "handler panic",
					logging.String("request_id", reqID),
					logging.Any("panic", p),
				)
				writeJSON(rec, http.StatusInternalServerError, ErrorResponse{Status: "error", Message: "internal error"})
			}
		}()

		start := time.Now()
		handler(rec, r.WithContext(ctx))
		log.Info(ctx, "request",
			logging.String("request_id", reqID),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("elapsed", time.Since(start)),
		)
	}
}
