// Package server is the thin HTTP front end over the resolution pipeline.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"snag/internal/failure"
	"snag/internal/media"
)

const maxRequestBody = 64 * 1024

// Handler runs one request through the pipeline.
type Handler interface {
	Handle(ctx context.Context, req media.Request) media.Response
}

// Options configure the router.
type Options struct {
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int
	// DefaultQuality and DefaultKind fill fields a client leaves empty.
	DefaultQuality string
	DefaultKind    media.KindHint
	Gatherer       prometheus.Gatherer
}

// NewRouter wires routes and middleware.
func NewRouter(h Handler, opts Options, log zerolog.Logger) http.Handler {
	log = log.With().Str("component", "http").Logger()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
		}
		r.Post("/resolve", resolveHandler(h, opts))
	})
	return r
}

func resolveHandler(h Handler, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req media.Request
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, media.Response{
				Success: false,
				Error:   "Request body must be JSON: {\"url\": \"...\", \"quality\": \"sd|hd\"}.",
				Code:    string(failure.CodeInvalidURL),
			})
			return
		}
		if req.Quality == "" {
			req.Quality = opts.DefaultQuality
		}
		if req.Kind == "" {
			req.Kind = opts.DefaultKind
		}

		resp := h.Handle(r.Context(), req)
		writeJSON(w, StatusFor(resp), resp)
	}
}

// StatusFor maps a response onto an HTTP status.
func StatusFor(resp media.Response) int {
	if resp.Success {
		return http.StatusOK
	}
	switch failure.Code(resp.Code) {
	case failure.CodeInvalidURL:
		return http.StatusBadRequest
	case failure.CodeUnsupportedPlatform, failure.CodeQualityNotFound:
		return http.StatusUnprocessableEntity
	case failure.CodeMediaUnavailable:
		return http.StatusNotFound
	case failure.CodeExtractionError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		})
	}
}

// Run serves handler on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		srv.Close()
		return err
	}
	return nil
}
