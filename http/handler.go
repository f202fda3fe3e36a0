package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fwojciec/adsift"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxRequestBytes bounds the size of a resolve request body.
const maxRequestBytes = 64 << 10

// Handler serves a Resolver over HTTP.
//
//	POST /resolve   {"type":"RESOLVE_URL","url":"..."} -> {"ok":true,"url":"..."}
//	GET  /healthz
//	GET  /metrics   when a metrics handler is configured
type Handler struct {
	router   *chi.Mux
	resolver adsift.Resolver
	metrics  http.Handler
	logger   *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) HandlerOption {
	return func(s *Handler) {
		s.metrics = h
	}
}

// WithLogger sets the handler's logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(s *Handler) {
		s.logger = logger
	}
}

// NewHandler creates a Handler for resolver. A nil resolver leaves
// /resolve unmounted.
func NewHandler(resolver adsift.Resolver, opts ...HandlerOption) *Handler {
	h := &Handler{resolver: resolver}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if h.resolver != nil {
		r.Post("/resolve", h.handleResolve)
	}
	r.Get("/healthz", h.handleHealth)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	h.router = r
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req adsift.ResolveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &adsift.ResolveResponse{Error: "invalid request body"})
		return
	}

	resp, err := h.resolver.Resolve(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if adsift.ErrorCode(err) == adsift.EINVALID {
			status = http.StatusBadRequest
		} else {
			h.logger.Error("resolve", "url", req.URL, "request_id", middleware.GetReqID(r.Context()), "err", err)
		}
		writeJSON(w, status, &adsift.ResolveResponse{URL: req.URL, Error: adsift.ErrorMessage(err)})
		return
	}
	if resp == nil {
		resp = &adsift.ResolveResponse{URL: req.URL, Error: "no response"}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
