/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package httpapi serves health card verification over HTTP.
package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-jose/go-jose/v3/json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trustbloc/shc-go/healthcard"
	"github.com/trustbloc/shc-go/terminology"
	"github.com/trustbloc/shc-go/trust"
)

const (
	maxRequestBytes = 1 << 20
	requestTimeout  = 30 * time.Second
)

// Service defines the verification operations exposed over HTTP.
type Service interface {
	Verify(ctx context.Context, in healthcard.Input) healthcard.Result
	Lookup(ctx context.Context, system, code string) (string, bool, error)
	Issuers() []trust.Issuer
}

// LookupResponse is the body of a successful terminology lookup.
type LookupResponse struct {
	System  string `json:"system"`
	Code    string `json:"code"`
	Display string `json:"display"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler wires verification endpoints to the verification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the versioned API endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.RequestID)
	api.Use(middleware.Recoverer)
	api.Use(middleware.Timeout(requestTimeout))
	api.Post("/verify", h.HandleVerify)
	api.Get("/terminology", h.HandleLookup)
	api.Get("/issuers", h.HandleIssuers)

	r.Mount("/v1", api)
}

// NewRouter builds the complete server router: the versioned API, a liveness probe and,
// when gatherer is not nil, the Prometheus scrape endpoint.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) chi.Router {
	r := chi.NewRouter()

	h.Register(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// HandleVerify handles POST /v1/verify requests.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)
	start := time.Now()

	var in healthcard.Input

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}

	if err = json.Unmarshal(body, &in); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object with a jws member")
		return
	}

	if strings.TrimSpace(in.JWS) == "" {
		writeError(w, http.StatusBadRequest, "jws is required")
		return
	}

	result := h.service.Verify(ctx, in)

	h.logger.InfoContext(ctx, "card verified",
		"request_id", requestID,
		"issuer", result.Issuer,
		"state", result.State.String(),
		"verdict", result.Verdict.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	writeJSON(w, http.StatusOK, result)
}

// HandleLookup handles GET /v1/terminology?system=...&code=... requests.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	system := r.URL.Query().Get("system")
	code := r.URL.Query().Get("code")

	if system == "" || code == "" {
		writeError(w, http.StatusBadRequest, "system and code are required")
		return
	}

	display, found, err := h.service.Lookup(ctx, system, code)
	if err != nil {
		h.logger.ErrorContext(ctx, "terminology lookup failed",
			"request_id", middleware.GetReqID(ctx),
			"system", system,
			"code", code,
			"error", err,
		)

		if errors.Is(err, terminology.ErrInvalidServerURL) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeError(w, http.StatusInternalServerError, "terminology lookup failed")

		return
	}

	if !found {
		writeError(w, http.StatusNotFound, "no display text for "+system+"|"+code)
		return
	}

	writeJSON(w, http.StatusOK, LookupResponse{System: system, Code: code, Display: display})
}

// HandleIssuers handles GET /v1/issuers requests. With an iss query parameter only the
// matching record is returned.
func (h *Handler) HandleIssuers(w http.ResponseWriter, r *http.Request) {
	issuers := h.service.Issuers()

	iss := r.URL.Query().Get("iss")
	if iss == "" {
		writeJSON(w, http.StatusOK, issuers)
		return
	}

	for _, issuer := range issuers {
		if issuer.ISS == iss || (issuer.CanonicalISS != "" && issuer.CanonicalISS == iss) {
			writeJSON(w, http.StatusOK, issuer)
			return
		}
	}

	writeError(w, http.StatusNotFound, "issuer not found: "+iss)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
