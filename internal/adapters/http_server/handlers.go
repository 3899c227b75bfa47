// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"gbp_reviews/internal/app"
	"gbp_reviews/internal/domain"
	"gbp_reviews/internal/web"
)

type Handlers struct {
	Svc *app.ReviewService
	// AdminKey gates the account/location pass-throughs. Empty means locked,
	// not open.
	AdminKey string
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/", h.index)
	s.mux.Get("/reviews", h.getReviews)
	s.mux.Get("/accounts", h.requireKey(h.getAccounts))
	s.mux.Get("/locations", h.requireKey(h.getLocations))
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		// Log but don't fail the whole response; return empty ETag and best-effort body.
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func (h *Handlers) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(web.IndexHTML); err != nil {
		log.Error().Err(err).Msg("failed to write index page")
	}
}

func (h *Handlers) getReviews(w http.ResponseWriter, r *http.Request) {
	res, err := h.safeReviews(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoLocation) {
			writeProblem(w, http.StatusBadRequest, "Missing Configuration", "account and location must be configured")
			return
		}
		// whatever history exists still goes out, flagged as degraded
		log.Error().Err(err).Msg("reviews cycle failed, serving cache-only payload")
		writeJSON(w, http.StatusInternalServerError, h.Svc.CachedOnly(r.Context(), "internal error"))
		return
	}

	etag, body := calcETagAndBody(res)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write reviews body")
	}
}

// safeReviews turns a panicking cycle into an error so getReviews can still
// answer with the degraded payload instead of a bare 500.
func (h *Handlers) safeReviews(ctx context.Context) (res app.ReviewsResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("reviews cycle panicked")
			err = fmt.Errorf("reviews cycle: %v", rec)
		}
	}()
	return h.Svc.Reviews(ctx)
}

// requireKey gates management endpoints behind the shared-secret query
// parameter.
func (h *Handlers) requireKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		if h.AdminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.AdminKey)) != 1 {
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid key")
			return
		}
		next(w, r)
	}
}

func (h *Handlers) getAccounts(w http.ResponseWriter, r *http.Request) {
	raw, err := h.Svc.Accounts(r.Context())
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Upstream Error", "account listing failed")
		return
	}
	writeRaw(w, raw)
}

func (h *Handlers) getLocations(w http.ResponseWriter, r *http.Request) {
	raw, err := h.Svc.Locations(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoLocation) {
			writeProblem(w, http.StatusBadRequest, "Missing Configuration", "account must be configured")
			return
		}
		writeProblem(w, http.StatusBadGateway, "Upstream Error", "location listing failed")
		return
	}
	writeRaw(w, raw)
}

func writeRaw(w http.ResponseWriter, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		log.Error().Err(err).Msg("failed to write pass-through body")
	}
}
