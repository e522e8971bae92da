// Package http is the thin HTTP surface over the scan core. Request-level
// validation, status mapping and metrics exposure live here; the core only
// ever sees an opaque mint string.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mr-tron/base58"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/cryptoguard/tokenscan/internal/resilience"
	"github.com/cryptoguard/tokenscan/internal/scan"
)

// Server serves scan, health and metrics endpoints.
type Server struct {
	scanner *scan.Scanner
	res     *resilience.Context
	router  *mux.Router
}

// NewServer builds the router over a scanner and its resilience context.
// gatherer feeds the /metrics endpoint; pass the registry the scanner's
// telemetry was registered on.
func NewServer(scanner *scan.Scanner, res *resilience.Context, gatherer prometheus.Gatherer) *Server {
	s := &Server{scanner: scanner, res: res, router: mux.NewRouter()}

	s.router.HandleFunc("/v1/scan/{mint}", s.handleScan).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return s
}

// Handler returns the root handler for use by an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving on addr.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("http server listening")
	return srv.ListenAndServe()
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	mint := mux.Vars(r)["mint"]
	if !validMint(mint) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid mint address: expected a base58-encoded 32-byte public key",
		})
		return
	}

	// The scan runs to completion even if the client goes away: every
	// provider call has its own timeout, results are cached for the next
	// request, and breaker accounting must reflect upstream health only.
	result := s.scanner.Scan(context.WithoutCancel(r.Context()), mint)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"breakers": s.res.Breakers.Snapshot(),
		"cache":    s.res.Cache.Stats(),
	})
}

// validMint accepts only base58 strings that decode to a 32-byte key, the
// on-chain mint account format.
func validMint(mint string) bool {
	decoded, err := base58.Decode(mint)
	return err == nil && len(decoded) == 32
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
