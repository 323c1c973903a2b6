package controlplane

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP transport over a Gateway: a chi router with /rpc,
// /metrics, and /health mounted.
type Server struct {
	gateway *Gateway
}

// NewServer builds a Server over gateway.
func NewServer(gateway *Gateway) *Server {
	return &Server{gateway: gateway}
}

// Handler returns the chi router with /rpc and /metrics mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Post("/rpc", s.handleRPC)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

// handleRPC submits the request body to the Gateway's queue and blocks
// until the next Drain delivers a response; out-of-process callers see a
// plain synchronous HTTP request/response even though, internally, the
// call waited for the next epoch boundary.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, newParseError(nil))
		return
	}
	resp := <-s.gateway.Submit(raw)
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
