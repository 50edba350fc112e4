package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gravel-gateway/gravel-gateway/internal/aggregation"
	"github.com/gravel-gateway/gravel-gateway/internal/gateway"
)

func (s *Server) handleMetricsRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleScrape(w, r)
	case http.MethodPost, http.MethodPut:
		s.ingest(w, r, "")
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleMetricsTail(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost, http.MethodPut:
		s.ingest(w, r, strings.TrimPrefix(r.URL.Path, "/metrics/"))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ingest reads the request body and hands it, along with the URL tail and
// Authorization header, to the gateway for label decoding, auth, routing,
// and merge.
func (s *Server) ingest(w http.ResponseWriter, r *http.Request, tail string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	s.metrics.IngestBodyBytes.Observe(float64(len(body)))

	err = s.gateway.Ingest(r.Context(), tail, r.Header.Get("Authorization"), body)
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	writeIngestError(w, err)
}

func writeIngestError(w http.ResponseWriter, err error) {
	var tailErr *gateway.TailError
	var authErr *gateway.AuthError
	var forwardErr *gateway.ForwardError
	var parseErr *aggregation.ParseError
	var mergeErr *aggregation.InvalidMergeError
	var utf8Err *aggregation.BadUTF8Error

	switch {
	case errors.As(err, &tailErr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &authErr):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.As(err, &utf8Err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &parseErr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &mergeErr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, aggregation.ErrUnimplementedSummary):
		http.Error(w, err.Error(), http.StatusNotImplemented)
	case errors.As(err, &forwardErr):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
