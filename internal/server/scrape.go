package server

import (
	"net/http"

	"github.com/prometheus/common/expfmt"
)

// handleScrape renders every family currently held in text exposition
// format. Content negotiation is intentionally minimal: this gateway
// always serves the text format, matching the reference implementation's
// fixed "text/plain; version=0.0.4" response.
func (s *Server) handleScrape(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", string(expfmt.FmtText))

	if err := s.gateway.Aggregator.Render(w, expfmt.FmtText); err != nil {
		s.logger.WithError(err).Error("failed to render metrics")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.metrics.ScrapesTotal.Inc()
}
