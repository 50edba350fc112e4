package server

import (
	"encoding/json"
	"net/http"
	"time"
)

type statusResponse struct {
	UptimeSeconds float64     `json:"uptime_seconds"`
	Families      int         `json:"families"`
	ClusterPeers  int         `json:"cluster_peers,omitempty"`
	Config        interface{} `json:"config"`
}

// handleStatus reports a redacted snapshot of the running configuration
// plus a few live counters, for operators checking what a node is doing
// without scraping its operational metrics.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
		Families:      s.gateway.Aggregator.FamilyCount(),
		Config:        s.config.Redacted(),
	}
	if s.gateway.Cluster != nil {
		resp.ClusterPeers = s.gateway.Cluster.PeerCount()
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		s.logger.WithError(err).Error("failed to encode status")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
