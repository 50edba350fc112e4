// Package server provides the HTTP server exposing the aggregated
// /metrics endpoint (push and scrape), operational status endpoints, and
// gravel's own internal metrics.
package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/gravel-gateway/gravel-gateway/internal/config"
	"github.com/gravel-gateway/gravel-gateway/internal/gateway"
	"github.com/gravel-gateway/gravel-gateway/internal/opmetrics"
)

// Server is the HTTP server exposing the push/scrape endpoint and the
// gateway's operational surface.
type Server struct {
	httpServer *http.Server
	gateway    *gateway.Gateway
	metrics    *opmetrics.Registry
	config     *config.Config
	startedAt  time.Time
	ready      atomic.Bool
	logger     *logrus.Entry
}

// NewServer builds a Server configured from cfg, serving pushes and
// scrapes through gw.
func NewServer(cfg *config.Config, gw *gateway.Gateway, metrics *opmetrics.Registry, logger *logrus.Entry) *Server {
	s := &Server{
		gateway:   gw,
		metrics:   metrics,
		config:    cfg,
		startedAt: time.Now(),
		logger:    logger.WithField("component", "server"),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/metrics", s.handleMetricsRoot)
	mux.HandleFunc("/metrics/", s.handleMetricsTail)

	mux.HandleFunc("/-/healthy", s.handleHealthy)
	mux.HandleFunc("/-/ready", s.handleReady)
	mux.HandleFunc("/-/status", s.handleStatus)

	mux.Handle("/internal/metrics", promhttp.HandlerFor(metrics.Gatherer(), promhttp.HandlerOpts{}))

	if cfg.Server.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
		s.logger.Info("pprof endpoints enabled under /debug/pprof/")
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Server.ListenAddress,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins serving HTTP (or HTTPS, when a TLS pair is configured) in
// a background goroutine. It returns once the listener has had a chance
// to bind, surfacing any immediate startup error.
func (s *Server) Start(ctx context.Context) error {
	tls := s.config.Server.TLSCertPath != "" && s.config.Server.TLSKeyPath != ""

	s.logger.WithFields(logrus.Fields{"addr": s.httpServer.Addr, "tls": tls}).Info("starting HTTP server")

	errCh := make(chan error, 1)
	go func() {
		var err error
		if tls {
			err = s.httpServer.ListenAndServeTLS(s.config.Server.TLSCertPath, s.config.Server.TLSKeyPath)
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP server error")
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	return nil
}

// Stop performs a graceful shutdown, waiting up to ctx's deadline for
// in-flight requests to complete.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// SetReady updates the readiness state exposed by /-/ready.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *Server) handleHealthy(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(`{"status":"not_ready"}`))
}
