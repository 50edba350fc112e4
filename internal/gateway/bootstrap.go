package gateway

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/gravel-gateway/gravel-gateway/internal/activity"
	"github.com/gravel-gateway/gravel-gateway/internal/aggregation"
	"github.com/gravel-gateway/gravel-gateway/internal/auth"
	"github.com/gravel-gateway/gravel-gateway/internal/cluster"
	"github.com/gravel-gateway/gravel-gateway/internal/config"
	"github.com/gravel-gateway/gravel-gateway/internal/forward"
	"github.com/gravel-gateway/gravel-gateway/internal/opmetrics"
)

// Build wires a Gateway from a fully validated Config: the aggregator,
// the optional cluster ring and peer-forwarding client, the optional
// basic-auth authenticator, and the activity tracker (Redis-backed when
// configured, in-memory otherwise).
func Build(cfg *config.Config, logger *logrus.Entry) (*Gateway, error) {
	log := logger.WithField("component", "gateway")
	metrics := opmetrics.NewRegistry(log)

	var authenticator auth.Authenticator = auth.PassThrough{}
	if cfg.Auth.BasicAuthFile != "" {
		b, err := auth.LoadBasic(cfg.Auth.BasicAuthFile)
		if err != nil {
			return nil, &config.Error{Reason: "loading basic auth credentials", Err: err}
		}
		authenticator = b
		log.Info("basic auth enabled")
	}

	var clusterCfg *cluster.Config
	var forwardClient *forward.Client
	if cfg.Cluster.Enabled {
		var err error
		switch {
		case len(cfg.Cluster.Peers) > 0:
			clusterCfg = cluster.NewStatic(cfg.Cluster.SelfURL, cfg.Cluster.Peers)
		case cfg.Cluster.PeersFile != "":
			clusterCfg, err = cluster.NewFromFile(cfg.Cluster.SelfURL, cfg.Cluster.PeersFile)
		case cfg.Cluster.PeersSRV != "":
			clusterCfg, err = cluster.NewFromSRV(cfg.Cluster.SelfURL, cfg.Cluster.PeersSRV)
		}
		if err != nil {
			return nil, &config.Error{Reason: "building cluster peer set", Err: err}
		}
		if clusterCfg != nil {
			log.WithField("peers", clusterCfg.PeerCount()).Info("clustering enabled")
			httpClient := &http.Client{Timeout: cfg.Cluster.ForwardTimeout()}
			forwardClient = forward.NewClient(httpClient, cfg.Cluster.ForwardRPS, cfg.Cluster.ForwardBurst, log)
		}
	}

	var tracker activity.Tracker = activity.NewMemoryTracker()
	if cfg.Redis.URL != "" {
		rt, err := activity.NewRedisTracker(cfg.Redis.URL)
		if err != nil {
			return nil, &config.Error{Reason: "connecting activity tracker to redis", Err: err}
		}
		tracker = rt
		log.Info("redis-backed activity tracking enabled")
	}

	return &Gateway{
		Aggregator: aggregation.New(),
		Cluster:    clusterCfg,
		Auth:       authenticator,
		Forward:    forwardClient,
		Activity:   tracker,
		Metrics:    metrics,
		Logger:     log,
	}, nil
}
