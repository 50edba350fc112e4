// Package main is the CLI entry point for gravel-gateway.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/gravel-gateway/gravel-gateway/internal/config"
	"github.com/gravel-gateway/gravel-gateway/internal/gateway"
	"github.com/gravel-gateway/gravel-gateway/internal/server"
	"github.com/gravel-gateway/gravel-gateway/internal/sweeper"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	app := &cli.Command{
		Name:    "gravel-gateway",
		Usage:   "A merge-semantics Prometheus push gateway",
		Version: version,
		Commands: []*cli.Command{
			runCommand(),
			versionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Start the gateway",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Sources: cli.EnvVars("GRAVEL_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "HTTP listen address (e.g. :9091)",
				Sources: cli.EnvVars("GRAVEL_LISTEN_ADDRESS"),
			},
			&cli.StringFlag{
				Name:    "tls-cert",
				Usage:   "TLS certificate path (requires --tls-key)",
				Sources: cli.EnvVars("GRAVEL_TLS_CERT_PATH"),
			},
			&cli.StringFlag{
				Name:    "tls-key",
				Usage:   "TLS key path (requires --tls-cert)",
				Sources: cli.EnvVars("GRAVEL_TLS_KEY_PATH"),
			},
			&cli.StringFlag{
				Name:    "basic-auth-file",
				Usage:   "Path to a file of bcrypt credential hashes, one per line",
				Sources: cli.EnvVars("GRAVEL_BASIC_AUTH_FILE"),
			},
			&cli.BoolFlag{
				Name:    "cluster-enabled",
				Usage:   "Enable consistent-hash peer routing",
				Sources: cli.EnvVars("GRAVEL_CLUSTER_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "self-url",
				Usage:   "This node's own advertised URL",
				Sources: cli.EnvVars("GRAVEL_SELF_URL"),
			},
			&cli.StringSliceFlag{
				Name:  "peer",
				Usage: "Peer URL (repeatable). Mutually exclusive with --peers-srv/--peers-file",
			},
			&cli.StringFlag{
				Name:  "peers-srv",
				Usage: "DNS SRV name to resolve for peers",
			},
			&cli.StringFlag{
				Name:  "peers-file",
				Usage: "Path to a newline-delimited peer list",
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL backing the activity tracker (optional)",
				Sources: cli.EnvVars("GRAVEL_REDIS_URL"),
			},
			&cli.IntFlag{
				Name:  "redis-pool-size",
				Usage: "Redis connection pool size (recorded in the config; the activity tracker's Redis client keeps its default pool size)",
			},
			&cli.IntFlag{
				Name:  "sweep-interval",
				Usage: "Seconds between operational metric snapshots",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (trace, debug, info, warn, error, fatal, panic)",
				Value:   "info",
				Sources: cli.EnvVars("GRAVEL_LOG_LEVEL"),
			},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cmd.String("log-level"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log := logger.WithField("app", "gravel-gateway")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := applyFlagOverrides(cfg, cmd); err != nil {
		return err
	}

	if err := config.Validate(cfg); err != nil {
		return &config.Error{Reason: "validating configuration", Err: err}
	}

	log.WithFields(logrus.Fields{"version": version, "commit": commit}).Info("starting gravel-gateway")

	gw, err := gateway.Build(cfg, log)
	if err != nil {
		return err
	}

	sweep := sweeper.NewScheduler(log)
	sweep.AddTask(sweeper.NewSnapshotTask(gw.Aggregator, gw.Cluster, gw.Metrics, cfg.Sweep.Interval(), log))

	srv := server.NewServer(cfg, gw, gw.Metrics, log)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweep.Start(runCtx)

	if err := srv.Start(runCtx); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	srv.SetReady(true)
	log.Info("gravel-gateway is ready")

	<-runCtx.Done()
	log.Info("shutting down")
	srv.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("error during server shutdown")
	}
	sweep.Stop()

	if err := gw.Activity.Close(); err != nil {
		log.WithError(err).Error("error closing activity tracker")
	}

	return nil
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")
	if path == "" {
		cfg := &config.Config{}
		config.ApplyDefaults(cfg)
		return cfg, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, &config.Error{Reason: fmt.Sprintf("loading config from %s", path), Err: err}
	}
	return cfg, nil
}

// applyFlagOverrides lets CLI flags win over config-file and environment
// values, matching the precedence the teacher's run command uses.
func applyFlagOverrides(cfg *config.Config, cmd *cli.Command) error {
	if v := cmd.String("listen"); v != "" {
		cfg.Server.ListenAddress = v
	}
	if v := cmd.String("tls-cert"); v != "" {
		cfg.Server.TLSCertPath = v
	}
	if v := cmd.String("tls-key"); v != "" {
		cfg.Server.TLSKeyPath = v
	}
	if (cfg.Server.TLSCertPath == "") != (cfg.Server.TLSKeyPath == "") {
		return &config.Error{Reason: "--tls-cert and --tls-key must be given together"}
	}

	if v := cmd.String("basic-auth-file"); v != "" {
		cfg.Auth.BasicAuthFile = v
	}

	if cmd.Bool("cluster-enabled") {
		cfg.Cluster.Enabled = true
	}
	if v := cmd.String("self-url"); v != "" {
		cfg.Cluster.SelfURL = v
	}
	if peers := cmd.StringSlice("peer"); len(peers) > 0 {
		cfg.Cluster.Peers = peers
	}
	if v := cmd.String("peers-srv"); v != "" {
		cfg.Cluster.PeersSRV = v
	}
	if v := cmd.String("peers-file"); v != "" {
		cfg.Cluster.PeersFile = v
	}
	if cfg.Cluster.Enabled && cfg.Cluster.PeerSourceCount() != 1 {
		return &config.Error{Reason: "exactly one of --peer, --peers-srv, or --peers-file is required when clustering is enabled"}
	}

	if v := cmd.String("redis-url"); v != "" {
		cfg.Redis.URL = v
	}
	if v := cmd.Int("redis-pool-size"); v > 0 {
		cfg.Redis.PoolSize = int(v)
	}
	if v := cmd.Int("sweep-interval"); v > 0 {
		cfg.Sweep.IntervalSeconds = int(v)
	}

	return nil
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(_ context.Context, _ *cli.Command) error {
			fmt.Printf("gravel-gateway %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
