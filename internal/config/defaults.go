package config

// ApplyDefaults sets sensible default values on the given Config. Values
// set here are overwritten by whatever the YAML file and environment
// provide, so these are just the baseline.
func ApplyDefaults(cfg *Config) {
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"

	cfg.Server.ListenAddress = ":9091"

	cfg.Cluster.ForwardRPS = 20
	cfg.Cluster.ForwardBurst = 40
	cfg.Cluster.ForwardTimeoutSeconds = 5

	cfg.Redis.PoolSize = 10
	cfg.Redis.MinIdleConns = 2

	cfg.Sweep.IntervalSeconds = 15
}
