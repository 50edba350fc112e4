// Package config provides configuration loading, validation, and defaults
// for gravel-gateway.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for gravel-gateway.
type Config struct {
	Log     LogConfig     `yaml:"log"     json:"log"`
	Server  ServerConfig  `yaml:"server"  json:"server"`
	Auth    AuthConfig    `yaml:"auth"    json:"auth"`
	Cluster ClusterConfig `yaml:"cluster" json:"cluster"`
	Redis   RedisConfig   `yaml:"redis"   json:"redis"`
	Sweep   SweepConfig   `yaml:"sweep"   json:"sweep"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"  json:"level"  env:"GRAVEL_LOG_LEVEL"  validate:"omitempty,oneof=trace debug info warn error fatal panic"`
	Format string `yaml:"format" json:"format" env:"GRAVEL_LOG_FORMAT" validate:"omitempty,oneof=text json"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	ListenAddress string `yaml:"listen_address" json:"listen_address" env:"GRAVEL_LISTEN_ADDRESS" validate:"required"`
	TLSCertPath   string `yaml:"tls_cert_path"  json:"tls_cert_path"  env:"GRAVEL_TLS_CERT_PATH"  validate:"omitempty,file"`
	TLSKeyPath    string `yaml:"tls_key_path"   json:"tls_key_path"   env:"GRAVEL_TLS_KEY_PATH"   validate:"omitempty,file"`
	EnablePprof   bool   `yaml:"enable_pprof"   json:"enable_pprof"   env:"GRAVEL_ENABLE_PPROF"`
}

// AuthConfig holds request-authentication settings. An empty
// BasicAuthFile means every request is accepted.
type AuthConfig struct {
	BasicAuthFile string `yaml:"basic_auth_file" json:"basic_auth_file" env:"GRAVEL_BASIC_AUTH_FILE" validate:"omitempty,file"`
}

// ClusterConfig holds peer-forwarding settings.
type ClusterConfig struct {
	Enabled               bool     `yaml:"enabled"                    json:"enabled"                    env:"GRAVEL_CLUSTER_ENABLED"`
	SelfURL               string   `yaml:"self_url"                   json:"self_url"                   env:"GRAVEL_SELF_URL"`
	Peers                 []string `yaml:"peers"                      json:"peers"`
	PeersFile             string   `yaml:"peers_file"                 json:"peers_file"                 env:"GRAVEL_PEERS_FILE"                 validate:"omitempty,file"`
	PeersSRV              string   `yaml:"peers_srv"                  json:"peers_srv"                  env:"GRAVEL_PEERS_SRV"`
	ForwardRPS            int      `yaml:"forward_rps"                json:"forward_rps"                env:"GRAVEL_FORWARD_RPS"                validate:"omitempty,min=0"`
	ForwardBurst          int      `yaml:"forward_burst"              json:"forward_burst"              env:"GRAVEL_FORWARD_BURST"              validate:"omitempty,min=0"`
	ForwardTimeoutSeconds int      `yaml:"forward_timeout_seconds"    json:"forward_timeout_seconds"    env:"GRAVEL_FORWARD_TIMEOUT_SECONDS"    validate:"omitempty,min=1"`
}

// ForwardTimeout returns ForwardTimeoutSeconds as a time.Duration.
func (c ClusterConfig) ForwardTimeout() time.Duration {
	return time.Duration(c.ForwardTimeoutSeconds) * time.Second
}

// PeerSourceCount reports how many of the mutually exclusive peer
// sources (inline list, file, SRV lookup) are configured.
func (c ClusterConfig) PeerSourceCount() int {
	n := 0
	if len(c.Peers) > 0 {
		n++
	}
	if c.PeersFile != "" {
		n++
	}
	if c.PeersSRV != "" {
		n++
	}
	return n
}

// RedisConfig holds Redis connection settings backing activity.Tracker.
// This never stores aggregated metric state, only last-seen bookkeeping.
// Only URL is used to build the Redis client; PoolSize and MinIdleConns
// are validated and shown in /-/status but not applied to the client.
type RedisConfig struct {
	URL          string `yaml:"url"            json:"url"            env:"GRAVEL_REDIS_URL"`
	PoolSize     int    `yaml:"pool_size"      json:"pool_size"      env:"GRAVEL_REDIS_POOL_SIZE"      validate:"omitempty,min=1"`
	MinIdleConns int    `yaml:"min_idle_conns" json:"min_idle_conns" env:"GRAVEL_REDIS_MIN_IDLE_CONNS" validate:"omitempty,min=0"`
}

// SweepConfig holds the background snapshot reporter's cadence.
type SweepConfig struct {
	IntervalSeconds int `yaml:"interval_seconds" json:"interval_seconds" env:"GRAVEL_SWEEP_INTERVAL_SECONDS" validate:"omitempty,min=1"`
}

// Interval returns IntervalSeconds as a time.Duration.
func (c SweepConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Load reads a YAML configuration file, applies defaults, applies
// environment variable overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{}
	ApplyDefaults(cfg)

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides walks the config struct and overwrites fields that
// have an "env" tag if the corresponding environment variable is set.
func applyEnvOverrides(cfg *Config) {
	applyEnvOverridesOnValue(reflect.ValueOf(cfg))
}

func applyEnvOverridesOnValue(v reflect.Value) {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if fieldVal.Kind() == reflect.Struct {
			applyEnvOverridesOnValue(fieldVal.Addr())
			continue
		}
		if fieldVal.Kind() == reflect.Ptr && fieldVal.Type().Elem().Kind() == reflect.Struct {
			if !fieldVal.IsNil() {
				applyEnvOverridesOnValue(fieldVal)
			}
			continue
		}

		envKey := field.Tag.Get("env")
		if envKey == "" {
			continue
		}

		envVal, ok := os.LookupEnv(envKey)
		if !ok {
			continue
		}

		setFieldFromString(fieldVal, envVal)
	}
}

// setFieldFromString sets a reflect.Value from a string, supporting
// string, bool, int, and []string field types.
func setFieldFromString(field reflect.Value, raw string) {
	if !field.CanSet() {
		return
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)

	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err == nil {
			field.SetBool(b)
		}

	case reflect.Int:
		n, err := strconv.Atoi(raw)
		if err == nil {
			field.SetInt(int64(n))
		}

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(raw, ",")
			result := make([]string, 0, len(parts))
			for _, p := range parts {
				s := strings.TrimSpace(p)
				if s != "" {
					result = append(result, s)
				}
			}
			field.Set(reflect.ValueOf(result))
		}
	}
}

// redactString replaces a secret string with "****" if non-empty.
func redactString(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}

// Redacted returns a copy of the Config with sensitive fields masked.
func (c *Config) Redacted() Config {
	cp := *c
	cp.Redis.URL = redactString(cp.Redis.URL)
	return cp
}

// RedactedJSON returns the config as indented JSON with secrets masked.
func (c *Config) RedactedJSON() ([]byte, error) {
	redacted := c.Redacted()
	data, err := json.MarshalIndent(redacted, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling redacted config: %w", err)
	}
	return data, nil
}
