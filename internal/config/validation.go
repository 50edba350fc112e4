package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate validates the configuration using struct tags registered with
// the go-playground/validator library, plus the cross-field rules that
// tags alone can't express.
func Validate(cfg *Config) error {
	v := validator.New()
	v.RegisterStructValidation(validateServerConfig, ServerConfig{})
	v.RegisterStructValidation(validateClusterConfig, ClusterConfig{})

	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// validateServerConfig enforces that TLS is configured with both a cert
// and a key, or neither — never one without the other.
func validateServerConfig(sl validator.StructLevel) {
	s := sl.Current().Interface().(ServerConfig)
	if (s.TLSCertPath == "") != (s.TLSKeyPath == "") {
		sl.ReportError(s.TLSCertPath, "TLSCertPath", "tls_cert_path", "tls_pair", "")
		sl.ReportError(s.TLSKeyPath, "TLSKeyPath", "tls_key_path", "tls_pair", "")
	}
}

// validateClusterConfig enforces that an enabled cluster has exactly one
// peer source (inline list, file, or SRV lookup) configured.
func validateClusterConfig(sl validator.StructLevel) {
	c := sl.Current().Interface().(ClusterConfig)
	if !c.Enabled {
		return
	}
	if n := c.PeerSourceCount(); n != 1 {
		sl.ReportError(c.Peers, "Peers", "peers", "exactly_one_peer_source", "")
	}
}
