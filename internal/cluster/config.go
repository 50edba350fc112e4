package cluster

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
)

// Config describes a gateway's view of its cluster: its own advertised
// URL and a consistent-hash ring containing every peer plus itself.
type Config struct {
	selfURL string
	ring    *Ring
}

func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.Contains(raw, "://") {
		return "http://" + raw
	}
	return raw
}

// NewStatic builds a Config from a fixed peer list, normalizing every
// entry (including selfURL) with an "http://" prefix when no scheme is
// present, and adding self to the ring alongside the peers.
func NewStatic(selfURL string, peers []string) *Config {
	self := normalizeURL(selfURL)

	nodes := make([]string, 0, len(peers)+1)
	for _, p := range peers {
		nodes = append(nodes, normalizeURL(p))
	}
	nodes = append(nodes, self)

	return &Config{selfURL: self, ring: New(nodes)}
}

// NewFromFile builds a Config by reading one peer URL per line from path.
// Blank lines are skipped.
func NewFromFile(selfURL, path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cluster: read peers file: %w", err)
	}
	defer f.Close()

	var peers []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		peers = append(peers, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cluster: read peers file: %w", err)
	}

	return NewStatic(selfURL, peers), nil
}

// NewFromSRV builds a Config by resolving a DNS SRV record into a peer
// list. There is no third-party DNS resolver anywhere in this project's
// dependency tree, so this one ambient concern is implemented directly
// against net.LookupSRV (see DESIGN.md).
func NewFromSRV(selfURL, service string) (*Config, error) {
	_, records, err := net.LookupSRV("", "", service)
	if err != nil {
		return nil, fmt.Errorf("cluster: resolve SRV %q: %w", service, err)
	}

	peers := make([]string, 0, len(records))
	for _, rec := range records {
		target := strings.TrimSuffix(rec.Target, ".")
		peers = append(peers, fmt.Sprintf("%s:%d", target, rec.Port))
	}

	return NewStatic(selfURL, peers), nil
}

// IsSelf reports whether url, after normalization, names this gateway.
func (c *Config) IsSelf(url string) bool {
	return normalizeURL(url) == c.selfURL
}

// OwnerFor returns the peer URL owning key under the consistent-hash
// ring.
func (c *Config) OwnerFor(key string) string {
	return c.ring.NodeFor(key)
}

// SelfURL returns this gateway's own normalized advertised URL.
func (c *Config) SelfURL() string { return c.selfURL }

// PeerCount reports how many nodes (including self) sit on the ring.
func (c *Config) PeerCount() int { return c.ring.Len() }
