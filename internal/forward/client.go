package forward

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
)

// Client forwards a push's raw body, unchanged, to whichever peer owns
// it. It never parses or re-encodes the body: a non-owner node is purely
// a relay (spec.md §4.E).
type Client struct {
	http    *http.Client
	mu      sync.Mutex
	limiter map[string]*Limiter
	rps     int
	burst   int
	logger  *logrus.Entry
}

// NewClient builds a Client that paces forwards to each peer at rps
// requests/second with the given burst.
func NewClient(httpClient *http.Client, rps, burst int, logger *logrus.Entry) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		http:    httpClient,
		limiter: make(map[string]*Limiter),
		rps:     rps,
		burst:   burst,
		logger:  logger,
	}
}

func (c *Client) limiterFor(peer string) *Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiter[peer]
	if !ok {
		l = NewLimiter(c.rps, c.burst, c.logger.WithField("peer", peer))
		c.limiter[peer] = l
	}
	return l
}

// Forward relays body to peer+path unchanged, preserving the
// Authorization header when authHeader is non-empty so peer-to-peer auth
// chains the same way client-to-gateway auth does.
func (c *Client) Forward(ctx context.Context, peer, path, authHeader string, body []byte) error {
	limiter := c.limiterFor(peer)
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("forward: rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, peer+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("forward: build request: %w", err)
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("forward: %s: %w", peer, err)
	}
	defer resp.Body.Close()

	limiter.ObserveResponse(resp.StatusCode, resp.Header)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("forward: peer %s rejected push: %s", peer, resp.Status)
	}
	return nil
}
