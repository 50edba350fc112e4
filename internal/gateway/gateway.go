// Package gateway wires the aggregation engine together with clustering,
// authentication, forwarding, and activity tracking into the single
// operation the HTTP layer calls on every push: Ingest.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/gravel-gateway/gravel-gateway/internal/activity"
	"github.com/gravel-gateway/gravel-gateway/internal/aggregation"
	"github.com/gravel-gateway/gravel-gateway/internal/auth"
	"github.com/gravel-gateway/gravel-gateway/internal/cluster"
	"github.com/gravel-gateway/gravel-gateway/internal/forward"
	"github.com/gravel-gateway/gravel-gateway/internal/opmetrics"
)

// jobLabel is the push-gateway-style URL segment name used both as the
// extra label applied to every pushed sample and as the cluster routing
// key, matching the reference implementation's job-keyed routing.
const jobLabel = "job"

// Gateway orchestrates one push end to end: label decoding, auth,
// cluster routing, merge, and activity bookkeeping.
type Gateway struct {
	Aggregator *aggregation.Aggregator
	Cluster    *cluster.Config
	Auth       auth.Authenticator
	Forward    *forward.Client
	Activity   activity.Tracker
	Metrics    *opmetrics.Registry
	Logger     *logrus.Entry
}

// TailError reports a malformed URL-path label segment.
type TailError struct {
	Reason string
}

func (e *TailError) Error() string { return fmt.Sprintf("gateway: invalid URL path: %s", e.Reason) }

// ParseTail decodes a push-gateway-style path tail ("/job/foo/instance/bar")
// into a label set, percent-decoding each segment so that values such as
// "localhost:80" survive a path of "job/localhost%3A80" unchanged.
func ParseTail(tail string) (map[string]string, error) {
	tail = strings.Trim(tail, "/")
	labels := make(map[string]string)
	if tail == "" {
		return labels, nil
	}

	segments := strings.Split(tail, "/")
	for i := 0; i < len(segments); i += 2 {
		name, err := url.PathUnescape(segments[i])
		if err != nil {
			return nil, &TailError{Reason: fmt.Sprintf("label name %q: %v", segments[i], err)}
		}
		if i+1 >= len(segments) {
			return nil, &TailError{Reason: fmt.Sprintf("label value missing for %q", name)}
		}
		value, err := url.PathUnescape(segments[i+1])
		if err != nil {
			return nil, &TailError{Reason: fmt.Sprintf("label value for %q: %v", name, err)}
		}
		labels[name] = value
	}
	return labels, nil
}

// Ingest decodes the URL tail into extra labels, authenticates the
// request, routes to the owning peer when clustering is enabled and this
// node does not own the key, and otherwise merges body into the
// aggregator directly.
func (g *Gateway) Ingest(ctx context.Context, tail, authHeader string, body []byte) error {
	labels, err := ParseTail(tail)
	if err != nil {
		g.Metrics.PushErrorsTotal.WithLabelValues("bad_path").Inc()
		return err
	}

	if g.Auth != nil && !g.Auth.Authenticate(authHeader) {
		g.Metrics.PushErrorsTotal.WithLabelValues("unauthorized").Inc()
		return &AuthError{}
	}

	if !utf8.Valid(body) {
		g.Metrics.PushErrorsTotal.WithLabelValues("bad_utf8").Inc()
		return &aggregation.BadUTF8Error{}
	}

	if g.Cluster != nil {
		key := labels[jobLabel]
		owner := g.Cluster.OwnerFor(key)
		if owner != "" && !g.Cluster.IsSelf(owner) {
			if err := g.Forward.Forward(ctx, owner, "/metrics/"+strings.TrimPrefix(tail, "/"), authHeader, body); err != nil {
				g.Metrics.ForwardsTotal.WithLabelValues("error").Inc()
				return &ForwardError{Peer: owner, Err: err}
			}
			g.Metrics.ForwardsTotal.WithLabelValues("ok").Inc()
			g.touch(ctx, key)
			return nil
		}
	}

	if err := g.Aggregator.ParseAndMerge(bytes.NewReader(body), labels); err != nil {
		g.Metrics.PushErrorsTotal.WithLabelValues("merge").Inc()
		return err
	}

	g.Metrics.PushesTotal.WithLabelValues("merged").Inc()
	g.touch(ctx, labels[jobLabel])
	return nil
}

func (g *Gateway) touch(ctx context.Context, key string) {
	if g.Activity == nil || key == "" {
		return
	}
	if err := g.Activity.Touch(ctx, key, time.Now()); err != nil {
		g.Logger.WithError(err).WithField("key", key).Warn("failed to record activity")
	}
}

// AuthError is returned when a request's credentials are missing or
// invalid.
type AuthError struct{}

func (e *AuthError) Error() string { return "gateway: unauthorized" }

// ForwardError wraps a failure relaying a push to the owning peer.
type ForwardError struct {
	Peer string
	Err  error
}

func (e *ForwardError) Error() string {
	return fmt.Sprintf("gateway: forwarding to %s: %v", e.Peer, e.Err)
}

func (e *ForwardError) Unwrap() error { return e.Err }
