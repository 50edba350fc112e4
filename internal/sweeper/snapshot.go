package sweeper

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gravel-gateway/gravel-gateway/internal/aggregation"
	"github.com/gravel-gateway/gravel-gateway/internal/cluster"
	"github.com/gravel-gateway/gravel-gateway/internal/opmetrics"
)

// NewSnapshotTask builds the periodic task that keeps the operational
// family-count and peer-count gauges current, independent of any push or
// scrape (spec.md SPEC_FULL §4.M).
func NewSnapshotTask(agg *aggregation.Aggregator, cfg *cluster.Config, metrics *opmetrics.Registry, interval time.Duration, logger *logrus.Entry) *Task {
	run := func(_ context.Context) error {
		start := time.Now()
		metrics.FamilyCount.Set(float64(agg.FamilyCount()))
		if cfg != nil {
			metrics.RingPeerCount.Set(float64(cfg.PeerCount()))
		}
		metrics.SweepDuration.Observe(time.Since(start).Seconds())
		return nil
	}
	return NewTask("snapshot", interval, run, logger)
}
