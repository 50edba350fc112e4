package aggregation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func TestResolveClearModeDefaults(t *testing.T) {
	assert.Equal(t, ClearReplace, resolveClearMode("", dto.MetricType_GAUGE).Mode)
	assert.Equal(t, ClearAggregate, resolveClearMode("", dto.MetricType_COUNTER).Mode)
	assert.Equal(t, ClearAggregate, resolveClearMode("", dto.MetricType_HISTOGRAM).Mode)
}

func TestResolveClearModeExplicit(t *testing.T) {
	assert.Equal(t, ClearAggregate, resolveClearMode("aggregate", dto.MetricType_GAUGE).Mode)
	assert.Equal(t, ClearAggregate, resolveClearMode("sum", dto.MetricType_GAUGE).Mode)
	assert.Equal(t, ClearReplace, resolveClearMode("replace", dto.MetricType_COUNTER).Mode)
	assert.Equal(t, ClearFamily, resolveClearMode("family", dto.MetricType_COUNTER).Mode)
	assert.Equal(t, ClearFamily, resolveClearMode("info", dto.MetricType_COUNTER).Mode)
}

func TestResolveClearModeUnknownFallsBackToDefault(t *testing.T) {
	eff := resolveClearMode("nonsense", dto.MetricType_GAUGE)
	assert.Equal(t, ClearReplace, eff.Mode)
}

func TestResolveClearModeWindowed(t *testing.T) {
	eff := resolveClearMode("sum5m", dto.MetricType_COUNTER)
	require.Equal(t, ClearSum, eff.Mode)
	assert.Equal(t, 5*time.Minute, eff.Duration)

	eff = resolveClearMode("mean30s", dto.MetricType_GAUGE)
	require.Equal(t, ClearMean, eff.Mode)
	assert.Equal(t, 30*time.Second, eff.Duration)

	eff = resolveClearMode("mean2h", dto.MetricType_GAUGE)
	require.Equal(t, ClearMean, eff.Mode)
	assert.Equal(t, 2*time.Hour, eff.Duration)
}

func TestParseDurationRejectsBadInput(t *testing.T) {
	_, err := parseDuration("")
	assert.Error(t, err)

	_, err = parseDuration("5")
	assert.Error(t, err)

	_, err = parseDuration("5x")
	assert.Error(t, err)
}

func TestStripClearMode(t *testing.T) {
	name1, value1 := ClearModeLabel, "replace"
	name2, value2 := "job", "foo"
	labels := []*dto.LabelPair{
		{Name: &name1, Value: &value1},
		{Name: &name2, Value: &value2},
	}

	out := stripClearMode(labels)
	require.Len(t, out, 1)
	assert.Equal(t, "job", out[0].GetName())
}
