package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func metricFamily(name string, kind dto.MetricType, metrics ...*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{Name: &name, Type: &kind, Metric: metrics}
}

func labeled(name, value string, m *dto.Metric) *dto.Metric {
	n, v := name, value
	m.Label = append(m.Label, &dto.LabelPair{Name: &n, Value: &v})
	return m
}

func TestFamilyMergeRejectsNameMismatch(t *testing.T) {
	f := NewFamily(metricFamily("a", dto.MetricType_COUNTER, counterMetric(1)))
	err := f.Merge(metricFamily("b", dto.MetricType_COUNTER, counterMetric(1)))
	var merr *InvalidMergeError
	require.ErrorAs(t, err, &merr)
}

func TestFamilyMergeRejectsTypeMismatch(t *testing.T) {
	f := NewFamily(metricFamily("a", dto.MetricType_COUNTER, counterMetric(1)))
	err := f.Merge(metricFamily("a", dto.MetricType_GAUGE, gaugeMetric(1)))
	var merr *InvalidMergeError
	require.ErrorAs(t, err, &merr)
}

func TestFamilyMergeRejectsInconsistentLabelNames(t *testing.T) {
	f := NewFamily(metricFamily("a", dto.MetricType_COUNTER, labeled("job", "x", counterMetric(1))))
	err := f.Merge(metricFamily("a", dto.MetricType_COUNTER, labeled("instance", "y", counterMetric(1))))
	var merr *InvalidMergeError
	require.ErrorAs(t, err, &merr)
}

func TestFamilyMergeSameLabelsAccumulates(t *testing.T) {
	f := NewFamily(metricFamily("a", dto.MetricType_COUNTER, labeled("job", "x", counterMetric(1))))
	require.NoError(t, f.Merge(metricFamily("a", dto.MetricType_COUNTER, labeled("job", "x", counterMetric(2)))))

	out := f.Render()
	require.Len(t, out.GetMetric(), 1)
	assert.Equal(t, float64(3), out.GetMetric()[0].GetCounter().GetValue())
}

func TestFamilyMergeDistinctLabelsInsertsNewSample(t *testing.T) {
	f := NewFamily(metricFamily("a", dto.MetricType_COUNTER, labeled("job", "x", counterMetric(1))))
	require.NoError(t, f.Merge(metricFamily("a", dto.MetricType_COUNTER, labeled("job", "y", counterMetric(1)))))

	out := f.Render()
	assert.Len(t, out.GetMetric(), 2)
}

func TestFamilyClearModeFamilyResetsWholeFamily(t *testing.T) {
	f := NewFamily(metricFamily("a", dto.MetricType_COUNTER,
		labeled("job", "x", counterMetric(1)),
		labeled("job", "y", counterMetric(5)),
	))

	reset := labeled("clearmode", "family", labeled("job", "z", counterMetric(9)))
	require.NoError(t, f.Merge(metricFamily("a", dto.MetricType_COUNTER, reset)))

	out := f.Render()
	require.Len(t, out.GetMetric(), 1)
	assert.Equal(t, float64(9), out.GetMetric()[0].GetCounter().GetValue())
}

func TestFamilyRenderCoercesToGaugeWhenAnySampleIsPebble(t *testing.T) {
	plain := labeled("job", "x", counterMetric(1))
	windowed := labeled("clearmode", "sum5m", labeled("job", "y", counterMetric(2)))

	f := NewFamily(metricFamily("a", dto.MetricType_COUNTER, plain, windowed))
	out := f.Render()

	assert.Equal(t, dto.MetricType_GAUGE, out.GetType())
	for _, m := range out.GetMetric() {
		assert.NotNil(t, m.GetGauge())
	}
}

func TestFamilyMidLifetimeConversionToPebble(t *testing.T) {
	f := NewFamily(metricFamily("a", dto.MetricType_GAUGE, labeled("job", "x", gaugeMetric(4))))

	windowed := labeled("clearmode", "sum5m", labeled("job", "x", gaugeMetric(6)))
	require.NoError(t, f.Merge(metricFamily("a", dto.MetricType_GAUGE, windowed)))

	out := f.Render()
	require.Len(t, out.GetMetric(), 1)
	assert.Equal(t, float64(10), out.GetMetric()[0].GetGauge().GetValue())
}
