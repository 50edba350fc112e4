package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func gaugeMetric(v float64) *dto.Metric {
	return &dto.Metric{Gauge: &dto.Gauge{Value: &v}}
}

func counterMetric(v float64) *dto.Metric {
	return &dto.Metric{Counter: &dto.Counter{Value: &v}}
}

func TestMergeGaugeReplaceTakesIncoming(t *testing.T) {
	stored := gaugeMetric(1)
	incoming := gaugeMetric(2)

	require.NoError(t, mergeValue(stored, incoming, dto.MetricType_GAUGE, ClearReplace))
	assert.Equal(t, float64(2), stored.GetGauge().GetValue())
}

func TestMergeGaugeAggregateSums(t *testing.T) {
	stored := gaugeMetric(1)
	incoming := gaugeMetric(2)

	require.NoError(t, mergeValue(stored, incoming, dto.MetricType_GAUGE, ClearAggregate))
	assert.Equal(t, float64(3), stored.GetGauge().GetValue())
}

func TestMergeCounterAggregateSumsAndExemplarWinsFromIncoming(t *testing.T) {
	ts := float64(1)
	stored := counterMetric(1)
	stored.Counter.Exemplar = &dto.Exemplar{Value: &ts}
	incoming := counterMetric(2)

	require.NoError(t, mergeValue(stored, incoming, dto.MetricType_COUNTER, ClearAggregate))
	assert.Equal(t, float64(3), stored.GetCounter().GetValue())
	assert.Nil(t, stored.GetCounter().GetExemplar())
}

func TestMergeCounterExemplarFromIncomingWhenPresent(t *testing.T) {
	ts := float64(9)
	stored := counterMetric(1)
	incoming := counterMetric(2)
	incoming.Counter.Exemplar = &dto.Exemplar{Value: &ts}

	require.NoError(t, mergeValue(stored, incoming, dto.MetricType_COUNTER, ClearAggregate))
	require.NotNil(t, stored.GetCounter().GetExemplar())
	assert.Equal(t, float64(9), stored.GetCounter().GetExemplar().GetValue())
}

func TestMergeSummaryIsUnimplemented(t *testing.T) {
	stored := &dto.Metric{Summary: &dto.Summary{}}
	incoming := &dto.Metric{Summary: &dto.Summary{}}

	err := mergeValue(stored, incoming, dto.MetricType_SUMMARY, ClearAggregate)
	assert.ErrorIs(t, err, ErrUnimplementedSummary)
}

func TestMergeHistogramAggregateCombinesBucketsAndSum(t *testing.T) {
	sumA, sumB := 1.0, 2.0
	countA, countB := uint64(3), uint64(4)
	ubA, countValA := 5.0, uint64(1)
	ubB, countValB := 5.0, uint64(2)

	stored := &dto.Metric{Histogram: &dto.Histogram{
		SampleSum:   &sumA,
		SampleCount: &countA,
		Bucket:      []*dto.Bucket{{UpperBound: &ubA, CumulativeCount: &countValA}},
	}}
	incoming := &dto.Metric{Histogram: &dto.Histogram{
		SampleSum:   &sumB,
		SampleCount: &countB,
		Bucket:      []*dto.Bucket{{UpperBound: &ubB, CumulativeCount: &countValB}},
	}}

	require.NoError(t, mergeValue(stored, incoming, dto.MetricType_HISTOGRAM, ClearAggregate))

	h := stored.GetHistogram()
	assert.Equal(t, 3.0, h.GetSampleSum())
	assert.Equal(t, uint64(7), h.GetSampleCount())
	require.Len(t, h.GetBucket(), 1)
	assert.Equal(t, uint64(3), h.GetBucket()[0].GetCumulativeCount())
}

func TestMergeHistogramAggregateDropsSumWhenEitherSideMissing(t *testing.T) {
	countA := uint64(1)
	stored := &dto.Metric{Histogram: &dto.Histogram{SampleCount: &countA}}
	sumB := 2.0
	incoming := &dto.Metric{Histogram: &dto.Histogram{SampleSum: &sumB}}

	require.NoError(t, mergeValue(stored, incoming, dto.MetricType_HISTOGRAM, ClearAggregate))

	h := stored.GetHistogram()
	assert.Nil(t, h.SampleSum)
	assert.Nil(t, h.SampleCount)
}

func TestMergeBucketsMismatchedBoundsInterleave(t *testing.T) {
	ub1, c1 := 1.0, uint64(1)
	ub3, c3 := 3.0, uint64(1)
	ub2, c2 := 2.0, uint64(1)

	out := mergeBuckets(
		[]*dto.Bucket{{UpperBound: &ub1, CumulativeCount: &c1}, {UpperBound: &ub3, CumulativeCount: &c3}},
		[]*dto.Bucket{{UpperBound: &ub2, CumulativeCount: &c2}},
	)

	require.Len(t, out, 3)
	assert.Equal(t, 1.0, out[0].GetUpperBound())
	assert.Equal(t, 2.0, out[1].GetUpperBound())
	assert.Equal(t, 3.0, out[2].GetUpperBound())
}
