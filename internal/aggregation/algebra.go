package aggregation

import (
	"sort"

	dto "github.com/prometheus/client_model/go"
)

// mergeValue applies the merge algebra table from spec.md §4.A: it
// combines stored and incoming under mode, mutating stored in place.
// kind selects which dto.Metric field carries the value. Summary merge
// is intentionally unimplemented and surfaces ErrUnimplementedSummary.
func mergeValue(stored, incoming *dto.Metric, kind dto.MetricType, mode ClearMode) error {
	switch kind {
	case dto.MetricType_UNTYPED:
		return mergeUntyped(stored, incoming, mode)
	case dto.MetricType_GAUGE:
		return mergeGauge(stored, incoming, mode)
	case dto.MetricType_COUNTER:
		return mergeCounter(stored, incoming, mode)
	case dto.MetricType_HISTOGRAM:
		return mergeHistogram(stored, incoming, mode)
	case dto.MetricType_SUMMARY:
		return ErrUnimplementedSummary
	default:
		return &InvalidMergeError{Reason: "unsupported metric kind for merge"}
	}
}

func mergeUntyped(stored, incoming *dto.Metric, mode ClearMode) error {
	a := stored.GetUntyped().GetValue()
	b := incoming.GetUntyped().GetValue()

	var v float64
	if mode == ClearReplace {
		v = b
	} else {
		v = a + b
	}
	stored.Untyped = &dto.Untyped{Value: &v}
	return nil
}

func mergeGauge(stored, incoming *dto.Metric, mode ClearMode) error {
	a := stored.GetGauge().GetValue()
	b := incoming.GetGauge().GetValue()

	var v float64
	if mode == ClearReplace {
		v = b
	} else {
		v = a + b
	}
	stored.Gauge = &dto.Gauge{Value: &v}
	return nil
}

func mergeCounter(stored, incoming *dto.Metric, mode ClearMode) error {
	a := stored.GetCounter().GetValue()
	b := incoming.GetCounter().GetValue()

	var v float64
	if mode == ClearReplace {
		v = b
	} else {
		v = a + b
	}

	// Exemplar policy: the incoming sample always wins, including when it
	// carries none, reflecting recency (spec.md §4.A).
	stored.Counter = &dto.Counter{
		Value:    &v,
		Exemplar: incoming.GetCounter().GetExemplar(),
	}
	return nil
}

func mergeHistogram(stored, incoming *dto.Metric, mode ClearMode) error {
	a := stored.GetHistogram()
	b := incoming.GetHistogram()

	var sum *float64
	var count *uint64
	var buckets []*dto.Bucket

	if mode == ClearReplace {
		if b.SampleSum != nil {
			v := b.GetSampleSum()
			sum = &v
		}
		if b.SampleCount != nil {
			v := b.GetSampleCount()
			count = &v
		}
		buckets = cloneBuckets(b.GetBucket())
	} else {
		sum = combineOptionalSum(a.SampleSum, b.SampleSum)
		if c := combineOptionalCount(a.SampleCount, b.SampleCount); c != nil {
			count = c
		}
		buckets = mergeBuckets(a.GetBucket(), b.GetBucket())
	}

	stored.Histogram = &dto.Histogram{
		SampleSum:   sum,
		SampleCount: count,
		Bucket:      buckets,
		CreatedTimestamp: b.GetCreatedTimestamp(),
	}
	return nil
}

// combineOptionalSum implements the "both present, else absent" rule for
// the histogram sum field under aggregate mode.
func combineOptionalSum(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a + *b
	return &v
}

// combineOptionalCount implements the matching rule for the count field.
// dto.Histogram.SampleCount is an unsigned integer count, so it is
// combined as an integer sum.
func combineOptionalCount(a, b *uint64) *uint64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a + *b
	return &v
}

func cloneBuckets(in []*dto.Bucket) []*dto.Bucket {
	out := make([]*dto.Bucket, len(in))
	for i, b := range in {
		cp := *b
		out[i] = &cp
	}
	return out
}

// mergeBuckets performs the merge-sort walk described in spec.md §4.A:
// both bucket lists are assumed sorted ascending by upper bound; matching
// bounds combine counts and take the incoming exemplar, mismatched bounds
// emit the lesser, and any remaining tail is appended verbatim.
func mergeBuckets(a, b []*dto.Bucket) []*dto.Bucket {
	a = sortedBuckets(a)
	b = sortedBuckets(b)

	out := make([]*dto.Bucket, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].GetUpperBound() < b[j].GetUpperBound():
			out = append(out, cloneBucket(a[i]))
			i++
		case a[i].GetUpperBound() > b[j].GetUpperBound():
			out = append(out, cloneBucket(b[j]))
			j++
		default:
			count := a[i].GetCumulativeCount() + b[j].GetCumulativeCount()
			ub := a[i].GetUpperBound()
			out = append(out, &dto.Bucket{
				CumulativeCount: &count,
				UpperBound:      &ub,
				Exemplar:        b[j].GetExemplar(),
			})
			i++
			j++
		}
	}
	for ; i < len(a); i++ {
		out = append(out, cloneBucket(a[i]))
	}
	for ; j < len(b); j++ {
		out = append(out, cloneBucket(b[j]))
	}
	return out
}

func cloneBucket(b *dto.Bucket) *dto.Bucket {
	cp := *b
	return &cp
}

// sortedBuckets defensively sorts by upper bound; the merge precondition
// is that inputs already are, but pushed data cannot be trusted.
func sortedBuckets(in []*dto.Bucket) []*dto.Bucket {
	out := make([]*dto.Bucket, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool {
		return out[i].GetUpperBound() < out[j].GetUpperBound()
	})
	return out
}
