package aggregation

import dto "github.com/prometheus/client_model/go"

// metricScalar extracts the scalar float64 a metric carries for the given
// family kind. It is used both to seed a TimePebble from the value a
// sample held at the moment its clearmode converted it, and to coerce a
// plain sample into a Gauge field when a family renders alongside
// pebble-backed siblings (spec.md §4.D: "Pebble renders as Gauge").
func metricScalar(m *dto.Metric, kind dto.MetricType) float64 {
	switch kind {
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_UNTYPED:
		return m.GetUntyped().GetValue()
	default:
		return 0
	}
}

// namesOf returns the label names carried by labels, in their original
// order. It does not filter out clearmode; callers strip it beforehand.
func namesOf(labels []*dto.LabelPair) []string {
	out := make([]string, 0, len(labels))
	for _, lp := range labels {
		out = append(out, lp.GetName())
	}
	return out
}

// sameNameSet reports whether a and b contain the same label names,
// disregarding order. Used to enforce the per-family I1 invariant: every
// sample in a family carries exactly the family's label_names.
func sameNameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]struct{}, len(a))
	for _, n := range a {
		seen[n] = struct{}{}
	}
	for _, n := range b {
		if _, ok := seen[n]; !ok {
			return false
		}
	}
	return true
}

// matchLabels reports whether two label sets are match-equal: same set of
// (name, value) pairs, disregarding order (spec.md §3).
func matchLabels(a, b []*dto.LabelPair) bool {
	if len(a) != len(b) {
		return false
	}
	values := make(map[string]string, len(a))
	for _, lp := range a {
		values[lp.GetName()] = lp.GetValue()
	}
	for _, lp := range b {
		v, ok := values[lp.GetName()]
		if !ok || v != lp.GetValue() {
			return false
		}
	}
	return true
}

func cloneMetricStripped(m *dto.Metric) *dto.Metric {
	cp := *m
	cp.Label = stripClearMode(m.GetLabel())
	return &cp
}
