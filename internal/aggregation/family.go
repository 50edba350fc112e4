package aggregation

import (
	"time"

	dto "github.com/prometheus/client_model/go"
)

// sample is one label-set's worth of state inside a Family. Most samples
// just hold a dto.Metric that the merge algebra mutates in place; a
// sample whose clearmode resolved to sum<d> or mean<d> instead carries a
// TimePebble and the metric field is only a label-set/kind placeholder.
type sample struct {
	metric *dto.Metric
	pebble *TimePebble
}

// Family is the aggregator's unit of storage: every label variant pushed
// under one metric name, held at the kind and merge rules that name's
// first push established (spec.md §4.C).
type Family struct {
	name    string
	help    string
	kind    dto.MetricType
	samples []*sample
}

// NewFamily builds a Family from a freshly parsed, non-empty
// dto.MetricFamily, stripping the clearmode control label from every
// sample and converting any sample whose effective mode is sum<d> or
// mean<d> into a seeded TimePebble.
func NewFamily(mf *dto.MetricFamily) *Family {
	kind := mf.GetType()
	f := &Family{
		name: mf.GetName(),
		help: mf.GetHelp(),
		kind: kind,
	}
	for _, m := range mf.GetMetric() {
		f.samples = append(f.samples, newSample(m, kind))
	}
	return f
}

func newSample(m *dto.Metric, kind dto.MetricType) *sample {
	raw := clearModeOf(m)
	eff := resolveClearMode(raw, kind)
	stripped := cloneMetricStripped(m)

	s := &sample{metric: stripped}
	if eff.Mode == ClearSum || eff.Mode == ClearMean {
		p := NewTimePebble(eff.Duration, eff.Mode)
		p.Append(metricScalar(stripped, kind), time.Now())
		s.pebble = p
	}
	return s
}

// find returns the index of the sample whose label set exactly matches
// labels, or -1.
func (f *Family) find(labels []*dto.LabelPair) int {
	for i, s := range f.samples {
		if matchLabels(s.metric.GetLabel(), labels) {
			return i
		}
	}
	return -1
}

// labelNames returns the canonical label-name set this family's samples
// carry, derived from the first sample on file. A family with no samples
// yet has no canonical set and accepts anything.
func (f *Family) labelNames() ([]string, bool) {
	if len(f.samples) == 0 {
		return nil, false
	}
	return namesOf(f.samples[0].metric.GetLabel()), true
}

// Merge folds an incoming, already-parsed dto.MetricFamily of the same
// name into f. It rejects a type mismatch, honors a family-wide reset
// directive, and otherwise walks the incoming samples one at a time,
// matching each to a stored sample by label set or inserting a new one.
func (f *Family) Merge(mf *dto.MetricFamily) error {
	if mf.GetName() != f.name {
		return &InvalidMergeError{Family: f.name, Reason: "metric name mismatch"}
	}
	if mf.GetType() != f.kind {
		return &InvalidMergeError{Family: f.name, Reason: "metric type mismatch"}
	}

	for _, m := range mf.GetMetric() {
		eff := resolveClearMode(clearModeOf(m), f.kind)
		if eff.Mode == ClearFamily {
			*f = *NewFamily(mf)
			return nil
		}
	}

	for _, m := range mf.GetMetric() {
		if err := f.mergeSample(m); err != nil {
			return err
		}
	}
	return nil
}

func (f *Family) mergeSample(m *dto.Metric) error {
	raw := clearModeOf(m)
	eff := resolveClearMode(raw, f.kind)
	cmp := cloneMetricStripped(m)

	if idx := f.find(cmp.GetLabel()); idx >= 0 {
		stored := f.samples[idx]
		now := time.Now()
		switch {
		case stored.pebble != nil:
			stored.pebble.Append(metricScalar(cmp, f.kind), now)
		case eff.Mode == ClearSum || eff.Mode == ClearMean:
			// Mid-lifetime conversion: the stored plain sample becomes a
			// pebble seeded with its current value before folding in the
			// incoming one.
			p := NewTimePebble(eff.Duration, eff.Mode)
			p.Append(metricScalar(stored.metric, f.kind), now)
			p.Append(metricScalar(cmp, f.kind), now)
			stored.pebble = p
		default:
			if err := mergeValue(stored.metric, cmp, f.kind, eff.Mode); err != nil {
				return err
			}
		}
		return nil
	}

	if names, ok := f.labelNames(); ok {
		if !sameNameSet(names, namesOf(cmp.GetLabel())) {
			return &InvalidMergeError{Family: f.name, Reason: "label set does not match family's established label names"}
		}
	}

	f.samples = append(f.samples, newSample(m, f.kind))
	return nil
}

// Render produces the dto.MetricFamily this Family currently represents.
// A family with any pebble-backed sample renders entirely as Gauge
// (spec.md §4.D): mixing Pebble's synthetic rolling value with the
// family's native kind has no sound representation in the exposition
// format, so the whole family is coerced.
func (f *Family) Render() *dto.MetricFamily {
	hasPebble := false
	for _, s := range f.samples {
		if s.pebble != nil {
			hasPebble = true
			break
		}
	}

	outKind := f.kind
	if hasPebble {
		outKind = dto.MetricType_GAUGE
	}

	metrics := make([]*dto.Metric, len(f.samples))
	for i, s := range f.samples {
		switch {
		case s.pebble != nil:
			v := s.pebble.Aggregate()
			metrics[i] = &dto.Metric{Label: s.metric.GetLabel(), Gauge: &dto.Gauge{Value: &v}}
		case hasPebble:
			v := metricScalar(s.metric, f.kind)
			metrics[i] = &dto.Metric{Label: s.metric.GetLabel(), Gauge: &dto.Gauge{Value: &v}}
		default:
			metrics[i] = s.metric
		}
	}

	name, help := f.name, f.help
	return &dto.MetricFamily{
		Name:   &name,
		Help:   &help,
		Type:   &outKind,
		Metric: metrics,
	}
}
