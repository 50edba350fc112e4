// Package aggregation implements the merge-semantics push gateway's core:
// the clear-mode protocol, the per-value merge algebra, the rolling time
// pebble, and the per-family aggregation state built on top of
// github.com/prometheus/client_model's dto types.
package aggregation

import (
	"fmt"
	"strconv"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// ClearModeLabel is the control label consumed and stripped during ingest.
// It never appears in stored or rendered samples.
const ClearModeLabel = "clearmode"

// ClearMode is the merge directive a pushed sample carries, either
// explicitly via the clearmode label or implicitly via its metric kind's
// default.
type ClearMode int

const (
	// ClearAggregate sums the incoming value into the stored one. Default
	// for Counter, Histogram, Summary, and Unknown.
	ClearAggregate ClearMode = iota
	// ClearReplace overwrites the stored value with the incoming one.
	// Default for Gauge.
	ClearReplace
	// ClearFamily discards the entire stored family and replaces it with
	// the incoming one.
	ClearFamily
	// ClearSum converts the sample into a rolling-sum TimePebble.
	ClearSum
	// ClearMean converts the sample into a rolling-mean TimePebble.
	ClearMean
)

func (m ClearMode) String() string {
	switch m {
	case ClearAggregate:
		return "aggregate"
	case ClearReplace:
		return "replace"
	case ClearFamily:
		return "family"
	case ClearSum:
		return "sum"
	case ClearMean:
		return "mean"
	default:
		return "unknown"
	}
}

// EffectiveMode is the outcome of resolving a sample's clearmode label
// (explicit or defaulted) against its family kind.
type EffectiveMode struct {
	Mode     ClearMode
	Duration time.Duration // meaningful only when Mode is ClearSum or ClearMean
}

// defaultModeFor returns the clear mode used when a sample carries no
// clearmode label, or one that fails to parse.
func defaultModeFor(kind dto.MetricType) ClearMode {
	if kind == dto.MetricType_GAUGE {
		return ClearReplace
	}
	return ClearAggregate
}

// resolveClearMode parses the raw clearmode label value (the empty string
// when absent) into an EffectiveMode, falling back to the kind's default
// whenever the label is absent or unparseable.
func resolveClearMode(raw string, kind dto.MetricType) EffectiveMode {
	switch raw {
	case "":
		return EffectiveMode{Mode: defaultModeFor(kind)}
	case "aggregate", "sum":
		return EffectiveMode{Mode: ClearAggregate}
	case "replace":
		return EffectiveMode{Mode: ClearReplace}
	case "family", "info":
		return EffectiveMode{Mode: ClearFamily}
	}

	if d, ok := parseWindowedMode(raw, "sum"); ok {
		return EffectiveMode{Mode: ClearSum, Duration: d}
	}
	if d, ok := parseWindowedMode(raw, "mean"); ok {
		return EffectiveMode{Mode: ClearMean, Duration: d}
	}

	return EffectiveMode{Mode: defaultModeFor(kind)}
}

// parseWindowedMode matches raw against "<prefix><duration>", e.g.
// "sum5m", and parses the duration suffix per the grammar below.
func parseWindowedMode(raw, prefix string) (time.Duration, bool) {
	if len(raw) <= len(prefix) || raw[:len(prefix)] != prefix {
		return 0, false
	}
	d, err := parseDuration(raw[len(prefix):])
	if err != nil {
		return 0, false
	}
	return d, true
}

// parseDuration parses "<integer><unit>" where unit is one of s, m, h.
// An empty or unrecognised unit is a parse error.
func parseDuration(raw string) (time.Duration, error) {
	if len(raw) < 2 {
		return 0, fmt.Errorf("aggregation: invalid duration %q", raw)
	}

	unit := raw[len(raw)-1]
	magnitude, err := strconv.Atoi(raw[:len(raw)-1])
	if err != nil {
		return 0, fmt.Errorf("aggregation: invalid duration magnitude %q: %w", raw, err)
	}

	switch unit {
	case 's':
		return time.Duration(magnitude) * time.Second, nil
	case 'm':
		return time.Duration(magnitude) * time.Minute, nil
	case 'h':
		return time.Duration(magnitude) * time.Hour, nil
	default:
		return 0, fmt.Errorf("aggregation: unknown duration unit %q", string(unit))
	}
}

// clearModeOf returns the raw clearmode label value carried by m, or the
// empty string if absent.
func clearModeOf(m *dto.Metric) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == ClearModeLabel {
			return lp.GetValue()
		}
	}
	return ""
}

// stripClearMode returns a copy of labels with the clearmode label removed.
func stripClearMode(labels []*dto.LabelPair) []*dto.LabelPair {
	out := make([]*dto.LabelPair, 0, len(labels))
	for _, lp := range labels {
		if lp.GetName() == ClearModeLabel {
			continue
		}
		out = append(out, lp)
	}
	return out
}
