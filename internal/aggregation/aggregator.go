package aggregation

import (
	"io"
	"sort"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Aggregator holds every family pushed to this node, keyed by metric name,
// behind a single reader/writer lock. A push is merged as one atomic unit:
// the lock is held for the whole of ParseAndMerge, never per-family or
// per-sample, so a concurrent scrape never observes a push half-applied
// (spec.md §4.D).
type Aggregator struct {
	mu       sync.RWMutex
	families map[string]*Family
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{families: make(map[string]*Family)}
}

// ParseAndMerge decodes a text-exposition body from r, applies extraLabels
// to every sample (an extra label overrides a same-named label already on
// the sample, per the URL-tail-wins rule in spec.md §4.G), and merges each
// parsed family into the aggregator's state. A header-only family (TYPE
// and HELP lines with no samples) is accepted and produces no family
// entry, matching a bare "push an empty body" request.
//
// On the first merge error the push stops and that error is returned;
// families merged earlier in the same body are not rolled back, matching
// the non-transactional behavior documented in spec.md §9.
func (a *Aggregator) ParseAndMerge(r io.Reader, extraLabels map[string]string) error {
	var parser expfmt.TextParser
	parsed, err := parser.TextToMetricFamilies(r)
	if err != nil {
		return &ParseError{Err: err}
	}

	for _, mf := range parsed {
		applyExtraLabels(mf, extraLabels)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for name, mf := range parsed {
		if len(mf.GetMetric()) == 0 {
			continue
		}
		existing, ok := a.families[name]
		if !ok {
			a.families[name] = NewFamily(mf)
			continue
		}
		if err := existing.Merge(mf); err != nil {
			return err
		}
	}
	return nil
}

// applyExtraLabels adds k=v to every metric in mf for each pair in extra,
// overwriting any label of the same name the sample already carries.
func applyExtraLabels(mf *dto.MetricFamily, extra map[string]string) {
	if len(extra) == 0 {
		return
	}
	for _, m := range mf.GetMetric() {
		labels := make(map[string]string, len(m.GetLabel())+len(extra))
		for _, lp := range m.GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
		for k, v := range extra {
			labels[k] = v
		}
		names := make([]string, 0, len(labels))
		for n := range labels {
			names = append(names, n)
		}
		sort.Strings(names)

		out := make([]*dto.LabelPair, 0, len(names))
		for _, n := range names {
			name, value := n, labels[n]
			out = append(out, &dto.LabelPair{Name: &name, Value: &value})
		}
		m.Label = out
	}
}

// Render encodes every family currently on file to w in the given
// exposition format, families sorted by name for deterministic output.
func (a *Aggregator) Render(w io.Writer, format expfmt.Format) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, len(a.families))
	for name := range a.families {
		names = append(names, name)
	}
	sort.Strings(names)

	enc := expfmt.NewEncoder(w, format)
	for _, name := range names {
		if err := enc.Encode(a.families[name].Render()); err != nil {
			return err
		}
	}
	if closer, ok := enc.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Reset discards every family on file. Used by administrative endpoints,
// never by the ingest path.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.families = make(map[string]*Family)
}

// FamilyCount reports how many distinct metric names are currently held,
// for operational metrics and health reporting.
func (a *Aggregator) FamilyCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.families)
}
