package aggregation

import "time"

// pebbleWidth is the fixed number of buckets a TimePebble's ring holds,
// per the reference implementation.
const pebbleWidth = 100

// pebbleEntry is one ring slot: a weight (number of observations folded
// into it) and a merged value.
type pebbleEntry struct {
	weight int
	value  float64
}

func (e *pebbleEntry) reset() {
	e.weight = 0
	e.value = 0
}

// mergeStrategy combines an existing ring entry with a freshly observed
// one, as selected by a sample's clearmode (sum<d> or mean<d>).
type mergeStrategy func(old, incoming pebbleEntry) float64

func sumStrategy(old, incoming pebbleEntry) float64 {
	return old.value + incoming.value
}

func meanStrategy(old, incoming pebbleEntry) float64 {
	weight := old.weight + incoming.weight
	if weight == 0 {
		return 0
	}
	return (float64(old.weight)*old.value + float64(incoming.weight)*incoming.value) / float64(weight)
}

// strategyFor returns the merge strategy a ClearMode implies. Only
// ClearSum and ClearMean produce a pebble; any other mode is a
// programmer error to call this with.
func strategyFor(mode ClearMode) mergeStrategy {
	if mode == ClearMean {
		return meanStrategy
	}
	return sumStrategy
}

// TimePebble is a fixed-length ring of 100 weighted buckets implementing a
// rolling sum or mean over a fixed duration. It backs the sum<d>/mean<d>
// clearmode directives. It is not internally synchronized — callers rely
// on the owning Aggregator's lock (see Aggregator.ParseAndMerge).
type TimePebble struct {
	buckets         []pebbleEntry
	merge           mergeStrategy
	bucketSizeNanos int64
	lastIndex       int
	lastTime        int64
}

// NewTimePebble creates a TimePebble spanning span, divided into 100
// equal-sized buckets, merging new observations with the given strategy.
func NewTimePebble(span time.Duration, mode ClearMode) *TimePebble {
	bucketSize := span.Nanoseconds() / pebbleWidth
	if bucketSize <= 0 {
		bucketSize = 1
	}
	return &TimePebble{
		buckets:         make([]pebbleEntry, pebbleWidth),
		merge:           strategyFor(mode),
		bucketSizeNanos: bucketSize,
	}
}

// Append folds value into the bucket corresponding to now.
func (p *TimePebble) Append(value float64, now time.Time) {
	adjusted := now.UnixNano() / p.bucketSizeNanos
	offset := int(adjusted % int64(len(p.buckets)))
	if offset < 0 {
		offset += len(p.buckets)
	}

	p.keepConsistent(adjusted, offset)

	entry := p.buckets[offset]
	entry.value = p.merge(entry, pebbleEntry{weight: 1, value: value})
	entry.weight++
	p.buckets[offset] = entry

	p.lastTime = adjusted
	p.lastIndex = offset
}

// keepConsistent zeroes buckets that elapsed without an observation since
// the previous Append, per the reference algorithm: more than a full ring's
// worth of elapsed ticks zeroes everything, a forward gap of up to one full
// ring zeroes only the buckets strictly between the last write and the new
// one (wrapping as needed; a gap of exactly one ring zeroes every bucket
// but the one being written). A tick that is at or behind the last write —
// the clock holding steady or moving backward — leaves every bucket alone.
func (p *TimePebble) keepConsistent(adjusted int64, offset int) {
	width := int64(len(p.buckets))

	if adjusted-p.lastTime > width {
		p.resetAll()
		return
	}

	if adjusted > p.lastTime {
		p.resetRange(offset)
	}
}

func (p *TimePebble) resetAll() {
	for i := range p.buckets {
		p.buckets[i].reset()
	}
}

// resetRange zeroes every bucket strictly between lastIndex and offset,
// walking forward around the ring. It is only called for a forward gap,
// so offset equal to lastIndex means a whole ring has passed.
func (p *TimePebble) resetRange(offset int) {
	width := len(p.buckets)
	distance := offset - p.lastIndex
	if distance <= 0 {
		distance += width
	}

	for i := 1; i < distance; i++ {
		idx := (p.lastIndex + i) % width
		p.buckets[idx].reset()
	}
}

// Aggregate folds every nonzero-weight bucket into a single value using
// the configured merge strategy.
func (p *TimePebble) Aggregate() float64 {
	acc := pebbleEntry{}
	for _, bucket := range p.buckets {
		if bucket.weight == 0 {
			continue
		}
		acc = pebbleEntry{
			weight: acc.weight + bucket.weight,
			value:  p.merge(acc, bucket),
		}
	}
	return p.merge(acc, pebbleEntry{})
}
