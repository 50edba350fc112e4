package aggregation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimePebbleSumAccumulates(t *testing.T) {
	p := NewTimePebble(100*time.Second, ClearSum)
	base := time.Unix(0, 0)

	p.Append(1, base)
	p.Append(2, base)

	assert.Equal(t, float64(3), p.Aggregate())
}

func TestTimePebbleMeanAverages(t *testing.T) {
	p := NewTimePebble(100*time.Second, ClearMean)
	base := time.Unix(0, 0)

	p.Append(2, base)
	p.Append(4, base)

	assert.Equal(t, float64(3), p.Aggregate())
}

func TestTimePebbleDistinctBucketsBothContribute(t *testing.T) {
	p := NewTimePebble(100*time.Second, ClearSum)
	base := time.Unix(0, 0)

	p.Append(1, base)
	p.Append(5, base.Add(1*time.Second))

	assert.Equal(t, float64(6), p.Aggregate())
}

func TestTimePebbleFullWraparoundResetsEverything(t *testing.T) {
	p := NewTimePebble(100*time.Second, ClearSum)
	base := time.Unix(0, 0)

	p.Append(10, base)
	// More than a full ring's worth of bucket-widths (1s each) elapses.
	p.Append(1, base.Add(500*time.Second))

	assert.Equal(t, float64(1), p.Aggregate())
}

func TestTimePebblePartialGapZeroesOnlyElapsedBuckets(t *testing.T) {
	p := NewTimePebble(100*time.Second, ClearSum)
	base := time.Unix(0, 0)

	p.Append(10, base)
	p.Append(5, base.Add(2*time.Second))

	// Bucket 0 is stale relative to the new write at bucket 2 but is not
	// itself the bucket being zeroed (only the buckets strictly between
	// are cleared), so it still contributes.
	assert.Equal(t, float64(15), p.Aggregate())
}

func TestTimePebbleClockMovingBackwardLeavesBucketsAlone(t *testing.T) {
	p := NewTimePebble(100*time.Second, ClearSum)
	base := time.Unix(0, 0)

	p.Append(10, base.Add(5*time.Second))
	p.Append(5, base.Add(1*time.Second))

	// The second write lands behind the first; nothing should be zeroed
	// out from under it, so both observations still contribute.
	assert.Equal(t, float64(15), p.Aggregate())
}
