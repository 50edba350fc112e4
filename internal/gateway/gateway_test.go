package gateway

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravel-gateway/gravel-gateway/internal/activity"
	"github.com/gravel-gateway/gravel-gateway/internal/aggregation"
	"github.com/gravel-gateway/gravel-gateway/internal/auth"
	"github.com/gravel-gateway/gravel-gateway/internal/opmetrics"
)

func TestParseTailDecodesPercentEncodedSegments(t *testing.T) {
	labels, err := ParseTail("/job/foo/instance/localhost%3A80")
	require.NoError(t, err)
	assert.Equal(t, "foo", labels["job"])
	assert.Equal(t, "localhost:80", labels["instance"])
}

func TestParseTailEmptyTailYieldsNoLabels(t *testing.T) {
	labels, err := ParseTail("")
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestParseTailOddSegmentCountIsAMissingValueError(t *testing.T) {
	_, err := ParseTail("/job")
	var tailErr *TailError
	require.ErrorAs(t, err, &tailErr)
}

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Gateway{
		Aggregator: aggregation.New(),
		Auth:       auth.PassThrough{},
		Activity:   activity.NewMemoryTracker(),
		Metrics:    opmetrics.NewRegistry(logrus.NewEntry(logger)),
		Logger:     logrus.NewEntry(logger),
	}
}

func TestIngestMergesBodyWithTailLabels(t *testing.T) {
	g := newTestGateway(t)

	require.NoError(t, g.Ingest(context.Background(), "/job/foo", "", []byte("test_metric 1\n")))
	require.NoError(t, g.Ingest(context.Background(), "/job/foo", "", []byte("test_metric 2\n")))

	assert.Equal(t, 1, g.Aggregator.FamilyCount())

	seen, err := g.Activity.LastSeen(context.Background(), "foo")
	require.NoError(t, err)
	assert.False(t, seen.IsZero())
}

type denyAll struct{}

func (denyAll) Authenticate(string) bool { return false }

func TestIngestRejectsUnauthenticatedRequest(t *testing.T) {
	g := newTestGateway(t)
	g.Auth = denyAll{}

	err := g.Ingest(context.Background(), "/job/foo", "", []byte("test_metric 1\n"))
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestIngestRejectsInvalidUTF8Body(t *testing.T) {
	g := newTestGateway(t)

	err := g.Ingest(context.Background(), "/job/foo", "", []byte{0xff, 0xfe, 0xfd})
	var badUTF8 *aggregation.BadUTF8Error
	require.ErrorAs(t, err, &badUTF8)
}

func TestIngestRejectsMalformedTail(t *testing.T) {
	g := newTestGateway(t)

	err := g.Ingest(context.Background(), "/job/%", "", []byte("test_metric 1\n"))
	var tailErr *TailError
	require.ErrorAs(t, err, &tailErr)
}
