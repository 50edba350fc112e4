package forward

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientForwardSendsBodyAndAuthHeaderUnchanged(t *testing.T) {
	var gotBody []byte
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := NewClient(nil, 0, 0, testLogger())
	err := c.Forward(context.Background(), ts.URL, "/metrics/job/foo", "Basic secret", []byte("test_metric 1\n"))
	require.NoError(t, err)
	assert.Equal(t, "test_metric 1\n", string(gotBody))
	assert.Equal(t, "Basic secret", gotAuth)
}

func TestClientForwardReturnsErrorOnPeerRejection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	c := NewClient(nil, 0, 0, testLogger())
	err := c.Forward(context.Background(), ts.URL, "/metrics/job/foo", "", []byte("test_metric 1\n"))
	assert.Error(t, err)
}

func TestClientReusesLimiterPerPeer(t *testing.T) {
	c := NewClient(nil, 10, 10, testLogger())
	l1 := c.limiterFor("http://peer-a")
	l2 := c.limiterFor("http://peer-a")
	l3 := c.limiterFor("http://peer-b")

	assert.Same(t, l1, l2)
	assert.NotSame(t, l1, l3)
}
