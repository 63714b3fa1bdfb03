package offers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchNormalizesWrappedList(t *testing.T) {
	var gotQuery map[string][]string
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"offers":[{"id":1},{"id":2}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-123", time.Second)
	list, err := c.Fetch(context.Background(), Params{IP: "203.0.113.9", UserAgent: "test-agent", SubID: "42"})
	require.NoError(t, err)

	assert.Len(t, list, 2)
	assert.Equal(t, "Bearer key-123", gotAuth)
	assert.Equal(t, []string{"203.0.113.9"}, gotQuery["ip"])
	assert.Equal(t, []string{"test-agent"}, gotQuery["user_agent"])
	assert.Equal(t, []string{"3"}, gotQuery["ctype"])
	assert.Equal(t, []string{"42"}, gotQuery["aff_sub4"])
}

func TestFetchAcceptsBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", time.Second)
	list, err := c.Fetch(context.Background(), Params{IP: "203.0.113.9"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFetchReplacesLoopbackIP(t *testing.T) {
	var gotIP string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = r.URL.Query().Get("ip")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", time.Second)
	_, err := c.Fetch(context.Background(), Params{IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, devFallbackIP, gotIP)
}

func TestFetchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", time.Second)
	_, err := c.Fetch(context.Background(), Params{IP: "203.0.113.9"})

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusTooManyRequests, ue.StatusCode)
}

func TestFetchMissingAPIKey(t *testing.T) {
	c := NewClient("http://feed.invalid", "", time.Second)
	_, err := c.Fetch(context.Background(), Params{IP: "203.0.113.9"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNormalizeUnknownShape(t *testing.T) {
	list, err := normalize([]byte(`{"something":"else"}`))
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = normalize([]byte(`"just a string"`))
	assert.Error(t, err)
}
