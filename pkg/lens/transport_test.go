package lens

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestHeaderRoundTripper(t *testing.T) {
	headers := map[string]string{"Authorization": "Bearer token", "X-Tenant": "acme"}

	var seen http.Header
	base := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		seen = req.Header.Clone()
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
	})

	rt := NewHeaderRoundTripper(headers, base)
	headers["X-Tenant"] = "changed"

	req := httptest.NewRequest(http.MethodGet, "http://example.com/lens/contracts", nil)
	req.Header.Set("Accept", "application/json")

	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "Bearer token", seen.Get("Authorization"))
	assert.Equal(t, "acme", seen.Get("X-Tenant"))
	assert.Equal(t, "application/json", seen.Get("Accept"))
	assert.Empty(t, req.Header.Get("Authorization"), "original request must not be modified")
}

func TestHeaderRoundTripper_DefaultTransport(t *testing.T) {
	rt := NewHeaderRoundTripper(nil, nil)
	assert.Equal(t, http.DefaultTransport, rt.Transport)
	assert.Empty(t, rt.Headers)
}

func TestBuildHTTPClient(t *testing.T) {
	t.Run("owned client uses timeout", func(t *testing.T) {
		s := defaultSettings()
		WithTimeout(DefaultTimeout / 2)(s)
		client := s.buildHTTPClient()
		assert.Equal(t, DefaultTimeout/2, client.Timeout)
		assert.Nil(t, client.Transport)
	})

	t.Run("supplied client is copied", func(t *testing.T) {
		supplied := &http.Client{}
		s := defaultSettings()
		WithHTTPClient(supplied)(s)
		WithAPIKey("k")(s)
		client := s.buildHTTPClient()

		assert.NotSame(t, supplied, client)
		assert.Nil(t, supplied.Transport)
		rt, ok := client.Transport.(*HeaderRoundTripper)
		require.True(t, ok)
		assert.Equal(t, "Bearer k", rt.Headers["Authorization"])
	})

	t.Run("empty api key is ignored", func(t *testing.T) {
		s := defaultSettings()
		WithAPIKey("")(s)
		assert.Empty(t, s.headers)
	})
}
