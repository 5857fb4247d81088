package lens

import (
	"net/http"
)

// HeaderRoundTripper wraps an http.RoundTripper and adds static headers to
// every request.
type HeaderRoundTripper struct {
	Headers   map[string]string
	Transport http.RoundTripper
}

// NewHeaderRoundTripper copies headers so later changes by the caller do not
// leak into requests. If transport is nil, http.DefaultTransport is used.
func NewHeaderRoundTripper(headers map[string]string, transport http.RoundTripper) *HeaderRoundTripper {
	if transport == nil {
		transport = http.DefaultTransport
	}
	copied := make(map[string]string, len(headers))
	for k, v := range headers {
		copied[k] = v
	}
	return &HeaderRoundTripper{
		Headers:   copied,
		Transport: transport,
	}
}

// RoundTrip sets the configured headers on a clone of req; the caller's
// request is never modified.
func (h *HeaderRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for key, value := range h.Headers {
		req.Header.Set(key, value)
	}

	return h.Transport.RoundTrip(req)
}
