// Package lenstest provides an in-process fake of the Lens HTTP API for
// tests. Routes are matched on method and exact path; every request is
// captured so tests can assert on the wire format.
package lenstest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"
)

// Server is a fake Lens API backed by httptest.
type Server struct {
	mu       sync.Mutex
	routes   []*Route
	requests []CapturedRequest
	fallback *Response
	srv      *httptest.Server
}

// CapturedRequest stores one received request for assertions.
type CapturedRequest struct {
	Method      string
	Path        string
	EscapedPath string
	Query       url.Values
	Header      http.Header
	RawBody     []byte
	Body        map[string]any // nil when the body is empty or not an object
	Timestamp   time.Time
	Matched     bool
}

// Route links a method and path to a canned response.
type Route struct {
	Method   string
	Path     string
	Response *Response
	Times    int // 0 = unlimited
	matched  int
}

// Response defines what to return.
type Response struct {
	StatusCode int // Defaults to 200
	Body       any // Encoded as JSON unless nil
	Delay      time.Duration
}

// NewServer starts a fake server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		routes:   make([]*Route, 0),
		requests: make([]CapturedRequest, 0),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)

	return s
}

// URL returns the base URL to hand to lens.WithBaseURL.
func (s *Server) URL() string {
	return s.srv.URL
}

// Close stops the server. It is safe to call more than once.
func (s *Server) Close() {
	s.srv.Close()
}

// Handle registers an unlimited route.
func (s *Server) Handle(method, path string, resp *Response) *Route {
	r := &Route{Method: method, Path: path, Response: resp}
	s.AddRoute(r)
	return r
}

// AddRoute registers a route. Earlier routes win when several match.
func (s *Server) AddRoute(r *Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, r)
}

// SetFallback sets the response used when no route matches.
func (s *Server) SetFallback(r *Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = r
}

// Requests returns all captured requests.
func (s *Server) Requests() []CapturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]CapturedRequest, len(s.requests))
	copy(result, s.requests)
	return result
}

// RequestCount returns the number of captured requests.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// LastRequest returns the most recent captured request, or nil if none.
func (s *Server) LastRequest() *CapturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	req := s.requests[len(s.requests)-1]
	return &req
}

// Reset clears routes, captured requests and the fallback.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = make([]*Route, 0)
	s.requests = make([]CapturedRequest, 0)
	s.fallback = nil
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)

	captured := CapturedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		EscapedPath: r.URL.EscapedPath(),
		Query:       r.URL.Query(),
		Header:      r.Header.Clone(),
		RawBody:     raw,
		Timestamp:   time.Now(),
	}
	if len(raw) > 0 {
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err == nil {
			captured.Body = body
		}
	}

	s.mu.Lock()
	var response *Response
	for _, route := range s.routes {
		if route.Times > 0 && route.matched >= route.Times {
			continue
		}
		if route.Method == r.Method && route.Path == r.URL.Path {
			route.matched++
			response = route.Response
			captured.Matched = true
			break
		}
	}
	if response == nil && s.fallback != nil {
		response = s.fallback
		captured.Matched = true
	}
	s.requests = append(s.requests, captured)
	s.mu.Unlock()

	if response == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"detail": "no route for " + r.Method + " " + r.URL.Path,
		})
		return
	}

	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-r.Context().Done():
			return
		}
	}

	status := response.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, response.Body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	if body == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// JSON returns a response with the given status and JSON body.
func JSON(status int, body any) *Response {
	return &Response{StatusCode: status, Body: body}
}

// OK returns a 200 response with body.
func OK(body any) *Response {
	return JSON(http.StatusOK, body)
}

// Detail returns an error response shaped like the service's
// {"detail": message} errors.
func Detail(status int, message string) *Response {
	return JSON(status, map[string]any{"detail": message})
}
