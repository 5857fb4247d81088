package testcase

import (
	"net/http"
	"time"

	"github.com/tupl-xyz/lens-go/pkg/lens/lenstest"
)

// APIBuilder provides a fluent API for configuring the fake Lens API.
type APIBuilder struct {
	routes []*lenstest.Route
}

// NewAPIBuilder creates a new API builder
func NewAPIBuilder() *APIBuilder {
	return &APIBuilder{}
}

// On starts a route for method and path. Returns a RouteBuilder to
// configure the response.
func (b *APIBuilder) On(method, path string) *RouteBuilder {
	return &RouteBuilder{api: b, method: method, path: path}
}

// RouteBuilder configures what the API returns for one route
type RouteBuilder struct {
	api    *APIBuilder
	method string
	path   string
	times  int
	delay  time.Duration
}

// Times limits how many times this route can match
func (rb *RouteBuilder) Times(n int) *RouteBuilder {
	rb.times = n
	return rb
}

// After delays the response
func (rb *RouteBuilder) After(d time.Duration) *RouteBuilder {
	rb.delay = d
	return rb
}

// RespondJSON answers with status and body
func (rb *RouteBuilder) RespondJSON(status int, body any) *APIBuilder {
	resp := lenstest.JSON(status, body)
	resp.Delay = rb.delay
	rb.api.routes = append(rb.api.routes, &lenstest.Route{
		Method:   rb.method,
		Path:     rb.path,
		Response: resp,
		Times:    rb.times,
	})
	return rb.api
}

// RespondOK answers 200 with body
func (rb *RouteBuilder) RespondOK(body any) *APIBuilder {
	return rb.RespondJSON(http.StatusOK, body)
}

// RespondError answers with status and a {"detail": message} body
func (rb *RouteBuilder) RespondError(status int, message string) *APIBuilder {
	return rb.RespondJSON(status, map[string]any{"detail": message})
}
