package lens

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// Version is the SDK version reported in the User-Agent header.
	Version = "1.0.0"

	DefaultBaseURL = "https://api.tupl.xyz"
	DefaultTimeout = 300 * time.Second
)

// Option configures a QueryProcessor or SteeringManager.
type Option func(*settings)

type settings struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	headers    map[string]string
	logger     *zap.Logger
}

func defaultSettings() *settings {
	return &settings{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		headers: map[string]string{},
		logger:  zap.NewNop(),
	}
}

// WithBaseURL sets the Lens API root. Trailing slashes are stripped.
func WithBaseURL(baseURL string) Option {
	return func(s *settings) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout bounds every request, including reading the response body.
// It is ignored when WithHTTPClient supplies a client.
func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) {
		s.timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client owned by the component.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		s.httpClient = client
	}
}

// WithHeaders adds static headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(s *settings) {
		for k, v := range headers {
			s.headers[k] = v
		}
	}
}

// WithAPIKey sends key as a bearer token.
func WithAPIKey(key string) Option {
	return func(s *settings) {
		if key != "" {
			s.headers["Authorization"] = "Bearer " + key
		}
	}
}

// WithLogger sets the logger used for request tracing. Only debug level
// entries are emitted.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func (s *settings) buildHTTPClient() *http.Client {
	var client http.Client
	if s.httpClient != nil {
		client = *s.httpClient
	} else {
		client.Timeout = s.timeout
	}

	if len(s.headers) > 0 {
		client.Transport = NewHeaderRoundTripper(s.headers, client.Transport)
	}

	return &client
}
