package lens

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

// session is the one HTTP session a component owns for its lifetime. It is
// safe for sequential reuse only.
type session struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
}

func newSession(opts []Option) *session {
	s := defaultSettings()
	for _, opt := range opts {
		opt(s)
	}

	return &session{
		baseURL: s.baseURL,
		client:  s.buildHTTPClient(),
		logger:  s.logger,
	}
}

// BaseURL returns the API root requests are sent to.
func (s *session) BaseURL() string {
	return s.baseURL
}

func (s *session) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.client.CloseIdleConnections()

	return nil
}

func (s *session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// do issues one request and decodes a 2xx JSON body into out. A non-2xx
// status is returned as *HTTPStatusError; callers map everything to their
// own error kind.
func (s *session) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	if s.isClosed() {
		return ErrClientClosed
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	target := s.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "lens-go/"+Version)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("lens request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	s.logger.Debug("lens request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPStatusError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Detail:     responseDetail(respBody),
		}
	}

	if out == nil {
		return nil
	}

	trimmed := bytes.TrimSpace(respBody)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("failed to decode response from %s %s: %w", method, path, ErrEmptyResponse)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response from %s %s: %w", method, path, err)
	}

	return nil
}

// contractPath joins path segments around an escaped contract id.
func contractPath(prefix, contractID, suffix string) string {
	return prefix + url.PathEscape(contractID) + suffix
}

// isStatus reports whether err is a non-2xx response with the given code.
func isStatus(err error, code int) bool {
	statusErr, ok := err.(*HTTPStatusError)
	return ok && statusErr.StatusCode == code
}
