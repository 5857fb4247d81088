// Package config reads Lens client configuration from files and the
// environment and turns it into lens.Options.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tupl-xyz/lens-go/pkg/lens"
	"github.com/tupl-xyz/lens-go/pkg/util"
	"go.uber.org/zap"
)

const (
	KindLensConfig = "LensConfig"

	EnvBaseURL = "LENS_BASE_URL"
	EnvTimeout = "LENS_TIMEOUT"
	EnvAPIKey  = "LENS_API_KEY"
)

// LensConfig is the client configuration document.
//
//	apiVersion: lens/v1alpha1
//	kind: LensConfig
//	baseURL: https://api.tupl.xyz
//	timeout: 5m
//	apiKey: ${LENS_API_KEY}
//	headers:
//	  X-Tenant: acme
type LensConfig struct {
	util.TypeMeta `json:",inline"`
	BaseURL       string            `json:"baseURL,omitempty"`
	Timeout       Timeout           `json:"timeout,omitempty"`
	APIKey        string            `json:"apiKey,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
}

// Read parses a YAML or JSON LensConfig and expands environment references
// in its string values.
func Read(data []byte) (*LensConfig, error) {
	cfg := &LensConfig{}
	if err := util.UnmarshalWithKind(data, cfg, KindLensConfig); err != nil {
		return nil, lens.ConfigurationError("failed to parse config", err)
	}

	if err := cfg.TypeMeta.Validate(KindLensConfig); err != nil {
		return nil, lens.ConfigurationError("invalid config", err)
	}

	if err := cfg.expand(); err != nil {
		return nil, lens.ConfigurationError("failed to expand config", err)
	}

	return cfg, nil
}

// FromFile reads a config from path.
func FromFile(path string) (*LensConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, lens.ConfigurationError(fmt.Sprintf("failed to read config file %s", path), err)
	}

	return Read(data)
}

// FromEnv builds a config from the LENS_* environment variables.
func FromEnv() *LensConfig {
	return &LensConfig{
		BaseURL: os.Getenv(EnvBaseURL),
		Timeout: Timeout(os.Getenv(EnvTimeout)),
		APIKey:  os.Getenv(EnvAPIKey),
	}
}

// Resolve layers, from lowest to highest precedence, the environment, the
// config file at path (when non-empty) and flags.
func Resolve(path string, flags *LensConfig) (*LensConfig, error) {
	cfg := FromEnv()

	if path != "" {
		fileCfg, err := FromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = cfg.Merge(fileCfg)
	}

	return cfg.Merge(flags), nil
}

// Merge returns a copy of c with every non-empty field of override applied.
// Headers are merged key by key.
func (c *LensConfig) Merge(override *LensConfig) *LensConfig {
	merged := &LensConfig{
		TypeMeta: c.TypeMeta,
		BaseURL:  c.BaseURL,
		Timeout:  c.Timeout,
		APIKey:   c.APIKey,
		Headers:  make(map[string]string, len(c.Headers)),
	}
	for k, v := range c.Headers {
		merged.Headers[k] = v
	}

	if override == nil {
		return merged
	}

	if override.BaseURL != "" {
		merged.BaseURL = override.BaseURL
	}
	if override.Timeout != "" {
		merged.Timeout = override.Timeout
	}
	if override.APIKey != "" {
		merged.APIKey = override.APIKey
	}
	for k, v := range override.Headers {
		merged.Headers[k] = v
	}

	return merged
}

// Validate checks the base URL and timeout.
func (c *LensConfig) Validate() error {
	var err error
	if c.BaseURL != "" {
		err = errors.Join(err, validateBaseURL(c.BaseURL))
	}
	if c.Timeout != "" {
		if _, terr := ParseTimeout(string(c.Timeout)); terr != nil {
			err = errors.Join(err, terr)
		}
	}
	return err
}

// Options converts the config to lens.Options. Empty fields leave the SDK
// defaults in place.
func (c *LensConfig) Options(logger *zap.Logger) ([]lens.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, lens.ConfigurationError("invalid config", err)
	}

	var opts []lens.Option
	if c.BaseURL != "" {
		opts = append(opts, lens.WithBaseURL(c.BaseURL))
	}
	if c.Timeout != "" {
		timeout, _ := ParseTimeout(string(c.Timeout))
		opts = append(opts, lens.WithTimeout(timeout))
	}
	if len(c.Headers) > 0 {
		opts = append(opts, lens.WithHeaders(c.Headers))
	}
	if c.APIKey != "" {
		opts = append(opts, lens.WithAPIKey(c.APIKey))
	}
	if logger != nil {
		opts = append(opts, lens.WithLogger(logger))
	}

	return opts, nil
}

// Timeout is a duration string or a number of seconds. Both forms decode
// from YAML and JSON.
type Timeout string

func (t *Timeout) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Timeout(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("timeout must be a string or a number: %w", err)
	}
	*t = Timeout(n.String())
	return nil
}

// ParseTimeout accepts a Go duration ("90s", "5m") or a bare number of
// seconds ("300").
func ParseTimeout(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)

	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("timeout must be positive, got %q", value)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %q", value)
	}

	return d, nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid baseURL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid baseURL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid baseURL %q: missing host", raw)
	}
	return nil
}

func (c *LensConfig) expand() error {
	var err error
	expand := func(field, value string) string {
		out, xerr := ExpandEnv(value)
		if xerr != nil {
			err = errors.Join(err, fmt.Errorf("%s: %w", field, xerr))
			return value
		}
		return out
	}

	c.BaseURL = expand("baseURL", c.BaseURL)
	c.Timeout = Timeout(expand("timeout", string(c.Timeout)))
	c.APIKey = expand("apiKey", c.APIKey)
	for k, v := range c.Headers {
		c.Headers[k] = expand("headers."+k, v)
	}

	return err
}
