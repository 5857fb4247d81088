package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tupl-xyz/lens-go/pkg/config"
	"github.com/tupl-xyz/lens-go/pkg/lens"
	"github.com/tupl-xyz/lens-go/pkg/util"
	"go.uber.org/zap"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	baseURL    string
	timeout    string
	apiKey     string
	headers    map[string]string
	output     string
	verbose    bool
}

func (g *globalOptions) addFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "Path to a LensConfig file (YAML or JSON)")
	flags.StringVar(&g.baseURL, "base-url", "", fmt.Sprintf("Lens API base URL (default %s, env %s)", lens.DefaultBaseURL, config.EnvBaseURL))
	flags.StringVar(&g.timeout, "timeout", "", fmt.Sprintf("Request timeout, e.g. 90s or 300 (default %s, env %s)", lens.DefaultTimeout, config.EnvTimeout))
	flags.StringVar(&g.apiKey, "api-key", "", fmt.Sprintf("API key sent as a bearer token (env %s)", config.EnvAPIKey))
	flags.StringToStringVar(&g.headers, "header", nil, "Extra request header as key=value (repeatable)")
	flags.StringVarP(&g.output, "output", "o", outputText, "Output format (text, json)")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "Log every API request to stderr")
}

func (g *globalOptions) validateOutput() error {
	switch g.output {
	case outputText, outputJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q: expected %s or %s", g.output, outputText, outputJSON)
	}
}

func (g *globalOptions) jsonOutput() bool {
	return g.output == outputJSON
}

func (g *globalOptions) newLogger() *zap.Logger {
	if !g.verbose {
		return zap.NewNop()
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// lensOptions resolves the client configuration from flags, the config file
// and the environment.
func (g *globalOptions) lensOptions(ctx context.Context) ([]lens.Option, error) {
	cfg, err := config.Resolve(g.configPath, &config.LensConfig{
		BaseURL: g.baseURL,
		Timeout: config.Timeout(g.timeout),
		APIKey:  g.apiKey,
		Headers: g.headers,
	})
	if err != nil {
		return nil, err
	}

	return cfg.Options(util.LoggerFrom(ctx))
}

func (g *globalOptions) newQueryProcessor(ctx context.Context) (*lens.QueryProcessor, error) {
	opts, err := g.lensOptions(ctx)
	if err != nil {
		return nil, err
	}
	return lens.NewQueryProcessor(opts...), nil
}

func (g *globalOptions) newSteeringManager(ctx context.Context) (*lens.SteeringManager, error) {
	opts, err := g.lensOptions(ctx)
	if err != nil {
		return nil, err
	}
	return lens.NewSteeringManager(opts...), nil
}
