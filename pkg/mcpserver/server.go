// Package mcpserver exposes the Lens SDK as MCP tools over streamable HTTP.
// Every tool call runs on its own QueryProcessor or SteeringManager, so
// concurrent calls never share a session.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tupl-xyz/lens-go/pkg/lens"
	"go.uber.org/zap"
)

const (
	ServerName   = "lens"
	EndpointPath = "/mcp"
)

type Server struct {
	opts   []lens.Option
	logger *zap.Logger
	server *mcp.Server
}

type toolHandler func(ctx context.Context, args map[string]any) (any, error)

// New builds a server whose tools call the Lens API configured by opts.
func New(opts []lens.Option, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		opts:   opts,
		logger: logger,
		server: mcp.NewServer(
			&mcp.Implementation{
				Name:    ServerName,
				Version: lens.Version,
			},
			&mcp.ServerOptions{
				HasTools: true,
			},
		),
	}

	tools := []struct {
		name        string
		description string
		schema      *jsonschema.Schema
		handler     toolHandler
	}{
		{ToolProcessQuery, "Run a reasoning pass over a query and return the resulting contract summary.", processQuerySchema(), s.processQuery},
		{ToolGetContract, "Fetch a stored contract.", contractIDSchema(), s.getContract},
		{ToolGetReasoningTrace, "Fetch the step-by-step reasoning trace of a contract.", contractIDSchema(), s.getReasoningTrace},
		{ToolListContracts, "List contracts, optionally filtered by workflow.", listContractsSchema(), s.listContracts},
		{ToolAddSteeringDirective, "Attach a steering directive to one reasoning step.", addDirectiveSchema(), s.addSteeringDirective},
		{ToolAddMultipleSteeringDirectives, "Attach several steering directives in one request.", addMultipleDirectivesSchema(), s.addMultipleSteeringDirectives},
		{ToolApplySteeringAndRerun, "Re-run reasoning for a contract with its pending directives.", applySchema(), s.applySteeringAndRerun},
		{ToolGetDirectiveStatus, "Report which steps of a contract carry directives.", contractIDSchema(), s.getDirectiveStatus},
		{ToolClearDirectives, "Remove all pending directives from a contract.", contractIDSchema(), s.clearDirectives},
		{ToolGetReasoningTraceWithSteering, "Fetch a reasoning trace annotated with directive effects.", contractIDSchema(), s.getReasoningTraceWithSteering},
		{ToolListStepTypes, "List the reasoning step types directives can target.", listStepTypesSchema(), s.listStepTypes},
	}

	for _, tool := range tools {
		if err := s.addTool(tool.name, tool.description, tool.schema, tool.handler); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// MCPServer returns the underlying server, e.g. to connect it to another
// transport.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

// Handler serves the MCP streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.server
	}, &mcp.StreamableHTTPOptions{})
}

// ListenAndServe serves the MCP endpoint on addr until ctx is cancelled.
// ready, if non-nil, receives the bound address once the listener is open.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(EndpointPath, s.Handler())
	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ready != nil {
		ready(listener.Addr())
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

func (s *Server) addTool(name, description string, schema *jsonschema.Schema, handler toolHandler) error {
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("failed to resolve input schema for tool %s: %w", name, err)
	}

	s.server.AddTool(&mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: schema,
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		args := parseArguments(req.Params.Arguments)

		if err := resolved.Validate(args); err != nil {
			return errorResult(fmt.Errorf("invalid arguments: %w", err)), nil
		}

		out, err := handler(ctx, args)
		s.logger.Debug("mcp tool call",
			zap.String("tool", name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		if err != nil {
			return errorResult(err), nil
		}

		return jsonResult(out)
	})

	return nil
}

// parseArguments converts the raw tool arguments to a map. Missing or
// malformed arguments become an empty map and fail schema validation.
func parseArguments(args any) map[string]any {
	if args == nil {
		return make(map[string]any)
	}

	if m, ok := args.(map[string]any); ok {
		return m
	}

	var data []byte
	switch a := args.(type) {
	case json.RawMessage:
		data = a
	case []byte:
		data = a
	default:
		var err error
		data, err = json.Marshal(args)
		if err != nil {
			return make(map[string]any)
		}
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil || result == nil {
		return make(map[string]any)
	}

	return result
}

// decodeArguments re-encodes validated arguments into a typed struct.
func decodeArguments(args map[string]any, target any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("failed to encode result: %w", err)), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: err.Error()},
		},
		IsError: true,
	}
}
