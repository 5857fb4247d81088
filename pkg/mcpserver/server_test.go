package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tupl-xyz/lens-go/pkg/lens"
	"github.com/tupl-xyz/lens-go/pkg/lens/lenstest"
)

func connect(t *testing.T, srv *lenstest.Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	s, err := New([]lens.Option{lens.WithBaseURL(srv.URL())}, nil)
	require.NoError(t, err)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := s.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "lens-test-client", Version: "0.0.0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })

	return cs
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestListTools(t *testing.T) {
	cs := connect(t, lenstest.NewServer(t))

	res, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
	}
	assert.ElementsMatch(t, []string{
		ToolProcessQuery,
		ToolGetContract,
		ToolGetReasoningTrace,
		ToolListContracts,
		ToolAddSteeringDirective,
		ToolAddMultipleSteeringDirectives,
		ToolApplySteeringAndRerun,
		ToolGetDirectiveStatus,
		ToolClearDirectives,
		ToolGetReasoningTraceWithSteering,
		ToolListStepTypes,
	}, names)
}

func TestToolCalls(t *testing.T) {
	tt := map[string]struct {
		tool         string
		args         map[string]any
		method       string
		path         string
		response     any
		expectBody   map[string]any
		expectResult map[string]any
	}{
		"process query": {
			tool:     ToolProcessQuery,
			args:     map[string]any{"query": "Is coffee healthy?", "reasoning_mode": "focused"},
			method:   http.MethodPost,
			path:     "/lens/reasoning/process",
			response: map[string]any{"success": true, "contract_id": "c1", "extra": "kept"},
			expectBody: map[string]any{
				"query":          "Is coffee healthy?",
				"initial_docs":   nil,
				"reasoning_mode": "focused",
				"workflow_id":    nil,
				"workflow_name":  nil,
			},
			expectResult: map[string]any{"success": true, "contract_id": "c1", "extra": "kept"},
		},
		"get contract": {
			tool:         ToolGetContract,
			args:         map[string]any{"contract_id": "c1"},
			method:       http.MethodGet,
			path:         "/lens/contracts/c1",
			response:     map[string]any{"contract_id": "c1", "final_answer": "yes"},
			expectResult: map[string]any{"contract_id": "c1", "final_answer": "yes"},
		},
		"add directive": {
			tool: ToolAddSteeringDirective,
			args: map[string]any{
				"contract_id":       "c1",
				"step_id":           "step_1",
				"target_step_types": []any{"web_search"},
				"guidance":          "Prefer .gov sources",
			},
			method:   http.MethodPost,
			path:     "/lens/reasoning/c1/configure-step-directives",
			response: map[string]any{"success": true},
			expectBody: map[string]any{
				"contract_id": "c1",
				"step_directives": []any{
					map[string]any{
						"step_id": "step_1",
						"directives": []any{
							map[string]any{
								"target_step_types": []any{"web_search"},
								"priority":          float64(5),
								"guidance":          "Prefer .gov sources",
								"constraints":       map[string]any{},
								"enforce_order":     false,
							},
						},
					},
				},
			},
			expectResult: map[string]any{"success": true},
		},
		"apply": {
			tool:         ToolApplySteeringAndRerun,
			args:         map[string]any{"contract_id": "c1", "preserve_original_trace": false},
			method:       http.MethodPost,
			path:         "/lens/reasoning/c1/apply-directives",
			response:     map[string]any{"success": true, "contract_id": "c2"},
			expectBody:   map[string]any{"contract_id": "c1", "preserve_original_trace": false},
			expectResult: map[string]any{"success": true, "contract_id": "c2"},
		},
		"clear": {
			tool:         ToolClearDirectives,
			args:         map[string]any{"contract_id": "c1"},
			method:       http.MethodDelete,
			path:         "/lens/reasoning/c1/clear-directives",
			response:     map[string]any{"cleared": 2},
			expectResult: map[string]any{"cleared": float64(2)},
		},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			srv := lenstest.NewServer(t)
			srv.Handle(tc.method, tc.path, lenstest.OK(tc.response))
			cs := connect(t, srv)

			text, isError := callTool(t, cs, tc.tool, tc.args)
			require.False(t, isError, text)

			var result map[string]any
			require.NoError(t, json.Unmarshal([]byte(text), &result))
			assert.Equal(t, tc.expectResult, result)

			req := srv.LastRequest()
			require.NotNil(t, req)
			assert.Equal(t, tc.method, req.Method)
			assert.Equal(t, tc.path, req.Path)
			if tc.expectBody != nil {
				assert.Equal(t, tc.expectBody, req.Body)
			}
		})
	}
}

func TestToolCall_SDKErrorIsToolError(t *testing.T) {
	srv := lenstest.NewServer(t)
	srv.Handle(http.MethodGet, "/lens/contracts/missing", lenstest.Detail(http.StatusNotFound, "nope"))
	cs := connect(t, srv)

	text, isError := callTool(t, cs, ToolGetContract, map[string]any{"contract_id": "missing"})
	assert.True(t, isError)
	assert.Equal(t, "Contract missing not found", text)
}

func TestToolCall_InvalidArguments(t *testing.T) {
	tt := map[string]struct {
		tool string
		args map[string]any
	}{
		"missing contract id": {
			tool: ToolGetDirectiveStatus,
			args: map[string]any{},
		},
		"unknown step type": {
			tool: ToolAddSteeringDirective,
			args: map[string]any{
				"contract_id":       "c1",
				"step_id":           "s",
				"target_step_types": []any{"astrology"},
				"guidance":          "g",
			},
		},
		"wrong type": {
			tool: ToolListContracts,
			args: map[string]any{"limit": "ten"},
		},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			srv := lenstest.NewServer(t)
			cs := connect(t, srv)

			text, isError := callTool(t, cs, tc.tool, tc.args)
			assert.True(t, isError)
			assert.Contains(t, text, "invalid arguments")
			assert.Equal(t, 0, srv.RequestCount())
		})
	}
}

func TestListStepTypesTool(t *testing.T) {
	cs := connect(t, lenstest.NewServer(t))

	text, isError := callTool(t, cs, ToolListStepTypes, map[string]any{"category": "external"})
	require.False(t, isError, text)

	var out []stepTypeInfo
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.Len(t, out, len(lens.StepTypesInCategory(lens.CategoryExternal)))
	for _, info := range out {
		assert.Equal(t, lens.CategoryExternal, info.Category)
	}
}

func TestParseArguments(t *testing.T) {
	tt := map[string]struct {
		input    any
		expected map[string]any
	}{
		"nil":         {input: nil, expected: map[string]any{}},
		"map":         {input: map[string]any{"a": "b"}, expected: map[string]any{"a": "b"}},
		"raw message": {input: json.RawMessage(`{"a":1}`), expected: map[string]any{"a": float64(1)}},
		"not object":  {input: json.RawMessage(`[1]`), expected: map[string]any{}},
		"null":        {input: json.RawMessage(`null`), expected: map[string]any{}},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.expected, parseArguments(tc.input))
		})
	}
}
