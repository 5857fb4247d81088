package lens

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tupl-xyz/lens-go/pkg/lens/lenstest"
	"k8s.io/utils/ptr"
)

const configurePath = "/lens/reasoning/contract_123/configure-step-directives"

func newTestManager(t *testing.T, srv *lenstest.Server, opts ...Option) *SteeringManager {
	t.Helper()
	sm := NewSteeringManager(append([]Option{WithBaseURL(srv.URL())}, opts...)...)
	t.Cleanup(func() { _ = sm.Close() })
	return sm
}

func stepDirectivesOf(t *testing.T, body map[string]any) []map[string]any {
	t.Helper()
	raw, ok := body["step_directives"].([]any)
	require.True(t, ok, "step_directives must be an array")
	out := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		require.True(t, ok)
		out = append(out, m)
	}
	return out
}

func TestAddSteeringDirective_Envelope(t *testing.T) {
	srv := lenstest.NewServer(t)
	srv.Handle(http.MethodPost, configurePath, lenstest.OK(map[string]any{"success": true, "configured_steps": 1}))
	sm := newTestManager(t, srv)

	resp, err := sm.AddSteeringDirective(context.Background(), "contract_123", "step_1",
		NewSteeringDirective("Focus on peer-reviewed studies", StepEvidenceGathering, StepEvidenceValidation))
	require.NoError(t, err)
	assert.Equal(t, true, resp["success"])

	body := srv.LastRequest().Body
	assert.Equal(t, map[string]any{
		"contract_id": "contract_123",
		"step_directives": []any{
			map[string]any{
				"step_id": "step_1",
				"directives": []any{
					map[string]any{
						"target_step_types": []any{"evidence_gathering", "evidence_validation"},
						"priority":          float64(5),
						"guidance":          "Focus on peer-reviewed studies",
						"constraints":       map[string]any{},
						"enforce_order":     false,
					},
				},
			},
		},
	}, body)
}

func TestAddSteeringDirective_CustomFields(t *testing.T) {
	srv := lenstest.NewServer(t)
	srv.Handle(http.MethodPost, configurePath, lenstest.OK(map[string]any{"success": true}))
	sm := newTestManager(t, srv)

	directive := SteeringDirective{
		TargetStepTypes: []ReasoningStepType{StepCausalAnalysis},
		Guidance:        "Consider confounders",
		Priority:        42,
		Constraints:     map[string]any{"max_sources": 3, "exclude": []string{"blogs"}},
		EnforceOrder:    true,
	}
	_, err := sm.AddSteeringDirective(context.Background(), "contract_123", "step_4", directive)
	require.NoError(t, err)

	entries := stepDirectivesOf(t, srv.LastRequest().Body)
	require.Len(t, entries, 1)
	directives := entries[0]["directives"].([]any)
	require.Len(t, directives, 1)
	d := directives[0].(map[string]any)

	// Out-of-range priorities are forwarded unchanged.
	assert.EqualValues(t, 42, d["priority"])
	assert.Equal(t, true, d["enforce_order"])
	assert.Equal(t, map[string]any{"max_sources": float64(3), "exclude": []any{"blogs"}}, d["constraints"])
}

func TestAddSteeringDirective_InvalidStepType(t *testing.T) {
	srv := lenstest.NewServer(t)
	sm := newTestManager(t, srv)

	_, err := sm.AddSteeringDirective(context.Background(), "contract_123", "step_1",
		NewSteeringDirective("guidance", ReasoningStepType("telepathy")))
	require.Error(t, err)
	assert.True(t, IsSteeringError(err))
	assert.ErrorIs(t, err, ErrInvalidStepType)
	assert.Equal(t, 0, srv.RequestCount())
}

func TestAddSteeringDirective_ForwardsBlankFields(t *testing.T) {
	srv := lenstest.NewServer(t)
	srv.Handle(http.MethodPost, configurePath, lenstest.OK(map[string]any{"success": true}))
	sm := newTestManager(t, srv)

	_, err := sm.AddSteeringDirective(context.Background(), "contract_123", "", NewSteeringDirective("", StepWebSearch))
	require.NoError(t, err)

	entries := stepDirectivesOf(t, srv.LastRequest().Body)
	require.Len(t, entries, 1)
	assert.Equal(t, "", entries[0]["step_id"])
	d := entries[0]["directives"].([]any)[0].(map[string]any)
	assert.Equal(t, "", d["guidance"])

	// The batch path rejects the same entry before sending.
	_, err = sm.AddMultipleSteeringDirectives(context.Background(), "contract_123", []DirectiveSpec{{
		TargetStepTypes: []ReasoningStepType{StepWebSearch},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step_id is required")
	assert.Contains(t, err.Error(), "guidance is required")
	assert.Equal(t, 1, srv.RequestCount())
}

func TestAddMultipleSteeringDirectives(t *testing.T) {
	srv := lenstest.NewServer(t)
	srv.Handle(http.MethodPost, configurePath, lenstest.OK(map[string]any{"success": true}))
	sm := newTestManager(t, srv)

	_, err := sm.AddMultipleSteeringDirectives(context.Background(), "contract_123", []DirectiveSpec{
		{
			StepID:          "step_1",
			TargetStepTypes: []ReasoningStepType{StepFactExtraction},
			Guidance:        "Only cite primary sources",
		},
		{
			StepID:          "step_2",
			TargetStepTypes: []ReasoningStepType{StepRiskAssessment, StepQualityCheck},
			Guidance:        "Weigh regulatory risk",
			Priority:        ptr.To(9),
			Constraints:     map[string]any{"region": "EU"},
			EnforceOrder:    ptr.To(true),
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, srv.RequestCount())

	body := srv.LastRequest().Body
	assert.Equal(t, "contract_123", body["contract_id"])

	entries := stepDirectivesOf(t, body)
	require.Len(t, entries, 2)

	tt := map[string]struct {
		index        int
		stepID       string
		targets      []any
		priority     float64
		constraints  map[string]any
		enforceOrder bool
	}{
		"defaults applied": {
			index:        0,
			stepID:       "step_1",
			targets:      []any{"fact_extraction"},
			priority:     5,
			constraints:  map[string]any{},
			enforceOrder: false,
		},
		"explicit values kept": {
			index:        1,
			stepID:       "step_2",
			targets:      []any{"risk_assessment", "quality_check"},
			priority:     9,
			constraints:  map[string]any{"region": "EU"},
			enforceOrder: true,
		},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			entry := entries[tc.index]
			assert.Equal(t, tc.stepID, entry["step_id"])

			directives := entry["directives"].([]any)
			require.Len(t, directives, 1)
			d := directives[0].(map[string]any)
			assert.Equal(t, tc.targets, d["target_step_types"])
			assert.Equal(t, tc.priority, d["priority"])
			assert.Equal(t, tc.constraints, d["constraints"])
			assert.Equal(t, tc.enforceOrder, d["enforce_order"])
		})
	}
}

func TestAddMultipleSteeringDirectives_SameStepNotMerged(t *testing.T) {
	srv := lenstest.NewServer(t)
	srv.Handle(http.MethodPost, configurePath, lenstest.OK(map[string]any{"success": true}))
	sm := newTestManager(t, srv)

	spec := DirectiveSpec{
		StepID:          "step_1",
		TargetStepTypes: []ReasoningStepType{StepWebSearch},
		Guidance:        "Prefer .gov sources",
	}
	_, err := sm.AddMultipleSteeringDirectives(context.Background(), "contract_123", []DirectiveSpec{spec, spec})
	require.NoError(t, err)

	entries := stepDirectivesOf(t, srv.LastRequest().Body)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, "step_1", entry["step_id"])
		assert.Len(t, entry["directives"], 1)
	}
}

func TestAddMultipleSteeringDirectives_Invalid(t *testing.T) {
	tt := map[string]struct {
		spec       DirectiveSpec
		errContain string
	}{
		"missing step id": {
			spec:       DirectiveSpec{TargetStepTypes: []ReasoningStepType{StepWebSearch}, Guidance: "g"},
			errContain: "step_id is required",
		},
		"missing targets": {
			spec:       DirectiveSpec{StepID: "s", Guidance: "g"},
			errContain: "target_step_types is required",
		},
		"missing guidance": {
			spec:       DirectiveSpec{StepID: "s", TargetStepTypes: []ReasoningStepType{StepWebSearch}},
			errContain: "guidance is required",
		},
		"unknown step type": {
			spec:       DirectiveSpec{StepID: "s", TargetStepTypes: []ReasoningStepType{"astrology"}, Guidance: "g"},
			errContain: "invalid reasoning step type",
		},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			srv := lenstest.NewServer(t)
			sm := newTestManager(t, srv)

			_, err := sm.AddMultipleSteeringDirectives(context.Background(), "contract_123", []DirectiveSpec{tc.spec})
			require.Error(t, err)
			assert.True(t, IsSteeringError(err))
			assert.Contains(t, err.Error(), "directive 0")
			assert.Contains(t, err.Error(), tc.errContain)
			assert.Equal(t, 0, srv.RequestCount())
		})
	}
}

func TestApplySteeringAndRerun(t *testing.T) {
	tt := map[string]struct {
		opts     []ApplyOption
		preserve bool
	}{
		"default preserves trace": {preserve: true},
		"discard original trace":  {opts: []ApplyOption{WithPreserveOriginalTrace(false)}, preserve: false},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			srv := lenstest.NewServer(t)
			srv.Handle(http.MethodPost, "/lens/reasoning/contract_123/apply-directives", lenstest.OK(map[string]any{
				"success":                  true,
				"contract_id":              "contract_123",
				"final_answer":             "steered answer",
				"confidence_overall":       0.91,
				"total_steps":              7,
				"directive_impact_summary": map[string]any{"steps_changed": 2},
				"directive_change_records": []any{map[string]any{"step_id": "step_1"}},
			}))
			sm := newTestManager(t, srv)

			result, err := sm.ApplySteeringAndRerun(context.Background(), "contract_123", tc.opts...)
			require.NoError(t, err)

			assert.Equal(t, "steered answer", result.FinalAnswer)
			assert.Equal(t, 7, result.TotalSteps)
			assert.EqualValues(t, 2, result.DirectiveImpactSummary["steps_changed"])
			require.Len(t, result.DirectiveChangeRecords, 1)
			assert.Equal(t, "step_1", result.DirectiveChangeRecords[0]["step_id"])
			assert.Contains(t, result.Raw, "directive_impact_summary")

			assert.Equal(t, map[string]any{
				"contract_id":             "contract_123",
				"preserve_original_trace": tc.preserve,
			}, srv.LastRequest().Body)
		})
	}
}

func TestGetDirectiveStatus(t *testing.T) {
	srv := lenstest.NewServer(t)
	srv.Handle(http.MethodGet, "/lens/reasoning/contract_123/directive-status", lenstest.OK(map[string]any{
		"contract_id":            "contract_123",
		"total_steps":            6,
		"steps_with_directives":  2,
		"step_statuses":          []any{map[string]any{"step_id": "step_1", "directive_count": 1}},
		"has_pending_directives": true,
	}))
	sm := newTestManager(t, srv)

	status, err := sm.GetDirectiveStatus(context.Background(), "contract_123")
	require.NoError(t, err)
	assert.Equal(t, 6, status.TotalSteps)
	assert.Equal(t, 2, status.StepsWithDirectives)
	assert.True(t, status.HasPendingDirectives)
	require.Len(t, status.StepStatuses, 1)
	assert.Equal(t, "step_1", status.StepStatuses[0]["step_id"])
}

func TestClearDirectives(t *testing.T) {
	srv := lenstest.NewServer(t)
	srv.Handle(http.MethodDelete, "/lens/reasoning/contract_123/clear-directives", lenstest.OK(map[string]any{"success": true}))
	sm := newTestManager(t, srv)

	resp, err := sm.ClearDirectives(context.Background(), "contract_123")
	require.NoError(t, err)
	assert.Equal(t, true, resp["success"])

	req := srv.LastRequest()
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Empty(t, req.RawBody)
}

func TestGetReasoningTraceWithSteering(t *testing.T) {
	srv := lenstest.NewServer(t)
	srv.Handle(http.MethodGet, "/lens/reasoning/trace/contract_123", lenstest.OK(map[string]any{"steering_applied": true}))
	srv.Handle(http.MethodGet, "/lens/reasoning/trace/unknown_id", lenstest.Detail(http.StatusNotFound, "missing"))
	sm := newTestManager(t, srv)

	trace, err := sm.GetReasoningTraceWithSteering(context.Background(), "contract_123")
	require.NoError(t, err)
	assert.Equal(t, true, trace["steering_applied"])

	_, err = sm.GetReasoningTraceWithSteering(context.Background(), "unknown_id")
	require.Error(t, err)
	assert.True(t, IsSteeringError(err))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Contract unknown_id not found", err.Error())
}

func TestSteeringManager_ServerErrors(t *testing.T) {
	tt := map[string]struct {
		call    func(sm *SteeringManager) error
		message string
	}{
		"add": {
			call: func(sm *SteeringManager) error {
				_, err := sm.AddSteeringDirective(context.Background(), "c", "s", NewSteeringDirective("g", StepWebSearch))
				return err
			},
			message: "Failed to add steering directive",
		},
		"add multiple": {
			call: func(sm *SteeringManager) error {
				_, err := sm.AddMultipleSteeringDirectives(context.Background(), "c", nil)
				return err
			},
			message: "Failed to add multiple steering directives",
		},
		"apply": {
			call: func(sm *SteeringManager) error {
				_, err := sm.ApplySteeringAndRerun(context.Background(), "c")
				return err
			},
			message: "Failed to apply steering and rerun",
		},
		"status": {
			call: func(sm *SteeringManager) error {
				_, err := sm.GetDirectiveStatus(context.Background(), "c")
				return err
			},
			message: "Failed to get directive status",
		},
		"clear": {
			call: func(sm *SteeringManager) error {
				_, err := sm.ClearDirectives(context.Background(), "c")
				return err
			},
			message: "Failed to clear directives",
		},
		"trace": {
			call: func(sm *SteeringManager) error {
				_, err := sm.GetReasoningTraceWithSteering(context.Background(), "c")
				return err
			},
			message: "Failed to get reasoning trace",
		},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			srv := lenstest.NewServer(t)
			srv.SetFallback(lenstest.Detail(http.StatusInternalServerError, "boom"))
			sm := newTestManager(t, srv)

			err := tc.call(sm)
			require.Error(t, err)
			assert.True(t, IsSteeringError(err))
			assert.False(t, IsProcessingError(err))
			assert.Contains(t, err.Error(), tc.message)
			assert.Contains(t, err.Error(), "500 Internal Server Error")
			assert.Contains(t, err.Error(), "boom")
		})
	}
}

func TestSteeringManager_Close(t *testing.T) {
	srv := lenstest.NewServer(t)
	srv.SetFallback(lenstest.OK(map[string]any{}))
	sm := NewSteeringManager(WithBaseURL(srv.URL()))
	require.NoError(t, sm.Close())

	_, err := sm.ClearDirectives(context.Background(), "contract_123")
	assert.ErrorIs(t, err, ErrClientClosed)
	assert.True(t, IsSteeringError(err))
	assert.Equal(t, 0, srv.RequestCount())
}

func TestSteeringManager_EscapesContractID(t *testing.T) {
	srv := lenstest.NewServer(t)
	srv.SetFallback(lenstest.OK(map[string]any{}))
	sm := newTestManager(t, srv)

	_, err := sm.GetDirectiveStatus(context.Background(), "a/b")
	require.NoError(t, err)
	req := srv.LastRequest()
	assert.Equal(t, "/lens/reasoning/a/b/directive-status", req.Path)
	assert.Equal(t, "/lens/reasoning/a%2Fb/directive-status", req.EscapedPath)
}

func TestSteeringManager_EmptyResponseBody(t *testing.T) {
	bodies := map[string]any{
		"no body":   nil,
		"null body": json.RawMessage("null"),
	}
	calls := map[string]struct {
		method string
		path   string
		call   func(sm *SteeringManager) error
		prefix string
	}{
		"add directive": {
			method: http.MethodPost,
			path:   configurePath,
			call: func(sm *SteeringManager) error {
				_, err := sm.AddSteeringDirective(context.Background(), "contract_123", "step_1", NewSteeringDirective("g", StepWebSearch))
				return err
			},
			prefix: "Failed to add steering directive",
		},
		"apply": {
			method: http.MethodPost,
			path:   "/lens/reasoning/contract_123/apply-directives",
			call: func(sm *SteeringManager) error {
				_, err := sm.ApplySteeringAndRerun(context.Background(), "contract_123")
				return err
			},
			prefix: "Failed to apply steering and rerun",
		},
		"status": {
			method: http.MethodGet,
			path:   "/lens/reasoning/contract_123/directive-status",
			call: func(sm *SteeringManager) error {
				_, err := sm.GetDirectiveStatus(context.Background(), "contract_123")
				return err
			},
			prefix: "Failed to get directive status",
		},
		"clear": {
			method: http.MethodDelete,
			path:   "/lens/reasoning/contract_123/clear-directives",
			call: func(sm *SteeringManager) error {
				_, err := sm.ClearDirectives(context.Background(), "contract_123")
				return err
			},
			prefix: "Failed to clear directives",
		},
		"trace": {
			method: http.MethodGet,
			path:   "/lens/reasoning/trace/contract_123",
			call: func(sm *SteeringManager) error {
				_, err := sm.GetReasoningTraceWithSteering(context.Background(), "contract_123")
				return err
			},
			prefix: "Failed to get reasoning trace",
		},
	}

	for bn, body := range bodies {
		for cn, tc := range calls {
			t.Run(bn+"/"+cn, func(t *testing.T) {
				srv := lenstest.NewServer(t)
				srv.Handle(tc.method, tc.path, lenstest.OK(body))
				sm := newTestManager(t, srv)

				err := tc.call(sm)
				require.Error(t, err)
				assert.True(t, IsSteeringError(err))
				assert.ErrorIs(t, err, ErrEmptyResponse)
				assert.Contains(t, err.Error(), tc.prefix)
				assert.Equal(t, 1, srv.RequestCount())
			})
		}
	}
}
