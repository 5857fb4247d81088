package lens

import (
	"context"
	"fmt"
	"net/http"
)

const pathReasoning = "/lens/reasoning/"

// SteeringManager configures guidance on specific reasoning steps of an
// existing contract and triggers guided re-runs.
//
// Which directives are pending for a contract is tracked by the server only;
// the manager holds no per-contract state. Like QueryProcessor it owns one
// HTTP session, must be closed, and is not meant for concurrent use.
type SteeringManager struct {
	session *session
}

// NewSteeringManager creates a SteeringManager with its own HTTP session.
func NewSteeringManager(opts ...Option) *SteeringManager {
	return &SteeringManager{session: newSession(opts)}
}

// BaseURL returns the API root requests are sent to.
func (m *SteeringManager) BaseURL() string {
	return m.session.BaseURL()
}

// Close releases the HTTP session. Closing twice is a no-op.
func (m *SteeringManager) Close() error {
	return m.session.close()
}

// AddSteeringDirective attaches one directive to stepID of a contract. Only
// the target step types are checked locally; a blank step id or guidance is
// forwarded for the server to judge. AddMultipleSteeringDirectives is
// stricter, see DirectiveSpec.Validate.
func (m *SteeringManager) AddSteeringDirective(ctx context.Context, contractID, stepID string, directive SteeringDirective) (Document, error) {
	wire, err := directive.wire()
	if err != nil {
		return nil, SteeringError("Failed to add steering directive", err)
	}

	body := &configureRequest{
		ContractID: contractID,
		StepDirectives: []stepDirective{{
			StepID:     stepID,
			Directives: []wireDirective{wire},
		}},
	}

	resp, err := m.configure(ctx, contractID, body)
	if err != nil {
		return nil, SteeringError("Failed to add steering directive", err)
	}
	return resp, nil
}

// AddMultipleSteeringDirectives sends every spec in a single request. Each
// spec becomes its own step_directives entry, in input order, even when
// several specs share a step_id. Every spec must pass DirectiveSpec.Validate
// before anything is sent.
func (m *SteeringManager) AddMultipleSteeringDirectives(ctx context.Context, contractID string, specs []DirectiveSpec) (Document, error) {
	body := &configureRequest{
		ContractID:     contractID,
		StepDirectives: make([]stepDirective, 0, len(specs)),
	}

	for i, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, SteeringError("Failed to add multiple steering directives", fmt.Errorf("directive %d: %w", i, err))
		}
		wire, err := spec.Directive().wire()
		if err != nil {
			return nil, SteeringError("Failed to add multiple steering directives", fmt.Errorf("directive %d: %w", i, err))
		}
		body.StepDirectives = append(body.StepDirectives, stepDirective{
			StepID:     spec.StepID,
			Directives: []wireDirective{wire},
		})
	}

	resp, err := m.configure(ctx, contractID, body)
	if err != nil {
		return nil, SteeringError("Failed to add multiple steering directives", err)
	}
	return resp, nil
}

func (m *SteeringManager) configure(ctx context.Context, contractID string, body *configureRequest) (Document, error) {
	resp := Document{}
	path := contractPath(pathReasoning, contractID, "/configure-step-directives")
	if err := m.session.do(ctx, http.MethodPost, path, nil, body, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ApplyOption configures ApplySteeringAndRerun.
type ApplyOption func(*applyRequest)

// WithPreserveOriginalTrace controls whether the server keeps the unsteered
// trace alongside the new one. Default is true.
func WithPreserveOriginalTrace(preserve bool) ApplyOption {
	return func(r *applyRequest) {
		r.PreserveOriginalTrace = preserve
	}
}

// ApplySteeringAndRerun applies every configured directive and re-runs the
// reasoning. Whether repeating the call is a no-op is up to the server.
func (m *SteeringManager) ApplySteeringAndRerun(ctx context.Context, contractID string, opts ...ApplyOption) (*SteeredResult, error) {
	body := &applyRequest{
		ContractID:            contractID,
		PreserveOriginalTrace: true,
	}
	for _, opt := range opts {
		opt(body)
	}

	result := &SteeredResult{}
	path := contractPath(pathReasoning, contractID, "/apply-directives")
	if err := m.session.do(ctx, http.MethodPost, path, nil, body, result); err != nil {
		return nil, SteeringError("Failed to apply steering and rerun", err)
	}
	return result, nil
}

// GetDirectiveStatus reports the directives configured on a contract.
func (m *SteeringManager) GetDirectiveStatus(ctx context.Context, contractID string) (*DirectiveStatus, error) {
	status := &DirectiveStatus{}
	path := contractPath(pathReasoning, contractID, "/directive-status")
	if err := m.session.do(ctx, http.MethodGet, path, nil, nil, status); err != nil {
		return nil, SteeringError("Failed to get directive status", err)
	}
	return status, nil
}

// ClearDirectives deletes every directive configured on a contract.
func (m *SteeringManager) ClearDirectives(ctx context.Context, contractID string) (Document, error) {
	resp := Document{}
	path := contractPath(pathReasoning, contractID, "/clear-directives")
	if err := m.session.do(ctx, http.MethodDelete, path, nil, nil, &resp); err != nil {
		return nil, SteeringError("Failed to clear directives", err)
	}
	return resp, nil
}

// GetReasoningTraceWithSteering returns the trace of a contract, including
// the impact of applied directives.
func (m *SteeringManager) GetReasoningTraceWithSteering(ctx context.Context, contractID string) (Document, error) {
	trace := Document{}
	err := m.session.do(ctx, http.MethodGet, contractPath(pathTrace, contractID, ""), nil, nil, &trace)
	if isStatus(err, http.StatusNotFound) {
		return nil, notFoundError(KindSteering, contractID)
	}
	if err != nil {
		return nil, SteeringError("Failed to get reasoning trace", err)
	}
	return trace, nil
}
