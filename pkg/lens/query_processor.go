package lens

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Reasoning modes accepted by the service. The client forwards any mode
// string unchanged and leaves validation to the server.
const (
	ReasoningModeComprehensive = "comprehensive"
	ReasoningModeFocused       = "focused"
	ReasoningModePolicyGuided  = "policy_guided"

	DefaultListLimit = 20
)

const (
	pathProcess   = "/lens/reasoning/process"
	pathContracts = "/lens/contracts"
	pathTrace     = "/lens/reasoning/trace/"
)

// QueryProcessor submits queries to the Lens reasoning service and reads
// back the resulting contracts and traces.
//
// A QueryProcessor owns one HTTP session. Call Close when done with it:
//
//	qp := lens.NewQueryProcessor(lens.WithBaseURL(url))
//	defer qp.Close()
//
// It may be reused sequentially but must not be shared between goroutines
// that call it at the same time; use one instance per goroutine instead.
type QueryProcessor struct {
	session *session
}

// NewQueryProcessor creates a QueryProcessor with its own HTTP session.
func NewQueryProcessor(opts ...Option) *QueryProcessor {
	return &QueryProcessor{session: newSession(opts)}
}

// BaseURL returns the API root requests are sent to.
func (p *QueryProcessor) BaseURL() string {
	return p.session.BaseURL()
}

// Close releases the HTTP session. Calls made after Close fail with
// ErrClientClosed. Closing twice is a no-op.
func (p *QueryProcessor) Close() error {
	return p.session.close()
}

// QueryOption sets optional ProcessQuery fields.
type QueryOption func(*processRequest)

// processRequest always carries all five keys; unset optionals are null.
type processRequest struct {
	Query         string   `json:"query"`
	InitialDocs   []string `json:"initial_docs"`
	ReasoningMode string   `json:"reasoning_mode"`
	WorkflowID    *string  `json:"workflow_id"`
	WorkflowName  *string  `json:"workflow_name"`
}

// WithInitialDocs seeds the reasoning context with documents.
func WithInitialDocs(docs []string) QueryOption {
	return func(r *processRequest) {
		r.InitialDocs = docs
	}
}

// WithReasoningMode overrides the default "comprehensive" mode.
func WithReasoningMode(mode string) QueryOption {
	return func(r *processRequest) {
		r.ReasoningMode = mode
	}
}

func WithWorkflowID(id string) QueryOption {
	return func(r *processRequest) {
		r.WorkflowID = &id
	}
}

func WithWorkflowName(name string) QueryOption {
	return func(r *processRequest) {
		r.WorkflowName = &name
	}
}

// ProcessQuery runs query through the reasoning service.
func (p *QueryProcessor) ProcessQuery(ctx context.Context, query string, opts ...QueryOption) (*ReasoningResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ProcessingError("Failed to process query: query must not be empty", nil)
	}

	body := &processRequest{
		Query:         query,
		ReasoningMode: ReasoningModeComprehensive,
	}
	for _, opt := range opts {
		opt(body)
	}

	result := &ReasoningResult{}
	if err := p.session.do(ctx, http.MethodPost, pathProcess, nil, body, result); err != nil {
		return nil, ProcessingError("Failed to process query", err)
	}
	return result, nil
}

// GetContract returns the full contract, including its reasoning trace.
func (p *QueryProcessor) GetContract(ctx context.Context, contractID string) (*Contract, error) {
	contract := &Contract{}
	err := p.session.do(ctx, http.MethodGet, contractPath(pathContracts+"/", contractID, ""), nil, nil, contract)
	if isStatus(err, http.StatusNotFound) {
		return nil, notFoundError(KindProcessing, contractID)
	}
	if err != nil {
		return nil, ProcessingError("Failed to get contract", err)
	}
	return contract, nil
}

// GetReasoningTrace returns the step-by-step trace of a contract.
func (p *QueryProcessor) GetReasoningTrace(ctx context.Context, contractID string) (Document, error) {
	trace := Document{}
	err := p.session.do(ctx, http.MethodGet, contractPath(pathTrace, contractID, ""), nil, nil, &trace)
	if isStatus(err, http.StatusNotFound) {
		return nil, notFoundError(KindProcessing, contractID)
	}
	if err != nil {
		return nil, ProcessingError("Failed to get reasoning trace", err)
	}
	return trace, nil
}

// ListOption filters ListContracts.
type ListOption func(*listParams)

type listParams struct {
	workflowID string
	limit      int
}

// WithListWorkflowID restricts the listing to one workflow.
func WithListWorkflowID(id string) ListOption {
	return func(p *listParams) {
		p.workflowID = id
	}
}

// WithLimit caps the number of returned summaries. Default is 20.
func WithLimit(limit int) ListOption {
	return func(p *listParams) {
		p.limit = limit
	}
}

// ListContracts returns contract summaries, newest first as ordered by the
// server.
func (p *QueryProcessor) ListContracts(ctx context.Context, opts ...ListOption) ([]ContractSummary, error) {
	params := &listParams{limit: DefaultListLimit}
	for _, opt := range opts {
		opt(params)
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(params.limit))
	if params.workflowID != "" {
		query.Set("workflow_id", params.workflowID)
	}

	var summaries []ContractSummary
	if err := p.session.do(ctx, http.MethodGet, pathContracts, query, nil, &summaries); err != nil {
		return nil, ProcessingError("Failed to list contracts", err)
	}
	if summaries == nil {
		summaries = []ContractSummary{}
	}
	return summaries, nil
}
