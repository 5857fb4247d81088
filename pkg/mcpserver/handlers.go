package mcpserver

import (
	"context"
	"fmt"

	"github.com/tupl-xyz/lens-go/pkg/lens"
)

type contractArgs struct {
	ContractID string `json:"contract_id"`
}

type processQueryArgs struct {
	Query         string   `json:"query"`
	InitialDocs   []string `json:"initial_docs"`
	ReasoningMode string   `json:"reasoning_mode"`
	WorkflowID    string   `json:"workflow_id"`
	WorkflowName  string   `json:"workflow_name"`
}

type listContractsArgs struct {
	WorkflowID string `json:"workflow_id"`
	Limit      *int   `json:"limit"`
}

type addDirectiveArgs struct {
	ContractID string `json:"contract_id"`
	lens.DirectiveSpec
}

type addMultipleArgs struct {
	ContractID string               `json:"contract_id"`
	Directives []lens.DirectiveSpec `json:"directives"`
}

type applyArgs struct {
	ContractID            string `json:"contract_id"`
	PreserveOriginalTrace *bool  `json:"preserve_original_trace"`
}

type listStepTypesArgs struct {
	Category lens.StepCategory `json:"category"`
}

type stepTypeInfo struct {
	Name     lens.ReasoningStepType `json:"name"`
	Category lens.StepCategory      `json:"category"`
}

func (s *Server) withProcessor(fn func(*lens.QueryProcessor) (any, error)) (any, error) {
	qp := lens.NewQueryProcessor(s.opts...)
	defer func() { _ = qp.Close() }()
	return fn(qp)
}

func (s *Server) withManager(fn func(*lens.SteeringManager) (any, error)) (any, error) {
	sm := lens.NewSteeringManager(s.opts...)
	defer func() { _ = sm.Close() }()
	return fn(sm)
}

func decodeContractID(args map[string]any) (string, error) {
	var a contractArgs
	if err := decodeArguments(args, &a); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	return a.ContractID, nil
}

// raw prefers the full server document over the typed view.
func raw(doc lens.Document, typed any) any {
	if doc != nil {
		return doc
	}
	return typed
}

func (s *Server) processQuery(ctx context.Context, args map[string]any) (any, error) {
	var a processQueryArgs
	if err := decodeArguments(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	var opts []lens.QueryOption
	if a.InitialDocs != nil {
		opts = append(opts, lens.WithInitialDocs(a.InitialDocs))
	}
	if a.ReasoningMode != "" {
		opts = append(opts, lens.WithReasoningMode(a.ReasoningMode))
	}
	if a.WorkflowID != "" {
		opts = append(opts, lens.WithWorkflowID(a.WorkflowID))
	}
	if a.WorkflowName != "" {
		opts = append(opts, lens.WithWorkflowName(a.WorkflowName))
	}

	return s.withProcessor(func(qp *lens.QueryProcessor) (any, error) {
		res, err := qp.ProcessQuery(ctx, a.Query, opts...)
		if err != nil {
			return nil, err
		}
		return raw(res.Raw, res), nil
	})
}

func (s *Server) getContract(ctx context.Context, args map[string]any) (any, error) {
	id, err := decodeContractID(args)
	if err != nil {
		return nil, err
	}

	return s.withProcessor(func(qp *lens.QueryProcessor) (any, error) {
		c, err := qp.GetContract(ctx, id)
		if err != nil {
			return nil, err
		}
		return raw(c.Raw, c), nil
	})
}

func (s *Server) getReasoningTrace(ctx context.Context, args map[string]any) (any, error) {
	id, err := decodeContractID(args)
	if err != nil {
		return nil, err
	}

	return s.withProcessor(func(qp *lens.QueryProcessor) (any, error) {
		return qp.GetReasoningTrace(ctx, id)
	})
}

func (s *Server) listContracts(ctx context.Context, args map[string]any) (any, error) {
	var a listContractsArgs
	if err := decodeArguments(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	var opts []lens.ListOption
	if a.WorkflowID != "" {
		opts = append(opts, lens.WithListWorkflowID(a.WorkflowID))
	}
	if a.Limit != nil {
		opts = append(opts, lens.WithLimit(*a.Limit))
	}

	return s.withProcessor(func(qp *lens.QueryProcessor) (any, error) {
		contracts, err := qp.ListContracts(ctx, opts...)
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(contracts))
		for _, c := range contracts {
			out = append(out, raw(c.Raw, c))
		}
		return out, nil
	})
}

func (s *Server) addSteeringDirective(ctx context.Context, args map[string]any) (any, error) {
	var a addDirectiveArgs
	if err := decodeArguments(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	return s.withManager(func(sm *lens.SteeringManager) (any, error) {
		return sm.AddSteeringDirective(ctx, a.ContractID, a.StepID, a.DirectiveSpec.Directive())
	})
}

func (s *Server) addMultipleSteeringDirectives(ctx context.Context, args map[string]any) (any, error) {
	var a addMultipleArgs
	if err := decodeArguments(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	return s.withManager(func(sm *lens.SteeringManager) (any, error) {
		return sm.AddMultipleSteeringDirectives(ctx, a.ContractID, a.Directives)
	})
}

func (s *Server) applySteeringAndRerun(ctx context.Context, args map[string]any) (any, error) {
	var a applyArgs
	if err := decodeArguments(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	var opts []lens.ApplyOption
	if a.PreserveOriginalTrace != nil {
		opts = append(opts, lens.WithPreserveOriginalTrace(*a.PreserveOriginalTrace))
	}

	return s.withManager(func(sm *lens.SteeringManager) (any, error) {
		res, err := sm.ApplySteeringAndRerun(ctx, a.ContractID, opts...)
		if err != nil {
			return nil, err
		}
		return raw(res.Raw, res), nil
	})
}

func (s *Server) getDirectiveStatus(ctx context.Context, args map[string]any) (any, error) {
	id, err := decodeContractID(args)
	if err != nil {
		return nil, err
	}

	return s.withManager(func(sm *lens.SteeringManager) (any, error) {
		st, err := sm.GetDirectiveStatus(ctx, id)
		if err != nil {
			return nil, err
		}
		return raw(st.Raw, st), nil
	})
}

func (s *Server) clearDirectives(ctx context.Context, args map[string]any) (any, error) {
	id, err := decodeContractID(args)
	if err != nil {
		return nil, err
	}

	return s.withManager(func(sm *lens.SteeringManager) (any, error) {
		return sm.ClearDirectives(ctx, id)
	})
}

func (s *Server) getReasoningTraceWithSteering(ctx context.Context, args map[string]any) (any, error) {
	id, err := decodeContractID(args)
	if err != nil {
		return nil, err
	}

	return s.withManager(func(sm *lens.SteeringManager) (any, error) {
		return sm.GetReasoningTraceWithSteering(ctx, id)
	})
}

func (s *Server) listStepTypes(_ context.Context, args map[string]any) (any, error) {
	var a listStepTypesArgs
	if err := decodeArguments(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	types := lens.AllStepTypes()
	if a.Category != "" {
		types = lens.StepTypesInCategory(a.Category)
	}

	out := make([]stepTypeInfo, 0, len(types))
	for _, st := range types {
		out = append(out, stepTypeInfo{Name: st, Category: st.Category()})
	}
	return out, nil
}
