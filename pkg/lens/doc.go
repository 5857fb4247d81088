// Package lens is a client for the Lens reasoning service.
//
// Two independent components wrap the HTTP API:
//   - [QueryProcessor] submits queries and reads back contracts and traces.
//   - [SteeringManager] attaches guidance to reasoning steps of an existing
//     contract and re-runs it.
//
// # Usage
//
//	qp := lens.NewQueryProcessor(lens.WithBaseURL("https://api.tupl.xyz"))
//	defer qp.Close()
//
//	result, err := qp.ProcessQuery(ctx, "What are the implications of AI in healthcare?")
//	if err != nil {
//	    return err
//	}
//
//	sm := lens.NewSteeringManager()
//	defer sm.Close()
//
//	_, err = sm.AddSteeringDirective(ctx, result.ContractID, "step_1",
//	    lens.NewSteeringDirective("Focus on peer-reviewed studies", lens.StepEvidenceGathering))
//	if err != nil {
//	    return err
//	}
//	updated, err := sm.ApplySteeringAndRerun(ctx, result.ContractID)
//
// # Errors
//
// Every failure is an [*Error]. Use [IsProcessingError] and
// [IsSteeringError] to tell the components apart, and [IsNotFound] to detect
// an unknown contract. Non-2xx responses wrap an [*HTTPStatusError].
// Nothing is retried.
package lens
