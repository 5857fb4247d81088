package lens

import (
	"encoding/json"
	"fmt"
)

// ReasoningStepType tags the cognitive operation a reasoning step performs.
// The string value is the wire value and must never change once published.
type ReasoningStepType string

const (
	// Core analysis
	StepProblemDecomposition ReasoningStepType = "problem_decomposition"
	StepFactExtraction       ReasoningStepType = "fact_extraction"
	StepEvidenceGathering    ReasoningStepType = "evidence_gathering"
	StepPatternRecognition   ReasoningStepType = "pattern_recognition"
	StepHypothesisFormation  ReasoningStepType = "hypothesis_formation"

	// Logical operations
	StepDeductiveReasoning ReasoningStepType = "deductive_reasoning"
	StepInductiveReasoning ReasoningStepType = "inductive_reasoning"
	StepAbductiveReasoning ReasoningStepType = "abductive_reasoning"
	StepCausalAnalysis     ReasoningStepType = "causal_analysis"
	StepContradictionCheck ReasoningStepType = "contradiction_check"

	// Evaluation
	StepEvidenceValidation   ReasoningStepType = "evidence_validation"
	StepConfidenceAssessment ReasoningStepType = "confidence_assessment"
	StepRiskAssessment       ReasoningStepType = "risk_assessment"
	StepComparativeAnalysis  ReasoningStepType = "comparative_analysis"
	StepQualityCheck         ReasoningStepType = "quality_check"

	// Synthesis
	StepInformationSynthesis     ReasoningStepType = "information_synthesis"
	StepConclusionFormation      ReasoningStepType = "conclusion_formation"
	StepRecommendationGeneration ReasoningStepType = "recommendation_generation"
	StepDecisionMaking           ReasoningStepType = "decision_making"

	// External operations
	StepToolInvocation     ReasoningStepType = "tool_invocation"
	StepKnowledgeRetrieval ReasoningStepType = "knowledge_retrieval"
	StepDocumentAnalysis   ReasoningStepType = "document_analysis"
	StepWebSearch          ReasoningStepType = "web_search"

	// Meta operations
	StepStrategyPlanning  ReasoningStepType = "strategy_planning"
	StepApproachSelection ReasoningStepType = "approach_selection"
	StepStepValidation    ReasoningStepType = "step_validation"
	StepErrorDetection    ReasoningStepType = "error_detection"
	StepCourseCorrection  ReasoningStepType = "course_correction"
)

// StepCategory groups step types for display and filtering. Categories are
// never sent on the wire.
type StepCategory string

const (
	CategoryAnalysis   StepCategory = "analysis"
	CategoryLogical    StepCategory = "logical"
	CategoryEvaluation StepCategory = "evaluation"
	CategorySynthesis  StepCategory = "synthesis"
	CategoryExternal   StepCategory = "external"
	CategoryMeta       StepCategory = "meta"
)

type stepTypeInfo struct {
	stepType ReasoningStepType
	category StepCategory
}

// stepTypes is the registry in declaration order.
var stepTypes = []stepTypeInfo{
	{StepProblemDecomposition, CategoryAnalysis},
	{StepFactExtraction, CategoryAnalysis},
	{StepEvidenceGathering, CategoryAnalysis},
	{StepPatternRecognition, CategoryAnalysis},
	{StepHypothesisFormation, CategoryAnalysis},

	{StepDeductiveReasoning, CategoryLogical},
	{StepInductiveReasoning, CategoryLogical},
	{StepAbductiveReasoning, CategoryLogical},
	{StepCausalAnalysis, CategoryLogical},
	{StepContradictionCheck, CategoryLogical},

	{StepEvidenceValidation, CategoryEvaluation},
	{StepConfidenceAssessment, CategoryEvaluation},
	{StepRiskAssessment, CategoryEvaluation},
	{StepComparativeAnalysis, CategoryEvaluation},
	{StepQualityCheck, CategoryEvaluation},

	{StepInformationSynthesis, CategorySynthesis},
	{StepConclusionFormation, CategorySynthesis},
	{StepRecommendationGeneration, CategorySynthesis},
	{StepDecisionMaking, CategorySynthesis},

	{StepToolInvocation, CategoryExternal},
	{StepKnowledgeRetrieval, CategoryExternal},
	{StepDocumentAnalysis, CategoryExternal},
	{StepWebSearch, CategoryExternal},

	{StepStrategyPlanning, CategoryMeta},
	{StepApproachSelection, CategoryMeta},
	{StepStepValidation, CategoryMeta},
	{StepErrorDetection, CategoryMeta},
	{StepCourseCorrection, CategoryMeta},
}

var stepTypeIndex = func() map[ReasoningStepType]StepCategory {
	idx := make(map[ReasoningStepType]StepCategory, len(stepTypes))
	for _, info := range stepTypes {
		idx[info.stepType] = info.category
	}
	return idx
}()

// AllStepTypes returns every step type in declaration order.
func AllStepTypes() []ReasoningStepType {
	out := make([]ReasoningStepType, 0, len(stepTypes))
	for _, info := range stepTypes {
		out = append(out, info.stepType)
	}
	return out
}

// AllCategories returns the step categories in declaration order.
func AllCategories() []StepCategory {
	return []StepCategory{
		CategoryAnalysis,
		CategoryLogical,
		CategoryEvaluation,
		CategorySynthesis,
		CategoryExternal,
		CategoryMeta,
	}
}

// StepTypesInCategory returns the step types belonging to category, or nil
// if the category is unknown.
func StepTypesInCategory(category StepCategory) []ReasoningStepType {
	var out []ReasoningStepType
	for _, info := range stepTypes {
		if info.category == category {
			out = append(out, info.stepType)
		}
	}
	return out
}

// ParseStepType maps a wire value back to its step type.
func ParseStepType(s string) (ReasoningStepType, error) {
	t := ReasoningStepType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStepType, s)
	}
	return t, nil
}

// String returns the wire value.
func (t ReasoningStepType) String() string {
	return string(t)
}

// IsValid reports whether t is a member of the enumeration.
func (t ReasoningStepType) IsValid() bool {
	_, ok := stepTypeIndex[t]
	return ok
}

// Category returns the category of t, or "" for unknown step types.
func (t ReasoningStepType) Category() StepCategory {
	return stepTypeIndex[t]
}

func (t ReasoningStepType) MarshalJSON() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStepType, string(t))
	}
	return json.Marshal(string(t))
}

func (t *ReasoningStepType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseStepType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// stepTypeStrings converts step types to their wire values, rejecting any
// value outside the enumeration.
func stepTypeStrings(types []ReasoningStepType) ([]string, error) {
	out := make([]string, 0, len(types))
	for _, t := range types {
		if !t.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStepType, string(t))
		}
		out = append(out, t.String())
	}
	return out, nil
}
