package model

import "time"

// RiskFactors holds the eight per-dimension risk magnitudes, each in [0,100]
// with higher = riskier. Produced fresh per assessment and never mutated.
type RiskFactors struct {
	Stage         float64 `json:"stage"`
	Qualification float64 `json:"qualification"`
	Timeline      float64 `json:"timeline"`
	Value         float64 `json:"value"`
	Competition   float64 `json:"competition"`
	Engagement    float64 `json:"engagement"`
	DecisionMaker float64 `json:"decision_maker"`
	Budget        float64 `json:"budget"`
}

// Factor dimension keys, used for the factor map and the weight vector.
const (
	FactorStage         = "stage"
	FactorQualification = "qualification"
	FactorTimeline      = "timeline"
	FactorValue         = "value"
	FactorCompetition   = "competition"
	FactorEngagement    = "engagement"
	FactorDecisionMaker = "decision_maker"
	FactorBudget        = "budget"
)

// FactorKeys lists the eight dimensions in canonical order.
var FactorKeys = []string{
	FactorStage,
	FactorQualification,
	FactorTimeline,
	FactorValue,
	FactorCompetition,
	FactorEngagement,
	FactorDecisionMaker,
	FactorBudget,
}

// Map returns the factors keyed by dimension name.
func (f RiskFactors) Map() map[string]float64 {
	return map[string]float64{
		FactorStage:         f.Stage,
		FactorQualification: f.Qualification,
		FactorTimeline:      f.Timeline,
		FactorValue:         f.Value,
		FactorCompetition:   f.Competition,
		FactorEngagement:    f.Engagement,
		FactorDecisionMaker: f.DecisionMaker,
		FactorBudget:        f.Budget,
	}
}

// Get returns the factor value for a dimension key, with ok=false for
// unrecognized keys.
func (f RiskFactors) Get(key string) (float64, bool) {
	v, ok := f.Map()[key]
	return v, ok
}

// AssessmentStatus tags how an assessment was produced, so callers can
// branch on the recovery state without parsing mitigation strings.
type AssessmentStatus string

const (
	// StatusScored means the advertised path (AI-augmented or rule-based)
	// produced the result.
	StatusScored AssessmentStatus = "scored"
	// StatusDegraded means the AI path failed and the deterministic
	// fallback produced the result.
	StatusDegraded AssessmentStatus = "degraded"
)

// RiskAssessment is the aggregate output of one deal-risk assessment.
// A new assessment supersedes the old one; records are never updated in place.
type RiskAssessment struct {
	OpportunityID  string           `json:"opportunity_id"`
	Score          int              `json:"score"` // 0-100, higher = riskier
	Factors        RiskFactors      `json:"factors"`
	Confidence     float64          `json:"confidence"` // 0-1, data completeness
	Mitigations    []string         `json:"mitigations,omitempty"`
	Status         AssessmentStatus `json:"status"`
	DegradedReason string           `json:"degraded_reason,omitempty"`
	ModelVersion   string           `json:"model_version,omitempty"`
	AssessedAt     time.Time        `json:"assessed_at"`
}

// Priority ranks a recommended action.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns a sortable weight, higher = more urgent. Unknown priorities
// rank below low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// ActionCategory buckets a recommended action by the kind of work involved.
type ActionCategory string

const (
	CategoryResearch      ActionCategory = "research"
	CategoryOutreach      ActionCategory = "outreach"
	CategoryMeeting       ActionCategory = "meeting"
	CategoryProposal      ActionCategory = "proposal"
	CategoryFollowUp      ActionCategory = "follow_up"
	CategoryDocumentation ActionCategory = "documentation"
	CategoryInternal      ActionCategory = "internal"
)

// NextAction is one suggested action for an opportunity.
type NextAction struct {
	Action    string         `json:"action"`
	Priority  Priority       `json:"priority"`
	Reasoning string         `json:"reasoning,omitempty"`
	Impact    int            `json:"impact"` // 0-100 estimated impact
	Effort    int            `json:"effort"` // 1-3 rough effort scale
	Category  ActionCategory `json:"category"`
	DueDate   *time.Time     `json:"due_date,omitempty"`
	Assignee  string         `json:"assignee,omitempty"`
}

// RiskOutcome is the per-entity result wrapper for a batch risk run.
type RiskOutcome struct {
	OpportunityID  string         `json:"opportunity_id"`
	Assessment     RiskAssessment `json:"assessment"`
	Degraded       bool           `json:"degraded"`
	DegradedReason string         `json:"degraded_reason,omitempty"`
}

// ActionOutcome is the per-entity result wrapper for a batch next-action run.
type ActionOutcome struct {
	OpportunityID  string       `json:"opportunity_id"`
	Actions        []NextAction `json:"actions"`
	Degraded       bool         `json:"degraded"`
	DegradedReason string       `json:"degraded_reason,omitempty"`
}
