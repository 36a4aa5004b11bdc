// Package model defines the CRM entity snapshots and insight types shared
// across the scoring engine.
package model

import (
	"strings"
	"time"
)

// Stage is a funnel stage. The set is closed; anything else parses to
// StageUnknown and is scored with the unknown-stage default.
type Stage string

const (
	StageProspecting   Stage = "prospecting"
	StageQualification Stage = "qualification"
	StageNeedsAnalysis Stage = "needs_analysis"
	StageProposal      Stage = "proposal"
	StageNegotiation   Stage = "negotiation"
	StageClosedWon     Stage = "closed_won"
	StageClosedLost    Stage = "closed_lost"
	StageUnknown       Stage = "unknown"
)

// AllStages lists the valid funnel stages in pipeline order.
var AllStages = []Stage{
	StageProspecting,
	StageQualification,
	StageNeedsAnalysis,
	StageProposal,
	StageNegotiation,
	StageClosedWon,
	StageClosedLost,
}

// ParseStage normalizes a raw stage label. CRM stage names arrive in a few
// spellings ("Needs Analysis", "needs-analysis"); everything outside the
// closed set maps to StageUnknown.
func ParseStage(raw string) Stage {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "_", "-", "_", "/", "_").Replace(s)
	for _, st := range AllStages {
		if s == string(st) {
			return st
		}
	}
	return StageUnknown
}

// IsClosed reports whether the stage is terminal.
func (s Stage) IsClosed() bool {
	return s == StageClosedWon || s == StageClosedLost
}

// Activity is one logged touchpoint on an opportunity.
type Activity struct {
	Type       string    `json:"type"`
	Subject    string    `json:"subject,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Contact is one person associated with an opportunity.
type Contact struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
}

// OpportunitySnapshot is a read-only view of one sales opportunity at
// assessment time. Pointer fields are optional in the CRM; nil means the
// field was never populated, which is itself a scoring signal.
type OpportunitySnapshot struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Stage          Stage      `json:"stage"`
	Qualification  int        `json:"qualification"` // MEDDPICC completeness, 0-100
	Amount         *float64   `json:"amount,omitempty"`
	Budget         *float64   `json:"budget,omitempty"`
	CloseDate      *time.Time `json:"close_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	Activities     []Activity `json:"activities,omitempty"`
	Contacts       []Contact  `json:"contacts,omitempty"`

	// Competitive-intensity label: none, low, moderate, high, intense.
	Competition string `json:"competition,omitempty"`

	// MEDDPICC role and process fields. Empty string = not identified.
	EconomicBuyer    string `json:"economic_buyer,omitempty"`
	Champion         string `json:"champion,omitempty"`
	DecisionMaker    string `json:"decision_maker,omitempty"`
	DecisionProcess  string `json:"decision_process,omitempty"`
	DecisionCriteria string `json:"decision_criteria,omitempty"`
	PaperProcess     string `json:"paper_process,omitempty"`
	IdentifiedPain   string `json:"identified_pain,omitempty"`
	MetricsStatement string `json:"metrics_statement,omitempty"`

	OrganizationID string `json:"organization_id,omitempty"`
}

// DaysUntilClose returns whole days from now until the close date, negative
// when overdue. ok is false when no close date is set.
func (o *OpportunitySnapshot) DaysUntilClose(now time.Time) (days int, ok bool) {
	if o.CloseDate == nil {
		return 0, false
	}
	return int(o.CloseDate.Sub(now).Hours() / 24), true
}

// AgeDays returns whole days since the opportunity was created.
func (o *OpportunitySnapshot) AgeDays(now time.Time) int {
	if o.CreatedAt.IsZero() {
		return 0
	}
	return int(now.Sub(o.CreatedAt).Hours() / 24)
}

// DaysSinceActivity returns whole days since the last logged activity.
// ok is false when no activity has ever been logged.
func (o *OpportunitySnapshot) DaysSinceActivity(now time.Time) (days int, ok bool) {
	if o.LastActivityAt == nil {
		return 0, false
	}
	return int(now.Sub(*o.LastActivityAt).Hours() / 24), true
}
