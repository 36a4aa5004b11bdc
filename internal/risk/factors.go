package risk

import (
	"math"
	"strings"
	"time"

	"github.com/sells-group/deal-insights/internal/model"
)

// Each factor calculator is a pure mapping from one snapshot attribute to a
// risk magnitude in [0,100], higher = riskier. The bands below are fixed
// policy; the aggregator weights them into the composite score.

// stageRisk looks up the per-stage risk table.
func stageRisk(stage model.Stage, cfg Config) float64 {
	if r, ok := cfg.StageRisk[stage]; ok {
		return r
	}
	return cfg.UnknownStageRisk
}

// qualificationRisk is an inverse step function of the MEDDPICC
// completeness sub-score.
func qualificationRisk(score int) float64 {
	switch {
	case score >= 80:
		return 10
	case score >= 60:
		return 30
	case score >= 40:
		return 50
	case score >= 20:
		return 70
	default:
		return 90
	}
}

// timelineRisk scores days-until-close, then adds an age penalty for deals
// that have been open too long. A snapshot with no close date scores the
// far-future base: an unscheduled close is as uncertain as a distant one.
func timelineRisk(snap *model.OpportunitySnapshot, now time.Time) float64 {
	base := 60.0
	if days, ok := snap.DaysUntilClose(now); ok {
		switch {
		case days < 0:
			base = 100
		case days < 7:
			base = 80
		case days < 30:
			base = 60
		case days < 90:
			base = 40
		default:
			base = 60
		}
	}

	switch age := snap.AgeDays(now); {
	case age > 180:
		base += 20
	case age > 90:
		base += 10
	}

	return math.Min(base, 100)
}

// valueRisk bands the deal amount. A missing amount is itself risky;
// half-million-plus deals carry elevated approval-friction risk.
func valueRisk(amount *float64) float64 {
	if amount == nil || *amount <= 0 {
		return 80
	}
	switch v := *amount; {
	case v > 500_000:
		return 70
	case v > 250_000:
		return 40
	case v > 100_000:
		return 30
	case v > 50_000:
		return 20
	default:
		return 10
	}
}

// competitionRisk looks up the competitive-intensity label.
func competitionRisk(label string, cfg Config) float64 {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return cfg.UnknownCompetitionRisk
	}
	if r, ok := cfg.CompetitionRisk[l]; ok {
		return r
	}
	return cfg.UnknownCompetitionRisk
}

// engagementRisk starts at a neutral base and accumulates penalties for thin
// activity logs, thin contact coverage, and stale last-activity timestamps.
func engagementRisk(snap *model.OpportunitySnapshot, now time.Time) float64 {
	r := 50.0

	switch n := len(snap.Activities); {
	case n < 3:
		r += 20
	case n < 5:
		r += 10
	}

	switch n := len(snap.Contacts); {
	case n < 2:
		r += 15
	case n < 4:
		r += 5
	}

	if days, ok := snap.DaysSinceActivity(now); ok {
		switch {
		case days > 30:
			r += 30
		case days > 14:
			r += 20
		case days > 7:
			r += 10
		}
	} else {
		r += 25
	}

	return math.Min(r, 100)
}

// decisionMakerRisk starts high and is reduced by a fixed deduction for each
// identified buying role or documented decision element. Floor 0.
func decisionMakerRisk(snap *model.OpportunitySnapshot) float64 {
	r := 80.0
	if snap.EconomicBuyer != "" {
		r -= 30
	}
	if snap.Champion != "" {
		r -= 20
	}
	if snap.DecisionMaker != "" {
		r -= 15
	}
	if snap.DecisionProcess != "" {
		r -= 10
	}
	if snap.DecisionCriteria != "" {
		r -= 10
	}
	return math.Max(r, 0)
}

// budgetRisk bands the deal-value-to-budget ratio. Unknown budget or value
// is mid-high risk on its own.
func budgetRisk(amount, budget *float64) float64 {
	if amount == nil || *amount <= 0 || budget == nil || *budget <= 0 {
		return 70
	}
	switch ratio := *amount / *budget; {
	case ratio > 1.2:
		return 80
	case ratio > 1.0:
		return 60
	case ratio > 0.8:
		return 40
	case ratio > 0.5:
		return 25
	default:
		return 10
	}
}

// Factors computes all eight factor calculators for a snapshot at the given
// reference time. Pure; the snapshot is never mutated.
func Factors(snap *model.OpportunitySnapshot, cfg Config, now time.Time) model.RiskFactors {
	return model.RiskFactors{
		Stage:         stageRisk(snap.Stage, cfg),
		Qualification: qualificationRisk(snap.Qualification),
		Timeline:      timelineRisk(snap, now),
		Value:         valueRisk(snap.Amount),
		Competition:   competitionRisk(snap.Competition, cfg),
		Engagement:    engagementRisk(snap, now),
		DecisionMaker: decisionMakerRisk(snap),
		Budget:        budgetRisk(snap.Amount, snap.Budget),
	}
}
