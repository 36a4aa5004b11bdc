// Package risk implements the deterministic deal-risk calculators: eight
// pure factor calculators combined by a weighted aggregator into a single
// 0-100 risk score with a completeness-derived confidence and templated
// mitigation strategies.
package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/deal-insights/internal/model"
)

// Config holds the numeric policy for deal-risk scoring. It is injected at
// construction and treated as immutable, so per-organization overrides are a
// matter of building a different Config.
type Config struct {
	// Weights combine the eight factors; they must sum to 1.0.
	StageWeight         float64 `yaml:"stage_weight" mapstructure:"stage_weight"`
	QualificationWeight float64 `yaml:"qualification_weight" mapstructure:"qualification_weight"`
	TimelineWeight      float64 `yaml:"timeline_weight" mapstructure:"timeline_weight"`
	ValueWeight         float64 `yaml:"value_weight" mapstructure:"value_weight"`
	CompetitionWeight   float64 `yaml:"competition_weight" mapstructure:"competition_weight"`
	EngagementWeight    float64 `yaml:"engagement_weight" mapstructure:"engagement_weight"`
	DecisionMakerWeight float64 `yaml:"decision_maker_weight" mapstructure:"decision_maker_weight"`
	BudgetWeight        float64 `yaml:"budget_weight" mapstructure:"budget_weight"`

	// StageRisk maps each funnel stage to a fixed risk magnitude.
	StageRisk map[model.Stage]float64 `yaml:"stage_risk" mapstructure:"stage_risk"`
	// UnknownStageRisk applies to stages outside the closed set.
	UnknownStageRisk float64 `yaml:"unknown_stage_risk" mapstructure:"unknown_stage_risk"`

	// CompetitionRisk maps competitive-intensity labels to risk.
	CompetitionRisk map[string]float64 `yaml:"competition_risk" mapstructure:"competition_risk"`
	// UnknownCompetitionRisk applies to unrecognized labels. Organizations
	// with no competitive-intel history fall through to this mid-range
	// constant; that default is intentional, not an oversight.
	UnknownCompetitionRisk float64 `yaml:"unknown_competition_risk" mapstructure:"unknown_competition_risk"`

	// MitigationThreshold is the factor level above which the per-factor
	// mitigation template fires.
	MitigationThreshold float64 `yaml:"mitigation_threshold" mapstructure:"mitigation_threshold"`

	// LargeDealAmount marks deals big enough to warrant executive
	// involvement when engagement lags.
	LargeDealAmount float64 `yaml:"large_deal_amount" mapstructure:"large_deal_amount"`
}

// DefaultConfig returns the stock scoring policy. Weights sum to 1.0.
func DefaultConfig() Config {
	return Config{
		StageWeight:         0.20,
		QualificationWeight: 0.25,
		TimelineWeight:      0.15,
		ValueWeight:         0.10,
		CompetitionWeight:   0.10,
		EngagementWeight:    0.10,
		DecisionMakerWeight: 0.05,
		BudgetWeight:        0.05,

		StageRisk: map[model.Stage]float64{
			model.StageProspecting:   80,
			model.StageQualification: 60,
			model.StageNeedsAnalysis: 50,
			model.StageProposal:      40,
			model.StageNegotiation:   20,
			model.StageClosedWon:     0,
			model.StageClosedLost:    100,
		},
		UnknownStageRisk: 70,

		CompetitionRisk: map[string]float64{
			"none":     10,
			"low":      30,
			"moderate": 50,
			"high":     80,
			"intense":  90,
		},
		UnknownCompetitionRisk: 50,

		MitigationThreshold: 60,
		LargeDealAmount:     1_000_000,
	}
}

// WeightSum returns the sum of the eight factor weights.
func (c Config) WeightSum() float64 {
	return c.StageWeight + c.QualificationWeight + c.TimelineWeight +
		c.ValueWeight + c.CompetitionWeight + c.EngagementWeight +
		c.DecisionMakerWeight + c.BudgetWeight
}

// Weights returns the weight vector keyed by factor dimension.
func (c Config) Weights() map[string]float64 {
	return map[string]float64{
		model.FactorStage:         c.StageWeight,
		model.FactorQualification: c.QualificationWeight,
		model.FactorTimeline:      c.TimelineWeight,
		model.FactorValue:         c.ValueWeight,
		model.FactorCompetition:   c.CompetitionWeight,
		model.FactorEngagement:    c.EngagementWeight,
		model.FactorDecisionMaker: c.DecisionMakerWeight,
		model.FactorBudget:        c.BudgetWeight,
	}
}

// Validate checks that a Config is internally consistent.
func Validate(c Config) error {
	var errs []string

	for name, w := range c.Weights() {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s_weight must be >= 0", name))
		}
	}

	if math.Abs(c.WeightSum()-1.0) > 1e-9 {
		errs = append(errs, fmt.Sprintf("weights must sum to 1.0, got %.6f", c.WeightSum()))
	}

	for stage, r := range c.StageRisk {
		if r < 0 || r > 100 {
			errs = append(errs, fmt.Sprintf("stage_risk[%s] must be in [0,100]", stage))
		}
	}
	if c.UnknownStageRisk < 0 || c.UnknownStageRisk > 100 {
		errs = append(errs, "unknown_stage_risk must be in [0,100]")
	}

	for label, r := range c.CompetitionRisk {
		if r < 0 || r > 100 {
			errs = append(errs, fmt.Sprintf("competition_risk[%s] must be in [0,100]", label))
		}
	}
	if c.UnknownCompetitionRisk < 0 || c.UnknownCompetitionRisk > 100 {
		errs = append(errs, "unknown_competition_risk must be in [0,100]")
	}

	if c.MitigationThreshold < 0 || c.MitigationThreshold > 100 {
		errs = append(errs, "mitigation_threshold must be in [0,100]")
	}
	if c.LargeDealAmount < 0 {
		errs = append(errs, "large_deal_amount must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("risk: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
