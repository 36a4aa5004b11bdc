package risk

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/deal-insights/internal/model"
)

// trackedFields is the number of informational fields that feed the
// confidence completeness ratio.
const trackedFields = 10

// Scorer computes deterministic deal-risk assessments. It holds an immutable
// Config and a clock hook; Assess is a pure function of the snapshot and the
// clock.
type Scorer struct {
	cfg Config
	now func() time.Time
}

// NewScorer creates a Scorer. A nil nowFn defaults to time.Now.
func NewScorer(cfg Config, nowFn func() time.Time) *Scorer {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Scorer{cfg: cfg, now: nowFn}
}

// Config returns the scorer's policy config.
func (s *Scorer) Config() Config { return s.cfg }

// Assess computes the weighted aggregate risk score, confidence, and
// mitigation strategies for one opportunity. It has no side effects and
// cannot fail.
func (s *Scorer) Assess(snap *model.OpportunitySnapshot) model.RiskAssessment {
	now := s.now()
	factors := Factors(snap, s.cfg, now)

	weights := s.cfg.Weights()
	var total float64
	for key, v := range factors.Map() {
		total += v * weights[key]
	}
	score := int(math.Round(total))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	assessment := model.RiskAssessment{
		OpportunityID: snap.ID,
		Score:         score,
		Factors:       factors,
		Confidence:    Confidence(snap),
		Mitigations:   s.mitigations(snap, factors),
		Status:        model.StatusScored,
		AssessedAt:    now,
	}

	zap.L().Debug("risk: assessed opportunity",
		zap.String("opportunity_id", snap.ID),
		zap.Int("score", score),
		zap.Float64("confidence", assessment.Confidence),
	)

	return assessment
}

// Confidence returns the fraction of the ten tracked informational fields
// present on the snapshot. It is a completeness ratio, not a statistical
// estimator.
func Confidence(snap *model.OpportunitySnapshot) float64 {
	present := 0
	if snap.Name != "" {
		present++
	}
	if snap.Stage != "" && snap.Stage != model.StageUnknown {
		present++
	}
	if snap.Qualification > 0 {
		present++
	}
	if snap.Amount != nil && *snap.Amount > 0 {
		present++
	}
	if snap.CloseDate != nil {
		present++
	}
	if snap.EconomicBuyer != "" {
		present++
	}
	if snap.Champion != "" {
		present++
	}
	if snap.DecisionProcess != "" {
		present++
	}
	if snap.Competition != "" {
		present++
	}
	if snap.Budget != nil && *snap.Budget > 0 {
		present++
	}
	return float64(present) / trackedFields
}

// Per-factor mitigation templates, fired when the factor crosses the
// configured threshold. Ordered by model.FactorKeys for stable output.
var mitigationTemplates = map[string]string{
	model.FactorStage:         "Deal is early in the funnel; qualify aggressively before committing it to the forecast.",
	model.FactorQualification: "Qualification is weak; complete MEDDPICC discovery to close the qualification gaps.",
	model.FactorTimeline:      "Close date is at risk; reconfirm the timeline with the buyer and adjust the forecast.",
	model.FactorValue:         "Deal size raises approval friction; map the full signature chain early.",
	model.FactorCompetition:   "Competitive pressure is high; build and present a differentiation case.",
	model.FactorEngagement:    "Engagement is low; schedule touchpoints and widen the contact base.",
	model.FactorDecisionMaker: "Decision-maker coverage is thin; identify the economic buyer and champion.",
	model.FactorBudget:        "Budget alignment is unclear; validate budget directly with the economic buyer.",
}

// mitigations assembles threshold-triggered templates plus situational rules.
func (s *Scorer) mitigations(snap *model.OpportunitySnapshot, factors model.RiskFactors) []string {
	var out []string

	fm := factors.Map()
	for _, key := range model.FactorKeys {
		if fm[key] > s.cfg.MitigationThreshold {
			out = append(out, mitigationTemplates[key])
		}
	}

	// Situational rules.
	if snap.Stage == model.StageProspecting && factors.Qualification > 50 {
		out = append(out, "Opportunity is stalled in prospecting; run a qualification call and move it to the next stage.")
	}
	if snap.Amount != nil && *snap.Amount > s.cfg.LargeDealAmount && factors.Engagement > s.cfg.MitigationThreshold {
		out = append(out, "Large deal with low engagement; bring in an executive sponsor to re-energize the account.")
	}
	if snap.Champion == "" && factors.DecisionMaker > s.cfg.MitigationThreshold {
		out = append(out, "No champion identified; invest in developing one before the next stage gate.")
	}

	return out
}
