package insight

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/deal-insights/internal/model"
)

// neutralConfidence substitutes for a missing or out-of-range confidence in
// an AI response.
const neutralConfidence = 0.5

// riskPayload is the structured body expected from the AI risk call.
// Pointer fields distinguish "absent" from zero so defaults can apply.
type riskPayload struct {
	RiskScore            *float64           `json:"risk_score"`
	RiskFactors          map[string]float64 `json:"risk_factors"`
	Confidence           *float64           `json:"confidence"`
	MitigationStrategies []string           `json:"mitigation_strategies"`
}

// actionsPayload is the structured body expected from the AI action call.
type actionsPayload struct {
	Actions []actionItem `json:"actions"`
}

type actionItem struct {
	Action    string `json:"action"`
	Priority  string `json:"priority"`
	Reasoning string `json:"reasoning"`
	Impact    *int   `json:"impact"`
}

// extractJSON pulls the first JSON object out of a model response, tolerating
// markdown code fences and prose around the object.
func extractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", eris.New("insight: no JSON object in response")
	}
	return text[start : end+1], nil
}

func parseRiskPayload(text string) (*riskPayload, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}
	var p riskPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, eris.Wrap(err, "insight: decode risk payload")
	}
	return &p, nil
}

func parseActionsPayload(text string) (*actionsPayload, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}
	var p actionsPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, eris.Wrap(err, "insight: decode actions payload")
	}
	if len(p.Actions) == 0 {
		return nil, eris.New("insight: actions payload is empty")
	}
	return &p, nil
}

// mergeRiskPayload maps an AI risk payload onto the rule-based assessment
// shape with defensive defaults: any missing sub-field keeps the rule-based
// value, a missing confidence becomes neutral, and all numbers are clamped
// to their documented ranges.
func mergeRiskPayload(base model.RiskAssessment, p *riskPayload, modelVersion string) model.RiskAssessment {
	out := base
	out.Status = model.StatusScored
	out.ModelVersion = modelVersion

	if p.RiskScore != nil {
		out.Score = int(math.Round(clamp(*p.RiskScore, 0, 100)))
	}

	if len(p.RiskFactors) > 0 {
		fm := base.Factors.Map()
		for key, v := range p.RiskFactors {
			if _, ok := fm[key]; ok {
				fm[key] = clamp(v, 0, 100)
			}
		}
		out.Factors = factorsFromMap(fm)
	}

	if p.Confidence != nil && *p.Confidence >= 0 && *p.Confidence <= 1 {
		out.Confidence = *p.Confidence
	} else {
		out.Confidence = neutralConfidence
	}

	if len(p.MitigationStrategies) > 0 {
		out.Mitigations = p.MitigationStrategies
	}

	return out
}

func factorsFromMap(fm map[string]float64) model.RiskFactors {
	return model.RiskFactors{
		Stage:         fm[model.FactorStage],
		Qualification: fm[model.FactorQualification],
		Timeline:      fm[model.FactorTimeline],
		Value:         fm[model.FactorValue],
		Competition:   fm[model.FactorCompetition],
		Engagement:    fm[model.FactorEngagement],
		DecisionMaker: fm[model.FactorDecisionMaker],
		Budget:        fm[model.FactorBudget],
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
