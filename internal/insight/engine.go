// Package insight implements the AI-augmented assessment engine: it wraps
// the deterministic risk and next-action generators with an external
// prediction call, merges the two result sets, and falls back to the pure
// rule-based output whenever the AI path fails. AI failures never surface
// as errors; they surface as degraded-status results.
package insight

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/deal-insights/internal/model"
	"github.com/sells-group/deal-insights/internal/nextaction"
	"github.com/sells-group/deal-insights/internal/risk"
	"github.com/sells-group/deal-insights/pkg/anthropic"
)

// aiUnavailableNote is appended to the mitigation list on fallback, in
// addition to the explicit degraded status, for display parity with the
// AI-augmented output.
const aiUnavailableNote = "AI assessment was unavailable; this is the deterministic rule-based result."

// OrgContext carries organization-level context into the AI prompt.
type OrgContext struct {
	OrganizationID string `json:"organization_id,omitempty"`
	Industry       string `json:"industry,omitempty"`
	SellingNotes   string `json:"selling_notes,omitempty"`
}

// Engine combines the rule-based scorers with an optional AI client. With
// no AI client configured, every call is the pure deterministic path.
type Engine struct {
	risk    *risk.Scorer
	actions *nextaction.Generator

	ai           anthropic.Client
	modelVersion string
	limiter      *rate.Limiter

	chunkSize int
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithAIClient enables the AI-augmented path using the given client and
// model identifier.
func WithAIClient(c anthropic.Client, modelVersion string) Option {
	return func(e *Engine) {
		e.ai = c
		e.modelVersion = modelVersion
	}
}

// WithRateLimit caps AI calls per second across the engine, shared by batch
// workers.
func WithRateLimit(rps float64) Option {
	return func(e *Engine) {
		if rps > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithChunkSize overrides the batch chunk size (default 5).
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithClock overrides the engine clock (used by tests).
func WithClock(nowFn func() time.Time) Option {
	return func(e *Engine) {
		if nowFn != nil {
			e.now = nowFn
		}
	}
}

// NewEngine creates an Engine over the given deterministic scorers.
func NewEngine(riskScorer *risk.Scorer, generator *nextaction.Generator, opts ...Option) *Engine {
	e := &Engine{
		risk:      riskScorer,
		actions:   generator,
		chunkSize: defaultChunkSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AssessRisk produces a risk assessment for one opportunity. When the AI
// client is configured the external call augments the rule-based result; on
// any AI failure the rule-based result is returned with degraded status and
// one extra mitigation note. This method never returns an error.
func (e *Engine) AssessRisk(ctx context.Context, snap *model.OpportunitySnapshot, octx OrgContext) model.RiskAssessment {
	base := e.risk.Assess(snap)
	if e.ai == nil {
		return base
	}

	resp, err := e.callAI(ctx, buildRiskPrompt(snap, octx))
	if err != nil {
		zap.L().Warn("insight: AI risk call failed, using rule-based fallback",
			zap.String("opportunity_id", snap.ID),
			zap.Error(err),
		)
		return degradeAssessment(base, "ai call failed")
	}

	payload, err := parseRiskPayload(resp.Text())
	if err != nil {
		zap.L().Warn("insight: malformed AI risk response, using rule-based fallback",
			zap.String("opportunity_id", snap.ID),
			zap.Error(err),
		)
		return degradeAssessment(base, "malformed ai response")
	}

	resp.Usage.LogCost(e.modelVersion, "risk_assessment")
	return mergeRiskPayload(base, payload, e.modelVersion)
}

// RecommendActions produces the prioritized next-action list for one
// opportunity. With AI configured, the AI list is classified, merged with
// the rule-based list, and deduplicated; on AI failure the rule-based list
// is returned whole (no partial merge). Never returns an error.
func (e *Engine) RecommendActions(ctx context.Context, snap *model.OpportunitySnapshot, octx OrgContext) model.ActionOutcome {
	ruleBased := e.actions.Generate(snap)
	outcome := model.ActionOutcome{
		OpportunityID: snap.ID,
		Actions:       ruleBased,
	}
	if e.ai == nil {
		return outcome
	}

	resp, err := e.callAI(ctx, buildActionsPrompt(snap, octx))
	if err != nil {
		zap.L().Warn("insight: AI action call failed, using rule-based fallback",
			zap.String("opportunity_id", snap.ID),
			zap.Error(err),
		)
		outcome.Degraded = true
		outcome.DegradedReason = "ai call failed"
		return outcome
	}

	payload, err := parseActionsPayload(resp.Text())
	if err != nil {
		zap.L().Warn("insight: malformed AI action response, using rule-based fallback",
			zap.String("opportunity_id", snap.ID),
			zap.Error(err),
		)
		outcome.Degraded = true
		outcome.DegradedReason = "malformed ai response"
		return outcome
	}

	resp.Usage.LogCost(e.modelVersion, "next_actions")

	aiActions := e.mapAIActions(payload)
	outcome.Actions = nextaction.Merge(ruleBased, aiActions)
	return outcome
}

// callAI applies the shared rate limit, stamps the model, and issues the
// prediction call.
func (e *Engine) callAI(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req.Model = e.modelVersion
	return e.ai.CreateMessage(ctx, req)
}

// mapAIActions converts raw AI action items into NextActions, inferring
// effort and category from the action text and the due date from priority.
func (e *Engine) mapAIActions(payload *actionsPayload) []model.NextAction {
	now := e.now()
	out := make([]model.NextAction, 0, len(payload.Actions))
	for _, a := range payload.Actions {
		if a.Action == "" {
			continue
		}
		priority := nextaction.ParsePriority(a.Priority)
		impact := 50 // neutral default for a missing impact estimate
		if a.Impact != nil {
			impact = clampInt(*a.Impact, 0, 100)
		}
		due := nextaction.DueDateForPriority(priority, now)
		out = append(out, model.NextAction{
			Action:    a.Action,
			Priority:  priority,
			Reasoning: a.Reasoning,
			Impact:    impact,
			Effort:    nextaction.ClassifyEffort(a.Action),
			Category:  nextaction.ClassifyCategory(a.Action),
			DueDate:   &due,
		})
	}
	return out
}

// degradeAssessment marks a rule-based assessment as the fallback result:
// identical score and factors, degraded status, one extra mitigation note.
func degradeAssessment(base model.RiskAssessment, reason string) model.RiskAssessment {
	base.Status = model.StatusDegraded
	base.DegradedReason = reason
	base.Mitigations = append(base.Mitigations, aiUnavailableNote)
	return base
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
