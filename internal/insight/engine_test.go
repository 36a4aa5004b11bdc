package insight

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/deal-insights/internal/model"
	"github.com/sells-group/deal-insights/internal/nextaction"
	"github.com/sells-group/deal-insights/internal/risk"
	"github.com/sells-group/deal-insights/pkg/anthropic"
)

var testNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func f64(v float64) *float64 { return &v }

// fakeAI returns a canned response or error and records call concurrency.
type fakeAI struct {
	text string
	err  error

	mu          sync.Mutex
	calls       int
	inFlight    int
	maxInFlight int
}

func (f *fakeAI) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	time.Sleep(time.Millisecond)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.text}},
	}, nil
}

func newTestEngine(ai anthropic.Client, opts ...Option) *Engine {
	base := []Option{WithClock(fixedNow)}
	if ai != nil {
		base = append(base, WithAIClient(ai, "claude-sonnet-4-5-20250929"))
	}
	return NewEngine(
		risk.NewScorer(risk.DefaultConfig(), fixedNow),
		nextaction.NewGenerator(fixedNow),
		append(base, opts...)...,
	)
}

func testSnapshot(id string) *model.OpportunitySnapshot {
	close := testNow.AddDate(0, 0, 5)
	last := testNow.AddDate(0, 0, -20)
	return &model.OpportunitySnapshot{
		ID:             id,
		Name:           "Acme expansion",
		Stage:          model.StageProspecting,
		Qualification:  30,
		Amount:         f64(600_000),
		CloseDate:      &close,
		CreatedAt:      testNow.AddDate(0, 0, -60),
		LastActivityAt: &last,
		Competition:    "high",
	}
}

func TestAssessRiskWithoutAI(t *testing.T) {
	engine := newTestEngine(nil)
	scorer := risk.NewScorer(risk.DefaultConfig(), fixedNow)

	snap := testSnapshot("opp-1")
	got := engine.AssessRisk(context.Background(), snap, OrgContext{})
	assert.Equal(t, scorer.Assess(snap), got)
	assert.Equal(t, model.StatusScored, got.Status)
}

func TestAssessRiskFallbackOnAIError(t *testing.T) {
	engine := newTestEngine(&fakeAI{err: errors.New("api unavailable")})
	scorer := risk.NewScorer(risk.DefaultConfig(), fixedNow)

	snap := testSnapshot("opp-2")
	base := scorer.Assess(snap)
	got := engine.AssessRisk(context.Background(), snap, OrgContext{})

	// Identical to the deterministic result except for the degraded status
	// and exactly one extra mitigation note.
	assert.Equal(t, base.Score, got.Score)
	assert.Equal(t, base.Factors, got.Factors)
	assert.Equal(t, base.Confidence, got.Confidence)
	assert.Equal(t, model.StatusDegraded, got.Status)
	assert.Equal(t, "ai call failed", got.DegradedReason)
	require.Len(t, got.Mitigations, len(base.Mitigations)+1)
	assert.Equal(t, base.Mitigations, got.Mitigations[:len(base.Mitigations)])
	assert.Equal(t, aiUnavailableNote, got.Mitigations[len(got.Mitigations)-1])
}

func TestAssessRiskFallbackOnMalformedResponse(t *testing.T) {
	engine := newTestEngine(&fakeAI{text: "I'm sorry, I can't help with that."})

	got := engine.AssessRisk(context.Background(), testSnapshot("opp-3"), OrgContext{})
	assert.Equal(t, model.StatusDegraded, got.Status)
	assert.Equal(t, "malformed ai response", got.DegradedReason)
}

func TestAssessRiskMergesAIPayload(t *testing.T) {
	engine := newTestEngine(&fakeAI{text: `Here is my assessment:
{
  "risk_score": 82,
  "risk_factors": {"stage": 90, "engagement": 95},
  "confidence": 0.8,
  "mitigation_strategies": ["Escalate to the VP of Sales."]
}`})
	scorer := risk.NewScorer(risk.DefaultConfig(), fixedNow)

	snap := testSnapshot("opp-4")
	base := scorer.Assess(snap)
	got := engine.AssessRisk(context.Background(), snap, OrgContext{})

	assert.Equal(t, model.StatusScored, got.Status)
	assert.Equal(t, 82, got.Score)
	assert.Equal(t, "claude-sonnet-4-5-20250929", got.ModelVersion)
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)
	assert.Equal(t, []string{"Escalate to the VP of Sales."}, got.Mitigations)

	// Named factors are overridden, unnamed ones keep rule-based values.
	assert.Equal(t, 90.0, got.Factors.Stage)
	assert.Equal(t, 95.0, got.Factors.Engagement)
	assert.Equal(t, base.Factors.Qualification, got.Factors.Qualification)
	assert.Equal(t, base.Factors.Budget, got.Factors.Budget)
}

func TestAssessRiskClampsAIValues(t *testing.T) {
	engine := newTestEngine(&fakeAI{text: `{"risk_score": 250, "confidence": 3.5}`})

	got := engine.AssessRisk(context.Background(), testSnapshot("opp-5"), OrgContext{})
	assert.Equal(t, 100, got.Score)
	assert.InDelta(t, 0.5, got.Confidence, 1e-9, "out-of-range confidence becomes neutral")
}

func TestRecommendActionsWithoutAI(t *testing.T) {
	engine := newTestEngine(nil)
	gen := nextaction.NewGenerator(fixedNow)

	snap := testSnapshot("opp-6")
	got := engine.RecommendActions(context.Background(), snap, OrgContext{})
	assert.Equal(t, "opp-6", got.OpportunityID)
	assert.False(t, got.Degraded)
	assert.Equal(t, gen.Generate(snap), got.Actions)
}

func TestRecommendActionsFallbackOnAIError(t *testing.T) {
	engine := newTestEngine(&fakeAI{err: errors.New("timeout")})
	gen := nextaction.NewGenerator(fixedNow)

	snap := testSnapshot("opp-7")
	got := engine.RecommendActions(context.Background(), snap, OrgContext{})
	assert.True(t, got.Degraded)
	assert.Equal(t, "ai call failed", got.DegradedReason)
	assert.Equal(t, gen.Generate(snap), got.Actions, "no partial merge on failure")
}

func TestRecommendActionsMergesAIList(t *testing.T) {
	engine := newTestEngine(&fakeAI{text: `{
  "actions": [
    {"action": "Request a security questionnaire walkthrough", "priority": "high", "reasoning": "Security review gates the contract.", "impact": 88}
  ]
}`})

	snap := testSnapshot("opp-8")
	got := engine.RecommendActions(context.Background(), snap, OrgContext{})
	require.False(t, got.Degraded)

	var aiAction *model.NextAction
	for i := range got.Actions {
		if got.Actions[i].Action == "Request a security questionnaire walkthrough" {
			aiAction = &got.Actions[i]
		}
	}
	require.NotNil(t, aiAction, "distinct AI action survives the merge")
	assert.Equal(t, model.PriorityHigh, aiAction.Priority)
	assert.Equal(t, 88, aiAction.Impact)
	assert.Equal(t, 2, aiAction.Effort, "walkthrough classifies as meeting-scale effort")
	require.NotNil(t, aiAction.DueDate)
	assert.Equal(t, testNow.AddDate(0, 0, 1), *aiAction.DueDate)
}

func TestRecommendActionsEmptyAIListDegrades(t *testing.T) {
	engine := newTestEngine(&fakeAI{text: `{"actions": []}`})

	got := engine.RecommendActions(context.Background(), testSnapshot("opp-9"), OrgContext{})
	assert.True(t, got.Degraded)
	assert.Equal(t, "malformed ai response", got.DegradedReason)
}

func TestMapAIActionsDefaults(t *testing.T) {
	engine := newTestEngine(nil)

	payload := &actionsPayload{Actions: []actionItem{
		{Action: "Ping the champion", Priority: "someday"},
		{Action: ""},
	}}
	out := engine.mapAIActions(payload)
	require.Len(t, out, 1, "empty action text is dropped")
	assert.Equal(t, model.PriorityMedium, out[0].Priority)
	assert.Equal(t, 50, out[0].Impact, "missing impact gets the neutral default")
	assert.Equal(t, 1, out[0].Effort)
}
