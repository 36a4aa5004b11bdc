package nextaction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/deal-insights/internal/model"
)

var testNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func TestGenerateCapsAtMaxActions(t *testing.T) {
	g := NewGenerator(fixedNow)

	// Everything missing fires every contextual and urgency rule.
	close := testNow.AddDate(0, 0, 3)
	snap := &model.OpportunitySnapshot{
		ID:          "opp-1",
		Stage:       model.StageQualification,
		Competition: "high",
		CloseDate:   &close,
		CreatedAt:   testNow.AddDate(0, 0, -90),
	}

	actions := g.Generate(snap)
	assert.LessOrEqual(t, len(actions), MaxActions)
	assert.Equal(t, MaxActions, len(actions), "this snapshot fires more rules than the cap")
}

func TestGenerateOrdering(t *testing.T) {
	g := NewGenerator(fixedNow)
	snap := &model.OpportunitySnapshot{
		ID:        "opp-2",
		Stage:     model.StageProspecting,
		CreatedAt: testNow.AddDate(0, 0, -10),
	}

	actions := g.Generate(snap)
	require.NotEmpty(t, actions)

	for i := 1; i < len(actions); i++ {
		prev, cur := actions[i-1], actions[i]
		assert.GreaterOrEqual(t, prev.Priority.Rank(), cur.Priority.Rank(),
			"priority must not increase down the list")
		if prev.Priority == cur.Priority {
			assert.GreaterOrEqual(t, prev.Impact, cur.Impact,
				"impact must not increase within a priority band")
		}
	}
}

func TestGenerateClosedDealSkipsContextualAndUrgency(t *testing.T) {
	g := NewGenerator(fixedNow)
	snap := &model.OpportunitySnapshot{
		ID:        "opp-3",
		Stage:     model.StageClosedWon,
		CreatedAt: testNow.AddDate(0, 0, -90),
	}

	actions := g.Generate(snap)
	require.Len(t, actions, 1)
	assert.Equal(t, "Hand off to the onboarding team", actions[0].Action)
}

func TestContextualActionsFireOnMissingFields(t *testing.T) {
	snap := &model.OpportunitySnapshot{
		Stage:         model.StageNeedsAnalysis,
		Qualification: 30,
		Competition:   "moderate",
	}

	actions := contextualActions(snap)
	texts := make([]string, len(actions))
	for i, a := range actions {
		texts[i] = a.Action
	}

	assert.Contains(t, texts, "Run a qualification gap review with the account team")
	assert.Contains(t, texts, "Identify and engage the economic buyer")
	assert.Contains(t, texts, "Develop an internal champion")
	assert.Contains(t, texts, "Map the customer decision process")
	assert.Contains(t, texts, "Build a competitive differentiation brief")
}

func TestContextualActionsQuietOnCompleteDeal(t *testing.T) {
	snap := &model.OpportunitySnapshot{
		Stage:           model.StageNegotiation,
		Qualification:   85,
		EconomicBuyer:   "J. Doe",
		Champion:        "A. Roe",
		DecisionProcess: "committee",
		Competition:     "none",
	}
	assert.Empty(t, contextualActions(snap))
}

func TestUrgencyActionsImminentClose(t *testing.T) {
	recent := testNow.AddDate(0, 0, -1)
	close := testNow.AddDate(0, 0, 4)
	snap := &model.OpportunitySnapshot{
		Stage:          model.StageNegotiation,
		CloseDate:      &close,
		LastActivityAt: &recent,
	}

	actions := urgencyActions(snap, testNow)
	require.Len(t, actions, 1)
	assert.Equal(t, "Accelerate the close plan with daily check-ins", actions[0].Action)
	assert.Equal(t, model.PriorityHigh, actions[0].Priority)
}

func TestUrgencyActionsStaleActivity(t *testing.T) {
	stale := testNow.AddDate(0, 0, -20)
	tests := []struct {
		name string
		last *time.Time
	}{
		{"never contacted", nil},
		{"stale contact", &stale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &model.OpportunitySnapshot{
				Stage:          model.StageProposal,
				LastActivityAt: tt.last,
			}
			actions := urgencyActions(snap, testNow)
			require.Len(t, actions, 1)
			assert.Equal(t, "Re-engage the account immediately", actions[0].Action)
		})
	}
}

func TestPrioritizeStability(t *testing.T) {
	in := []model.NextAction{
		{Action: "a", Priority: model.PriorityMedium, Impact: 60},
		{Action: "b", Priority: model.PriorityHigh, Impact: 70},
		{Action: "c", Priority: model.PriorityHigh, Impact: 70},
		{Action: "d", Priority: model.PriorityLow, Impact: 90},
	}

	out := Prioritize(in)
	require.Len(t, out, 4)
	assert.Equal(t, "b", out[0].Action)
	assert.Equal(t, "c", out[1].Action, "equal rank and impact keep generation order")
	assert.Equal(t, "a", out[2].Action)
	assert.Equal(t, "d", out[3].Action, "low priority sorts last regardless of impact")

	// Input is not mutated.
	assert.Equal(t, "a", in[0].Action)
}

func TestDueDateForPriority(t *testing.T) {
	assert.Equal(t, testNow.AddDate(0, 0, 1), DueDateForPriority(model.PriorityHigh, testNow))
	assert.Equal(t, testNow.AddDate(0, 0, 3), DueDateForPriority(model.PriorityMedium, testNow))
	assert.Equal(t, testNow.AddDate(0, 0, 7), DueDateForPriority(model.PriorityLow, testNow))
}
