package nextaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/deal-insights/internal/model"
)

func TestSimilar(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{
			"near duplicate with filler words",
			"Schedule discovery call",
			"Schedule a discovery call with the champion",
			true,
		},
		{
			"identical modulo case and punctuation",
			"Follow up on the proposal!",
			"follow up on the proposal",
			true,
		},
		{
			"different actions",
			"Send pricing breakdown",
			"Run loss review with the team",
			false,
		},
		{
			"partial overlap below threshold",
			"Identify the economic buyer",
			"Identify three reference customers",
			false,
		},
		{
			"empty side",
			"",
			"Schedule discovery call",
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Similar(tt.a, tt.b))
			assert.Equal(t, tt.want, Similar(tt.b, tt.a), "similarity is symmetric")
		})
	}
}

func TestMergeKeepsAllRuleBased(t *testing.T) {
	ruleBased := []model.NextAction{
		{Action: "Schedule discovery call", Priority: model.PriorityHigh, Impact: 75},
		{Action: "Develop an internal champion", Priority: model.PriorityHigh, Impact: 70},
	}
	ai := []model.NextAction{
		{Action: "Schedule a discovery call with the champion", Priority: model.PriorityHigh, Impact: 95},
	}

	merged := Merge(ruleBased, ai)
	require.Len(t, merged, 2, "the AI near-duplicate is dropped")
	assert.Equal(t, "Schedule discovery call", merged[0].Action)
	assert.Equal(t, "Develop an internal champion", merged[1].Action)
}

func TestMergeAddsDistinctAIActions(t *testing.T) {
	ruleBased := []model.NextAction{
		{Action: "Schedule discovery call", Priority: model.PriorityHigh, Impact: 75},
	}
	ai := []model.NextAction{
		{Action: "Request a security questionnaire walkthrough", Priority: model.PriorityMedium, Impact: 55},
	}

	merged := Merge(ruleBased, ai)
	require.Len(t, merged, 2)
	assert.Equal(t, "Schedule discovery call", merged[0].Action)
	assert.Equal(t, "Request a security questionnaire walkthrough", merged[1].Action)
}

func TestMergeRePrioritizesAndTruncates(t *testing.T) {
	var ruleBased []model.NextAction
	for _, a := range []string{"alpha one", "bravo two", "charlie three", "delta four"} {
		ruleBased = append(ruleBased, model.NextAction{
			Action: a, Priority: model.PriorityMedium, Impact: 50,
		})
	}
	ai := []model.NextAction{
		{Action: "echo five", Priority: model.PriorityHigh, Impact: 80},
		{Action: "foxtrot six", Priority: model.PriorityLow, Impact: 40},
	}

	merged := Merge(ruleBased, ai)
	require.Len(t, merged, MaxActions)
	assert.Equal(t, "echo five", merged[0].Action, "the high-priority AI action sorts first")
}

func TestMergeEmptyAI(t *testing.T) {
	ruleBased := []model.NextAction{
		{Action: "Schedule discovery call", Priority: model.PriorityHigh, Impact: 75},
	}
	merged := Merge(ruleBased, nil)
	assert.Equal(t, ruleBased, merged)
}
