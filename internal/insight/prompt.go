package insight

import (
	"encoding/json"
	"fmt"

	"github.com/sells-group/deal-insights/internal/model"
	"github.com/sells-group/deal-insights/pkg/anthropic"
)

const maxResponseTokens = 1024

const riskSystemPrompt = `You are a revenue-operations analyst assessing the risk of B2B sales opportunities.
Given an opportunity snapshot, respond with a single JSON object and nothing else:
{
  "risk_score": <0-100 integer, higher = riskier>,
  "risk_factors": {"stage": <0-100>, "qualification": <0-100>, "timeline": <0-100>, "value": <0-100>, "competition": <0-100>, "engagement": <0-100>, "decision_maker": <0-100>, "budget": <0-100>},
  "confidence": <0.0-1.0>,
  "mitigation_strategies": ["<one sentence each>"]
}
Base every number on the snapshot data; do not invent fields that are not present.`

const actionsSystemPrompt = `You are a revenue-operations analyst recommending next actions for B2B sales opportunities.
Given an opportunity snapshot, respond with a single JSON object and nothing else:
{
  "actions": [
    {"action": "<imperative sentence>", "priority": "high|medium|low", "reasoning": "<one sentence>", "impact": <0-100>}
  ]
}
Recommend at most five actions, most impactful first.`

// promptPayload is the user-message body: the snapshot plus org context.
type promptPayload struct {
	Opportunity *model.OpportunitySnapshot `json:"opportunity"`
	Context     OrgContext                 `json:"context"`
}

func buildRiskPrompt(snap *model.OpportunitySnapshot, octx OrgContext) anthropic.MessageRequest {
	body, _ := json.Marshal(promptPayload{Opportunity: snap, Context: octx})
	return anthropic.MessageRequest{
		MaxTokens: maxResponseTokens,
		System:    riskSystemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf("Assess this opportunity:\n%s", body)},
		},
	}
}

func buildActionsPrompt(snap *model.OpportunitySnapshot, octx OrgContext) anthropic.MessageRequest {
	body, _ := json.Marshal(promptPayload{Opportunity: snap, Context: octx})
	return anthropic.MessageRequest{
		MaxTokens: maxResponseTokens,
		System:    actionsSystemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf("Recommend next actions for this opportunity:\n%s", body)},
		},
	}
}
