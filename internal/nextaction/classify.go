package nextaction

import (
	"strings"

	"github.com/sells-group/deal-insights/internal/model"
)

// Keyword buckets for classifying free-text actions coming back from the AI
// path. Matching is case-insensitive substring; buckets are checked in
// order and the first hit wins.

var effortBuckets = []struct {
	effort   int
	keywords []string
}{
	{3, []string{"research", "analyze", "analysis", "review", "prepare", "preparation", "plan", "build", "draft"}},
	{2, []string{"meeting", "demo", "presentation", "workshop", "walkthrough", "schedule"}},
	{1, []string{"email", "call", "message", "ping", "check in", "follow up", "follow-up"}},
}

// defaultEffort applies when no keyword bucket matches.
const defaultEffort = 2

// ClassifyEffort infers a 1-3 effort estimate from action text.
func ClassifyEffort(action string) int {
	lower := strings.ToLower(action)
	for _, b := range effortBuckets {
		for _, kw := range b.keywords {
			if strings.Contains(lower, kw) {
				return b.effort
			}
		}
	}
	return defaultEffort
}

var categoryBuckets = []struct {
	category model.ActionCategory
	keywords []string
}{
	{model.CategoryResearch, []string{"research", "analyze", "analysis", "investigate", "map the", "study"}},
	{model.CategoryMeeting, []string{"meeting", "demo", "presentation", "workshop", "schedule", "discovery call"}},
	{model.CategoryProposal, []string{"proposal", "quote", "pricing", "contract", "terms"}},
	{model.CategoryOutreach, []string{"reach out", "contact", "email", "call", "connect", "engage", "introduce"}},
	{model.CategoryDocumentation, []string{"document", "write up", "summarize", "record", "log "}},
	{model.CategoryInternal, []string{"internal", "align with", "sync with", "escalate", "team review"}},
	{model.CategoryFollowUp, []string{"follow up", "follow-up", "check in", "confirm", "remind"}},
}

// defaultCategory applies when no keyword bucket matches.
const defaultCategory = model.CategoryFollowUp

// ClassifyCategory infers an action category from action text.
func ClassifyCategory(action string) model.ActionCategory {
	lower := strings.ToLower(action)
	for _, b := range categoryBuckets {
		for _, kw := range b.keywords {
			if strings.Contains(lower, kw) {
				return b.category
			}
		}
	}
	return defaultCategory
}

// ParsePriority normalizes a free-text priority label, defaulting to medium.
func ParsePriority(raw string) model.Priority {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high", "urgent", "critical":
		return model.PriorityHigh
	case "low":
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}
