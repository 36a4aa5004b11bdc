// Package nextaction generates prioritized next-action recommendations for
// opportunities: fixed per-stage playbook templates, contextual actions
// driven by missing qualification data, and urgency actions driven by time.
package nextaction

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/deal-insights/internal/model"
)

// MaxActions caps the recommendation list after prioritization.
const MaxActions = 5

// stageTemplates holds the canned playbook actions per funnel stage.
var stageTemplates = map[model.Stage][]model.NextAction{
	model.StageProspecting: {
		{Action: "Schedule discovery call", Priority: model.PriorityHigh, Impact: 75, Effort: 2, Category: model.CategoryMeeting,
			Reasoning: "A discovery call is the fastest way to qualify a new opportunity."},
		{Action: "Research account and key stakeholders", Priority: model.PriorityMedium, Impact: 60, Effort: 3, Category: model.CategoryResearch,
			Reasoning: "Account context makes the first conversation count."},
	},
	model.StageQualification: {
		{Action: "Complete MEDDPICC qualification", Priority: model.PriorityHigh, Impact: 80, Effort: 3, Category: model.CategoryResearch,
			Reasoning: "A complete qualification picture drives every later stage."},
		{Action: "Identify the economic buyer", Priority: model.PriorityHigh, Impact: 78, Effort: 2, Category: model.CategoryOutreach,
			Reasoning: "Deals without economic-buyer access stall at approval."},
		{Action: "Document the identified pain", Priority: model.PriorityMedium, Impact: 60, Effort: 2, Category: model.CategoryDocumentation,
			Reasoning: "Written pain statements keep the team aligned on why the deal exists."},
	},
	model.StageNeedsAnalysis: {
		{Action: "Run technical deep-dive with the evaluation team", Priority: model.PriorityHigh, Impact: 75, Effort: 2, Category: model.CategoryMeeting,
			Reasoning: "Technical validation de-risks the proposal stage."},
		{Action: "Map decision criteria to product capabilities", Priority: model.PriorityMedium, Impact: 65, Effort: 3, Category: model.CategoryDocumentation,
			Reasoning: "An explicit criteria map shapes the proposal narrative."},
	},
	model.StageProposal: {
		{Action: "Deliver proposal and walk through pricing live", Priority: model.PriorityHigh, Impact: 85, Effort: 2, Category: model.CategoryProposal,
			Reasoning: "Proposals presented live close at a higher rate than emailed ones."},
		{Action: "Confirm paper process with procurement", Priority: model.PriorityMedium, Impact: 60, Effort: 1, Category: model.CategoryFollowUp,
			Reasoning: "Unmapped procurement steps are the most common late-stage surprise."},
	},
	model.StageNegotiation: {
		{Action: "Confirm signature chain and close plan", Priority: model.PriorityHigh, Impact: 82, Effort: 1, Category: model.CategoryFollowUp,
			Reasoning: "A mutual close plan keeps both sides honest on dates."},
		{Action: "Prepare negotiation concessions plan", Priority: model.PriorityHigh, Impact: 80, Effort: 3, Category: model.CategoryInternal,
			Reasoning: "Pre-approved concessions avoid mid-call escalations."},
	},
	model.StageClosedWon: {
		{Action: "Hand off to the onboarding team", Priority: model.PriorityMedium, Impact: 50, Effort: 1, Category: model.CategoryInternal,
			Reasoning: "A clean handoff protects the renewal."},
	},
	model.StageClosedLost: {
		{Action: "Run loss review and log competitive intel", Priority: model.PriorityLow, Impact: 30, Effort: 1, Category: model.CategoryInternal,
			Reasoning: "Loss reasons feed the next deal's differentiation case."},
	},
}

// Generator produces rule-based next-action recommendations.
type Generator struct {
	now func() time.Time
}

// NewGenerator creates a Generator. A nil nowFn defaults to time.Now.
func NewGenerator(nowFn func() time.Time) *Generator {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Generator{now: nowFn}
}

// Generate returns at most MaxActions recommendations for the snapshot,
// sorted by priority then estimated impact. Pure; cannot fail.
func (g *Generator) Generate(snap *model.OpportunitySnapshot) []model.NextAction {
	now := g.now()

	var actions []model.NextAction
	actions = append(actions, stageTemplates[snap.Stage]...)
	actions = append(actions, contextualActions(snap)...)
	actions = append(actions, urgencyActions(snap, now)...)

	out := Prioritize(actions)

	zap.L().Debug("nextaction: generated recommendations",
		zap.String("opportunity_id", snap.ID),
		zap.Int("count", len(out)),
	)
	return out
}

// contextualActions fires on missing structured fields.
func contextualActions(snap *model.OpportunitySnapshot) []model.NextAction {
	var out []model.NextAction

	if snap.Stage.IsClosed() {
		return out
	}

	if snap.Qualification < 50 {
		out = append(out, model.NextAction{
			Action: "Run a qualification gap review with the account team", Priority: model.PriorityHigh,
			Impact: 70, Effort: 2, Category: model.CategoryInternal,
			Reasoning: "The qualification sub-score is below 50; unknowns here compound downstream.",
		})
	}
	if snap.EconomicBuyer == "" {
		out = append(out, model.NextAction{
			Action: "Identify and engage the economic buyer", Priority: model.PriorityHigh,
			Impact: 80, Effort: 2, Category: model.CategoryOutreach,
			Reasoning: "No economic buyer is on record for this opportunity.",
		})
	}
	if snap.Champion == "" {
		out = append(out, model.NextAction{
			Action: "Develop an internal champion", Priority: model.PriorityHigh,
			Impact: 75, Effort: 2, Category: model.CategoryOutreach,
			Reasoning: "No champion is on record; someone has to sell when you are not in the room.",
		})
	}
	if snap.DecisionProcess == "" {
		out = append(out, model.NextAction{
			Action: "Map the customer decision process", Priority: model.PriorityMedium,
			Impact: 65, Effort: 2, Category: model.CategoryResearch,
			Reasoning: "The decision process is undocumented.",
		})
	}
	if c := snap.Competition; c != "" && c != "none" {
		out = append(out, model.NextAction{
			Action: "Build a competitive differentiation brief", Priority: model.PriorityMedium,
			Impact: 68, Effort: 3, Category: model.CategoryDocumentation,
			Reasoning: "Named competition is present on the deal.",
		})
	}

	return out
}

// urgencyActions fires on time pressure: imminent close dates and stale
// activity. A deal with no logged activity at all counts as stale.
func urgencyActions(snap *model.OpportunitySnapshot, now time.Time) []model.NextAction {
	var out []model.NextAction

	if snap.Stage.IsClosed() {
		return out
	}

	if days, ok := snap.DaysUntilClose(now); ok {
		switch {
		case days < 7:
			out = append(out, model.NextAction{
				Action: "Accelerate the close plan with daily check-ins", Priority: model.PriorityHigh,
				Impact: 90, Effort: 1, Category: model.CategoryFollowUp,
				Reasoning: "The close date is less than a week out.",
			})
		case days < 30:
			out = append(out, model.NextAction{
				Action: "Increase meeting cadence ahead of the close date", Priority: model.PriorityMedium,
				Impact: 70, Effort: 1, Category: model.CategoryMeeting,
				Reasoning: "The close date is inside thirty days.",
			})
		}
	}

	stale := snap.LastActivityAt == nil
	if days, ok := snap.DaysSinceActivity(now); ok && days > 14 {
		stale = true
	}
	if stale {
		out = append(out, model.NextAction{
			Action: "Re-engage the account immediately", Priority: model.PriorityHigh,
			Impact: 85, Effort: 1, Category: model.CategoryOutreach,
			Reasoning: "No activity has been logged in over two weeks.",
		})
	}

	return out
}

// Prioritize sorts actions by priority (high > medium > low) then estimated
// impact descending, and truncates to MaxActions. The sort is stable so
// equally ranked actions keep their generation order.
func Prioritize(actions []model.NextAction) []model.NextAction {
	out := make([]model.NextAction, len(actions))
	copy(out, actions)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority.Rank() != out[j].Priority.Rank() {
			return out[i].Priority.Rank() > out[j].Priority.Rank()
		}
		return out[i].Impact > out[j].Impact
	})

	if len(out) > MaxActions {
		out = out[:MaxActions]
	}
	return out
}

// DueDateForPriority computes a due date offset from the action priority:
// high +1 day, medium +3, low +7.
func DueDateForPriority(p model.Priority, now time.Time) time.Time {
	switch p {
	case model.PriorityHigh:
		return now.AddDate(0, 0, 1)
	case model.PriorityLow:
		return now.AddDate(0, 0, 7)
	default:
		return now.AddDate(0, 0, 3)
	}
}
