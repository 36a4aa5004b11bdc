package insight

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/deal-insights/internal/insightstore"
	"github.com/sells-group/deal-insights/internal/model"
)

// Persistence always writes a fresh record; the newest record per
// (entity, type) is the current insight. Unlike AI failures, a failed write
// is a hard error for the caller.

// StoreAssessment writes a risk assessment to the insight store.
func StoreAssessment(ctx context.Context, store insightstore.Store, a model.RiskAssessment, orgID string) (*insightstore.Insight, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, eris.Wrapf(err, "insight: marshal assessment for %s", a.OpportunityID)
	}

	rec, err := store.Create(ctx, insightstore.Insight{
		Type:           insightstore.TypeRiskAssessment,
		EntityType:     insightstore.EntityOpportunity,
		EntityID:       a.OpportunityID,
		Payload:        payload,
		Confidence:     a.Confidence,
		ModelVersion:   a.ModelVersion,
		OrganizationID: orgID,
	})
	if err != nil {
		return nil, err
	}

	zap.L().Debug("insight: stored risk assessment",
		zap.String("opportunity_id", a.OpportunityID),
		zap.String("insight_id", rec.ID),
	)
	return rec, nil
}

// StoreActions writes a next-action list to the insight store.
func StoreActions(ctx context.Context, store insightstore.Store, o model.ActionOutcome, confidence float64, modelVersion, orgID string) (*insightstore.Insight, error) {
	payload, err := json.Marshal(o)
	if err != nil {
		return nil, eris.Wrapf(err, "insight: marshal actions for %s", o.OpportunityID)
	}

	return store.Create(ctx, insightstore.Insight{
		Type:           insightstore.TypeNextActions,
		EntityType:     insightstore.EntityOpportunity,
		EntityID:       o.OpportunityID,
		Payload:        payload,
		Confidence:     confidence,
		ModelVersion:   modelVersion,
		OrganizationID: orgID,
	})
}

// StoreLeadScore writes a lead score to the insight store.
func StoreLeadScore(ctx context.Context, store insightstore.Store, s model.LeadScore, orgID string) (*insightstore.Insight, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, eris.Wrapf(err, "insight: marshal lead score for %s", s.LeadID)
	}

	return store.Create(ctx, insightstore.Insight{
		Type:           insightstore.TypeLeadScore,
		EntityType:     insightstore.EntityLead,
		EntityID:       s.LeadID,
		Payload:        payload,
		Confidence:     s.Confidence,
		OrganizationID: orgID,
	})
}

// StoreRiskOutcomes persists a whole batch, stopping at the first write
// failure. Returns the number of records written.
func StoreRiskOutcomes(ctx context.Context, store insightstore.Store, outcomes []model.RiskOutcome, orgID string) (int, error) {
	for i := range outcomes {
		if _, err := StoreAssessment(ctx, store, outcomes[i].Assessment, orgID); err != nil {
			return i, eris.Wrapf(err, "insight: store batch outcome %d", i)
		}
	}
	return len(outcomes), nil
}
