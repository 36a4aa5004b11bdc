// Package entity reads opportunity and lead snapshots out of the CRM. The
// engine consumes the Source interface only; the Salesforce implementation
// lives alongside it.
package entity

import (
	"context"

	"github.com/sells-group/deal-insights/internal/model"
)

// Filter narrows bulk snapshot fetches.
type Filter struct {
	Stages         []model.Stage `json:"stages,omitempty"`
	OrganizationID string        `json:"organization_id,omitempty"`
	OpenOnly       bool          `json:"open_only,omitempty"`
	Limit          int           `json:"limit,omitempty"`
}

// Source is the read-only entity data boundary: snapshots come back with
// activities and contacts already joined.
type Source interface {
	GetOpportunity(ctx context.Context, id string) (*model.OpportunitySnapshot, error)
	ListOpportunities(ctx context.Context, filter Filter) ([]model.OpportunitySnapshot, error)
	GetLead(ctx context.Context, id string) (*model.LeadSnapshot, error)
	ListLeads(ctx context.Context, filter Filter) ([]model.LeadSnapshot, error)
}
