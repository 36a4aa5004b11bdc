// Package insightstore persists assessment results as an append-mostly log
// keyed by (entity type, entity id, insight type). A new record is written
// per assessment; old records are never mutated, only pruned.
package insightstore

import (
	"context"
	"time"
)

// Type identifies the kind of insight a record holds.
type Type string

const (
	TypeRiskAssessment Type = "risk_assessment"
	TypeNextActions    Type = "next_actions"
	TypeLeadScore      Type = "lead_score"
)

// Entity types the store partitions on.
const (
	EntityOpportunity = "opportunity"
	EntityLead        = "lead"
)

// Insight is one stored insight record.
type Insight struct {
	ID             string    `json:"id"`
	Type           Type      `json:"type"`
	EntityType     string    `json:"entity_type"`
	EntityID       string    `json:"entity_id"`
	Payload        []byte    `json:"payload"`
	Confidence     float64   `json:"confidence"`
	ModelVersion   string    `json:"model_version,omitempty"`
	OrganizationID string    `json:"organization_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store is the persistence boundary for insight records. Create always
// appends; a lost write is not locally recoverable, so write errors
// propagate to the caller.
type Store interface {
	Create(ctx context.Context, rec Insight) (*Insight, error)
	GetLatest(ctx context.Context, entityType, entityID string, t Type) (*Insight, error)
	// CleanupOld prunes superseded records for an organization, keeping the
	// newest `keep` per (entity_type, entity_id, type). Returns rows removed.
	CleanupOld(ctx context.Context, organizationID string, keep int) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}
