package entity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/deal-insights/internal/model"
	"github.com/sells-group/deal-insights/pkg/salesforce"
)

// SalesforceSource implements Source over SOQL queries.
type SalesforceSource struct {
	client salesforce.Client
	orgID  string
}

// NewSalesforceSource creates a SalesforceSource. orgID is stamped onto
// every snapshot for insight-store partitioning.
func NewSalesforceSource(client salesforce.Client, orgID string) *SalesforceSource {
	return &SalesforceSource{client: client, orgID: orgID}
}

// opportunityRow mirrors the SOQL field set for Opportunity queries.
// Qualification and MEDDPICC fields are org custom fields.
type opportunityRow struct {
	ID               string   `json:"Id" salesforce:"Id"`
	Name             string   `json:"Name" salesforce:"Name"`
	StageName        string   `json:"StageName" salesforce:"StageName"`
	Amount           *float64 `json:"Amount" salesforce:"Amount"`
	CloseDate        string   `json:"CloseDate" salesforce:"CloseDate"`
	CreatedDate      string   `json:"CreatedDate" salesforce:"CreatedDate"`
	LastActivityDate string   `json:"LastActivityDate" salesforce:"LastActivityDate"`

	Qualification    int      `json:"Qualification_Score__c" salesforce:"Qualification_Score__c"`
	Budget           *float64 `json:"Budget__c" salesforce:"Budget__c"`
	Competition      string   `json:"Competition__c" salesforce:"Competition__c"`
	EconomicBuyer    string   `json:"Economic_Buyer__c" salesforce:"Economic_Buyer__c"`
	Champion         string   `json:"Champion__c" salesforce:"Champion__c"`
	DecisionMaker    string   `json:"Decision_Maker__c" salesforce:"Decision_Maker__c"`
	DecisionProcess  string   `json:"Decision_Process__c" salesforce:"Decision_Process__c"`
	DecisionCriteria string   `json:"Decision_Criteria__c" salesforce:"Decision_Criteria__c"`
	PaperProcess     string   `json:"Paper_Process__c" salesforce:"Paper_Process__c"`
	IdentifiedPain   string   `json:"Identified_Pain__c" salesforce:"Identified_Pain__c"`
	Metrics          string   `json:"Metrics__c" salesforce:"Metrics__c"`
}

var opportunityFields = []string{
	"Id", "Name", "StageName", "Amount", "CloseDate", "CreatedDate", "LastActivityDate",
	"Qualification_Score__c", "Budget__c", "Competition__c",
	"Economic_Buyer__c", "Champion__c", "Decision_Maker__c",
	"Decision_Process__c", "Decision_Criteria__c", "Paper_Process__c",
	"Identified_Pain__c", "Metrics__c",
}

// taskRow mirrors the SOQL field set for activity (Task) queries.
type taskRow struct {
	Subject      string `json:"Subject" salesforce:"Subject"`
	Type         string `json:"Type" salesforce:"Type"`
	ActivityDate string `json:"ActivityDate" salesforce:"ActivityDate"`
}

// contactRoleRow mirrors OpportunityContactRole with its joined Contact.
type contactRoleRow struct {
	Role    string `json:"Role" salesforce:"Role"`
	Contact struct {
		Name  string `json:"Name" salesforce:"Name"`
		Title string `json:"Title" salesforce:"Title"`
		Email string `json:"Email" salesforce:"Email"`
	} `json:"Contact" salesforce:"Contact"`
}

// GetOpportunity fetches one opportunity with activities and contacts joined.
func (s *SalesforceSource) GetOpportunity(ctx context.Context, id string) (*model.OpportunitySnapshot, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Opportunity WHERE Id = '%s' LIMIT 1",
		strings.Join(opportunityFields, ", "),
		escapeSoql(id),
	)

	var rows []opportunityRow
	if err := s.client.Query(ctx, soql, &rows); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("entity: query opportunity %s", id))
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("entity: opportunity %s not found", id)
	}

	snap := s.toSnapshot(&rows[0])
	if err := s.attachJoins(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// ListOpportunities fetches snapshots matching the filter. Activities and
// contacts are joined per opportunity.
func (s *SalesforceSource) ListOpportunities(ctx context.Context, filter Filter) ([]model.OpportunitySnapshot, error) {
	soql := fmt.Sprintf("SELECT %s FROM Opportunity", strings.Join(opportunityFields, ", "))

	var conds []string
	if filter.OpenOnly {
		conds = append(conds, "IsClosed = false")
	}
	if len(filter.Stages) > 0 {
		quoted := make([]string, len(filter.Stages))
		for i, st := range filter.Stages {
			quoted[i] = "'" + escapeSoql(string(st)) + "'"
		}
		conds = append(conds, fmt.Sprintf("StageName IN (%s)", strings.Join(quoted, ", ")))
	}
	if len(conds) > 0 {
		soql += " WHERE " + strings.Join(conds, " AND ")
	}
	soql += " ORDER BY CloseDate ASC"
	if filter.Limit > 0 {
		soql += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var rows []opportunityRow
	if err := s.client.Query(ctx, soql, &rows); err != nil {
		return nil, eris.Wrap(err, "entity: query opportunities")
	}

	snaps := make([]model.OpportunitySnapshot, 0, len(rows))
	for i := range rows {
		snap := s.toSnapshot(&rows[i])
		if err := s.attachJoins(ctx, snap); err != nil {
			return nil, err
		}
		snaps = append(snaps, *snap)
	}

	zap.L().Info("entity: fetched opportunities",
		zap.Int("count", len(snaps)),
	)
	return snaps, nil
}

// attachJoins loads activities and contact roles for a snapshot.
func (s *SalesforceSource) attachJoins(ctx context.Context, snap *model.OpportunitySnapshot) error {
	taskSoql := fmt.Sprintf(
		"SELECT Subject, Type, ActivityDate FROM Task WHERE WhatId = '%s' AND IsClosed = true ORDER BY ActivityDate DESC LIMIT 50",
		escapeSoql(snap.ID),
	)
	var tasks []taskRow
	if err := s.client.Query(ctx, taskSoql, &tasks); err != nil {
		return eris.Wrap(err, fmt.Sprintf("entity: query tasks for %s", snap.ID))
	}
	for _, t := range tasks {
		a := model.Activity{Type: t.Type, Subject: t.Subject}
		if ts, ok := parseDate(t.ActivityDate); ok {
			a.OccurredAt = ts
		}
		snap.Activities = append(snap.Activities, a)
	}

	roleSoql := fmt.Sprintf(
		"SELECT Role, Contact.Name, Contact.Title, Contact.Email FROM OpportunityContactRole WHERE OpportunityId = '%s'",
		escapeSoql(snap.ID),
	)
	var roles []contactRoleRow
	if err := s.client.Query(ctx, roleSoql, &roles); err != nil {
		return eris.Wrap(err, fmt.Sprintf("entity: query contact roles for %s", snap.ID))
	}
	for _, r := range roles {
		snap.Contacts = append(snap.Contacts, model.Contact{
			Name:  r.Contact.Name,
			Title: r.Contact.Title,
			Role:  r.Role,
			Email: r.Contact.Email,
		})
	}

	return nil
}

func (s *SalesforceSource) toSnapshot(row *opportunityRow) *model.OpportunitySnapshot {
	snap := &model.OpportunitySnapshot{
		ID:               row.ID,
		Name:             row.Name,
		Stage:            model.ParseStage(row.StageName),
		Qualification:    row.Qualification,
		Amount:           row.Amount,
		Budget:           row.Budget,
		Competition:      strings.ToLower(strings.TrimSpace(row.Competition)),
		EconomicBuyer:    row.EconomicBuyer,
		Champion:         row.Champion,
		DecisionMaker:    row.DecisionMaker,
		DecisionProcess:  row.DecisionProcess,
		DecisionCriteria: row.DecisionCriteria,
		PaperProcess:     row.PaperProcess,
		IdentifiedPain:   row.IdentifiedPain,
		MetricsStatement: row.Metrics,
		OrganizationID:   s.orgID,
	}

	if ts, ok := parseDate(row.CloseDate); ok {
		snap.CloseDate = &ts
	}
	if ts, ok := parseTimestamp(row.CreatedDate); ok {
		snap.CreatedAt = ts
	}
	if ts, ok := parseDate(row.LastActivityDate); ok {
		snap.LastActivityAt = &ts
	}

	return snap
}

// leadRow mirrors the SOQL field set for Lead queries.
type leadRow struct {
	ID                string `json:"Id" salesforce:"Id"`
	Name              string `json:"Name" salesforce:"Name"`
	Title             string `json:"Title" salesforce:"Title"`
	Company           string `json:"Company" salesforce:"Company"`
	Email             string `json:"Email" salesforce:"Email"`
	Phone             string `json:"Phone" salesforce:"Phone"`
	LeadSource        string `json:"LeadSource" salesforce:"LeadSource"`
	Industry          string `json:"Industry" salesforce:"Industry"`
	NumberOfEmployees int    `json:"NumberOfEmployees" salesforce:"NumberOfEmployees"`
	CreatedDate       string `json:"CreatedDate" salesforce:"CreatedDate"`
	LastActivityDate  string `json:"LastActivityDate" salesforce:"LastActivityDate"`
	TouchCount        int    `json:"Touch_Count__c" salesforce:"Touch_Count__c"`
}

var leadFields = []string{
	"Id", "Name", "Title", "Company", "Email", "Phone", "LeadSource",
	"Industry", "NumberOfEmployees", "CreatedDate", "LastActivityDate",
	"Touch_Count__c",
}

// GetLead fetches one lead snapshot.
func (s *SalesforceSource) GetLead(ctx context.Context, id string) (*model.LeadSnapshot, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Lead WHERE Id = '%s' LIMIT 1",
		strings.Join(leadFields, ", "),
		escapeSoql(id),
	)

	var rows []leadRow
	if err := s.client.Query(ctx, soql, &rows); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("entity: query lead %s", id))
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("entity: lead %s not found", id)
	}
	return s.toLeadSnapshot(&rows[0]), nil
}

// ListLeads fetches unconverted leads matching the filter.
func (s *SalesforceSource) ListLeads(ctx context.Context, filter Filter) ([]model.LeadSnapshot, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Lead WHERE IsConverted = false ORDER BY CreatedDate DESC",
		strings.Join(leadFields, ", "),
	)
	if filter.Limit > 0 {
		soql += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var rows []leadRow
	if err := s.client.Query(ctx, soql, &rows); err != nil {
		return nil, eris.Wrap(err, "entity: query leads")
	}

	leads := make([]model.LeadSnapshot, 0, len(rows))
	for i := range rows {
		leads = append(leads, *s.toLeadSnapshot(&rows[i]))
	}
	return leads, nil
}

func (s *SalesforceSource) toLeadSnapshot(row *leadRow) *model.LeadSnapshot {
	lead := &model.LeadSnapshot{
		ID:             row.ID,
		Name:           row.Name,
		Title:          row.Title,
		Company:        row.Company,
		Email:          row.Email,
		Phone:          row.Phone,
		Source:         row.LeadSource,
		Industry:       row.Industry,
		Employees:      row.NumberOfEmployees,
		TouchCount:     row.TouchCount,
		OrganizationID: s.orgID,
	}
	if ts, ok := parseTimestamp(row.CreatedDate); ok {
		lead.CreatedAt = ts
	}
	if ts, ok := parseDate(row.LastActivityDate); ok {
		lead.LastTouchAt = &ts
	}
	return lead
}

// parseDate handles SOQL date fields (2006-01-02).
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// parseTimestamp handles SOQL datetime fields (RFC3339 with numeric zone).
func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05.000-0700",
		time.RFC3339,
	} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// escapeSoql escapes single quotes in SOQL string literals to prevent injection.
func escapeSoql(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
