package entity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/deal-insights/internal/model"
)

// fakeSalesforce routes SOQL by object name and fills the output slice from
// canned rows.
type fakeSalesforce struct {
	opportunities []opportunityRow
	tasks         []taskRow
	roles         []contactRoleRow
	leads         []leadRow

	queries []string
}

func (f *fakeSalesforce) Query(ctx context.Context, soql string, out any) error {
	f.queries = append(f.queries, soql)
	switch dst := out.(type) {
	case *[]opportunityRow:
		*dst = f.opportunities
	case *[]taskRow:
		*dst = f.tasks
	case *[]contactRoleRow:
		*dst = f.roles
	case *[]leadRow:
		*dst = f.leads
	}
	return nil
}

func amount(v float64) *float64 { return &v }

func testOpportunityRow() opportunityRow {
	return opportunityRow{
		ID:               "006A0000012345",
		Name:             "Acme expansion",
		StageName:        "Needs Analysis",
		Amount:           amount(250_000),
		CloseDate:        "2026-04-15",
		CreatedDate:      "2026-01-10T09:30:00.000+0000",
		LastActivityDate: "2026-02-20",
		Qualification:    65,
		Budget:           amount(300_000),
		Competition:      "  Moderate ",
		EconomicBuyer:    "J. Doe",
		Champion:         "A. Roe",
	}
}

func TestGetOpportunityMapsFields(t *testing.T) {
	fake := &fakeSalesforce{
		opportunities: []opportunityRow{testOpportunityRow()},
		tasks:         []taskRow{{Subject: "Intro call", Type: "Call", ActivityDate: "2026-02-20"}},
		roles: []contactRoleRow{func() contactRoleRow {
			var r contactRoleRow
			r.Role = "Economic Buyer"
			r.Contact.Name = "J. Doe"
			r.Contact.Title = "CFO"
			r.Contact.Email = "jdoe@acme.example"
			return r
		}()},
	}
	src := NewSalesforceSource(fake, "org-1")

	snap, err := src.GetOpportunity(context.Background(), "006A0000012345")
	require.NoError(t, err)

	assert.Equal(t, "006A0000012345", snap.ID)
	assert.Equal(t, model.StageNeedsAnalysis, snap.Stage, "CRM stage labels are normalized")
	assert.Equal(t, 65, snap.Qualification)
	require.NotNil(t, snap.Amount)
	assert.Equal(t, 250_000.0, *snap.Amount)
	assert.Equal(t, "moderate", snap.Competition, "competition labels are normalized")
	assert.Equal(t, "org-1", snap.OrganizationID)

	require.NotNil(t, snap.CloseDate)
	assert.Equal(t, "2026-04-15", snap.CloseDate.Format("2006-01-02"))
	assert.Equal(t, 2026, snap.CreatedAt.Year())
	require.NotNil(t, snap.LastActivityAt)

	require.Len(t, snap.Activities, 1)
	assert.Equal(t, "Intro call", snap.Activities[0].Subject)
	require.Len(t, snap.Contacts, 1)
	assert.Equal(t, "J. Doe", snap.Contacts[0].Name)
	assert.Equal(t, "Economic Buyer", snap.Contacts[0].Role)
}

func TestGetOpportunityNotFound(t *testing.T) {
	src := NewSalesforceSource(&fakeSalesforce{}, "org-1")

	_, err := src.GetOpportunity(context.Background(), "006missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListOpportunitiesFilter(t *testing.T) {
	fake := &fakeSalesforce{opportunities: []opportunityRow{testOpportunityRow()}}
	src := NewSalesforceSource(fake, "org-1")

	snaps, err := src.ListOpportunities(context.Background(), Filter{
		OpenOnly: true,
		Stages:   []model.Stage{model.StageProposal, model.StageNegotiation},
		Limit:    25,
	})
	require.NoError(t, err)
	require.Len(t, snaps, 1)

	require.NotEmpty(t, fake.queries)
	soql := fake.queries[0]
	assert.Contains(t, soql, "IsClosed = false")
	assert.Contains(t, soql, "StageName IN ('proposal', 'negotiation')")
	assert.Contains(t, soql, "LIMIT 25")
}

func TestGetLeadMapsFields(t *testing.T) {
	fake := &fakeSalesforce{leads: []leadRow{{
		ID:                "00QA000001",
		Name:              "Pat Example",
		Title:             "VP of Operations",
		Company:           "Example Corp",
		Email:             "pat@example.com",
		LeadSource:        "Referral",
		Industry:          "Technology",
		NumberOfEmployees: 200,
		CreatedDate:       "2026-02-01T12:00:00.000+0000",
		LastActivityDate:  "2026-02-25",
		TouchCount:        4,
	}}}
	src := NewSalesforceSource(fake, "org-1")

	lead, err := src.GetLead(context.Background(), "00QA000001")
	require.NoError(t, err)
	assert.Equal(t, "Pat Example", lead.Name)
	assert.Equal(t, "Referral", lead.Source)
	assert.Equal(t, 200, lead.Employees)
	assert.Equal(t, 4, lead.TouchCount)
	assert.Equal(t, "org-1", lead.OrganizationID)
	require.NotNil(t, lead.LastTouchAt)
	assert.False(t, lead.CreatedAt.IsZero())
}

func TestListLeadsQuery(t *testing.T) {
	fake := &fakeSalesforce{leads: []leadRow{{ID: "00QA000001"}, {ID: "00QA000002"}}}
	src := NewSalesforceSource(fake, "org-1")

	leads, err := src.ListLeads(context.Background(), Filter{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, leads, 2)

	require.NotEmpty(t, fake.queries)
	assert.Contains(t, fake.queries[0], "IsConverted = false")
	assert.Contains(t, fake.queries[0], "LIMIT 50")
}

func TestEscapeSoql(t *testing.T) {
	assert.Equal(t, `O\'Brien`, escapeSoql("O'Brien"))
	assert.Equal(t, "plain", escapeSoql("plain"))
}

func TestParseTimestampLayouts(t *testing.T) {
	for _, raw := range []string{
		"2026-01-10T09:30:00.000+0000",
		"2026-01-10T09:30:00Z",
	} {
		ts, ok := parseTimestamp(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, 2026, ts.Year())
	}

	_, ok := parseTimestamp("")
	assert.False(t, ok)
	_, ok = parseTimestamp("not a date")
	assert.False(t, ok)
}
