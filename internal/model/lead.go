package model

import "time"

// LeadSnapshot is a read-only view of one inbound lead at scoring time.
type LeadSnapshot struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Title       string     `json:"title,omitempty"`
	Company     string     `json:"company,omitempty"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Source      string     `json:"source,omitempty"`
	Industry    string     `json:"industry,omitempty"`
	Employees   int        `json:"employees,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastTouchAt *time.Time `json:"last_touch_at,omitempty"`
	TouchCount  int        `json:"touch_count"`

	OrganizationID string `json:"organization_id,omitempty"`
}

// LeadGrade is the letter band for a lead score.
type LeadGrade string

const (
	GradeA LeadGrade = "A"
	GradeB LeadGrade = "B"
	GradeC LeadGrade = "C"
	GradeD LeadGrade = "D"
)

// LeadScore is the output of one lead-scoring run.
type LeadScore struct {
	LeadID     string             `json:"lead_id"`
	Score      int                `json:"score"` // 0-100, higher = better fit
	Grade      LeadGrade          `json:"grade"`
	Components map[string]float64 `json:"components"`
	Confidence float64            `json:"confidence"`
	ScoredAt   time.Time          `json:"scored_at"`
}
