// Package leadscore implements rule-based lead scoring: weighted components
// over contactability, seniority, firmographic fit, source quality, and
// engagement, producing a 0-100 score with a letter grade.
package leadscore

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/deal-insights/internal/model"
)

// Config holds the lead-scoring policy. Weights sum to 100.
type Config struct {
	ContactWeight    float64 `yaml:"contact_weight" mapstructure:"contact_weight"`
	SeniorityWeight  float64 `yaml:"seniority_weight" mapstructure:"seniority_weight"`
	FitWeight        float64 `yaml:"fit_weight" mapstructure:"fit_weight"`
	SourceWeight     float64 `yaml:"source_weight" mapstructure:"source_weight"`
	EngagementWeight float64 `yaml:"engagement_weight" mapstructure:"engagement_weight"`

	// TargetIndustries score full firmographic fit; everything else scores
	// partial credit.
	TargetIndustries []string `yaml:"target_industries" mapstructure:"target_industries"`

	// Employee head-count band for ideal-customer fit.
	MinEmployees int `yaml:"min_employees" mapstructure:"min_employees"`
	MaxEmployees int `yaml:"max_employees" mapstructure:"max_employees"`
}

// DefaultConfig returns the stock lead-scoring policy. Weights sum to 100.
func DefaultConfig() Config {
	return Config{
		ContactWeight:    20,
		SeniorityWeight:  25,
		FitWeight:        20,
		SourceWeight:     15,
		EngagementWeight: 20,

		TargetIndustries: []string{
			"financial services", "insurance", "professional services",
			"technology", "healthcare",
		},
		MinEmployees: 10,
		MaxEmployees: 1000,
	}
}

// WeightSum returns the sum of all component weights.
func (c Config) WeightSum() float64 {
	return c.ContactWeight + c.SeniorityWeight + c.FitWeight +
		c.SourceWeight + c.EngagementWeight
}

// Validate checks that a Config is internally consistent.
func Validate(c Config) error {
	var errs []string

	weights := map[string]float64{
		"contact_weight":    c.ContactWeight,
		"seniority_weight":  c.SeniorityWeight,
		"fit_weight":        c.FitWeight,
		"source_weight":     c.SourceWeight,
		"engagement_weight": c.EngagementWeight,
	}
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}
	if math.Abs(c.WeightSum()-100) > 1 {
		errs = append(errs, fmt.Sprintf("weights should sum to 100, got %.1f", c.WeightSum()))
	}
	if c.MaxEmployees > 0 && c.MaxEmployees < c.MinEmployees {
		errs = append(errs, "max_employees must be >= min_employees")
	}

	if len(errs) > 0 {
		return eris.Errorf("leadscore: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Scorer computes deterministic lead scores.
type Scorer struct {
	cfg Config
	now func() time.Time
}

// NewScorer creates a Scorer. A nil nowFn defaults to time.Now.
func NewScorer(cfg Config, nowFn func() time.Time) *Scorer {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Scorer{cfg: cfg, now: nowFn}
}

// Score computes the weighted lead score for one lead. Pure; cannot fail.
func (s *Scorer) Score(lead *model.LeadSnapshot) model.LeadScore {
	now := s.now()

	components := map[string]float64{
		"contact":    scoreContact(lead),
		"seniority":  scoreSeniority(lead.Title),
		"fit":        scoreFit(lead, s.cfg),
		"source":     scoreSource(lead.Source),
		"engagement": scoreEngagement(lead, now),
	}

	total := components["contact"]*s.cfg.ContactWeight +
		components["seniority"]*s.cfg.SeniorityWeight +
		components["fit"]*s.cfg.FitWeight +
		components["source"]*s.cfg.SourceWeight +
		components["engagement"]*s.cfg.EngagementWeight

	if sum := s.cfg.WeightSum(); sum > 0 {
		total = total / sum * 100
	}

	score := int(math.Round(math.Min(math.Max(total, 0), 100)))

	result := model.LeadScore{
		LeadID:     lead.ID,
		Score:      score,
		Grade:      gradeFor(score),
		Components: components,
		Confidence: confidence(lead),
		ScoredAt:   now,
	}

	zap.L().Debug("leadscore: scored lead",
		zap.String("lead_id", lead.ID),
		zap.Int("score", score),
		zap.String("grade", string(result.Grade)),
	)
	return result
}

func gradeFor(score int) model.LeadGrade {
	switch {
	case score >= 80:
		return model.GradeA
	case score >= 60:
		return model.GradeB
	case score >= 40:
		return model.GradeC
	default:
		return model.GradeD
	}
}

// scoreContact returns 0.0-1.0 for reachability: email dominates, phone helps.
func scoreContact(lead *model.LeadSnapshot) float64 {
	var score float64
	if lead.Email != "" {
		score += 0.6
	}
	if lead.Phone != "" {
		score += 0.4
	}
	return score
}

// scoreSeniority returns 0.0-1.0 from title keywords.
func scoreSeniority(title string) float64 {
	if title == "" {
		return 0
	}
	lower := strings.ToLower(title)
	switch {
	case containsAny(lower, "ceo", "cfo", "coo", "cto", "chief", "founder", "owner", "president", "partner"):
		return 1.0
	case containsAny(lower, "vp", "vice president", "head of"):
		return 0.9
	case containsAny(lower, "director", "principal"):
		return 0.8
	case containsAny(lower, "manager", "lead"):
		return 0.6
	default:
		return 0.3
	}
}

// scoreFit returns 0.0-1.0 for firmographic fit against the target profile.
func scoreFit(lead *model.LeadSnapshot, cfg Config) float64 {
	var score float64

	if lead.Industry != "" {
		score = 0.4 // known industry, outside the target list
		for _, target := range cfg.TargetIndustries {
			if strings.EqualFold(lead.Industry, target) {
				score = 0.6
				break
			}
		}
	}

	if lead.Employees > 0 {
		inBand := lead.Employees >= cfg.MinEmployees &&
			(cfg.MaxEmployees <= 0 || lead.Employees <= cfg.MaxEmployees)
		if inBand {
			score += 0.4
		} else {
			score += 0.1
		}
	}

	return math.Min(score, 1.0)
}

// scoreSource returns 0.0-1.0 from the lead source label.
func scoreSource(source string) float64 {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "referral", "partner":
		return 1.0
	case "event", "webinar":
		return 0.8
	case "website", "content":
		return 0.6
	case "list", "cold", "purchased":
		return 0.3
	case "":
		return 0.5 // unknown source is neutral
	default:
		return 0.5
	}
}

// scoreEngagement returns 0.0-1.0 from touch volume and recency.
func scoreEngagement(lead *model.LeadSnapshot, now time.Time) float64 {
	var score float64

	// Volume, capped at five touches.
	score += math.Min(float64(lead.TouchCount)/5, 1.0) * 0.5

	// Recency.
	if lead.LastTouchAt != nil {
		days := now.Sub(*lead.LastTouchAt).Hours() / 24
		switch {
		case days <= 7:
			score += 0.5
		case days <= 30:
			score += 0.3
		case days <= 90:
			score += 0.1
		}
	}

	return math.Min(score, 1.0)
}

// confidence is the completeness ratio over the six informational fields the
// scorer reads.
func confidence(lead *model.LeadSnapshot) float64 {
	present := 0
	for _, ok := range []bool{
		lead.Title != "",
		lead.Company != "",
		lead.Email != "" || lead.Phone != "",
		lead.Source != "",
		lead.Industry != "",
		lead.Employees > 0,
	} {
		if ok {
			present++
		}
	}
	return float64(present) / 6
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
