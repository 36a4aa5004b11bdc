package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/deal-insights/internal/entity"
	"github.com/sells-group/deal-insights/internal/insight"
	"github.com/sells-group/deal-insights/internal/insightstore"
	"github.com/sells-group/deal-insights/internal/leadscore"
	"github.com/sells-group/deal-insights/internal/nextaction"
	"github.com/sells-group/deal-insights/internal/risk"
	anthropicpkg "github.com/sells-group/deal-insights/pkg/anthropic"
	sfpkg "github.com/sells-group/deal-insights/pkg/salesforce"
)

// insightEnv holds the initialized store, entity source, and engines needed
// by the assess/actions/lead/batch/serve commands.
type insightEnv struct {
	Store      insightstore.Store
	Source     entity.Source
	Engine     *insight.Engine
	LeadScorer *leadscore.Scorer
	OrgContext insight.OrgContext
}

// Close releases resources held by the environment.
func (ie *insightEnv) Close() {
	if ie.Store != nil {
		_ = ie.Store.Close()
	}
}

// initEnv sets up the store, Salesforce source, and scoring engines. Callers
// should defer env.Close(). useAI controls whether the Anthropic client is
// wired in; without it the engine is purely rule-based.
func initEnv(ctx context.Context, useAI bool) (*insightEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	sfClient, err := initSalesforce()
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	source := entity.NewSalesforceSource(sfClient, cfg.Salesforce.OrganizationID)

	riskCfg := risk.DefaultConfig()
	if err := risk.Validate(riskCfg); err != nil {
		_ = st.Close()
		return nil, err
	}

	opts := []insight.Option{
		insight.WithChunkSize(cfg.Engine.ChunkSize),
	}
	if useAI {
		if cfg.Anthropic.Key == "" {
			zap.L().Warn("DEALINSIGHTS_ANTHROPIC_KEY not set, falling back to rule-based scoring")
		} else {
			opts = append(opts,
				insight.WithAIClient(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model),
				insight.WithRateLimit(cfg.Anthropic.RatePerSec),
			)
		}
	}

	engine := insight.NewEngine(
		risk.NewScorer(riskCfg, nil),
		nextaction.NewGenerator(nil),
		opts...,
	)

	leadCfg := leadscore.DefaultConfig()
	if err := leadscore.Validate(leadCfg); err != nil {
		_ = st.Close()
		return nil, err
	}

	return &insightEnv{
		Store:      st,
		Source:     source,
		Engine:     engine,
		LeadScorer: leadscore.NewScorer(leadCfg, nil),
		OrgContext: insight.OrgContext{OrganizationID: cfg.Salesforce.OrganizationID},
	}, nil
}

func initStore(ctx context.Context) (insightstore.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "insights.db"
		}
		return insightstore.NewSQLite(dsn)
	case "postgres":
		return insightstore.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (DEALINSIGHTS_SALESFORCE_CLIENT_ID)")
	}

	return sfpkg.Connect(sfpkg.JWTConfig{
		LoginURL: cfg.Salesforce.LoginURL,
		Username: cfg.Salesforce.Username,
		ClientID: cfg.Salesforce.ClientID,
		KeyPath:  cfg.Salesforce.KeyPath,
	}, sfpkg.WithRateLimit(cfg.Salesforce.RatePerSec))
}
