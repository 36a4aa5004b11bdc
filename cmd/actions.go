package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/deal-insights/internal/insight"
)

var (
	actionsUseAI bool
	actionsStore bool
)

var actionsCmd = &cobra.Command{
	Use:   "actions <opportunity-id>",
	Short: "Recommend next actions for a single opportunity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, actionsUseAI)
		if err != nil {
			return err
		}
		defer env.Close()

		snap, err := env.Source.GetOpportunity(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "fetch opportunity")
		}

		outcome := env.Engine.RecommendActions(ctx, snap, env.OrgContext)

		if actionsStore {
			assessment := env.Engine.AssessRisk(ctx, snap, env.OrgContext)
			if _, err := insight.StoreActions(ctx, env.Store, outcome, assessment.Confidence, cfg.Anthropic.Model, env.OrgContext.OrganizationID); err != nil {
				return eris.Wrap(err, "store actions")
			}
			zap.L().Info("actions stored",
				zap.String("opportunity", outcome.OpportunityID),
				zap.Int("count", len(outcome.Actions)),
			)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	},
}

func init() {
	actionsCmd.Flags().BoolVar(&actionsUseAI, "ai", false, "augment rule-based recommendations with Claude")
	actionsCmd.Flags().BoolVar(&actionsStore, "store", false, "persist the recommendations to the insight store")
	rootCmd.AddCommand(actionsCmd)
}
