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
	assessUseAI bool
	assessStore bool
)

var assessCmd = &cobra.Command{
	Use:   "assess <opportunity-id>",
	Short: "Assess deal risk for a single opportunity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, assessUseAI)
		if err != nil {
			return err
		}
		defer env.Close()

		snap, err := env.Source.GetOpportunity(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "fetch opportunity")
		}

		assessment := env.Engine.AssessRisk(ctx, snap, env.OrgContext)

		if assessStore {
			if _, err := insight.StoreAssessment(ctx, env.Store, assessment, env.OrgContext.OrganizationID); err != nil {
				return eris.Wrap(err, "store assessment")
			}
			zap.L().Info("assessment stored",
				zap.String("opportunity", assessment.OpportunityID),
				zap.Int("score", assessment.Score),
			)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(assessment)
	},
}

func init() {
	assessCmd.Flags().BoolVar(&assessUseAI, "ai", false, "augment the rule-based score with Claude")
	assessCmd.Flags().BoolVar(&assessStore, "store", false, "persist the assessment to the insight store")
	rootCmd.AddCommand(assessCmd)
}
