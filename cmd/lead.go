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

var leadStore bool

var leadCmd = &cobra.Command{
	Use:   "lead <lead-id>",
	Short: "Score and grade a single lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, false)
		if err != nil {
			return err
		}
		defer env.Close()

		lead, err := env.Source.GetLead(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "fetch lead")
		}

		score := env.LeadScorer.Score(lead)

		if leadStore {
			if _, err := insight.StoreLeadScore(ctx, env.Store, score, env.OrgContext.OrganizationID); err != nil {
				return eris.Wrap(err, "store lead score")
			}
			zap.L().Info("lead score stored",
				zap.String("lead", score.LeadID),
				zap.Int("score", score.Score),
				zap.String("grade", string(score.Grade)),
			)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(score)
	},
}

func init() {
	leadCmd.Flags().BoolVar(&leadStore, "store", false, "persist the score to the insight store")
	rootCmd.AddCommand(leadCmd)
}
