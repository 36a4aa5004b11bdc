package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/deal-insights/internal/entity"
	"github.com/sells-group/deal-insights/internal/insight"
)

var (
	batchLimit int
	batchUseAI bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Assess risk for all open opportunities and persist the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, batchUseAI)
		if err != nil {
			return err
		}
		defer env.Close()

		snaps, err := env.Source.ListOpportunities(ctx, entity.Filter{
			OrganizationID: env.OrgContext.OrganizationID,
			OpenOnly:       true,
			Limit:          batchLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list opportunities")
		}
		if len(snaps) == 0 {
			zap.L().Info("no open opportunities to assess")
			return nil
		}

		start := time.Now()
		outcomes := env.Engine.AssessBatch(ctx, snaps, env.OrgContext, batchUseAI)

		stored, err := insight.StoreRiskOutcomes(ctx, env.Store, outcomes, env.OrgContext.OrganizationID)
		if err != nil {
			zap.L().Error("batch persist failed",
				zap.Int("stored", stored),
				zap.Int("total", len(outcomes)),
				zap.Error(err),
			)
			return eris.Wrap(err, "store batch outcomes")
		}

		degraded := 0
		for _, o := range outcomes {
			if o.Degraded {
				degraded++
			}
		}
		zap.L().Info("batch complete",
			zap.Int("assessed", len(outcomes)),
			zap.Int("degraded", degraded),
			zap.Int("stored", stored),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 200, "max number of opportunities to assess")
	batchCmd.Flags().BoolVar(&batchUseAI, "ai", false, "augment rule-based scores with Claude")
	rootCmd.AddCommand(batchCmd)
}
