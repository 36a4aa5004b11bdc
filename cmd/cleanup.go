package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cleanupKeep int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete old insight records, keeping the most recent per entity",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		keep := cleanupKeep
		if keep == 0 {
			keep = cfg.Engine.CleanupKeep
		}

		deleted, err := st.CleanupOld(ctx, cfg.Salesforce.OrganizationID, keep)
		if err != nil {
			return eris.Wrap(err, "cleanup insights")
		}

		zap.L().Info("cleanup complete",
			zap.Int("deleted", deleted),
			zap.Int("kept_per_entity", keep),
		)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupKeep, "keep", 0, "records to keep per entity and insight type (defaults to config)")
	rootCmd.AddCommand(cleanupCmd)
}
