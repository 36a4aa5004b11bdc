package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/deal-insights/internal/insight"
)

var (
	servePort  int
	serveUseAI bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start webhook server for assessment requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, serveUseAI)
		if err != nil {
			return err
		}
		defer env.Close()

		// Set up routes
		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		mux.HandleFunc("POST /webhook/assess", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				OpportunityID string `json:"opportunity_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
				return
			}

			if req.OpportunityID == "" {
				http.Error(w, `{"error":"opportunity_id is required"}`, http.StatusBadRequest)
				return
			}

			// Run the assessment asynchronously
			go func() {
				snap, err := env.Source.GetOpportunity(ctx, req.OpportunityID)
				if err != nil {
					zap.L().Error("webhook fetch failed",
						zap.String("opportunity", req.OpportunityID),
						zap.Error(err),
					)
					return
				}

				assessment := env.Engine.AssessRisk(ctx, snap, env.OrgContext)
				if _, err := insight.StoreAssessment(ctx, env.Store, assessment, env.OrgContext.OrganizationID); err != nil {
					zap.L().Error("webhook store failed",
						zap.String("opportunity", req.OpportunityID),
						zap.Error(err),
					)
					return
				}
				zap.L().Info("webhook assessment complete",
					zap.String("opportunity", assessment.OpportunityID),
					zap.Int("score", assessment.Score),
					zap.String("status", string(assessment.Status)),
				)
			}()

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]string{
				"status":      "accepted",
				"opportunity": req.OpportunityID,
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (defaults to config)")
	serveCmd.Flags().BoolVar(&serveUseAI, "ai", false, "augment rule-based scores with Claude")
	rootCmd.AddCommand(serveCmd)
}
