// File: cmd/history.go
package cmd

import (
	"fmt"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muuktest/selector-feedback/internal/observability"
	"github.com/muuktest/selector-feedback/internal/store"
)

// newHistoryCmd creates the `history` command, which prints the selector
// feedback persisted for an earlier `analyze --persist` run.
func newHistoryCmd(provider storeProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "history <runId>",
		Short: "Print the selector feedback stored for an analysis run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			reportStore, cleanup, err := provider.Create(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize store: %w", err)
			}
			if cleanup != nil {
				defer cleanup()
			}

			runID := args[0]
			rows, err := reportStore.GetFeedbackByRunID(ctx, runID)
			if err != nil {
				return fmt.Errorf("failed to load run %s: %w", runID, err)
			}
			if rows == nil {
				rows = []store.FeedbackRow{}
			}

			out, err := json.MarshalIndent(rows, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to serialize feedback: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			logger.Debug("Loaded stored feedback", zap.String("run_id", runID), zap.Int("rows", len(rows)))
			return nil
		},
	}
}
