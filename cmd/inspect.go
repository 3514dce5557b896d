// File: cmd/inspect.go
package cmd

import (
	"fmt"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muuktest/selector-feedback/internal/observability"
	"github.com/muuktest/selector-feedback/internal/results"
)

// newInspectCmd creates the `inspect` command, which evaluates only the
// selector a step was authored with.
func newInspectCmd() *cobra.Command {
	var browser string

	inspectCmd := &cobra.Command{
		Use:   "inspect <className> <stepId>",
		Short: "Evaluate the authored selector of a single step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			className, stepID := args[0], args[1]
			pipeline := results.NewPipeline(cfg, logger)
			result, err := pipeline.InspectStep(ctx, className, browser, stepID)
			if err != nil {
				return fmt.Errorf("failed to inspect step %s of %s: %w", stepID, className, err)
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to serialize result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			logger.Debug("Inspected step",
				zap.String("class", className),
				zap.String("step_id", stepID),
				zap.String("outcome", string(result.OutcomeCode)),
			)
			return nil
		},
	}

	inspectCmd.Flags().StringVarP(&browser, "browser", "b", "", "Browser the snapshot was captured with. (Defaults to report.browser)")
	return inspectCmd
}
