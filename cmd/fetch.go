// File: cmd/fetch.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muuktest/selector-feedback/internal/fetch"
	"github.com/muuktest/selector-feedback/internal/observability"
)

// newFetchCmd creates the `fetch` command, which downloads the tests matching
// a property from the MuukTest service.
func newFetchCmd(opts ...fetch.Option) *cobra.Command {
	var req fetch.Request
	var field string

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download tests from the MuukTest cloud",
		Long: `Downloads the tests whose tag, name or hashtag matches the given value,
extracts them into fetch.test_route and runs fetch.test_command unless
--noexec is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			req.Field = fetch.Field(field)
			client := fetch.NewClient(cfg.Fetch(), observability.GetLogger(), opts...)
			result, err := client.Run(ctx, req)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %d test file(s) into %s\n", result.Files, result.TestRoute)
			return nil
		},
	}

	fetchCmd.Flags().StringVarP(&field, "property", "p", "", "property to search the tests by (tag, name or hashtag)")
	fetchCmd.Flags().StringVarP(&req.Value, "value", "t", "", "value of the tag, name or hashtag")
	fetchCmd.Flags().BoolVar(&req.NoExec, "noexec", false, "only download the tests, do not run them")
	_ = fetchCmd.MarkFlagRequired("property")
	_ = fetchCmd.MarkFlagRequired("value")

	return fetchCmd
}
