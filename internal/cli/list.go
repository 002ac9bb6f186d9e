package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vultisig/feedback-client/internal/api"
	"github.com/vultisig/feedback-client/internal/types"
)

func newListCommand(a *app) *cobra.Command {
	var query api.ListQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submissions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if query.Rating != 0 && !types.ValidRating(query.Rating) {
				return fmt.Errorf("rating must be between %d and %d", types.MinRating, types.MaxRating)
			}
			page, err := a.client.ListSubmissions(cmd.Context(), query)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s of %s\n", humanize.Comma(int64(len(page.Submissions))), humanize.Comma(int64(page.Total)))
			for _, sub := range page.Submissions {
				a.renderer.Submission(out, sub)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&query.Limit, "limit", api.DefaultListLimit, "page size (1-100)")
	cmd.Flags().IntVar(&query.Skip, "skip", 0, "number of submissions to skip")
	cmd.Flags().IntVar(&query.Rating, "rating", 0, "only show this rating (1-5)")
	return cmd
}

func newShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one submission including the response sent to the customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := a.client.GetSubmission(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.renderer.Submission(cmd.OutOrStdout(), *sub)
			return nil
		},
	}
}

func newHealthCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check backend health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := a.client.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", a.cfg.Api.BaseURL, status.Status)
			return nil
		},
	}
}
