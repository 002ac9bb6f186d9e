package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vultisig/feedback-client/internal/scheduler"
	"github.com/vultisig/feedback-client/service"
)

func newSubmitCommand(a *app) *cobra.Command {
	var (
		rating int
		review string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a rating and review",
		Long:  "Submit a rating and review. Pass --review - to read the review from stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if review == "-" {
				text, err := io.ReadAll(bufio.NewReader(cmd.InOrStdin()))
				if err != nil {
					return fmt.Errorf("fail to read review from stdin: %w", err)
				}
				review = strings.TrimRight(string(text), "\n")
			}
			return runSubmit(cmd, a, rating, review)
		},
	}
	cmd.Flags().IntVarP(&rating, "rating", "r", 0, "rating from 1 to 5")
	cmd.Flags().StringVarP(&review, "review", "m", "", "review text")
	return cmd
}

func runSubmit(cmd *cobra.Command, a *app, rating int, review string) error {
	form, err := service.NewFormController(a.client, scheduler.RealClock(), a.translator, a.reporter, a.logger, service.FormConfig{
		ResetDelay:      a.cfg.Form.ResetDelay,
		MaxReviewLength: a.cfg.Form.MaxReviewLength,
	})
	if err != nil {
		return err
	}
	defer form.Close()

	if rating != 0 {
		if err := form.SelectRating(rating); err != nil {
			return err
		}
	}
	if err := form.SetReview(review); err != nil {
		return err
	}

	submitErr := form.Submit(cmd.Context())
	a.renderer.Form(cmd.OutOrStdout(), form.State())
	return submitErr
}
