package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iksnae/skillswap/internal"
)

var (
	reviewRating  int
	reviewComment string
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session"},
	Short:   "List your exchange sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listSessions(cmd)
	},
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your exchange sessions with the actions available on each",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listSessions(cmd)
	},
}

func listSessions(cmd *cobra.Command) error {
	var list []internal.ExchangeSession
	err := internal.ShowProgress(cmd.Context(), "Loading sessions", func(ctx context.Context) error {
		var err error
		list, err = app.Lifecycle.List(ctx)
		return err
	})
	if err != nil {
		return userError(err, app.Lifecycle.Sessions().Error)
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No sessions yet. Use 'skillswap matches' to find a partner.")
		return nil
	}
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Sessions (%d)", len(list))))
	for _, s := range list {
		printSessionLine(out, s, app.Lifecycle.PartnerName(s))
		if s.OfferedSkill != "" {
			fmt.Fprintf(out, "      you teach: %s, %d min\n", s.OfferedSkill, s.DurationMinutes)
		}
		if s.Notes != "" {
			fmt.Fprintf(out, "      notes: %s\n", internal.PlainText(s.Notes))
		}
		if actions := internal.Actions(s); len(actions) > 0 {
			names := make([]string, 0, len(actions))
			for _, a := range actions {
				names = append(names, string(a))
			}
			fmt.Fprintf(out, "      actions: %s\n", strings.Join(names, ", "))
		}
	}
	return nil
}

// transitionCmd builds the confirm/cancel/complete subcommands
func transitionCmd(action internal.Action, short string) *cobra.Command {
	target, _ := action.Target()
	return &cobra.Command{
		Use:   string(action) + " <session-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var updated *internal.ExchangeSession
			err := internal.ShowProgress(cmd.Context(), "Updating session", func(ctx context.Context) error {
				var err error
				updated, err = app.Lifecycle.Transition(ctx, args[0], target)
				return err
			})
			if err != nil {
				return userError(err, app.Lifecycle.UpdateError())
			}
			internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Session %s is now %s", updated.ID, updated.Status))
			return nil
		},
	}
}

var sessionsReviewCmd = &cobra.Command{
	Use:   "review <session-id>",
	Short: "Review a completed session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id := args[0]
		if _, err := app.Lifecycle.List(ctx); err != nil {
			return userError(err, app.Lifecycle.Sessions().Error)
		}
		if err := app.Lifecycle.StartReview(id); err != nil {
			return userError(err, "")
		}
		target := app.Lifecycle.ReviewTarget()

		var review *internal.Review
		err := internal.ShowProgress(ctx, "Submitting review", func(ctx context.Context) error {
			var err error
			review, err = app.Lifecycle.SubmitReview(ctx, id, reviewRating, reviewComment)
			return err
		})
		if err != nil {
			app.Lifecycle.CancelReview()
			return userError(err, "Unable to submit review")
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Reviewed %s with %s: %d/5",
			target.RequestedSkill, app.Lifecycle.PartnerName(*target), review.Rating))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(
		sessionsListCmd,
		transitionCmd(internal.ActionConfirm, "Confirm a pending session"),
		transitionCmd(internal.ActionCancel, "Cancel a pending session"),
		transitionCmd(internal.ActionComplete, "Mark a confirmed session as completed"),
		sessionsReviewCmd,
	)

	sessionsReviewCmd.Flags().IntVar(&reviewRating, "rating", 0, "Rating from 1 to 5")
	sessionsReviewCmd.Flags().StringVar(&reviewComment, "comment", "", fmt.Sprintf("Comment, at most %d characters", internal.MaxReviewComment))
}
