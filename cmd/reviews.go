package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iksnae/skillswap/internal"
)

var reviewsCmd = &cobra.Command{
	Use:   "reviews [user-id]",
	Short: "Show reviews left for you or another member",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID := app.Auth.CurrentUserID()
		if len(args) == 1 {
			userID = args[0]
		}

		var (
			list    []internal.Review
			summary internal.ReviewSummary
		)
		err := internal.ShowProgress(cmd.Context(), "Loading reviews", func(ctx context.Context) error {
			var err error
			list, summary, err = app.Profile.Reviews(ctx, userID)
			return err
		})
		if err != nil {
			return userError(err, "Unable to load reviews")
		}

		out := cmd.OutOrStdout()
		if summary.Count == 0 {
			fmt.Fprintln(out, "No reviews yet")
			return nil
		}
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Reviews (%d)", summary.Count)))
		fmt.Fprintf(out, "  Average %s  Median %s\n",
			countStyle.Render(fmt.Sprintf("%.1f", summary.Mean)),
			countStyle.Render(fmt.Sprintf("%.1f", summary.Median)))
		for _, r := range list {
			reviewer := r.Reviewer.Name
			if reviewer == "" {
				reviewer = r.Reviewer.ID
			}
			stars := strings.Repeat("★", r.Rating) + strings.Repeat("☆", 5-r.Rating)
			fmt.Fprintf(out, "  %s %s", successStyle.Render(stars), titleStyle.Render(reviewer))
			if !r.CreatedAt.IsZero() {
				fmt.Fprintf(out, " %s", dateStyle.Render(r.CreatedAt.Local().Format(dateLayout)))
			}
			fmt.Fprintln(out)
			if r.Comment != "" {
				fmt.Fprintf(out, "      %s\n", internal.PlainText(r.Comment))
			}
		}
		return nil
	},
}

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List the skill catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		var catalog []internal.CatalogSkill
		err := internal.ShowProgress(cmd.Context(), "Loading skills", func(ctx context.Context) error {
			var err error
			catalog, err = app.Client.Skills(ctx)
			return err
		})
		if err != nil {
			return userError(err, "Unable to load skills")
		}

		out := cmd.OutOrStdout()
		if len(catalog) == 0 {
			fmt.Fprintln(out, "The skill catalog is empty")
			return nil
		}
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Skills (%d)", len(catalog))))
		byCategory := map[string][]string{}
		var categories []string
		for _, s := range catalog {
			cat := s.Category
			if cat == "" {
				cat = "other"
			}
			if _, ok := byCategory[cat]; !ok {
				categories = append(categories, cat)
			}
			byCategory[cat] = append(byCategory[cat], s.Name)
		}
		for _, cat := range categories {
			fmt.Fprintf(out, "  %s: %s\n", sectionStyle.Render(cat), strings.Join(byCategory[cat], ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reviewsCmd, skillsCmd)
}
