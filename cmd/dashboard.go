package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iksnae/skillswap/internal"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Overview of stats, upcoming sessions and your top match",
	RunE: func(cmd *cobra.Command, args []string) error {
		var data internal.DashboardData
		err := internal.ShowProgress(cmd.Context(), "Loading dashboard", func(ctx context.Context) error {
			var err error
			data, err = app.Dashboard.Load(ctx)
			return err
		})
		if err != nil {
			return userError(err, app.Dashboard.State().Error)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Welcome back, %s!", app.Dashboard.Greeting())))
		fmt.Fprintln(out)

		if data.Stats != nil {
			fmt.Fprintf(out, "%s upcoming  %s pending  %s completed\n",
				countStyle.Render(fmt.Sprint(data.Stats.UpcomingSessions)),
				countStyle.Render(fmt.Sprint(data.Stats.PendingSessions)),
				countStyle.Render(fmt.Sprint(data.Stats.CompletedSessions)))
			fmt.Fprintln(out)
		}

		fmt.Fprintln(out, sectionStyle.Render("Upcoming sessions"))
		upcoming := app.Dashboard.Upcoming(time.Now(), app.Config.Dashboard.UpcomingWindow)
		if len(upcoming) == 0 {
			fmt.Fprintln(out, "  No upcoming sessions")
		}
		for _, s := range upcoming {
			printSessionLine(out, s, app.Dashboard.PartnerName(s))
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, sectionStyle.Render("Top match"))
		if data.Highlighted == nil {
			fmt.Fprintln(out, "  No matches yet. Add skills to your profile to find partners.")
			return nil
		}
		printPartner(out, data.Highlighted)
		fmt.Fprintln(out, dateStyle.Render("  Schedule with: skillswap matches --schedule 1 --at \"YYYY-MM-DD HH:MM\""))
		return nil
	},
}

func printSessionLine(out io.Writer, s internal.ExchangeSession, partner string) {
	fmt.Fprintf(out, "  %s  %s with %s  %s  %s\n",
		dateStyle.Render(s.ScheduledFor.Local().Format(dateLayout)),
		s.RequestedSkill,
		titleStyle.Render(partner),
		renderStatus(string(s.Status)),
		idStyle.Render(s.ID))
}

func printPartner(out io.Writer, u *internal.UserAccount) {
	fmt.Fprintf(out, "  %s %s\n", titleStyle.Render(u.Name), idStyle.Render("("+u.ID+")"))
	if u.Rating.Count > 0 {
		fmt.Fprintf(out, "  Rating: %.1f (%d reviews)\n", u.Rating.Average, u.Rating.Count)
	}
	if names := skillList(u.SkillsOffered); names != "" {
		fmt.Fprintf(out, "  Teaches: %s\n", names)
	}
	if names := skillList(u.SkillsWanted); names != "" {
		fmt.Fprintf(out, "  Learning: %s\n", names)
	}
}

func skillList(skills []internal.Skill) string {
	names := make([]string, 0, len(skills))
	for _, s := range skills {
		names = append(names, s.Name)
	}
	return strings.Join(names, ", ")
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
