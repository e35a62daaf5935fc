package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iksnae/skillswap/internal"
)

var (
	matchesLimit     int
	scheduleIndex    int
	scheduleAt       string
	scheduleDuration int
	scheduleNotes    string
	requestedSkill   string
	offeredSkill     string
)

// scheduleLayouts are accepted by --at, tried in order
var scheduleLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List ranked partners and optionally schedule a session",
	Long: `List members ranked by how well their skills complement yours.

The first match is selected by default. Pass --schedule N with --at to propose
a session to match N; the requested skill defaults to their first offered skill
and the offered skill to yours.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit := matchesLimit
		if limit <= 0 {
			limit = app.Config.Matches.Limit
		}

		var list []internal.MatchCandidate
		err := internal.ShowProgress(cmd.Context(), "Finding matches", func(ctx context.Context) error {
			var err error
			list, err = app.Scheduler.LoadMatches(ctx, limit)
			return err
		})
		if err != nil {
			return userError(err, app.Scheduler.Matches().Error)
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No matches found. Add skills you offer and want to your profile.")
			if scheduleIndex > 0 {
				return userError(internal.ErrNoCandidateSelected, "")
			}
			return nil
		}

		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Matches (%d)", len(list))))
		highlighted := app.Scheduler.Highlighted()
		for i, m := range list {
			marker := " "
			if highlighted != nil && m.User.ID == highlighted.ID {
				marker = successStyle.Render("★")
			}
			fmt.Fprintf(out, "%s %2d. %s %s  score %s\n", marker, i+1,
				titleStyle.Render(m.User.Name), idStyle.Render("("+m.User.ID+")"),
				countStyle.Render(fmt.Sprintf("%.0f", m.Score)))
			if len(m.OfferedMatches) > 0 {
				fmt.Fprintf(out, "      teaches you: %s\n", strings.Join(m.OfferedMatches, ", "))
			}
			if len(m.ReciprocalMatches) > 0 {
				fmt.Fprintf(out, "      learns from you: %s\n", strings.Join(m.ReciprocalMatches, ", "))
			}
		}

		if scheduleIndex <= 0 {
			return nil
		}
		return scheduleSession(cmd)
	},
}

func scheduleSession(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if err := app.Scheduler.SelectByIndex(scheduleIndex - 1); err != nil {
		return userError(err, "")
	}

	at, err := parseScheduleTime(scheduleAt)
	if err != nil {
		return err
	}
	app.Scheduler.SetSchedule(at, scheduleDuration)
	app.Scheduler.SetNotes(scheduleNotes)

	proposal := app.Scheduler.Draft()
	if requestedSkill != "" {
		proposal.RequestedSkill = requestedSkill
	}
	if offeredSkill != "" {
		proposal.OfferedSkill = offeredSkill
	}

	app.Scheduler.OnScheduled(func(*internal.ExchangeSession) {
		if _, err := app.Lifecycle.List(ctx); err != nil {
			internal.LogWarn("Failed to reload sessions: %v", err)
		}
	})

	var created *internal.ExchangeSession
	err = internal.ShowProgress(ctx, "Proposing session", func(ctx context.Context) error {
		var err error
		created, err = app.Scheduler.ProposeSession(ctx, proposal)
		return err
	})
	if err != nil {
		return userError(err, app.Scheduler.Proposing().Error)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	internal.PrintSuccess(out, fmt.Sprintf("Proposed %s with %s on %s (%s)",
		created.RequestedSkill, app.Lifecycle.PartnerName(*created),
		created.ScheduledFor.Local().Format(dateLayout), created.ID))
	if pending := countStatus(app.Lifecycle.Sessions().Data, internal.StatusPending); pending > 0 {
		fmt.Fprintf(out, "You have %d pending session(s)\n", pending)
	}
	return nil
}

func parseScheduleTime(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("--at is required when scheduling")
	}
	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --at %q: use RFC3339 or \"YYYY-MM-DD HH:MM\"", value)
}

func countStatus(sessions []internal.ExchangeSession, status internal.SessionStatus) int {
	n := 0
	for _, s := range sessions {
		if s.Status == status {
			n++
		}
	}
	return n
}

func init() {
	rootCmd.AddCommand(matchesCmd)

	matchesCmd.Flags().IntVar(&matchesLimit, "limit", 0, "Number of matches to show (default matches.limit)")
	matchesCmd.Flags().IntVar(&scheduleIndex, "schedule", 0, "Propose a session to match N (1-based)")
	matchesCmd.Flags().StringVar(&scheduleAt, "at", "", "Session start, RFC3339 or \"YYYY-MM-DD HH:MM\" local time")
	matchesCmd.Flags().IntVar(&scheduleDuration, "duration", internal.DefaultDurationMinutes, "Session length in minutes (30-180)")
	matchesCmd.Flags().StringVar(&scheduleNotes, "notes", "", "Notes for your partner")
	matchesCmd.Flags().StringVar(&requestedSkill, "requested", "", "Skill to learn (default: partner's first offered skill)")
	matchesCmd.Flags().StringVar(&offeredSkill, "offered", "", "Skill to teach (default: your first offered skill)")
}
