package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iksnae/skillswap/internal"
)

var (
	profileBio      string
	profileLocation string
	profileTimezone string
	skillLevel      string
	skillYears      int
	slotTimezone    string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		printProfile(cmd.OutOrStdout(), app.Auth.CurrentUser())
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show [user-id]",
	Short: "Show your profile or another member's",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || args[0] == app.Auth.CurrentUserID() {
			printProfile(cmd.OutOrStdout(), app.Auth.CurrentUser())
			return nil
		}
		var user *internal.UserAccount
		err := internal.ShowProgress(cmd.Context(), "Loading profile", func(ctx context.Context) error {
			var err error
			user, err = app.Profile.Lookup(ctx, args[0])
			return err
		})
		if err != nil {
			return userError(err, "Unable to load profile")
		}
		printProfile(cmd.OutOrStdout(), user)
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update bio, location or timezone",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if !flags.Changed("bio") && !flags.Changed("location") && !flags.Changed("timezone") {
			return fmt.Errorf("nothing to update: pass --bio, --location or --timezone")
		}
		if flags.Changed("bio") {
			if err := app.Profile.SetBio(profileBio); err != nil {
				return userError(err, "")
			}
		}
		if flags.Changed("location") {
			app.Profile.SetLocation(profileLocation)
		}
		if flags.Changed("timezone") {
			app.Profile.SetTimezone(profileTimezone)
		}
		return saveProfile(cmd)
	},
}

var profileAddSkillCmd = &cobra.Command{
	Use:   "add-skill <offered|wanted> <name>",
	Short: "Add a skill you offer or want",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := internal.ParseSkillKind(args[0])
		if err != nil {
			return userError(err, "")
		}
		skill := internal.Skill{
			Name:            strings.Join(args[1:], " "),
			Level:           internal.SkillLevel(strings.ToLower(skillLevel)),
			ExperienceYears: skillYears,
		}
		if err := app.Profile.AddSkill(kind, skill); err != nil {
			return userError(err, "")
		}
		return saveProfile(cmd)
	},
}

var profileRemoveSkillCmd = &cobra.Command{
	Use:   "remove-skill <offered|wanted> <index>",
	Short: "Remove a skill by its 1-based position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := internal.ParseSkillKind(args[0])
		if err != nil {
			return userError(err, "")
		}
		index, err := parseIndex(args[1])
		if err != nil {
			return err
		}
		if err := app.Profile.RemoveSkill(kind, index); err != nil {
			return userError(err, "")
		}
		return saveProfile(cmd)
	},
}

var profileAddAvailabilityCmd = &cobra.Command{
	Use:   "add-availability <day> <slots>",
	Short: "Add availability, e.g. add-availability mon \"09:00-10:00, 14:00-15:00\"",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Profile.AddAvailability(args[0], args[1], slotTimezone); err != nil {
			return userError(err, "")
		}
		return saveProfile(cmd)
	},
}

var profileRemoveAvailabilityCmd = &cobra.Command{
	Use:   "remove-availability <index>",
	Short: "Remove an availability entry by its 1-based position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		if err := app.Profile.RemoveAvailability(index); err != nil {
			return userError(err, "")
		}
		return saveProfile(cmd)
	},
}

func saveProfile(cmd *cobra.Command) error {
	var updated *internal.UserAccount
	err := internal.ShowProgress(cmd.Context(), "Saving profile", func(ctx context.Context) error {
		var err error
		updated, err = app.Profile.Save(ctx)
		return err
	})
	if err != nil {
		return userError(err, app.Profile.SaveError())
	}
	internal.PrintSuccess(cmd.OutOrStdout(), "Profile updated")
	printProfile(cmd.OutOrStdout(), updated)
	return nil
}

// parseIndex converts a 1-based CLI position to a 0-based index
func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid position %q: expected a number starting at 1", s)
	}
	return n - 1, nil
}

func printProfile(out io.Writer, u *internal.UserAccount) {
	if u == nil {
		fmt.Fprintln(out, "No profile loaded")
		return
	}
	fmt.Fprintf(out, "%s %s\n", titleStyle.Render(u.Name), idStyle.Render("("+u.ID+")"))
	if u.Email != "" {
		fmt.Fprintf(out, "  Email:    %s\n", u.Email)
	}
	if u.Bio != "" {
		fmt.Fprintf(out, "  Bio:      %s\n", internal.PlainText(u.Bio))
	}
	if u.Location != "" {
		fmt.Fprintf(out, "  Location: %s\n", u.Location)
	}
	tz := u.Timezone
	if tz == "" {
		tz = internal.DefaultTimezone
	}
	fmt.Fprintf(out, "  Timezone: %s\n", tz)
	if u.Rating.Count > 0 {
		fmt.Fprintf(out, "  Rating:   %.1f (%d reviews)\n", u.Rating.Average, u.Rating.Count)
	}

	printSkills(out, "Offers", u.SkillsOffered)
	printSkills(out, "Wants", u.SkillsWanted)

	if len(u.Availability) > 0 {
		fmt.Fprintln(out, sectionStyle.Render("Availability"))
		for i, a := range u.Availability {
			fmt.Fprintf(out, "  %d. %s %s (%s)\n", i+1, a.DayOfWeek, strings.Join(a.Slots, ", "), a.Timezone)
		}
	}
}

func printSkills(out io.Writer, title string, skills []internal.Skill) {
	if len(skills) == 0 {
		return
	}
	fmt.Fprintln(out, sectionStyle.Render(title))
	for i, s := range skills {
		line := fmt.Sprintf("  %d. %s", i+1, s.Name)
		if s.Level != "" {
			line += " " + dateStyle.Render(string(s.Level))
		}
		if s.ExperienceYears > 0 {
			line += fmt.Sprintf(" %dy", s.ExperienceYears)
		}
		fmt.Fprintln(out, line)
	}
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(
		profileShowCmd,
		profileSetCmd,
		profileAddSkillCmd,
		profileRemoveSkillCmd,
		profileAddAvailabilityCmd,
		profileRemoveAvailabilityCmd,
	)

	profileSetCmd.Flags().StringVar(&profileBio, "bio", "", fmt.Sprintf("Short bio, at most %d characters", internal.MaxBioLength))
	profileSetCmd.Flags().StringVar(&profileLocation, "location", "", "Where you are")
	profileSetCmd.Flags().StringVar(&profileTimezone, "timezone", "", "IANA timezone, empty resets to UTC")

	profileAddSkillCmd.Flags().StringVar(&skillLevel, "level", string(internal.LevelBeginner), "beginner, intermediate, advanced or expert")
	profileAddSkillCmd.Flags().IntVar(&skillYears, "years", 0, "Years of experience")

	profileAddAvailabilityCmd.Flags().StringVar(&slotTimezone, "timezone", "", "Timezone of the slots (default: profile timezone)")
}
