package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iksnae/skillswap/internal"
)

var (
	loginEmail       string
	loginPassword    string
	registerName     string
	registerEmail    string
	registerPassword string
	registerOffered  string
	registerWanted   string
	statusMetrics    bool
)

// passwordEnv supplies the password when the flag is omitted
const passwordEnv = "SKILLSWAP_PASSWORD"

var loginCmd = &cobra.Command{
	Use:         "login",
	Short:       "Sign in and remember the session",
	Annotations: publicCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := loginPassword
		if password == "" {
			password = os.Getenv(passwordEnv)
		}
		err := internal.ShowProgress(cmd.Context(), "Signing in", func(ctx context.Context) error {
			return app.Auth.Login(ctx, internal.Credentials{Email: loginEmail, Password: password})
		})
		if err != nil {
			return userError(err, "Login failed")
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Signed in as %s", app.Auth.CurrentUser().Name))
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:         "register",
	Short:       "Create an account and sign in",
	Annotations: publicCommand,
	Long: `Create an account. Skills are comma separated and start at beginner level;
refine them later with 'skillswap profile add-skill'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := registerPassword
		if password == "" {
			password = os.Getenv(passwordEnv)
		}
		reg := internal.Registration{
			Name:          registerName,
			Email:         registerEmail,
			Password:      password,
			SkillsOffered: internal.ParseSkillList(registerOffered),
			SkillsWanted:  internal.ParseSkillList(registerWanted),
		}
		err := internal.ShowProgress(cmd.Context(), "Creating account", func(ctx context.Context) error {
			return app.Auth.Register(ctx, reg)
		})
		if err != nil {
			return userError(err, "Registration failed")
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Welcome, %s!", app.Auth.CurrentUser().Name))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:         "logout",
	Short:       "Forget the stored session",
	Annotations: publicCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		if app.Auth.State() != internal.StateAuthenticated {
			internal.PrintInfo(cmd.OutOrStdout(), "Not signed in")
			return nil
		}
		app.Auth.Logout(cmd.Context())
		internal.PrintSuccess(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the signed-in account and session details",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		user := app.Auth.CurrentUser()

		fmt.Fprintln(out, sectionStyle.Render("Session"))
		fmt.Fprintf(out, "  State:   %s\n", app.Auth.State())
		fmt.Fprintf(out, "  Account: %s %s\n", titleStyle.Render(user.Name), idStyle.Render("("+user.ID+")"))
		if user.Email != "" {
			fmt.Fprintf(out, "  Email:   %s\n", user.Email)
		}
		fmt.Fprintf(out, "  API:     %s\n", app.Client.BaseURL())
		fmt.Fprintf(out, "  Store:   %s\n", app.Config.Store.Path)
		if app.Auth.Session().Stale {
			internal.PrintWarning(out, "Profile could not be refreshed, showing the last-known copy")
		}

		if info, ok := internal.InspectToken(app.Auth.Token()); ok && !info.ExpiresAt.IsZero() {
			expiry := info.ExpiresAt.Local().Format(dateLayout)
			if info.Expired(time.Now()) {
				fmt.Fprintf(out, "  Token:   %s\n", errorStyle.Render("expired "+expiry))
			} else {
				fmt.Fprintf(out, "  Token:   expires %s\n", dateStyle.Render(expiry))
			}
		}

		if !statusMetrics {
			return nil
		}
		stats, err := app.Client.Metrics().Summary()
		if err != nil {
			return fmt.Errorf("failed to gather metrics: %w", err)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, sectionStyle.Render("API requests"))
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "OPERATION\tREQUESTS\tFAILURES\tMEAN")
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", s.Op, s.Requests, s.Failures, s.Mean.Round(time.Microsecond))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, statusCmd)

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (or set "+passwordEnv+")")

	registerCmd.Flags().StringVar(&registerName, "name", "", "Display name")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Account email")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "Account password, at least 6 characters (or set "+passwordEnv+")")
	registerCmd.Flags().StringVar(&registerOffered, "offer", "", "Skills you can teach, comma separated")
	registerCmd.Flags().StringVar(&registerWanted, "want", "", "Skills you want to learn, comma separated")

	statusCmd.Flags().BoolVar(&statusMetrics, "metrics", false, "Show API request metrics for this invocation")
}
