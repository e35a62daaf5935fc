package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iksnae/skillswap/internal"
)

var (
	healthcheckVerbose bool
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:         "healthcheck",
	Short:       "Check configuration, the session store and the backend connection",
	Annotations: publicCommand,
	Long: `Check the health of the client by verifying:
  • Configuration loading
  • Session store access
  • Backend reachability
  • Stored session validity

This command is useful for debugging connection issues, especially in CI/CD environments.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 Skillswap Health Check"))
		fmt.Fprintln(out)

		// Step 1: Configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		fmt.Fprintln(out, successStyle.Render("✅ Configuration loaded"))
		if healthcheckVerbose {
			file := app.Config.File
			if file == "" {
				file = "(none, using defaults and environment)"
			}
			fmt.Fprintf(out, "   Config file: %s\n", file)
			fmt.Fprintf(out, "   API URL: %s\n", app.Config.API.URL)
			fmt.Fprintf(out, "   Timeout: %s\n", app.Config.API.Timeout)
		}
		fmt.Fprintln(out)

		// Step 2: Session store
		fmt.Fprintln(out, infoStyle.Render("Step 2: Checking session store..."))
		if _, _, err := app.Store.Load(); err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Session store unreadable:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		fmt.Fprintln(out, successStyle.Render("✅ Session store accessible"))
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Database: %s\n", app.Config.Store.Path)
			if store, ok := app.Store.(*internal.SQLiteStore); ok {
				entries, err := store.Entries()
				if err != nil {
					fmt.Fprintln(out, warningStyle.Render("   Stored keys unreadable:"), err)
				} else {
					keys := make([]string, 0, len(entries))
					for _, e := range entries {
						keys = append(keys, e.Key)
					}
					if len(keys) == 0 {
						keys = append(keys, "(none)")
					}
					fmt.Fprintf(out, "   Stored keys: %s\n", strings.Join(keys, ", "))
				}
			}
		}
		fmt.Fprintln(out)

		// Step 3: Backend
		fmt.Fprintln(out, infoStyle.Render("Step 3: Contacting backend..."))
		start := time.Now()
		status, err := app.Client.Ping(cmd.Context())
		backendOK := err == nil && status < 500
		switch {
		case err != nil:
			fmt.Fprintln(out, errorStyle.Render("❌ Backend unreachable:"), err)
		case !backendOK:
			fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("❌ Backend answered with HTTP %d", status)))
		default:
			fmt.Fprintln(out, successStyle.Render("✅ Backend reachable"))
		}
		if healthcheckVerbose && err == nil {
			fmt.Fprintf(out, "   Status: %d in %s\n", status, time.Since(start).Round(time.Millisecond))
		}
		fmt.Fprintln(out)

		// Step 4: Stored session
		fmt.Fprintln(out, infoStyle.Render("Step 4: Checking stored session..."))
		signedIn := app.Auth.State() == internal.StateAuthenticated
		if signedIn {
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Signed in as %s", app.Auth.CurrentUser().Name)))
			if info, ok := internal.InspectToken(app.Auth.Token()); ok && healthcheckVerbose && !info.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "   Token expires: %s\n", info.ExpiresAt.Local().Format(dateLayout))
			}
		} else {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Not signed in"))
			fmt.Fprintln(out, "   Run 'skillswap login' to sign in")
		}
		fmt.Fprintln(out)

		// Summary
		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)

		if !backendOK {
			fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
			fmt.Fprintln(out, "   • Backend is not available")
			if internal.IsCIEnvironment() {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Note: set SKILLSWAP_API_URL to point CI at a running backend.")
			}
			return fmt.Errorf("health check failed: backend not available")
		}
		if signedIn {
			fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		} else {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Backend available but not signed in"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "verbose", "v", false, "Show detailed diagnostic information")
}
