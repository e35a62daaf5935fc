package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iksnae/skillswap/internal"
	"github.com/iksnae/skillswap/internal/api"
	"github.com/iksnae/skillswap/internal/config"
)

var (
	verbose    bool
	apiURL     string
	storePath  string
	configFile string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// annotationPublic marks commands that run without a signed-in session
const annotationPublic = "public"

var publicCommand = map[string]string{annotationPublic: "true"}

// App holds the components wired for one invocation
type App struct {
	Config    *config.Config
	Store     internal.SessionStore
	Auth      *internal.AuthManager
	Client    *api.Client
	Guard     *internal.Guard
	Scheduler *internal.Scheduler
	Lifecycle *internal.Lifecycle
	Threads   *internal.Threads
	Dashboard *internal.Dashboard
	Profile   *internal.ProfileEditor
}

var app *App

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "skillswap",
	Short: "Trade skills with other members from the terminal",
	Long: `A command line client for the skill exchange network.

Find members whose skills complement yours, schedule exchange sessions,
move them through their lifecycle, chat with partners and leave reviews.

Quick Start:
  skillswap login --email you@example.com      # Sign in
  skillswap matches                            # Ranked partners
  skillswap matches --schedule 1 --at "2025-06-01 18:00"
  skillswap sessions                           # Your sessions
  skillswap messages                           # Conversations`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			internal.SetVerbose(true)
		}
		if skipsApp(cmd) {
			return nil
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		app = a

		if err := a.Auth.Init(cmd.Context()); err != nil {
			internal.LogWarn("Could not verify stored session: %v", err)
		}
		a.wireControllers()

		if !isPublic(cmd) {
			if err := a.Guard.Require(cmd.Context()); err != nil {
				return fmt.Errorf("%w: run 'skillswap login' first", err)
			}
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := ExecuteContext(context.Background()); err != nil {
		internal.PrintError(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// ExecuteContext runs the root command and releases the session store afterwards
func ExecuteContext(ctx context.Context) error {
	defer closeApp()
	return rootCmd.ExecuteContext(ctx)
}

func closeApp() {
	if app == nil {
		return
	}
	if err := app.Auth.Teardown(); err != nil {
		internal.LogWarn("Failed to close session store: %v", err)
	}
	app = nil
}

func isPublic(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationPublic] == "true" {
			return true
		}
	}
	return false
}

// skipsApp reports commands that never touch the backend
func skipsApp(cmd *cobra.Command) bool {
	if cmd.Name() == "help" || cmd.Name() == cobra.ShellCompRequestCmd || cmd.Name() == cobra.ShellCompNoDescRequestCmd {
		return true
	}
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "completion" {
			return true
		}
	}
	return false
}

// loadConfig resolves configuration with changed flags taking precedence
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	paths, err := internal.DetectAppPaths()
	if err != nil {
		return nil, err
	}

	overrides := map[string]any{}
	if f := cmd.Flags().Lookup("api-url"); f != nil && f.Changed {
		overrides["api.url"] = apiURL
	}
	if f := cmd.Flags().Lookup("store"); f != nil && f.Changed {
		overrides["store.path"] = storePath
	}

	cfg, err := config.Load(config.Options{
		File:             configFile,
		Dir:              paths.ConfigDir,
		Overrides:        overrides,
		DefaultStorePath: paths.StorePath,
	})
	if err != nil {
		return nil, err
	}
	if !verbose {
		internal.SetLogLevel(internal.ParseLogLevel(cfg.Log.Level))
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command) (*App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	store, err := internal.OpenStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	auth := internal.NewAuthManager(nil, store, internal.AuthOptions{StrictRefresh: cfg.Auth.StrictRefresh})
	client, err := api.New(api.Config{
		BaseURL: cfg.API.URL,
		Timeout: cfg.API.Timeout,
		Rate:    cfg.API.Rate,
		Burst:   cfg.API.Burst,
	}, auth)
	if err != nil {
		store.Close()
		return nil, err
	}
	auth.SetAPI(client)

	return &App{
		Config: cfg,
		Store:  store,
		Auth:   auth,
		Client: client,
		Guard:  internal.NewGuard(auth),
	}, nil
}

// wireControllers builds the per-view controllers once the session is known
func (a *App) wireControllers() {
	a.Scheduler = internal.NewScheduler(a.Client, a.Client, a.Auth)
	a.Lifecycle = internal.NewLifecycle(a.Client, a.Client, a.Auth)
	a.Threads = internal.NewThreads(a.Client)
	a.Dashboard = internal.NewDashboard(a.Client, a.Client, a.Auth)
	a.Profile = internal.NewProfileEditor(a.Client, a.Auth, a.Auth.CurrentUser())
}

// userError renders err for the terminal, preferring the backend message
func userError(err error, fallback string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return errors.New(internal.UserMessage(err, fallback))
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API base URL (overrides api.url)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Session store database path (overrides store.path)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default is config.yaml in the config directory)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
