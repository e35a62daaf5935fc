package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iksnae/skillswap/internal"
	"github.com/iksnae/skillswap/testutil/fakeapi"
)

// cli runs commands against a fake backend with an isolated store and config dir
type cli struct {
	srv   *fakeapi.Server
	store string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("SKILLSWAP_PASSWORD", "")
	return &cli{srv: fakeapi.New(t), store: filepath.Join(home, "session.db")}
}

// run executes args and returns stdout
func (c *cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--api-url", c.srv.BaseURL(), "--store", c.store}, args...))
	err := ExecuteContext(context.Background())
	return out.String(), err
}

// mustRun fails the test when the command fails
func (c *cli) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := c.run(t, args...)
	if err != nil {
		t.Fatalf("%v failed: %v\noutput:\n%s", args, err, out)
	}
	return out
}

// login registers user with the fake backend and signs in through the CLI
func (c *cli) login(t *testing.T, user internal.UserAccount) internal.UserAccount {
	t.Helper()
	u := c.srv.AddUser(user, "secret1")
	c.mustRun(t, "login", "--email", u.Email, "--password", "secret1")
	return u
}

// resetFlags restores every flag to its default; cobra keeps parsed values
// in package variables between Execute calls
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func alice() internal.UserAccount {
	return internal.UserAccount{
		Name:          "Alice Smith",
		Email:         "alice@example.com",
		SkillsOffered: []internal.Skill{{Name: "Python", Level: internal.LevelAdvanced}},
		SkillsWanted:  []internal.Skill{{Name: "Spanish", Level: internal.LevelBeginner}},
	}
}

func bob() internal.UserAccount {
	return internal.UserAccount{
		Name:          "Bob Jones",
		Email:         "bob@example.com",
		SkillsOffered: []internal.Skill{{Name: "Spanish", Level: internal.LevelExpert}},
		SkillsWanted:  []internal.Skill{{Name: "Python", Level: internal.LevelBeginner}},
	}
}
