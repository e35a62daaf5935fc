package internal_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iksnae/skillswap/internal"
	"github.com/iksnae/skillswap/internal/api"
	"github.com/iksnae/skillswap/testutil"
	"github.com/iksnae/skillswap/testutil/fakeapi"
)

// harness wires an AuthManager and an api.Client against a fake backend
type harness struct {
	srv    *fakeapi.Server
	store  internal.SessionStore
	auth   *internal.AuthManager
	client *api.Client
}

func newHarness(t *testing.T, store internal.SessionStore, opts internal.AuthOptions) *harness {
	t.Helper()
	if store == nil {
		store = testutil.CreateInMemoryStore(t)
	}
	srv := fakeapi.New(t)
	auth := internal.NewAuthManager(nil, store, opts)
	client, err := api.New(api.Config{BaseURL: srv.BaseURL(), Timeout: 5 * time.Second}, auth)
	require.NoError(t, err)
	auth.SetAPI(client)
	return &harness{srv: srv, store: store, auth: auth, client: client}
}

// signIn stores a session for user and hydrates it
func (h *harness) signIn(t *testing.T, user internal.UserAccount) {
	t.Helper()
	token := h.srv.IssueToken(user.ID)
	require.NoError(t, h.store.Save(token, &user))
	require.NoError(t, h.auth.Init(context.Background()))
	require.Equal(t, internal.StateAuthenticated, h.auth.State())
}

func alice() internal.UserAccount {
	return internal.UserAccount{
		Name:          "Alice Smith",
		Email:         "alice@example.com",
		Timezone:      "Europe/Berlin",
		SkillsOffered: []internal.Skill{{Name: "Python", Level: internal.LevelAdvanced, ExperienceYears: 6}},
		SkillsWanted:  []internal.Skill{{Name: "Spanish", Level: internal.LevelBeginner}},
	}
}

func bob() internal.UserAccount {
	return internal.UserAccount{
		Name:  "Bob Jones",
		Email: "bob@example.com",
		SkillsOffered: []internal.Skill{
			{Name: "Spanish", Level: internal.LevelExpert, ExperienceYears: 20},
			{Name: "Guitar", Level: internal.LevelIntermediate, ExperienceYears: 3},
		},
		SkillsWanted: []internal.Skill{{Name: "Python", Level: internal.LevelBeginner}},
	}
}

func carol() internal.UserAccount {
	return internal.UserAccount{
		Name:          "Carol White",
		Email:         "carol@example.com",
		SkillsOffered: []internal.Skill{{Name: "Chess", Level: internal.LevelAdvanced}},
	}
}

func session(initiator, partner internal.UserAccount, status internal.SessionStatus, at time.Time) internal.ExchangeSession {
	return internal.ExchangeSession{
		Initiator:       initiator.Ref(),
		Partner:         partner.Ref(),
		RequestedSkill:  partner.FirstOfferedSkill(),
		OfferedSkill:    initiator.FirstOfferedSkill(),
		ScheduledFor:    at,
		DurationMinutes: internal.DefaultDurationMinutes,
		Status:          status,
	}
}
