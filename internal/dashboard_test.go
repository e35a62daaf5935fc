package internal_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iksnae/skillswap/internal"
)

func TestDashboard_Load(t *testing.T) {
	h := newHarness(t, nil, internal.AuthOptions{})
	me := h.srv.AddUser(alice(), "secret1")
	partner := h.srv.AddUser(bob(), "secret1")
	h.srv.AddUser(carol(), "secret1")
	h.signIn(t, me)

	now := time.Now()
	h.srv.AddSession(session(me, partner, internal.StatusPending, now.Add(time.Hour)))
	h.srv.AddSession(session(partner, me, internal.StatusConfirmed, now.Add(2*time.Hour)))
	h.srv.AddSession(session(me, partner, internal.StatusCompleted, now.Add(-time.Hour)))

	d := internal.NewDashboard(h.client, h.client, h.auth)
	data, err := d.Load(context.Background())
	require.NoError(t, err)

	require.NotNil(t, data.Stats)
	assert.Equal(t, 1, data.Stats.PendingSessions)
	assert.Equal(t, 1, data.Stats.UpcomingSessions)
	assert.Equal(t, 1, data.Stats.CompletedSessions)
	assert.Len(t, data.Sessions, 3)
	require.NotNil(t, data.Highlighted)
	assert.Equal(t, partner.ID, data.Highlighted.ID)

	upcoming := d.Upcoming(now, 0)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "Bob Jones", d.PartnerName(upcoming[1]))
	assert.Equal(t, "Alice", d.Greeting())
}

func TestDashboard_FailureKeepsSnapshot(t *testing.T) {
	h := newHarness(t, nil, internal.AuthOptions{})
	me := h.srv.AddUser(alice(), "secret1")
	h.signIn(t, me)
	d := internal.NewDashboard(h.client, h.client, h.auth)

	first, err := d.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first.Stats)
	assert.Nil(t, first.Highlighted, "no other members")

	h.srv.Fail(http.MethodGet, "/users/stats", http.StatusInternalServerError, "", 1)
	_, err = d.Load(context.Background())

	require.Error(t, err)
	state := d.State()
	assert.Equal(t, "Unable to load dashboard data", state.Error)
	assert.NotNil(t, state.Data.Stats, "previous snapshot kept")
}

func TestDashboard_GreetingFallback(t *testing.T) {
	h := newHarness(t, nil, internal.AuthOptions{})
	require.NoError(t, h.auth.Init(context.Background()))

	d := internal.NewDashboard(h.client, h.client, h.auth)
	assert.Equal(t, "there", d.Greeting())
}
