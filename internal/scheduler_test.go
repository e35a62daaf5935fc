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

func newScheduler(t *testing.T) (*harness, *internal.Scheduler, internal.UserAccount) {
	t.Helper()
	h := newHarness(t, nil, internal.AuthOptions{})
	me := h.srv.AddUser(alice(), "secret1")
	h.signIn(t, me)
	return h, internal.NewScheduler(h.client, h.client, h.auth), me
}

func TestScheduler_LoadMatchesSelectsTopCandidate(t *testing.T) {
	h, s, _ := newScheduler(t)
	partner := h.srv.AddUser(bob(), "secret1")
	h.srv.AddUser(carol(), "secret1")

	list, err := s.LoadMatches(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, partner.ID, list[0].User.ID)
	assert.Equal(t, []string{"Spanish"}, list[0].OfferedMatches)
	assert.Equal(t, []string{"Python"}, list[0].ReciprocalMatches)

	require.NotNil(t, s.Highlighted())
	assert.Equal(t, partner.ID, s.Highlighted().ID)
	require.NotNil(t, s.Selected())
	assert.Equal(t, partner.ID, s.Selected().ID)

	form := s.Form()
	assert.True(t, form.PartnerEnabled)
	assert.True(t, form.OfferedEnabled)
	assert.Equal(t, "Spanish", form.RequestedSkill, "first skill the partner offers")
	assert.Equal(t, "Python", form.OfferedSkill, "first skill the account offers")
	assert.Equal(t, []string{"Spanish", "Guitar"}, form.RequestedOptions)
	assert.Equal(t, internal.DefaultDurationMinutes, form.DurationMinutes)
}

func TestScheduler_LoadMatchesLimit(t *testing.T) {
	h, s, _ := newScheduler(t)
	h.srv.AddUser(bob(), "secret1")
	h.srv.AddUser(carol(), "secret1")

	list, err := s.LoadMatches(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	requests := h.srv.Requests()
	assert.Equal(t, "/api/users/matches", requests[len(requests)-1].Path)
}

func TestScheduler_EmptyMatchesClearSelection(t *testing.T) {
	h, s, me := newScheduler(t)
	h.srv.AddUser(bob(), "secret1")
	_, err := s.LoadMatches(context.Background(), 0)
	require.NoError(t, err)
	require.NotNil(t, s.Selected())

	h.srv.SetMatches(me.ID, nil)
	list, err := s.LoadMatches(context.Background(), 0)
	require.NoError(t, err)

	assert.Empty(t, list)
	assert.Nil(t, s.Highlighted())
	assert.Nil(t, s.Selected())
	form := s.Form()
	assert.False(t, form.PartnerEnabled)
	assert.Empty(t, form.RequestedSkill)
}

func TestScheduler_SelectByIndex(t *testing.T) {
	h, s, _ := newScheduler(t)
	h.srv.AddUser(bob(), "secret1")
	other := h.srv.AddUser(carol(), "secret1")
	_, err := s.LoadMatches(context.Background(), 0)
	require.NoError(t, err)

	require.NoError(t, s.SelectByIndex(1))
	assert.Equal(t, other.ID, s.Selected().ID)
	assert.Equal(t, "Chess", s.Form().RequestedSkill)
	assert.NotEqual(t, other.ID, s.Highlighted().ID, "highlight stays on the top match")

	assert.ErrorIs(t, s.SelectByIndex(5), internal.ErrValidation)
}

func TestScheduler_ProposeWithoutSelection(t *testing.T) {
	h, s, _ := newScheduler(t)

	_, err := s.ProposeSession(context.Background(), internal.SessionProposal{
		ScheduledFor:    time.Now().Add(24 * time.Hour),
		DurationMinutes: 60,
	})

	assert.ErrorIs(t, err, internal.ErrNoCandidateSelected)
	assert.Equal(t, "Select a match first", internal.UserMessage(err, ""))
	assert.Zero(t, h.srv.CountRequests(http.MethodPost, "/sessions"))
}

func TestScheduler_ProposeValidation(t *testing.T) {
	h, s, _ := newScheduler(t)
	partner := h.srv.AddUser(bob(), "secret1")
	h.srv.AddUser(carol(), "secret1")
	_, err := s.LoadMatches(context.Background(), 0)
	require.NoError(t, err)

	at := time.Now().Add(24 * time.Hour)
	tests := []struct {
		name     string
		proposal internal.SessionProposal
		wantErr  error
	}{
		{"missing time", internal.SessionProposal{DurationMinutes: 60}, internal.ErrValidation},
		{"too short", internal.SessionProposal{ScheduledFor: at, DurationMinutes: 10}, internal.ErrValidation},
		{"too long", internal.SessionProposal{ScheduledFor: at, DurationMinutes: 500}, internal.ErrValidation},
		{"other partner", internal.SessionProposal{PartnerID: "someone-else", ScheduledFor: at, DurationMinutes: 60}, internal.ErrNoCandidateSelected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ProposeSession(context.Background(), tt.proposal)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Zero(t, h.srv.CountRequests(http.MethodPost, "/sessions"))

	_, err = s.ProposeSession(context.Background(), internal.SessionProposal{PartnerID: partner.ID, ScheduledFor: at, DurationMinutes: 60})
	assert.NoError(t, err, "explicit partner matching the selection is accepted")
}

func TestScheduler_ProposeSession(t *testing.T) {
	h, s, me := newScheduler(t)
	partner := h.srv.AddUser(bob(), "secret1")
	_, err := s.LoadMatches(context.Background(), 0)
	require.NoError(t, err)

	var notified []*internal.ExchangeSession
	s.OnScheduled(func(sess *internal.ExchangeSession) {
		notified = append(notified, sess)
	})

	at := time.Now().Add(48 * time.Hour).Truncate(time.Minute)
	s.SetSchedule(at, 90)
	s.SetNotes("Bring questions")
	matchLoads := h.srv.CountRequests(http.MethodGet, "/users/matches")

	created, err := s.ProposeSession(context.Background(), s.Draft())
	require.NoError(t, err)

	assert.Equal(t, internal.StatusPending, created.Status)
	assert.Equal(t, me.ID, created.Initiator.ID)
	assert.Equal(t, partner.ID, created.Partner.ID)
	assert.Equal(t, "Spanish", created.RequestedSkill)
	assert.Equal(t, "Python", created.OfferedSkill)
	assert.Equal(t, 90, created.DurationMinutes)
	assert.True(t, created.ScheduledFor.Equal(at))

	stored, ok := h.srv.Session(created.ID)
	require.True(t, ok)
	assert.Equal(t, "Bring questions", stored.Notes)

	form := s.Form()
	assert.Empty(t, form.Notes, "notes reset after success")
	assert.True(t, form.ScheduledFor.IsZero())
	assert.Equal(t, internal.DefaultDurationMinutes, form.DurationMinutes)
	assert.Equal(t, matchLoads+1, h.srv.CountRequests(http.MethodGet, "/users/matches"), "matches reload after success")

	require.Len(t, notified, 1)
	assert.Equal(t, created.ID, notified[0].ID)
}

func TestScheduler_ProposeFailureKeepsForm(t *testing.T) {
	h, s, _ := newScheduler(t)
	h.srv.AddUser(bob(), "secret1")
	_, err := s.LoadMatches(context.Background(), 0)
	require.NoError(t, err)

	at := time.Now().Add(24 * time.Hour)
	s.SetSchedule(at, 45)
	s.SetNotes("keep me")
	h.srv.Fail(http.MethodPost, "/sessions", http.StatusBadRequest, "Partner is unavailable", 1)

	_, err = s.ProposeSession(context.Background(), s.Draft())

	require.Error(t, err)
	assert.Equal(t, "Partner is unavailable", s.Proposing().Error)
	form := s.Form()
	assert.Equal(t, "keep me", form.Notes)
	assert.Equal(t, 45, form.DurationMinutes)
}

func TestScheduler_OfferedDisabledWithoutSkills(t *testing.T) {
	h := newHarness(t, nil, internal.AuthOptions{})
	empty := h.srv.AddUser(internal.UserAccount{Name: "Eve", Email: "eve@example.com"}, "secret1")
	h.signIn(t, empty)
	h.srv.AddUser(bob(), "secret1")
	s := internal.NewScheduler(h.client, h.client, h.auth)

	_, err := s.LoadMatches(context.Background(), 0)
	require.NoError(t, err)

	form := s.Form()
	assert.False(t, form.OfferedEnabled)
	assert.Empty(t, form.OfferedSkill)
	assert.True(t, form.PartnerEnabled)
}
