package internal

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

const dashboardFallback = "Unable to load dashboard data"

// DashboardData is one consistent snapshot of the dashboard sources
type DashboardData struct {
	Stats       *Stats
	Sessions    []ExchangeSession
	Highlighted *UserAccount
}

// Dashboard loads stats, sessions and the top match together
type Dashboard struct {
	users    UsersAPI
	sessions SessionsAPI
	account  Account
	data     *Fetch[DashboardData]
}

// NewDashboard creates a Dashboard
func NewDashboard(users UsersAPI, sessions SessionsAPI, account Account) *Dashboard {
	return &Dashboard{
		users:    users,
		sessions: sessions,
		account:  account,
		data:     NewFetch(DashboardData{}, dashboardFallback),
	}
}

// Load fetches the three sources concurrently. Any failure fails the whole
// load and keeps the previous snapshot.
func (d *Dashboard) Load(ctx context.Context) (DashboardData, error) {
	return d.data.Do(ctx, func(ctx context.Context) (DashboardData, error) {
		var (
			out     DashboardData
			matches []MatchCandidate
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			stats, err := d.users.Stats(gctx)
			out.Stats = stats
			return err
		})
		g.Go(func() error {
			sessions, err := d.sessions.ListSessions(gctx)
			out.Sessions = sessions
			return err
		})
		g.Go(func() error {
			var err error
			matches, err = d.users.Matches(gctx, 1)
			return err
		})
		if err := g.Wait(); err != nil {
			return DashboardData{}, err
		}
		if len(matches) > 0 {
			top := matches[0].User
			out.Highlighted = &top
		}
		return out, nil
	})
}

// State returns the fetch state of the dashboard
func (d *Dashboard) State() FetchState[DashboardData] {
	return d.data.State()
}

// Upcoming returns the next sessions of the last snapshot
func (d *Dashboard) Upcoming(now time.Time, window int) []ExchangeSession {
	return UpcomingSessions(d.data.Data().Sessions, now, window)
}

// PartnerName names the counterpart of s for the signed-in account
func (d *Dashboard) PartnerName(s ExchangeSession) string {
	return PartnerName(s, currentID(d.account))
}

// Greeting returns the first name of the signed-in account or "there"
func (d *Dashboard) Greeting() string {
	if name := d.account.CurrentUser().FirstName(); name != "" {
		return name
	}
	return "there"
}

// Invalidate discards an in-flight load
func (d *Dashboard) Invalidate() {
	d.data.Invalidate()
}
