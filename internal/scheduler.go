package internal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultMatchLimit is the size of the matches page
	DefaultMatchLimit = 10

	matchesFallback  = "Unable to load matches"
	scheduleFallback = "Unable to schedule session"
)

// ProposalForm is the editable state of a session proposal
type ProposalForm struct {
	Partner         *UserAccount
	RequestedSkill  string
	OfferedSkill    string
	ScheduledFor    time.Time
	DurationMinutes int
	Notes           string

	// PartnerEnabled is false while no candidate is selected
	PartnerEnabled bool
	// OfferedEnabled is false when the signed-in account offers no skills
	OfferedEnabled bool

	RequestedOptions []string
	OfferedOptions   []string
}

// Scheduler turns a ranked match list into a pre-filled session proposal
type Scheduler struct {
	users    UsersAPI
	sessions SessionsAPI
	account  Account
	log      zerolog.Logger

	matches  *Fetch[[]MatchCandidate]
	proposal *Fetch[*ExchangeSession]

	mu          sync.Mutex
	limit       int
	highlighted *UserAccount
	selected    *UserAccount
	form        ProposalForm
	listeners   []func(*ExchangeSession)
}

// NewScheduler creates a Scheduler for the signed-in account
func NewScheduler(users UsersAPI, sessions SessionsAPI, account Account) *Scheduler {
	return &Scheduler{
		users:    users,
		sessions: sessions,
		account:  account,
		log:      Logger("scheduler"),
		matches:  NewFetch[[]MatchCandidate](nil, matchesFallback),
		proposal: NewFetch[*ExchangeSession](nil, scheduleFallback),
		limit:    DefaultMatchLimit,
		form:     ProposalForm{DurationMinutes: DefaultDurationMinutes},
	}
}

// OnScheduled registers a consumer notified after every successful proposal
func (s *Scheduler) OnScheduled(fn func(*ExchangeSession)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// LoadMatches fetches ranked candidates. The first candidate becomes the
// highlighted partner and the selected candidate; an empty list clears both.
func (s *Scheduler) LoadMatches(ctx context.Context, limit int) ([]MatchCandidate, error) {
	if limit <= 0 {
		limit = DefaultMatchLimit
	}
	s.mu.Lock()
	s.limit = limit
	s.mu.Unlock()

	list, err := s.matches.Do(ctx, func(ctx context.Context) ([]MatchCandidate, error) {
		return s.users.Matches(ctx, limit)
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(list) == 0 {
		s.highlighted = nil
		s.selectLocked(nil)
		return list, nil
	}
	top := list[0].User
	s.highlighted = &top
	s.selectLocked(cloneAccount(&top))
	return list, nil
}

// Matches returns the fetch state of the match list
func (s *Scheduler) Matches() FetchState[[]MatchCandidate] {
	return s.matches.State()
}

// Highlighted returns the top-ranked partner or nil
func (s *Scheduler) Highlighted() *UserAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAccount(s.highlighted)
}

// Selected returns the active scheduling target or nil
func (s *Scheduler) Selected() *UserAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAccount(s.selected)
}

// SelectCandidate sets the active target and recomputes the default skills
func (s *Scheduler) SelectCandidate(user *UserAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectLocked(cloneAccount(user))
}

// SelectByIndex selects the candidate at index i (0-based) of the loaded list
func (s *Scheduler) SelectByIndex(i int) error {
	list := s.matches.Data()
	if i < 0 || i >= len(list) {
		return &ValidationError{Field: "match", Reason: fmt.Sprintf("index %d out of range (have %d)", i+1, len(list))}
	}
	user := list[i].User
	s.SelectCandidate(&user)
	return nil
}

func (s *Scheduler) selectLocked(user *UserAccount) {
	s.selected = user

	self := s.account.CurrentUser()
	s.form.Partner = user
	s.form.RequestedSkill = user.FirstOfferedSkill()
	s.form.OfferedSkill = self.FirstOfferedSkill()
	s.form.PartnerEnabled = user != nil
	s.form.OfferedEnabled = self != nil && len(self.SkillsOffered) > 0
	s.form.RequestedOptions = skillNames(user)
	s.form.OfferedOptions = skillNames(self)
}

func skillNames(u *UserAccount) []string {
	if u == nil {
		return nil
	}
	names := make([]string, 0, len(u.SkillsOffered))
	for _, sk := range u.SkillsOffered {
		names = append(names, sk.Name)
	}
	return names
}

// Form returns a copy of the proposal form
func (s *Scheduler) Form() ProposalForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.form
	f.Partner = cloneAccount(f.Partner)
	f.RequestedOptions = append([]string(nil), f.RequestedOptions...)
	f.OfferedOptions = append([]string(nil), f.OfferedOptions...)
	return f
}

// Draft builds a proposal from the current form
func (s *Scheduler) Draft() SessionProposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := SessionProposal{
		RequestedSkill:  s.form.RequestedSkill,
		OfferedSkill:    s.form.OfferedSkill,
		ScheduledFor:    s.form.ScheduledFor,
		DurationMinutes: s.form.DurationMinutes,
		Notes:           s.form.Notes,
	}
	if s.selected != nil {
		p.PartnerID = s.selected.ID
	}
	return p
}

// SetNotes edits the proposal notes
func (s *Scheduler) SetNotes(notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.Notes = notes
}

// SetSchedule sets the start time and, when minutes is non-zero, the duration
func (s *Scheduler) SetSchedule(at time.Time, minutes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.ScheduledFor = at
	if minutes != 0 {
		s.form.DurationMinutes = minutes
	}
}

// Proposing returns the fetch state of the last proposal
func (s *Scheduler) Proposing() FetchState[*ExchangeSession] {
	return s.proposal.State()
}

// ProposeSession submits p for the selected candidate. An empty PartnerID
// targets the selected candidate; any other partner is rejected before I/O.
// On success the transient form fields reset, matches reload and OnScheduled
// consumers run. On failure the form is left intact.
func (s *Scheduler) ProposeSession(ctx context.Context, p SessionProposal) (*ExchangeSession, error) {
	s.mu.Lock()
	selected := s.selected
	limit := s.limit
	s.mu.Unlock()

	if selected == nil {
		return nil, ErrNoCandidateSelected
	}
	if p.PartnerID == "" {
		p.PartnerID = selected.ID
	}
	if p.PartnerID != selected.ID {
		return nil, fmt.Errorf("%w: partner %s is not the selected candidate", ErrNoCandidateSelected, p.PartnerID)
	}
	if err := validateProposal(p); err != nil {
		return nil, err
	}

	created, err := s.proposal.Mutate(ctx, func(ctx context.Context) (*ExchangeSession, error) {
		return s.sessions.CreateSession(ctx, p)
	})
	if err != nil {
		s.log.Debug().Err(err).Str("partner_id", p.PartnerID).Msg("proposal failed")
		return nil, err
	}
	s.log.Debug().Str("session_id", created.ID).Str("partner_id", p.PartnerID).Msg("session proposed")

	s.mu.Lock()
	s.form.Notes = ""
	s.form.ScheduledFor = time.Time{}
	s.form.DurationMinutes = DefaultDurationMinutes
	listeners := append([]func(*ExchangeSession){}, s.listeners...)
	s.mu.Unlock()

	if _, err := s.LoadMatches(ctx, limit); err != nil {
		s.log.Warn().Err(err).Msg("match reload after proposal failed")
	}
	for _, fn := range listeners {
		fn(created)
	}
	return created, nil
}

func validateProposal(p SessionProposal) error {
	if p.ScheduledFor.IsZero() {
		return &ValidationError{Field: "scheduledFor", Reason: "is required"}
	}
	if p.DurationMinutes < MinDurationMinutes || p.DurationMinutes > MaxDurationMinutes {
		return &ValidationError{Field: "durationMinutes", Reason: fmt.Sprintf("must be between %d and %d", MinDurationMinutes, MaxDurationMinutes)}
	}
	return nil
}

// Invalidate discards in-flight match and proposal results
func (s *Scheduler) Invalidate() {
	s.matches.Invalidate()
	s.proposal.Invalidate()
}
