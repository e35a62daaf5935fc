package internal

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultUpcomingWindow caps the upcoming sessions view
	DefaultUpcomingWindow = 3

	sessionsFallback = "Unable to load sessions"
	updateFallback   = "Unable to update session"
	reviewFallback   = "Unable to submit review"
)

// Action is a user-facing operation on a session
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
	ActionReview   Action = "review"
)

// Target returns the status an action moves to; review has none
func (a Action) Target() (SessionStatus, bool) {
	switch a {
	case ActionConfirm:
		return StatusConfirmed, true
	case ActionCancel:
		return StatusCancelled, true
	case ActionComplete:
		return StatusCompleted, true
	default:
		return "", false
	}
}

var transitions = map[SessionStatus][]SessionStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted},
}

// AllowedTransitions returns the legal target statuses from status
func AllowedTransitions(status SessionStatus) []SessionStatus {
	return append([]SessionStatus(nil), transitions[status]...)
}

// CanTransition reports whether from -> to is a legal move
func CanTransition(from, to SessionStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Actions returns what may be offered for a session in its current status
func Actions(s ExchangeSession) []Action {
	switch s.Status {
	case StatusPending:
		return []Action{ActionCancel, ActionConfirm}
	case StatusConfirmed:
		return []Action{ActionComplete}
	case StatusCompleted:
		return []Action{ActionReview}
	default:
		return nil
	}
}

// Lifecycle drives exchange sessions through their status machine and gates reviews
type Lifecycle struct {
	sessions SessionsAPI
	reviews  ReviewsAPI
	account  Account
	log      zerolog.Logger

	list   *Fetch[[]ExchangeSession]
	update *Fetch[*ExchangeSession]
	review *Fetch[*Review]

	mu           sync.Mutex
	reviewTarget *ExchangeSession
}

// NewLifecycle creates a Lifecycle controller
func NewLifecycle(sessions SessionsAPI, reviews ReviewsAPI, account Account) *Lifecycle {
	return &Lifecycle{
		sessions: sessions,
		reviews:  reviews,
		account:  account,
		log:      Logger("lifecycle"),
		list:     NewFetch[[]ExchangeSession](nil, sessionsFallback),
		update:   NewFetch[*ExchangeSession](nil, updateFallback),
		review:   NewFetch[*Review](nil, reviewFallback),
	}
}

// List reloads every session visible to the account
func (l *Lifecycle) List(ctx context.Context) ([]ExchangeSession, error) {
	return l.list.Do(ctx, l.sessions.ListSessions)
}

// Sessions returns the fetch state of the session list
func (l *Lifecycle) Sessions() FetchState[[]ExchangeSession] {
	return l.list.State()
}

// Find returns the cached session with id
func (l *Lifecycle) Find(id string) (ExchangeSession, bool) {
	for _, s := range l.list.Data() {
		if s.ID == id {
			return s, true
		}
	}
	return ExchangeSession{}, false
}

// Transition requests a status change. Every request is forwarded; the
// backend rejects illegal moves with ErrIllegalTransition. Success reloads the list.
func (l *Lifecycle) Transition(ctx context.Context, id string, target SessionStatus) (*ExchangeSession, error) {
	if id == "" {
		return nil, &ValidationError{Field: "session", Reason: "is required"}
	}
	if cached, ok := l.Find(id); ok && !CanTransition(cached.Status, target) {
		l.log.Debug().Str("session_id", id).Str("from", string(cached.Status)).Str("to", string(target)).
			Msg("forwarding transition not offered for cached status")
	}

	updated, err := l.update.Mutate(ctx, func(ctx context.Context) (*ExchangeSession, error) {
		return l.sessions.UpdateSessionStatus(ctx, id, target)
	})
	if err != nil {
		return nil, err
	}
	l.log.Debug().Str("session_id", id).Str("status", string(target)).Msg("session updated")

	if _, err := l.List(ctx); err != nil {
		l.log.Warn().Err(err).Msg("session reload after transition failed")
	}
	return updated, nil
}

// UpdateError returns the message of the last failed transition
func (l *Lifecycle) UpdateError() string {
	return l.update.State().Error
}

// StartReview makes id the review target if its cached status is completed
func (l *Lifecycle) StartReview(id string) error {
	s, ok := l.Find(id)
	if !ok {
		return &ValidationError{Field: "session", Reason: fmt.Sprintf("%s not found", id)}
	}
	if s.Status != StatusCompleted {
		return &ValidationError{Field: "session", Reason: fmt.Sprintf("is %s, only completed sessions can be reviewed", s.Status)}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reviewTarget = &s
	return nil
}

// ReviewTarget returns the session under review or nil
func (l *Lifecycle) ReviewTarget() *ExchangeSession {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reviewTarget == nil {
		return nil
	}
	s := *l.reviewTarget
	return &s
}

// CancelReview clears the review target
func (l *Lifecycle) CancelReview() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reviewTarget = nil
}

// SubmitReview sends a review for a session whose cached status is completed.
// Nothing stops a second review for the same session; the backend decides.
func (l *Lifecycle) SubmitReview(ctx context.Context, id string, rating int, comment string) (*Review, error) {
	s, ok := l.Find(id)
	if !ok {
		return nil, &ValidationError{Field: "session", Reason: fmt.Sprintf("%s not found", id)}
	}
	if s.Status != StatusCompleted {
		return nil, &ValidationError{Field: "session", Reason: fmt.Sprintf("is %s, only completed sessions can be reviewed", s.Status)}
	}
	review := Review{SessionID: id, Rating: rating, Comment: strings.TrimSpace(comment)}
	if review.Comment == "" {
		return nil, &ValidationError{Field: "comment", Reason: "must not be empty"}
	}
	if err := review.Validate(); err != nil {
		return nil, err
	}

	created, err := l.review.Mutate(ctx, func(ctx context.Context) (*Review, error) {
		return l.reviews.CreateReview(ctx, review)
	})
	if err != nil {
		return nil, err
	}
	l.log.Debug().Str("session_id", id).Int("rating", rating).Msg("review submitted")

	l.CancelReview()
	if _, err := l.List(ctx); err != nil {
		l.log.Warn().Err(err).Msg("session reload after review failed")
	}
	return created, nil
}

// Upcoming returns up to window sessions scheduled strictly after now, in list order
func (l *Lifecycle) Upcoming(now time.Time, window int) []ExchangeSession {
	return UpcomingSessions(l.list.Data(), now, window)
}

// UpcomingSessions filters sessions scheduled strictly after now, keeping
// source order and capping at window (DefaultUpcomingWindow when <= 0)
func UpcomingSessions(sessions []ExchangeSession, now time.Time, window int) []ExchangeSession {
	if window <= 0 {
		window = DefaultUpcomingWindow
	}
	var out []ExchangeSession
	for _, s := range sessions {
		if len(out) == window {
			break
		}
		if s.ScheduledFor.After(now) {
			out = append(out, s)
		}
	}
	return out
}

// PartnerName returns the display name of the participant that is not the current account
func (l *Lifecycle) PartnerName(s ExchangeSession) string {
	return PartnerName(s, currentID(l.account))
}

// PartnerName compares the initiator id with currentUserID instead of
// trusting participant order
func PartnerName(s ExchangeSession, currentUserID string) string {
	ref := s.Counterpart(currentUserID)
	if ref.Name != "" {
		return ref.Name
	}
	return ref.ID
}

// Invalidate discards in-flight results
func (l *Lifecycle) Invalidate() {
	l.list.Invalidate()
	l.update.Invalidate()
	l.review.Invalidate()
}

func currentID(a Account) string {
	if a == nil {
		return ""
	}
	if u := a.CurrentUser(); u != nil {
		return u.ID
	}
	return ""
}
