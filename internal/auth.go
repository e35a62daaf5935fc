package internal

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// AuthState is the lifecycle state of the auth session
type AuthState int

const (
	StateUninitialized AuthState = iota
	StateHydrating
	StateAuthenticated
	StateUnauthenticated
)

func (s AuthState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateHydrating:
		return "hydrating"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("AuthState(%d)", int(s))
	}
}

const minPasswordLength = 6

// AuthSession is the process-wide authentication state.
// An empty token implies a nil profile and an unauthenticated session.
type AuthSession struct {
	Token   string
	Profile *UserAccount
	Ready   bool
	// Stale is set when a transient refresh failure kept the last-known profile
	Stale bool
}

// Authenticated reports whether the session carries a token
func (s AuthSession) Authenticated() bool {
	return s.Token != ""
}

// AuthOptions tunes the AuthManager
type AuthOptions struct {
	// StrictRefresh logs out on any profile refresh failure, including
	// transient network and server errors.
	StrictRefresh bool
}

// AuthManager owns the token lifecycle, profile hydration and logout on invalidation.
// It is the only writer of AuthSession and of the SessionStore.
type AuthManager struct {
	api   AuthAPI
	store SessionStore
	opts  AuthOptions
	log   zerolog.Logger

	mu      sync.RWMutex
	session AuthSession
}

var (
	_ TokenSource = (*AuthManager)(nil)
	_ Account     = (*AuthManager)(nil)
)

// NewAuthManager creates an AuthManager. Call Init before use.
func NewAuthManager(api AuthAPI, store SessionStore, opts AuthOptions) *AuthManager {
	return &AuthManager{
		api:   api,
		store: store,
		opts:  opts,
		log:   Logger("auth"),
	}
}

// SetAPI attaches the backend after construction. The API client needs the
// manager as its TokenSource, so the two are wired in two steps.
func (m *AuthManager) SetAPI(api AuthAPI) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.api = api
}

// Init hydrates the session from the store and verifies it against the backend
func (m *AuthManager) Init(ctx context.Context) error {
	token, profile, err := m.store.Load()
	if err != nil {
		m.log.Warn().Err(err).Msg("stored session unreadable, starting signed out")
		m.clearStore()
		token, profile = "", nil
	}

	m.mu.Lock()
	m.session = AuthSession{Token: token, Profile: profile}
	if token == "" {
		m.session.Profile = nil
	}
	m.mu.Unlock()

	return m.RefreshProfile(ctx)
}

// Login authenticates with credentials and persists the resulting session
func (m *AuthManager) Login(ctx context.Context, creds Credentials) error {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" {
		return &ValidationError{Field: "email", Reason: "is required"}
	}
	if creds.Password == "" {
		return &ValidationError{Field: "password", Reason: "is required"}
	}

	res, err := m.api.Login(ctx, creds)
	if err != nil {
		m.log.Debug().Err(err).Str("email", creds.Email).Msg("login rejected")
		return err
	}
	return m.establish(res)
}

// Register creates an account and persists the resulting session
func (m *AuthManager) Register(ctx context.Context, reg Registration) error {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Name == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if _, err := mail.ParseAddress(reg.Email); err != nil {
		return &ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	if len(reg.Password) < minPasswordLength {
		return &ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}
	for _, s := range append(append([]Skill{}, reg.SkillsOffered...), reg.SkillsWanted...) {
		if err := s.Validate(); err != nil {
			return err
		}
	}

	res, err := m.api.Register(ctx, reg)
	if err != nil {
		return err
	}
	return m.establish(res)
}

// establish persists token then profile. A failed write leaves the session
// signed out rather than half authenticated.
func (m *AuthManager) establish(res *AuthResult) error {
	if err := m.store.Save(res.Token, res.User); err != nil {
		m.log.Error().Err(err).Msg("failed to persist session")
		m.clearStore()
		m.mu.Lock()
		m.session = AuthSession{Ready: true}
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.session = AuthSession{Token: res.Token, Profile: cloneAccount(res.User), Ready: true}
	m.mu.Unlock()

	m.log.Debug().Str("user_id", res.User.ID).Msg("signed in")
	return nil
}

// Logout clears the session and the store. It never fails.
func (m *AuthManager) Logout(ctx context.Context) {
	m.clearStore()
	m.mu.Lock()
	m.session = AuthSession{Ready: true}
	m.mu.Unlock()
	m.log.Debug().Msg("signed out")
}

func (m *AuthManager) clearStore() {
	if err := m.store.Clear(); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear session store")
	}
}

// RefreshProfile re-fetches the current profile.
//
// Without a token the session becomes ready and unauthenticated. A rejected
// token logs out. Transient failures keep the token and the last-known profile
// unless StrictRefresh is set. Ready is always true afterwards.
func (m *AuthManager) RefreshProfile(ctx context.Context) error {
	m.mu.RLock()
	token := m.session.Token
	m.mu.RUnlock()

	if token == "" {
		m.mu.Lock()
		m.session = AuthSession{Ready: true}
		m.mu.Unlock()
		return nil
	}

	profile, err := m.api.Me(ctx)
	if err != nil {
		if m.opts.StrictRefresh || !IsTransient(err) {
			m.log.Debug().Err(err).Msg("stored token rejected")
			m.Logout(ctx)
			if !errors.Is(err, ErrInvalidSession) {
				return fmt.Errorf("%w: %w", ErrInvalidSession, err)
			}
			return err
		}
		m.log.Warn().Err(err).Msg("profile refresh failed, keeping last-known profile")
		m.markStale()
		return err
	}

	if err := m.store.Save(token, profile); err != nil {
		m.log.Error().Err(err).Msg("failed to persist refreshed profile")
		m.Logout(ctx)
		return err
	}

	m.mu.Lock()
	if m.session.Token == token {
		m.session.Profile = cloneAccount(profile)
		m.session.Stale = false
	}
	m.session.Ready = true
	m.mu.Unlock()
	return nil
}

func (m *AuthManager) markStale() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Ready = true
	m.session.Stale = true
}

// SetProfile replaces the profile after an update and persists it
func (m *AuthManager) SetProfile(profile *UserAccount) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	m.mu.RLock()
	token := m.session.Token
	m.mu.RUnlock()
	if token == "" {
		return ErrNotAuthenticated
	}

	if err := m.store.Save(token, profile); err != nil {
		return err
	}

	m.mu.Lock()
	m.session.Profile = cloneAccount(profile)
	m.mu.Unlock()
	return nil
}

// Token implements TokenSource
func (m *AuthManager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Token
}

// CurrentUser implements Account; nil when signed out
func (m *AuthManager) CurrentUser() *UserAccount {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneAccount(m.session.Profile)
}

// CurrentUserID returns the signed-in account id or ""
func (m *AuthManager) CurrentUserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session.Profile == nil {
		return ""
	}
	return m.session.Profile.ID
}

// OfferedSkills returns the names of the skills the signed-in account offers
func (m *AuthManager) OfferedSkills() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session.Profile == nil {
		return nil
	}
	names := make([]string, 0, len(m.session.Profile.SkillsOffered))
	for _, s := range m.session.Profile.SkillsOffered {
		names = append(names, s.Name)
	}
	return names
}

// Session returns a copy of the current session
func (m *AuthManager) Session() AuthSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.session
	s.Profile = cloneAccount(s.Profile)
	return s
}

// State derives the lifecycle state from the session
func (m *AuthManager) State() AuthState {
	s := m.Session()
	switch {
	case !s.Ready && s.Token == "":
		return StateUninitialized
	case !s.Ready:
		return StateHydrating
	case s.Token != "":
		return StateAuthenticated
	default:
		return StateUnauthenticated
	}
}

// Teardown releases the store
func (m *AuthManager) Teardown() error {
	return m.store.Close()
}

func cloneAccount(u *UserAccount) *UserAccount {
	if u == nil {
		return nil
	}
	c := *u
	c.SkillsOffered = append([]Skill(nil), u.SkillsOffered...)
	c.SkillsWanted = append([]Skill(nil), u.SkillsWanted...)
	c.Availability = make([]AvailabilitySlot, len(u.Availability))
	for i, slot := range u.Availability {
		slot.Slots = append([]string(nil), slot.Slots...)
		c.Availability[i] = slot
	}
	return &c
}
