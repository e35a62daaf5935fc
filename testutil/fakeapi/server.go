// Package fakeapi is an in-process skill exchange backend for tests.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/iksnae/skillswap/internal"
)

var signingKey = []byte("fakeapi-test-secret")

// Request is a recorded incoming request
type Request struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

type account struct {
	internal.UserAccount
	Password string
}

type storedMessage struct {
	internal.Message
	To string
}

type storedReview struct {
	internal.Review
	Reviewee string
}

type fault struct {
	status  int
	message string
	times   int
}

// Server is a fake REST backend. The API is mounted under /api.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	now      func() time.Time
	nextID   int
	accounts []*account
	tokens   map[string]string
	sessions []*internal.ExchangeSession
	reviews  []storedReview
	messages []storedMessage
	matches  map[string][]internal.MatchCandidate
	faults   map[string]*fault
	holds    map[string]chan struct{}
	requests []Request
}

// New starts a fake backend; it is closed when the test ends
func New(t interface {
	Helper()
	Cleanup(func())
}) *Server {
	t.Helper()
	s := &Server{
		now:     time.Now,
		tokens:  map[string]string{},
		matches: map[string][]internal.MatchCandidate{},
		faults:  map[string]*fault{},
		holds:   map[string]chan struct{}{},
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to configure clients with
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Use(s.inject)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)
		r.Get("/skills", s.handleSkills)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/auth/me", s.handleMe)

			r.Get("/users/stats", s.handleStats)
			r.Get("/users/matches", s.handleMatches)
			r.Put("/users/profile", s.handleUpdateProfile)
			r.Get("/users/{id}", s.handleProfile)

			r.Get("/reviews/user/{id}", s.handleUserReviews)
			r.Post("/reviews", s.handleCreateReview)

			r.Get("/sessions", s.handleListSessions)
			r.Post("/sessions", s.handleCreateSession)
			r.Patch("/sessions/{id}/status", s.handleUpdateStatus)

			r.Get("/messages", s.handleThreads)
			r.Get("/messages/{participantId}", s.handleConversation)
			r.Post("/messages/{participantId}", s.handleSendMessage)
		})
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// inject applies holds and faults registered for "METHOD /api/path"
func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		s.mu.Lock()
		hold := s.holds[key]
		f := s.faults[key]
		if f != nil {
			f.times--
			if f.times == 0 {
				delete(s.faults, key)
			}
		}
		s.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if f != nil {
			writeError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			writeError(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		s.mu.Lock()
		userID, ok := s.tokens[header[len(prefix):]]
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), userID)))
	})
}

// Fail makes the next times requests to "METHOD /api/path" answer with status
// and a message payload. times <= 0 fails until cleared.
func (s *Server) Fail(method, path string, status int, message string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" /api"+path] = &fault{status: status, message: message, times: times}
}

// ClearFaults removes every registered fault
func (s *Server) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = map[string]*fault{}
}

// Hold blocks requests to "METHOD /api/path" until the returned func is called
func (s *Server) Hold(method, path string) (release func()) {
	ch := make(chan struct{})
	key := method + " /api" + path
	s.mu.Lock()
	s.holds[key] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.holds, key)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Requests returns the recorded requests
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests returns how many requests hit "METHOD /api/path"
func (s *Server) CountRequests(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == "/api"+path {
			n++
		}
	}
	return n
}

// SetNow fixes the server clock
func (s *Server) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// AddUser registers an account and returns it with its assigned id
func (s *Server) AddUser(u internal.UserAccount, password string) internal.UserAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(u, password).UserAccount
}

func (s *Server) addUserLocked(u internal.UserAccount, password string) *account {
	if u.ID == "" {
		u.ID = s.newIDLocked("u")
	}
	if u.SkillsOffered == nil {
		u.SkillsOffered = []internal.Skill{}
	}
	if u.SkillsWanted == nil {
		u.SkillsWanted = []internal.Skill{}
	}
	if u.Availability == nil {
		u.Availability = []internal.AvailabilitySlot{}
	}
	a := &account{UserAccount: u, Password: password}
	s.accounts = append(s.accounts, a)
	return a
}

// IssueToken returns a valid bearer token for userID
func (s *Server) IssueToken(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueTokenLocked(userID)
}

func (s *Server) issueTokenLocked(userID string) string {
	now := s.now()
	claims := jwt.MapClaims{
		"id":  userID,
		"iat": now.Unix(),
		"exp": now.Add(30 * 24 * time.Hour).Unix(),
		"jti": s.newIDLocked("t"),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(fmt.Sprintf("fakeapi: sign token: %v", err))
	}
	s.tokens[token] = userID
	return token
}

// RevokeTokens invalidates every issued token
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]string{}
}

// SetMatches fixes the ranked matches returned to userID
func (s *Server) SetMatches(userID string, matches []internal.MatchCandidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if matches == nil {
		matches = []internal.MatchCandidate{}
	}
	s.matches[userID] = matches
}

// AddSession stores a session as-is and returns its id
func (s *Server) AddSession(sess internal.ExchangeSession) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.ID == "" {
		sess.ID = s.newIDLocked("s")
	}
	s.sessions = append(s.sessions, &sess)
	return sess.ID
}

// Session returns the stored session with id
func (s *Server) Session(id string) (internal.ExchangeSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess := s.findSessionLocked(id); sess != nil {
		return *sess, true
	}
	return internal.ExchangeSession{}, false
}

// AddMessage stores a message from one account to another
func (s *Server) AddMessage(from, to, content string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, storedMessage{
		Message: internal.Message{ID: s.newIDLocked("m"), Sender: s.refLocked(from), Content: content, CreatedAt: at},
		To:      to,
	})
}

// ReviewCount returns the number of reviews stored for sessionID
func (s *Server) ReviewCount(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reviews {
		if r.SessionID == sessionID {
			n++
		}
	}
	return n
}

func (s *Server) newIDLocked(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s%04d", prefix, s.nextID)
}

func (s *Server) findUserLocked(id string) *account {
	for _, a := range s.accounts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (s *Server) findSessionLocked(id string) *internal.ExchangeSession {
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess
		}
	}
	return nil
}

func (s *Server) refLocked(id string) internal.UserRef {
	if a := s.findUserLocked(id); a != nil {
		return a.Ref()
	}
	return internal.UserRef{ID: id}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
