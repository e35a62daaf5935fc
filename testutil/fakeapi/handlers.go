package fakeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iksnae/skillswap/internal"
)

// Payloads use "_id" the way the production backend does; the embedded "id"
// fields are shadowed by an always-empty omitempty field.

type wireRef struct {
	MongoID string `json:"_id"`
	Name    string `json:"name,omitempty"`
}

type wireUser struct {
	internal.UserAccount
	ID      string `json:"id,omitempty"`
	MongoID string `json:"_id"`
}

type wireSession struct {
	internal.ExchangeSession
	ID        string  `json:"id,omitempty"`
	MongoID   string  `json:"_id"`
	Initiator wireRef `json:"initiator"`
	Partner   wireRef `json:"partner"`
}

type wireReview struct {
	internal.Review
	ID       string  `json:"id,omitempty"`
	MongoID  string  `json:"_id"`
	Reviewer wireRef `json:"reviewer"`
}

type wireMessage struct {
	internal.Message
	ID      string `json:"id,omitempty"`
	MongoID string `json:"_id"`
	// Sender is a bare id, not populated
	Sender string `json:"sender"`
}

type wireThread struct {
	Participant wireRef     `json:"participant"`
	LastMessage wireMessage `json:"lastMessage"`
}

type wireMatch struct {
	User              wireUser `json:"user"`
	Score             float64  `json:"score"`
	OfferedMatches    []string `json:"offeredMatches"`
	ReciprocalMatches []string `json:"reciprocalMatches"`
}

func toWireUser(u internal.UserAccount) wireUser {
	return wireUser{UserAccount: u, MongoID: u.ID}
}

func toWireRef(r internal.UserRef) wireRef {
	return wireRef{MongoID: r.ID, Name: r.Name}
}

func toWireSession(s internal.ExchangeSession) wireSession {
	return wireSession{
		ExchangeSession: s,
		MongoID:         s.ID,
		Initiator:       toWireRef(s.Initiator),
		Partner:         toWireRef(s.Partner),
	}
}

func toWireMessage(m internal.Message) wireMessage {
	return wireMessage{Message: m, MongoID: m.ID, Sender: m.Sender.ID}
}

func withUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

func userFrom(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds internal.Credentials
	if !decode(w, r, &creds) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, creds.Email) && a.Password == creds.Password {
			writeJSON(w, http.StatusOK, map[string]any{
				"token": s.issueTokenLocked(a.ID),
				"user":  toWireUser(a.UserAccount),
			})
			return
		}
	}
	writeError(w, http.StatusUnauthorized, "Invalid credentials")
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg internal.Registration
	if !decode(w, r, &reg) {
		return
	}
	if reg.Name == "" || reg.Email == "" || reg.Password == "" {
		writeError(w, http.StatusBadRequest, "Please provide all required fields")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, reg.Email) {
			writeError(w, http.StatusBadRequest, "User already exists")
			return
		}
	}
	a := s.addUserLocked(internal.UserAccount{
		Name:          reg.Name,
		Email:         reg.Email,
		SkillsOffered: reg.SkillsOffered,
		SkillsWanted:  reg.SkillsWanted,
	}, reg.Password)
	writeJSON(w, http.StatusCreated, map[string]any{
		"token": s.issueTokenLocked(a.ID),
		"user":  toWireUser(a.UserAccount),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.findUserLocked(userFrom(r))
	if a == nil {
		writeError(w, http.StatusUnauthorized, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, toWireUser(a.UserAccount))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var stats internal.Stats
	for _, sess := range s.sessions {
		if sess.Initiator.ID != me && sess.Partner.ID != me {
			continue
		}
		switch sess.Status {
		case internal.StatusPending:
			stats.PendingSessions++
		case internal.StatusConfirmed:
			if sess.ScheduledFor.After(now) {
				stats.UpcomingSessions++
			}
		case internal.StatusCompleted:
			stats.CompletedSessions++
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r)
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	matches, fixed := s.matches[me]
	if !fixed {
		matches = s.rankLocked(me)
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]wireMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, wireMatch{
			User:              toWireUser(m.User),
			Score:             m.Score,
			OfferedMatches:    nonNil(m.OfferedMatches),
			ReciprocalMatches: nonNil(m.ReciprocalMatches),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// rankLocked scores every other account by skill overlap with me
func (s *Server) rankLocked(me string) []internal.MatchCandidate {
	self := s.findUserLocked(me)
	if self == nil {
		return nil
	}
	var out []internal.MatchCandidate
	for _, a := range s.accounts {
		if a.ID == me {
			continue
		}
		offered := overlap(a.SkillsOffered, self.SkillsWanted)
		reciprocal := overlap(self.SkillsOffered, a.SkillsWanted)
		out = append(out, internal.MatchCandidate{
			User:              a.UserAccount,
			Score:             float64(len(offered)*10 + len(reciprocal)*5),
			OfferedMatches:    offered,
			ReciprocalMatches: reciprocal,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func overlap(have, want []internal.Skill) []string {
	out := []string{}
	for _, h := range have {
		for _, w := range want {
			if strings.EqualFold(h.Name, w.Name) {
				out = append(out, h.Name)
				break
			}
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update internal.ProfileUpdate
	if !decode(w, r, &update) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.findUserLocked(userFrom(r))
	if a == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	a.Bio = update.Bio
	a.Location = update.Location
	a.Timezone = update.Timezone
	if update.SkillsOffered != nil {
		a.SkillsOffered = update.SkillsOffered
	}
	if update.SkillsWanted != nil {
		a.SkillsWanted = update.SkillsWanted
	}
	if update.Availability != nil {
		a.Availability = update.Availability
	}
	writeJSON(w, http.StatusOK, toWireUser(a.UserAccount))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.findUserLocked(chi.URLParam(r, "id"))
	if a == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	u := a.UserAccount
	u.Email = ""
	writeJSON(w, http.StatusOK, toWireUser(u))
}

func (s *Server) handleUserReviews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []wireReview{}
	for i := len(s.reviews) - 1; i >= 0; i-- {
		rv := s.reviews[i]
		if rv.Reviewee != id {
			continue
		}
		out = append(out, wireReview{Review: rv.Review, MongoID: rv.ID, Reviewer: toWireRef(rv.Reviewer)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"sessionId"`
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
	}
	if !decode(w, r, &body) {
		return
	}
	me := userFrom(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.findSessionLocked(body.SessionID)
	if sess == nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if sess.Initiator.ID != me && sess.Partner.ID != me {
		writeError(w, http.StatusForbidden, "Not authorized to review this session")
		return
	}
	if sess.Status != internal.StatusCompleted {
		writeError(w, http.StatusBadRequest, "Can only review completed sessions")
		return
	}
	if body.Rating < 1 || body.Rating > 5 {
		writeError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}

	reviewee := sess.Counterpart(me).ID
	rv := storedReview{
		Review: internal.Review{
			ID:        s.newIDLocked("r"),
			SessionID: sess.ID,
			Rating:    body.Rating,
			Comment:   body.Comment,
			Reviewer:  s.refLocked(me),
			CreatedAt: s.now().UTC(),
		},
		Reviewee: reviewee,
	}
	s.reviews = append(s.reviews, rv)

	if a := s.findUserLocked(reviewee); a != nil {
		total := a.Rating.Average*float64(a.Rating.Count) + float64(body.Rating)
		a.Rating.Count++
		a.Rating.Average = total / float64(a.Rating.Count)
	}
	writeJSON(w, http.StatusCreated, wireReview{Review: rv.Review, MongoID: rv.ID, Reviewer: toWireRef(rv.Reviewer)})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []wireSession{}
	for _, sess := range s.sessions {
		if sess.Initiator.ID == me || sess.Partner.ID == me {
			out = append(out, toWireSession(*sess))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var p internal.SessionProposal
	if !decode(w, r, &p) {
		return
	}
	me := userFrom(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	partner := s.findUserLocked(p.PartnerID)
	switch {
	case partner == nil:
		writeError(w, http.StatusNotFound, "Partner not found")
		return
	case partner.ID == me:
		writeError(w, http.StatusBadRequest, "Cannot schedule a session with yourself")
		return
	case p.ScheduledFor.IsZero():
		writeError(w, http.StatusBadRequest, "scheduledFor is required")
		return
	case p.DurationMinutes < internal.MinDurationMinutes || p.DurationMinutes > internal.MaxDurationMinutes:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Duration must be between %d and %d minutes",
			internal.MinDurationMinutes, internal.MaxDurationMinutes))
		return
	}

	sess := &internal.ExchangeSession{
		ID:              s.newIDLocked("s"),
		Initiator:       s.refLocked(me),
		Partner:         partner.Ref(),
		RequestedSkill:  p.RequestedSkill,
		OfferedSkill:    p.OfferedSkill,
		ScheduledFor:    p.ScheduledFor.UTC(),
		DurationMinutes: p.DurationMinutes,
		Notes:           p.Notes,
		Status:          internal.StatusPending,
	}
	s.sessions = append(s.sessions, sess)
	writeJSON(w, http.StatusCreated, toWireSession(*sess))
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status internal.SessionStatus `json:"status"`
	}
	if !decode(w, r, &body) {
		return
	}
	me := userFrom(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.findSessionLocked(chi.URLParam(r, "id"))
	if sess == nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if sess.Initiator.ID != me && sess.Partner.ID != me {
		writeError(w, http.StatusForbidden, "Not authorized to update this session")
		return
	}
	if !internal.CanTransition(sess.Status, body.Status) {
		writeError(w, http.StatusConflict, fmt.Sprintf("Cannot change status from %s to %s", sess.Status, body.Status))
		return
	}
	sess.Status = body.Status
	writeJSON(w, http.StatusOK, toWireSession(*sess))
}

func (s *Server) handleThreads(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := map[string]internal.Message{}
	var order []string
	for _, m := range s.messages {
		var other string
		switch {
		case m.Sender.ID == me:
			other = m.To
		case m.To == me:
			other = m.Sender.ID
		default:
			continue
		}
		prev, seen := latest[other]
		if !seen {
			order = append(order, other)
		}
		if !seen || !m.CreatedAt.Before(prev.CreatedAt) {
			latest[other] = m.Message
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return latest[order[i]].CreatedAt.After(latest[order[j]].CreatedAt)
	})

	out := make([]wireThread, 0, len(order))
	for _, id := range order {
		out = append(out, wireThread{
			Participant: toWireRef(s.refLocked(id)),
			LastMessage: toWireMessage(latest[id]),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r)
	other := chi.URLParam(r, "participantId")
	s.mu.Lock()
	defer s.mu.Unlock()

	var msgs []internal.Message
	for _, m := range s.messages {
		if (m.Sender.ID == me && m.To == other) || (m.Sender.ID == other && m.To == me) {
			msgs = append(msgs, m.Message)
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })

	out := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toWireMessage(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if !decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Content) == "" {
		writeError(w, http.StatusBadRequest, "Message content is required")
		return
	}
	me := userFrom(r)
	other := chi.URLParam(r, "participantId")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findUserLocked(other) == nil {
		writeError(w, http.StatusNotFound, "Recipient not found")
		return
	}
	m := storedMessage{
		Message: internal.Message{
			ID:        s.newIDLocked("m"),
			Sender:    s.refLocked(me),
			Content:   body.Content,
			CreatedAt: s.now().UTC().Truncate(time.Millisecond),
		},
		To: other,
	}
	s.messages = append(s.messages, m)
	writeJSON(w, http.StatusCreated, toWireMessage(m.Message))
}

func (s *Server) handleSkills(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var names []string
	for _, a := range s.accounts {
		for _, sk := range a.SkillsOffered {
			key := strings.ToLower(sk.Name)
			if !seen[key] {
				seen[key] = true
				names = append(names, sk.Name)
			}
		}
	}
	sort.Strings(names)
	out := make([]internal.CatalogSkill, 0, len(names))
	for i, n := range names {
		out = append(out, internal.CatalogSkill{ID: fmt.Sprintf("k%d", i+1), Name: n, Category: "general"})
	}
	writeJSON(w, http.StatusOK, out)
}
