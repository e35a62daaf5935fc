package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iksnae/skillswap/internal"
)

const (
	opLogin         = "auth.login"
	opRegister      = "auth.register"
	opMe            = "auth.me"
	opStats         = "users.stats"
	opMatches       = "users.matches"
	opUpdateProfile = "users.update_profile"
	opProfile       = "users.profile"
	opUserReviews   = "reviews.user"
	opListSessions  = "sessions.list"
	opCreateSession = "sessions.create"
	opUpdateStatus  = "sessions.update_status"
	opCreateReview  = "reviews.create"
	opThreads       = "messages.threads"
	opConversation  = "messages.conversation"
	opSendMessage   = "messages.send"
	opSkills        = "skills.list"
)

// Login implements internal.AuthAPI
func (c *Client) Login(ctx context.Context, creds internal.Credentials) (*internal.AuthResult, error) {
	var res internal.AuthResult
	if err := c.do(ctx, opLogin, http.MethodPost, "auth/login", nil, creds, &res); err != nil {
		return nil, err
	}
	if err := res.Validate(); err != nil {
		return nil, c.failure(opLogin, malformed(opLogin, http.StatusOK, err))
	}
	return &res, nil
}

// Register implements internal.AuthAPI
func (c *Client) Register(ctx context.Context, reg internal.Registration) (*internal.AuthResult, error) {
	if reg.SkillsOffered == nil {
		reg.SkillsOffered = []internal.Skill{}
	}
	if reg.SkillsWanted == nil {
		reg.SkillsWanted = []internal.Skill{}
	}
	var res internal.AuthResult
	if err := c.do(ctx, opRegister, http.MethodPost, "auth/register", nil, reg, &res); err != nil {
		return nil, err
	}
	if err := res.Validate(); err != nil {
		return nil, c.failure(opRegister, malformed(opRegister, http.StatusCreated, err))
	}
	return &res, nil
}

// Me implements internal.AuthAPI
func (c *Client) Me(ctx context.Context) (*internal.UserAccount, error) {
	var u internal.UserAccount
	if err := c.do(ctx, opMe, http.MethodGet, "auth/me", nil, nil, &u); err != nil {
		return nil, err
	}
	if err := u.Validate(); err != nil {
		return nil, c.failure(opMe, malformed(opMe, http.StatusOK, err))
	}
	return &u, nil
}

// Stats implements internal.UsersAPI
func (c *Client) Stats(ctx context.Context) (*internal.Stats, error) {
	var s internal.Stats
	if err := c.do(ctx, opStats, http.MethodGet, "users/stats", nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Matches implements internal.UsersAPI
func (c *Client) Matches(ctx context.Context, limit int) ([]internal.MatchCandidate, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var list []internal.MatchCandidate
	if err := c.do(ctx, opMatches, http.MethodGet, "users/matches", q, nil, &list); err != nil {
		return nil, err
	}
	if err := validateAll(c, opMatches, list, (*internal.MatchCandidate).Validate); err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateProfile implements internal.UsersAPI
func (c *Client) UpdateProfile(ctx context.Context, update internal.ProfileUpdate) (*internal.UserAccount, error) {
	var u internal.UserAccount
	if err := c.do(ctx, opUpdateProfile, http.MethodPut, "users/profile", nil, update, &u); err != nil {
		return nil, err
	}
	if err := u.Validate(); err != nil {
		return nil, c.failure(opUpdateProfile, malformed(opUpdateProfile, http.StatusOK, err))
	}
	return &u, nil
}

// Profile implements internal.UsersAPI
func (c *Client) Profile(ctx context.Context, id string) (*internal.UserAccount, error) {
	var u internal.UserAccount
	if err := c.do(ctx, opProfile, http.MethodGet, "users/"+url.PathEscape(id), nil, nil, &u); err != nil {
		return nil, err
	}
	if err := u.Validate(); err != nil {
		return nil, c.failure(opProfile, malformed(opProfile, http.StatusOK, err))
	}
	return &u, nil
}

// UserReviews implements internal.UsersAPI
func (c *Client) UserReviews(ctx context.Context, userID string) ([]internal.Review, error) {
	var list []internal.Review
	if err := c.do(ctx, opUserReviews, http.MethodGet, "reviews/user/"+url.PathEscape(userID), nil, nil, &list); err != nil {
		return nil, err
	}
	if err := validateAll(c, opUserReviews, list, (*internal.Review).Validate); err != nil {
		return nil, err
	}
	return list, nil
}

// ListSessions implements internal.SessionsAPI
func (c *Client) ListSessions(ctx context.Context) ([]internal.ExchangeSession, error) {
	var list []internal.ExchangeSession
	if err := c.do(ctx, opListSessions, http.MethodGet, "sessions", nil, nil, &list); err != nil {
		return nil, err
	}
	if err := validateAll(c, opListSessions, list, (*internal.ExchangeSession).Validate); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateSession implements internal.SessionsAPI
func (c *Client) CreateSession(ctx context.Context, proposal internal.SessionProposal) (*internal.ExchangeSession, error) {
	var s internal.ExchangeSession
	if err := c.do(ctx, opCreateSession, http.MethodPost, "sessions", nil, proposal, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, c.failure(opCreateSession, malformed(opCreateSession, http.StatusCreated, err))
	}
	return &s, nil
}

// UpdateSessionStatus implements internal.SessionsAPI
func (c *Client) UpdateSessionStatus(ctx context.Context, id string, status internal.SessionStatus) (*internal.ExchangeSession, error) {
	body := struct {
		Status internal.SessionStatus `json:"status"`
	}{status}
	var s internal.ExchangeSession
	if err := c.do(ctx, opUpdateStatus, http.MethodPatch, "sessions/"+url.PathEscape(id)+"/status", nil, body, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, c.failure(opUpdateStatus, malformed(opUpdateStatus, http.StatusOK, err))
	}
	return &s, nil
}

// CreateReview implements internal.ReviewsAPI
func (c *Client) CreateReview(ctx context.Context, review internal.Review) (*internal.Review, error) {
	body := struct {
		SessionID string `json:"sessionId"`
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
	}{review.SessionID, review.Rating, review.Comment}
	var r internal.Review
	if err := c.do(ctx, opCreateReview, http.MethodPost, "reviews", nil, body, &r); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, c.failure(opCreateReview, malformed(opCreateReview, http.StatusCreated, err))
	}
	return &r, nil
}

// Threads implements internal.MessagesAPI
func (c *Client) Threads(ctx context.Context) ([]internal.MessageThread, error) {
	var list []internal.MessageThread
	if err := c.do(ctx, opThreads, http.MethodGet, "messages", nil, nil, &list); err != nil {
		return nil, err
	}
	if err := validateAll(c, opThreads, list, (*internal.MessageThread).Validate); err != nil {
		return nil, err
	}
	return list, nil
}

// Conversation implements internal.MessagesAPI
func (c *Client) Conversation(ctx context.Context, participantID string) ([]internal.Message, error) {
	var list []internal.Message
	if err := c.do(ctx, opConversation, http.MethodGet, "messages/"+url.PathEscape(participantID), nil, nil, &list); err != nil {
		return nil, err
	}
	if err := validateAll(c, opConversation, list, (*internal.Message).Validate); err != nil {
		return nil, err
	}
	return list, nil
}

// SendMessage implements internal.MessagesAPI
func (c *Client) SendMessage(ctx context.Context, participantID, content string) (*internal.Message, error) {
	body := struct {
		Content string `json:"content"`
	}{content}
	var m internal.Message
	if err := c.do(ctx, opSendMessage, http.MethodPost, "messages/"+url.PathEscape(participantID), nil, body, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, c.failure(opSendMessage, malformed(opSendMessage, http.StatusCreated, err))
	}
	return &m, nil
}

// Skills implements internal.SkillsAPI
func (c *Client) Skills(ctx context.Context) ([]internal.CatalogSkill, error) {
	var list []internal.CatalogSkill
	if err := c.do(ctx, opSkills, http.MethodGet, "skills", nil, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}
