package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// SkillLevel is the self-assessed proficiency attached to a skill
type SkillLevel string

const (
	LevelBeginner     SkillLevel = "beginner"
	LevelIntermediate SkillLevel = "intermediate"
	LevelAdvanced     SkillLevel = "advanced"
	LevelExpert       SkillLevel = "expert"
)

// SkillLevels lists the accepted levels in ascending order
var SkillLevels = []SkillLevel{LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert}

// Weekdays lists the accepted availability days
var Weekdays = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// SessionStatus is the lifecycle state of an exchange session
type SessionStatus string

const (
	StatusPending   SessionStatus = "pending"
	StatusConfirmed SessionStatus = "confirmed"
	StatusCompleted SessionStatus = "completed"
	StatusCancelled SessionStatus = "cancelled"
)

const (
	MinDurationMinutes     = 30
	MaxDurationMinutes     = 180
	DefaultDurationMinutes = 60
	MaxReviewComment       = 500
	MaxBioLength           = 300
)

// Skill is a named skill with a level
type Skill struct {
	Name            string     `json:"name" yaml:"name"`
	Level           SkillLevel `json:"level" yaml:"level"`
	ExperienceYears int        `json:"experienceYears" yaml:"experience_years"`
}

// Validate checks the skill invariants
func (s Skill) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "skill.name", Reason: "must not be empty"}
	}
	if s.Level != "" && !validLevel(s.Level) {
		return &ValidationError{Field: "skill.level", Reason: fmt.Sprintf("unknown level %q", s.Level)}
	}
	if s.ExperienceYears < 0 {
		return &ValidationError{Field: "skill.experienceYears", Reason: "must be >= 0"}
	}
	return nil
}

func validLevel(l SkillLevel) bool {
	for _, known := range SkillLevels {
		if l == known {
			return true
		}
	}
	return false
}

// AvailabilitySlot lists time ranges on one day of the week
type AvailabilitySlot struct {
	DayOfWeek string   `json:"dayOfWeek" yaml:"day_of_week"`
	Slots     []string `json:"slots" yaml:"slots"`
	Timezone  string   `json:"timezone" yaml:"timezone"`
}

// Rating is the aggregate review score of an account
type Rating struct {
	Average float64 `json:"average" yaml:"average"`
	Count   int     `json:"count" yaml:"count"`
}

// UserAccount is a member profile as returned by the backend
type UserAccount struct {
	ID            string             `json:"id" yaml:"id"`
	Name          string             `json:"name" yaml:"name"`
	Email         string             `json:"email,omitempty" yaml:"email,omitempty"`
	Bio           string             `json:"bio,omitempty" yaml:"bio,omitempty"`
	Location      string             `json:"location,omitempty" yaml:"location,omitempty"`
	Timezone      string             `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	SkillsOffered []Skill            `json:"skillsOffered" yaml:"skills_offered"`
	SkillsWanted  []Skill            `json:"skillsWanted" yaml:"skills_wanted"`
	Availability  []AvailabilitySlot `json:"availability" yaml:"availability"`
	Rating        Rating             `json:"rating" yaml:"rating"`
}

// UnmarshalJSON accepts both "_id" and "id" as the account identifier
func (u *UserAccount) UnmarshalJSON(data []byte) error {
	type plain UserAccount
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*u = UserAccount(aux.plain)
	if u.ID == "" {
		u.ID = aux.MongoID
	}
	return nil
}

// Validate checks the fields the client depends on
func (u *UserAccount) Validate() error {
	if u == nil {
		return &ValidationError{Field: "user", Reason: "missing"}
	}
	if u.ID == "" {
		return &ValidationError{Field: "user.id", Reason: "missing"}
	}
	return nil
}

// FirstOfferedSkill returns the name of the first offered skill or ""
func (u *UserAccount) FirstOfferedSkill() string {
	if u == nil || len(u.SkillsOffered) == 0 {
		return ""
	}
	return u.SkillsOffered[0].Name
}

// FirstName returns the first word of the display name
func (u *UserAccount) FirstName() string {
	if u == nil {
		return ""
	}
	fields := strings.Fields(u.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Ref returns a populated reference to the account
func (u *UserAccount) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name}
}

// UserRef references an account that may arrive either as a bare id or embedded
type UserRef struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// UnmarshalJSON decodes a bare id string or an embedded account object
func (r *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = UserRef{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = UserRef{ID: id}
		return nil
	}
	var account UserAccount
	if err := json.Unmarshal(data, &account); err != nil {
		return err
	}
	*r = UserRef{ID: account.ID, Name: account.Name}
	return nil
}

// MatchCandidate is a ranked counterpart returned by the matching service
type MatchCandidate struct {
	User              UserAccount `json:"user" yaml:"user"`
	Score             float64     `json:"score" yaml:"score"`
	OfferedMatches    []string    `json:"offeredMatches" yaml:"offered_matches"`
	ReciprocalMatches []string    `json:"reciprocalMatches" yaml:"reciprocal_matches"`
}

// Validate checks the candidate payload
func (m *MatchCandidate) Validate() error {
	return m.User.Validate()
}

// ExchangeSession is a scheduled meeting between two accounts
type ExchangeSession struct {
	ID              string        `json:"id" yaml:"id"`
	Initiator       UserRef       `json:"initiator" yaml:"initiator"`
	Partner         UserRef       `json:"partner" yaml:"partner"`
	RequestedSkill  string        `json:"requestedSkill" yaml:"requested_skill"`
	OfferedSkill    string        `json:"offeredSkill" yaml:"offered_skill"`
	ScheduledFor    time.Time     `json:"scheduledFor" yaml:"scheduled_for"`
	DurationMinutes int           `json:"durationMinutes" yaml:"duration_minutes"`
	Notes           string        `json:"notes,omitempty" yaml:"notes,omitempty"`
	Status          SessionStatus `json:"status" yaml:"status"`
}

// UnmarshalJSON accepts both "_id" and "id" as the session identifier
func (s *ExchangeSession) UnmarshalJSON(data []byte) error {
	type plain ExchangeSession
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = ExchangeSession(aux.plain)
	if s.ID == "" {
		s.ID = aux.MongoID
	}
	return nil
}

// Validate checks the session payload
func (s *ExchangeSession) Validate() error {
	if s.ID == "" {
		return &ValidationError{Field: "session.id", Reason: "missing"}
	}
	switch s.Status {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
	default:
		return &ValidationError{Field: "session.status", Reason: fmt.Sprintf("unknown status %q", s.Status)}
	}
	if s.Initiator.ID == "" || s.Partner.ID == "" {
		return &ValidationError{Field: "session.participants", Reason: "missing"}
	}
	return nil
}

// Counterpart returns the participant that is not currentUserID
func (s *ExchangeSession) Counterpart(currentUserID string) UserRef {
	if s.Initiator.ID == currentUserID {
		return s.Partner
	}
	return s.Initiator
}

// Review is feedback left after a completed session
type Review struct {
	ID        string    `json:"id,omitempty" yaml:"id,omitempty"`
	SessionID string    `json:"sessionId" yaml:"session_id"`
	Rating    int       `json:"rating" yaml:"rating"`
	Comment   string    `json:"comment" yaml:"comment"`
	Reviewer  UserRef   `json:"reviewer,omitempty" yaml:"reviewer,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
}

// UnmarshalJSON accepts both "_id" and "id" as the review identifier
func (r *Review) UnmarshalJSON(data []byte) error {
	type plain Review
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Review(aux.plain)
	if r.ID == "" {
		r.ID = aux.MongoID
	}
	return nil
}

// Validate checks rating range and comment length
func (r *Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return &ValidationError{Field: "rating", Reason: "must be between 1 and 5"}
	}
	if utf8.RuneCountInString(r.Comment) > MaxReviewComment {
		return &ValidationError{Field: "comment", Reason: fmt.Sprintf("must be at most %d characters", MaxReviewComment)}
	}
	return nil
}

// Message is a single chat message
type Message struct {
	ID        string    `json:"id,omitempty" yaml:"id,omitempty"`
	Sender    UserRef   `json:"sender" yaml:"sender"`
	Content   string    `json:"content" yaml:"content"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
}

// UnmarshalJSON accepts both "_id" and "id" as the message identifier
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*m = Message(aux.plain)
	if m.ID == "" {
		m.ID = aux.MongoID
	}
	return nil
}

// Validate checks the message payload
func (m *Message) Validate() error {
	if m.Sender.ID == "" {
		return &ValidationError{Field: "message.sender", Reason: "missing"}
	}
	return nil
}

// MessageThread is the latest-message summary of a conversation
type MessageThread struct {
	Participant UserRef  `json:"participant" yaml:"participant"`
	LastMessage *Message `json:"lastMessage,omitempty" yaml:"last_message,omitempty"`
}

// Validate checks the thread payload
func (t *MessageThread) Validate() error {
	if t.Participant.ID == "" {
		return &ValidationError{Field: "thread.participant", Reason: "missing"}
	}
	return nil
}

// Stats holds the dashboard counters
type Stats struct {
	UpcomingSessions  int `json:"upcomingSessions" yaml:"upcoming_sessions"`
	PendingSessions   int `json:"pendingSessions" yaml:"pending_sessions"`
	CompletedSessions int `json:"completedSessions" yaml:"completed_sessions"`
}

// Credentials is the login payload
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the account creation payload
type Registration struct {
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Password      string  `json:"password"`
	SkillsOffered []Skill `json:"skillsOffered"`
	SkillsWanted  []Skill `json:"skillsWanted"`
}

// AuthResult is returned by login and register
type AuthResult struct {
	Token string       `json:"token"`
	User  *UserAccount `json:"user"`
}

// Validate checks the auth payload
func (a *AuthResult) Validate() error {
	if a.Token == "" {
		return &ValidationError{Field: "token", Reason: "missing"}
	}
	return a.User.Validate()
}

// ProfileUpdate carries the mutable profile fields; rating is server-owned
type ProfileUpdate struct {
	Bio           string             `json:"bio"`
	Location      string             `json:"location"`
	Timezone      string             `json:"timezone"`
	SkillsOffered []Skill            `json:"skillsOffered"`
	SkillsWanted  []Skill            `json:"skillsWanted"`
	Availability  []AvailabilitySlot `json:"availability"`
}

// SessionProposal is the creation payload for an exchange session
type SessionProposal struct {
	PartnerID       string    `json:"partnerId"`
	RequestedSkill  string    `json:"requestedSkill"`
	OfferedSkill    string    `json:"offeredSkill"`
	ScheduledFor    time.Time `json:"scheduledFor"`
	DurationMinutes int       `json:"durationMinutes"`
	Notes           string    `json:"notes"`
}

// CatalogSkill is an entry of the skill catalog
type CatalogSkill struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}
