package internal

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestUserAccount_UnmarshalIDForms(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"mongo id", `{"_id":"u1","name":"Ada"}`, "u1"},
		{"plain id", `{"id":"u2","name":"Ada"}`, "u2"},
		{"id wins over _id", `{"id":"u3","_id":"other"}`, "u3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u UserAccount
			if err := json.Unmarshal([]byte(tt.data), &u); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if u.ID != tt.want {
				t.Errorf("ID = %q, want %q", u.ID, tt.want)
			}
		})
	}
}

func TestUserRef_Unmarshal(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantID   string
		wantName string
	}{
		{"bare id", `"u1"`, "u1", ""},
		{"embedded account", `{"_id":"u2","name":"Bob Jones","email":"b@example.com"}`, "u2", "Bob Jones"},
		{"null", `null`, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r UserRef
			if err := json.Unmarshal([]byte(tt.data), &r); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if r.ID != tt.wantID || r.Name != tt.wantName {
				t.Errorf("UserRef = %+v, want {%s %s}", r, tt.wantID, tt.wantName)
			}
		})
	}
}

func TestExchangeSession_Unmarshal(t *testing.T) {
	data := `{
		"_id": "s1",
		"initiator": {"_id": "u1", "name": "Alice"},
		"partner": "u2",
		"requestedSkill": "Spanish",
		"offeredSkill": "Python",
		"scheduledFor": "2024-03-02T10:00:00Z",
		"durationMinutes": 60,
		"status": "pending"
	}`
	var s ExchangeSession
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if s.ID != "s1" || s.Initiator.Name != "Alice" || s.Partner.ID != "u2" {
		t.Errorf("unexpected session %+v", s)
	}
	if !s.ScheduledFor.Equal(time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("ScheduledFor = %v", s.ScheduledFor)
	}
}

func TestExchangeSession_Validate(t *testing.T) {
	valid := ExchangeSession{ID: "s1", Initiator: UserRef{ID: "a"}, Partner: UserRef{ID: "b"}, Status: StatusPending}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ExchangeSession)
	}{
		{"missing id", func(s *ExchangeSession) { s.ID = "" }},
		{"unknown status", func(s *ExchangeSession) { s.Status = "archived" }},
		{"missing partner", func(s *ExchangeSession) { s.Partner = UserRef{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			if err := s.Validate(); !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error = %v, want validation error", err)
			}
		})
	}
}

func TestExchangeSession_Counterpart(t *testing.T) {
	s := ExchangeSession{Initiator: UserRef{ID: "a", Name: "Alice"}, Partner: UserRef{ID: "b", Name: "Bob"}}
	if got := s.Counterpart("a"); got.ID != "b" {
		t.Errorf("Counterpart(a) = %v, want b", got)
	}
	if got := s.Counterpart("b"); got.ID != "a" {
		t.Errorf("Counterpart(b) = %v, want a", got)
	}
}

func TestReview_Validate(t *testing.T) {
	tests := []struct {
		name    string
		review  Review
		wantErr bool
	}{
		{"lowest rating", Review{Rating: 1, Comment: "ok"}, false},
		{"highest rating", Review{Rating: 5, Comment: "great"}, false},
		{"zero rating", Review{Rating: 0}, true},
		{"rating too high", Review{Rating: 6}, true},
		{"comment at limit", Review{Rating: 3, Comment: strings.Repeat("a", MaxReviewComment)}, false},
		{"comment too long", Review{Rating: 3, Comment: strings.Repeat("a", MaxReviewComment+1)}, true},
		{"multibyte counted as characters", Review{Rating: 3, Comment: strings.Repeat("é", MaxReviewComment)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.review.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSkill_Validate(t *testing.T) {
	tests := []struct {
		skill   Skill
		wantErr bool
	}{
		{Skill{Name: "Go", Level: LevelExpert, ExperienceYears: 3}, false},
		{Skill{Name: "Go"}, false},
		{Skill{Name: "  "}, true},
		{Skill{Name: "Go", Level: "guru"}, true},
		{Skill{Name: "Go", ExperienceYears: -1}, true},
	}
	for _, tt := range tests {
		if err := tt.skill.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) error = %v, wantErr %v", tt.skill, err, tt.wantErr)
		}
	}
}

func TestUserAccount_Helpers(t *testing.T) {
	u := &UserAccount{ID: "u1", Name: "Ada Lovelace", SkillsOffered: []Skill{{Name: "Math"}, {Name: "Poetry"}}}
	if got := u.FirstName(); got != "Ada" {
		t.Errorf("FirstName() = %q", got)
	}
	if got := u.FirstOfferedSkill(); got != "Math" {
		t.Errorf("FirstOfferedSkill() = %q", got)
	}

	var nilUser *UserAccount
	if nilUser.FirstName() != "" || nilUser.FirstOfferedSkill() != "" {
		t.Error("helpers on nil account should return empty strings")
	}
	if err := nilUser.Validate(); err == nil {
		t.Error("Validate() on nil account should fail")
	}
}

func TestAuthResult_Validate(t *testing.T) {
	if err := (&AuthResult{Token: "t", User: &UserAccount{ID: "u1"}}).Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := (&AuthResult{User: &UserAccount{ID: "u1"}}).Validate(); err == nil {
		t.Error("Validate() should reject a missing token")
	}
	if err := (&AuthResult{Token: "t"}).Validate(); err == nil {
		t.Error("Validate() should reject a missing user")
	}
}

func TestMessage_UnmarshalBareSender(t *testing.T) {
	var m Message
	if err := json.Unmarshal([]byte(`{"_id":"m1","sender":"u9","content":"hi","createdAt":"2024-03-01T10:00:00Z"}`), &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if m.ID != "m1" || m.Sender.ID != "u9" {
		t.Errorf("unexpected message %+v", m)
	}
	if err := (&Message{}).Validate(); err == nil {
		t.Error("Validate() should reject a message without sender")
	}
}
