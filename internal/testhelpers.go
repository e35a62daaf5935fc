package internal

import (
	"time"
)

// CreateTestAccount creates an account offering the named skills
func CreateTestAccount(id, name string, offered ...string) *UserAccount {
	u := &UserAccount{
		ID:       id,
		Name:     name,
		Email:    id + "@example.com",
		Timezone: DefaultTimezone,
	}
	for _, s := range offered {
		u.SkillsOffered = append(u.SkillsOffered, Skill{Name: s, Level: LevelIntermediate, ExperienceYears: 2})
	}
	return u
}

// CreateTestSession creates an exchange session between initiator and partner
func CreateTestSession(id string, initiator, partner *UserAccount, status SessionStatus, at time.Time) ExchangeSession {
	return ExchangeSession{
		ID:              id,
		Initiator:       initiator.Ref(),
		Partner:         partner.Ref(),
		RequestedSkill:  partner.FirstOfferedSkill(),
		OfferedSkill:    initiator.FirstOfferedSkill(),
		ScheduledFor:    at,
		DurationMinutes: DefaultDurationMinutes,
		Status:          status,
	}
}

// CreateTestMessage creates a message sent by sender
func CreateTestMessage(id string, sender *UserAccount, content string, at time.Time) Message {
	return Message{
		ID:        id,
		Sender:    sender.Ref(),
		Content:   content,
		CreatedAt: at,
	}
}

// CreateTestTranscript creates a two-message transcript between two accounts
func CreateTestTranscript() *Transcript {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	alice := CreateTestAccount("u-alice", "Alice Smith", "Python")
	bob := CreateTestAccount("u-bob", "Bob Jones", "Spanish", "Guitar")

	messages := []Message{
		CreateTestMessage("m1", bob, "Hola! Ready for Tuesday?", now),
		CreateTestMessage("m2", alice, "Yes, see you then", now.Add(time.Minute)),
	}
	sessions := []ExchangeSession{
		CreateTestSession("s1", alice, bob, StatusConfirmed, now.Add(24*time.Hour)),
	}
	return NewTranscript(alice, bob.Ref(), messages, sessions, now)
}
