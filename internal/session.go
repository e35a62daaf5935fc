package internal

import "time"

// Transcript is everything exchanged with one participant: the conversation
// and the sessions the two accounts share
type Transcript struct {
	Participant UserRef             `json:"participant" yaml:"participant"`
	Viewer      UserRef             `json:"viewer" yaml:"viewer"`
	Messages    []TranscriptMessage `json:"messages" yaml:"messages"`
	Sessions    []ExchangeSession   `json:"sessions" yaml:"sessions"`
	Metadata    TranscriptMetadata  `json:"metadata" yaml:"metadata"`
}

// TranscriptMessage is a conversation message with its direction resolved
type TranscriptMessage struct {
	Timestamp string    `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Direction Direction `json:"direction" yaml:"direction"`
	Sender    string    `json:"sender" yaml:"sender"`
	Content   string    `json:"content" yaml:"content"`
}

// TranscriptMetadata contains additional transcript information
type TranscriptMetadata struct {
	ExportedAt   string `json:"exported_at,omitempty" yaml:"exported_at,omitempty"`
	MessageCount int    `json:"message_count" yaml:"message_count"`
	SessionCount int    `json:"session_count" yaml:"session_count"`
}

// Title names the transcript after the participant
func (t *Transcript) Title() string {
	name := t.Participant.Name
	if name == "" {
		name = t.Participant.ID
	}
	return "Conversation with " + name
}

// NewTranscript builds a transcript of viewer's exchanges with participant.
// Sessions not shared with participant are dropped; message text is reduced
// to plain text.
func NewTranscript(viewer *UserAccount, participant UserRef, messages []Message, sessions []ExchangeSession, now time.Time) *Transcript {
	t := &Transcript{Participant: participant}
	if viewer != nil {
		t.Viewer = viewer.Ref()
	}

	for _, s := range sessions {
		other := s.Counterpart(t.Viewer.ID)
		if other.ID != participant.ID {
			continue
		}
		if t.Participant.Name == "" {
			t.Participant.Name = other.Name
		}
		t.Sessions = append(t.Sessions, s)
	}

	for _, m := range ClassifyAll(messages, participant.ID) {
		if m.Incoming() && t.Participant.Name == "" {
			t.Participant.Name = m.Sender.Name
		}
		tm := TranscriptMessage{
			Direction: m.Direction,
			Sender:    m.Sender.Name,
			Content:   PlainText(m.Content),
		}
		if tm.Sender == "" {
			tm.Sender = senderName(m, t)
		}
		if !m.CreatedAt.IsZero() {
			tm.Timestamp = m.CreatedAt.UTC().Format(time.RFC3339)
		}
		t.Messages = append(t.Messages, tm)
	}

	t.Metadata = TranscriptMetadata{
		ExportedAt:   now.UTC().Format(time.RFC3339),
		MessageCount: len(t.Messages),
		SessionCount: len(t.Sessions),
	}
	return t
}

// senderName names an unpopulated sender from the transcript parties
func senderName(m ConversationEntry, t *Transcript) string {
	switch {
	case m.Incoming() && t.Participant.Name != "":
		return t.Participant.Name
	case !m.Incoming() && m.Sender.ID == t.Viewer.ID && t.Viewer.Name != "":
		return t.Viewer.Name
	default:
		return m.Sender.ID
	}
}
