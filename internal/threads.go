package internal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	threadsFallback      = "Unable to load conversations"
	conversationFallback = "Unable to load conversation"
	sendFallback         = "Unable to send message"
)

// Direction tells whether a message was received or sent
type Direction string

const (
	Incoming Direction = "incoming"
	Outgoing Direction = "outgoing"
)

// Classify returns Incoming when the sender is the active participant
func Classify(m Message, participantID string) Direction {
	if m.Sender.ID == participantID {
		return Incoming
	}
	return Outgoing
}

// ConversationEntry is a message with its direction relative to the viewer
type ConversationEntry struct {
	Message
	Direction Direction
}

// Incoming reports whether the entry was sent by the active participant
func (e ConversationEntry) Incoming() bool {
	return e.Direction == Incoming
}

// ClassifyAll tags each message of a conversation with participantID
func ClassifyAll(messages []Message, participantID string) []ConversationEntry {
	entries := make([]ConversationEntry, 0, len(messages))
	for _, m := range messages {
		entries = append(entries, ConversationEntry{Message: m, Direction: Classify(m, participantID)})
	}
	return entries
}

// Threads keeps the thread list and the active conversation consistent after sends
type Threads struct {
	api MessagesAPI
	log zerolog.Logger

	threads      *Fetch[[]MessageThread]
	conversation *Fetch[[]Message]
	send         *Fetch[*Message]

	mu      sync.Mutex
	active  *UserRef
	compose string
}

// NewThreads creates a thread coordinator
func NewThreads(api MessagesAPI) *Threads {
	return &Threads{
		api:          api,
		log:          Logger("threads"),
		threads:      NewFetch[[]MessageThread](nil, threadsFallback),
		conversation: NewFetch[[]Message](nil, conversationFallback),
		send:         NewFetch[*Message](nil, sendFallback),
	}
}

// LoadThreads reloads one row per counterpart
func (t *Threads) LoadThreads(ctx context.Context) ([]MessageThread, error) {
	return t.threads.Do(ctx, t.api.Threads)
}

// ThreadList returns the fetch state of the thread list
func (t *Threads) ThreadList() FetchState[[]MessageThread] {
	return t.threads.State()
}

// OpenThread makes participant active and loads the conversation with them.
// A conversation that arrives after another thread was opened is discarded.
func (t *Threads) OpenThread(ctx context.Context, participant UserRef) ([]ConversationEntry, error) {
	if participant.ID == "" {
		return nil, &ValidationError{Field: "participant", Reason: "is required"}
	}
	t.mu.Lock()
	t.active = &participant
	t.mu.Unlock()

	return t.reloadConversation(ctx, participant.ID)
}

// reloadConversation loads the conversation with participantID while it is
// still the active one. The generation is issued under the same lock that
// guards active, so the latest generation always belongs to the active thread.
func (t *Threads) reloadConversation(ctx context.Context, participantID string) ([]ConversationEntry, error) {
	t.mu.Lock()
	if t.active == nil || t.active.ID != participantID {
		t.mu.Unlock()
		return nil, ErrSuperseded
	}
	gen := t.conversation.Begin()
	t.mu.Unlock()

	messages, err := t.api.Conversation(ctx, participantID)
	messages, err = t.conversation.Finish(gen, messages, err)
	if err != nil {
		return nil, err
	}
	return ClassifyAll(messages, participantID), nil
}

// Active returns the active participant or nil
func (t *Threads) Active() *UserRef {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return nil
	}
	p := *t.active
	return &p
}

// Conversation returns the loaded conversation classified against the active participant
func (t *Threads) Conversation() []ConversationEntry {
	active := t.Active()
	if active == nil {
		return nil
	}
	return ClassifyAll(t.conversation.Data(), active.ID)
}

// ConversationState returns the loading and error state of the conversation
func (t *Threads) ConversationState() FetchState[[]Message] {
	return t.conversation.State()
}

// SetCompose replaces the compose buffer
func (t *Threads) SetCompose(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.compose = text
}

// Compose returns the compose buffer
func (t *Threads) Compose() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.compose
}

// Send posts content to the active participant. On success the compose buffer
// is cleared, then the conversation and the thread list reload in that order.
func (t *Threads) Send(ctx context.Context, content string) (*Message, error) {
	active := t.Active()
	if active == nil {
		return nil, &ValidationError{Field: "participant", Reason: "no conversation is open"}
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &ValidationError{Field: "content", Reason: "must not be empty"}
	}

	msg, err := t.send.Mutate(ctx, func(ctx context.Context) (*Message, error) {
		return t.api.SendMessage(ctx, active.ID, content)
	})
	if err != nil {
		return nil, err
	}
	t.SetCompose("")

	if _, err := t.reloadConversation(ctx, active.ID); errors.Is(err, ErrSuperseded) {
		t.log.Debug().Str("participant_id", active.ID).Msg("another thread opened during send, conversation not reloaded")
	} else if err != nil {
		t.log.Warn().Err(err).Str("participant_id", active.ID).Msg("conversation reload after send failed")
	}
	if _, err := t.LoadThreads(ctx); err != nil {
		t.log.Warn().Err(err).Msg("thread reload after send failed")
	}
	return msg, nil
}

// SendCompose sends the compose buffer
func (t *Threads) SendCompose(ctx context.Context) (*Message, error) {
	return t.Send(ctx, t.Compose())
}

// SendError returns the message of the last failed send
func (t *Threads) SendError() string {
	return t.send.State().Error
}

// Invalidate discards in-flight results
func (t *Threads) Invalidate() {
	t.threads.Invalidate()
	t.conversation.Invalidate()
	t.send.Invalidate()
}

// LastActivity returns the time of the latest message in a thread, zero when empty
func (mt MessageThread) LastActivity() time.Time {
	if mt.LastMessage == nil {
		return time.Time{}
	}
	return mt.LastMessage.CreatedAt
}
