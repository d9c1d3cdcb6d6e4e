// Package chat models the client side of a conversation: messages, the
// session they belong to, and the feedback payload.
package chat

import (
	"time"

	"github.com/oklog/ulid/v2"

	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/tracker"
)

type Sender string

const (
	SenderUser   Sender = "user"
	SenderBot    Sender = "bot"
	SenderSystem Sender = "system"
)

// Message is one of *UserMessage, *BotMessage or *SystemMessage.
type Message interface {
	ID() string
	Sender() Sender
	Text() string
	CreatedAt() time.Time
	clone() Message
}

type base struct {
	id        string
	text      string
	createdAt time.Time
}

func newBase(text string, at time.Time) base {
	return base{id: NewID(at), text: text, createdAt: at}
}

func (b *base) ID() string           { return b.id }
func (b *base) Text() string         { return b.text }
func (b *base) CreatedAt() time.Time { return b.createdAt }

// NewID returns a ULID so ids sort by creation time.
func NewID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
}

// UserInputAction tracks one prompt while it is being typed.
type UserInputAction struct {
	start time.Time
	end   time.Time
	text  string
}

func NewUserInputAction(start time.Time) *UserInputAction {
	return &UserInputAction{start: start, end: start}
}

// Update moves the end stamp and replaces the text. An earlier stamp than the
// current end is ignored so typing time never decreases.
func (a *UserInputAction) Update(text string, at time.Time) {
	a.text = text
	if at.After(a.end) {
		a.end = at
	}
}

func (a *UserInputAction) Start() time.Time          { return a.start }
func (a *UserInputAction) End() time.Time            { return a.end }
func (a *UserInputAction) Text() string              { return a.text }
func (a *UserInputAction) TypingTime() time.Duration { return a.end.Sub(a.start) }

type UserMessage struct {
	base
	input   UserInputAction
	sentAt  time.Time
	metrics map[string]tracker.Record
}

// NewUserMessage freezes the input at submission time.
func NewUserMessage(input *UserInputAction, sentAt time.Time) *UserMessage {
	return &UserMessage{
		base:    newBase(input.Text(), sentAt),
		input:   *input,
		sentAt:  sentAt,
		metrics: map[string]tracker.Record{},
	}
}

func (*UserMessage) Sender() Sender   { return SenderUser }
func (m *UserMessage) clone() Message { return m.Clone() }

func (m *UserMessage) Input() UserInputAction { return m.input }
func (m *UserMessage) SentAt() time.Time      { return m.sentAt }

func (m *UserMessage) SetMetric(name string, r tracker.Record) { m.metrics[name] = r.Clone() }

func (m *UserMessage) Metrics() map[string]tracker.Record {
	out := make(map[string]tracker.Record, len(m.metrics))
	for k, v := range m.metrics {
		out[k] = v.Clone()
	}
	return out
}

// Request builds the /interact payload.
func (m *UserMessage) Request(sessionID, userID string) model.InteractionRequest {
	req := model.InteractionRequest{
		SessionID:      sessionID,
		UserID:         userID,
		InputText:      m.text,
		InputStartTime: m.input.start.UnixMilli(),
		InputEndTime:   m.input.end.UnixMilli(),
		InputSentTime:  m.sentAt.UnixMilli(),
	}
	if len(m.metrics) > 0 {
		req.Metrics = make(map[string]map[string]any, len(m.metrics))
		for k, v := range m.metrics {
			req.Metrics[k] = map[string]any(v.Clone())
		}
	}
	return req
}

func (m *UserMessage) Clone() *UserMessage {
	cp := *m
	cp.metrics = m.Metrics()
	return &cp
}

type BotMessage struct {
	base
	pending    bool
	endedAt    time.Time
	feedback   model.FeedbackType
	feedbackAt time.Time
}

// NewBotMessage starts pending with empty text.
func NewBotMessage(at time.Time) *BotMessage {
	return &BotMessage{base: newBase("", at), pending: true}
}

func (*BotMessage) Sender() Sender   { return SenderBot }
func (m *BotMessage) clone() Message { return m.Clone() }

func (m *BotMessage) Pending() bool                { return m.pending }
func (m *BotMessage) StartedAt() time.Time         { return m.createdAt }
func (m *BotMessage) EndedAt() time.Time           { return m.endedAt }
func (m *BotMessage) Feedback() model.FeedbackType { return m.feedback }
func (m *BotMessage) FeedbackAt() time.Time        { return m.feedbackAt }

// Duration is zero while pending.
func (m *BotMessage) Duration() time.Duration {
	if m.pending {
		return 0
	}
	return m.endedAt.Sub(m.createdAt)
}

// SetResponse finalizes the message.
func (m *BotMessage) SetResponse(text string, at time.Time) {
	m.text = text
	m.endedAt = at
	m.pending = false
}

// SetFeedback records feedback. Setting it again replaces the previous value.
func (m *BotMessage) SetFeedback(ft model.FeedbackType, at time.Time) {
	m.feedback = ft
	m.feedbackAt = at
}

func (m *BotMessage) Clone() *BotMessage {
	return &BotMessage{
		base:       base{id: m.id, text: m.text, createdAt: m.createdAt},
		pending:    m.pending,
		endedAt:    m.endedAt,
		feedback:   m.feedback,
		feedbackAt: m.feedbackAt,
	}
}

type SystemMessage struct {
	base
}

func NewSystemMessage(text string, at time.Time) *SystemMessage {
	return &SystemMessage{base: newBase(text, at)}
}

func (*SystemMessage) Sender() Sender   { return SenderSystem }
func (m *SystemMessage) clone() Message { return m.Clone() }

func (m *SystemMessage) Clone() *SystemMessage {
	cp := *m
	return &cp
}

// Clone copies any message so it can leave the goroutine that owns it.
func Clone(m Message) Message { return m.clone() }

// FallbackReply replaces a bot answer that could not be fetched.
const FallbackReply = "I'm sorry, I encountered an error processing your message. Please try again."
