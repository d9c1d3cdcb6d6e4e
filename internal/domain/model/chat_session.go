package model

import (
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatTurn is one message of the server-side conversation history.
type ChatTurn struct {
	Role      string    `json:"role"` // "user" | "assistant" | "system"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the history the backend keeps per client session so that
// follow-up prompts reach the model with context.
type Conversation struct {
	SessionID string     `json:"session_id"`
	UserID    string     `json:"user_id"`
	Turns     []ChatTurn `json:"turns"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewConversation(sessionID, userID string) *Conversation {
	return &Conversation{
		SessionID: sessionID,
		UserID:    userID,
		Turns:     make([]ChatTurn, 0, 8),
		UpdatedAt: time.Now(),
	}
}

func (c *Conversation) AddTurn(role, content string, at time.Time) {
	c.Turns = append(c.Turns, ChatTurn{Role: role, Content: content, Timestamp: at})
	c.UpdatedAt = at
}

// Recent returns at most the last n turns.
func (c *Conversation) Recent(n int) []ChatTurn {
	if n <= 0 || len(c.Turns) <= n {
		return c.Turns
	}
	return c.Turns[len(c.Turns)-n:]
}

// Trim keeps only the last max turns.
func (c *Conversation) Trim(max int) {
	if max > 0 && len(c.Turns) > max {
		c.Turns = append([]ChatTurn(nil), c.Turns[len(c.Turns)-max:]...)
	}
}
