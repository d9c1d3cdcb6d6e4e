package dialogue

import (
	"time"

	"humaine-chatbot/internal/chat"
	"humaine-chatbot/internal/domain/model"
)

// Update is sent to the UI on Manager.Updates. Messages in updates are copies.
type Update interface {
	update()
}

type SessionStarted struct {
	SessionID string
	At        time.Time
}

type MessageAdded struct {
	SessionID string
	Message   chat.Message
}

type MessageUpdated struct {
	SessionID string
	Message   chat.Message
}

type SessionEnded struct {
	EndType chat.EndType
	Report  model.SessionReport
}

// Failure reports a hard error such as a rejected API key. Transient errors
// never produce one.
type Failure struct {
	Err error
}

func (SessionStarted) update() {}
func (MessageAdded) update()   {}
func (MessageUpdated) update() {}
func (SessionEnded) update()   {}
func (Failure) update()        {}
