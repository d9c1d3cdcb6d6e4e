package chat

import (
	"fmt"

	"humaine-chatbot/internal/domain"
	"humaine-chatbot/internal/domain/model"
)

// Feedback binds a bot message to the session it was rated in.
type Feedback struct {
	SessionID string
	UserID    string
	Message   *BotMessage
}

// Request builds the /feedback payload. The delay is measured from the end of
// the bot response.
func (f Feedback) Request() (model.FeedbackRequest, error) {
	m := f.Message
	if m == nil || m.Pending() {
		return model.FeedbackRequest{}, fmt.Errorf("feedback on a pending message: %w", domain.ErrInvalidArgument)
	}
	if m.Feedback() == "" {
		return model.FeedbackRequest{}, fmt.Errorf("message has no feedback: %w", domain.ErrInvalidArgument)
	}
	end := m.EndedAt().UnixMilli()
	at := m.FeedbackAt().UnixMilli()
	return model.FeedbackRequest{
		SessionID:             f.SessionID,
		UserID:                f.UserID,
		ResponseText:          m.Text(),
		ResponseStartTime:     m.StartedAt().UnixMilli(),
		ResponseEndTime:       end,
		ResponseDuration:      m.Duration().Milliseconds(),
		FeedbackType:          m.Feedback(),
		FeedbackTime:          at,
		FeedbackDelayDuration: at - end,
	}, nil
}
