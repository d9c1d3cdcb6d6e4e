package usecase

import (
	"context"

	"humaine-chatbot/internal/domain/model"
)

// ChatService is the backend as seen by a conversation front end. The HTTP
// client implements it for remote backends; the Telegram front end uses an
// in-process implementation over the use cases.
type ChatService interface {
	Interact(ctx context.Context, req model.InteractionRequest) (string, error)
	SendFeedback(ctx context.Context, req model.FeedbackRequest) (string, error)
	SendSession(ctx context.Context, report model.SessionReport) (string, error)
}
