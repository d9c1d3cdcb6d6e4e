package usecase

import (
	"context"

	"humaine-chatbot/internal/domain/model"
	ucport "humaine-chatbot/internal/domain/ports/usecase"
)

var _ ucport.ChatService = (*LocalChatService)(nil)

// LocalChatService lets an in-process front end drive the chat use case the
// same way a remote client drives the HTTP API. Like the HTTP client it
// returns the fallback text of an unsuccessful reply without an error.
type LocalChatService struct {
	chat ChatUseCase
}

func NewLocalChatService(chat ChatUseCase) *LocalChatService {
	return &LocalChatService{chat: chat}
}

func (s *LocalChatService) Interact(ctx context.Context, req model.InteractionRequest) (string, error) {
	resp, err := s.chat.Interact(ctx, req)
	return resp.Message, err
}

func (s *LocalChatService) SendFeedback(ctx context.Context, req model.FeedbackRequest) (string, error) {
	resp, err := s.chat.Feedback(ctx, req)
	return resp.Message, err
}

func (s *LocalChatService) SendSession(ctx context.Context, r model.SessionReport) (string, error) {
	resp, err := s.chat.EndSession(ctx, r)
	return resp.Message, err
}
