package telegram

import (
	"context"
	"errors"
	"strings"

	"humaine-chatbot/internal/chat"
	"humaine-chatbot/internal/dialogue"
	"humaine-chatbot/internal/domain"
)

type commandHandler func(ctx context.Context, chatID int64) error

// commandRoutes maps bot commands (without the slash) to their handlers.
func (f *Frontend) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":   f.handleStartCommand,
		"help":    f.handleHelpCommand,
		"end":     f.handleEndCommand,
		"bye":     f.handleEndCommand,
		"privacy": f.handlePrivacyCommand,
	}
}

// HandleCommand runs a bot command such as "end" or "/end@SomeBot".
func (f *Frontend) HandleCommand(ctx context.Context, chatID int64, command string) error {
	name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(command)), "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if fn, ok := f.commandRoutes()[name]; ok {
		return fn(ctx, chatID)
	}
	return f.out.SendMessage(ctx, chatID, f.tr.T("unknown_command"))
}

// handleStartCommand greets the user and opens a session right away so
// the first prompt is not the session start.
func (f *Frontend) handleStartCommand(ctx context.Context, chatID int64) error {
	if err := f.out.SendMessage(ctx, chatID, f.tr.T("welcome_message")); err != nil {
		return err
	}
	return f.withConversation(chatID, func(c *conversation) error {
		return c.mgr.Open(ctx)
	})
}

func (f *Frontend) handleHelpCommand(ctx context.Context, chatID int64) error {
	return f.out.SendMessage(ctx, chatID, f.tr.T("help_message"))
}

// handleEndCommand closes the open session. The closing notice is sent by
// the update pump once the manager reports the end.
func (f *Frontend) handleEndCommand(ctx context.Context, chatID int64) error {
	c := f.acquire(chatID, false)
	if c == nil {
		return f.out.SendMessage(ctx, chatID, f.tr.T("no_session"))
	}
	err := c.mgr.End(ctx, chat.EndUserAction)
	f.release(c)
	if errors.Is(err, domain.ErrSessionEnded) || errors.Is(err, dialogue.ErrNotRunning) {
		return f.out.SendMessage(ctx, chatID, f.tr.T("no_session"))
	}
	return err
}

func (f *Frontend) handlePrivacyCommand(ctx context.Context, chatID int64) error {
	return f.out.SendMessage(ctx, chatID, f.tr.Policy())
}
