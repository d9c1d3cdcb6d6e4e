package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"humaine-chatbot/internal/chat"
	"humaine-chatbot/internal/dialogue"
	"humaine-chatbot/internal/domain"
	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/domain/ports/adapter"
	"humaine-chatbot/internal/domain/ports/usecase"
	"humaine-chatbot/internal/infra/i18n"
)

// Telegram only reports when a message was sent. A prompt is taken to have
// been composed since the previous reply when that reply is recent enough;
// otherwise typing time is estimated from the message length.
const (
	composeWindow  = 2 * time.Minute
	estimatedPerCh = 200 * time.Millisecond
	maxEstimate    = time.Minute
)

type FrontendConfig struct {
	InactivityLimit time.Duration
	CallTimeout     time.Duration
	// RetireAfter is how long an unused conversation keeps its manager.
	RetireAfter time.Duration
}

// Frontend runs one dialogue.Manager per Telegram chat and relays its
// updates back to the chat.
type Frontend struct {
	svc  usecase.ChatService
	out  adapter.TelegramBotAdapter
	tr   *i18n.Translator
	cfg  FrontendConfig
	now  func() time.Time
	log  *zerolog.Logger
	root context.Context

	mu    sync.Mutex
	convs map[int64]*conversation
	wg    sync.WaitGroup
}

type conversation struct {
	chatID int64
	mgr    *dialogue.Manager
	cancel context.CancelFunc

	// guarded by Frontend.mu
	busy       int
	lastActive time.Time

	mu        sync.Mutex
	lastReply time.Time
	delivered map[string]struct{}
}

func NewFrontend(svc usecase.ChatService, out adapter.TelegramBotAdapter, tr *i18n.Translator, cfg FrontendConfig, logger *zerolog.Logger) *Frontend {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if cfg.InactivityLimit <= 0 {
		cfg.InactivityLimit = 5 * time.Minute
	}
	if cfg.RetireAfter <= 0 {
		cfg.RetireAfter = 2 * cfg.InactivityLimit
	}
	l := logger.With().Str("component", "telegram").Logger()
	return &Frontend{
		svc:   svc,
		out:   out,
		tr:    tr,
		cfg:   cfg,
		now:   time.Now,
		log:   &l,
		root:  context.Background(),
		convs: map[int64]*conversation{},
	}
}

// Bind sets the context conversations run under. Cancelling it stops them.
func (f *Frontend) Bind(ctx context.Context) { f.root = ctx }

// Close stops every conversation and waits for pending session reports.
func (f *Frontend) Close() {
	f.mu.Lock()
	for id, c := range f.convs {
		c.cancel()
		delete(f.convs, id)
	}
	f.mu.Unlock()
	f.wg.Wait()
}

func userIDFor(chatID int64) string { return fmt.Sprintf("tg-%d", chatID) }

// acquire returns the chat's conversation, starting one when create is set,
// and marks it busy until release.
func (f *Frontend) acquire(chatID int64, create bool) *conversation {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[chatID]
	if !ok {
		if !create {
			return nil
		}
		c = f.start(chatID)
	}
	c.busy++
	return c
}

func (f *Frontend) release(c *conversation) {
	f.mu.Lock()
	c.busy--
	c.lastActive = f.now()
	f.mu.Unlock()
}

func (f *Frontend) touch(c *conversation) {
	f.mu.Lock()
	c.lastActive = f.now()
	f.mu.Unlock()
}

// start must be called with f.mu held.
func (f *Frontend) start(chatID int64) *conversation {
	ctx, cancel := context.WithCancel(f.root)
	c := &conversation{
		chatID:     chatID,
		cancel:     cancel,
		lastActive: f.now(),
		delivered:  map[string]struct{}{},
	}
	c.mgr = dialogue.NewManager(f.svc, dialogue.Config{
		UserID:            userIDFor(chatID),
		InactivityTimeout: f.cfg.InactivityLimit,
		CallTimeout:       f.cfg.CallTimeout,
		Clock:             f.now,
		Logger:            f.log,
	})
	f.convs[chatID] = c

	f.wg.Add(2)
	go func() {
		defer f.wg.Done()
		_ = c.mgr.Run(ctx)
	}()
	go func() {
		defer f.wg.Done()
		f.pump(context.WithoutCancel(ctx), c)
	}()
	return c
}

// retire drops a conversation whose manager has stopped.
func (f *Frontend) retire(c *conversation) {
	f.mu.Lock()
	if f.convs[c.chatID] == c {
		delete(f.convs, c.chatID)
	}
	f.mu.Unlock()
	c.cancel()
}

// RetireIdle stops the managers of conversations unused for RetireAfter. A
// session still open is ended as inactive first so its report goes out. The
// chat's next message starts a new conversation.
func (f *Frontend) RetireIdle(ctx context.Context) int {
	cutoff := f.now().Add(-f.cfg.RetireAfter)
	var idle []*conversation
	f.mu.Lock()
	for id, c := range f.convs {
		if c.busy == 0 && !c.lastActive.After(cutoff) {
			delete(f.convs, id)
			idle = append(idle, c)
		}
	}
	f.mu.Unlock()

	for _, c := range idle {
		err := c.mgr.End(ctx, chat.EndInactivity)
		if err != nil && !errors.Is(err, domain.ErrSessionEnded) && !errors.Is(err, dialogue.ErrNotRunning) {
			f.log.Warn().Err(err).Int64("chat_id", c.chatID).Msg("closing idle conversation")
		}
		c.cancel()
	}
	if len(idle) > 0 {
		f.log.Debug().Int("count", len(idle)).Msg("idle conversations retired")
	}
	return len(idle)
}

// Conversations reports how many chats currently hold a manager.
func (f *Frontend) Conversations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.convs)
}

// withConversation runs fn against the chat's manager, replacing a manager
// that stopped between lookup and use.
func (f *Frontend) withConversation(chatID int64, fn func(c *conversation) error) error {
	for attempt := 0; ; attempt++ {
		c := f.acquire(chatID, true)
		err := fn(c)
		f.release(c)
		if errors.Is(err, dialogue.ErrNotRunning) && attempt == 0 {
			f.retire(c)
			continue
		}
		return err
	}
}

// HandleText feeds a plain message to the chat's conversation.
func (f *Frontend) HandleText(ctx context.Context, chatID int64, text string, sentAt time.Time) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if sentAt.IsZero() || sentAt.After(f.now()) {
		sentAt = f.now()
	}
	return f.withConversation(chatID, func(c *conversation) error {
		input := chat.NewUserInputAction(c.composeStart(text, sentAt))
		input.Update(text, sentAt)
		return c.mgr.Send(ctx, input)
	})
}

func (c *conversation) composeStart(text string, sentAt time.Time) time.Time {
	c.mu.Lock()
	last := c.lastReply
	c.mu.Unlock()
	if !last.IsZero() && last.Before(sentAt) && sentAt.Sub(last) <= composeWindow {
		return last
	}
	est := time.Duration(len([]rune(text))) * estimatedPerCh
	if est > maxEstimate {
		est = maxEstimate
	}
	return sentAt.Add(-est)
}

// HandleCallback applies an inline-button press and returns the toast text.
func (f *Frontend) HandleCallback(ctx context.Context, chatID int64, data string) (string, error) {
	ft, messageID, ok := parseFeedbackData(data)
	if !ok {
		return "", fmt.Errorf("callback %q: %w", data, domain.ErrInvalidArgument)
	}
	c := f.acquire(chatID, false)
	if c == nil {
		return f.tr.T("feedback_unknown"), nil
	}
	err := c.mgr.Feedback(ctx, messageID, ft)
	f.release(c)
	switch {
	case err == nil:
		return f.tr.T("feedback_recorded"), nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrSessionEnded), errors.Is(err, dialogue.ErrNotRunning):
		return f.tr.T("feedback_unknown"), nil
	default:
		return f.tr.T("error_generic"), err
	}
}

const feedbackPrefix = "fb:"

func feedbackData(ft model.FeedbackType, messageID string) string {
	return feedbackPrefix + string(ft) + ":" + messageID
}

func parseFeedbackData(data string) (model.FeedbackType, string, bool) {
	rest, ok := strings.CutPrefix(data, feedbackPrefix)
	if !ok {
		return "", "", false
	}
	kind, id, ok := strings.Cut(rest, ":")
	if !ok || id == "" {
		return "", "", false
	}
	ft, err := model.ParseFeedbackType(kind)
	if err != nil {
		return "", "", false
	}
	return ft, id, true
}

func (f *Frontend) feedbackRow(messageID string) [][]adapter.InlineButton {
	return [][]adapter.InlineButton{{
		{Text: f.tr.T("feedback_positive_button"), Data: feedbackData(model.FeedbackPositive, messageID)},
		{Text: f.tr.T("feedback_negative_button"), Data: feedbackData(model.FeedbackNegative, messageID)},
	}}
}

// pump relays manager updates to Telegram until the manager stops.
func (f *Frontend) pump(ctx context.Context, c *conversation) {
	log := f.log.With().Int64("chat_id", c.chatID).Logger()
	for u := range c.mgr.Updates() {
		switch u := u.(type) {
		case dialogue.MessageUpdated:
			bot, ok := u.Message.(*chat.BotMessage)
			if !ok || bot.Pending() || !c.markDelivered(bot.ID(), f.now()) {
				continue
			}
			f.touch(c)
			if err := f.out.SendButtons(ctx, c.chatID, bot.Text(), f.feedbackRow(bot.ID())); err != nil {
				log.Warn().Err(err).Msg("reply not delivered")
			}
		case dialogue.SessionEnded:
			text := f.tr.T("session_ended")
			if u.EndType == chat.EndInactivity {
				text = f.tr.T("session_timeout", f.cfg.InactivityLimit.String())
			}
			c.forget()
			if err := f.out.SendMessage(ctx, c.chatID, text); err != nil {
				log.Warn().Err(err).Msg("session notice not delivered")
			}
		case dialogue.Failure:
			log.Error().Err(u.Err).Msg("chat service failure")
			key := "error_generic"
			if errors.Is(u.Err, domain.ErrUnauthorized) {
				key = "error_unauthorized"
			}
			_ = f.out.SendMessage(ctx, c.chatID, f.tr.T(key))
		}
	}
}

// forget clears per-session delivery state. The manager stays up, opening a
// new session on the next message, until RetireIdle stops it.
func (c *conversation) forget() {
	c.mu.Lock()
	c.delivered = map[string]struct{}{}
	c.lastReply = time.Time{}
	c.mu.Unlock()
}

// markDelivered reports false when id was already sent.
func (c *conversation) markDelivered(id string, at time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, seen := c.delivered[id]; seen {
		return false
	}
	c.delivered[id] = struct{}{}
	c.lastReply = at
	return true
}
