package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"humaine-chatbot/internal/config"
	"humaine-chatbot/internal/domain/ports/adapter"
	"humaine-chatbot/internal/domain/ports/repository"
	"humaine-chatbot/internal/infra/logging"
	"humaine-chatbot/internal/infra/metrics"
	red "humaine-chatbot/internal/infra/redis"
	"humaine-chatbot/internal/infra/worker"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// RealTelegramBotAdapter polls Telegram and hands updates to a Frontend.
// Updates of one chat always land on the same single-worker shard, so a
// chat's messages are handled in the order they were sent.
type RealTelegramBotAdapter struct {
	bot         *tgbotapi.BotAPI
	rateLimiter repository.RateLimiter
	shards      []*worker.Pool
	log         *zerolog.Logger

	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(cfg config.BotConfig, rateLimiter repository.RateLimiter, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg.Token == "" {
		return nil, errors.New("bot token is empty")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	return newAdapter(bot, cfg.Workers, rateLimiter, logger), nil
}

func newAdapter(bot *tgbotapi.BotAPI, workers int, rateLimiter repository.RateLimiter, logger *zerolog.Logger) *RealTelegramBotAdapter {
	if workers <= 0 {
		workers = 5
	}
	l := logger.With().Str("component", "telegram_bot").Logger()
	shards := make([]*worker.Pool, workers)
	for i := range shards {
		shards[i] = worker.NewPool(fmt.Sprintf("tg-%d", i), 1, &l)
	}
	return &RealTelegramBotAdapter{bot: bot, rateLimiter: rateLimiter, shards: shards, log: &l}
}

// StartPolling blocks until ctx is cancelled or StopPolling is called.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context, f *Frontend) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel
	f.Bind(ctx)

	for _, p := range r.shards {
		p.Start(ctx)
	}
	r.log.Info().Str("bot", r.bot.Self.UserName).Int("shards", len(r.shards)).Msg("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			for _, p := range r.shards {
				p.Stop()
			}
			f.Close()
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				cancel()
				continue
			}
			r.dispatch(f, up)
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealTelegramBotAdapter) dispatch(f *Frontend, up tgbotapi.Update) {
	chatID := updateChatID(up)
	if chatID == 0 {
		return
	}
	shard := r.shards[shardFor(chatID, len(r.shards))]
	if err := shard.Submit(func(ctx context.Context) error {
		return r.handleUpdate(ctx, f, up)
	}); err != nil {
		r.log.Warn().Err(err).Int64("chat_id", chatID).Msg("update dropped")
	}
}

func shardFor(chatID int64, n int) int {
	if chatID < 0 {
		chatID = -chatID
	}
	return int(chatID % int64(n))
}

func updateChatID(up tgbotapi.Update) int64 {
	switch {
	case up.Message != nil && up.Message.Chat != nil:
		return up.Message.Chat.ID
	case up.CallbackQuery != nil && up.CallbackQuery.Message != nil && up.CallbackQuery.Message.Chat != nil:
		return up.CallbackQuery.Message.Chat.ID
	case up.CallbackQuery != nil && up.CallbackQuery.From != nil:
		return up.CallbackQuery.From.ID
	}
	return 0
}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendButtons sends text with an inline keyboard. A button with a URL opens
// the link; any other button sends its Data (or its label) as callback data.
func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if kb := keyboard(rows); len(kb) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kb...)
	}
	_, err := r.bot.Send(msg)
	return err
}

func keyboard(rows [][]adapter.InlineButton) [][]tgbotapi.InlineKeyboardButton {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kr := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		out = append(out, kr)
	}
	return out
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, f *Frontend, up tgbotapi.Update) error {
	ctx = logging.WithChatID(ctx, updateChatID(up))
	if up.CallbackQuery != nil {
		err := r.handleQuery(ctx, f, up.CallbackQuery)
		metrics.IncBotUpdate("callback", err == nil)
		return err
	}
	msg := up.Message
	if msg == nil || msg.Chat == nil {
		return nil
	}
	if msg.IsCommand() {
		err := f.HandleCommand(ctx, msg.Chat.ID, msg.Command())
		metrics.IncBotUpdate("command", err == nil)
		return err
	}
	if r.rateLimiter != nil {
		allowed, err := r.rateLimiter.Allow(ctx, red.UserActionKey(fmt.Sprintf("tg:%d", msg.Chat.ID), "message"))
		if err != nil {
			logging.With(ctx, r.log).Warn().Err(err).Msg("rate limiter unavailable")
		} else if !allowed {
			metrics.IncRateLimitTriggered()
			return r.SendMessage(ctx, msg.Chat.ID, f.tr.T("rate_limited"))
		}
	}
	err := f.HandleText(ctx, msg.Chat.ID, msg.Text, sentAt(msg.Date, f.now()))
	metrics.IncBotUpdate("message", err == nil)
	return err
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, f *Frontend, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}
	toast := ""
	// Always answer so the client stops its spinner.
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, toast)) }()

	chatID := query.From.ID
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	}
	var err error
	toast, err = f.HandleCallback(ctx, chatID, strings.TrimSpace(query.Data))
	return err
}

// sentAt bounds the Telegram timestamp; clocks of client and server differ.
func sentAt(unix int, now time.Time) time.Time {
	t := time.Unix(int64(unix), 0)
	if t.After(now) || now.Sub(t) > time.Hour {
		return now
	}
	return t
}
