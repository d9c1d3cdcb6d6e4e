// Package dialogue drives one conversation at a time: it feeds user input to
// the trackers, calls the chat service, and ends sessions on request or after
// a quiet period.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"humaine-chatbot/internal/chat"
	"humaine-chatbot/internal/domain"
	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/domain/ports/usecase"
	"humaine-chatbot/internal/tracker"
)

const DefaultCallTimeout = 20 * time.Second

var ErrNotRunning = errors.New("dialogue manager is not running")

type Config struct {
	UserID            string
	InactivityTimeout time.Duration
	CallTimeout       time.Duration
	Clock             tracker.Clock
	// Trackers.IdleThreshold is independent of InactivityTimeout; zero means
	// tracker.DefaultIdleThreshold.
	Trackers tracker.SetConfig
	Logger   *zerolog.Logger
}

// Manager owns the session, its messages and the trackers. All of them are
// touched only by the Run goroutine; the exported methods post commands to it.
type Manager struct {
	svc     usecase.ChatService
	userID  string
	timeout time.Duration
	now     tracker.Clock
	log     zerolog.Logger

	cmds    chan command
	events  chan event
	updates chan Update
	done    chan struct{}
	wg      sync.WaitGroup

	// loop state
	session  *chat.Session
	messages []chat.Message
	trackers *tracker.Set
	timer    *InactivityTimer
	focused  bool
}

func NewManager(svc usecase.ChatService, cfg Config) *Manager {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = cfg.Logger.With().Str("component", "dialogue").Str("user_id", cfg.UserID).Logger()
	}
	tc := cfg.Trackers
	tc.Clock = cfg.Clock
	m := &Manager{
		svc:      svc,
		userID:   cfg.UserID,
		timeout:  cfg.CallTimeout,
		now:      cfg.Clock,
		log:      log,
		cmds:     make(chan command),
		events:   make(chan event, 16),
		updates:  make(chan Update, 64),
		done:     make(chan struct{}),
		trackers: tracker.NewSet(tc),
	}
	m.timer = NewInactivityTimer(cfg.InactivityTimeout, func(gen uint64) {
		m.post(inactivityEvent{gen: gen})
	})
	return m
}

// Updates must be drained by the caller. It is closed when Run returns.
func (m *Manager) Updates() <-chan Update { return m.updates }

// Run processes commands until ctx is cancelled. A session still open at that
// point is abandoned without a report. Run waits for in-flight session reports.
func (m *Manager) Run(ctx context.Context) error {
	defer func() {
		m.timer.Stop()
		close(m.done)
		m.wg.Wait()
		close(m.updates)
	}()
	m.log.Info().Msg("dialogue manager started")
	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("dialogue manager stopping")
			return ctx.Err()
		case c := <-m.cmds:
			c.reply <- m.handle(ctx, c.op)
		case ev := <-m.events:
			m.handleEvent(ctx, ev)
		}
	}
}

// Open starts a session if none is active.
func (m *Manager) Open(ctx context.Context) error {
	return m.do(ctx, openOp{})
}

// Send records the finished input and asks the backend for a reply. The reply
// arrives later as a MessageUpdated.
func (m *Manager) Send(ctx context.Context, input *chat.UserInputAction) error {
	if input == nil {
		return fmt.Errorf("nil input: %w", domain.ErrInvalidArgument)
	}
	cp := *input
	return m.do(ctx, sendOp{input: &cp})
}

func (m *Manager) Feedback(ctx context.Context, messageID string, ft model.FeedbackType) error {
	return m.do(ctx, feedbackOp{messageID: messageID, ft: ft})
}

// End closes the active session, reports it in the background and resets.
func (m *Manager) End(ctx context.Context, et chat.EndType) error {
	return m.do(ctx, endOp{endType: et})
}

// SetFocus tells the manager whether the chat window is in front. The
// inactivity timeout only ends unfocused sessions.
func (m *Manager) SetFocus(ctx context.Context, focused bool) error {
	return m.do(ctx, focusOp{focused: focused})
}

// Touch counts as activity: it restarts the inactivity countdown of an open
// session, for example while the user is typing.
func (m *Manager) Touch(ctx context.Context) error {
	return m.do(ctx, touchOp{})
}

func (m *Manager) do(ctx context.Context, op any) error {
	c := command{op: op, reply: make(chan error, 1)}
	select {
	case m.cmds <- c:
	case <-m.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-c.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post hands an async result back to the loop; results arriving after Run
// returned are dropped.
func (m *Manager) post(ev event) {
	select {
	case m.events <- ev:
	case <-m.done:
	}
}

func (m *Manager) emit(ctx context.Context, u Update) {
	select {
	case m.updates <- u:
	case <-ctx.Done():
	}
}

func (m *Manager) handle(ctx context.Context, op any) error {
	switch o := op.(type) {
	case openOp:
		m.ensureSession(ctx)
		return nil
	case sendOp:
		return m.send(ctx, o.input)
	case feedbackOp:
		return m.feedback(ctx, o.messageID, o.ft)
	case endOp:
		return m.end(ctx, o.endType)
	case focusOp:
		m.focused = o.focused
		return nil
	case touchOp:
		if m.session != nil {
			m.timer.Arm()
		}
		return nil
	}
	return fmt.Errorf("unknown command %T", op)
}

func (m *Manager) handleEvent(ctx context.Context, ev event) {
	switch e := ev.(type) {
	case replyEvent:
		m.finalize(ctx, e)
	case inactivityEvent:
		if !m.timer.Current(e.gen) || m.session == nil {
			return
		}
		if m.focused {
			m.timer.Arm()
			return
		}
		m.log.Info().Str("session_id", m.session.ID()).Msg("session inactive")
		if err := m.end(ctx, chat.EndInactivity); err != nil {
			m.log.Warn().Err(err).Msg("inactivity end failed")
		}
	case failureEvent:
		m.emit(ctx, Failure{Err: e.err})
	}
}

func (m *Manager) ensureSession(ctx context.Context) *chat.Session {
	if m.session != nil {
		return m.session
	}
	now := m.now()
	m.session = chat.NewSession(m.userID, now, &m.log)
	m.trackers.Reset()
	m.messages = nil
	m.timer.Arm()
	m.log.Info().Str("session_id", m.session.ID()).Msg("session started")
	m.emit(ctx, SessionStarted{SessionID: m.session.ID(), At: now})
	return m.session
}

func (m *Manager) send(ctx context.Context, input *chat.UserInputAction) error {
	if input.Text() == "" {
		return fmt.Errorf("empty message: %w", domain.ErrInvalidArgument)
	}
	s := m.ensureSession(ctx)
	msg := chat.NewUserMessage(input, m.now())

	// Telemetry is recorded before the request goes out.
	tr := m.trackers
	if r, ok := tr.TypingSpeed.Track(input.Start(), input.End(), input.Text()); ok {
		msg.SetMetric(tracker.NameTypingSpeed, r)
	}
	if r, ok := tr.Sentiment.Track(input.Text()); ok {
		msg.SetMetric(tracker.NameSentiment, r)
	}
	if r, ok := tr.Grammar.Track(input.Text()); ok {
		msg.SetMetric(tracker.NameGrammar, r)
	}
	if r, ok := tr.Complexity.Track(input.Text()); ok {
		msg.SetMetric(tracker.NameLanguageComplexity, r)
	}
	if r, ok := tr.ResponseTime.MarkUserResponse(input.Start()); ok {
		msg.SetMetric(tracker.NameResponseTime, r)
	}
	tr.Engagement.OnUserMessage(input.TypingTime())

	bot := chat.NewBotMessage(m.now())
	m.messages = append(m.messages, msg, bot)
	m.emit(ctx, MessageAdded{SessionID: s.ID(), Message: msg.Clone()})
	m.emit(ctx, MessageAdded{SessionID: s.ID(), Message: bot.Clone()})
	m.timer.Arm()

	req := msg.Request(s.ID(), m.userID)
	m.call(ctx, s.ID(), bot.ID(), "interact", func(ctx context.Context) (string, error) {
		return m.svc.Interact(ctx, req)
	})
	return nil
}

func (m *Manager) feedback(ctx context.Context, messageID string, ft model.FeedbackType) error {
	if _, err := model.ParseFeedbackType(string(ft)); err != nil {
		return err
	}
	if m.session == nil {
		return domain.ErrSessionEnded
	}
	bot, ok := m.botMessage(messageID)
	if !ok {
		return fmt.Errorf("bot message %s: %w", messageID, domain.ErrNotFound)
	}
	if bot.Pending() {
		return fmt.Errorf("bot message %s is pending: %w", messageID, domain.ErrInvalidArgument)
	}
	s := m.session
	bot.SetFeedback(ft, m.now())
	m.trackers.Feedback.NewFeedback(bot.ID(), ft)
	m.emit(ctx, MessageUpdated{SessionID: s.ID(), Message: bot.Clone()})
	m.timer.Arm()

	req, err := chat.Feedback{SessionID: s.ID(), UserID: m.userID, Message: bot}.Request()
	if err != nil {
		return err
	}
	if ft == model.FeedbackPositive {
		m.background(ctx, "feedback", func(ctx context.Context) error {
			_, err := m.svc.SendFeedback(ctx, req)
			return err
		})
		return nil
	}

	// Negative feedback earns a remediation turn.
	fix := chat.NewBotMessage(m.now())
	m.messages = append(m.messages, fix)
	m.emit(ctx, MessageAdded{SessionID: s.ID(), Message: fix.Clone()})
	m.call(ctx, s.ID(), fix.ID(), "feedback", func(ctx context.Context) (string, error) {
		return m.svc.SendFeedback(ctx, req)
	})
	return nil
}

func (m *Manager) end(ctx context.Context, et chat.EndType) error {
	s := m.session
	if s == nil {
		return domain.ErrSessionEnded
	}
	if err := s.End(et, m.now()); err != nil {
		return err
	}
	m.timer.Stop()

	for name, r := range m.trackers.Freeze(s.Duration()) {
		s.SetMetric(name, r)
	}
	report := s.Report()
	m.log.Info().Str("session_id", s.ID()).Str("end_type", string(et)).
		Int64("duration_ms", report.SessionDuration).Msg("session ended")
	m.emit(ctx, SessionEnded{EndType: et, Report: report})

	// Best effort; the local state is reset whatever happens to the report.
	m.background(context.WithoutCancel(ctx), "session", func(ctx context.Context) error {
		_, err := m.svc.SendSession(ctx, report)
		return err
	})

	m.session = nil
	m.messages = nil
	m.trackers.Reset()
	return nil
}

// call runs fn off the loop and feeds the reply to finalize.
func (m *Manager) call(ctx context.Context, sessionID, botID, op string, fn func(context.Context) (string, error)) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		cctx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()
		text, err := fn(cctx)
		m.post(replyEvent{sessionID: sessionID, botID: botID, op: op, text: text, err: err})
	}()
}

func (m *Manager) background(ctx context.Context, op string, fn func(context.Context) error) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		cctx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()
		if err := fn(cctx); err != nil {
			m.log.Warn().Err(err).Str("op", op).Msg("chat service call failed")
			if errors.Is(err, domain.ErrUnauthorized) {
				m.post(failureEvent{err: err})
			}
		}
	}()
}

func (m *Manager) finalize(ctx context.Context, e replyEvent) {
	if m.session == nil || m.session.ID() != e.sessionID {
		m.log.Debug().Str("session_id", e.sessionID).Str("op", e.op).Msg("discarding reply for a closed session")
		return
	}
	bot, ok := m.botMessage(e.botID)
	if !ok || !bot.Pending() {
		return
	}
	text := e.text
	if e.err != nil {
		m.log.Warn().Err(e.err).Str("op", e.op).Str("session_id", e.sessionID).Msg("chat service call failed")
		text = chat.FallbackReply
		if errors.Is(e.err, domain.ErrUnauthorized) {
			m.emit(ctx, Failure{Err: e.err})
		}
	}
	bot.SetResponse(text, m.now())
	if e.err == nil {
		m.trackers.ResponseTime.MarkBotResponse()
	}
	m.trackers.Engagement.OnBotMessage(bot.Duration())
	m.trackers.Feedback.NewBotMessage(bot.ID())
	m.emit(ctx, MessageUpdated{SessionID: e.sessionID, Message: bot.Clone()})
	m.timer.Arm()
}

func (m *Manager) botMessage(id string) (*chat.BotMessage, bool) {
	for _, msg := range m.messages {
		if b, ok := msg.(*chat.BotMessage); ok && b.ID() == id {
			return b, true
		}
	}
	return nil, false
}

type command struct {
	op    any
	reply chan error
}

type openOp struct{}
type sendOp struct{ input *chat.UserInputAction }
type feedbackOp struct {
	messageID string
	ft        model.FeedbackType
}
type endOp struct{ endType chat.EndType }
type focusOp struct{ focused bool }
type touchOp struct{}

type event any

type replyEvent struct {
	sessionID string
	botID     string
	op        string
	text      string
	err       error
}

type inactivityEvent struct{ gen uint64 }

type failureEvent struct{ err error }
