package dialogue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"humaine-chatbot/internal/chat"
	"humaine-chatbot/internal/domain"
	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/tracker"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeService struct {
	interact func(ctx context.Context, req model.InteractionRequest) (string, error)
	feedback func(ctx context.Context, req model.FeedbackRequest) (string, error)
	session  func(ctx context.Context, r model.SessionReport) (string, error)

	mu        sync.Mutex
	requests  []model.InteractionRequest
	feedbacks []model.FeedbackRequest
	reports   chan model.SessionReport
}

func newFakeService() *fakeService {
	return &fakeService{reports: make(chan model.SessionReport, 4)}
}

func (f *fakeService) Interact(ctx context.Context, req model.InteractionRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.interact != nil {
		return f.interact(ctx, req)
	}
	return "Hi!", nil
}

func (f *fakeService) SendFeedback(ctx context.Context, req model.FeedbackRequest) (string, error) {
	f.mu.Lock()
	f.feedbacks = append(f.feedbacks, req)
	f.mu.Unlock()
	if f.feedback != nil {
		return f.feedback(ctx, req)
	}
	if req.FeedbackType == model.FeedbackNegative {
		return "Let me try again.", nil
	}
	return "Thank you for your feedback!", nil
}

func (f *fakeService) SendSession(ctx context.Context, r model.SessionReport) (string, error) {
	f.reports <- r
	if f.session != nil {
		return f.session(ctx, r)
	}
	return "ok", nil
}

func (f *fakeService) feedbackCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.feedbacks)
}

func start(t *testing.T, svc *fakeService, cfg Config) *Manager {
	t.Helper()
	if cfg.UserID == "" {
		cfg.UserID = "u1"
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(svc, cfg)
	errc := make(chan error, 1)
	go func() { errc <- m.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		for range m.Updates() {
		}
		assert.ErrorIs(t, <-errc, context.Canceled)
	})
	return m
}

func next(t *testing.T, m *Manager) Update {
	t.Helper()
	select {
	case u := <-m.Updates():
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an update")
	}
	return nil
}

func nextOf[T Update](t *testing.T, m *Manager) T {
	t.Helper()
	u := next(t, m)
	v, ok := u.(T)
	require.Truef(t, ok, "unexpected update %T", u)
	return v
}

func typed(text string) *chat.UserInputAction {
	a := chat.NewUserInputAction(time.Now().Add(-2 * time.Second))
	a.Update(text, time.Now())
	return a
}

func TestSendAndReply(t *testing.T) {
	svc := newFakeService()
	m := start(t, svc, Config{})
	ctx := context.Background()

	require.NoError(t, m.Send(ctx, typed("Hello")))

	started := nextOf[SessionStarted](t, m)
	user := nextOf[MessageAdded](t, m)
	assert.Equal(t, "Hello", user.Message.Text())
	assert.Equal(t, started.SessionID, user.SessionID)

	pending := nextOf[MessageAdded](t, m)
	bot, ok := pending.Message.(*chat.BotMessage)
	require.True(t, ok)
	assert.True(t, bot.Pending())

	done := nextOf[MessageUpdated](t, m)
	assert.Equal(t, bot.ID(), done.Message.ID())
	assert.Equal(t, "Hi!", done.Message.Text())
	assert.False(t, done.Message.(*chat.BotMessage).Pending())

	svc.mu.Lock()
	req := svc.requests[0]
	svc.mu.Unlock()
	assert.Equal(t, started.SessionID, req.SessionID)
	assert.Equal(t, "u1", req.UserID)
	assert.Contains(t, req.Metrics, tracker.NameTypingSpeed)
	assert.Contains(t, req.Metrics, tracker.NameSentiment)
}

func TestSendFailSoft(t *testing.T) {
	svc := newFakeService()
	svc.interact = func(context.Context, model.InteractionRequest) (string, error) {
		return "", errors.New("connection refused")
	}
	m := start(t, svc, Config{})

	require.NoError(t, m.Send(context.Background(), typed("Hello")))
	nextOf[SessionStarted](t, m)
	nextOf[MessageAdded](t, m)
	nextOf[MessageAdded](t, m)
	up := nextOf[MessageUpdated](t, m)
	assert.Equal(t, chat.FallbackReply, up.Message.Text())
}

func TestSendUnauthorized(t *testing.T) {
	svc := newFakeService()
	svc.interact = func(context.Context, model.InteractionRequest) (string, error) {
		return "", domain.ErrUnauthorized
	}
	m := start(t, svc, Config{})

	require.NoError(t, m.Send(context.Background(), typed("Hello")))
	nextOf[SessionStarted](t, m)
	nextOf[MessageAdded](t, m)
	nextOf[MessageAdded](t, m)
	f := nextOf[Failure](t, m)
	assert.ErrorIs(t, f.Err, domain.ErrUnauthorized)
	up := nextOf[MessageUpdated](t, m)
	assert.Equal(t, chat.FallbackReply, up.Message.Text())
}

func TestEmptySendRejected(t *testing.T) {
	m := start(t, newFakeService(), Config{})
	err := m.Send(context.Background(), chat.NewUserInputAction(time.Now()))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func replied(t *testing.T, m *Manager) *chat.BotMessage {
	t.Helper()
	require.NoError(t, m.Send(context.Background(), typed("Hello")))
	nextOf[SessionStarted](t, m)
	nextOf[MessageAdded](t, m)
	nextOf[MessageAdded](t, m)
	return nextOf[MessageUpdated](t, m).Message.(*chat.BotMessage)
}

func TestNegativeFeedbackAddsRemediation(t *testing.T) {
	svc := newFakeService()
	m := start(t, svc, Config{})
	bot := replied(t, m)

	require.NoError(t, m.Feedback(context.Background(), bot.ID(), model.FeedbackNegative))
	rated := nextOf[MessageUpdated](t, m)
	assert.Equal(t, model.FeedbackNegative, rated.Message.(*chat.BotMessage).Feedback())

	added := nextOf[MessageAdded](t, m)
	assert.True(t, added.Message.(*chat.BotMessage).Pending())
	fixed := nextOf[MessageUpdated](t, m)
	assert.Equal(t, added.Message.ID(), fixed.Message.ID())
	assert.Equal(t, "Let me try again.", fixed.Message.Text())
}

func TestPositiveFeedbackIsFireAndForget(t *testing.T) {
	svc := newFakeService()
	m := start(t, svc, Config{})
	bot := replied(t, m)

	require.NoError(t, m.Feedback(context.Background(), bot.ID(), model.FeedbackPositive))
	nextOf[MessageUpdated](t, m)
	assert.Eventually(t, func() bool { return svc.feedbackCount() == 1 }, time.Second, 10*time.Millisecond)

	select {
	case u := <-m.Updates():
		t.Fatalf("unexpected update %T", u)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFeedbackValidation(t *testing.T) {
	m := start(t, newFakeService(), Config{})
	ctx := context.Background()
	assert.ErrorIs(t, m.Feedback(ctx, "x", model.FeedbackPositive), domain.ErrSessionEnded)

	replied(t, m)
	assert.ErrorIs(t, m.Feedback(ctx, "missing", model.FeedbackPositive), domain.ErrNotFound)
	assert.ErrorIs(t, m.Feedback(ctx, "missing", model.FeedbackType("meh")), domain.ErrInvalidArgument)
}

func TestEndReportsAndResets(t *testing.T) {
	svc := newFakeService()
	svc.session = func(context.Context, model.SessionReport) (string, error) {
		return "", errors.New("backend down")
	}
	m := start(t, svc, Config{})
	ctx := context.Background()
	bot := replied(t, m)
	require.NoError(t, m.Feedback(ctx, bot.ID(), model.FeedbackPositive))
	nextOf[MessageUpdated](t, m)

	require.NoError(t, m.End(ctx, chat.EndUserAction))
	ended := nextOf[SessionEnded](t, m)
	assert.Equal(t, chat.EndUserAction, ended.EndType)
	assert.Equal(t, "userAction", ended.Report.SessionEndType)
	assert.Equal(t, ended.Report.SessionEnd-ended.Report.SessionStart, ended.Report.SessionDuration)
	for _, name := range []string{tracker.NameEngagement, tracker.NameFeedback, tracker.NameTypingSpeed} {
		assert.Contains(t, ended.Report.Metrics, name)
	}
	ratio, ok := ended.Report.MetricValue(tracker.NameFeedback, "positive_feedback_ratio")
	assert.True(t, ok)
	assert.Equal(t, 1.0, ratio)

	select {
	case r := <-svc.reports:
		assert.Equal(t, ended.Report.SessionID, r.SessionID)
	case <-time.After(time.Second):
		t.Fatal("session report was not sent")
	}

	assert.ErrorIs(t, m.Feedback(ctx, bot.ID(), model.FeedbackNegative), domain.ErrSessionEnded)
	assert.ErrorIs(t, m.End(ctx, chat.EndUserAction), domain.ErrSessionEnded)
}

func TestLateReplyIsDiscarded(t *testing.T) {
	svc := newFakeService()
	release := make(chan struct{})
	svc.interact = func(ctx context.Context, _ model.InteractionRequest) (string, error) {
		<-release
		return "too late", nil
	}
	m := start(t, svc, Config{})
	ctx := context.Background()

	require.NoError(t, m.Send(ctx, typed("Hello")))
	first := nextOf[SessionStarted](t, m)
	nextOf[MessageAdded](t, m)
	nextOf[MessageAdded](t, m)

	require.NoError(t, m.End(ctx, chat.EndUserAction))
	nextOf[SessionEnded](t, m)
	close(release)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, m.Open(ctx))
	second := nextOf[SessionStarted](t, m)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	select {
	case u := <-m.Updates():
		t.Fatalf("stale reply leaked as %T", u)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestInactivityEndsUnfocusedSession(t *testing.T) {
	m := start(t, newFakeService(), Config{InactivityTimeout: 100 * time.Millisecond})
	replied(t, m)

	ended := nextOf[SessionEnded](t, m)
	assert.Equal(t, chat.EndInactivity, ended.EndType)
}

func TestInactivityWaitsWhileFocused(t *testing.T) {
	m := start(t, newFakeService(), Config{InactivityTimeout: 100 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, m.SetFocus(ctx, true))
	require.NoError(t, m.Open(ctx))
	nextOf[SessionStarted](t, m)

	select {
	case u := <-m.Updates():
		t.Fatalf("focused session produced %T", u)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, m.SetFocus(ctx, false))
	ended := nextOf[SessionEnded](t, m)
	assert.Equal(t, chat.EndInactivity, ended.EndType)
}

func TestInactivityTimer(t *testing.T) {
	fired := make(chan uint64, 4)
	tm := NewInactivityTimer(20*time.Millisecond, func(g uint64) { fired <- g })
	tm.Arm()
	tm.Arm()

	select {
	case g := <-fired:
		assert.True(t, tm.Current(g))
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	tm.Stop()
	assert.False(t, tm.Current(2))
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func typedAt(text string, start, end time.Time) *chat.UserInputAction {
	a := chat.NewUserInputAction(start)
	a.Update(text, end)
	return a
}

func TestIdleThresholdIsIndependentOfInactivity(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000)
	clock := &fakeClock{t: base}
	svc := newFakeService()
	m := start(t, svc, Config{InactivityTimeout: time.Minute, Clock: clock.Now})
	ctx := context.Background()

	require.NoError(t, m.Send(ctx, typedAt("Hello", base.Add(-time.Second), base)))
	nextOf[SessionStarted](t, m)
	nextOf[MessageAdded](t, m)
	nextOf[MessageAdded](t, m)
	nextOf[MessageUpdated](t, m)

	later := base.Add(6000 * time.Millisecond)
	clock.Set(later)
	require.NoError(t, m.Send(ctx, typedAt("Still there?", later.Add(-time.Second), later)))
	nextOf[MessageAdded](t, m)
	nextOf[MessageAdded](t, m)
	nextOf[MessageUpdated](t, m)

	require.NoError(t, m.End(ctx, chat.EndUserAction))
	ended := nextOf[SessionEnded](t, m)
	idle, ok := ended.Report.MetricValue(tracker.NameEngagement, "idle_time")
	require.True(t, ok)
	assert.Equal(t, 6000.0, idle)
	<-svc.reports
}

func TestTouchKeepsSessionAlive(t *testing.T) {
	m := start(t, newFakeService(), Config{InactivityTimeout: 150 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, m.Open(ctx))
	nextOf[SessionStarted](t, m)
	for i := 0; i < 5; i++ {
		time.Sleep(60 * time.Millisecond)
		require.NoError(t, m.Touch(ctx))
	}
	select {
	case u := <-m.Updates():
		t.Fatalf("touched session produced %T", u)
	default:
	}

	ended := nextOf[SessionEnded](t, m)
	assert.Equal(t, chat.EndInactivity, ended.EndType)
}

// Input typed from -2000 ms and sent at 0, reply finalized at 500, next send
// at 3000, feedback at 4000.
func TestConversationTimeline(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000)
	at := func(ms int64) time.Time { return base.Add(time.Duration(ms) * time.Millisecond) }
	clock := &fakeClock{t: at(0)}

	release := make(chan struct{})
	svc := newFakeService()
	svc.interact = func(ctx context.Context, req model.InteractionRequest) (string, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		return "Answer to " + req.InputText, nil
	}
	m := start(t, svc, Config{InactivityTimeout: time.Minute, Clock: clock.Now})
	ctx := context.Background()

	require.NoError(t, m.Send(ctx, typedAt("First question", at(-2000), at(0))))
	started := nextOf[SessionStarted](t, m)
	assert.Equal(t, at(0), started.At)
	user := nextOf[MessageAdded](t, m)
	assert.Equal(t, at(0), user.Message.(*chat.UserMessage).SentAt())
	nextOf[MessageAdded](t, m)

	clock.Set(at(500))
	release <- struct{}{}
	first := nextOf[MessageUpdated](t, m).Message.(*chat.BotMessage)
	assert.Equal(t, 500*time.Millisecond, first.Duration())

	clock.Set(at(3000))
	require.NoError(t, m.Send(ctx, typedAt("Second question", at(2500), at(3000))))
	nextOf[MessageAdded](t, m)
	nextOf[MessageAdded](t, m)
	release <- struct{}{}
	nextOf[MessageUpdated](t, m)

	svc.mu.Lock()
	require.Len(t, svc.requests, 2)
	second := svc.requests[1]
	svc.mu.Unlock()
	rt, ok := model.Number(second.Metrics[tracker.NameResponseTime]["response_time"])
	require.True(t, ok)
	assert.Equal(t, 2.5, rt)

	clock.Set(at(4000))
	require.NoError(t, m.Feedback(ctx, first.ID(), model.FeedbackPositive))
	nextOf[MessageUpdated](t, m)
	require.Eventually(t, func() bool { return svc.feedbackCount() == 1 }, time.Second, 10*time.Millisecond)
	svc.mu.Lock()
	fb := svc.feedbacks[0]
	svc.mu.Unlock()
	assert.Equal(t, int64(3500), fb.FeedbackDelayDuration)
	assert.Equal(t, at(500).UnixMilli(), fb.ResponseEndTime)

	clock.Set(at(5000))
	require.NoError(t, m.End(ctx, chat.EndUserAction))
	ended := nextOf[SessionEnded](t, m)
	assert.Equal(t, int64(5000), ended.Report.SessionDuration)
	avg, ok := ended.Report.MetricValue(tracker.NameResponseTime, "response_time")
	require.True(t, ok)
	assert.Equal(t, 2.5, avg)
	<-svc.reports
}
