package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"humaine-chatbot/internal/domain"
	"humaine-chatbot/internal/domain/model"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestProfileUC() (*profileUC, *memProfileRepo) {
	repo := newMemProfileRepo()
	uc := NewProfileUseCase(repo, nil, nil)
	uc.now = func() time.Time { return fixedNow }
	return uc, repo
}

func prompt(user, text string) model.InteractionRequest {
	return model.InteractionRequest{
		SessionID:      "s1",
		UserID:         user,
		InputText:      text,
		InputStartTime: 1000,
		InputEndTime:   3000,
		InputSentTime:  3500,
	}
}

func TestApplyPrompt_Heuristics(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		detail model.DetailLevel
		style  model.ResponseStyle
	}{
		{"short prompt is concise", "hi there", model.DetailConcise, model.StyleConversational},
		{"long prompt is detailed", strings.Repeat("Tell me about distributed consensus algorithms. ", 3), model.DetailDetailed, model.StyleConversational},
		{"negative tone is professional", "This is terrible and awful, I hate it", model.DetailMedium, model.StyleProfessional},
		{"excited tone is enthusiastic", "I love this, it is great and amazing!!!", model.DetailMedium, model.StyleEnthusiastic},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			uc, _ := newTestProfileUC()
			p, err := uc.ApplyPrompt(context.Background(), prompt("u1", tc.text))
			if err != nil {
				t.Fatalf("ApplyPrompt: %v", err)
			}
			if tc.detail != model.DetailMedium && p.PreferredDetailLevel != tc.detail {
				t.Errorf("detail = %s, want %s", p.PreferredDetailLevel, tc.detail)
			}
			if p.PreferredResponseStyle != tc.style {
				t.Errorf("style = %s, want %s", p.PreferredResponseStyle, tc.style)
			}
			if p.TotalInteractions != 1 {
				t.Errorf("interactions = %d", p.TotalInteractions)
			}
			if p.CrossSessionInsights == nil {
				t.Errorf("insights not computed")
			}
		})
	}
}

func TestApplyPrompt_TypingSpeedAndAverages(t *testing.T) {
	uc, _ := newTestProfileUC()
	ctx := context.Background()
	req := prompt("u1", "abcdefghij") // 10 chars in 2s
	p, err := uc.ApplyPrompt(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if p.AverageTypingSpeed != 2.5 { // (0+5)/2
		t.Fatalf("typing speed = %v, want 2.5", p.AverageTypingSpeed)
	}
	req.Metrics = map[string]map[string]any{"response_time": {"response_time": 4.0}}
	p, _ = uc.ApplyPrompt(ctx, req)
	if p.AverageTypingSpeed != 3.75 {
		t.Fatalf("typing speed = %v, want 3.75", p.AverageTypingSpeed)
	}
	if p.AverageResponseTime != 4 {
		t.Fatalf("response time = %v, want 4 (first sample)", p.AverageResponseTime)
	}
	req.Metrics = map[string]map[string]any{"response_time": {"response_time": 2.0}}
	p, _ = uc.ApplyPrompt(ctx, req)
	if p.AverageResponseTime != 3 {
		t.Fatalf("response time = %v, want 3", p.AverageResponseTime)
	}
}

func TestApplyPrompt_StorageFailure(t *testing.T) {
	uc, repo := newTestProfileUC()
	repo.mutateErr = errors.New("down")
	if _, err := uc.ApplyPrompt(context.Background(), prompt("u1", "hello")); err == nil {
		t.Fatal("expected error")
	}
}

func TestApplyFeedback(t *testing.T) {
	uc, _ := newTestProfileUC()
	ctx := context.Background()
	fb := func(ft model.FeedbackType) model.FeedbackRequest {
		return model.FeedbackRequest{SessionID: "s1", UserID: "u1", FeedbackType: ft, FeedbackDelayDuration: 1200}
	}

	p, err := uc.ApplyFeedback(ctx, fb(model.FeedbackPositive))
	if err != nil {
		t.Fatal(err)
	}
	if p.PreferredDetailLevel != model.DetailDetailed {
		t.Errorf("detail = %s", p.PreferredDetailLevel)
	}
	if p.PositiveFeedbackRatio < 0.099 || p.FeedbackRatio < 0.099 {
		t.Errorf("ratios = %v / %v", p.PositiveFeedbackRatio, p.FeedbackRatio)
	}

	for i := 0; i < 3; i++ {
		p, _ = uc.ApplyFeedback(ctx, fb(model.FeedbackNegative))
	}
	if p.PreferredDetailLevel != model.DetailConcise {
		t.Errorf("detail after negatives = %s", p.PreferredDetailLevel)
	}
	if p.PositiveFeedbackRatio != 0 {
		t.Errorf("positive ratio should floor at 0, got %v", p.PositiveFeedbackRatio)
	}
	if len(p.FeedbackHistory) != 4 {
		t.Errorf("history = %d", len(p.FeedbackHistory))
	}

	for i := 0; i < 20; i++ {
		p, _ = uc.ApplyFeedback(ctx, fb(model.FeedbackPositive))
	}
	if p.PositiveFeedbackRatio > 1 || p.FeedbackRatio > 1 {
		t.Errorf("ratios must cap at 1: %v / %v", p.PositiveFeedbackRatio, p.FeedbackRatio)
	}

	if _, err := uc.ApplyFeedback(ctx, fb("meh")); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("want invalid argument, got %v", err)
	}
}

func report(id string, dur int64, engagement float64) model.SessionReport {
	return model.SessionReport{
		SessionID:       id,
		UserID:          "u1",
		SessionStart:    fixedNow.UnixMilli(),
		SessionEnd:      fixedNow.UnixMilli() + dur,
		SessionDuration: dur,
		SessionEndType:  model.EndUserAction,
		Metrics:         map[string]map[string]any{"engagement": {"engagement_time": engagement}},
	}
}

func TestApplySession_Idempotent(t *testing.T) {
	uc, repo := newTestProfileUC()
	ctx := context.Background()

	applied, err := uc.ApplySession(ctx, report("s1", 60000, 40000))
	if err != nil || !applied {
		t.Fatalf("first apply: %v %v", applied, err)
	}
	applied, err = uc.ApplySession(ctx, report("s1", 60000, 40000))
	if err != nil || applied {
		t.Fatalf("duplicate apply: %v %v", applied, err)
	}
	if _, err := uc.ApplySession(ctx, report("s2", 120000, 20000)); err != nil {
		t.Fatal(err)
	}

	p, _ := repo.FindByUserID(ctx, nil, "u1")
	if p.TotalSessions != 2 || len(p.SessionHistory) != 2 {
		t.Fatalf("sessions = %d history = %d", p.TotalSessions, len(p.SessionHistory))
	}
	if p.AverageSessionDuration != 90000 {
		t.Errorf("avg duration = %v", p.AverageSessionDuration)
	}
	if p.AverageEngagementTime != 30000 {
		t.Errorf("avg engagement = %v", p.AverageEngagementTime)
	}
}

func TestConcurrentUpdatesAreNotLost(t *testing.T) {
	uc, repo := newTestProfileUC()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = uc.ApplyPrompt(ctx, prompt("u1", "hello there friend"))
		}()
	}
	wg.Wait()
	p, _ := repo.FindByUserID(ctx, nil, "u1")
	if p.TotalInteractions != 50 {
		t.Fatalf("interactions = %d, want 50", p.TotalInteractions)
	}
}

func TestStatsDeleteSave(t *testing.T) {
	uc, repo := newTestProfileUC()
	ctx := context.Background()
	_, _ = uc.ApplyPrompt(ctx, prompt("u1", "hi"))
	_, _ = uc.ApplyPrompt(ctx, prompt("u2", "hi"))
	_, _ = uc.ApplySession(ctx, report("s1", 1000, 0))

	st, err := uc.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalProfiles != 2 || st.TotalSessions != 1 || st.AverageSessionsPerUser != 0.5 {
		t.Fatalf("stats = %+v", st)
	}
	if st.DetailDistribution[model.DetailConcise] != 2 {
		t.Errorf("detail distribution = %v", st.DetailDistribution)
	}

	if err := uc.SaveAll(ctx); err != nil || repo.snapshots != 1 {
		t.Fatalf("SaveAll: %v snapshots=%d", err, repo.snapshots)
	}

	if err := uc.Delete(ctx, "u2"); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Get(ctx, "u2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
	if _, err := uc.Insights(ctx, "nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}
