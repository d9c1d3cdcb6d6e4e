package usecase

import (
	"math"
	"testing"
	"time"

	"humaine-chatbot/internal/domain/model"
)

func sessionAt(hour int, dur int64, endType string) model.SessionEntry {
	start := time.Date(2025, 3, 1, hour, 0, 0, 0, time.UTC).UnixMilli()
	return model.SessionEntry{SessionID: "s", StartTime: start, EndTime: start + dur, Duration: dur, EndType: endType}
}

func TestComputeInsights_Empty(t *testing.T) {
	p := model.NewUserProfile("u1", fixedNow)
	ins := computeInsights(p, fixedNow)
	if ins.Timing != nil || ins.Engagement != nil || ins.Feedback != nil {
		t.Fatalf("expected only communication patterns, got %+v", ins)
	}
	if len(ins.Insights) != 1 || ins.Insights[0] != InsightConsistentPrefs {
		t.Fatalf("insights = %v", ins.Insights)
	}
	if ins.Recommendations[0] != "Maintain current personalization approach" {
		t.Fatalf("recommendations = %v", ins.Recommendations)
	}
	if ins.Communication.ExpertiseProgression != ProgressionInsufficient {
		t.Errorf("progression = %s", ins.Communication.ExpertiseProgression)
	}
}

func TestComputeInsights_SessionsAndFeedback(t *testing.T) {
	p := model.NewUserProfile("u1", fixedNow.Add(-10*24*time.Hour))
	p.PreferredResponseStyle = model.StyleProfessional
	p.SessionHistory = []model.SessionEntry{
		sessionAt(8, 60000, model.EndInactivity),
		sessionAt(13, 60000, model.EndUserAction),
		sessionAt(19, 400000, model.EndTaskCompletion),
		sessionAt(23, 400000, model.EndUserAction),
	}
	p.FeedbackHistory = []model.FeedbackEntry{
		{Type: model.FeedbackNegative, FeedbackDelayDuration: 2000},
		{Type: model.FeedbackNegative, FeedbackDelayDuration: 4000},
		{Type: model.FeedbackPositive},
		{Type: model.FeedbackPositive, FeedbackDelayDuration: 6000},
	}

	ins := computeInsights(p, fixedNow)

	tm := ins.Timing
	if tm.TotalSessions != 4 || tm.AvgSessionDuration != 230000 {
		t.Fatalf("timing = %+v", tm)
	}
	if tm.SessionFrequencyPerDay != 0.4 {
		t.Errorf("frequency = %v", tm.SessionFrequencyPerDay)
	}
	for _, k := range []string{"morning", "afternoon", "evening", "night"} {
		if tm.TimePreferences[k] != 1 {
			t.Errorf("time preference %s = %d", k, tm.TimePreferences[k])
		}
	}
	if tm.DurationConsistency != 170000 {
		t.Errorf("std dev = %v", tm.DurationConsistency)
	}

	e := ins.Engagement
	if e.EngagementTrend != TrendIncreasing || e.EngagementLevel != "medium" || e.SessionCompletionRate != 0.75 {
		t.Errorf("engagement = %+v", e)
	}

	c := ins.Communication
	if c.ExpertiseProgression != ProgressionImproving {
		t.Errorf("progression = %s", c.ExpertiseProgression)
	}
	if math.Abs(c.Consistency-0.6) > 1e-9 {
		t.Errorf("consistency = %v", c.Consistency)
	}
	if math.Abs(c.AdaptabilityScore-(0.5+0.15+0.08)) > 1e-9 {
		t.Errorf("adaptability = %v", c.AdaptabilityScore)
	}

	f := ins.Feedback
	if f.AvgFeedbackDelay != 4000 || f.FeedbackConsistency != 1 || f.ImprovementPattern != ProgressionImproving {
		t.Errorf("feedback = %+v", f)
	}
	if f.FeedbackEngagement != "medium" {
		t.Errorf("feedback engagement = %s", f.FeedbackEngagement)
	}

	want := []string{InsightEngagementUp, InsightVariedPrefs}
	if len(ins.Insights) != len(want) {
		t.Fatalf("insights = %v", ins.Insights)
	}
	for i := range want {
		if ins.Insights[i] != want[i] || ins.Recommendations[i] != recommendations[want[i]] {
			t.Errorf("insight %d = %q / %q", i, ins.Insights[i], ins.Recommendations[i])
		}
	}
}

func TestDescribe_FrequencyAndFeedback(t *testing.T) {
	ins := &model.CrossSessionInsights{
		Timing:   &model.TimingPatterns{SessionFrequencyPerDay: 3},
		Feedback: &model.FeedbackPatterns{NegativeRatio: 0.6},
	}
	got := describe(ins)
	if len(got) != 2 || got[0] != InsightHighlyActive || got[1] != InsightFrequentlyNegative {
		t.Fatalf("describe = %v", got)
	}
	ins.Timing.SessionFrequencyPerDay = 0.05
	ins.Feedback.PositiveRatio = 0.8
	got = describe(ins)
	if got[0] != InsightInfrequent || got[1] != InsightSatisfied {
		t.Fatalf("describe = %v", got)
	}
}
