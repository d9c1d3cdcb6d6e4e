package usecase

import (
	"math"
	"sort"
	"time"

	"humaine-chatbot/internal/domain/model"
)

const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"

	ProgressionImproving    = "improving"
	ProgressionDeclining    = "declining"
	ProgressionStable       = "stable"
	ProgressionInsufficient = "insufficient_data"
)

const (
	InsightHighlyActive       = "User is highly active with multiple daily sessions"
	InsightInfrequent         = "User has infrequent usage patterns"
	InsightEngagementUp       = "User engagement is improving over time"
	InsightEngagementDown     = "User engagement has declined recently"
	InsightConsistentPrefs    = "User has consistent communication preferences"
	InsightVariedPrefs        = "User shows varied communication preferences"
	InsightSatisfied          = "User is generally satisfied with responses"
	InsightFrequentlyNegative = "User frequently provides negative feedback"
)

// Each insight has exactly one recommendation.
var recommendations = map[string]string{
	InsightHighlyActive:       "Consider providing more detailed responses to maintain engagement",
	InsightInfrequent:         "Focus on concise, impactful responses to encourage return visits",
	InsightEngagementUp:       "Continue current approach as it's working well",
	InsightEngagementDown:     "Review recent interactions and adjust response strategy",
	InsightConsistentPrefs:    "Maintain current personalization approach",
	InsightVariedPrefs:        "Adapt responses dynamically based on context",
	InsightSatisfied:          "Maintain current response quality and style",
	InsightFrequentlyNegative: "Review and improve response accuracy and relevance",
}

// computeInsights derives cross-session patterns from a profile's history.
func computeInsights(p *model.UserProfile, now time.Time) *model.CrossSessionInsights {
	ins := &model.CrossSessionInsights{
		Timing:        timingPatterns(p, now),
		Engagement:    engagementPatterns(p.SessionHistory),
		Communication: communicationPatterns(p),
		Feedback:      feedbackPatterns(p.FeedbackHistory),
		UpdatedAt:     now,
	}
	ins.Insights = describe(ins)
	ins.Recommendations = make([]string, 0, len(ins.Insights))
	for _, s := range ins.Insights {
		ins.Recommendations = append(ins.Recommendations, recommendations[s])
	}
	return ins
}

func durations(sessions []model.SessionEntry) []float64 {
	out := make([]float64, len(sessions))
	for i, s := range sessions {
		out[i] = float64(s.Duration)
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sq float64
	for _, x := range xs {
		sq += (x - m) * (x - m)
	}
	return math.Sqrt(sq / float64(len(xs)))
}

func timeOfDay(ms int64) string {
	h := time.UnixMilli(ms).UTC().Hour()
	switch {
	case h >= 6 && h < 12:
		return "morning"
	case h >= 12 && h < 17:
		return "afternoon"
	case h >= 17 && h < 22:
		return "evening"
	}
	return "night"
}

func timingPatterns(p *model.UserProfile, now time.Time) *model.TimingPatterns {
	if len(p.SessionHistory) == 0 {
		return nil
	}
	ds := durations(p.SessionHistory)
	prefs := map[string]int{}
	for _, s := range p.SessionHistory {
		if s.StartTime > 0 {
			prefs[timeOfDay(s.StartTime)]++
		}
	}
	days := int(now.Sub(p.CreatedAt).Hours() / 24)
	return &model.TimingPatterns{
		AvgSessionDuration:     mean(ds),
		TotalSessions:          len(p.SessionHistory),
		SessionFrequencyPerDay: float64(len(p.SessionHistory)) / float64(max(1, days)),
		TimePreferences:        prefs,
		DurationConsistency:    stddev(ds),
	}
}

func engagementLevel(avg float64) string {
	switch {
	case avg > 300000:
		return "high"
	case avg > 120000:
		return "medium"
	}
	return "low"
}

func completed(endType string) bool {
	return endType == model.EndUserAction || endType == model.EndTaskCompletion
}

func engagementPatterns(sessions []model.SessionEntry) *model.EngagementPatterns {
	if len(sessions) == 0 {
		return nil
	}
	recent := make([]model.SessionEntry, 0, len(sessions))
	for _, s := range sessions {
		if s.StartTime > 0 {
			recent = append(recent, s)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].StartTime > recent[j].StartTime })
	if len(recent) > 5 {
		recent = recent[:5]
	}
	e := &model.EngagementPatterns{
		RecentEngagement: mean(durations(recent)),
		EngagementTrend:  TrendStable,
	}
	if len(sessions) > 1 {
		half := len(sessions) / 2
		if mean(durations(sessions[half:])) > mean(durations(sessions[:half])) {
			e.EngagementTrend = TrendIncreasing
		} else {
			e.EngagementTrend = TrendDecreasing
		}
	}
	e.EngagementLevel = engagementLevel(e.RecentEngagement)
	done := 0
	for _, s := range sessions {
		if completed(s.EndType) {
			done++
		}
	}
	e.SessionCompletionRate = float64(done) / float64(len(sessions))
	return e
}

func expertiseProgression(sessions []model.SessionEntry) string {
	if len(sessions) < 2 {
		return ProgressionInsufficient
	}
	half := len(sessions) / 2
	early, late := mean(durations(sessions[:half])), mean(durations(sessions[half:]))
	switch {
	case late > early*1.2:
		return ProgressionImproving
	case late < early*0.8:
		return ProgressionDeclining
	}
	return ProgressionStable
}

func communicationPatterns(p *model.UserProfile) *model.CommunicationPatterns {
	c := &model.CommunicationPatterns{
		PreferredComplexity:  p.PreferredLanguageComplexity,
		PreferredDetail:      p.PreferredDetailLevel,
		PreferredStyle:       p.PreferredResponseStyle,
		ExpertiseProgression: expertiseProgression(p.SessionHistory),
		AdaptabilityScore:    0.5,
	}
	if p.PreferredLanguageComplexity == model.ComplexityMedium {
		c.Consistency += 0.3
	}
	if p.PreferredDetailLevel == model.DetailMedium {
		c.Consistency += 0.3
	}
	if p.PreferredResponseStyle == model.StyleConversational {
		c.Consistency += 0.4
	}
	if n := len(p.FeedbackHistory); n > 0 {
		c.AdaptabilityScore += float64(countPositive(p.FeedbackHistory)) / float64(n) * 0.3
	}
	if n := len(p.SessionHistory); n > 1 {
		c.AdaptabilityScore += math.Min(0.2, float64(n)*0.02)
	}
	c.AdaptabilityScore = math.Min(1, c.AdaptabilityScore)
	return c
}

func countPositive(fs []model.FeedbackEntry) int {
	n := 0
	for _, f := range fs {
		if f.Type == model.FeedbackPositive {
			n++
		}
	}
	return n
}

func feedbackPatterns(fs []model.FeedbackEntry) *model.FeedbackPatterns {
	if len(fs) == 0 {
		return nil
	}
	var delays []float64
	neg := 0
	for _, f := range fs {
		if f.FeedbackDelayDuration != 0 {
			delays = append(delays, float64(f.FeedbackDelayDuration))
		}
		if f.Type == model.FeedbackNegative {
			neg++
		}
	}
	total := float64(len(fs))
	pos := float64(countPositive(fs)) / total
	negRatio := float64(neg) / total
	out := &model.FeedbackPatterns{
		TotalFeedback:       len(fs),
		PositiveRatio:       pos,
		NegativeRatio:       negRatio,
		AvgFeedbackDelay:    mean(delays),
		FeedbackConsistency: 1 - math.Abs(pos-negRatio),
		ImprovementPattern:  ProgressionInsufficient,
	}
	if len(fs) >= 3 {
		early, late := countPositive(fs[:3]), countPositive(fs[len(fs)-3:])
		switch {
		case late > early:
			out.ImprovementPattern = ProgressionImproving
		case late < early:
			out.ImprovementPattern = ProgressionDeclining
		default:
			out.ImprovementPattern = ProgressionStable
		}
	}
	switch {
	case len(fs) > 5 && out.AvgFeedbackDelay < 10000:
		out.FeedbackEngagement = "high"
	case len(fs) > 2:
		out.FeedbackEngagement = "medium"
	default:
		out.FeedbackEngagement = "low"
	}
	return out
}

func describe(ins *model.CrossSessionInsights) []string {
	out := []string{}
	if t := ins.Timing; t != nil {
		switch {
		case t.SessionFrequencyPerDay > 2:
			out = append(out, InsightHighlyActive)
		case t.SessionFrequencyPerDay < 0.1:
			out = append(out, InsightInfrequent)
		}
	}
	if e := ins.Engagement; e != nil {
		switch e.EngagementTrend {
		case TrendIncreasing:
			out = append(out, InsightEngagementUp)
		case TrendDecreasing:
			out = append(out, InsightEngagementDown)
		}
	}
	if c := ins.Communication; c != nil {
		if c.Consistency > 0.8 {
			out = append(out, InsightConsistentPrefs)
		} else {
			out = append(out, InsightVariedPrefs)
		}
	}
	if f := ins.Feedback; f != nil {
		switch {
		case f.PositiveRatio > 0.7:
			out = append(out, InsightSatisfied)
		case f.NegativeRatio > 0.5:
			out = append(out, InsightFrequentlyNegative)
		}
	}
	return out
}
