package usecase

import (
	"time"
	"unicode/utf8"

	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/textanalysis"
)

// maxHistory bounds the session and feedback history kept per profile.
const maxHistory = 200

// merge folds a new sample into a running value: the first sample is taken
// as-is, later ones are averaged with the current value.
func merge(old, sample float64, first bool) float64 {
	if first {
		return sample
	}
	return (old + sample) / 2
}

func complexityFromReadability(ease float64) model.LanguageComplexity {
	switch {
	case ease >= 80:
		return model.ComplexitySimple
	case ease < 50:
		return model.ComplexityComplex
	}
	return model.ComplexityMedium
}

func styleFromTone(t textanalysis.Tone) model.ResponseStyle {
	switch {
	case t.Label == textanalysis.LabelPositive && t.Enthusiasm == textanalysis.LevelHigh:
		return model.StyleEnthusiastic
	case t.Label == textanalysis.LabelNegative:
		return model.StyleProfessional
	}
	return model.StyleConversational
}

// applyPrompt updates preferences and running averages from one user prompt.
func applyPrompt(p *model.UserProfile, a textanalysis.Analysis, req model.InteractionRequest, now time.Time) {
	first := p.TotalInteractions == 0

	p.PreferredLanguageComplexity = complexityFromReadability(a.FleschReadingEase)
	switch {
	case a.VocabularyDiversity > 0.8:
		p.PreferredDetailLevel = model.DetailDetailed
	case a.VocabularyDiversity < 0.4:
		p.PreferredDetailLevel = model.DetailConcise
	}
	p.PreferredResponseStyle = styleFromTone(a.Tone)

	length := utf8.RuneCountInString(req.InputText)
	if d := req.TypingDuration(); d > 0 && length > 0 {
		speed := float64(length) / (float64(d) / 1000)
		p.AverageTypingSpeed = (p.AverageTypingSpeed + speed) / 2
	}
	switch {
	case length > 100:
		p.PreferredDetailLevel = model.DetailDetailed
	case length < 20:
		p.PreferredDetailLevel = model.DetailConcise
	}

	p.AverageSentimentScore = merge(p.AverageSentimentScore, a.Sentiment.Comparative, first)
	_, _, score := textanalysis.Complexity(req.InputText, 0.5, 0.5)
	p.AverageLanguageComplexity = merge(p.AverageLanguageComplexity, score, first)
	if a.Grammar.Words > 0 {
		p.AverageGrammaticalAccuracy = merge(p.AverageGrammaticalAccuracy, a.Grammar.Accuracy, first)
	}
	if rt, ok := responseTime(req); ok {
		p.AverageResponseTime = merge(p.AverageResponseTime, rt, p.AverageResponseTime == 0)
	}

	p.TotalInteractions++
	p.UpdatedAt = now
}

// responseTime reads the client's response_time sample (seconds) if present.
func responseTime(req model.InteractionRequest) (float64, bool) {
	rec, ok := req.Metrics["response_time"]
	if !ok {
		return 0, false
	}
	v, ok := model.Number(rec["response_time"])
	return v, ok && v > 0
}

func applyFeedback(p *model.UserProfile, req model.FeedbackRequest, now time.Time) {
	p.FeedbackHistory = appendBounded(p.FeedbackHistory, model.FeedbackEntry{
		Type:                  req.FeedbackType,
		Timestamp:             now,
		ResponseText:          req.ResponseText,
		ResponseDuration:      req.ResponseDuration,
		FeedbackDelayDuration: req.FeedbackDelayDuration,
	})
	switch req.FeedbackType {
	case model.FeedbackPositive:
		p.PreferredDetailLevel = p.PreferredDetailLevel.Up()
		p.PositiveFeedbackRatio = min(1, p.PositiveFeedbackRatio+0.1)
	case model.FeedbackNegative:
		p.PreferredDetailLevel = p.PreferredDetailLevel.Down()
		p.PositiveFeedbackRatio = max(0, p.PositiveFeedbackRatio-0.1)
	}
	p.FeedbackRatio = min(1, p.FeedbackRatio+0.1)
	p.UpdatedAt = now
}

func applySession(p *model.UserProfile, r model.SessionReport, now time.Time) {
	engagement, _ := r.MetricValue("engagement", "engagement_time")
	p.SessionHistory = appendBounded(p.SessionHistory, model.SessionEntry{
		SessionID:      r.SessionID,
		StartTime:      r.SessionStart,
		EndTime:        r.SessionEnd,
		Duration:       r.SessionDuration,
		EndType:        r.SessionEndType,
		EngagementTime: engagement,
		RecordedAt:     now,
	})
	p.TotalSessions++
	if r.SessionDuration > 0 {
		p.AverageSessionDuration = merge(p.AverageSessionDuration, float64(r.SessionDuration), p.AverageSessionDuration == 0)
	}
	if engagement > 0 {
		p.AverageEngagementTime = merge(p.AverageEngagementTime, engagement, p.AverageEngagementTime == 0)
	}
	p.UpdatedAt = now
}

func appendBounded[T any](xs []T, x T) []T {
	xs = append(xs, x)
	if len(xs) > maxHistory {
		xs = append(xs[:0:0], xs[len(xs)-maxHistory:]...)
	}
	return xs
}
