package tracker

import "humaine-chatbot/internal/domain/model"

// FeedbackTracker follows how feedback evolves across bot messages. Only one
// outstanding negative anchor is kept; a second negative overwrites the first.
type FeedbackTracker struct {
	*MetricTracker
	botMessages int
	positive    int
	negative    int
	recovered   int
	lastNeg     string
	followup    string
}

func NewFeedbackTracker(opts ...Option) *FeedbackTracker {
	return &FeedbackTracker{MetricTracker: NewMetricTracker(NameFeedback, opts...)}
}

// NewBotMessage counts a bot message and, after a negative feedback, marks it
// as the follow-up.
func (t *FeedbackTracker) NewBotMessage(id string) {
	t.botMessages++
	if t.lastNeg != "" {
		t.followup = id
		t.lastNeg = ""
	}
}

func (t *FeedbackTracker) NewFeedback(messageID string, ft model.FeedbackType) {
	switch ft {
	case model.FeedbackPositive:
		t.positive++
		if t.followup != "" && t.followup == messageID {
			t.recovered++
			t.followup = ""
		}
	case model.FeedbackNegative:
		t.negative++
		t.lastNeg = messageID
	}
}

func (t *FeedbackTracker) PositiveAfterNegative() int { return t.recovered }

// Summarize reports counts and ratios. Ratios are 0 when their denominator is 0.
func (t *FeedbackTracker) Summarize() Record {
	return Record{
		"total_bot_messages":                     t.botMessages,
		"positive_feedback_count":                t.positive,
		"negative_feedback_count":                t.negative,
		"positive_feedback_after_negative_count": t.recovered,
		"feedback_ratio":                         ratio(t.positive+t.negative, t.botMessages),
		"positive_feedback_ratio":                ratio(t.positive, t.botMessages),
		"negative_feedback_ratio":                ratio(t.negative, t.botMessages),
		"feedback_incorporation_rate":            ratio(t.recovered, t.negative),
	}
}

func (t *FeedbackTracker) Reset() {
	t.MetricTracker.Reset()
	*t = FeedbackTracker{MetricTracker: t.MetricTracker}
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
