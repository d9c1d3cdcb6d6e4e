package tracker

import (
	"time"
	"unicode/utf8"
)

type TypingSpeedTracker struct {
	*MetricTracker
}

func NewTypingSpeedTracker(opts ...Option) *TypingSpeedTracker {
	return &TypingSpeedTracker{NewMetricTracker(NameTypingSpeed, opts...)}
}

// Track emits characters per second for one input. Non-positive durations are
// skipped with a warning.
func (t *TypingSpeedTracker) Track(start, end time.Time, text string) (Record, bool) {
	d := seconds(end.Sub(start))
	if d <= 0 {
		t.warn("non-positive typing duration", map[string]any{"duration": d})
		return nil, false
	}
	n := utf8.RuneCountInString(text)
	r := Record{
		"duration":       d,
		"message_length": n,
		"typing_speed":   float64(n) / d,
	}
	t.AddValue(r)
	return r, true
}

// ResponseTimeTracker measures how long the user takes to answer the bot. A
// measurement needs a bot mark first and consumes it.
type ResponseTimeTracker struct {
	*MetricTracker
	now        Clock
	botArrival time.Time
	marked     bool
}

func NewResponseTimeTracker(now Clock, opts ...Option) *ResponseTimeTracker {
	if now == nil {
		now = time.Now
	}
	return &ResponseTimeTracker{MetricTracker: NewMetricTracker(NameResponseTime, opts...), now: now}
}

func (t *ResponseTimeTracker) MarkBotResponse() {
	t.botArrival = t.now()
	t.marked = true
}

// MarkUserResponse is a no-op without a prior MarkBotResponse.
func (t *ResponseTimeTracker) MarkUserResponse(inputStart time.Time) (Record, bool) {
	if !t.marked {
		return nil, false
	}
	t.marked = false
	r := Record{
		"typing_start_time": inputStart.Sub(t.botArrival).Milliseconds(),
		"response_time":     seconds(t.now().Sub(t.botArrival)),
	}
	t.AddValue(r)
	return r, true
}

func (t *ResponseTimeTracker) Reset() {
	t.MetricTracker.Reset()
	t.marked = false
	t.botArrival = time.Time{}
}
