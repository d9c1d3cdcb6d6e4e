package tracker

import "time"

const DefaultIdleThreshold = 5000 * time.Millisecond

// EngagementTracker splits a session into idle and engaged time. Its summary
// goes to the session, not to its own series.
type EngagementTracker struct {
	*MetricTracker
	now        Clock
	threshold  time.Duration
	last       time.Time
	idle       time.Duration
	engagement time.Duration
}

func NewEngagementTracker(now Clock, idleThreshold time.Duration, opts ...Option) *EngagementTracker {
	if now == nil {
		now = time.Now
	}
	if idleThreshold <= 0 {
		idleThreshold = DefaultIdleThreshold
	}
	return &EngagementTracker{
		MetricTracker: NewMetricTracker(NameEngagement, opts...),
		now:           now,
		threshold:     idleThreshold,
		last:          now(),
	}
}

// OnUserMessage adds the gap since the last message to idle time when it
// exceeds the threshold. Typing time always counts as engagement.
func (t *EngagementTracker) OnUserMessage(typing time.Duration) {
	now := t.now()
	if gap := now.Sub(t.last); gap > t.threshold {
		t.idle += gap
	}
	t.last = now
	if typing > 0 {
		t.engagement += typing
	}
}

func (t *EngagementTracker) OnBotMessage(response time.Duration) {
	t.last = t.now()
	if response > 0 {
		t.engagement += response
	}
}

func (t *EngagementTracker) IdleTime() time.Duration { return t.idle }

// Summarize reports milliseconds; active time never goes below zero.
func (t *EngagementTracker) Summarize(sessionDuration time.Duration) Record {
	active := sessionDuration - t.idle
	if active < 0 {
		active = 0
	}
	return Record{
		"idle_time":       t.idle.Milliseconds(),
		"active_time":     active.Milliseconds(),
		"engagement_time": t.engagement.Milliseconds(),
	}
}

func (t *EngagementTracker) Reset() {
	t.MetricTracker.Reset()
	t.idle, t.engagement = 0, 0
	t.last = t.now()
}
