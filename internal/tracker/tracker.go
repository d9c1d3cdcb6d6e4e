// Package tracker accumulates per-message telemetry during one chat session.
package tracker

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"humaine-chatbot/internal/domain/model"
)

// Record maps a metric key to a number or a string.
type Record map[string]any

// Clone returns a shallow copy; values are scalars.
func (r Record) Clone() Record {
	cp := make(Record, len(r))
	for k, v := range r {
		cp[k] = v
	}
	return cp
}

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

// Tracker names double as keys of the session report.
const (
	NameSentiment          = "sentiment"
	NameGrammar            = "grammar"
	NameLanguageComplexity = "language_complexity"
	NameTypingSpeed        = "typing_speed"
	NameResponseTime       = "response_time"
	NameEngagement         = "engagement"
	NameFeedback           = "feedback"
)

// MetricTracker keeps records in arrival order until Reset.
type MetricTracker struct {
	name   string
	values []Record
	log    *zerolog.Logger
}

type Option func(*MetricTracker)

// WithLogger emits one debug line per AddValue. Without it nothing is logged.
func WithLogger(l *zerolog.Logger) Option {
	return func(m *MetricTracker) { m.log = l }
}

func NewMetricTracker(name string, opts ...Option) *MetricTracker {
	m := &MetricTracker{name: name}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *MetricTracker) Name() string { return m.name }
func (m *MetricTracker) Len() int     { return len(m.values) }

func (m *MetricTracker) AddValue(r Record) {
	m.values = append(m.values, r.Clone())
	if m.log != nil {
		m.log.Debug().Str("tracker", m.name).Fields(map[string]any(r)).Msg("metric_value")
	}
}

// Average returns, per key, the mean over the records that carry a numeric
// value for that key. Keys that only ever hold strings are left out.
func (m *MetricTracker) Average() Record {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, r := range m.values {
		for k, v := range r {
			if f, ok := model.Number(v); ok {
				sums[k] += f
				counts[k]++
			}
		}
	}
	out := make(Record, len(sums))
	for k, s := range sums {
		out[k] = s / float64(counts[k])
	}
	return out
}

// LastValue returns a copy of the newest record, or an empty record.
func (m *MetricTracker) LastValue() Record {
	if len(m.values) == 0 {
		return Record{}
	}
	return m.values[len(m.values)-1].Clone()
}

func (m *MetricTracker) Values() []Record {
	out := make([]Record, len(m.values))
	for i, r := range m.values {
		out[i] = r.Clone()
	}
	return out
}

func (m *MetricTracker) Reset() { m.values = nil }

// Keys lists the keys seen across all records, sorted.
func (m *MetricTracker) Keys() []string {
	seen := map[string]struct{}{}
	for _, r := range m.values {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *MetricTracker) warn(msg string, fields map[string]any) {
	if m.log != nil {
		m.log.Warn().Str("tracker", m.name).Fields(fields).Msg(msg)
	}
}

func seconds(d time.Duration) float64 { return d.Seconds() }
