package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		interactionsTotal,
		feedbackTotal,
		sessionsTotal,
		profileUpdatesTotal,
		activeSessionsPruned,
		rateLimitTriggeredTotal,
	)
}

var (
	interactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_interactions_total",
			Help: "Prompts answered, labeled by outcome (answered/fallback).",
		},
		[]string{"outcome"},
	)

	feedbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_feedback_total",
			Help: "Feedback received by type.",
		},
		[]string{"type"},
	)

	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_sessions_total",
			Help: "Session reports received by end type.",
		},
		[]string{"end_type"},
	)

	profileUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_updates_total",
			Help: "Profile mutations by kind and status.",
		},
		[]string{"kind", "status"},
	)

	activeSessionsPruned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "active_sessions_pruned_total",
			Help: "Idle live sessions dropped by the pruner.",
		},
	)

	rateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limit_triggered_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)
)

func IncInteraction(success bool) {
	outcome := "answered"
	if !success {
		outcome = "fallback"
	}
	interactionsTotal.WithLabelValues(outcome).Inc()
}

func IncFeedback(kind string) { feedbackTotal.WithLabelValues(norm(kind)).Inc() }

func IncSession(endType string) { sessionsTotal.WithLabelValues(endType).Inc() }

func IncProfileUpdate(kind, status string) {
	profileUpdatesTotal.WithLabelValues(norm(kind), norm(status)).Inc()
}

func AddPruned(n int) { activeSessionsPruned.Add(float64(n)) }

func IncRateLimitTriggered() { rateLimitTriggeredTotal.Inc() }
