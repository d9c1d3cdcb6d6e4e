package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(botUpdatesTotal, botConversations) }

var botUpdatesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "telegram_updates_total",
		Help: "Telegram updates handled, labeled by kind (message/command/callback) and outcome.",
	},
	[]string{"kind", "outcome"},
)

var botConversations = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "telegram_conversations",
	Help: "Telegram chats currently holding a dialogue manager.",
})

func IncBotUpdate(kind string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	botUpdatesTotal.WithLabelValues(norm(kind), outcome).Inc()
}

func SetConversations(n int) { botConversations.Set(float64(n)) }
