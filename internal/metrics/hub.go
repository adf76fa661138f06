package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HubMetrics Prometheus-метрики хаба синхронизации.
// Методы безопасны для nil-получателя: хаб в тестах работает без метрик.
type HubMetrics struct {
	tickDuration prometheus.Histogram
	players      prometheus.Gauge
	bodies       prometheus.Gauge
	inbound      *prometheus.CounterVec
	outbound     *prometheus.CounterVec
	malformed    prometheus.Counter
	rateLimited  prometheus.Counter
	dropped      prometheus.Counter
}

// NewHubMetrics создаёт и регистрирует метрики хаба в reg.
func NewHubMetrics(reg prometheus.Registerer) *HubMetrics {
	m := &HubMetrics{
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "arena",
			Subsystem: "hub",
			Name:      "tick_duration_seconds",
			Help:      "Длительность одного тика хаба (дрейф + рассылка).",
			Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025},
		}),
		players: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arena",
			Name:      "players_connected",
			Help:      "Подключённые игроки.",
		}),
		bodies: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arena",
			Name:      "shared_bodies",
			Help:      "Тела в разделяемом состоянии (игроки + общие объекты).",
		}),
		inbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arena",
			Name:      "messages_inbound_total",
			Help:      "Входящие сообщения по типу.",
		}, []string{"type"}),
		outbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arena",
			Name:      "messages_outbound_total",
			Help:      "Исходящие сообщения по типу.",
		}, []string{"type"}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arena",
			Name:      "messages_malformed_total",
			Help:      "Отброшенные некорректные сообщения.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arena",
			Name:      "messages_rate_limited_total",
			Help:      "Сообщения, отброшенные ограничителем частоты.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arena",
			Name:      "messages_send_dropped_total",
			Help:      "Исходящие сообщения, не поместившиеся в очередь соединения.",
		}),
	}
	reg.MustRegister(m.tickDuration, m.players, m.bodies, m.inbound, m.outbound,
		m.malformed, m.rateLimited, m.dropped)
	return m
}

// ObserveTick записывает длительность тика, начавшегося в start.
func (m *HubMetrics) ObserveTick(start time.Time) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(time.Since(start).Seconds())
}

// SetPopulation обновляет счётчики игроков и тел.
func (m *HubMetrics) SetPopulation(players, objects int) {
	if m == nil {
		return
	}
	m.players.Set(float64(players))
	m.bodies.Set(float64(players + objects))
}

func (m *HubMetrics) Inbound(msgType string) {
	if m != nil {
		m.inbound.WithLabelValues(msgType).Inc()
	}
}

func (m *HubMetrics) Outbound(msgType string, n int) {
	if m != nil && n > 0 {
		m.outbound.WithLabelValues(msgType).Add(float64(n))
	}
}

func (m *HubMetrics) Malformed() {
	if m != nil {
		m.malformed.Inc()
	}
}

func (m *HubMetrics) RateLimited() {
	if m != nil {
		m.rateLimited.Inc()
	}
}

func (m *HubMetrics) SendDropped() {
	if m != nil {
		m.dropped.Inc()
	}
}
