package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	paymentCallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callbacks_total",
			Help: "Payment callback deliveries by outcome",
		},
		[]string{"outcome"},
	)

	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets issued by kind",
		},
		[]string{"kind"},
	)

	gatewayCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_call_duration_seconds",
			Help:    "Duration of outbound payment gateway calls",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 8),
		},
		[]string{"operation"},
	)

	pendingSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "payment_sessions_pending",
			Help: "Currently pending payment sessions",
		},
	)

	publishedEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "events_published_total",
			Help: "Events currently accepting tickets",
		},
	)
)

// TrackCallback counts one callback delivery. Outcomes: success,
// duplicate, cancelled, verification_failed, unresolvable, error.
func TrackCallback(outcome string) {
	paymentCallbacks.WithLabelValues(outcome).Inc()
}

// TrackTicketIssued counts one issued ticket. Kinds: rsvp, paid.
func TrackTicketIssued(kind string) {
	ticketsIssued.WithLabelValues(kind).Inc()
}

// TrackGatewayCall records the duration of one outbound gateway call.
func TrackGatewayCall(operation string, d time.Duration) {
	gatewayCallDuration.WithLabelValues(operation).Observe(d.Seconds())
}

type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	monitor := &Monitor{redis: redisClient}

	// Start metrics collection
	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx := context.Background()
		m.collectSessionMetrics(ctx)
		m.collectEventMetrics(ctx)
	}
}

func (m *Monitor) collectSessionMetrics(ctx context.Context) {
	keys, err := m.redis.Keys(ctx, "payment:*").Result()
	if err != nil {
		return
	}

	pending := 0
	for _, key := range keys {
		state, _ := m.redis.HGet(ctx, key, "status").Result()
		if state == "pending" {
			pending++
		}
	}
	pendingSessions.Set(float64(pending))
}

func (m *Monitor) collectEventMetrics(ctx context.Context) {
	count, err := m.redis.SCard(ctx, "events:published").Result()
	if err != nil {
		return
	}
	publishedEvents.Set(float64(count))
}
