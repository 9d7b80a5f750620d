package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// Storefront holds the order workflow collectors. A nil *Storefront is a
// valid no-op recorder.
type Storefront struct {
	transitions   *prometheus.CounterVec
	checkouts     *prometheus.CounterVec
	stockShortage prometheus.Counter
	notifications *prometheus.CounterVec
	outbox        *prometheus.CounterVec
	outboxLatency prometheus.Histogram
}

// NewStorefront registers the collectors on reg.
func NewStorefront(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return nil
	}
	m := &Storefront{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Order lifecycle transitions by event and result.",
		}, []string{"event", "result"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout attempts by result.",
		}, []string{"result"}),
		stockShortage: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approval_stock_shortages_total",
			Help:      "Approvals refused for insufficient stock.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_dispatch_total",
			Help:      "Notification dispatch outcomes.",
		}, []string{"result"}),
		outbox: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_publish_total",
			Help:      "Outbox publish outcomes by event type.",
		}, []string{"event_type", "result"}),
		outboxLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_publish_lag_seconds",
			Help:      "Delay between an outbox row being written and published.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.transitions, m.checkouts, m.stockShortage, m.notifications, m.outbox, m.outboxLatency)
	return m
}

func (m *Storefront) Transition(event string, err error) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(label(event), result(err)).Inc()
}

func (m *Storefront) Checkout(err error) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(result(err)).Inc()
}

func (m *Storefront) StockShortage() {
	if m == nil {
		return
	}
	m.stockShortage.Inc()
}

// Notification records queued, dropped, delivered or failed.
func (m *Storefront) Notification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(label(outcome)).Inc()
}

func (m *Storefront) OutboxPublished(eventType string, createdAt time.Time, err error) {
	if m == nil {
		return
	}
	m.outbox.WithLabelValues(label(eventType), result(err)).Inc()
	if err == nil && !createdAt.IsZero() {
		m.outboxLatency.Observe(time.Since(createdAt).Seconds())
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func label(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
