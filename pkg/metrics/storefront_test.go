package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStorefrontCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStorefront(reg)

	m.Transition("approve", nil)
	m.Transition("approve", errors.New("short"))
	m.Transition("approve", nil)
	m.Checkout(nil)
	m.StockShortage()
	m.Notification("dropped")
	m.OutboxPublished("order_created", time.Now().Add(-time.Second), nil)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	counts := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range metric.GetLabel() {
				key += "|" + lp.GetValue()
			}
			if c := metric.GetCounter(); c != nil {
				counts[key] = c.GetValue()
			}
			if h := metric.GetHistogram(); h != nil {
				counts[key] = float64(h.GetSampleCount())
			}
		}
	}

	expect := map[string]float64{
		"storefront_order_transitions_total|approve|ok":    2,
		"storefront_order_transitions_total|approve|error": 1,
		"storefront_checkouts_total|ok":                    1,
		"storefront_approval_stock_shortages_total":        1,
		"storefront_notification_dispatch_total|dropped":   1,
		"storefront_outbox_publish_total|order_created|ok": 1,
		"storefront_outbox_publish_lag_seconds":            1,
	}
	for key, want := range expect {
		if got := counts[key]; got != want {
			t.Fatalf("%s: expected %v got %v", key, want, got)
		}
	}
}

func TestNilStorefrontIsNoop(t *testing.T) {
	var m *Storefront
	m.Transition("reject", nil)
	m.Checkout(errors.New("x"))
	m.StockShortage()
	m.Notification("queued")
	m.OutboxPublished("x", time.Now(), nil)
	if NewStorefront(nil) != nil {
		t.Fatal("nil registerer should produce a nil recorder")
	}
}

func TestBlankEventLabelsAsUnknown(t *testing.T) {
	m := NewStorefront(prometheus.NewRegistry())
	m.Transition("", nil)

	var out dto.Metric
	if err := m.transitions.WithLabelValues("unknown", "ok").Write(&out); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if got := out.GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected 1 unknown transition, got %v", got)
	}
}
