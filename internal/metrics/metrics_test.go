package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry
	r.Order("processed", time.Now())
	r.PaymentAttempt(1, true)
	r.Degraded("Order", errors.New("x"))
	r.Projected()
}

func TestHandlerExposesRecordedSeries(t *testing.T) {
	r := NewRegistry()
	r.Order("processed", time.Now())
	r.PaymentAttempt(2, false)
	r.Degraded("Product", errors.New("boom"))
	r.Projected()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`fulfillment_orders_total{outcome="processed"} 1`,
		`fulfillment_payment_attempts_total{attempt="2",result="failure"} 1`,
		`query_list_degraded_total{entity="Product"} 1`,
		`projector_events_applied_total 1`,
		`fulfillment_duration_seconds_count 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("missing %q in\n%s", want, body)
		}
	}
}
