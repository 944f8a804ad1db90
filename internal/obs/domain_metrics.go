package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PaymentRequestTotal counts outbound payment request builds by result.
	PaymentRequestTotal *prometheus.CounterVec
	// CallbackTotal counts inbound notification processing outcomes per channel.
	CallbackTotal *prometheus.CounterVec
	// SignatureFailuresTotal counts rejected callback signatures.
	SignatureFailuresTotal prometheus.Counter
	// OrderCompletionsTotal counts completion side effects applied to orders.
	OrderCompletionsTotal prometheus.Counter
	// PaymentRequestLatency records outbound API call latency in milliseconds.
	PaymentRequestLatency *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers gateway-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PaymentRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_request_total",
			Help:      "Count of outbound payment request builds by result.",
		}, []string{"result"})
		CallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callback_total",
			Help:      "Count of processed payment callbacks by channel and result.",
		}, []string{"channel", "result"})
		SignatureFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signature_failures_total",
			Help:      "Number of callbacks rejected due to signature verification failure.",
		})
		OrderCompletionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_completions_total",
			Help:      "Number of payment-completion side effects applied to orders.",
		})
		PaymentRequestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_request_duration_ms",
			Help:      "Latency of outbound payment API calls in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"result"})

		mustRegisterCollector(reg, PaymentRequestTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PaymentRequestTotal = v
			}
		})
		mustRegisterCollector(reg, CallbackTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CallbackTotal = v
			}
		})
		mustRegisterCollector(reg, SignatureFailuresTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				SignatureFailuresTotal = v
			}
		})
		mustRegisterCollector(reg, OrderCompletionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OrderCompletionsTotal = v
			}
		})
		mustRegisterCollector(reg, PaymentRequestLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				PaymentRequestLatency = v
			}
		})
	})
}
