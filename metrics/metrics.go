package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

/*
Metrics exposed on /metrics:

  - webhook_requests_total{result}: every webhook request by response class
    (ok, unauthorized, bad_request, error).
  - role_actions_total{action,outcome}: grant/revoke attempts by outcome
    (success, not_found, failed).
  - notices_failed_total{action}: DMs that could not be delivered.
  - sweep_duration_seconds / sweep_skipped_total: sweeper passes, and ticks
    skipped because a pass was still running.

Each Metrics owns its registry so tests can build as many as they like.
*/
type Metrics struct {
	registry        *prometheus.Registry
	WebhookRequests *prometheus.CounterVec
	RoleActions     *prometheus.CounterVec
	NoticesFailed   *prometheus.CounterVec
	SweepDuration   prometheus.Histogram
	SweepsSkipped   prometheus.Counter
	ExpiredVotes    prometheus.Counter
}

func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		WebhookRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_requests_total",
				Help:      "Webhook requests by result",
			},
			[]string{"result"},
		),
		RoleActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "role_actions_total",
				Help:      "Grant and revoke attempts by outcome",
			},
			[]string{"action", "outcome"},
		),
		NoticesFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notices_failed_total",
				Help:      "Direct message notices that could not be delivered",
			},
			[]string{"action"},
		),
		SweepDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sweep_duration_seconds",
				Help:      "Duration of expiry sweep passes",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8), // 10ms to ~160s
			},
		),
		SweepsSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweep_skipped_total",
				Help:      "Sweeper ticks skipped because a pass was still running",
			},
		),
		ExpiredVotes: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "expired_votes_total",
				Help:      "Vote records removed by the sweeper",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAction records a grant or revoke attempt.
func (m *Metrics) ObserveAction(action, outcome string, noticeFailed bool) {
	m.RoleActions.WithLabelValues(action, outcome).Inc()
	if noticeFailed {
		m.NoticesFailed.WithLabelValues(action).Inc()
	}
}
