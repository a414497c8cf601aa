package fields

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var timerMetricsOnce sync.Once

var (
	timerActionsTotal    *prometheus.CounterVec
	timerFiringsTotal    *prometheus.CounterVec
	webhookRequestsTotal *prometheus.CounterVec
	webhookDuration      *prometheus.HistogramVec
)

func registerCountVec(c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		log.Printf("prometheus counter register failed: %v", err)
	}
	return c
}

func registerHistogramVec(c *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := prometheus.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}
		log.Printf("prometheus histogram register failed: %v", err)
	}
	return c
}

func initTimerMetrics() {
	timerMetricsOnce.Do(func() {
		timerActionsTotal = registerCountVec(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timerd",
			Subsystem: "scheduler",
			Name:      "timer_actions_total",
			Help:      "Total number of timer lifecycle actions.",
		}, []string{"action"}))

		timerFiringsTotal = registerCountVec(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timerd",
			Subsystem: "scheduler",
			Name:      "firings_total",
			Help:      "Total number of timer completions.",
		}, []string{"result"}))

		webhookRequestsTotal = registerCountVec(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timerd",
			Subsystem: "webhook",
			Name:      "requests_total",
			Help:      "Total number of webhook delivery attempts.",
		}, []string{"status", "result"}))

		webhookDuration = registerHistogramVec(prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "timerd",
			Subsystem: "webhook",
			Name:      "request_duration_seconds",
			Help:      "Duration of webhook deliveries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}))
	})
}

// RecordTimerAction counts a create/start/stop/reset/delete against the
// scheduler metrics.
func RecordTimerAction(action string) {
	initTimerMetrics()
	timerActionsTotal.WithLabelValues(action).Inc()
}

// RecordFiring counts a timer completion; expired distinguishes natural
// expiry from an early stop.
func RecordFiring(expired bool) {
	initTimerMetrics()
	result := "stopped"
	if expired {
		result = "expired"
	}
	timerFiringsTotal.WithLabelValues(result).Inc()
}

// RecordWebhook tracks a delivery attempt.
func RecordWebhook(statusCode int, err error, duration time.Duration) {
	initTimerMetrics()
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	webhookRequestsTotal.WithLabelValues(status, result).Inc()
	webhookDuration.WithLabelValues(result).Observe(duration.Seconds())
}
