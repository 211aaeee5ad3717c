package notifier

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notificationSends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Total number of per-token FCM sends by result (sent, failed)",
	}, []string{"result"})

	notificationSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_skipped_total",
		Help: "Total number of notifications suppressed before dispatch by reason (duplicate, in_flight, no_tokens)",
	}, []string{"reason"})

	dispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notification_dispatch_duration_seconds",
		Help:    "Time taken to fan one notification out to all tokens",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
)

// RecordNotificationSend counts one per-token send attempt.
func RecordNotificationSend(result string) {
	notificationSends.WithLabelValues(result).Inc()
}

// RecordNotificationSkip counts a notification suppressed before any send.
func RecordNotificationSkip(reason string) {
	notificationSkips.WithLabelValues(reason).Inc()
}

// RecordDispatchDuration records how long one fan-out took.
func RecordDispatchDuration(duration time.Duration) {
	dispatchDuration.Observe(duration.Seconds())
}
