package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Notification pipeline metrics
	NotificationsCreated prometheus.Counter
	NotificationsEvicted prometheus.Counter
	TemplateFailures     prometheus.Counter

	// Delivery metrics
	Deliveries       *prometheus.CounterVec
	DeliveryLatency  *prometheus.HistogramVec
	DeliveryDropped  prometheus.Counter
	DeliveryQueueLag prometheus.Gauge

	// Realtime metrics
	HubConnections prometheus.Gauge
	FramesSent     prometheus.Counter
	FramesDropped  prometheus.Counter
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		NotificationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Total number of notifications created",
		}),
		NotificationsEvicted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_evicted_total",
			Help:      "Total number of notifications dropped by per-user capacity eviction",
		}),
		TemplateFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_render_failures_total",
			Help:      "Total number of template lookup or render failures",
		}),
		Deliveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Total number of channel delivery attempts",
		}, []string{"channel", "status"}),
		DeliveryLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_duration_seconds",
			Help:      "Duration of channel delivery attempts",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"channel"}),
		DeliveryDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_jobs_dropped_total",
			Help:      "Total number of delivery jobs dropped because a shard queue was full",
		}),
		DeliveryQueueLag: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "delivery_queue_depth",
			Help:      "Current number of delivery jobs waiting in shard queues",
		}),
		HubConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_connections",
			Help:      "Current number of open realtime connections",
		}),
		FramesSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_frames_sent_total",
			Help:      "Total number of frames pushed to realtime connections",
		}),
		FramesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_frames_dropped_total",
			Help:      "Total number of frames dropped because a connection could not keep up",
		}),
	}
}

// NewTestMetrics builds an unregistered Metrics for use in tests, where
// promauto's default-registry registration would collide across cases.
func NewTestMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		NotificationsCreated: factory.NewCounter(prometheus.CounterOpts{Name: "notifications_created_total"}),
		NotificationsEvicted: factory.NewCounter(prometheus.CounterOpts{Name: "notifications_evicted_total"}),
		TemplateFailures:     factory.NewCounter(prometheus.CounterOpts{Name: "template_render_failures_total"}),
		Deliveries:           factory.NewCounterVec(prometheus.CounterOpts{Name: "deliveries_total"}, []string{"channel", "status"}),
		DeliveryLatency:      factory.NewHistogramVec(prometheus.HistogramOpts{Name: "delivery_duration_seconds"}, []string{"channel"}),
		DeliveryDropped:      factory.NewCounter(prometheus.CounterOpts{Name: "delivery_jobs_dropped_total"}),
		DeliveryQueueLag:     factory.NewGauge(prometheus.GaugeOpts{Name: "delivery_queue_depth"}),
		HubConnections:       factory.NewGauge(prometheus.GaugeOpts{Name: "realtime_connections"}),
		FramesSent:           factory.NewCounter(prometheus.CounterOpts{Name: "realtime_frames_sent_total"}),
		FramesDropped:        factory.NewCounter(prometheus.CounterOpts{Name: "realtime_frames_dropped_total"}),
	}
}
