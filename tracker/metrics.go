package tracker

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce     sync.Once
	trackedCounter  *prometheus.CounterVec
	rejectedCounter *prometheus.CounterVec
)

func registerMetrics() {
	metricsOnce.Do(func() {
		trackedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pixeltrack",
			Name:      "events_tracked_total",
			Help:      "Events accepted and delivered to every sink, by event name.",
		}, []string{"event", "custom"})
		rejectedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pixeltrack",
			Name:      "events_rejected_total",
			Help:      "Events refused by the tracker, by reason.",
		}, []string{"reason"})
		prometheus.MustRegister(trackedCounter, rejectedCounter)
	})
}

func eventsTracked() *prometheus.CounterVec {
	registerMetrics()
	return trackedCounter
}

func eventsRejected() *prometheus.CounterVec {
	registerMetrics()
	return rejectedCounter
}
