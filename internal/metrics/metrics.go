// Package metrics registers and updates the prometheus collectors the poll
// loop drives. Small recorder helpers hide the label plumbing from callers.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	messagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fastpubsub_messages_total",
		Help: "Messages processed, by subscriber and outcome (ack, nack, published, publish_failed).",
	}, []string{"subscriber", "outcome"})

	pullDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fastpubsub_pull_duration_seconds",
		Help:    "Duration of one bus Pull call.",
		Buckets: prometheus.DefBuckets,
	}, []string{"subscriber"})

	pollReady = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fastpubsub_poll_ready",
		Help: "1 when a poll task is ready (has pulled successfully since its last error), else 0.",
	}, []string{"subscriber"})
)

func init() {
	prometheus.MustRegister(messagesTotal, pullDuration, pollReady)
}

// RecordMessage increments the outcome counter for subscriber. The poll
// task records ack or nack; the Metrics middleware also records published
// or publish_failed on the publish side.
func RecordMessage(subscriber, outcome string) {
	messagesTotal.WithLabelValues(subscriber, outcome).Inc()
}

// ObservePullDuration records how long one Pull call took for subscriber.
func ObservePullDuration(subscriber string, seconds float64) {
	pullDuration.WithLabelValues(subscriber).Observe(seconds)
}

// SetReady reflects a poll task's current readiness into the gauge.
func SetReady(subscriber string, ready bool) {
	v := 0.0
	if ready {
		v = 1.0
	}
	pollReady.WithLabelValues(subscriber).Set(v)
}

// Handler exposes the registry over HTTP, left for the application shell
// to mount; core never serves it directly.
func Handler() http.Handler {
	return promhttp.Handler()
}
