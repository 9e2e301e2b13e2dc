package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clawpanel",
			Subsystem: "service",
			Name:      "operations_total",
			Help:      "Lifecycle operations by name and outcome.",
		}, []string{"operation", "outcome"},
	)
	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clawpanel",
			Subsystem: "service",
			Name:      "operation_duration_seconds",
			Help:      "Wall-clock duration of lifecycle operations including settle and poll waits.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 15, 20, 30},
		}, []string{"operation"},
	)
	serviceUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "clawpanel",
			Subsystem: "service",
			Name:      "up",
			Help:      "1 when a listener held the service port at the last probe.",
		}, []string{"port"},
	)
	killAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clawpanel",
			Subsystem: "service",
			Name:      "kill_attempts_total",
			Help:      "Forced kill attempts issued by kill-all, by outcome.",
		}, []string{"outcome"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{operations, operationDuration, serviceUp, killAttempts}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// already registered with the default registry: keep the existing one
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func ObserveOperation(operation, outcome string, d time.Duration) {
	if regOK.Load() {
		operations.WithLabelValues(operation, outcome).Inc()
		operationDuration.WithLabelValues(operation).Observe(d.Seconds())
	}
}

func SetServiceUp(port int, up bool) {
	if regOK.Load() {
		v := 0.0
		if up {
			v = 1
		}
		serviceUp.WithLabelValues(strconv.Itoa(port)).Set(v)
	}
}

func IncKillAttempt(outcome string) {
	if regOK.Load() {
		killAttempts.WithLabelValues(outcome).Inc()
	}
}
