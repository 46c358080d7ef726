// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package rframe

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ardenne/forgeplus/rerr"
)

// classify buckets err under the rerr sentinel it wraps, for
// the errors_total{kind} label. Falls back to "other" for
// errors RunFrame didn't originate (e.g. a mesh-pass failure).
func classify(err error) string {
	switch {
	case rerr.Is(err, rerr.ErrDeviceLost):
		return "device_lost"
	case rerr.Is(err, rerr.ErrSurfaceLost):
		return "surface_lost"
	case rerr.Is(err, rerr.ErrOutOfDate):
		return "out_of_date"
	case rerr.Is(err, rerr.ErrSuboptimal):
		return "suboptimal"
	case rerr.Is(err, rerr.ErrInvariant):
		return "invariant"
	default:
		return "other"
	}
}

// Metrics is the frame driver's Prometheus instrumentation: one
// histogram of wall-clock frame duration and counters for
// committed frames and the recoverable/fatal errors that
// RunFrame and RunOffscreen return, by classification. A FrameDriver with no Metrics attached records
// nothing.
type Metrics struct {
	frameDuration prometheus.Histogram
	framesTotal   prometheus.Counter
	errorsTotal   *prometheus.CounterVec
}

// NewMetrics creates frame-driver metrics and registers them
// with reg. Pass prometheus.NewRegistry() (or
// prometheus.DefaultRegisterer) from the caller so a process
// running several FrameDrivers can choose whether they share a
// registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		frameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "forgeplus",
			Subsystem: "frame",
			Name:      "duration_seconds",
			Help:      "Wall-clock time spent in FrameDriver.RunFrame or RunOffscreen.",
			Buckets:   prometheus.DefBuckets,
		}),
		framesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "forgeplus",
			Subsystem: "frame",
			Name:      "frames_total",
			Help:      "Frames successfully committed.",
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forgeplus",
			Subsystem: "frame",
			Name:      "errors_total",
			Help:      "RunFrame and RunOffscreen failures, labeled by classification.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.frameDuration, m.framesTotal, m.errorsTotal)
	return m
}

func (m *Metrics) observe(seconds float64, err error) {
	if m == nil {
		return
	}
	m.frameDuration.Observe(seconds)
	if err == nil {
		m.framesTotal.Inc()
		return
	}
	m.errorsTotal.WithLabelValues(classify(err)).Inc()
}
