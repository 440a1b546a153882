// Package metrics exposes the server's Prometheus instrumentation (§10.3 of
// SPEC_FULL.md): connection counts, tick loop latency, broadcast failures,
// and permission denials. Each is a package-level collector registered with
// the default registry, mirroring how small Go services typically wire
// client_golang metrics without threading a registry handle through every
// call site.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vfv",
		Name:      "connections_active",
		Help:      "Number of currently open client connections.",
	})

	HeadsetsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vfv",
		Name:      "headsets_active",
		Help:      "Number of currently identified headset connections.",
	})

	TickDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vfv",
		Name:      "tick_duration_seconds",
		Help:      "Wall-clock duration of one broadcaster tick iteration.",
		Buckets:   prometheus.DefBuckets,
	})

	TicksSkippedBackpressure = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vfv",
		Name:      "tick_skips_backpressure_total",
		Help:      "Connections skipped in a tick due to outbound backpressure.",
	})

	LockExpiriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vfv",
		Name:      "lock_expiries_total",
		Help:      "Subdataset locks released by the expiry scan.",
	})

	PermissionDeniedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vfv",
		Name:      "permission_denied_total",
		Help:      "Mutating messages silently dropped by canModify.",
	})

	ProtocolErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vfv",
		Name:      "protocol_errors_total",
		Help:      "Connection-closing protocol errors, by kind.",
	}, []string{"kind"})

	AnchorRoundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vfv",
		Name:      "anchor_rounds_total",
		Help:      "Completed anchor rounds, by outcome.",
	}, []string{"outcome"})
)
