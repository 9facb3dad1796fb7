// Package metrics exposes the server's own Prometheus metrics on the
// admin HTTP surface. cc-backend imports prometheus/client_golang to
// pull series from an external Prometheus (internal/metricdata); this
// package points the same library the other direction, exposing process
// counters for its own admin server to serve, which is the ordinary use
// of this dependency for a service's self-observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the set of collectors the admin server's /metrics endpoint
// serves. A single instance is constructed at startup and threaded
// through the connection loop and accept loop.
type Registry struct {
	reg *prometheus.Registry

	CommandsTotal    *prometheus.CounterVec
	ActiveConns      prometheus.Gauge
	BytesRead        prometheus.Counter
	BytesWritten     prometheus.Counter
	DecodeErrors     prometheus.Counter
	ConnectionsTotal prometheus.Counter
}

// NewRegistry builds a fresh, independent metric registry. Using a
// private registry rather than prometheus.DefaultRegisterer keeps the
// admin server's /metrics output limited to this service's own series.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wirekv_commands_total",
			Help: "Commands executed, partitioned by command name.",
		}, []string{"command"}),
		ActiveConns: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wirekv_active_connections",
			Help: "Currently open client connections.",
		}),
		BytesRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "wirekv_bytes_read_total",
			Help: "Bytes read from client sockets.",
		}),
		BytesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "wirekv_bytes_written_total",
			Help: "Bytes written to client sockets.",
		}),
		DecodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "wirekv_decode_errors_total",
			Help: "Frame decode errors that closed a connection.",
		}),
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "wirekv_connections_total",
			Help: "Connections accepted since startup.",
		}),
	}
}

// Gatherer exposes the underlying registry for promhttp.HandlerFor.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }
