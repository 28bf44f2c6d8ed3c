// Package metrics exposes Prometheus counters and gauges for the game server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pixelwar"

// Manager holds the server's metric instruments behind one registry.
type Manager struct {
	registry *prometheus.Registry

	pixelsPlaced     prometheus.Counter
	placementsDenied *prometheus.CounterVec
	batchesCommitted prometheus.Counter
	clientsConnected prometheus.Gauge
	activeSessions   prometheus.Gauge
	messagesDropped  prometheus.Counter
	savesFailed      prometheus.Counter
}

func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Manager{
		registry: registry,
		pixelsPlaced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pixels_placed_total",
			Help:      "Pixels accepted onto a canvas.",
		}),
		placementsDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placements_denied_total",
			Help:      "Pixel placements denied, by reason.",
		}, []string{"reason"}),
		batchesCommitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pending_batches_committed_total",
			Help:      "Pending pixel batches merged onto canvases.",
		}),
		clientsConnected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clients_connected",
			Help:      "Currently connected websocket clients.",
		}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions loaded in the game manager.",
		}),
		messagesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "Messages dropped because a queue was full.",
		}),
		savesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_failed_total",
			Help:      "Repository writes that returned an error.",
		}),
	}
}

func (m *Manager) PixelPlaced() { m.pixelsPlaced.Inc() }
func (m *Manager) PlacementDenied(reason string) {
	m.placementsDenied.WithLabelValues(reason).Inc()
}
func (m *Manager) BatchCommitted() { m.batchesCommitted.Inc() }
func (m *Manager) ClientConnected() { m.clientsConnected.Inc() }
func (m *Manager) ClientDisconnected() { m.clientsConnected.Dec() }
func (m *Manager) SetActiveSessions(n int) { m.activeSessions.Set(float64(n)) }
func (m *Manager) MessageDropped() { m.messagesDropped.Inc() }
func (m *Manager) SaveFailed() { m.savesFailed.Inc() }

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
