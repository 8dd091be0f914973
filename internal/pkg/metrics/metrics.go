package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "areascope",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "areascope",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Area lifecycle metrics
	AreasCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "areascope",
		Subsystem: "areas",
		Name:      "created_total",
		Help:      "Total areas created from completed draw gestures",
	})

	AreasUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "areascope",
		Subsystem: "areas",
		Name:      "updated_total",
		Help:      "Total ring replacements from completed edits",
	})

	AreasDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "areascope",
		Subsystem: "areas",
		Name:      "deleted_total",
		Help:      "Total areas deleted",
	})

	VisibilityToggles = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "areascope",
		Subsystem: "areas",
		Name:      "visibility_toggles_total",
		Help:      "Total per-area visibility toggles",
	})

	RingsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "areascope",
		Subsystem: "areas",
		Name:      "rings_rejected_total",
		Help:      "Total draw gestures rejected for having under 3 points",
	})

	PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "areascope",
		Subsystem: "store",
		Name:      "persist_failures_total",
		Help:      "Total failed write-through persistence attempts",
	})

	// Geocoding metrics
	GeocodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "areascope",
		Subsystem: "geocode",
		Name:      "requests_total",
		Help:      "Total geocoding lookups by outcome",
	}, []string{"status"})

	// Map client metrics
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "areascope",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of connected map clients",
	})

	RenderCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "areascope",
		Subsystem: "mapsync",
		Name:      "render_commands_total",
		Help:      "Total render commands sent to map clients by operation",
	}, []string{"op"})

	GestureEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "areascope",
		Subsystem: "mapsync",
		Name:      "gesture_events_total",
		Help:      "Total map gesture events received by type",
	}, []string{"type"})

	NoticesShown = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "areascope",
		Subsystem: "notices",
		Name:      "shown_total",
		Help:      "Total transient notices shown",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
