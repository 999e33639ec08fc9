package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements the planner, ingestor and assistant observer
// interfaces on a private Prometheus registry.
type Collector struct {
	reg *prometheus.Registry

	Searches       *prometheus.CounterVec // outcome label: ok|no_stations|no_routes
	SearchDuration prometheus.Histogram
	StaleSearches  prometheus.Counter

	Legs *prometheus.CounterVec // outcome label: ok|empty|failed

	ServicePolls     *prometheus.CounterVec
	AssistantReplies *prometheus.CounterVec // fallback label: true|false
	Sessions         prometheus.GaugeFunc
	WebSocketClients prometheus.GaugeFunc
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// NewCollector wires gauges to the given count functions; nil functions
// report zero.
func NewCollector(sessions, wsClients func() int) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routeiq_searches_total",
			Help: "Completed route searches by outcome.",
		}, []string{"outcome"}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "routeiq_search_duration_seconds",
			Help:    "Time from request to ranked candidates.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		StaleSearches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "routeiq_stale_searches_total",
			Help: "Searches discarded because a newer search started.",
		}),
		Legs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routeiq_directions_legs_total",
			Help: "Directions lookups by outcome.",
		}, []string{"outcome"}),
		ServicePolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routeiq_service_update_polls_total",
			Help: "Service update polls by outcome.",
		}, []string{"outcome"}),
		AssistantReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routeiq_assistant_replies_total",
			Help: "Assistant replies, split by whether the fallback answered.",
		}, []string{"fallback"}),
		Sessions: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "routeiq_sessions",
			Help: "Sessions currently held in memory.",
		}, countOrZero(sessions)),
		WebSocketClients: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "routeiq_websocket_clients",
			Help: "Connected WebSocket clients.",
		}, countOrZero(wsClients)),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routeiq_http_requests_total",
			Help: "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "routeiq_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.Searches, c.SearchDuration, c.StaleSearches,
		c.Legs, c.ServicePolls, c.AssistantReplies,
		c.Sessions, c.WebSocketClients,
		c.HTTPRequests, c.HTTPDuration,
	)

	return c
}

func countOrZero(fn func() int) func() float64 {
	return func() float64 {
		if fn == nil {
			return 0
		}
		return float64(fn())
	}
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

func (c *Collector) ObserveLeg(outcome string) {
	c.Legs.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveSearch(outcome string, elapsed time.Duration) {
	c.Searches.WithLabelValues(outcome).Inc()
	c.SearchDuration.Observe(elapsed.Seconds())
}

func (c *Collector) ObserveStale() {
	c.StaleSearches.Inc()
}

func (c *Collector) ObservePoll(outcome string) {
	c.ServicePolls.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveAssistant(fallback bool) {
	c.AssistantReplies.WithLabelValues(strconv.FormatBool(fallback)).Inc()
}

func (c *Collector) ObserveRequest(route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
