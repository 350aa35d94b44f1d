// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector is what services and middleware record into.
type MetricsCollector interface {
	RecordUserCreated()
	RecordSkillsUpdated()
	RecordRequestCreated()
	RecordRequestRejected(kind string)
	RecordTransition(status string)
	RecordSearch(mode string, results int, duration time.Duration)
	RecordIndexRebuild(users int, duration time.Duration)
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
}

// Collector is the Prometheus implementation of MetricsCollector.
type Collector struct {
	usersCreated     prometheus.Counter
	skillsUpdated    prometheus.Counter
	requestsCreated  prometheus.Counter
	requestsRejected *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	searches         *prometheus.CounterVec
	searchResults    prometheus.Histogram
	searchLatency    prometheus.Histogram
	indexedUsers     prometheus.Gauge
	rebuildLatency   prometheus.Histogram
	httpStatus       *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
}

// NewCollector builds a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		usersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillswap_users_created_total",
			Help: "Users registered",
		}),
		skillsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillswap_skill_updates_total",
			Help: "Skill set replacements",
		}),
		requestsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillswap_swap_requests_created_total",
			Help: "Swap requests opened",
		}),
		requestsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillswap_swap_requests_rejected_total",
			Help: "Swap request creations refused, by error kind",
		}, []string{"kind"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillswap_swap_transitions_total",
			Help: "Swap request transitions, by target status",
		}, []string{"status"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillswap_searches_total",
			Help: "Searches served, by mode",
		}, []string{"mode"}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skillswap_search_results",
			Help:    "Matches per search before pagination",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
		}),
		searchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skillswap_search_latency_seconds",
			Help:    "Search latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		indexedUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "skillswap_index_rebuild_users",
			Help: "Users indexed by the last rebuild",
		}),
		rebuildLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skillswap_index_rebuild_seconds",
			Help:    "Index rebuild duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillswap_http_requests_total",
			Help: "HTTP responses by method, route and status code",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skillswap_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.usersCreated,
		c.skillsUpdated,
		c.requestsCreated,
		c.requestsRejected,
		c.transitions,
		c.searches,
		c.searchResults,
		c.searchLatency,
		c.indexedUsers,
		c.rebuildLatency,
		c.httpStatus,
		c.httpLatency,
	)

	return c
}

func (c *Collector) RecordUserCreated() {
	c.usersCreated.Inc()
}

func (c *Collector) RecordSkillsUpdated() {
	c.skillsUpdated.Inc()
}

func (c *Collector) RecordRequestCreated() {
	c.requestsCreated.Inc()
}

func (c *Collector) RecordRequestRejected(kind string) {
	if kind == "" {
		kind = "internal"
	}
	c.requestsRejected.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordTransition(status string) {
	c.transitions.WithLabelValues(status).Inc()
}

func (c *Collector) RecordSearch(mode string, results int, duration time.Duration) {
	c.searches.WithLabelValues(mode).Inc()
	c.searchResults.Observe(float64(results))
	c.searchLatency.Observe(duration.Seconds())
}

func (c *Collector) RecordIndexRebuild(users int, duration time.Duration) {
	c.indexedUsers.Set(float64(users))
	c.rebuildLatency.Observe(duration.Seconds())
}

func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpStatus.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. Used where no registry is wired.
type Nop struct{}

func (Nop) RecordUserCreated()                                   {}
func (Nop) RecordSkillsUpdated()                                 {}
func (Nop) RecordRequestCreated()                                {}
func (Nop) RecordRequestRejected(string)                         {}
func (Nop) RecordTransition(string)                              {}
func (Nop) RecordSearch(string, int, time.Duration)              {}
func (Nop) RecordIndexRebuild(int, time.Duration)                {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
