package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	Builds        prometheus.Counter
	BuildErrors   *prometheus.CounterVec // kind label: not_found|data_integrity|storage|other
	BuildDuration prometheus.Histogram

	Mutations *prometheus.CounterVec // op label: set_time|skip|rebuild; result label: ok|rejected|error

	EventsPublished   prometheus.Counter
	EventsPublishErrs prometheus.Counter
	EventsConnected   prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Builds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_builds_total",
			Help: "Total timetable build requests.",
		}),
		BuildErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_build_errors_total",
			Help: "Total failed timetable builds.",
		}, []string{"kind"}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "timetable_build_duration_seconds",
			Help:    "Duration of timetable builds including storage reads.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_mutations_total",
			Help: "Total schedule mutations by operation and result.",
		}, []string{"op", "result"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_events_published_total",
			Help: "Total mutation events published to NATS.",
		}),
		EventsPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_events_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		EventsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetable_events_connected",
			Help: "1 if the NATS connection is established, 0 otherwise.",
		}),
	}

	reg.MustRegister(
		c.Builds, c.BuildErrors, c.BuildDuration,
		c.Mutations,
		c.EventsPublished, c.EventsPublishErrs, c.EventsConnected,
	)
	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}

// Publisher-facing increments; nil receivers make the publisher usable
// without a collector.

func (c *Collector) EventPublishedInc() {
	if c != nil {
		c.EventsPublished.Inc()
	}
}

func (c *Collector) EventPublishErrInc() {
	if c != nil {
		c.EventsPublishErrs.Inc()
	}
}

func (c *Collector) EventsSetConnected(connected bool) {
	if c == nil {
		return
	}
	if connected {
		c.EventsConnected.Set(1)
	} else {
		c.EventsConnected.Set(0)
	}
}

func (c *Collector) ObserveBuild(d time.Duration, err error, kind string) {
	if c == nil {
		return
	}
	c.Builds.Inc()
	c.BuildDuration.Observe(d.Seconds())
	if err != nil {
		c.BuildErrors.WithLabelValues(kind).Inc()
	}
}

func (c *Collector) MutationInc(op, result string) {
	if c != nil {
		c.Mutations.WithLabelValues(op, result).Inc()
	}
}
