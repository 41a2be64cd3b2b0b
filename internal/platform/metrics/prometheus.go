package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Roster metrics
	assignmentsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_assignments_submitted_total",
			Help: "Assignment submissions by outcome (created or the rejecting error kind)",
		},
		[]string{"outcome"},
	)

	periodsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roster_periods_created_total",
			Help: "Total number of roster periods created",
		},
	)

	// Nursing metrics
	nursingRecordsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nursing_records_created_total",
			Help: "Nursing records created, split by whether the fallback assignment was used",
		},
		[]string{"assignment_fallback"},
	)

	nursingCompensations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nursing_vitals_compensations_total",
			Help: "Compensating deletes of vital signs after a failed record write",
		},
		[]string{"result"},
	)

	nursingRecordsSigned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nursing_records_signed_total",
			Help: "Total number of nursing records signed",
		},
	)

	// Ward metrics
	wardCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ward_map_cache_lookups_total",
			Help: "Ward map cache lookups by result",
		},
		[]string{"result"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency labelled by route template,
// so /api/v1/floors/:id/ward is one series regardless of the id.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// RecordAssignment counts an assignment submission. outcome is "created" or
// the error kind that rejected it.
func RecordAssignment(outcome string) {
	assignmentsSubmitted.WithLabelValues(outcome).Inc()
}

func RecordPeriodCreated() {
	periodsCreated.Inc()
}

func RecordNursingRecord(fallback bool) {
	nursingRecordsCreated.WithLabelValues(strconv.FormatBool(fallback)).Inc()
}

func RecordCompensation(ok bool) {
	result := "deleted"
	if !ok {
		result = "failed"
	}
	nursingCompensations.WithLabelValues(result).Inc()
}

func RecordSigned() {
	nursingRecordsSigned.Inc()
}

func RecordCacheLookup(result string) {
	wardCacheLookups.WithLabelValues(result).Inc()
}

// RegisterPool exposes pool statistics as gauges. Call once per process.
func RegisterPool(reg prometheus.Registerer, pool *pgxpool.Pool) {
	gauge := func(name, help string, fn func(*pgxpool.Stat) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
			return fn(pool.Stat())
		})
	}
	reg.MustRegister(
		gauge("db_pool_total_conns", "Connections currently in the pool",
			func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
		gauge("db_pool_acquired_conns", "Connections currently checked out",
			func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
		gauge("db_pool_idle_conns", "Idle connections",
			func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
	)
}
