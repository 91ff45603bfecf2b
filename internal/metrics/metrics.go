// Package metrics provides the Prometheus metrics of the fitlog server.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every collector the server exports. A nil *Metrics is valid
// and records nothing, which keeps tests free of registry plumbing.
type Metrics struct {
	EntriesRecordedTotal prometheus.Counter
	WorkoutsLoggedTotal  prometheus.Counter
	StoreErrorsTotal     *prometheus.CounterVec // by operation
	SummaryScansTotal    prometheus.Counter
	SummaryEntriesLast   prometheus.Gauge
	SummaryOwnersLast    prometheus.Gauge
	NotificationsTotal   *prometheus.CounterVec // by channel and status
	HTTPRequestsTotal    *prometheus.CounterVec // by method, route and status code
	ViewsMounted         *prometheus.GaugeVec   // by view

	registry *prometheus.Registry
}

// New creates the collectors and registers them on registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register fitlog metrics: %w", err)
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.EntriesRecordedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fitlog_entries_recorded_total",
		Help: "Total number of fitness entries stored",
	})
	m.WorkoutsLoggedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fitlog_workouts_logged_total",
		Help: "Total number of workouts stored",
	})
	m.StoreErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fitlog_entry_store_errors_total",
		Help: "Total number of failed entry store operations",
	}, []string{"operation"}) // create, recent, all, workout_create, workout_recent, goal_get, goal_set
	m.SummaryScansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fitlog_summary_scans_total",
		Help: "Total number of full entry scans made to build the summary",
	})
	m.SummaryEntriesLast = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fitlog_summary_last_scan_entries",
		Help: "Number of entries read by the last summary scan",
	})
	m.SummaryOwnersLast = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fitlog_summary_last_scan_owners",
		Help: "Number of distinct owners in the last summary scan",
	})
	m.NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fitlog_notifications_total",
		Help: "Notification attempts after a saved entry by channel and status",
	}, []string{"channel", "status"}) // channel: push, local; status: sent, unavailable, error
	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fitlog_http_requests_total",
		Help: "HTTP requests by method, route and status code",
	}, []string{"method", "route", "code"})
	m.ViewsMounted = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fitlog_views_mounted",
		Help: "Currently mounted views by view name",
	}, []string{"view"})
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.EntriesRecordedTotal.Describe(ch)
	m.WorkoutsLoggedTotal.Describe(ch)
	m.StoreErrorsTotal.Describe(ch)
	m.SummaryScansTotal.Describe(ch)
	m.SummaryEntriesLast.Describe(ch)
	m.SummaryOwnersLast.Describe(ch)
	m.NotificationsTotal.Describe(ch)
	m.HTTPRequestsTotal.Describe(ch)
	m.ViewsMounted.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.EntriesRecordedTotal.Collect(ch)
	m.WorkoutsLoggedTotal.Collect(ch)
	m.StoreErrorsTotal.Collect(ch)
	m.SummaryScansTotal.Collect(ch)
	m.SummaryEntriesLast.Collect(ch)
	m.SummaryOwnersLast.Collect(ch)
	m.NotificationsTotal.Collect(ch)
	m.HTTPRequestsTotal.Collect(ch)
	m.ViewsMounted.Collect(ch)
}

func (m *Metrics) EntryRecorded() {
	if m == nil {
		return
	}
	m.EntriesRecordedTotal.Inc()
}

func (m *Metrics) WorkoutLogged() {
	if m == nil {
		return
	}
	m.WorkoutsLoggedTotal.Inc()
}

func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.StoreErrorsTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) SummaryScanned(entries, owners int) {
	if m == nil {
		return
	}
	m.SummaryScansTotal.Inc()
	m.SummaryEntriesLast.Set(float64(entries))
	m.SummaryOwnersLast.Set(float64(owners))
}

func (m *Metrics) Notification(channel, status string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(channel, status).Inc()
}

func (m *Metrics) HTTPRequest(method, route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}

// ViewMounted tracks a mounted view; call the returned func on unmount.
func (m *Metrics) ViewMounted(view string) func() {
	if m == nil {
		return func() {}
	}
	g := m.ViewsMounted.WithLabelValues(view)
	g.Inc()
	return g.Dec
}
