package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the approval and inventory
// paths. One instance is created in main and shared by the services.
type Metrics struct {
	RequestsApproved   prometheus.Counter
	RequestsRejected   prometheus.Counter
	DonationsCompleted prometheus.Counter
	DonationsRejected  prometheus.Counter
	InsufficientUnits  prometheus.Counter
	ResolveDuration    prometheus.Histogram
	DashboardDuration  prometheus.Histogram
}

// New creates and registers all metrics with the default registry.
func New() *Metrics {
	return &Metrics{
		RequestsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_requests_approved_total",
			Help: "Total number of blood requests approved",
		}),
		RequestsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_requests_rejected_total",
			Help: "Total number of blood requests rejected",
		}),
		DonationsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_donations_completed_total",
			Help: "Total number of donations completed and credited to inventory",
		}),
		DonationsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_donations_rejected_total",
			Help: "Total number of donations rejected",
		}),
		InsufficientUnits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_insufficient_units_total",
			Help: "Total number of approvals refused for lack of inventory",
		}),
		ResolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bloodlink_resolve_duration_seconds",
			Help:    "Duration of workflow resolve operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		DashboardDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bloodlink_dashboard_duration_seconds",
			Help:    "Duration of dashboard aggregation reads",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveResolve records the duration of a workflow resolve operation.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveResolve(start time.Time) {
	m.ResolveDuration.Observe(time.Since(start).Seconds())
}

// ObserveDashboard records the duration of a dashboard aggregation.
func (m *Metrics) ObserveDashboard(start time.Time) {
	m.DashboardDuration.Observe(time.Since(start).Seconds())
}
