package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	RecordOperationCreated  = "created"
	RecordOperationUpdated  = "updated"
	RecordOperationDeleted  = "deleted"
	RecordOperationRetained = "retained"
)

// CommissionMetrics tracks reconciliation pass outcomes.
type CommissionMetrics struct {
	syncRuns     *prometheus.CounterVec
	syncDuration prometheus.Observer
	records      *prometheus.CounterVec
	lastSuccess  prometheus.Gauge
}

var (
	commissionMetricsOnce sync.Once
	commissionMetrics     *CommissionMetrics
)

// Commission returns the singleton commission metrics registry.
func Commission() *CommissionMetrics {
	return CommissionWithConfig(Config{})
}

// CommissionWithConfig returns the singleton commission metrics registry using config labels.
func CommissionWithConfig(cfg Config) *CommissionMetrics {
	commissionMetricsOnce.Do(func() {
		commissionMetrics = newCommissionMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return commissionMetrics
}

// ResetCommissionMetricsForTest resets the commission metrics singleton for tests.
func ResetCommissionMetricsForTest() {
	commissionMetricsOnce = sync.Once{}
	commissionMetrics = nil
}

func newCommissionMetrics(registerer prometheus.Registerer, cfg Config) *CommissionMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := constLabelsFor(cfg)

	syncRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "commission_sync_runs_total",
		Help:        "Commission reconciliation passes by result.",
		ConstLabels: constLabels,
	}, []string{"result"})
	syncDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "commission_sync_duration_seconds",
		Help:        "Commission reconciliation pass latency.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		ConstLabels: constLabels,
	})
	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "commission_sync_records_total",
		Help:        "Commission records touched by reconciliation, by operation.",
		ConstLabels: constLabels,
	}, []string{"operation"})
	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "commission_sync_last_success_timestamp_seconds",
		Help:        "Unix time of the last successful reconciliation pass.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(syncRuns, syncDuration, records, lastSuccess)

	return &CommissionMetrics{
		syncRuns:     syncRuns,
		syncDuration: syncDuration,
		records:      records,
		lastSuccess:  lastSuccess,
	}
}

// ObserveSync records the outcome of one reconciliation pass.
func (m *CommissionMetrics) ObserveSync(success bool, finishedAt time.Time, duration time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.syncRuns.WithLabelValues(result).Inc()
	m.syncDuration.Observe(duration.Seconds())
	if success {
		m.lastSuccess.Set(float64(finishedAt.Unix()))
	}
}

// AddRecords counts commission records by reconciliation operation.
func (m *CommissionMetrics) AddRecords(operation string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.records.WithLabelValues(operation).Add(float64(count))
}
