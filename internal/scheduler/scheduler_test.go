package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/smallbiznis/salescommission/internal/actorcontext"
	"github.com/smallbiznis/salescommission/internal/authorization"
	"github.com/smallbiznis/salescommission/internal/clock"
	commissiondomain "github.com/smallbiznis/salescommission/internal/commission/domain"
	"github.com/smallbiznis/salescommission/internal/config"
	obsmetrics "github.com/smallbiznis/salescommission/internal/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type commissionSvcMock struct {
	mock.Mock
	commissiondomain.Service
}

func (m *commissionSvcMock) RunCommissionSync(ctx context.Context) commissiondomain.SyncResult {
	args := m.Called(actorcontext.IsSystem(ctx))
	return args.Get(0).(commissiondomain.SyncResult)
}

// blockingSyncSvc returns a failed result once the run context is done.
type blockingSyncSvc struct {
	commissiondomain.Service
}

func (blockingSyncSvc) RunCommissionSync(ctx context.Context) commissiondomain.SyncResult {
	<-ctx.Done()
	return commissiondomain.SyncResult{Success: false, Detail: "load candidate lines: " + ctx.Err().Error(), Err: ctx.Err()}
}

type authzMock struct {
	mock.Mock
}

func (m *authzMock) Authorize(ctx context.Context, actor, object, action string) error {
	return m.Called(actor, object, action).Error(0)
}

func newTestScheduler(t *testing.T, svc commissiondomain.Service, authz authorization.Service) *Scheduler {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	s, err := New(Params{
		Log:           zap.NewNop(),
		GenID:         node,
		CommissionSvc: svc,
		AuthzSvc:      authz,
		Clock:         clock.NewFakeClock(time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	return s
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunJobTimeoutDoesNotReturnErrorAndIncrementsTimeout(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()

	obsmetrics.ResetSchedulerMetricsForTest()
	obsmetrics.SchedulerWithConfig(obsmetrics.Config{
		ServiceName: "salescommission",
		Environment: "test",
	})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	s := &Scheduler{log: zap.NewNop(), genID: node, clock: clock.NewFakeClock(time.Time{})}
	err = s.runJob(context.Background(), "timeout_job", 5*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	labels := map[string]string{
		"service": "salescommission",
		"env":     "test",
		"job":     "timeout_job",
	}
	assert.Equal(t, float64(1), getCounterValue(t, registry, "salescommission_scheduler_job_timeouts_total", labels))

	errorLabels := map[string]string{
		"service": "salescommission",
		"env":     "test",
		"job":     "timeout_job",
		"reason":  obsmetrics.SchedulerJobReasonDeadlineExceeded,
	}
	assert.Equal(t, float64(1), getCounterValue(t, registry, "salescommission_scheduler_job_errors_total", errorLabels))
}

func TestCommissionSyncJobRunsAsSystem(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()
	obsmetrics.SchedulerWithConfig(obsmetrics.Config{ServiceName: "salescommission", Environment: "test"})

	svc := &commissionSvcMock{}
	svc.On("RunCommissionSync", true).Return(commissiondomain.SyncResult{
		Success: true, Created: 3, Updated: 1, Deleted: 1, Total: 3,
	}).Once()
	authz := &authzMock{}
	authz.On("Authorize", "system", authorization.ObjectCommissionSync, authorization.ActionCommissionSyncRun).Return(nil).Once()

	s := newTestScheduler(t, svc, authz)
	require.NoError(t, s.RunOnce(context.Background()))

	svc.AssertExpectations(t)
	authz.AssertExpectations(t)

	labels := map[string]string{
		"service":  "salescommission",
		"env":      "test",
		"job":      JobCommissionSync,
		"resource": "commission_line",
	}
	assert.Equal(t, float64(5), getCounterValue(t, registry, "salescommission_scheduler_batch_processed_total", labels))
}

func TestCommissionSyncJobReportsFailure(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()
	obsmetrics.SchedulerWithConfig(obsmetrics.Config{ServiceName: "salescommission", Environment: "test"})

	svc := &commissionSvcMock{}
	svc.On("RunCommissionSync", true).Return(commissiondomain.SyncResult{Success: false, Detail: "database is locked"}).Once()
	authz := &authzMock{}
	authz.On("Authorize", "system", mock.Anything, mock.Anything).Return(nil)

	s := newTestScheduler(t, svc, authz)
	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, obsmetrics.ErrSyncFailed)
	assert.Contains(t, err.Error(), "database is locked")

	errorLabels := map[string]string{
		"service": "salescommission",
		"env":     "test",
		"job":     JobCommissionSync,
		"reason":  obsmetrics.SchedulerJobReasonSyncFailed,
	}
	assert.Equal(t, float64(1), getCounterValue(t, registry, "salescommission_scheduler_job_errors_total", errorLabels))
}

func TestCommissionSyncJobDefersWhenGuardHeld(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()
	obsmetrics.SchedulerWithConfig(obsmetrics.Config{ServiceName: "salescommission", Environment: "test"})

	svc := &commissionSvcMock{}
	svc.On("RunCommissionSync", true).Return(commissiondomain.SyncResult{
		Success: false,
		Detail:  "guard busy",
		Err:     fmt.Errorf("acquire: %w", commissiondomain.ErrSyncInProgress),
	}).Once()
	authz := &authzMock{}
	authz.On("Authorize", "system", mock.Anything, mock.Anything).Return(nil)

	s := newTestScheduler(t, svc, authz)
	require.NoError(t, s.RunOnce(context.Background()))

	labels := map[string]string{
		"service": "salescommission",
		"env":     "test",
		"job":     JobCommissionSync,
		"reason":  obsmetrics.SchedulerBatchDeferredReasonLockHeld,
	}
	assert.Equal(t, float64(1), getCounterValue(t, registry, "salescommission_scheduler_batch_deferred_total", labels))
}

func TestCommissionSyncJobStopsWhenUnauthorized(t *testing.T) {
	obsmetrics.ResetSchedulerMetricsForTest()
	restore := swapPrometheusRegistry(prometheus.NewRegistry())
	defer restore()

	svc := &commissionSvcMock{}
	authz := &authzMock{}
	authz.On("Authorize", "system", mock.Anything, mock.Anything).Return(authorization.ErrForbidden)

	s := newTestScheduler(t, svc, authz)
	err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, authorization.ErrForbidden)
	svc.AssertNotCalled(t, "RunCommissionSync", mock.Anything)
}

func TestJobFilterAndInterval(t *testing.T) {
	s := &Scheduler{
		cfg:    Config{EnabledJobs: []string{"COMMISSION_SYNC"}},
		policy: config.NewStaticCommissionConfigHolder(config.DefaultCommissionConfig()),
	}
	assert.True(t, s.isJobEnabled(JobCommissionSync))
	assert.Equal(t, time.Hour, s.runInterval())

	s.cfg = Config{EnabledJobs: []string{}, RunInterval: time.Minute}
	assert.False(t, s.isJobEnabled(JobCommissionSync))
	assert.Equal(t, time.Minute, s.runInterval())
}

func swapPrometheusRegistry(registry *prometheus.Registry) func() {
	oldRegisterer := prometheus.DefaultRegisterer
	oldGatherer := prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
	obsmetrics.ResetSchedulerMetricsForTest()
	return func() {
		prometheus.DefaultRegisterer = oldRegisterer
		prometheus.DefaultGatherer = oldGatherer
		obsmetrics.ResetSchedulerMetricsForTest()
	}
}

func getCounterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	metricFamilies, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range metricFamilies {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.Metric {
			if !labelsMatch(metric, labels) {
				continue
			}
			require.NotNil(t, metric.Counter, "metric %s is not a counter", name)
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.Label) != len(labels) {
		return false
	}
	for _, label := range metric.Label {
		if labels[label.GetName()] != label.GetValue() {
			return false
		}
	}
	return true
}

func TestCommissionSyncJobTimeoutIsSoft(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()
	obsmetrics.ResetSchedulerMetricsForTest()
	obsmetrics.SchedulerWithConfig(obsmetrics.Config{ServiceName: "salescommission", Environment: "test"})

	authz := &authzMock{}
	authz.On("Authorize", "system", mock.Anything, mock.Anything).Return(nil)

	s := newTestScheduler(t, blockingSyncSvc{}, authz)
	err := s.runJob(context.Background(), JobCommissionSync, 5*time.Millisecond, s.CommissionSyncJob)
	require.NoError(t, err)

	labels := map[string]string{
		"service": "salescommission",
		"env":     "test",
		"job":     JobCommissionSync,
	}
	assert.Equal(t, float64(1), getCounterValue(t, registry, "salescommission_scheduler_job_timeouts_total", labels))

	errorLabels := map[string]string{
		"service": "salescommission",
		"env":     "test",
		"job":     JobCommissionSync,
		"reason":  obsmetrics.SchedulerJobReasonDeadlineExceeded,
	}
	assert.Equal(t, float64(1), getCounterValue(t, registry, "salescommission_scheduler_job_errors_total", errorLabels))
}
