package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salescommission/internal/actorcontext"
	"github.com/smallbiznis/salescommission/internal/authorization"
	"github.com/smallbiznis/salescommission/internal/clock"
	commissiondomain "github.com/smallbiznis/salescommission/internal/commission/domain"
	"github.com/smallbiznis/salescommission/internal/config"
	obsmetrics "github.com/smallbiznis/salescommission/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const JobCommissionSync = "commission_sync"

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log           *zap.Logger
	GenID         *snowflake.Node
	CommissionSvc commissiondomain.Service
	AuthzSvc      authorization.Service
	Policy        *config.CommissionConfigHolder `optional:"true"`
	Clock         clock.Clock                    `optional:"true"`
	Config        Config                         `optional:"true"`
}

type Scheduler struct {
	log           *zap.Logger
	cfg           Config
	genID         *snowflake.Node
	clock         clock.Clock
	policy        *config.CommissionConfigHolder
	commissionSvc commissiondomain.Service
	authzSvc      authorization.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.CommissionSvc == nil || p.AuthzSvc == nil {
		return nil, ErrInvalidConfig
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	policy := p.Policy
	if policy == nil {
		policy = config.NewStaticCommissionConfigHolder(config.DefaultCommissionConfig())
	}
	return &Scheduler{
		log:           p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:           p.Config.withDefaults(),
		genID:         p.GenID,
		clock:         clk,
		policy:        policy,
		commissionSvc: p.CommissionSvc,
		authzSvc:      p.AuthzSvc,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx = actorcontext.WithSystem(ctx)
	ctx, run, owner := s.ensureJobRun(ctx, name)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	// deadline is a soft timeout; the next tick retries
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name    string
		Enabled bool
		Run     func(context.Context) error
	}{
		{JobCommissionSync, s.isJobEnabled(JobCommissionSync), func(ctx context.Context) error {
			return s.runJob(ctx, JobCommissionSync, s.syncTimeout(), s.CommissionSyncJob)
		}},
	}

	for _, job := range jobs {
		if job.Enabled {
			err = errors.Join(err, job.Run(parent))
		}
	}
	return err
}

// RunForever runs every job immediately and then once per interval until
// ctx is cancelled. The interval is re-read after each pass.
func (s *Scheduler) RunForever(ctx context.Context) {
	nextRun := s.clock.Now()
	schedMetrics := obsmetrics.Scheduler()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if runLag := s.clock.Now().Sub(nextRun); runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		interval := s.runInterval()
		nextRun = s.clock.Now().Add(interval)
		timer.Reset(interval)
	}
}

func (s *Scheduler) runInterval() time.Duration {
	if s.cfg.RunInterval > 0 {
		return s.cfg.RunInterval
	}
	if interval := s.policy.Get().SyncInterval; interval > 0 {
		return interval
	}
	return config.DefaultCommissionConfig().SyncInterval
}

func (s *Scheduler) syncTimeout() time.Duration {
	if timeout := s.policy.Get().SyncTimeout; timeout > 0 {
		return timeout
	}
	return s.cfg.SyncTimeout
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// nil means every job; an empty non-nil list disables all of them
	if s.cfg.EnabledJobs == nil {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// CommissionSyncJob runs one reconciliation pass as the system actor.
func (s *Scheduler) CommissionSyncJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, JobCommissionSync)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	if err := s.authorizeSystem(ctx, authorization.ObjectCommissionSync, authorization.ActionCommissionSyncRun); err != nil {
		s.logSchedulerError(ctx, run, "commission.sync.unauthorized", JobCommissionSync, err)
		return err
	}

	result := s.commissionSvc.RunCommissionSync(ctx)
	if !result.Success {
		if errors.Is(result.Err, commissiondomain.ErrSyncInProgress) {
			obsmetrics.Scheduler().IncBatchDeferred(JobCommissionSync, obsmetrics.SchedulerBatchDeferredReasonLockHeld)
			s.logger(ctx).Info("commission.sync.deferred", zap.String("reason", obsmetrics.SchedulerBatchDeferredReasonLockHeld))
			return nil
		}
		err := fmt.Errorf("%w: %s", obsmetrics.ErrSyncFailed, result.Detail)
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		s.logSchedulerError(ctx, run, "commission.sync.failed", JobCommissionSync, err,
			zap.String("sync_run_id", result.RunID),
		)
		return err
	}

	processed := result.Created + result.Updated + result.Deleted
	run.AddProcessed(processed)
	obsmetrics.Scheduler().AddBatchProcessed(JobCommissionSync, "commission_line", processed)
	return nil
}

func (s *Scheduler) authorizeSystem(ctx context.Context, object string, action string) error {
	if s.authzSvc == nil {
		return authorization.ErrForbidden
	}
	return s.authzSvc.Authorize(ctx, "system", object, action)
}
