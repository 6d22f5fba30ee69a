package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/salescommission/internal/actorcontext"
	"github.com/smallbiznis/salescommission/internal/commission/calculator"
	"github.com/smallbiznis/salescommission/internal/commission/domain"
	"github.com/smallbiznis/salescommission/internal/commission/reconcile"
	"github.com/smallbiznis/salescommission/internal/config"
	obscontext "github.com/smallbiznis/salescommission/internal/observability/context"
	"github.com/smallbiznis/salescommission/internal/observability/logger"
	"github.com/smallbiznis/salescommission/internal/observability/metrics"
	"github.com/smallbiznis/salescommission/internal/observability/tracing"
	"github.com/smallbiznis/salescommission/pkg/telemetry/correlation"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type syncOutcome struct {
	result     domain.SyncResult
	candidates int
	reasons    map[domain.Reason]int
}

func (s *Service) RunCommissionSync(ctx context.Context) (result domain.SyncResult) {
	ctx, runID := correlation.EnsureCorrelationID(ctx)
	ctx = obscontext.WithRunID(ctx, runID)
	log := logger.WithContext(ctx, s.log)

	policy := s.policy.Get()
	startedAt := s.clock.Now().UTC()
	ctx, end := tracing.Start(ctx, "commission.sync",
		attribute.String("run_id", runID),
		attribute.String("eligibility_policy", policy.EligibilityPolicy),
	)

	outcome := &syncOutcome{result: domain.SyncResult{RunID: runID}}
	defer func() {
		if rec := recover(); rec != nil {
			outcome.result.Success = false
			outcome.result.Detail = fmt.Sprintf("commission sync panicked: %v", rec)
			outcome.result.Err = errors.New(outcome.result.Detail)
			log.Error("commission.sync.panic", zap.Any("panic", rec), zap.Stack("stack"))
		}
		result = outcome.result
		var spanErr error
		if !result.Success {
			spanErr = result.Err
		}
		end(spanErr)
		s.finishRun(ctx, log, policy, outcome, startedAt)
	}()

	log.Info("commission.sync.start", zap.String("eligibility_policy", policy.EligibilityPolicy))

	ttl := s.cfg.SyncLockTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	release, ok, err := s.guard.TryAcquire(ctx, syncLockKey, ttl)
	if err != nil {
		outcome.result.Err = fmt.Errorf("acquire sync guard: %w", err)
		outcome.result.Detail = outcome.result.Err.Error()
		return
	}
	if !ok {
		outcome.result.Err = domain.ErrSyncInProgress
		outcome.result.Detail = domain.ErrSyncInProgress.Error()
		return
	}
	defer release()

	if err := s.reconcile(ctx, log, policy, outcome); err != nil {
		outcome.result.Success = false
		outcome.result.Err = err
		outcome.result.Detail = err.Error()
		return
	}
	outcome.result.Success = true
	return
}

func (s *Service) reconcile(ctx context.Context, log *zap.Logger, policy config.CommissionConfig, outcome *syncOutcome) error {
	lines, err := s.accounting.ListCandidateLines(ctx, s.db)
	if err != nil {
		return fmt.Errorf("load candidate lines: %w", err)
	}

	calc := calculator.Build(lines, calculator.Options{
		PostedOnly:       policy.PostedOnly(),
		TriggeringUserID: s.triggeringUserID(ctx),
	})
	outcome.candidates = len(lines)
	outcome.reasons = calc.Count()

	existing, err := s.repo.ListAll(ctx, s.db)
	if err != nil {
		return fmt.Errorf("load commission lines: %w", err)
	}

	plan := reconcile.Build(calc.Targets, calc.Reasons, existing, reconcile.Tolerance{
		QuantityDigits: policy.QuantityDigits,
		RateDigits:     policy.RateDigits,
		MoneyDigits:    policy.DigitsForCurrency,
	})
	outcome.result.Retained = plan.Retained

	log.Debug("commission.sync.plan",
		zap.Int("candidates", len(lines)),
		zap.Int("targets", len(calc.Targets)),
		zap.Int("existing", len(existing)),
		zap.Int("creates", len(plan.Creates)),
		zap.Int("updates", len(plan.Updates)),
		zap.Int("deletes", len(plan.Deletes)),
		zap.Int("retained", plan.Retained),
	)

	batchSize := policy.BatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultCommissionConfig().BatchSize
	}

	for start := 0; start < len(plan.Deletes); start += batchSize {
		ids := plan.Deletes[start:min(start+batchSize, len(plan.Deletes))]
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.repo.DeleteByIDs(ctx, tx, ids)
		})
		if err != nil {
			return fmt.Errorf("delete commission lines: %w", err)
		}
		outcome.result.Deleted += len(ids)
	}

	for start := 0; start < len(plan.Updates); start += batchSize {
		batch := plan.Updates[start:min(start+batchSize, len(plan.Updates))]
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, upd := range batch {
				if err := s.repo.UpdateFields(ctx, tx, upd.ID, upd.Fields); err != nil {
					return fmt.Errorf("invoice line %d: %w", upd.InvoiceLineID, err)
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("update commission lines: %w", err)
		}
		outcome.result.Updated += len(batch)
	}

	now := s.clock.Now().UTC()
	for start := 0; start < len(plan.Creates); start += batchSize {
		payloads := plan.Creates[start:min(start+batchSize, len(plan.Creates))]
		records := make([]domain.CommissionLine, 0, len(payloads))
		for _, p := range payloads {
			records = append(records, s.newRecord(p, now))
		}
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.repo.CreateBatch(ctx, tx, records)
		})
		if err != nil {
			return fmt.Errorf("create commission lines: %w", err)
		}
		outcome.result.Created += len(records)
	}

	total, err := s.repo.Count(ctx, s.db)
	if err != nil {
		return fmt.Errorf("count commission lines: %w", err)
	}
	outcome.result.Total = total
	outcome.result.Detail = fmt.Sprintf("%d commission lines", total)
	return nil
}

func (s *Service) newRecord(p domain.Payload, now time.Time) domain.CommissionLine {
	return domain.CommissionLine{
		ID:               s.genID.Generate().Int64(),
		InvoiceID:        p.InvoiceID,
		InvoiceLineID:    p.InvoiceLineID,
		ProductID:        p.ProductID,
		SalespersonID:    p.SalespersonID,
		CompanyID:        p.CompanyID,
		Quantity:         p.Quantity,
		CommissionRate:   p.CommissionRate,
		CommissionAmount: p.CommissionAmount,
		PriceSubtotal:    p.PriceSubtotal,
		MoveType:         p.MoveType,
		InvoiceDate:      p.InvoiceDate,
		CurrencyCode:     p.CurrencyCode,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// triggeringUserID is the acting user for interactive runs and the
// configured fallback salesperson otherwise.
func (s *Service) triggeringUserID(ctx context.Context) int64 {
	if userID, ok := actorcontext.UserIDFromContext(ctx); ok {
		return userID.Int64()
	}
	return s.cfg.FallbackSalespersonID
}

func (s *Service) finishRun(ctx context.Context, log *zap.Logger, policy config.CommissionConfig, outcome *syncOutcome, startedAt time.Time) {
	res := outcome.result
	finishedAt := s.clock.Now().UTC()
	duration := finishedAt.Sub(startedAt)

	s.metrics.RecordSyncRun(ctx, res.Success)
	s.syncStats.ObserveSync(res.Success, finishedAt, duration)
	s.syncStats.AddRecords(metrics.RecordOperationCreated, res.Created)
	s.syncStats.AddRecords(metrics.RecordOperationUpdated, res.Updated)
	s.syncStats.AddRecords(metrics.RecordOperationDeleted, res.Deleted)
	s.syncStats.AddRecords(metrics.RecordOperationRetained, res.Retained)

	fields := []zap.Field{
		zap.Bool("success", res.Success),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("deleted", res.Deleted),
		zap.Int("retained", res.Retained),
		zap.Int64("total", res.Total),
		zap.Duration("duration", duration),
	}
	if res.Success {
		log.Info("commission.sync.finish", fields...)
	} else {
		log.Error("commission.sync.failed", append(fields, zap.String("detail", res.Detail))...)
	}

	reasons := map[string]any{}
	for reason, count := range outcome.reasons {
		reasons[string(reason)] = count
	}
	actor := actorcontext.Subject(ctx)
	if actor == "" {
		actor = "system"
	}
	run := &domain.SyncRun{
		ID:       s.genID.Generate().Int64(),
		RunID:    res.RunID,
		Actor:    actor,
		Success:  res.Success,
		Detail:   res.Detail,
		Created:  res.Created,
		Updated:  res.Updated,
		Deleted:  res.Deleted,
		Retained: res.Retained,
		Total:    res.Total,
		Metadata: datatypes.JSONMap{
			"eligibility_policy": policy.EligibilityPolicy,
			"batch_size":         policy.BatchSize,
			"candidates":         outcome.candidates,
			"reasons":            reasons,
		},
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}
	// History is best effort; it must not turn a good run into a failure.
	if err := s.runs.Create(context.WithoutCancel(ctx), run); err != nil {
		log.Warn("commission.sync.history_failed", zap.Error(err))
	}
}
