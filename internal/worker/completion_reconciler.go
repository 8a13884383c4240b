// Package worker hosts background jobs that run alongside the API.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-course-api/internal/middleware"
	"github.com/noah-isme/gema-course-api/internal/observability"
	"github.com/noah-isme/gema-course-api/internal/repository"
	"github.com/noah-isme/gema-course-api/internal/service"
)

const defaultReconcileBatch = 200

// ReconcileReport summarises one reconciliation pass.
type ReconcileReport struct {
	Scanned  int
	Changed  int
	Degraded int
}

// CompletionReconciler periodically rechecks every enrollment so statuses converge after content
// or data corrections that no learning action triggered.
type CompletionReconciler struct {
	enrollments repository.EnrollmentRepository
	completion  service.CompletionService
	batchSize   int
	logger      zerolog.Logger

	mu        sync.Mutex
	scheduler *cron.Cron
}

// NewCompletionReconciler constructs the reconciler. A non-positive batch size uses the default.
func NewCompletionReconciler(enrollments repository.EnrollmentRepository, completion service.CompletionService, batchSize int, logger zerolog.Logger) *CompletionReconciler {
	if batchSize <= 0 {
		batchSize = defaultReconcileBatch
	}
	return &CompletionReconciler{
		enrollments: enrollments,
		completion:  completion,
		batchSize:   batchSize,
		logger:      logger.With().Str("component", "completion_reconciler").Logger(),
	}
}

// Start schedules RunOnce with a cron spec such as "@every 15m". An empty spec leaves the
// reconciler disabled. Overlapping runs are skipped.
func (r *CompletionReconciler) Start(ctx context.Context, spec string) error {
	if spec == "" {
		r.logger.Info().Msg("completion reconciler disabled")
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scheduler != nil {
		return fmt.Errorf("completion reconciler already started")
	}

	logger := cronLogger{logger: r.logger}
	scheduler := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	if _, err := scheduler.AddFunc(spec, func() { r.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", spec, err)
	}

	scheduler.Start()
	r.scheduler = scheduler
	r.logger.Info().Str("schedule", spec).Msg("completion reconciler started")
	return nil
}

// Stop halts scheduling and waits for a running pass to finish or ctx to expire.
func (r *CompletionReconciler) Stop(ctx context.Context) {
	r.mu.Lock()
	scheduler := r.scheduler
	r.scheduler = nil
	r.mu.Unlock()

	if scheduler == nil {
		return
	}

	select {
	case <-scheduler.Stop().Done():
	case <-ctx.Done():
		r.logger.Warn().Msg("completion reconciler stop timed out")
	}
}

// RunOnce pages through all enrollments by id and rechecks each one. Failures are counted and
// never stop the pass; a cancelled ctx ends it early.
func (r *CompletionReconciler) RunOnce(ctx context.Context) ReconcileReport {
	var (
		report  ReconcileReport
		afterID uint
	)
	passID := "reconcile-" + uuid.NewString()
	ctx = middleware.ContextWithCorrelation(ctx, passID)

	for ctx.Err() == nil {
		page, err := r.enrollments.Scan(ctx, repository.EnrollmentFilter{AfterID: afterID, Limit: r.batchSize})
		if err != nil {
			r.logger.Error().Err(err).Uint("after_id", afterID).Msg("failed to scan enrollments")
			break
		}
		if len(page) == 0 {
			break
		}

		for _, enrollment := range page {
			if ctx.Err() != nil {
				break
			}
			afterID = enrollment.ID
			report.Scanned++

			outcome := r.completion.Recheck(ctx, enrollment.StudentID, enrollment.CourseID)
			switch {
			case outcome.Degraded:
				report.Degraded++
				observability.ReconcileRuns().WithLabelValues("degraded").Inc()
			case outcome.Decision.Changed():
				report.Changed++
				observability.ReconcileRuns().WithLabelValues("changed").Inc()
			default:
				observability.ReconcileRuns().WithLabelValues("unchanged").Inc()
			}
		}

		if len(page) < r.batchSize {
			break
		}
	}

	r.logger.Info().
		Str("correlation_id", passID).
		Int("scanned", report.Scanned).
		Int("changed", report.Changed).
		Int("degraded", report.Degraded).
		Msg("completion reconcile pass finished")
	return report
}

type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
