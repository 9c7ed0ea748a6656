package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sprout-farm/sprout/internal/finance"
	jobmetrics "github.com/sprout-farm/sprout/internal/jobs"
)

// TaskSummaryWarmup pre-populates cached financial summaries.
const TaskSummaryWarmup = "finance:summary_warmup"

// SummaryWarmupPayload carries scheduling metadata.
type SummaryWarmupPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewSummaryWarmupTask constructs an Asynq task for the warmup sweep.
func NewSummaryWarmupTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(SummaryWarmupPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSummaryWarmup, body, asynq.Queue(QueueDefault)), nil
}

// Summarizer computes a cached financial summary for one owner and period.
type Summarizer interface {
	Summarize(ctx context.Context, userID string, period finance.Period) (finance.Summary, error)
}

// warmupPeriods are the windows the dashboard requests most.
var warmupPeriods = []finance.Period{
	finance.PeriodToday,
	finance.PeriodThisMonth,
	finance.PeriodAllTime,
}

// SummaryWarmupJob recomputes dashboard summaries for every owner so the
// first page load after a cache bump hits warm entries.
type SummaryWarmupJob struct {
	Finance Summarizer
	Owners  OwnerSource
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSummaryWarmupJob wires dependencies for the warmup handler.
func NewSummaryWarmupJob(financeSvc Summarizer, owners OwnerSource, logger *slog.Logger, metrics *jobmetrics.Metrics) *SummaryWarmupJob {
	return &SummaryWarmupJob{Finance: financeSvc, Owners: owners, Logger: logger, Metrics: metrics}
}

// Handle processes summary warmup tasks.
func (j *SummaryWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Finance == nil || j.Owners == nil {
		return errors.New("summary warmup: handler not configured")
	}
	tracker := j.Metrics.Track(TaskSummaryWarmup)
	var payload SummaryWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}

	ownerIDs, err := j.Owners.ListOwnerIDs(ctx)
	if err != nil {
		return tracker.End(err)
	}

	warmed := 0
	for _, ownerID := range ownerIDs {
		ownerCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		err := j.warmOwner(ownerCtx, ownerID)
		cancel()
		if err != nil {
			j.logger().Error("warm owner summaries",
				slog.String("owner_id", ownerID), slog.Any("error", err))
			continue
		}
		warmed++
	}
	j.logger().Info("summary warmup complete", slog.Int("owners", warmed))
	return tracker.End(nil)
}

func (j *SummaryWarmupJob) warmOwner(ctx context.Context, ownerID string) error {
	for _, period := range warmupPeriods {
		if _, err := j.Finance.Summarize(ctx, ownerID, period); err != nil {
			return err
		}
	}
	return nil
}

func (j *SummaryWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSummaryWarmup))
	}
	return slog.Default().With(slog.String("job", TaskSummaryWarmup))
}
