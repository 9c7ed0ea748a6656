package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/sprout-farm/sprout/internal/jobs"
	"github.com/sprout-farm/sprout/internal/ledger"
)

const (
	// TaskLowStockScan triggers the scheduled low-stock sweep.
	TaskLowStockScan = "inventory:low_stock_scan"
)

// LowStockScanPayload carries scheduling metadata.
type LowStockScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLowStockScanTask constructs an Asynq task for the low-stock sweep.
func NewLowStockScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault)), nil
}

// OwnerSource lists the owners whose inventories the sweep covers.
type OwnerSource interface {
	ListOwnerIDs(ctx context.Context) ([]string, error)
}

// OwnerContact resolves an owner id to a notification address.
type OwnerContact interface {
	EmailFor(ctx context.Context, ownerID string) (string, error)
}

// StockLister reports the items sitting below their threshold per owner.
type StockLister interface {
	LowStockItems(ctx context.Context, ownerID string) ([]ledger.Item, error)
}

// EmailEnqueuer hands alert emails to the mail queue.
type EmailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// LowStockScanner walks every owner's inventory and enqueues an alert email
// for those with items below threshold.
type LowStockScanner struct {
	logger  *slog.Logger
	stock   StockLister
	owners  OwnerSource
	contact OwnerContact
	mailer  EmailEnqueuer
	metrics *jobmetrics.Metrics
	from    string
}

// NewLowStockScanner constructs the scanner. metrics may be nil.
func NewLowStockScanner(logger *slog.Logger, stock StockLister, owners OwnerSource, contact OwnerContact, mailer EmailEnqueuer, metrics *jobmetrics.Metrics, from string) *LowStockScanner {
	return &LowStockScanner{logger: logger, stock: stock, owners: owners, contact: contact, mailer: mailer, metrics: metrics, from: from}
}

// Handle processes TaskLowStockScan tasks.
func (s *LowStockScanner) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := s.metrics.Track("low_stock_scan")
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}

	ownerIDs, err := s.owners.ListOwnerIDs(ctx)
	if err != nil {
		return tracker.End(fmt.Errorf("jobs: list owners: %w", err))
	}
	for _, ownerID := range ownerIDs {
		items, err := s.stock.LowStockItems(ctx, ownerID)
		if err != nil {
			s.logger.Error("low stock scan failed for owner",
				slog.String("owner_id", ownerID), slog.Any("error", err))
			continue
		}
		if len(items) == 0 {
			continue
		}
		email, err := s.contact.EmailFor(ctx, ownerID)
		if err != nil || email == "" {
			s.logger.Warn("no contact for owner", slog.String("owner_id", ownerID))
			continue
		}
		if _, err := s.mailer.EnqueueSendEmail(ctx, SendEmailPayload{
			From:    s.from,
			To:      email,
			Subject: fmt.Sprintf("%d item(s) running low", len(items)),
			Body:    lowStockBody(items),
		}); err != nil {
			s.logger.Error("enqueue low stock email",
				slog.String("owner_id", ownerID), slog.Any("error", err))
			continue
		}
		s.metrics.CountLowStockAlert()
	}
	return tracker.End(nil)
}

func lowStockBody(items []ledger.Item) string {
	var b strings.Builder
	b.WriteString("The following items are below their low-stock threshold:\n\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- %s: %.2f %s (threshold %.2f)\n",
			item.Name, item.Stock, item.Unit, item.LowStockThreshold)
	}
	return b.String()
}
