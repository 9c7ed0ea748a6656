package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/sprout-farm/sprout/internal/shared"
)

// Stock quantities are compared with a small epsilon so float accumulation
// never reports phantom negative stock.
const stockEpsilon = 1e-9

// ErrWriteConflict marks a transient transaction conflict. Repositories wrap
// serialization failures with it; the service retries against fresh state.
var ErrWriteConflict = errors.New("ledger: write conflict")

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetItem(ctx context.Context, ownerID, itemID string) (Item, error)
	ListItems(ctx context.Context, ownerID string) ([]Item, error)
	ListLowStock(ctx context.Context, ownerID string) ([]Item, error)
	QueryEntries(ctx context.Context, filter EntryFilter) ([]Entry, error)
}

// TxRepository exposes the operations available inside one atomic unit.
type TxRepository interface {
	GetItemForUpdate(ctx context.Context, ownerID, itemID string) (Item, error)
	UpdateItemStock(ctx context.Context, itemID string, stock float64, at time.Time) error
	InsertEntry(ctx context.Context, entry Entry) error
}

// CommitListener is notified after an entry commits. Listeners must not block
// the mutation path; failures are theirs to absorb.
type CommitListener interface {
	EntryCommitted(ctx context.Context, entry Entry)
}

// MetricsPort records mutation outcomes and conflict replays.
type MetricsPort interface {
	CountMutation(entryType, outcome string)
	CountRetry()
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// MaxRetries bounds replays of the mutation transaction on write conflict.
	MaxRetries int
}

// Service coordinates ledger writes and reads.
type Service struct {
	repo       RepositoryPort
	listener   CommitListener
	metrics    MetricsPort
	maxRetries int
	now        func() time.Time
}

// NewService builds a Service. listener and metrics may be nil.
func NewService(repo RepositoryPort, listener CommitListener, metrics MetricsPort, cfg ServiceConfig) *Service {
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	return &Service{repo: repo, listener: listener, metrics: metrics, maxRetries: retries, now: time.Now}
}

// Apply atomically mutates an item's stock and appends exactly one ledger
// entry. Either both writes commit or neither does. Concurrent mutations on
// the same item serialize on the item row; losers replay against fresh state
// up to the retry bound.
func (s *Service) Apply(ctx context.Context, input ApplyInput) (Entry, error) {
	if err := validateApply(input); err != nil {
		return Entry{}, err
	}

	var entry Entry
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		entry = Entry{}
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			item, err := tx.GetItemForUpdate(ctx, input.UserID, input.ItemID)
			if err != nil {
				return err
			}
			newStock := item.Stock + input.Delta
			if newStock < -stockEpsilon {
				return &InsufficientStockError{
					ItemID:    item.ID,
					Requested: math.Abs(input.Delta),
					Available: item.Stock,
				}
			}
			if math.Abs(newStock) < stockEpsilon {
				newStock = 0
			}
			now := s.now().UTC()
			entry = Entry{
				ID:             uuid.NewString(),
				ItemID:         item.ID,
				ItemName:       item.Name,
				Unit:           item.Unit,
				OccurredAt:     now,
				Type:           input.Type,
				QuantityChange: input.Delta,
				UnitPrice:      input.UnitPrice,
				TotalValue:     math.Abs(input.Delta) * input.UnitPrice,
				Notes:          input.Notes,
				UserID:         input.UserID,
				PlantID:        input.PlantID,
			}
			if err := tx.UpdateItemStock(ctx, item.ID, newStock, now); err != nil {
				return err
			}
			return tx.InsertEntry(ctx, entry)
		})
		if err == nil {
			s.countMutation(input.Type, "committed")
			if s.listener != nil {
				s.listener.EntryCommitted(ctx, entry)
			}
			return entry, nil
		}
		if errors.Is(err, ErrWriteConflict) {
			if s.metrics != nil {
				s.metrics.CountRetry()
			}
			continue
		}
		var insufficient *InsufficientStockError
		if errors.As(err, &insufficient) {
			s.countMutation(input.Type, "insufficient_stock")
		} else {
			s.countMutation(input.Type, "error")
		}
		return Entry{}, err
	}
	s.countMutation(input.Type, "retry_exhausted")
	return Entry{}, ErrRetryExhausted
}

func (s *Service) countMutation(entryType EntryType, outcome string) {
	if s.metrics != nil {
		s.metrics.CountMutation(string(entryType), outcome)
	}
}

// QueryEntries returns the caller's entries matching the filter, newest first.
func (s *Service) QueryEntries(ctx context.Context, userID string, filter EntryFilter) ([]Entry, error) {
	if userID == "" {
		return nil, shared.ErrUnauthorized
	}
	filter.UserID = userID
	filter.Limit = shared.ListLimit(filter.Limit, 100, 1000)
	return s.repo.QueryEntries(ctx, filter)
}

// GetItem fetches one of the caller's items.
func (s *Service) GetItem(ctx context.Context, userID, itemID string) (Item, error) {
	if userID == "" {
		return Item{}, shared.ErrUnauthorized
	}
	return s.repo.GetItem(ctx, userID, itemID)
}

// ListItems lists the caller's items.
func (s *Service) ListItems(ctx context.Context, userID string) ([]Item, error) {
	if userID == "" {
		return nil, shared.ErrUnauthorized
	}
	return s.repo.ListItems(ctx, userID)
}

// LowStockItems lists the caller's items whose stock sits below their
// threshold.
func (s *Service) LowStockItems(ctx context.Context, userID string) ([]Item, error) {
	if userID == "" {
		return nil, shared.ErrUnauthorized
	}
	return s.repo.ListLowStock(ctx, userID)
}

func validateApply(input ApplyInput) error {
	if input.ItemID == "" || input.UserID == "" {
		return errors.New("ledger: item id and user id required")
	}
	if !input.Type.Valid() {
		return fmt.Errorf("ledger: unknown entry type %q", input.Type)
	}
	if math.Abs(input.Delta) < stockEpsilon {
		return fmt.Errorf("%w: quantity change must be non zero", ErrInvalidQuantity)
	}
	if input.Type.Consumes() && input.Delta > 0 {
		return fmt.Errorf("%w: %s requires a negative quantity change", ErrInvalidQuantity, input.Type)
	}
	if input.Type.Acquires() && input.Delta < 0 {
		return fmt.Errorf("%w: %s requires a positive quantity change", ErrInvalidQuantity, input.Type)
	}
	if input.UnitPrice < 0 {
		return ErrInvalidUnitPrice
	}
	if input.PlantID != "" {
		if _, err := uuid.Parse(input.PlantID); err != nil {
			return fmt.Errorf("ledger: invalid plant id: %w", err)
		}
	}
	return nil
}
