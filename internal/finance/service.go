package finance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sprout-farm/sprout/internal/ledger"
)

// EntrySource pulls committed entries through the ledger query layer. The
// fold input is immutable, so a snapshot that lags in-flight writes is
// acceptable here.
type EntrySource interface {
	QueryEntries(ctx context.Context, filter ledger.EntryFilter) ([]ledger.Entry, error)
}

// Service computes financial summaries on demand, with a read-through cache
// in front of the fold.
type Service struct {
	logger  *slog.Logger
	entries EntrySource
	cache   *Cache
	loc     *time.Location
	now     func() time.Time
}

// NewService wires an EntrySource with the cache helper. loc anchors calendar
// period boundaries; nil falls back to time.Local.
func NewService(logger *slog.Logger, entries EntrySource, cache *Cache, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{logger: logger, entries: entries, cache: cache, loc: loc, now: time.Now}
}

// Summarize folds the caller's entries within the named period.
func (s *Service) Summarize(ctx context.Context, userID string, period Period) (Summary, error) {
	if userID == "" {
		return Summary{}, errors.New("finance: user id required")
	}
	start, end, err := period.Window(s.now(), s.loc)
	if err != nil {
		return Summary{}, err
	}

	loader := func(ctx context.Context) (interface{}, error) {
		entries, err := s.entries.QueryEntries(ctx, ledger.EntryFilter{
			UserID: userID,
			From:   start,
			To:     end,
		})
		if err != nil {
			return Summary{}, err
		}
		return Summarize(entries), nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return Summary{}, err
		}
		return value.(Summary), nil
	}

	key, err := s.cache.BuildKey(ctx, "finance", "summary", userID, string(period))
	if err != nil {
		return Summary{}, err
	}
	var summary Summary
	if err := s.cache.FetchJSON(ctx, key, &summary, loader); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

// SummarizeRange folds the caller's entries within a custom half-open
// [from, to) window. Range queries bypass the cache.
func (s *Service) SummarizeRange(ctx context.Context, userID string, from, to time.Time) (Summary, error) {
	if userID == "" {
		return Summary{}, errors.New("finance: user id required")
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return Summary{}, errors.New("finance: window start must precede end")
	}
	entries, err := s.entries.QueryEntries(ctx, ledger.EntryFilter{UserID: userID, From: from, To: to})
	if err != nil {
		return Summary{}, err
	}
	return Summarize(entries), nil
}

// PlantCosts folds the caller's entries linked to one plant.
func (s *Service) PlantCosts(ctx context.Context, userID, plantID string) (PlantCosts, error) {
	if userID == "" {
		return PlantCosts{}, errors.New("finance: user id required")
	}
	if plantID == "" {
		return PlantCosts{}, errors.New("finance: plant id required")
	}
	entries, err := s.entries.QueryEntries(ctx, ledger.EntryFilter{UserID: userID, PlantID: plantID})
	if err != nil {
		return PlantCosts{}, err
	}
	return SummarizePlant(plantID, entries), nil
}

// EntryCommitted implements ledger.CommitListener: every committed write
// invalidates cached summaries. Failures only cost cache freshness, so they
// are logged and absorbed.
func (s *Service) EntryCommitted(ctx context.Context, entry ledger.Entry) {
	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("finance cache bump failed",
			slog.String("entry_id", entry.ID),
			slog.Any("error", err))
	}
}
