package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/mtgvault/mtgvault/internal/errs"
	"github.com/mtgvault/mtgvault/internal/model"
	"github.com/mtgvault/mtgvault/internal/monitoring"
	"github.com/mtgvault/mtgvault/internal/repository"
)

// CollectionProjection is the cache-side collection structure the
// coordinator keeps in step with the durable store. Implemented by
// catalog.Projection.
type CollectionProjection interface {
	AddCollection(ctx context.Context, owner, collection string) error
	AddCard(ctx context.Context, owner, collection, card, edition string, units int64) error
	ListCollections(ctx context.Context, owner string) ([]string, error)
	ListEntries(ctx context.Context, owner, collection string) ([]model.CollectionEntry, error)
	Replace(ctx context.Context, owner, collection string, entries []model.CollectionEntry) error
}

// CollectionService coordinates collection mutations across the durable
// store and the cache projection.
type CollectionService interface {
	// AddCard adds units of a card to a collection in both stores.
	AddCard(ctx context.Context, owner, collection, card, edition string, units int64) (model.WriteOutcome, error)
	// AddCollection creates a named collection in both stores.
	AddCollection(ctx context.Context, owner, collection string) (model.WriteOutcome, error)
	// ListCollections returns the owner's collection names from the projection.
	ListCollections(ctx context.Context, owner string) ([]string, error)
	// ListEntries returns the projected contents of one collection.
	ListEntries(ctx context.Context, owner, collection string) ([]model.CollectionEntry, error)
	// Reconcile rebuilds the owner's projection from the durable store.
	Reconcile(ctx context.Context, owner string) error
}

type CollectionServiceImpl struct {
	store  repository.CollectionRepository
	proj   CollectionProjection
	logger *zap.Logger
}

// NewCollectionService constructs the write coordinator.
func NewCollectionService(store repository.CollectionRepository, proj CollectionProjection, logger *zap.Logger) *CollectionServiceImpl {
	return &CollectionServiceImpl{store: store, proj: proj, logger: logger}
}

// AddCard applies one logical mutation to both stores. The durable store is
// written first: losing a durable write while the cache has one means silent
// data loss after a restart, while a durable write with a stale cache is
// recoverable staleness. If the projection write fails after the durable
// write succeeded, the result is a partial outcome the caller and the
// metrics can see, not an error.
func (s *CollectionServiceImpl) AddCard(ctx context.Context, owner, collection, card, edition string, units int64) (model.WriteOutcome, error) {
	if owner == "" || collection == "" || card == "" || edition == "" {
		return model.WriteOutcome{}, fmt.Errorf("%w: empty owner/collection/card/edition", errs.ErrValidation)
	}
	if units <= 0 {
		return model.WriteOutcome{}, fmt.Errorf("%w: units must be positive, got %d", errs.ErrValidation, units)
	}

	var total int64
	err := withRetry(ctx, func(ctx context.Context) error {
		var err error
		total, err = s.store.UpsertEntry(ctx, owner, collection, card, edition, units)
		return err
	})
	if err != nil {
		return model.WriteOutcome{}, err
	}

	if err := withRetry(ctx, func(ctx context.Context) error {
		return s.proj.AddCard(ctx, owner, collection, card, edition, units)
	}); err != nil {
		monitoring.PartialWrites.WithLabelValues("add_card").Inc()
		s.logger.Warn("projection write failed after durable write; cache is stale",
			zap.String("owner", owner),
			zap.String("collection", collection),
			zap.String("card", card),
			zap.String("edition", edition),
			zap.Error(err),
		)
		return model.WriteOutcome{Status: model.WritePartial, Units: total, Reason: err.Error()}, nil
	}

	return model.WriteOutcome{Status: model.WriteApplied, Units: total}, nil
}

// AddCollection creates a collection with the same durable-first,
// partial-on-projection-failure policy. A duplicate name is a conflict
// reported from the durable store before any cache write.
func (s *CollectionServiceImpl) AddCollection(ctx context.Context, owner, collection string) (model.WriteOutcome, error) {
	if owner == "" || collection == "" {
		return model.WriteOutcome{}, fmt.Errorf("%w: empty owner/collection", errs.ErrValidation)
	}

	if err := withRetry(ctx, func(ctx context.Context) error {
		return s.store.CreateCollection(ctx, owner, collection)
	}); err != nil {
		return model.WriteOutcome{}, err
	}

	if err := withRetry(ctx, func(ctx context.Context) error {
		return s.proj.AddCollection(ctx, owner, collection)
	}); err != nil {
		monitoring.PartialWrites.WithLabelValues("add_collection").Inc()
		s.logger.Warn("projection write failed after durable write; cache is stale",
			zap.String("owner", owner),
			zap.String("collection", collection),
			zap.Error(err),
		)
		return model.WriteOutcome{Status: model.WritePartial, Reason: err.Error()}, nil
	}

	return model.WriteOutcome{Status: model.WriteApplied}, nil
}

// ListCollections serves the read-optimized projection.
func (s *CollectionServiceImpl) ListCollections(ctx context.Context, owner string) ([]string, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: empty owner", errs.ErrValidation)
	}
	return s.proj.ListCollections(ctx, owner)
}

// ListEntries serves the read-optimized projection.
func (s *CollectionServiceImpl) ListEntries(ctx context.Context, owner, collection string) ([]model.CollectionEntry, error) {
	if owner == "" || collection == "" {
		return nil, fmt.Errorf("%w: empty owner/collection", errs.ErrValidation)
	}
	return s.proj.ListEntries(ctx, owner, collection)
}

// Reconcile re-derives the owner's projection from the durable store,
// repairing any drift left behind by partial writes.
func (s *CollectionServiceImpl) Reconcile(ctx context.Context, owner string) error {
	if owner == "" {
		return fmt.Errorf("%w: empty owner", errs.ErrValidation)
	}

	names, err := s.store.ListCollections(ctx, owner)
	if err != nil {
		return err
	}
	for _, name := range names {
		entries, err := s.store.ListEntries(ctx, owner, name)
		if err != nil {
			return err
		}
		if err := s.proj.Replace(ctx, owner, name, entries); err != nil {
			return err
		}
	}

	monitoring.Reconciliations.Inc()
	s.logger.Info("projection reconciled",
		zap.String("owner", owner),
		zap.Int("collections", len(names)),
	)
	return nil
}

// withRetry retries transient store failures a bounded number of times with
// exponential backoff; every other error surfaces immediately.
func withRetry(ctx context.Context, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(100*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if errs.IsTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}
