package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/hazyhaar/rebeauty/pkg/client"
	"github.com/hazyhaar/rebeauty/pkg/search"
)

// SyncCustomers is the sync_state name used by the Refresher.
const SyncCustomers = "customers"

// Sync statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// DefaultInterval is used when NewRefresher is given a non-positive interval.
const DefaultInterval = 5 * time.Minute

// Lister is the part of the API client the Refresher needs.
type Lister interface {
	ListCustomers(ctx context.Context, q string) ([]client.Customer, error)
}

// Refresher periodically pulls the customer list from the API into the
// cache and reloads the search index from it.
type Refresher struct {
	api      Lister
	cache    *Cache
	index    *search.Index
	logger   *slog.Logger
	interval time.Duration
}

// NewRefresher creates a Refresher running every interval, or every
// DefaultInterval when interval is not positive.
func NewRefresher(api Lister, cache *Cache, index *search.Index, logger *slog.Logger, interval time.Duration) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Refresher{api: api, cache: cache, index: index, logger: logger, interval: interval}
}

// Start runs an immediate refresh then repeats every interval until ctx is
// cancelled.
func (r *Refresher) Start(ctx context.Context) {
	// A failed first pull still serves whatever an earlier run cached.
	if err := r.index.Load(r.cache); err != nil {
		r.logger.Error("customer cache: load failed", "error", err)
	}
	r.Refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Refresh performs one pull and reports whether it succeeded.
func (r *Refresher) Refresh(ctx context.Context) bool {
	customers, err := r.api.ListCustomers(ctx, "")
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		r.logger.Warn("customer sync failed", "error", err)
		if rerr := r.cache.RecordSync(SyncCustomers, StatusError, 0, err.Error()); rerr != nil {
			r.logger.Error("customer sync: record failed", "error", rerr)
		}
		return false
	}

	if err := r.cache.Replace(ctx, customers); err != nil {
		r.logger.Error("customer sync: cache replace failed", "error", err)
		if rerr := r.cache.RecordSync(SyncCustomers, StatusError, 0, err.Error()); rerr != nil {
			r.logger.Error("customer sync: record failed", "error", rerr)
		}
		return false
	}
	if err := r.index.Load(r.cache); err != nil {
		r.logger.Error("customer sync: index reload failed", "error", err)
		return false
	}
	if err := r.cache.RecordSync(SyncCustomers, StatusOK, len(customers), ""); err != nil {
		r.logger.Error("customer sync: record failed", "error", err)
	}

	r.logger.Info("customer sync complete", "customers", len(customers))
	return true
}
