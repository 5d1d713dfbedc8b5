package owners

import (
	"context"
	"time"

	"github.com/goodvibesclub/vibeoff/internal/adapters/repository"
	"github.com/goodvibesclub/vibeoff/internal/domain/catalog"
	"github.com/goodvibesclub/vibeoff/pkg/logger"
	"github.com/goodvibesclub/vibeoff/pkg/metrics"
)

const (
	defaultBatchSize  = 50
	defaultBatchDelay = time.Second
	defaultFreshness  = 24 * time.Hour
)

// Syncer refreshes owner records from an external index, in small batches
// with an inter-batch delay so the index's rate limits are respected. Records
// synced within the freshness window are skipped.
type Syncer struct {
	store    repository.Store
	indexer  Indexer
	cat      *catalog.Catalog
	log      logger.Logger
	contract string

	batchSize  int
	batchDelay time.Duration
	freshness  time.Duration
	now        func() time.Time
}

// SyncOption applies a configuration option to the Syncer.
type SyncOption func(*Syncer)

// WithBatchSize sets how many items one index call covers.
func WithBatchSize(n int) SyncOption {
	return func(s *Syncer) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithBatchDelay sets the pause between index calls.
func WithBatchDelay(d time.Duration) SyncOption {
	return func(s *Syncer) {
		if d >= 0 {
			s.batchDelay = d
		}
	}
}

// WithFreshness sets how recent a record must be to be skipped.
func WithFreshness(d time.Duration) SyncOption {
	return func(s *Syncer) {
		if d > 0 {
			s.freshness = d
		}
	}
}

// WithSyncClock injects the time source.
func WithSyncClock(now func() time.Time) SyncOption {
	return func(s *Syncer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSyncer creates a syncer for the given contract.
func NewSyncer(store repository.Store, indexer Indexer, cat *catalog.Catalog, contract string, log logger.Logger, opts ...SyncOption) *Syncer {
	s := &Syncer{
		store:      store,
		indexer:    indexer,
		cat:        cat,
		log:        log,
		contract:   contract,
		batchSize:  defaultBatchSize,
		batchDelay: defaultBatchDelay,
		freshness:  defaultFreshness,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync walks the whole catalog once. Per-batch failures are logged and
// skipped; the walk continues so one bad batch cannot starve the rest.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	stale, err := s.staleIDs(ctx)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		s.log.Debug(ctx, "owner records all fresh, nothing to sync")
		return 0, nil
	}

	synced := 0
	for lo := 0; lo < len(stale); lo += s.batchSize {
		if lo > 0 {
			select {
			case <-ctx.Done():
				return synced, ctx.Err()
			case <-time.After(s.batchDelay):
			}
		}
		hi := lo + s.batchSize
		if hi > len(stale) {
			hi = len(stale)
		}
		batch := stale[lo:hi]

		records, err := s.indexer.Owners(ctx, s.contract, batch)
		if err != nil {
			metrics.RecordOwnerSyncError()
			s.log.Warn(ctx, "owner batch fetch failed",
				logger.Int("from", batch[0]),
				logger.Int("to", batch[len(batch)-1]),
				logger.Error(err),
			)
			continue
		}
		now := s.now()
		for id, rec := range records {
			if err := write(ctx, s.store, id, rec, now); err != nil {
				metrics.RecordOwnerSyncError()
				s.log.Warn(ctx, "owner write failed", logger.Int("item", id), logger.Error(err))
				continue
			}
			synced++
		}
	}

	metrics.RecordOwnerSync()
	s.log.Info(ctx, "owner sync complete",
		logger.Int("stale", len(stale)),
		logger.Int("synced", synced),
	)
	return synced, nil
}

// staleIDs returns the ids whose records are missing or older than the
// freshness window, in catalog order.
func (s *Syncer) staleIDs(ctx context.Context) ([]int, error) {
	items := s.cat.All()
	ids := make([]int, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	records, err := Read(ctx, s.store, ids)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().Add(-s.freshness).UnixMilli()
	stale := make([]int, 0, len(ids))
	for _, id := range ids {
		rec, ok := records[id]
		if !ok || rec.LastSynced < cutoff {
			stale = append(stale, id)
		}
	}
	return stale, nil
}
