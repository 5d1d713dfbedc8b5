// Package service wires the game engines together and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goodvibesclub/vibeoff/internal/adapters/repository"
	"github.com/goodvibesclub/vibeoff/internal/domain/board"
	"github.com/goodvibesclub/vibeoff/internal/domain/catalog"
	"github.com/goodvibesclub/vibeoff/internal/domain/daily"
	"github.com/goodvibesclub/vibeoff/internal/domain/duos"
	"github.com/goodvibesclub/vibeoff/internal/domain/owners"
	"github.com/goodvibesclub/vibeoff/internal/domain/period"
	"github.com/goodvibesclub/vibeoff/internal/domain/selector"
	"github.com/goodvibesclub/vibeoff/internal/domain/votes"
	"github.com/goodvibesclub/vibeoff/pkg/logger"
)

// Service owns every game engine and exposes them to the transport layer.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	cat      *catalog.Catalog
	selector *selector.Selector
	votes    *votes.Processor
	limiter  *votes.RateLimiter
	reader   *board.Reader
	daily    *daily.Daily
	duos     *duos.Engine
	syncer   *owners.Syncer

	// Configuration
	catalogPath   string
	catalogSize   int
	adminKey      string
	rateLimit     int
	rateWindow    time.Duration
	duoQuota      int
	weightTTL     time.Duration
	pairQueueSize int
	blacklist     []string

	indexerURL      string
	indexerKey      string
	contract        string
	ownerBatchSize  int
	ownerBatchDelay time.Duration

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects the backing store; without it an in-process store is
// created on Start.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCatalogPath sets the JSON catalog file to load.
func WithCatalogPath(path string) Option {
	return func(s *Service) {
		s.catalogPath = path
	}
}

// WithCatalogSize sets the synthetic catalog size used when no file is given.
func WithCatalogSize(n int) Option {
	return func(s *Service) {
		if n > 1 {
			s.catalogSize = n
		}
	}
}

// WithAdminKey sets the shared secret gating admin operations.
func WithAdminKey(key string) Option {
	return func(s *Service) {
		s.adminKey = key
	}
}

// WithRateLimit sets the main game's per-IP vote window.
func WithRateLimit(limit int, window time.Duration) Option {
	return func(s *Service) {
		if limit > 0 && window > 0 {
			s.rateLimit = limit
			s.rateWindow = window
		}
	}
}

// WithDuoQuota sets the duos per-device daily vote limit.
func WithDuoQuota(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.duoQuota = n
		}
	}
}

// WithWeightTTL sets how long the selector's weight table is cached.
func WithWeightTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.weightTTL = ttl
		}
	}
}

// WithPairQueueSize sets the selector's lookahead depth.
func WithPairQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pairQueueSize = n
		}
	}
}

// WithBlacklist excludes wallets from collector rankings.
func WithBlacklist(addresses []string) Option {
	return func(s *Service) {
		s.blacklist = addresses
	}
}

// WithOwnerIndexer configures the external NFT index the owner sync talks to.
func WithOwnerIndexer(baseURL, apiKey, contract string) Option {
	return func(s *Service) {
		s.indexerURL = baseURL
		s.indexerKey = apiKey
		s.contract = contract
	}
}

// WithOwnerSyncPacing sets the sync batch size and inter-batch delay.
func WithOwnerSyncPacing(batchSize int, delay time.Duration) Option {
	return func(s *Service) {
		if batchSize > 0 {
			s.ownerBatchSize = batchSize
		}
		if delay >= 0 {
			s.ownerBatchDelay = delay
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		catalogSize:     6969,
		rateLimit:       30,
		rateWindow:      time.Minute,
		duoQuota:        10,
		weightTTL:       5 * time.Minute,
		pairQueueSize:   12,
		ownerBatchSize:  50,
		ownerBatchDelay: time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the catalog and every engine. Safe to call once.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting vibeoff service...")

	if s.store == nil {
		s.store = repository.NewMemStore(ctx)
		s.logger.Info(ctx, "using in-process store")
	}

	var err error
	if s.catalogPath != "" {
		s.cat, err = catalog.LoadFile(s.catalogPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		s.logger.Info(ctx, "catalog loaded",
			logger.String("path", s.catalogPath),
			logger.Int("items", s.cat.Size()),
		)
	} else {
		s.cat = catalog.Synthetic(s.catalogSize)
		s.logger.Info(ctx, "using synthetic catalog", logger.Int("items", s.cat.Size()))
	}

	s.selector, err = selector.New(s.store, s.cat, s.logger.Named("selector"),
		selector.WithCacheTTL(s.weightTTL),
		selector.WithQueueSize(s.pairQueueSize),
	)
	if err != nil {
		return fmt.Errorf("build selector: %w", err)
	}

	s.votes = votes.NewProcessor(s.store, s.cat, s.logger.Named("votes"))
	s.limiter = votes.NewRateLimiter(s.store, s.logger.Named("ratelimit"), s.rateLimit, s.rateWindow)
	s.reader = board.NewReader(s.store, s.cat, s.logger.Named("board"),
		board.WithBlacklist(s.blacklist))
	s.daily = daily.New(s.store, s.cat, s.logger.Named("daily"))
	s.duos = duos.New(s.store, s.cat, s.logger.Named("duos"),
		duos.WithDailyQuota(s.duoQuota))

	if s.indexerURL != "" {
		client := owners.NewIndexerClient(s.indexerURL, s.indexerKey)
		s.syncer = owners.NewSyncer(s.store, client, s.cat, s.contract, s.logger.Named("owners"),
			owners.WithBatchSize(s.ownerBatchSize),
			owners.WithBatchDelay(s.ownerBatchDelay),
		)
	}

	s.started = true
	s.logger.Info(ctx, "vibeoff service started",
		logger.Int("catalog", s.cat.Size()),
		logger.Int("rateLimit", s.rateLimit),
		logger.Int("duoQuota", s.duoQuota),
	)
	return nil
}

// Stop gracefully shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping vibeoff service...")

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "vibeoff service stopped")
}

// Started reports whether Start has completed.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Matchup returns the next weighted-random pair.
func (s *Service) Matchup(ctx context.Context) (selector.Pair, error) {
	return s.selector.Next(ctx)
}

// WeightTable exposes the selector's current weight snapshot.
func (s *Service) WeightTable(ctx context.Context) (map[int]float64, error) {
	return s.selector.Weights(ctx)
}

// CheckVoteRate counts one vote attempt against an IP's window.
func (s *Service) CheckVoteRate(ctx context.Context, ip string) votes.Allowance {
	return s.limiter.Check(ctx, ip)
}

// Vote applies one main-game vote.
func (s *Service) Vote(ctx context.Context, winnerID, loserID int) (votes.Outcome, error) {
	return s.votes.Process(ctx, winnerID, loserID)
}

// Leaderboard returns the all-time board in display order.
func (s *Service) Leaderboard(ctx context.Context) ([]board.Entry, error) {
	return s.reader.Board(ctx, period.AllTime)
}

// Collectors returns the per-owner rollup.
func (s *Service) Collectors(ctx context.Context) ([]board.Collector, error) {
	return s.reader.Collectors(ctx)
}

// Item returns the merged single-item view.
func (s *Service) Item(ctx context.Context, id int) (board.Detail, error) {
	return s.reader.Item(ctx, id)
}

// Stats returns all-time stats for a set of ids.
func (s *Service) Stats(ctx context.Context, ids []int) (map[int]votes.Stats, error) {
	return s.reader.Stats(ctx, ids)
}

// Activity returns the global feed, optionally filtered by item ids.
func (s *Service) Activity(ctx context.Context, filterIDs []int, limit int) ([]votes.FeedEntry, error) {
	return s.votes.Feed(ctx, filterIDs, limit)
}

// Pulse returns the activity snapshot.
func (s *Service) Pulse(ctx context.Context) (votes.Pulse, error) {
	return s.votes.ReadPulse(ctx)
}

// DailyCurrent returns today's matchup, rotating lazily if needed.
func (s *Service) DailyCurrent(ctx context.Context) (daily.Matchup, error) {
	return s.daily.Current(ctx)
}

// DailyCanVote reports a voter's eligibility for today's matchup.
func (s *Service) DailyCanVote(ctx context.Context, ip, deviceID string) (bool, error) {
	return s.daily.CanVote(ctx, ip, deviceID)
}

// DailyVote records one daily vote.
func (s *Service) DailyVote(ctx context.Context, itemID int, ip, deviceID string) (daily.Matchup, error) {
	return s.daily.Vote(ctx, itemID, ip, deviceID)
}

// DailyVoteDiscord records a Discord-sourced daily vote.
func (s *Service) DailyVoteDiscord(ctx context.Context, itemID int, userID string) (daily.Matchup, error) {
	return s.daily.VoteDiscord(ctx, itemID, userID)
}

// DailyOverride force-sets today's matchup.
func (s *Service) DailyOverride(ctx context.Context, id1, id2 int) (daily.Matchup, error) {
	return s.daily.Override(ctx, id1, id2)
}

// DailyHistory returns merged past matchups.
func (s *Service) DailyHistory(ctx context.Context, limit int) ([]daily.Archive, error) {
	return s.daily.History(ctx, limit)
}

// DailyTimeToRotation returns how long the current game day has left.
func (s *Service) DailyTimeToRotation() time.Duration {
	return s.daily.TimeToRotation()
}

// DuoSubmit registers a new duo.
func (s *Service) DuoSubmit(ctx context.Context, id1, id2 int, owner string) (duos.Duo, error) {
	return s.duos.Submit(ctx, id1, id2, owner)
}

// DuoVote records one duo-vs-duo vote.
func (s *Service) DuoVote(ctx context.Context, winnerID, loserID, deviceID string) (duos.Outcome, error) {
	return s.duos.Vote(ctx, winnerID, loserID, deviceID)
}

// DuoDelete removes a duo, owner-gated.
func (s *Service) DuoDelete(ctx context.Context, duoID, wallet string) error {
	return s.duos.Delete(ctx, duoID, wallet)
}

// DuoMatchup draws two random duos.
func (s *Service) DuoMatchup(ctx context.Context) (duos.Duo, duos.Duo, error) {
	return s.duos.Matchup(ctx)
}

// DuoLeaderboard returns every duo in display order.
func (s *Service) DuoLeaderboard(ctx context.Context) ([]duos.Duo, error) {
	return s.duos.Leaderboard(ctx)
}

// DuoMine returns a wallet's duos.
func (s *Service) DuoMine(ctx context.Context, wallet string) ([]duos.Duo, error) {
	return s.duos.MyDuos(ctx, wallet)
}

// DuoRemainingVotes returns a device's quota standing.
func (s *Service) DuoRemainingVotes(ctx context.Context, deviceID string) (duos.Quota, error) {
	return s.duos.RemainingVotes(ctx, deviceID)
}

// Owners returns owner records for a set of ids.
func (s *Service) Owners(ctx context.Context, ids []int) (map[int]owners.Record, error) {
	return owners.Read(ctx, s.store, ids)
}

// SyncOwners runs one ownership sync pass. Returns the number of records
// refreshed, or owners.ErrNoIndexer when no index is configured.
func (s *Service) SyncOwners(ctx context.Context) (int, error) {
	if s.syncer == nil {
		return 0, owners.ErrNoIndexer
	}
	return s.syncer.Sync(ctx)
}

// AdminKeyMatches checks the shared admin secret. An unset key rejects
// everything; admin surfaces never fail open.
func (s *Service) AdminKeyMatches(key string) bool {
	return s.adminKey != "" && key == s.adminKey
}

// Reset wipes the entire store.
func (s *Service) Reset(ctx context.Context) error {
	s.logger.Warn(ctx, "store reset requested")
	return s.store.FlushAll(ctx)
}
