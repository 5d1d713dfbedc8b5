// Package daily runs the single-matchup-per-day side game.
//
// There is no background scheduler: whoever reads the current matchup after
// the rotation boundary performs the rotation, guarded by a short store lock
// so concurrent readers do not double-rotate.
package daily

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/goodvibesclub/vibeoff/internal/adapters/repository"
	"github.com/goodvibesclub/vibeoff/internal/domain/catalog"
	"github.com/goodvibesclub/vibeoff/pkg/logger"
	"github.com/goodvibesclub/vibeoff/pkg/metrics"
)

const (
	currentKey    = "daily:current"
	historyKey    = "daily:history"
	lockKey       = "daily:lock"
	lockTTL       = 10 * time.Second
	voteMarkerTTL = 48 * time.Hour

	// rotationHour is the local hour the matchup advances at.
	rotationHour = 12
)

// gameZone is the fixed zone rotation is pegged to.
var gameZone = time.FixedZone("EST", -5*60*60)

// Matchup is the current daily pairing and its tallies.
type Matchup struct {
	Char1     catalog.Item `json:"char1"`
	Char2     catalog.Item `json:"char2"`
	Votes1    int          `json:"votes1"`
	Votes2    int          `json:"votes2"`
	StartTime int64        `json:"startTime"`
	DateKey   string       `json:"dateKey"`
}

// Daily is the state machine over the singleton matchup record.
type Daily struct {
	store repository.Store
	cat   *catalog.Catalog
	log   logger.Logger
	now   func() time.Time
	rng   *rand.Rand
}

// Option applies a configuration option to Daily.
type Option func(*Daily)

// WithClock injects the time source driving rotation.
func WithClock(now func() time.Time) Option {
	return func(d *Daily) {
		if now != nil {
			d.now = now
		}
	}
}

// WithRand injects the random source used for pair generation.
func WithRand(rng *rand.Rand) Option {
	return func(d *Daily) {
		if rng != nil {
			d.rng = rng
		}
	}
}

// New creates the daily engine over the given catalog.
func New(store repository.Store, cat *catalog.Catalog, log logger.Logger, opts ...Option) *Daily {
	d := &Daily{
		store: store,
		cat:   cat,
		log:   log,
		now:   time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // pair sampling, not security
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DateKey returns the game-day key for t. A game day runs noon-to-noon in the
// fixed zone, so before the boundary t still belongs to the previous date.
func DateKey(t time.Time) string {
	local := t.In(gameZone)
	if local.Hour() < rotationHour {
		local = local.AddDate(0, 0, -1)
	}
	return local.Format("2006-01-02")
}

// NextRotation returns when the current game day ends.
func NextRotation(t time.Time) time.Time {
	local := t.In(gameZone)
	boundary := time.Date(local.Year(), local.Month(), local.Day(), rotationHour, 0, 0, 0, gameZone)
	if !local.Before(boundary) {
		boundary = boundary.AddDate(0, 0, 1)
	}
	return boundary
}

// Current returns today's matchup, rotating first if the stored one belongs
// to a previous game day.
func (d *Daily) Current(ctx context.Context) (Matchup, error) {
	today := DateKey(d.now())

	m, found, err := d.read(ctx)
	if err != nil {
		return Matchup{}, err
	}
	if found && m.DateKey == today {
		return m, nil
	}
	return d.rotate(ctx, today)
}

// rotate archives the stored matchup (if any) and generates today's. The
// store lock keeps concurrent readers from rotating twice; a loser of the
// lock race re-reads and defensively generates anyway if the record is still
// stale (the history merge absorbs any resulting duplicate).
func (d *Daily) rotate(ctx context.Context, today string) (Matchup, error) {
	acquired, err := d.store.Set(ctx, lockKey, today,
		repository.IfNotExists(), repository.WithTTL(lockTTL))
	if err != nil {
		return Matchup{}, fmt.Errorf("rotation lock: %w", err)
	}
	if !acquired {
		// Someone else is rotating; their write may already be visible.
		if m, found, err := d.read(ctx); err == nil && found && m.DateKey == today {
			return m, nil
		}
	}

	old, found, err := d.read(ctx)
	if err != nil {
		return Matchup{}, err
	}
	if found && old.DateKey == today {
		return old, nil
	}
	if found {
		if err := d.archive(ctx, old); err != nil {
			d.log.Error(ctx, "daily archive failed", logger.Error(err))
		}
	}

	m, err := d.generate(today)
	if err != nil {
		return Matchup{}, err
	}
	if err := d.write(ctx, m); err != nil {
		return Matchup{}, err
	}

	metrics.RecordDailyRotation()
	d.log.Info(ctx, "daily matchup rotated",
		logger.String("dateKey", today),
		logger.Int("char1", m.Char1.ID),
		logger.Int("char2", m.Char2.ID),
	)
	return m, nil
}

// Override force-sets the current matchup, archiving the previous one.
func (d *Daily) Override(ctx context.Context, id1, id2 int) (Matchup, error) {
	if id1 == id2 {
		return Matchup{}, ErrSamePair
	}
	c1, ok := d.cat.Get(id1)
	if !ok {
		return Matchup{}, fmt.Errorf("%w: %d", ErrUnknownItem, id1)
	}
	c2, ok := d.cat.Get(id2)
	if !ok {
		return Matchup{}, fmt.Errorf("%w: %d", ErrUnknownItem, id2)
	}

	if old, found, err := d.read(ctx); err == nil && found {
		if err := d.archive(ctx, old); err != nil {
			d.log.Error(ctx, "daily archive failed on override", logger.Error(err))
		}
	}

	m := Matchup{
		Char1:     c1,
		Char2:     c2,
		StartTime: d.now().UnixMilli(),
		DateKey:   DateKey(d.now()),
	}
	if err := d.write(ctx, m); err != nil {
		return Matchup{}, err
	}
	d.log.Info(ctx, "daily matchup overridden",
		logger.Int("char1", id1), logger.Int("char2", id2))
	return m, nil
}

// TimeToRotation returns how long the current game day has left.
func (d *Daily) TimeToRotation() time.Duration {
	return NextRotation(d.now()).Sub(d.now())
}

func (d *Daily) generate(dateKey string) (Matchup, error) {
	items := d.cat.All()
	if len(items) < 2 {
		return Matchup{}, ErrCatalogTooSmall
	}
	i := d.rng.Intn(len(items))
	j := d.rng.Intn(len(items) - 1)
	if j >= i {
		j++
	}
	return Matchup{
		Char1:     items[i],
		Char2:     items[j],
		StartTime: d.now().UnixMilli(),
		DateKey:   dateKey,
	}, nil
}

func (d *Daily) read(ctx context.Context) (Matchup, bool, error) {
	h, err := d.store.HGetAll(ctx, currentKey)
	if err != nil {
		return Matchup{}, false, fmt.Errorf("read daily: %w", err)
	}
	if len(h) == 0 {
		return Matchup{}, false, nil
	}

	id1, _ := strconv.Atoi(h["char1Id"])
	id2, _ := strconv.Atoi(h["char2Id"])
	c1, ok1 := d.cat.Get(id1)
	c2, ok2 := d.cat.Get(id2)
	if !ok1 || !ok2 {
		return Matchup{}, false, nil
	}

	start, _ := strconv.ParseInt(h["startTime"], 10, 64)
	v1, _ := strconv.Atoi(h["votes1"])
	v2, _ := strconv.Atoi(h["votes2"])
	return Matchup{
		Char1:     c1,
		Char2:     c2,
		Votes1:    v1,
		Votes2:    v2,
		StartTime: start,
		DateKey:   h["dateKey"],
	}, true, nil
}

func (d *Daily) write(ctx context.Context, m Matchup) error {
	err := d.store.HSet(ctx, currentKey, map[string]string{
		"char1Id":   strconv.Itoa(m.Char1.ID),
		"char2Id":   strconv.Itoa(m.Char2.ID),
		"votes1":    strconv.Itoa(m.Votes1),
		"votes2":    strconv.Itoa(m.Votes2),
		"startTime": strconv.FormatInt(m.StartTime, 10),
		"dateKey":   m.DateKey,
	})
	if err != nil {
		return fmt.Errorf("write daily: %w", err)
	}
	return nil
}
