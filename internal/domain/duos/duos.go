// Package duos runs the user-submitted pairs side game. A duo is two catalog
// items entered together under one wallet; duos battle each other with the
// same rating math as the main game.
package duos

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goodvibesclub/vibeoff/internal/adapters/repository"
	"github.com/goodvibesclub/vibeoff/internal/domain/catalog"
	"github.com/goodvibesclub/vibeoff/internal/domain/elo"
	"github.com/goodvibesclub/vibeoff/pkg/logger"
	"github.com/goodvibesclub/vibeoff/pkg/metrics"
)

const (
	allKey       = "duos:all"
	keyPrefix    = "duos:"
	gvcPrefix    = "duos:gvc:"
	walletPrefix = "duos:wallet:"
	votesPrefix  = "duos:votes:"

	defaultDailyQuota = 10
	quotaTTL          = 48 * time.Hour
)

// quotaZone pins the daily quota window to the same fixed zone the daily
// game rotates in.
var quotaZone = time.FixedZone("EST", -5*60*60)

// Duo is one submitted pair and its record.
type Duo struct {
	ID        string `json:"id"`
	GVC1ID    int    `json:"gvc1Id"`
	GVC2ID    int    `json:"gvc2Id"`
	Name1     string `json:"name1"`
	Name2     string `json:"name2"`
	URL1      string `json:"url1"`
	URL2      string `json:"url2"`
	Owner     string `json:"owner"`
	Wins      int    `json:"wins"`
	Losses    int    `json:"losses"`
	Matches   int    `json:"matches"`
	Elo       int    `json:"elo"`
	CreatedAt int64  `json:"createdAt"`
}

// WinRate returns wins/matches, with no matches counting as zero.
func (d Duo) WinRate() float64 {
	if d.Matches == 0 {
		return 0
	}
	return float64(d.Wins) / float64(d.Matches)
}

// CanonicalID builds the duo id from its two item ids, lower id first.
func CanonicalID(id1, id2 int) string {
	lo, hi := id1, id2
	if lo > hi {
		lo, hi = hi, lo
	}
	return strconv.Itoa(lo) + "-" + strconv.Itoa(hi)
}

// Engine implements the duos game.
type Engine struct {
	store repository.Store
	cat   *catalog.Catalog
	log   logger.Logger

	dailyQuota int
	now        func() time.Time
	rng        *rand.Rand
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithDailyQuota sets the per-device daily vote limit.
func WithDailyQuota(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.dailyQuota = n
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRand injects the random source used for matchup draws.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// New creates a duos engine over the given catalog.
func New(store repository.Store, cat *catalog.Catalog, log logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		cat:        cat,
		log:        log,
		dailyQuota: defaultDailyQuota,
		now:        time.Now,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // matchup sampling, not security
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit registers a new duo. Both items must exist and neither may already
// belong to an active duo; a conflict leaves the store untouched.
func (e *Engine) Submit(ctx context.Context, id1, id2 int, owner string) (Duo, error) {
	if id1 == id2 {
		return Duo{}, ErrSamePair
	}
	if owner == "" {
		return Duo{}, ErrMissingOwner
	}
	it1, ok := e.cat.Get(id1)
	if !ok {
		return Duo{}, fmt.Errorf("%w: %d", ErrUnknownItem, id1)
	}
	it2, ok := e.cat.Get(id2)
	if !ok {
		return Duo{}, fmt.Errorf("%w: %d", ErrUnknownItem, id2)
	}

	for _, id := range []int{id1, id2} {
		taken, found, err := e.store.Get(ctx, gvcPrefix+strconv.Itoa(id))
		if err != nil {
			return Duo{}, fmt.Errorf("check reverse index: %w", err)
		}
		if found && taken != "" {
			return Duo{}, fmt.Errorf("%w: item %d is in duo %s", ErrItemTaken, id, taken)
		}
	}

	d := Duo{
		ID:        CanonicalID(id1, id2),
		GVC1ID:    it1.ID,
		GVC2ID:    it2.ID,
		Name1:     it1.Name,
		Name2:     it2.Name,
		URL1:      it1.URL,
		URL2:      it2.URL,
		Owner:     owner,
		Elo:       elo.BaseRating,
		CreatedAt: e.now().UnixMilli(),
	}
	if err := e.write(ctx, d); err != nil {
		return Duo{}, err
	}
	if err := e.store.ZAdd(ctx, allKey, float64(d.CreatedAt), d.ID); err != nil {
		return Duo{}, fmt.Errorf("index duo: %w", err)
	}
	for _, id := range []int{id1, id2} {
		if _, err := e.store.Set(ctx, gvcPrefix+strconv.Itoa(id), d.ID); err != nil {
			return Duo{}, fmt.Errorf("write reverse index: %w", err)
		}
	}
	if err := e.store.SAdd(ctx, walletPrefix+strings.ToLower(owner), d.ID); err != nil {
		return Duo{}, fmt.Errorf("index wallet: %w", err)
	}

	metrics.RecordDuoCreated()
	e.log.Info(ctx, "duo submitted",
		logger.String("duo", d.ID),
		logger.String("owner", owner),
	)
	return d, nil
}

// Delete removes a duo and every index pointing at it. Only the submitting
// wallet may delete, compared case-insensitively.
func (e *Engine) Delete(ctx context.Context, duoID, wallet string) error {
	d, found, err := e.Get(ctx, duoID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	if !strings.EqualFold(d.Owner, wallet) {
		return ErrNotOwner
	}

	if err := e.store.Del(ctx,
		keyPrefix+d.ID,
		gvcPrefix+strconv.Itoa(d.GVC1ID),
		gvcPrefix+strconv.Itoa(d.GVC2ID),
	); err != nil {
		return fmt.Errorf("delete duo: %w", err)
	}
	if err := e.store.ZRem(ctx, allKey, d.ID); err != nil {
		return fmt.Errorf("deindex duo: %w", err)
	}
	if err := e.store.SRem(ctx, walletPrefix+strings.ToLower(d.Owner), d.ID); err != nil {
		return fmt.Errorf("deindex wallet: %w", err)
	}

	metrics.RecordDuoDeleted()
	e.log.Info(ctx, "duo deleted", logger.String("duo", d.ID))
	return nil
}

// Get reads one duo by id.
func (e *Engine) Get(ctx context.Context, duoID string) (Duo, bool, error) {
	h, err := e.store.HGetAll(ctx, keyPrefix+duoID)
	if err != nil {
		return Duo{}, false, fmt.Errorf("read duo: %w", err)
	}
	if len(h) == 0 {
		return Duo{}, false, nil
	}
	return parseDuo(duoID, h), true, nil
}

// Matchup draws two distinct duos uniformly at random.
func (e *Engine) Matchup(ctx context.Context) (Duo, Duo, error) {
	ids, err := e.store.ZRange(ctx, allKey, 0, -1)
	if err != nil {
		return Duo{}, Duo{}, fmt.Errorf("list duos: %w", err)
	}
	if len(ids) < 2 {
		return Duo{}, Duo{}, ErrNotEnoughDuos
	}

	i := e.rng.Intn(len(ids))
	j := e.rng.Intn(len(ids) - 1)
	if j >= i {
		j++
	}
	a, foundA, err := e.Get(ctx, ids[i])
	if err != nil {
		return Duo{}, Duo{}, err
	}
	b, foundB, err := e.Get(ctx, ids[j])
	if err != nil {
		return Duo{}, Duo{}, err
	}
	if !foundA || !foundB {
		return Duo{}, Duo{}, ErrNotFound
	}
	return a, b, nil
}

// Leaderboard returns every duo in display order.
func (e *Engine) Leaderboard(ctx context.Context) ([]Duo, error) {
	ids, err := e.store.ZRange(ctx, allKey, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("list duos: %w", err)
	}

	out := make([]Duo, 0, len(ids))
	for _, id := range ids {
		d, found, err := e.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if ar, br := a.WinRate(), b.WinRate(); ar != br {
			return ar > br
		}
		return a.ID < b.ID
	})
	return out, nil
}

// MyDuos returns every duo a wallet has submitted.
func (e *Engine) MyDuos(ctx context.Context, wallet string) ([]Duo, error) {
	ids, err := e.store.SMembers(ctx, walletPrefix+strings.ToLower(wallet))
	if err != nil {
		return nil, fmt.Errorf("list wallet duos: %w", err)
	}
	sort.Strings(ids)

	out := make([]Duo, 0, len(ids))
	for _, id := range ids {
		d, found, err := e.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, d)
		}
	}
	return out, nil
}

func (e *Engine) write(ctx context.Context, d Duo) error {
	err := e.store.HSet(ctx, keyPrefix+d.ID, map[string]string{
		"gvc1Id":    strconv.Itoa(d.GVC1ID),
		"gvc2Id":    strconv.Itoa(d.GVC2ID),
		"name1":     d.Name1,
		"name2":     d.Name2,
		"url1":      d.URL1,
		"url2":      d.URL2,
		"owner":     d.Owner,
		"wins":      strconv.Itoa(d.Wins),
		"losses":    strconv.Itoa(d.Losses),
		"matches":   strconv.Itoa(d.Matches),
		"elo":       strconv.Itoa(d.Elo),
		"createdAt": strconv.FormatInt(d.CreatedAt, 10),
	})
	if err != nil {
		return fmt.Errorf("write duo: %w", err)
	}
	return nil
}

func parseDuo(id string, h map[string]string) Duo {
	d := Duo{
		ID:      id,
		Name1:   h["name1"],
		Name2:   h["name2"],
		URL1:    h["url1"],
		URL2:    h["url2"],
		Owner:   h["owner"],
		Elo:     elo.BaseRating,
	}
	d.GVC1ID, _ = strconv.Atoi(h["gvc1Id"])
	d.GVC2ID, _ = strconv.Atoi(h["gvc2Id"])
	d.Wins, _ = strconv.Atoi(h["wins"])
	d.Losses, _ = strconv.Atoi(h["losses"])
	d.Matches, _ = strconv.Atoi(h["matches"])
	if v, err := strconv.Atoi(h["elo"]); err == nil {
		d.Elo = v
	}
	d.CreatedAt, _ = strconv.ParseInt(h["createdAt"], 10, 64)
	return d
}
