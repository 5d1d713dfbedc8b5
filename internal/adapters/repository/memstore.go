package repository

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/goodvibesclub/vibeoff/pkg/metrics"
)

// In-memory Store implementation.
//
// One RWMutex guards the whole keyspace; every exported operation is atomic
// with respect to other operations, which matches the per-key atomicity the
// game relies on. TTLs are enforced lazily on access plus a janitor goroutine
// that sweeps expired keys in the background.

type kind uint8

const (
	kindString kind = iota
	kindHash
	kindZSet
	kindSet
	kindList
)

type entry struct {
	kind     kind
	expireAt time.Time // zero means no expiry

	str  string
	hash map[string]string
	zs   *zset
	set  map[string]struct{}
	list []string
}

// MemStore is the bundled in-process store. Production deployments swap in an
// adapter speaking to the external KV service behind the same interface.
type MemStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	rng     *rand.Rand

	now             func() time.Time
	janitorInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	closed   bool
}

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithClock injects the time source, letting tests drive TTL expiry.
func WithClock(now func() time.Time) Option {
	return func(s *MemStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithJanitorInterval sets how often expired keys are swept.
func WithJanitorInterval(interval time.Duration) Option {
	return func(s *MemStore) {
		if interval > 0 {
			s.janitorInterval = interval
		}
	}
}

// NewMemStore constructs a memory store and starts its janitor.
func NewMemStore(ctx context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		entries:         make(map[string]*entry),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // treap priorities, not security
		now:             time.Now,
		janitorInterval: time.Second,
		stopChan:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startJanitor(ctx)
	return s
}

func (s *MemStore) startJanitor(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.janitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *MemStore) sweep() {
	now := s.now()
	s.mu.Lock()
	for key, e := range s.entries {
		if !e.expireAt.IsZero() && now.After(e.expireAt) {
			delete(s.entries, key)
		}
	}
	count := len(s.entries)
	s.mu.Unlock()
	metrics.UpdateStoreKeys(count)
}

// Close stops the janitor goroutine.
func (s *MemStore) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.stopChan)
	}
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

// live returns the entry for key, treating expired entries as absent.
// Callers must hold at least the read lock.
func (s *MemStore) live(key string) *entry {
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	if !e.expireAt.IsZero() && s.now().After(e.expireAt) {
		return nil
	}
	return e
}

// mutable returns an entry of the wanted kind, creating it if needed.
// Callers must hold the write lock. An expired entry is replaced.
func (s *MemStore) mutable(key string, k kind) (*entry, error) {
	e, ok := s.entries[key]
	if ok && (!e.expireAt.IsZero() && s.now().After(e.expireAt)) {
		ok = false
	}
	if !ok {
		e = &entry{kind: k}
		switch k {
		case kindHash:
			e.hash = make(map[string]string)
		case kindZSet:
			e.zs = newZSet(s.rng)
		case kindSet:
			e.set = make(map[string]struct{})
		case kindString, kindList:
		}
		s.entries[key] = e
		return e, nil
	}
	if e.kind != k {
		metrics.RecordStoreError()
		return nil, ErrWrongType
	}
	return e, nil
}

func observe(start time.Time) {
	metrics.RecordStoreOpLatency(float64(time.Since(start).Microseconds()) / 1000.0)
}

// --- Strings ---

func (s *MemStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.live(key)
	if e == nil {
		return "", false, nil
	}
	if e.kind != kindString {
		return "", false, ErrWrongType
	}
	return e.str, true, nil
}

func (s *MemStore) MGet(ctx context.Context, keys ...string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(keys))
	for i, key := range keys {
		if e := s.live(key); e != nil && e.kind == kindString {
			out[i] = e.str
		}
	}
	return out, nil
}

func (s *MemStore) Set(ctx context.Context, key, value string, opts ...SetOption) (bool, error) {
	var o SetOptions
	for _, opt := range opts {
		opt(&o)
	}

	defer observe(s.now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.IfNotExists && s.live(key) != nil {
		return false, nil
	}
	e := &entry{kind: kindString, str: value}
	if o.TTL > 0 {
		e.expireAt = s.now().Add(o.TTL)
	}
	s.entries[key] = e
	return true, nil
}

func (s *MemStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.entries, key)
	}
	return nil
}

func (s *MemStore) Incr(ctx context.Context, key string) (int64, error) {
	defer observe(s.now())
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.mutable(key, kindString)
	if err != nil {
		return 0, err
	}
	n := parseInt64(e.str) + 1
	e.str = formatInt64(n)
	return n, nil
}

func (s *MemStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil {
		return false, nil
	}
	e.expireAt = s.now().Add(ttl)
	return true, nil
}

func (s *MemStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.live(key)
	if e == nil {
		return 0, false, nil
	}
	if e.expireAt.IsZero() {
		return 0, true, nil
	}
	return e.expireAt.Sub(s.now()), true, nil
}

// --- Hashes ---

func (s *MemStore) HGet(ctx context.Context, key, field string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hgetLocked(key, field)
}

func (s *MemStore) hgetLocked(key, field string) (string, bool, error) {
	e := s.live(key)
	if e == nil {
		return "", false, nil
	}
	if e.kind != kindHash {
		return "", false, ErrWrongType
	}
	v, ok := e.hash[field]
	return v, ok, nil
}

func (s *MemStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hgetallLocked(key)
}

func (s *MemStore) hgetallLocked(key string) (map[string]string, error) {
	e := s.live(key)
	if e == nil {
		return map[string]string{}, nil
	}
	if e.kind != kindHash {
		return nil, ErrWrongType
	}
	out := make(map[string]string, len(e.hash))
	for k, v := range e.hash {
		out[k] = v
	}
	return out, nil
}

func (s *MemStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	defer observe(s.now())
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.mutable(key, kindHash)
	if err != nil {
		return err
	}
	for k, v := range fields {
		e.hash[k] = v
	}
	return nil
}

func (s *MemStore) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	defer observe(s.now())
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.mutable(key, kindHash)
	if err != nil {
		return 0, err
	}
	n := parseInt64(e.hash[field]) + delta
	e.hash[field] = formatInt64(n)
	return n, nil
}

// --- Sorted sets ---

func (s *MemStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	defer observe(s.now())
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.mutable(key, kindZSet)
	if err != nil {
		return err
	}
	e.zs.add(member, score)
	return nil
}

func (s *MemStore) ZCard(ctx context.Context, key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.live(key)
	if e == nil {
		return 0, nil
	}
	if e.kind != kindZSet {
		return 0, ErrWrongType
	}
	return e.zs.card(), nil
}

func (s *MemStore) ZRange(ctx context.Context, key string, start, stop int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.live(key)
	if e == nil {
		return nil, nil
	}
	if e.kind != kindZSet {
		return nil, ErrWrongType
	}
	lo, hi, ok := normalizeRange(start, stop, e.zs.card())
	if !ok {
		return nil, nil
	}
	return e.zs.rangeAsc(lo, hi), nil
}

func (s *MemStore) ZRevRange(ctx context.Context, key string, start, stop int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.live(key)
	if e == nil {
		return nil, nil
	}
	if e.kind != kindZSet {
		return nil, ErrWrongType
	}
	n := e.zs.card()
	lo, hi, ok := normalizeRange(start, stop, n)
	if !ok {
		return nil, nil
	}
	// Descending index i maps to ascending index n-1-i.
	asc := e.zs.rangeAsc(n-1-hi, n-1-lo)
	for i, j := 0, len(asc)-1; i < j; i, j = i+1, j-1 {
		asc[i], asc[j] = asc[j], asc[i]
	}
	return asc, nil
}

func (s *MemStore) ZRevRank(ctx context.Context, key, member string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zrevrankLocked(key, member)
}

func (s *MemStore) zrevrankLocked(key, member string) (int, bool, error) {
	e := s.live(key)
	if e == nil {
		return 0, false, nil
	}
	if e.kind != kindZSet {
		return 0, false, ErrWrongType
	}
	rank, ok := e.zs.revRank(member)
	return rank, ok, nil
}

func (s *MemStore) ZRem(ctx context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil {
		return nil
	}
	if e.kind != kindZSet {
		return ErrWrongType
	}
	e.zs.rem(member)
	return nil
}

// --- Sets ---

func (s *MemStore) SAdd(ctx context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.mutable(key, kindSet)
	if err != nil {
		return err
	}
	e.set[member] = struct{}{}
	return nil
}

func (s *MemStore) SIsMember(ctx context.Context, key, member string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.live(key)
	if e == nil {
		return false, nil
	}
	if e.kind != kindSet {
		return false, ErrWrongType
	}
	_, ok := e.set[member]
	return ok, nil
}

func (s *MemStore) SMembers(ctx context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.live(key)
	if e == nil {
		return nil, nil
	}
	if e.kind != kindSet {
		return nil, ErrWrongType
	}
	out := make([]string, 0, len(e.set))
	for m := range e.set {
		out = append(out, m)
	}
	return out, nil
}

func (s *MemStore) SRem(ctx context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil {
		return nil
	}
	if e.kind != kindSet {
		return ErrWrongType
	}
	delete(e.set, member)
	return nil
}

// --- Lists ---

func (s *MemStore) LPush(ctx context.Context, key string, values ...string) error {
	defer observe(s.now())
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.mutable(key, kindList)
	if err != nil {
		return err
	}
	// LPush prepends; the newest value ends up at index 0.
	for _, v := range values {
		e.list = append([]string{v}, e.list...)
	}
	return nil
}

func (s *MemStore) LTrim(ctx context.Context, key string, start, stop int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil {
		return nil
	}
	if e.kind != kindList {
		return ErrWrongType
	}
	lo, hi, ok := normalizeRange(start, stop, len(e.list))
	if !ok {
		e.list = nil
		return nil
	}
	e.list = append([]string(nil), e.list[lo:hi+1]...)
	return nil
}

func (s *MemStore) LRange(ctx context.Context, key string, start, stop int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lrangeLocked(key, start, stop)
}

func (s *MemStore) lrangeLocked(key string, start, stop int) ([]string, error) {
	e := s.live(key)
	if e == nil {
		return nil, nil
	}
	if e.kind != kindList {
		return nil, ErrWrongType
	}
	lo, hi, ok := normalizeRange(start, stop, len(e.list))
	if !ok {
		return nil, nil
	}
	return append([]string(nil), e.list[lo:hi+1]...), nil
}

// --- Pipeline ---

type pipeCommand struct {
	op    string
	key   string
	field string
	start int
	stop  int
}

type memPipeline struct {
	store    *MemStore
	commands []pipeCommand
}

func (s *MemStore) Pipeline() Pipeline {
	return &memPipeline{store: s}
}

func (p *memPipeline) Get(key string) {
	p.commands = append(p.commands, pipeCommand{op: "get", key: key})
}

func (p *memPipeline) HGet(key, field string) {
	p.commands = append(p.commands, pipeCommand{op: "hget", key: key, field: field})
}

func (p *memPipeline) HGetAll(key string) {
	p.commands = append(p.commands, pipeCommand{op: "hgetall", key: key})
}

func (p *memPipeline) LRange(key string, start, stop int) {
	p.commands = append(p.commands, pipeCommand{op: "lrange", key: key, start: start, stop: stop})
}

func (p *memPipeline) ZRevRank(key, member string) {
	p.commands = append(p.commands, pipeCommand{op: "zrevrank", key: key, field: member})
}

func (p *memPipeline) Exec(ctx context.Context) ([]Result, error) {
	defer observe(p.store.now())
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()

	out := make([]Result, len(p.commands))
	for i, cmd := range p.commands {
		switch cmd.op {
		case "get":
			if e := p.store.live(cmd.key); e != nil && e.kind == kindString {
				out[i] = Result{Value: e.str, Found: true}
			}
		case "hget":
			v, ok, err := p.store.hgetLocked(cmd.key, cmd.field)
			if err != nil {
				return nil, err
			}
			out[i] = Result{Value: v, Found: ok}
		case "hgetall":
			h, err := p.store.hgetallLocked(cmd.key)
			if err != nil {
				return nil, err
			}
			out[i] = Result{Hash: h, Found: len(h) > 0}
		case "lrange":
			l, err := p.store.lrangeLocked(cmd.key, cmd.start, cmd.stop)
			if err != nil {
				return nil, err
			}
			out[i] = Result{List: l, Found: len(l) > 0}
		case "zrevrank":
			rank, ok, err := p.store.zrevrankLocked(cmd.key, cmd.field)
			if err != nil {
				return nil, err
			}
			out[i] = Result{Rank: rank, Found: ok}
		}
	}
	p.commands = nil
	return out, nil
}

// --- Admin ---

func (s *MemStore) FlushAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
	return nil
}

// normalizeRange converts Redis-style inclusive indexes (negative counts from
// the end) to concrete bounds. Returns ok=false when the range is empty.
func normalizeRange(start, stop, n int) (int, int, bool) {
	if n == 0 {
		return 0, 0, false
	}
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop, true
}

// parseInt64 treats unparsable or absent values as zero, matching how the
// game reads counters it may not have written yet.
func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func formatInt64(n int64) string {
	return strconv.FormatInt(n, 10)
}
