// Package owners tracks which wallet holds each item. Ownership data is
// presentational only: it decorates leaderboards and collector rollups and is
// never consulted by game logic.
package owners

import (
	"context"
	"strconv"
	"time"

	"github.com/goodvibesclub/vibeoff/internal/adapters/repository"
)

const keyPrefix = "owner:"

// Record is one item's ownership snapshot.
type Record struct {
	Address    string `json:"address"`
	Username   string `json:"username,omitempty"`
	LastSynced int64  `json:"lastSynced,omitempty"`
}

// Key returns the store key for an item's owner record.
func Key(itemID int) string {
	return keyPrefix + strconv.Itoa(itemID)
}

func parseRecord(h map[string]string) (Record, bool) {
	if len(h) == 0 {
		return Record{}, false
	}
	r := Record{
		Address:  h["address"],
		Username: h["username"],
	}
	if v, err := strconv.ParseInt(h["lastSynced"], 10, 64); err == nil {
		r.LastSynced = v
	}
	return r, r.Address != "" || r.Username != ""
}

// Read fetches owner records for the given item ids in one pipelined round
// trip. Missing records are simply absent from the result.
func Read(ctx context.Context, store repository.Store, ids []int) (map[int]Record, error) {
	if len(ids) == 0 {
		return map[int]Record{}, nil
	}
	p := store.Pipeline()
	for _, id := range ids {
		p.HGetAll(Key(id))
	}
	results, err := p.Exec(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int]Record, len(ids))
	for i, res := range results {
		if r, ok := parseRecord(res.Hash); ok {
			out[ids[i]] = r
		}
	}
	return out, nil
}

// write stores one owner record with the sync timestamp.
func write(ctx context.Context, store repository.Store, itemID int, r Record, now time.Time) error {
	return store.HSet(ctx, Key(itemID), map[string]string{
		"address":    r.Address,
		"username":   r.Username,
		"lastSynced": strconv.FormatInt(now.UnixMilli(), 10),
	})
}
