package votes_test

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/goodvibesclub/vibeoff/internal/adapters/repository"
	"github.com/goodvibesclub/vibeoff/internal/domain/catalog"
	"github.com/goodvibesclub/vibeoff/internal/domain/period"
	"github.com/goodvibesclub/vibeoff/internal/domain/votes"
	"github.com/goodvibesclub/vibeoff/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newFixture(t *testing.T) (*votes.Processor, repository.Store) {
	t.Helper()
	store := repository.NewMemStore(context.Background(),
		repository.WithJanitorInterval(time.Hour))
	t.Cleanup(func() { _ = store.Close() })
	return votes.NewProcessor(store, catalog.Synthetic(20), logger.Get()), store
}

func TestProcessor_Validation(t *testing.T) {
	Convey("Given a vote processor", t, func() {
		p, store := newFixture(t)
		ctx := context.Background()

		Convey("When winner and loser are the same id", func() {
			_, err := p.Process(ctx, 5, 5)

			Convey("Then the vote is rejected before any write", func() {
				So(err, ShouldEqual, votes.ErrSamePair)
				wins, _, _ := store.HGet(ctx, period.AllTime.StatsKey(5), "wins")
				So(wins, ShouldBeEmpty)
			})
		})

		Convey("When an id is outside the catalog", func() {
			_, err := p.Process(ctx, 5, 9999)

			Convey("Then the vote is rejected", func() {
				So(err, ShouldNotBeNil)
				total, found, _ := store.Get(ctx, "global:votes")
				So(found, ShouldBeFalse)
				So(total, ShouldBeEmpty)
			})
		})
	})
}

func TestProcessor_BasicVote(t *testing.T) {
	Convey("Given item 5 unplayed and item 9 at 2W/1L elo 1020", t, func() {
		p, store := newFixture(t)
		ctx := context.Background()

		for _, per := range period.All {
			So(store.HSet(ctx, per.StatsKey(9), map[string]string{
				"wins": "2", "losses": "1", "matches": "3", "elo": "1020",
			}), ShouldBeNil)
		}

		Convey("When item 5 beats item 9", func() {
			out, err := p.Process(ctx, 5, 9)
			So(err, ShouldBeNil)

			Convey("Then counters update in both periods", func() {
				for _, per := range period.All {
					w := votes.ParseStats(mustHash(store, per.StatsKey(5)))
					l := votes.ParseStats(mustHash(store, per.StatsKey(9)))
					So(w.Wins, ShouldEqual, 1)
					So(w.Losses, ShouldEqual, 0)
					So(w.Matches, ShouldEqual, 1)
					So(l.Wins, ShouldEqual, 2)
					So(l.Losses, ShouldEqual, 2)
					So(l.Matches, ShouldEqual, 4)
				}
			})

			Convey("Then ratings follow the logistic update", func() {
				So(out.Winner.Elo, ShouldEqual, 1017)
				So(out.Loser.Elo, ShouldEqual, 1005)
			})

			Convey("Then the streaks follow the streak law", func() {
				So(out.Winner.WinStreak, ShouldEqual, 1)
				So(out.Loser.WinStreak, ShouldEqual, 0)
			})

			Convey("Then the leaderboard score mirrors the wins field", func() {
				rank, found, _ := store.ZRevRank(ctx, period.AllTime.LeaderboardKey(), "5")
				So(found, ShouldBeTrue)
				So(rank, ShouldEqual, 0)
			})

			Convey("Then the global counter advances", func() {
				total, found, _ := store.Get(ctx, "global:votes")
				So(found, ShouldBeTrue)
				So(total, ShouldEqual, "1")
			})
		})
	})
}

func TestProcessor_AdditivityInvariant(t *testing.T) {
	Convey("Given a burst of votes across a small catalog", t, func() {
		p, store := newFixture(t)
		ctx := context.Background()

		pairs := [][2]int{{1, 2}, {2, 1}, {3, 1}, {1, 3}, {2, 3}, {1, 2}, {3, 2}}
		for _, pr := range pairs {
			_, err := p.Process(ctx, pr[0], pr[1])
			So(err, ShouldBeNil)
		}

		Convey("Then matches == wins + losses for every item in every period", func() {
			for id := 1; id <= 3; id++ {
				for _, per := range period.All {
					s := votes.ParseStats(mustHash(store, per.StatsKey(id)))
					So(s.Matches, ShouldEqual, s.Wins+s.Losses)
				}
			}
		})
	})
}

func TestProcessor_StreakLaw(t *testing.T) {
	Convey("Given a sequence of wins then a loss", t, func() {
		p, store := newFixture(t)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			_, err := p.Process(ctx, 7, 8)
			So(err, ShouldBeNil)
		}

		s := votes.ParseStats(mustHash(store, period.AllTime.StatsKey(7)))
		So(s.WinStreak, ShouldEqual, 3)

		Convey("When the streak holder loses once", func() {
			_, err := p.Process(ctx, 8, 7)
			So(err, ShouldBeNil)

			Convey("Then the streak resets to zero regardless of its size", func() {
				s := votes.ParseStats(mustHash(store, period.AllTime.StatsKey(7)))
				So(s.WinStreak, ShouldEqual, 0)
			})
		})
	})
}

func TestProcessor_HistoryCap(t *testing.T) {
	Convey("Given far more votes than the history cap", t, func() {
		p, store := newFixture(t)
		ctx := context.Background()

		for i := 0; i < 60; i++ {
			_, err := p.Process(ctx, 1, 2)
			So(err, ShouldBeNil)
		}

		Convey("Then each item's history holds exactly the newest 50 entries", func() {
			for _, id := range []int{1, 2} {
				rows, err := store.LRange(ctx, "history:"+strconv.Itoa(id), 0, -1)
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 50)
			}
		})

		Convey("Then entries read back most-recent-first", func() {
			rows, _ := store.LRange(ctx, "history:1", 0, -1)
			var prev int64 = 1<<62 - 1
			for _, row := range rows {
				var e votes.HistoryEntry
				So(json.Unmarshal([]byte(row), &e), ShouldBeNil)
				So(e.Result, ShouldEqual, "W")
				So(e.OpponentID, ShouldEqual, 2)
				So(e.Timestamp, ShouldBeLessThanOrEqualTo, prev)
				prev = e.Timestamp
			}
		})

		Convey("Then the global feed is capped too", func() {
			rows, _ := store.LRange(ctx, "history:global", 0, -1)
			So(len(rows), ShouldEqual, 50)
		})
	})
}

func TestProcessor_VolumeBuckets(t *testing.T) {
	Convey("Given a processor with a fixed clock", t, func() {
		store := repository.NewMemStore(context.Background(),
			repository.WithJanitorInterval(time.Hour))
		defer store.Close()

		fixed := time.Unix(1_700_000_000, 0)
		p := votes.NewProcessor(store, catalog.Synthetic(5), logger.Get(),
			votes.WithClock(func() time.Time { return fixed }))
		ctx := context.Background()

		Convey("When three votes land in the same ten-minute window", func() {
			for i := 0; i < 3; i++ {
				_, err := p.Process(ctx, 1, 2)
				So(err, ShouldBeNil)
			}

			Convey("Then the window's bucket counts all three with a TTL", func() {
				bucket := fixed.Unix() / 600
				key := "stats:vol:" + strconv.FormatInt(bucket, 10)
				v, found, _ := store.Get(ctx, key)
				So(found, ShouldBeTrue)
				So(v, ShouldEqual, "3")
				ttl, found, _ := store.TTL(ctx, key)
				So(found, ShouldBeTrue)
				So(ttl, ShouldBeGreaterThan, 23*time.Hour)
			})
		})
	})
}

func mustHash(store repository.Store, key string) map[string]string {
	h, err := store.HGetAll(context.Background(), key)
	if err != nil {
		panic(err)
	}
	return h
}
