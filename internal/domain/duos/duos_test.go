package duos_test

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/goodvibesclub/vibeoff/internal/adapters/repository"
	"github.com/goodvibesclub/vibeoff/internal/domain/catalog"
	"github.com/goodvibesclub/vibeoff/internal/domain/duos"
	"github.com/goodvibesclub/vibeoff/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newFixture(t *testing.T, opts ...duos.Option) (*duos.Engine, repository.Store) {
	t.Helper()
	store := repository.NewMemStore(context.Background(),
		repository.WithJanitorInterval(time.Hour))
	t.Cleanup(func() { _ = store.Close() })

	base := []duos.Option{duos.WithRand(rand.New(rand.NewSource(11)))}
	return duos.New(store, catalog.Synthetic(100), logger.Get(), append(base, opts...)...), store
}

func TestCanonicalID(t *testing.T) {
	if got := duos.CanonicalID(42, 7); got != "7-42" {
		t.Errorf("CanonicalID(42, 7) = %q, want 7-42", got)
	}
	if got := duos.CanonicalID(7, 42); got != "7-42" {
		t.Errorf("CanonicalID(7, 42) = %q, want 7-42", got)
	}
}

func TestSubmit(t *testing.T) {
	Convey("Given an empty duos game", t, func() {
		e, store := newFixture(t)
		ctx := context.Background()

		Convey("When submitting a valid pair", func() {
			d, err := e.Submit(ctx, 42, 7, "0xOwner")
			So(err, ShouldBeNil)

			Convey("Then the duo is created with a canonical id and base rating", func() {
				So(d.ID, ShouldEqual, "7-42")
				So(d.Elo, ShouldEqual, 1000)
				So(d.Name1, ShouldEqual, "Vibe #42")
				So(d.Name2, ShouldEqual, "Vibe #7")
			})

			Convey("Then it is listed under its wallet case-insensitively", func() {
				mine, err := e.MyDuos(ctx, "0XOWNER")
				So(err, ShouldBeNil)
				So(len(mine), ShouldEqual, 1)
				So(mine[0].ID, ShouldEqual, "7-42")
			})
		})

		Convey("When submitting invalid input", func() {
			_, err := e.Submit(ctx, 5, 5, "0xOwner")
			So(err, ShouldEqual, duos.ErrSamePair)

			_, err = e.Submit(ctx, 5, 9999, "0xOwner")
			So(errors.Is(err, duos.ErrUnknownItem), ShouldBeTrue)

			_, err = e.Submit(ctx, 5, 6, "")
			So(err, ShouldEqual, duos.ErrMissingOwner)
		})

		Convey("When an item is already in an active duo", func() {
			_, err := e.Submit(ctx, 1, 2, "0xA")
			So(err, ShouldBeNil)

			_, err = e.Submit(ctx, 2, 3, "0xB")

			Convey("Then the submission conflicts and mutates nothing", func() {
				So(errors.Is(err, duos.ErrItemTaken), ShouldBeTrue)

				_, found, _ := store.Get(ctx, "duos:gvc:3")
				So(found, ShouldBeFalse)
				_, found, _ = e.Get(ctx, duos.CanonicalID(2, 3))
				So(found, ShouldBeFalse)
				mine, _ := e.MyDuos(ctx, "0xB")
				So(len(mine), ShouldEqual, 0)
			})
		})
	})
}

func TestDelete(t *testing.T) {
	Convey("Given a submitted duo", t, func() {
		e, store := newFixture(t)
		ctx := context.Background()

		d, err := e.Submit(ctx, 1, 2, "0xOwner")
		So(err, ShouldBeNil)

		Convey("When a stranger tries to delete it", func() {
			err := e.Delete(ctx, d.ID, "0xSomeoneElse")
			So(err, ShouldEqual, duos.ErrNotOwner)
		})

		Convey("When the owner deletes it with different casing", func() {
			err := e.Delete(ctx, d.ID, "0XOWNER")
			So(err, ShouldBeNil)

			Convey("Then the record and every index are gone", func() {
				_, found, _ := e.Get(ctx, d.ID)
				So(found, ShouldBeFalse)

				for _, id := range []int{1, 2} {
					_, found, _ := store.Get(ctx, "duos:gvc:"+strconv.Itoa(id))
					So(found, ShouldBeFalse)
				}
				mine, _ := e.MyDuos(ctx, "0xOwner")
				So(len(mine), ShouldEqual, 0)
			})

			Convey("Then both items are free for a new duo", func() {
				_, err := e.Submit(ctx, 1, 3, "0xOther")
				So(err, ShouldBeNil)
			})
		})

		Convey("When deleting a duo that does not exist", func() {
			err := e.Delete(ctx, "998-999", "0xOwner")
			So(err, ShouldEqual, duos.ErrNotFound)
		})
	})
}

func TestVote(t *testing.T) {
	Convey("Given two duos", t, func() {
		e, _ := newFixture(t)
		ctx := context.Background()

		a, err := e.Submit(ctx, 1, 2, "0xA")
		So(err, ShouldBeNil)
		b, err := e.Submit(ctx, 3, 4, "0xB")
		So(err, ShouldBeNil)

		Convey("When one beats the other", func() {
			out, err := e.Vote(ctx, a.ID, b.ID, "device-1")
			So(err, ShouldBeNil)

			Convey("Then counters and ratings update like the main game", func() {
				So(out.Winner.Wins, ShouldEqual, 1)
				So(out.Winner.Matches, ShouldEqual, 1)
				So(out.Loser.Losses, ShouldEqual, 1)
				So(out.Loser.Matches, ShouldEqual, 1)
				So(out.Winner.Elo, ShouldEqual, 1016)
				So(out.Loser.Elo, ShouldEqual, 984)
			})

			Convey("Then one quota unit is spent", func() {
				So(out.Quota.Used, ShouldEqual, 1)
				So(out.Quota.Remaining, ShouldEqual, 9)
			})
		})

		Convey("When a device exhausts its daily quota", func() {
			small, _ := newFixtureWithQuota(t, 2)
			a2, err := small.Submit(ctx, 1, 2, "0xA")
			So(err, ShouldBeNil)
			b2, err := small.Submit(ctx, 3, 4, "0xB")
			So(err, ShouldBeNil)

			for i := 0; i < 2; i++ {
				_, err := small.Vote(ctx, a2.ID, b2.ID, "device-1")
				So(err, ShouldBeNil)
			}
			_, err = small.Vote(ctx, a2.ID, b2.ID, "device-1")

			Convey("Then further votes are rejected but other devices continue", func() {
				So(err, ShouldEqual, duos.ErrQuotaExceeded)

				_, err := small.Vote(ctx, b2.ID, a2.ID, "device-2")
				So(err, ShouldBeNil)
			})
		})

		Convey("When the vote is malformed", func() {
			_, err := e.Vote(ctx, a.ID, b.ID, "")
			So(err, ShouldEqual, duos.ErrMissingDevice)

			_, err = e.Vote(ctx, a.ID, a.ID, "device-1")
			So(err, ShouldEqual, duos.ErrSamePair)

			_, err = e.Vote(ctx, a.ID, "998-999", "device-1")
			So(err, ShouldEqual, duos.ErrNotFound)
		})
	})
}

func newFixtureWithQuota(t *testing.T, quota int) (*duos.Engine, repository.Store) {
	t.Helper()
	store := repository.NewMemStore(context.Background(),
		repository.WithJanitorInterval(time.Hour))
	t.Cleanup(func() { _ = store.Close() })
	e := duos.New(store, catalog.Synthetic(100), logger.Get(),
		duos.WithDailyQuota(quota),
		duos.WithRand(rand.New(rand.NewSource(11))))
	return e, store
}

func TestMatchupAndLeaderboard(t *testing.T) {
	Convey("Given three duos with different records", t, func() {
		e, _ := newFixture(t)
		ctx := context.Background()

		a, _ := e.Submit(ctx, 1, 2, "0xA")
		b, _ := e.Submit(ctx, 3, 4, "0xB")
		c, _ := e.Submit(ctx, 5, 6, "0xC")

		// a beats b twice, c beats b once.
		for i := 0; i < 2; i++ {
			_, err := e.Vote(ctx, a.ID, b.ID, "device-1")
			So(err, ShouldBeNil)
		}
		_, err := e.Vote(ctx, c.ID, b.ID, "device-1")
		So(err, ShouldBeNil)

		Convey("Then the leaderboard orders by wins then win rate", func() {
			lb, err := e.Leaderboard(ctx)
			So(err, ShouldBeNil)
			So(len(lb), ShouldEqual, 3)
			So(lb[0].ID, ShouldEqual, a.ID)
			So(lb[1].ID, ShouldEqual, c.ID)
			So(lb[2].ID, ShouldEqual, b.ID)
		})

		Convey("Then matchups draw two distinct duos", func() {
			for i := 0; i < 50; i++ {
				x, y, err := e.Matchup(ctx)
				So(err, ShouldBeNil)
				So(x.ID, ShouldNotEqual, y.ID)
			}
		})
	})
}

func TestMatchupNeedsTwoDuos(t *testing.T) {
	Convey("Given a single duo", t, func() {
		e, _ := newFixture(t)
		ctx := context.Background()

		_, err := e.Submit(ctx, 1, 2, "0xA")
		So(err, ShouldBeNil)

		_, _, err = e.Matchup(ctx)
		So(err, ShouldEqual, duos.ErrNotEnoughDuos)
	})
}
