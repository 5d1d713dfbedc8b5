package daily_test

import (
	"testing"

	"github.com/goodvibesclub/vibeoff/internal/domain/daily"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMergeByDate(t *testing.T) {
	Convey("Given duplicate history entries for one date", t, func() {
		Convey("When both entries hold the same ordered pair", func() {
			merged := daily.MergeByDate([]daily.Archive{
				{Char1ID: 3, Char2ID: 7, Votes1: 5, Votes2: 2, DateKey: "2025-01-01"},
				{Char1ID: 3, Char2ID: 7, Votes1: 1, Votes2: 4, DateKey: "2025-01-01"},
			})

			Convey("Then votes sum per item and the winner is recomputed", func() {
				So(len(merged), ShouldEqual, 1)
				So(merged[0].Votes1, ShouldEqual, 6)
				So(merged[0].Votes2, ShouldEqual, 6)
				So(merged[0].WinnerID, ShouldEqual, 0) // 6-6 tie
			})
		})

		Convey("When the second entry has the pair reversed", func() {
			merged := daily.MergeByDate([]daily.Archive{
				{Char1ID: 3, Char2ID: 7, Votes1: 5, Votes2: 2, DateKey: "2025-01-01"},
				{Char1ID: 7, Char2ID: 3, Votes1: 1, Votes2: 4, DateKey: "2025-01-01"},
			})

			Convey("Then votes orient by the kept entry's char1", func() {
				So(len(merged), ShouldEqual, 1)
				So(merged[0].Char1ID, ShouldEqual, 3)
				So(merged[0].Votes1, ShouldEqual, 9) // 5 + reversed 4
				So(merged[0].Votes2, ShouldEqual, 3) // 2 + reversed 1
				So(merged[0].WinnerID, ShouldEqual, 3)
			})
		})

		Convey("When two different pairs share the date", func() {
			merged := daily.MergeByDate([]daily.Archive{
				{Char1ID: 3, Char2ID: 7, Votes1: 2, Votes2: 1, DateKey: "2025-01-01"},
				{Char1ID: 10, Char2ID: 20, Votes1: 8, Votes2: 5, DateKey: "2025-01-01"},
			})

			Convey("Then the higher-turnout pair wins the slot", func() {
				So(len(merged), ShouldEqual, 1)
				So(merged[0].Char1ID, ShouldEqual, 10)
				So(merged[0].Votes1, ShouldEqual, 8)
				So(merged[0].WinnerID, ShouldEqual, 10)
			})
		})

		Convey("When dates differ nothing merges and order is preserved", func() {
			merged := daily.MergeByDate([]daily.Archive{
				{Char1ID: 1, Char2ID: 2, Votes1: 1, DateKey: "2025-01-02"},
				{Char1ID: 3, Char2ID: 4, Votes1: 2, DateKey: "2025-01-01"},
			})
			So(len(merged), ShouldEqual, 2)
			So(merged[0].DateKey, ShouldEqual, "2025-01-02")
			So(merged[1].DateKey, ShouldEqual, "2025-01-01")
		})
	})
}
