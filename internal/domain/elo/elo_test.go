package elo

import (
	"math"
	"testing"
)

func TestExpected(t *testing.T) {
	tests := []struct {
		name string
		a, b int
		want float64
	}{
		{"equal ratings", 1000, 1000, 0.5},
		{"slight underdog", 1000, 1020, 0.4714},
		{"heavy favorite", 1400, 1000, 0.9091},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Expected(tt.a, tt.b)
			if math.Abs(got-tt.want) > 0.0001 {
				t.Errorf("Expected(%d, %d) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestExpectedIsComplementary(t *testing.T) {
	for _, pair := range [][2]int{{1000, 1000}, {900, 1350}, {1017, 1005}} {
		sum := Expected(pair[0], pair[1]) + Expected(pair[1], pair[0])
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("Expected(%d,%d)+Expected(%d,%d) = %f, want 1",
				pair[0], pair[1], pair[1], pair[0], sum)
		}
	}
}

func TestNext(t *testing.T) {
	tests := []struct {
		name           string
		winner, loser  int
		wantW, wantL   int
	}{
		{"underdog beats favorite", 1000, 1020, 1017, 1005},
		{"even match", 1000, 1000, 1016, 984},
		{"favorite wins small", 1400, 1000, 1403, 971},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotW, gotL := Next(tt.winner, tt.loser)
			if gotW != tt.wantW || gotL != tt.wantL {
				t.Errorf("Next(%d, %d) = (%d, %d), want (%d, %d)",
					tt.winner, tt.loser, gotW, gotL, tt.wantW, tt.wantL)
			}
		})
	}
}

func TestWinnerNeverLosesPoints(t *testing.T) {
	for w := 800; w <= 1600; w += 100 {
		for l := 800; l <= 1600; l += 100 {
			nw, nl := Next(w, l)
			if nw < w {
				t.Errorf("winner rating dropped: Next(%d, %d) winner = %d", w, l, nw)
			}
			if nl > l {
				t.Errorf("loser rating rose: Next(%d, %d) loser = %d", w, l, nl)
			}
		}
	}
}
