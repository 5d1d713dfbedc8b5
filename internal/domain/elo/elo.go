// Package elo implements the pairwise rating update applied after each vote.
package elo

import "math"

const (
	// KFactor controls how far one result moves a rating.
	KFactor = 32
	// BaseRating is assigned to items with no recorded rating.
	BaseRating = 1000
)

// Expected returns the probability that a rating of `a` beats a rating of `b`
// under the logistic model.
func Expected(a, b int) float64 {
	return 1 / (1 + math.Pow(10, float64(b-a)/400))
}

// Next computes the post-match ratings for a winner and loser, rounded to the
// nearest integer.
func Next(winner, loser int) (int, int) {
	e := Expected(winner, loser)
	newWinner := int(math.Round(float64(winner) + KFactor*(1-e)))
	newLoser := int(math.Round(float64(loser) - KFactor*e))
	return newWinner, newLoser
}
