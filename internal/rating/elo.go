// Package rating implements the Elo variant used for ranked games.
package rating

import "math"

const (
	StartRating = 300
	MinRating   = 0
	MaxRating   = 1000
	ScaleFactor = 300.0
)

// KFactor shrinks as a player's rating grows and again when the opponent is
// far away in rating.
func KFactor(rating, opponent int) int {
	var k float64
	switch {
	case rating < 200:
		k = 100
	case rating < 400:
		k = 80
	case rating < 600:
		k = 60
	case rating < 800:
		k = 40
	default:
		k = 20
	}

	gap := rating - opponent
	if gap < 0 {
		gap = -gap
	}
	if gap > 200 {
		k *= 0.7
	} else if gap > 100 {
		k *= 0.9
	}
	return int(math.Round(k))
}

// ExpectedScore is the probability that a beats b.
func ExpectedScore(a, b int) float64 {
	return 1 / (1 + math.Pow(10, float64(b-a)/ScaleFactor))
}

func newRating(old, opponent int, actual float64) int {
	k := KFactor(old, opponent)
	r := int(math.Round(float64(old) + float64(k)*(actual-ExpectedScore(old, opponent))))
	return clamp(r)
}

func clamp(r int) int {
	if r < MinRating {
		return MinRating
	}
	if r > MaxRating {
		return MaxRating
	}
	return r
}

// Update returns both players' ratings after winner beats loser.
func Update(winner, loser int) (newWinner, newLoser int) {
	return newRating(winner, loser, 1), newRating(loser, winner, 0)
}

// OrStart returns the stored rating, or StartRating for a player without one.
func OrStart(r *int) int {
	if r == nil {
		return StartRating
	}
	return *r
}
