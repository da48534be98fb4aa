package belote

import "math"

// ExpectedScore is the Elo win expectation of own against opp.
func ExpectedScore(own, opp float64) float64 {
	return 1 / (1 + math.Pow(10, (opp-own)/400))
}

// TeamRatingDelta returns round(K*(S-E)) for a team averaging own against opp.
func TeamRatingDelta(own, opp float64, won bool, k int) int {
	s := 0.0
	if won {
		s = 1
	}
	return int(math.Round(float64(k) * (s - ExpectedScore(own, opp))))
}

// ApplyRating floors the new rating at zero.
func ApplyRating(before, delta int) int {
	return max(0, before+delta)
}
