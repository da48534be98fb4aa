package belote

import "belote-lite/card"

// ResolveWinner returns the winning play of a trick and its index.
// Led suit is the suit of the first play; any trump beats any non-trump.
func ResolveWinner(plays []Play, trump card.Suit) (Play, int) {
	if len(plays) == 0 {
		return Play{}, -1
	}
	led := plays[0].Card.Suit()
	best := 0
	for i := 1; i < len(plays); i++ {
		ch, cur := plays[i].Card, plays[best].Card
		chTrump, curTrump := ch.IsTrump(trump), cur.IsTrump(trump)
		switch {
		case chTrump && !curTrump:
			best = i
		case chTrump && curTrump:
			if ch.Order(true) > cur.Order(true) {
				best = i
			}
		case !chTrump && !curTrump:
			if ch.Suit() == led && ch.Order(false) > cur.Order(false) {
				best = i
			}
		}
	}
	return plays[best], best
}

// TrickPoints 计算一墩的分数
func TrickPoints(plays []Play, trump card.Suit) int {
	total := 0
	for _, p := range plays {
		total += p.Card.Value(p.Card.IsTrump(trump))
	}
	return total
}

// LegalPlays returns the cards of the led suit when the hand holds any,
// otherwise the whole hand.
func LegalPlays(hand []card.Card, trick []Play) []card.Card {
	if len(trick) == 0 {
		return append([]card.Card(nil), hand...)
	}
	led := trick[0].Card.Suit()
	var follow []card.Card
	for _, c := range hand {
		if c.Suit() == led {
			follow = append(follow, c)
		}
	}
	if len(follow) > 0 {
		return follow
	}
	return append([]card.Card(nil), hand...)
}
