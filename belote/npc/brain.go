package npc

import "belote-lite/card"

// BidView is what a bot sees when asked to bid.
type BidView struct {
	Round      int // 1 or 2
	TurnedCard card.Card
	Hand       []card.Card
}

// BidDecision is what a Brain returns during bidding. Suit is only read on a
// second-round take.
type BidDecision struct {
	Take bool
	Suit card.Suit
}

// PlayView is the read-only projection handed to a bot on its turn to play.
type PlayView struct {
	Hand  []card.Card
	Trick []card.Card // cards already on the table, lead first
	Trump card.Suit
	Legal []card.Card
}

// Brain is the core interface all bot types implement.
type Brain interface {
	Bid(view BidView) BidDecision
	// Play must return one of view.Legal.
	Play(view PlayView) card.Card
	// Declare decides whether to announce the held melds.
	Declare(candidates int) bool
	Name() string
}
