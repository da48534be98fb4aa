package npc

import (
	"math/rand"

	"belote-lite/card"
)

// RuleBrain bids by persona probabilities and plays a random legal card.
type RuleBrain struct {
	Persona *Persona
	rng     *rand.Rand
}

// NewRuleBrain creates a RuleBrain from a persona definition.
func NewRuleBrain(persona *Persona, seed int64) *RuleBrain {
	if persona == nil {
		persona = &Persona{ID: "default", Name: "Bot", Brain: DefaultProfile}
	}
	return &RuleBrain{
		Persona: persona,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (b *RuleBrain) Name() string { return b.Persona.Name }

func (b *RuleBrain) Bid(view BidView) BidDecision {
	p := b.Persona.Brain
	roll := b.rng.Float64()
	switch view.Round {
	case 1:
		if roll < p.TakeFirstRound {
			return BidDecision{Take: true, Suit: view.TurnedCard.Suit()}
		}
	case 2:
		if roll < p.TakeSecondRound {
			options := make([]card.Suit, 0, 3)
			for _, s := range card.Suits {
				if s != view.TurnedCard.Suit() {
					options = append(options, s)
				}
			}
			return BidDecision{Take: true, Suit: options[b.rng.Intn(len(options))]}
		}
	}
	return BidDecision{}
}

func (b *RuleBrain) Play(view PlayView) card.Card {
	if len(view.Legal) == 0 {
		return card.CardInvalid
	}
	return view.Legal[b.rng.Intn(len(view.Legal))]
}

func (b *RuleBrain) Declare(candidates int) bool {
	if candidates == 0 {
		return false
	}
	return b.rng.Float64() < b.Persona.Brain.Declare
}
