package belote

import (
	"belote-lite/belote/npc"
	"belote-lite/card"

	"go.uber.org/zap"
)

// scheduleBotLocked queues a decision for the bot whose turn it is. Bots
// only act between stages and while at least one human is connected.
func (g *Game) scheduleBotLocked() {
	if g.phase != PhaseBidding && g.phase != PhasePlaying {
		return
	}
	if g.stage != StageNone || g.resolving {
		return
	}
	p := g.playerAtLocked(g.turn)
	if p == nil || !p.Bot {
		return
	}
	if !g.hasConnectedHumanLocked() {
		g.log.Debug("bot turn paused, no human connected", zap.Int("seat", g.turn))
		return
	}
	seat, seq := g.turn, g.actionSeq
	g.scheduleLocked(g.bots.ThinkDelay(), func() { g.botActLocked(seat, seq) })
}

func (g *Game) brainLocked(p *Player) npc.Brain {
	b, ok := g.brains[p.ID]
	if !ok {
		b = g.bots.NewBrain()
		g.brains[p.ID] = b
	}
	return b
}

// botActLocked is a no-op when anything moved since it was scheduled.
func (g *Game) botActLocked(seat int, seq uint64) {
	if seq != g.actionSeq || seat != g.turn || g.resolving || g.stage != StageNone {
		return
	}
	p := g.playerAtLocked(seat)
	if p == nil || !p.Bot || !g.hasConnectedHumanLocked() {
		return
	}
	brain := g.brainLocked(p)
	hand := g.hands[p.ID]

	switch g.phase {
	case PhaseBidding:
		d := brain.Bid(npc.BidView{Round: g.biddingRound, TurnedCard: g.turnedCard, Hand: hand.Clone()})
		action, suit := BidPass, card.SuitNone
		if d.Take {
			action, suit = BidTake, d.Suit
		}
		if err := g.bidLocked(p, action, suit); err != nil {
			g.log.Warn("bot bid rejected, passing", zap.String("bot", p.Name), zap.Error(err))
			if err := g.bidLocked(p, BidPass, card.SuitNone); err != nil {
				g.log.Error("bot pass rejected", zap.String("bot", p.Name), zap.Error(err))
			}
		}

	case PhasePlaying:
		if len(hand) == 0 {
			return
		}
		if !g.adjudicated {
			if _, done := g.declared[p.ID]; !done {
				if n := len(g.candidates[p.ID]); n > 0 && brain.Declare(n) {
					_ = g.declareLocked(p, true)
				}
			}
		}
		legal := LegalPlays(hand, g.trick)
		trick := make([]card.Card, len(g.trick))
		for i, pl := range g.trick {
			trick[i] = pl.Card
		}
		c := brain.Play(npc.PlayView{Hand: hand.Clone(), Trick: trick, Trump: g.trump, Legal: legal})
		if !card.CardList(legal).Contains(c) {
			c = legal[0]
		}
		if err := g.playCardLocked(p, c); err != nil {
			g.log.Error("bot play rejected", zap.String("bot", p.Name), zap.Stringer("card", c), zap.Error(err))
		}
	}
}
