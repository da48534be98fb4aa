package belote

import (
	"belote-lite/card"

	"go.uber.org/zap"
)

// StartWithBots fills empty seats with bots and starts the game.
func (g *Game) StartWithBots() {
	g.do("start_with_bots", "", func() error {
		if g.phase != PhaseLobby {
			return ErrWrongPhase
		}
		g.fillBotsLocked()
		return g.startLocked()
	})
}

// Start begins a game with the 4 seated players.
func (g *Game) Start() {
	g.do("start", "", g.startLocked)
}

func (g *Game) startLocked() error {
	if g.phase != PhaseLobby {
		return ErrWrongPhase
	}
	if len(g.players) != NumSeats {
		return ErrNotEnoughPlayers
	}
	g.scores = Scores{}
	g.winner = TeamNone
	g.settlement = nil
	g.dealer = g.rng.Intn(NumSeats)
	if g.cfg.ForcedDealer != nil {
		g.dealer = *g.cfg.ForcedDealer
	}
	g.log.Info("game started", zap.Int("dealer", g.dealer))
	g.startRoundLocked()
	return nil
}

// startRoundLocked shuffles a fresh deck and schedules the staged deal.
func (g *Game) startRoundLocked() {
	g.epoch++
	g.clearRoundLocked()
	g.phase = PhaseDealing
	g.stage = StageShuffled
	g.biddingRound = 1
	if g.cfg.DeckOverride != nil {
		g.deck.Init(g.cfg.DeckOverride)
	} else {
		g.deck = card.NewDeck()
		g.deck.Shuffle(g.rng)
	}
	for _, p := range g.players {
		g.hands[p.ID] = card.CardList{}
	}
	g.turn = (g.dealer + 1) % NumSeats
	g.emitLocked(UpdateDeal)
	g.scheduleLocked(g.cfg.DealFirstDelay, g.dealThreeLocked)
}

func (g *Game) dealEachLocked(n int) bool {
	for i := 1; i <= NumSeats; i++ {
		p := g.playerAtLocked((g.dealer + i) % NumSeats)
		if p == nil {
			return false
		}
		cards, ok := g.deck.PopCards(n)
		if !ok {
			return false
		}
		hand := g.hands[p.ID]
		hand.Add(cards...)
		g.hands[p.ID] = hand
	}
	return true
}

func (g *Game) dealThreeLocked() {
	if g.phase != PhaseDealing || g.stage != StageShuffled {
		return
	}
	if !g.dealEachLocked(3) {
		g.log.Error("deal failed", zap.Error(InvariantError("deck exhausted while dealing 3")))
		return
	}
	g.stage = StageThreeDealt
	g.emitLocked(UpdateDeal)
	g.scheduleLocked(g.cfg.DealSecondDelay, g.dealTwoLocked)
}

func (g *Game) dealTwoLocked() {
	if g.phase != PhaseDealing || g.stage != StageThreeDealt {
		return
	}
	if !g.dealEachLocked(2) {
		g.log.Error("deal failed", zap.Error(InvariantError("deck exhausted while dealing 2")))
		return
	}
	for id, hand := range g.hands {
		hand.Sort(card.SuitNone)
		g.hands[id] = hand
	}
	g.stage = StageFiveDealt
	g.emitLocked(UpdateDeal)
	g.scheduleLocked(g.cfg.RevealDelay, g.revealLocked)
}

func (g *Game) revealLocked() {
	if g.phase != PhaseDealing || g.stage != StageFiveDealt {
		return
	}
	g.turnedCard = g.deck.PopCard()
	g.phase = PhaseBidding
	g.stage = StageNone
	g.biddingRound = 1
	g.turn = (g.dealer + 1) % NumSeats
	g.emitLocked(UpdatePhase)
	g.scheduleBotLocked()
}

// Bid records a take or pass for the seat of connID. In the second round a
// take must name a suit other than the turned card's.
func (g *Game) Bid(connID string, action BidAction, suit card.Suit) {
	g.withPlayer("bid", connID, func(p *Player) error { return g.bidLocked(p, action, suit) })
}

func (g *Game) bidLocked(p *Player, action BidAction, suit card.Suit) error {
	if g.phase != PhaseBidding || g.stage != StageNone {
		return ErrWrongPhase
	}
	if p.seat != g.turn {
		return ErrOutOfTurn
	}
	switch action {
	case BidTake:
		trump := g.turnedCard.Suit()
		if g.biddingRound == 2 {
			if !suit.Valid() {
				return ErrMissingSuit
			}
			if suit == g.turnedCard.Suit() {
				return ErrForbiddenSuit
			}
			trump = suit
		}
		g.history = append(g.history, BidRecord{PlayerID: p.ID, Name: p.Name, Action: BidTake, Suit: trump})
		g.trump = trump
		g.takerSeat = p.seat
		g.phase = PhaseDealing
		g.stage = StageDistributing
		g.actionSeq++
		g.log.Info("contract taken",
			zap.String("player", p.ID), zap.Stringer("trump", trump), zap.Int("round", g.biddingRound))
		g.emitLocked(UpdateBid)
		g.scheduleLocked(g.cfg.DistributeDelay, g.distributeLocked)
		return nil

	case BidPass:
		g.history = append(g.history, BidRecord{PlayerID: p.ID, Name: p.Name, Action: BidPass})
		g.actionSeq++
		g.turn = (g.turn + 1) % NumSeats
		if g.turn == (g.dealer+1)%NumSeats {
			if g.biddingRound == 2 {
				g.emitLocked(UpdateBid)
				g.dealer = (g.dealer + 1) % NumSeats
				g.log.Info("all passed twice, redealing", zap.Int("dealer", g.dealer))
				g.startRoundLocked()
				return nil
			}
			g.biddingRound = 2
		}
		g.emitLocked(UpdateBid)
		g.scheduleBotLocked()
		return nil
	}
	return ErrInvalidBid
}

// distributeLocked completes the hands: the taker gets the turned card and 2
// more, the others 3 each.
func (g *Game) distributeLocked() {
	if g.phase != PhaseDealing || g.stage != StageDistributing {
		return
	}
	taker := g.playerAtLocked(g.takerSeat)
	if taker == nil {
		g.log.Error("distribution failed", zap.Error(InvariantError("taker seat empty")))
		return
	}
	hand := g.hands[taker.ID]
	hand.Add(g.turnedCard)
	g.hands[taker.ID] = hand
	g.turnedCard = card.CardInvalid

	for i := 1; i <= NumSeats; i++ {
		p := g.playerAtLocked((g.dealer + i) % NumSeats)
		n := 3
		if p.seat == g.takerSeat {
			n = 2
		}
		cards, ok := g.deck.PopCards(n)
		if !ok {
			g.log.Error("distribution failed", zap.Error(InvariantError("deck exhausted")))
			break
		}
		hand := g.hands[p.ID]
		hand.Add(cards...)
		g.hands[p.ID] = hand
	}

	for _, p := range g.players {
		hand := g.hands[p.ID]
		hand.Sort(g.trump)
		g.hands[p.ID] = hand
		if len(hand) != HandSize {
			g.log.Error("hand size mismatch after distribution",
				zap.String("player", p.ID), zap.Int("size", len(hand)),
				zap.Error(InvariantError("hand size")))
		}
		g.candidates[p.ID] = EvaluateAnnouncements(hand)
	}

	g.phase = PhasePlaying
	g.stage = StageNone
	g.turn = (g.dealer + 1) % NumSeats
	g.emitLocked(UpdatePhase)
	g.scheduleBotLocked()
}
