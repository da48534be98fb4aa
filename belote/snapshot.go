package belote

import "belote-lite/card"

type PlayerSnapshot struct {
	ID        string
	Name      string
	Avatar    string
	Seat      int
	Team      Team
	Bot       bool
	Connected bool
	Rating    int
	HasRating bool
	HandCount int
}

// Snapshot is a full copy of the table, private parts included. Callers
// building client views must strip what the recipient may not see.
type Snapshot struct {
	Phase Phase
	Stage DealStage

	Players []PlayerSnapshot

	// private
	Hands      map[string][]card.Card
	Candidates map[string][]Announcement
	Pending    map[string][]Announcement

	Declared      map[string]bool
	Announcements *AnnouncementResult

	DealerSeat   int
	TurnSeat     int
	TakerSeat    int
	BiddingRound int
	TurnedCard   card.Card
	Trump        card.Suit
	BidHistory   []BidRecord

	Trick        []Play
	LastTrick    *TrickRecord
	TricksPlayed int
	Resolving    bool

	Scores        Scores
	CurrentScores Scores
	RoundSummary  *Scores
	ReadyPlayers  []string

	Winner     Team
	Settlement *Settlement

	DeckRemaining int
	WonCards      int
	UpdateSeq     uint64
}

func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Snapshot{
		Phase:         g.phase,
		Stage:         g.stage,
		Hands:         make(map[string][]card.Card, len(g.hands)),
		Candidates:    make(map[string][]Announcement, len(g.candidates)),
		Pending:       make(map[string][]Announcement, len(g.pending)),
		Declared:      make(map[string]bool, len(g.declared)),
		DealerSeat:    g.dealer,
		TurnSeat:      g.turn,
		TakerSeat:     g.takerSeat,
		BiddingRound:  g.biddingRound,
		TurnedCard:    g.turnedCard,
		Trump:         g.trump,
		BidHistory:    append([]BidRecord(nil), g.history...),
		Trick:         append([]Play(nil), g.trick...),
		TricksPlayed:  g.tricksPlayed,
		Resolving:     g.resolving,
		Scores:        g.scores,
		CurrentScores: g.currentScores,
		ReadyPlayers:  append([]string(nil), g.ready...),
		Winner:        g.winner,
		DeckRemaining: len(g.deck),
		WonCards:      len(g.won),
		UpdateSeq:     g.updateSeq,
	}
	for _, p := range g.players {
		s.Players = append(s.Players, PlayerSnapshot{
			ID:        p.ID,
			Name:      p.Name,
			Avatar:    p.Avatar,
			Seat:      p.seat,
			Team:      p.Team(),
			Bot:       p.Bot,
			Connected: p.Connected(),
			Rating:    p.Rating,
			HasRating: p.HasRating,
			HandCount: len(g.hands[p.ID]),
		})
	}
	for id, h := range g.hands {
		s.Hands[id] = append([]card.Card(nil), h...)
	}
	for id, list := range g.candidates {
		s.Candidates[id] = append([]Announcement(nil), list...)
	}
	for id, list := range g.pending {
		s.Pending[id] = append([]Announcement(nil), list...)
	}
	for id, v := range g.declared {
		s.Declared[id] = v
	}
	if g.lastTrick != nil {
		lt := TrickRecord{WinnerID: g.lastTrick.WinnerID, Plays: append([]Play(nil), g.lastTrick.Plays...)}
		s.LastTrick = &lt
	}
	if g.roundSummary != nil {
		rs := *g.roundSummary
		s.RoundSummary = &rs
	}
	if g.announceResult != nil {
		ar := *g.announceResult
		ar.Declared = append([]DeclaredAnnouncement(nil), g.announceResult.Declared...)
		s.Announcements = &ar
	}
	if g.settlement != nil {
		st := *g.settlement
		st.Participants = append([]Participant(nil), g.settlement.Participants...)
		s.Settlement = &st
	}
	return s
}

// PlayerOf returns the persistent id seated for connID, or "".
func (g *Game) PlayerOf(connID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p := g.playerByConnLocked(connID); p != nil {
		return p.ID
	}
	return ""
}
