package belote

import (
	"fmt"

	"belote-lite/card"

	"go.uber.org/zap"
)

// PlayCard lays cardID from the hand of connID's seat. Humans are only
// checked for turn and hand membership.
func (g *Game) PlayCard(connID, cardID string) {
	g.withPlayer("play_card", connID, func(p *Player) error {
		c, err := card.Parse(cardID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnknownCard, err)
		}
		return g.playCardLocked(p, c)
	})
}

func (g *Game) playCardLocked(p *Player, c card.Card) error {
	if g.phase != PhasePlaying {
		return ErrWrongPhase
	}
	if g.resolving {
		return ErrResolving
	}
	if p.seat != g.turn {
		return ErrOutOfTurn
	}
	hand := g.hands[p.ID]
	if !hand.Remove(c) {
		return ErrUnknownCard
	}
	g.hands[p.ID] = hand
	g.trick = append(g.trick, Play{PlayerID: p.ID, Card: c})
	g.actionSeq++
	g.emitLocked(UpdateCardPlayed)

	if len(g.trick) == NumSeats {
		g.resolving = true
		pause := g.cfg.TrickPause
		if p.Bot {
			pause = g.cfg.BotTrickPause
		}
		g.scheduleLocked(pause, g.resolveTrickLocked)
		return nil
	}
	g.turn = (g.turn + 1) % NumSeats
	g.scheduleBotLocked()
	return nil
}

func (g *Game) resolveTrickLocked() {
	if g.phase != PhasePlaying || !g.resolving || len(g.trick) != NumSeats {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("trick resolution failed",
				zap.Any("panic", r), zap.Error(InvariantError("trick resolution")))
			for _, pl := range g.trick {
				g.won.Add(pl.Card)
			}
			g.trick = nil
			g.resolving = false
			g.turn = (g.turn + 1) % NumSeats
			g.emitLocked(UpdateTrickResolved)
			g.scheduleBotLocked()
		}
	}()

	best, _ := ResolveWinner(g.trick, g.trump)
	winnerSeat := g.seatOfLocked(best.PlayerID)
	if winnerSeat == InvalidSeat {
		panic(InvariantError("trick winner is not seated"))
	}
	team := TeamOfSeat(winnerSeat)
	points := TrickPoints(g.trick, g.trump)
	g.currentScores.Add(team, points)

	plays := make([]Play, len(g.trick))
	copy(plays, g.trick)
	g.lastTrick = &TrickRecord{WinnerID: best.PlayerID, Plays: plays}
	for _, pl := range plays {
		g.won.Add(pl.Card)
	}
	g.trick = nil
	g.resolving = false
	g.tricksPlayed++
	g.turn = winnerSeat
	g.actionSeq++

	if g.tricksPlayed == 1 {
		g.adjudicateLocked()
	}
	g.emitLocked(UpdateTrickResolved)

	if len(g.hands[best.PlayerID]) == 0 {
		g.endRoundLocked(team)
		return
	}
	g.scheduleBotLocked()
}

// endRoundLocked applies the last-trick bonus and folds the round into the
// cumulative scores.
func (g *Game) endRoundLocked(lastTrickTeam Team) {
	g.currentScores.Add(lastTrickTeam, LastTrickBonus)
	g.scores.Team1 += g.currentScores.Team1
	g.scores.Team2 += g.currentScores.Team2
	summary := g.currentScores
	g.roundSummary = &summary
	g.dealer = (g.dealer + 1) % NumSeats
	g.ready = nil

	g.log.Info("round finished",
		zap.Int("team1", summary.Team1), zap.Int("team2", summary.Team2),
		zap.Int("total1", g.scores.Team1), zap.Int("total2", g.scores.Team2))

	target := g.cfg.TargetScore
	if g.scores.Team1 >= target || g.scores.Team2 >= target {
		switch {
		case g.scores.Team1 > g.scores.Team2:
			g.winner = Team1
		case g.scores.Team2 > g.scores.Team1:
			g.winner = Team2
		default:
			g.winner = lastTrickTeam
		}
		g.phase = PhaseGameOver
		g.settleLocked()
		g.log.Info("game over", zap.Stringer("winner", g.winner))
		g.emitLocked(UpdateGameOver)
		return
	}
	g.phase = PhaseRoundSummary
	g.emitLocked(UpdateRoundEnd)
}

// SetReady marks connID's player ready for the next round. The round starts
// once every connected human is ready.
func (g *Game) SetReady(connID string) {
	g.withPlayer("set_ready", connID, func(p *Player) error {
		if g.phase != PhaseRoundSummary {
			return ErrWrongPhase
		}
		if p.Bot {
			return ErrNotHuman
		}
		if !containsString(g.ready, p.ID) {
			g.ready = append(g.ready, p.ID)
			g.emitLocked(UpdateReady)
		}
		g.maybeStartNextRoundLocked()
		return nil
	})
}

func (g *Game) maybeStartNextRoundLocked() {
	if g.phase != PhaseRoundSummary {
		return
	}
	humans := 0
	for _, p := range g.players {
		if p.Bot || !p.Connected() {
			continue
		}
		humans++
		if !containsString(g.ready, p.ID) {
			return
		}
	}
	if humans == 0 {
		return
	}
	g.startRoundLocked()
}

// Declare accepts or refuses the player's announcement candidates. It is
// allowed once per round, before the first trick is resolved.
func (g *Game) Declare(connID string, decision bool) {
	g.withPlayer("declare", connID, func(p *Player) error { return g.declareLocked(p, decision) })
}

func (g *Game) declareLocked(p *Player, decision bool) error {
	if g.phase != PhasePlaying {
		return ErrWrongPhase
	}
	if g.adjudicated {
		return ErrAnnouncementsClosed
	}
	if _, done := g.declared[p.ID]; done {
		return ErrAlreadyDeclared
	}
	g.declared[p.ID] = decision
	if decision && len(g.candidates[p.ID]) > 0 {
		g.pending[p.ID] = g.candidates[p.ID]
	}
	g.emitLocked(UpdateAnnouncement)
	return nil
}

func (g *Game) adjudicateLocked() {
	var team1, team2 []Announcement
	result := &AnnouncementResult{}
	for _, p := range g.players {
		list := g.pending[p.ID]
		if len(list) == 0 {
			continue
		}
		team := p.Team()
		if team == Team1 {
			team1 = append(team1, list...)
		} else {
			team2 = append(team2, list...)
		}
		for _, a := range list {
			result.Declared = append(result.Declared, DeclaredAnnouncement{PlayerID: p.ID, Team: team, Announcement: a})
		}
	}
	result.Winner, result.Points = Adjudicate(team1, team2, g.trump)
	g.currentScores.Add(result.Winner, result.Points)
	g.announceResult = result
	g.adjudicated = true
	g.pending = make(map[string][]Announcement, NumSeats)
	g.candidates = make(map[string][]Announcement, NumSeats)
	if len(result.Declared) > 0 {
		g.log.Info("announcements adjudicated",
			zap.Stringer("winner", result.Winner), zap.Int("points", result.Points))
	}
}
