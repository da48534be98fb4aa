package belote

import (
	"testing"
	"time"

	"belote-lite/card"
)

func TestDisconnectedHumanBecomesBotAndReclaims(t *testing.T) {
	tt := newRiggedTable(t, nil)

	tt.Leave(conn(2))
	snap := tt.Snapshot()
	if snap.Players[2].Connected || snap.Players[2].Bot {
		t.Fatalf("leave should only mark the seat disconnected")
	}

	tt.sched.skip(time.Minute)
	tt.Sweep()
	if tt.Snapshot().Players[2].Bot {
		t.Fatalf("converted to bot before the timeout")
	}

	tt.sched.skip(61 * time.Second)
	tt.Sweep()
	snap = tt.Snapshot()
	p := snap.Players[2]
	if !p.Bot || p.ID != playerID(2) || p.Name != "Bot (was Player 2)" {
		t.Fatalf("expected bot stand-in keeping the id, got %+v", p)
	}
	if p.HandCount != 5 {
		t.Fatalf("bot should keep the hand, got %d cards", p.HandCount)
	}

	tt.Join(JoinRequest{ConnID: "c7", PlayerID: playerID(2), Name: "ignored"})
	snap = tt.Snapshot()
	p = snap.Players[2]
	if p.Bot || !p.Connected || p.Name != "Player 2" || p.HandCount != 5 {
		t.Fatalf("expected the human back on the seat, got %+v", p)
	}
	if tt.PlayerOf("c7") != playerID(2) {
		t.Fatalf("new connection not attached")
	}
}

func TestNewPlayerTakesOverBotSeat(t *testing.T) {
	tt := newTestTable(t, nil)
	tt.seatHumans(1)
	tt.StartWithBots()
	snap := tt.stepUntil(t, inPhase(PhaseBidding))
	oldBot := snap.Players[1].ID

	tt.Join(JoinRequest{ConnID: "c9", PlayerID: "p9", Name: "Late"})
	snap = tt.Snapshot()
	p := snap.Players[1]
	if p.ID != "p9" || p.Bot || p.Name != "Late" || p.Seat != 1 {
		t.Fatalf("expected p9 on seat 1, got %+v", p)
	}
	if len(snap.Hands["p9"]) != 5 {
		t.Fatalf("hand not transferred, got %v", snap.Hands["p9"])
	}
	if _, ok := snap.Hands[oldBot]; ok {
		t.Fatalf("old bot id still holds a hand")
	}
	checkConservation(t, tt.Game)
}

func TestSpectatorJoinIsNoop(t *testing.T) {
	tt := newTestTable(t, nil)
	tt.seatHumans(4)
	tt.Join(JoinRequest{ConnID: "c9", PlayerID: "p9", Name: "Watcher"})
	snap := tt.Snapshot()
	if len(snap.Players) != NumSeats || tt.PlayerOf("c9") != "" {
		t.Fatalf("spectator should not be seated")
	}
}

func TestLobbySeatsAreRemoved(t *testing.T) {
	tt := newTestTable(t, nil)
	tt.seatHumans(3)

	tt.ExplicitLeave(conn(0))
	snap := tt.Snapshot()
	if len(snap.Players) != 2 || snap.Players[0].ID != playerID(1) || snap.Players[0].Seat != 0 {
		t.Fatalf("expected seats to close up, got %+v", snap.Players)
	}

	tt.Leave(conn(1))
	tt.sched.skip(3 * time.Minute)
	tt.Sweep()
	snap = tt.Snapshot()
	if len(snap.Players) != 1 || snap.Players[0].ID != playerID(2) {
		t.Fatalf("timed-out lobby seat should be removed, got %+v", snap.Players)
	}

	tt.Start()
	if tt.Snapshot().Phase != PhaseLobby {
		t.Fatalf("start with one player must be rejected")
	}
}

func TestExplicitLeaveMidGameKeepsSeat(t *testing.T) {
	tt := newRiggedTable(t, nil)

	tt.ExplicitLeave(conn(1))
	snap := tt.Snapshot()
	if len(snap.Players) != NumSeats {
		t.Fatalf("seat must be kept outside the lobby, got %d players", len(snap.Players))
	}
	p := snap.Players[1]
	if p.ID != playerID(1) || p.Connected || p.Bot || p.HandCount != 5 {
		t.Fatalf("expected an absent human on seat 1, got %+v", p)
	}
	if tt.PlayerOf(conn(1)) != "" {
		t.Fatalf("connection still attached after leaving")
	}

	tt.sched.skip(3 * time.Minute)
	tt.Sweep()
	p = tt.Snapshot().Players[1]
	if !p.Bot || p.ID != playerID(1) || p.Name != "Bot (was Player 1)" {
		t.Fatalf("expected bot stand-in on seat 1, got %+v", p)
	}

	tt.Join(JoinRequest{ConnID: "c8", PlayerID: playerID(1), Name: "Player 1"})
	p = tt.Snapshot().Players[1]
	if p.Bot || !p.Connected || p.Name != "Player 1" || p.HandCount != 5 {
		t.Fatalf("expected the human to reclaim seat 1, got %+v", p)
	}
}

func TestSweepSkipsWhileResolving(t *testing.T) {
	tt := newRiggedTable(t, nil)
	tt.Bid(conn(0), BidTake, card.SuitNone)
	tt.stepUntil(t, inPhase(PhasePlaying))

	for seat := 0; seat < NumSeats; seat++ {
		snap := tt.Snapshot()
		tt.PlayCard(conn(seat), snap.Hands[playerID(seat)][0].ID())
	}
	if !tt.Snapshot().Resolving {
		t.Fatalf("expected a trick pending resolution")
	}

	tt.Leave(conn(2))
	tt.sched.skip(3 * time.Minute)
	tt.Sweep()
	snap := tt.Snapshot()
	if !snap.Resolving || len(snap.Trick) != NumSeats {
		t.Fatalf("sweep disturbed the pending trick")
	}
	if snap.Players[2].Bot {
		t.Fatalf("seat converted to bot mid-resolution")
	}

	tt.sched.step()
	if tt.Snapshot().Resolving {
		t.Fatalf("trick not resolved")
	}
	tt.Sweep()
	if p := tt.Snapshot().Players[2]; !p.Bot || p.ID != playerID(2) {
		t.Fatalf("expected conversion once the trick resolved, got %+v", p)
	}
	checkConservation(t, tt.Game)
}

func TestSoleHumanRejoinKeepsGame(t *testing.T) {
	tt := newTestTable(t, nil)
	tt.seatHumans(1)
	tt.StartWithBots()
	before := tt.stepUntil(t, inPhase(PhaseBidding))
	hand := before.Hands[playerID(0)]

	tt.Leave(conn(0))
	tt.Join(JoinRequest{ConnID: "c5", PlayerID: playerID(0), Name: "Player 0"})

	snap := tt.Snapshot()
	if snap.Phase != PhaseBidding || len(snap.Players) != NumSeats {
		t.Fatalf("rejoin should resume the game, got %v with %d players", snap.Phase, len(snap.Players))
	}
	if p := snap.Players[0]; p.ID != playerID(0) || !p.Connected || p.Bot {
		t.Fatalf("expected the human back on seat 0, got %+v", p)
	}
	if len(snap.Hands[playerID(0)]) != len(hand) || snap.Hands[playerID(0)][0] != hand[0] {
		t.Fatalf("hand changed across rejoin: %v -> %v", hand, snap.Hands[playerID(0)])
	}
	checkConservation(t, tt.Game)
}

func TestSweepResetsTableWithoutHumans(t *testing.T) {
	tt := newTestTable(t, nil)
	tt.seatHumans(1)
	tt.StartWithBots()
	tt.stepUntil(t, inPhase(PhaseBidding))

	tt.Leave(conn(0))
	tt.sched.skip(3 * time.Minute)
	tt.Sweep()

	snap := tt.Snapshot()
	if snap.Phase != PhaseLobby || len(snap.Players) != 0 {
		t.Fatalf("expected empty lobby, got %v with %d players", snap.Phase, len(snap.Players))
	}
	for tt.sched.step() {
	}
	if tt.Snapshot().Phase != PhaseLobby {
		t.Fatalf("stale continuation revived the table")
	}
}

func TestBotsWaitForAHuman(t *testing.T) {
	tt := newTestTable(t, func(c *Config) { c.ForcedDealer = intPtr(0) })
	tt.seatHumans(1)
	tt.StartWithBots()
	snap := tt.stepUntil(t, inPhase(PhaseBidding))
	if !snap.Players[snap.TurnSeat].Bot {
		t.Fatalf("expected a bot to bid first")
	}
	if tt.sched.pending() != 1 {
		t.Fatalf("expected one bot decision queued, got %d", tt.sched.pending())
	}

	tt.Leave(conn(0))
	tt.sched.step()
	if got := tt.Snapshot(); len(got.BidHistory) != 0 {
		t.Fatalf("bot acted with no human connected")
	}

	tt.Join(JoinRequest{ConnID: conn(0), PlayerID: playerID(0), Name: "Player 0"})
	tt.sched.step()
	if got := tt.Snapshot(); len(got.BidHistory) != 1 {
		t.Fatalf("bot should act once a human is back, history %v", got.BidHistory)
	}
}

func TestSweepForcesStalledBotTurn(t *testing.T) {
	tt := newTestTable(t, func(c *Config) { c.ForcedDealer = intPtr(0) })
	tt.seatHumans(1)
	tt.StartWithBots()
	snap := tt.stepUntil(t, inPhase(PhaseBidding))
	botID := snap.Players[snap.TurnSeat].ID
	tt.sched.drop()

	tt.sched.skip(5 * time.Second)
	tt.Sweep()
	if len(tt.Snapshot().BidHistory) != 0 {
		t.Fatalf("forced a bot before the stall threshold")
	}

	tt.sched.skip(6 * time.Second)
	tt.Sweep()
	snap = tt.Snapshot()
	if len(snap.BidHistory) != 1 || snap.BidHistory[0].PlayerID != botID {
		t.Fatalf("expected the stalled bot to act, history %v", snap.BidHistory)
	}
}

func TestFullResetDropsBotsAndAbsentHumans(t *testing.T) {
	tt := newRiggedTable(t, nil)
	tt.Leave(conn(1))
	tt.FullReset()
	snap := tt.Snapshot()
	if snap.Phase != PhaseLobby || len(snap.Players) != 3 {
		t.Fatalf("expected lobby with 3 connected humans, got %v/%d", snap.Phase, len(snap.Players))
	}
	if snap.Scores != (Scores{}) || len(snap.Hands) != 0 {
		t.Fatalf("reset should clear scores and hands")
	}
	for i, p := range snap.Players {
		if p.Seat != i || p.ID == playerID(1) {
			t.Fatalf("unexpected seat layout %+v", snap.Players)
		}
	}
}
