package belote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"belote-lite/card"
)

type recordedParticipant struct {
	gameID, userID string
	team           Team
	before, change int
}

type fakeRecorder struct {
	mu           sync.Mutex
	games        []string
	winners      []Team
	participants []recordedParticipant
	ratings      chan [2]any
	failCreate   bool
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{ratings: make(chan [2]any, 8)}
}

func (r *fakeRecorder) CreateGame(_ context.Context, gameID string, _ Scores, winner Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("store down")
	}
	r.games = append(r.games, gameID)
	r.winners = append(r.winners, winner)
	return nil
}

func (r *fakeRecorder) AddParticipant(_ context.Context, gameID, userID string, team Team, before, change int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants = append(r.participants, recordedParticipant{gameID, userID, team, before, change})
	return nil
}

func (r *fakeRecorder) UpdateRating(_ context.Context, userID string, rating int) error {
	r.ratings <- [2]any{userID, rating}
	return nil
}

func (r *fakeRecorder) waitRatings(t *testing.T, n int) map[string]int {
	t.Helper()
	out := make(map[string]int, n)
	for len(out) < n {
		select {
		case v := <-r.ratings:
			out[v[0].(string)] = v[1].(int)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %d rating updates, got %d", n, len(out))
		}
	}
	return out
}

func TestGameOverSettlesRatings(t *testing.T) {
	rec := newFakeRecorder()
	tt := newTestTable(t, func(c *Config) {
		c.TargetScore = 20
		c.Recorder = rec
	})
	for i := 0; i < NumSeats; i++ {
		tt.Join(JoinRequest{ConnID: conn(i), PlayerID: playerID(i), Name: "P", Rating: 100, HasRating: i != 3})
	}
	tt.Start()
	last := [NumSeats]card.Card{card.CardHeartA, card.CardHeart7, card.CardHeart8, card.CardSpade7}
	forceLastTrick(t, tt, last)
	for seat, c := range last {
		tt.PlayCard(conn(seat), c.ID())
	}
	tt.sched.step()

	snap := tt.Snapshot()
	if snap.Phase != PhaseGameOver || snap.Winner != Team1 {
		t.Fatalf("expected game over won by team1, got %v/%v", snap.Phase, snap.Winner)
	}
	s := snap.Settlement
	if s == nil || s.GameID == "" {
		t.Fatalf("expected a settlement with a game id")
	}
	if len(s.Participants) != 3 {
		t.Fatalf("only rated humans participate, got %+v", s.Participants)
	}

	ratings := rec.waitRatings(t, 3)
	want := map[string]int{playerID(0): 116, playerID(1): 84, playerID(2): 116}
	for id, r := range want {
		if ratings[id] != r {
			t.Fatalf("%s: expected rating %d, got %d", id, r, ratings[id])
		}
	}

	rec.mu.Lock()
	if len(rec.games) != 1 || rec.games[0] != s.GameID || rec.winners[0] != Team1 {
		t.Fatalf("unexpected recorded games %v", rec.games)
	}
	for _, p := range rec.participants {
		if p.gameID != s.GameID || p.before != 100 {
			t.Fatalf("unexpected participant %+v", p)
		}
	}
	rec.mu.Unlock()

	for _, p := range snap.Players {
		if p.ID == playerID(0) && p.Rating != 116 {
			t.Fatalf("seat rating not updated: %+v", p)
		}
	}

	tt.PlayCard(conn(0), card.CardHeartA.ID())
	tt.SetReady(conn(0))
	if tt.Snapshot().Phase != PhaseGameOver {
		t.Fatalf("game over is terminal until reset")
	}
	tt.FullReset()
	if tt.Snapshot().Phase != PhaseLobby {
		t.Fatalf("reset should return to lobby")
	}
}

func TestRecorderFailureDoesNotBlockGameOver(t *testing.T) {
	rec := newFakeRecorder()
	rec.failCreate = true
	tt := newTestTable(t, func(c *Config) {
		c.TargetScore = 20
		c.Recorder = rec
	})
	for i := 0; i < NumSeats; i++ {
		tt.Join(JoinRequest{ConnID: conn(i), PlayerID: playerID(i), Name: "P", Rating: 100, HasRating: true})
	}
	tt.Start()
	last := [NumSeats]card.Card{card.CardHeart7, card.CardHeartA, card.CardHeart8, card.CardSpade7}
	forceLastTrick(t, tt, last)
	for seat, c := range last {
		tt.PlayCard(conn(seat), c.ID())
	}
	tt.sched.step()
	snap := tt.Snapshot()
	if snap.Phase != PhaseGameOver || snap.Winner != Team2 {
		t.Fatalf("expected team2 to win, got %v/%v", snap.Phase, snap.Winner)
	}
	select {
	case v := <-rec.ratings:
		t.Fatalf("no rating update expected after CreateGame failed, got %v", v)
	case <-time.After(100 * time.Millisecond):
	}
}

// Plays whole games against bots, checking that every card stays in exactly
// one place after each step.
func TestBotGameConservesCards(t *testing.T) {
	rec := newFakeRecorder()
	tt := newTestTable(t, func(c *Config) {
		c.TargetScore = 300
		c.Recorder = rec
		c.Seed = 99
	})
	tt.Join(JoinRequest{ConnID: conn(0), PlayerID: playerID(0), Name: "Human", Rating: 100, HasRating: true})
	tt.StartWithBots()

	rounds := 0
	for i := 0; i < 20000; i++ {
		snap := tt.Snapshot()
		checkConservation(t, tt.Game)
		if snap.Phase == PhaseGameOver {
			break
		}
		human := snap.Players[snap.TurnSeat].ID == playerID(0)
		switch {
		case snap.Phase == PhaseBidding && human:
			tt.Bid(conn(0), BidPass, card.SuitNone)
		case snap.Phase == PhasePlaying && !snap.Resolving && human:
			legal := LegalPlays(snap.Hands[playerID(0)], snap.Trick)
			tt.PlayCard(conn(0), legal[0].ID())
		case snap.Phase == PhaseRoundSummary:
			rounds++
			sum := snap.RoundSummary.Team1 + snap.RoundSummary.Team2
			bonus := 0
			if snap.Announcements != nil {
				bonus = snap.Announcements.Points
			}
			if sum != 162+bonus {
				t.Fatalf("round %d: expected %d points, got %d", rounds, 162+bonus, sum)
			}
			tt.SetReady(conn(0))
		default:
			if !tt.sched.step() {
				t.Fatalf("table stuck in %v/%v turn %d", snap.Phase, snap.Stage, snap.TurnSeat)
			}
		}
	}

	snap := tt.Snapshot()
	if snap.Phase != PhaseGameOver {
		t.Fatalf("game did not finish, phase %v", snap.Phase)
	}
	if snap.Scores.Team1 < 300 && snap.Scores.Team2 < 300 {
		t.Fatalf("game over before target: %+v", snap.Scores)
	}
	ratings := rec.waitRatings(t, 1)
	want := 84
	if snap.Winner == Team1 {
		want = 116
	}
	if ratings[playerID(0)] != want {
		t.Fatalf("expected rating %d, got %d", want, ratings[playerID(0)])
	}
}
