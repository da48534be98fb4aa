package belote

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"belote-lite/card"
)

// manualScheduler queues continuations and runs them on demand against a
// fake clock it also serves as.
type manualScheduler struct {
	mu    sync.Mutex
	now   time.Time
	seq   int
	tasks []*scheduledTask
}

type scheduledTask struct {
	due time.Time
	seq int
	fn  func()
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (s *manualScheduler) After(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.tasks = append(s.tasks, &scheduledTask{due: s.now.Add(d), seq: s.seq, fn: fn})
}

func (s *manualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *manualScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// step runs the earliest task, moving the clock to its due time.
func (s *manualScheduler) step() bool {
	s.mu.Lock()
	if len(s.tasks) == 0 {
		s.mu.Unlock()
		return false
	}
	sort.Slice(s.tasks, func(i, j int) bool {
		if s.tasks[i].due.Equal(s.tasks[j].due) {
			return s.tasks[i].seq < s.tasks[j].seq
		}
		return s.tasks[i].due.Before(s.tasks[j].due)
	})
	next := s.tasks[0]
	s.tasks = s.tasks[1:]
	if next.due.After(s.now) {
		s.now = next.due
	}
	s.mu.Unlock()
	next.fn()
	return true
}

// skip moves the clock without running anything.
func (s *manualScheduler) skip(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	s.mu.Unlock()
}

// drop forgets every queued task.
func (s *manualScheduler) drop() {
	s.mu.Lock()
	s.tasks = nil
	s.mu.Unlock()
}

type testTable struct {
	*Game
	sched   *manualScheduler
	mu      sync.Mutex
	updates []Update
}

func (tt *testTable) updateCount() int {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	return len(tt.updates)
}

func newTestTable(t *testing.T, mutate func(*Config)) *testTable {
	t.Helper()
	sched := newManualScheduler()
	tt := &testTable{sched: sched}
	cfg := DefaultConfig()
	cfg.Seed = 1
	cfg.Scheduler = sched
	cfg.Clock = sched.Now
	cfg.OnUpdate = func(u Update) {
		tt.mu.Lock()
		tt.updates = append(tt.updates, u)
		tt.mu.Unlock()
	}
	if mutate != nil {
		mutate(&cfg)
	}
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	tt.Game = g
	return tt
}

func conn(seat int) string     { return fmt.Sprintf("c%d", seat) }
func playerID(seat int) string { return fmt.Sprintf("p%d", seat) }

func (tt *testTable) seatHumans(n int) {
	for i := 0; i < n; i++ {
		tt.Join(JoinRequest{ConnID: conn(i), PlayerID: playerID(i), Name: fmt.Sprintf("Player %d", i)})
	}
}

// stepUntil runs scheduled tasks until cond holds.
func (tt *testTable) stepUntil(t *testing.T, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	for i := 0; i < 200; i++ {
		snap := tt.Snapshot()
		if cond(snap) {
			return snap
		}
		if !tt.sched.step() {
			t.Fatalf("no scheduled task left, phase=%v stage=%v", snap.Phase, snap.Stage)
		}
	}
	t.Fatalf("condition not reached")
	return Snapshot{}
}

func inPhase(p Phase) func(Snapshot) bool {
	return func(s Snapshot) bool { return s.Phase == p && s.Stage == StageNone }
}

// riggedDeck orders a deck so that, with the given dealer and taker, seat i
// ends with hands[i]. The taker's last card is the turned card.
func riggedDeck(hands [NumSeats][]card.Card, dealer, taker int) []card.Card {
	order := make([]int, 0, NumSeats)
	for i := 1; i <= NumSeats; i++ {
		order = append(order, (dealer+i)%NumSeats)
	}
	var deck []card.Card
	for _, seat := range order {
		deck = append(deck, hands[seat][0:3]...)
	}
	for _, seat := range order {
		deck = append(deck, hands[seat][3:5]...)
	}
	deck = append(deck, hands[taker][7])
	for _, seat := range order {
		if seat == taker {
			deck = append(deck, hands[seat][5:7]...)
			continue
		}
		deck = append(deck, hands[seat][5:8]...)
	}
	return deck
}

// checkConservation asserts every card is in exactly one place.
func checkConservation(t *testing.T, g *Game) {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	seen := make(map[card.Card]int, card.DeckSize)
	for _, h := range g.hands {
		for _, c := range h {
			seen[c]++
		}
	}
	for _, pl := range g.trick {
		seen[pl.Card]++
	}
	for _, c := range g.deck {
		seen[c]++
	}
	for _, c := range g.won {
		seen[c]++
	}
	if g.turnedCard.Valid() {
		seen[g.turnedCard]++
	}
	if g.phase == PhaseLobby {
		return
	}
	if len(seen) != card.DeckSize {
		t.Fatalf("expected %d distinct cards, got %d (phase %v)", card.DeckSize, len(seen), g.phase)
	}
	for c, n := range seen {
		if n != 1 {
			t.Fatalf("card %v appears %d times", c, n)
		}
	}
}

func seatOf(snap Snapshot, id string) int {
	for _, p := range snap.Players {
		if p.ID == id {
			return p.Seat
		}
	}
	return InvalidSeat
}

func intPtr(v int) *int { return &v }

// Seat-indexed hands for a 4-human table with trump clubs, dealer 3 and the
// taker at seat 0. Seat 0 holds a square of jacks and a run of hearts.
var riggedHands = [NumSeats][]card.Card{
	{card.CardHeartJ, card.CardDiamondJ, card.CardSpadeJ, card.CardHeart7, card.CardHeart8, card.CardHeart9, card.CardDiamond7, card.CardClubJ},
	{card.CardHeartA, card.CardHeartK, card.CardDiamondA, card.CardDiamondK, card.CardClub7, card.CardClub8, card.CardSpade7, card.CardSpade8},
	{card.CardHeartT, card.CardHeartQ, card.CardDiamondT, card.CardDiamondQ, card.CardClub9, card.CardClubT, card.CardSpade9, card.CardSpadeT},
	{card.CardDiamond8, card.CardDiamond9, card.CardClubQ, card.CardClubK, card.CardClubA, card.CardSpadeQ, card.CardSpadeK, card.CardSpadeA},
}
