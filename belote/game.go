package belote

import (
	"math/rand"
	"sync"
	"time"

	"belote-lite/belote/npc"
	"belote-lite/card"

	"go.uber.org/zap"
)

// Game is a single Belote table. Public operations never return errors:
// rejected actions are logged and leave the state untouched. Every accepted
// mutation queues an Update that is delivered to Config.OnUpdate once the
// lock is released.
type Game struct {
	cfg   Config
	rng   *rand.Rand
	log   *zap.Logger
	sched Scheduler
	now   func() time.Time
	bots  *npc.Manager

	mu sync.Mutex

	// seats
	players []*Player         // seat order
	conns   map[string]string // connID -> playerID
	brains  map[string]npc.Brain

	phase        Phase
	stage        DealStage
	epoch        uint64 // bumped on every new round and reset
	actionSeq    uint64 // bumped on every accepted bid or play
	lastProgress time.Time

	// round state
	deck         card.CardList
	hands        map[string]card.CardList
	won          card.CardList
	turnedCard   card.Card
	biddingRound int
	takerSeat    int
	trump        card.Suit
	history      []BidRecord

	dealer       int
	turn         int
	trick        []Play
	lastTrick    *TrickRecord
	tricksPlayed int
	resolving    bool

	scores        Scores
	currentScores Scores
	roundSummary  *Scores
	ready         []string

	// announcements
	candidates     map[string][]Announcement
	declared       map[string]bool
	pending        map[string][]Announcement
	adjudicated    bool
	announceResult *AnnouncementResult

	winner     Team
	settlement *Settlement

	updateSeq   uint64
	outbox      []Update
	settleQueue []Settlement
}

func New(cfg Config) (*Game, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var sched Scheduler = TimerScheduler{}
	if cfg.Scheduler != nil {
		sched = cfg.Scheduler
	}
	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}
	g := &Game{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(seed)),
		log:   logger,
		sched: sched,
		now:   clock,
		bots: npc.NewManager(cfg.Personas, npc.ManagerConfig{
			ThinkMin: cfg.BotThinkMin,
			ThinkMax: cfg.BotThinkMax,
			Seed:     seed + 1,
		}),
		conns:  make(map[string]string),
		brains: make(map[string]npc.Brain),
		phase:  PhaseLobby,
	}
	g.clearRoundLocked()
	g.lastProgress = clock()
	return g, nil
}

// do runs one locked operation and flushes the resulting updates.
func (g *Game) do(op, connID string, fn func() error) {
	g.mu.Lock()
	err := fn()
	g.mu.Unlock()
	if err != nil {
		g.log.Debug("action rejected",
			zap.String("op", op),
			zap.String("conn", connID),
			zap.Stringer("phase", g.Phase()),
			zap.Error(err))
	}
	g.flush()
}

// withPlayer resolves connID to its seated player before running fn.
func (g *Game) withPlayer(op, connID string, fn func(p *Player) error) {
	g.do(op, connID, func() error {
		p := g.playerByConnLocked(connID)
		if p == nil {
			return ErrUnknownConnection
		}
		return fn(p)
	})
}

func (g *Game) flush() {
	g.mu.Lock()
	updates := g.outbox
	g.outbox = nil
	settlements := g.settleQueue
	g.settleQueue = nil
	g.mu.Unlock()

	for _, s := range settlements {
		g.dispatchSettlement(s)
	}
	if g.cfg.OnUpdate == nil {
		return
	}
	for _, u := range updates {
		g.cfg.OnUpdate(u)
	}
}

func (g *Game) emitLocked(kind UpdateKind) {
	g.updateSeq++
	g.lastProgress = g.now()
	g.outbox = append(g.outbox, Update{Seq: g.updateSeq, Kind: kind, Phase: g.phase})
}

// scheduleLocked registers a continuation that is dropped if a new round or
// a reset happened in the meantime.
func (g *Game) scheduleLocked(d time.Duration, fn func()) {
	epoch := g.epoch
	g.sched.After(d, func() {
		g.mu.Lock()
		if g.epoch == epoch {
			fn()
		}
		g.mu.Unlock()
		g.flush()
	})
}

func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

func (g *Game) playerByConnLocked(connID string) *Player {
	if connID == "" {
		return nil
	}
	id, ok := g.conns[connID]
	if !ok {
		return nil
	}
	return g.playerByIDLocked(id)
}

func (g *Game) playerByIDLocked(id string) *Player {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *Game) playerAtLocked(seat int) *Player {
	if seat < 0 || seat >= len(g.players) {
		return nil
	}
	return g.players[seat]
}

func (g *Game) seatOfLocked(id string) int {
	if p := g.playerByIDLocked(id); p != nil {
		return p.seat
	}
	return InvalidSeat
}

func (g *Game) hasConnectedHumanLocked() bool {
	for _, p := range g.players {
		if !p.Bot && p.Connected() {
			return true
		}
	}
	return false
}

func (g *Game) reseatLocked() {
	for i, p := range g.players {
		p.seat = i
	}
}

// clearRoundLocked drops every per-round record.
func (g *Game) clearRoundLocked() {
	g.stage = StageNone
	g.deck = nil
	g.hands = make(map[string]card.CardList, NumSeats)
	g.won = nil
	g.turnedCard = card.CardInvalid
	g.biddingRound = 0
	g.takerSeat = InvalidSeat
	g.trump = card.SuitNone
	g.history = nil
	g.trick = nil
	g.lastTrick = nil
	g.tricksPlayed = 0
	g.resolving = false
	g.currentScores = Scores{}
	g.roundSummary = nil
	g.ready = nil
	g.candidates = make(map[string][]Announcement, NumSeats)
	g.declared = make(map[string]bool, NumSeats)
	g.pending = make(map[string][]Announcement, NumSeats)
	g.adjudicated = false
	g.announceResult = nil
}
