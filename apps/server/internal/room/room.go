// Package room runs one belote table as an actor: a single goroutine drains
// an event channel, so engine calls for a room never interleave.
package room

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"belote-lite/apps/server/internal/codec"
	"belote-lite/belote"
	"belote-lite/card"
)

var (
	ErrRoomClosed = errors.New("room closed")
	// ErrNotSeated rejects table-wide commands from a connection without a seat.
	ErrNotSeated  = errors.New("connection holds no seat")
)

// Deliver hands a view to one connection. It must not block.
type Deliver func(codec.View)

// Room owns one engine and the connections watching it.
type Room struct {
	ID int

	log  *zap.Logger
	game *belote.Game

	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once

	events chan Event
	done   chan struct{}

	// actor-owned
	subs     map[string]*subscriber // connID -> subscriber
	dirty    bool
	onChange func(roomID int)
}

type subscriber struct {
	connID   string
	viewerID string
	deliver  Deliver
}

type EventType int

const (
	EventJoin EventType = iota
	EventLeave
	EventExplicitLeave
	EventStartWithBots
	EventStart
	EventBid
	EventPlayCard
	EventDeclare
	EventReady
	EventReset
	EventSweep
	EventSubscribe
	EventUnsubscribe
	eventContinuation
)

// Event is one message to the room actor.
type Event struct {
	Type     EventType
	ConnID   string
	Join     belote.JoinRequest
	Action   belote.BidAction
	Suit     card.Suit
	CardID   string
	Decision bool
	ViewerID string
	Deliver  Deliver
	Response chan error

	fn func()
}

// Options configures a room. Engine is copied per room; its Scheduler and
// OnUpdate are replaced by the room.
type Options struct {
	Engine   belote.Config
	Logger   *zap.Logger
	OnChange func(roomID int)
}

// New creates a room and starts its actor goroutine.
func New(id int, opts Options) (*Room, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Room{
		ID:       id,
		log:      logger.Named("room").With(zap.Int("room", id)),
		events:   make(chan Event, 256),
		done:     make(chan struct{}),
		subs:     make(map[string]*subscriber),
		onChange: opts.OnChange,
	}

	cfg := opts.Engine
	cfg.Scheduler = r
	cfg.OnUpdate = r.markDirty
	cfg.Logger = r.log
	game, err := belote.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("room %d: %w", id, err)
	}
	r.game = game

	go r.run()
	r.log.Info("room created")
	return r, nil
}

func (r *Room) run() {
	for {
		select {
		case e := <-r.events:
			err := r.handleEvent(e)
			r.publishIfDirty()
			if e.Response != nil {
				e.Response <- err
			}
		case <-r.done:
			r.log.Info("room actor stopped")
			return
		}
	}
}

func (r *Room) handleEvent(e Event) error {
	switch e.Type {
	case EventJoin:
		r.subscribe(e.ConnID, e.Join.PlayerID, e.Deliver)
		r.game.Join(e.Join)
		r.dirty = true
	case EventLeave:
		delete(r.subs, e.ConnID)
		r.game.Leave(e.ConnID)
	case EventExplicitLeave:
		delete(r.subs, e.ConnID)
		r.game.ExplicitLeave(e.ConnID)
	case EventStartWithBots:
		if r.game.PlayerOf(e.ConnID) == "" {
			return ErrNotSeated
		}
		r.game.StartWithBots()
	case EventStart:
		if r.game.PlayerOf(e.ConnID) == "" {
			return ErrNotSeated
		}
		r.game.Start()
	case EventBid:
		r.game.Bid(e.ConnID, e.Action, e.Suit)
	case EventPlayCard:
		r.game.PlayCard(e.ConnID, e.CardID)
	case EventDeclare:
		r.game.Declare(e.ConnID, e.Decision)
	case EventReady:
		r.game.SetReady(e.ConnID)
	case EventReset:
		if r.game.PlayerOf(e.ConnID) == "" {
			return ErrNotSeated
		}
		r.game.FullReset()
	case EventSweep:
		r.game.Sweep()
	case EventSubscribe:
		r.subscribe(e.ConnID, e.ViewerID, e.Deliver)
		if sub := r.subs[e.ConnID]; sub != nil {
			r.deliver(sub, r.game.Snapshot())
		}
	case EventUnsubscribe:
		delete(r.subs, e.ConnID)
	case eventContinuation:
		e.fn()
	default:
		return fmt.Errorf("unknown room event %d", e.Type)
	}
	return nil
}

func (r *Room) subscribe(connID, viewerID string, deliver Deliver) {
	if connID == "" || deliver == nil {
		return
	}
	r.subs[connID] = &subscriber{connID: connID, viewerID: viewerID, deliver: deliver}
}

// markDirty is the engine's OnUpdate hook. It runs on the actor goroutine
// because every engine call does.
func (r *Room) markDirty(u belote.Update) {
	r.dirty = true
	r.log.Debug("table updated", zap.Uint64("seq", u.Seq), zap.Stringer("kind", u.Kind), zap.Stringer("phase", u.Phase))
}

func (r *Room) publishIfDirty() {
	if !r.dirty {
		return
	}
	r.dirty = false
	snap := r.game.Snapshot()
	for _, sub := range r.subs {
		r.deliver(sub, snap)
	}
	if r.onChange != nil {
		r.onChange(r.ID)
	}
}

func (r *Room) deliver(sub *subscriber, snap belote.Snapshot) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("deliver panicked", zap.String("conn", sub.connID), zap.Any("panic", rec))
		}
	}()
	sub.deliver(codec.BuildView(r.ID, snap, sub.viewerID))
}

// After implements belote.Scheduler by posting the continuation back into
// the event channel.
func (r *Room) After(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		r.post(Event{Type: eventContinuation, fn: fn})
	})
}

// post enqueues without waiting for the result. Dropped once the room stops.
func (r *Room) post(e Event) {
	select {
	case r.events <- e:
	case <-r.done:
	}
}

// SubmitEvent enqueues an event and waits until the actor has handled it and
// published the resulting views.
func (r *Room) SubmitEvent(e Event) error {
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}

	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return ErrRoomClosed
	}

	select {
	case r.events <- e:
	case <-r.done:
		return ErrRoomClosed
	}

	select {
	case err := <-e.Response:
		return err
	case <-r.done:
		return ErrRoomClosed
	}
}

func (r *Room) Join(req belote.JoinRequest, deliver Deliver) error {
	return r.SubmitEvent(Event{Type: EventJoin, ConnID: req.ConnID, Join: req, Deliver: deliver})
}

func (r *Room) Leave(connID string) error {
	return r.SubmitEvent(Event{Type: EventLeave, ConnID: connID})
}

func (r *Room) ExplicitLeave(connID string) error {
	return r.SubmitEvent(Event{Type: EventExplicitLeave, ConnID: connID})
}

// StartWithBots, Start and FullReset are only accepted from a seated connection.
func (r *Room) StartWithBots(connID string) error {
	return r.SubmitEvent(Event{Type: EventStartWithBots, ConnID: connID})
}

func (r *Room) Start(connID string) error {
	return r.SubmitEvent(Event{Type: EventStart, ConnID: connID})
}

func (r *Room) Bid(connID string, action belote.BidAction, suit card.Suit) error {
	return r.SubmitEvent(Event{Type: EventBid, ConnID: connID, Action: action, Suit: suit})
}

func (r *Room) PlayCard(connID, cardID string) error {
	return r.SubmitEvent(Event{Type: EventPlayCard, ConnID: connID, CardID: cardID})
}

func (r *Room) Declare(connID string, decision bool) error {
	return r.SubmitEvent(Event{Type: EventDeclare, ConnID: connID, Decision: decision})
}

func (r *Room) SetReady(connID string) error {
	return r.SubmitEvent(Event{Type: EventReady, ConnID: connID})
}

func (r *Room) FullReset(connID string) error {
	return r.SubmitEvent(Event{Type: EventReset, ConnID: connID})
}

func (r *Room) Sweep() error { return r.SubmitEvent(Event{Type: EventSweep}) }

// Subscribe registers a watcher and immediately sends it the current view.
func (r *Room) Subscribe(connID, viewerID string, deliver Deliver) error {
	return r.SubmitEvent(Event{Type: EventSubscribe, ConnID: connID, ViewerID: viewerID, Deliver: deliver})
}

func (r *Room) Unsubscribe(connID string) error {
	return r.SubmitEvent(Event{Type: EventUnsubscribe, ConnID: connID})
}

// Snapshot reads the engine state. Safe from any goroutine.
func (r *Room) Snapshot() belote.Snapshot {
	return r.game.Snapshot()
}

// Stop shuts down the room actor. Pending continuations are dropped.
func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.stopOnce.Do(func() {
		close(r.done)
	})
}

func (r *Room) IsClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}
