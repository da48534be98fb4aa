// Package lobby owns the room actors and summarizes them for the lobby screen.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"belote-lite/apps/server/internal/room"
	"belote-lite/belote"
)

const (
	MinRoomID = 1
	MaxRoomID = 100

	maxPlaceholders = 3
)

var ErrInvalidRoomID = errors.New("invalid room id")

const (
	StatusWaiting = "waiting"
	StatusPlaying = "playing"
	StatusEmpty   = "empty"
)

type PlayerSummary struct {
	ID     string `json:"id"`
	Name   string `json:"username"`
	Avatar string `json:"avatar,omitempty"`
	Bot    bool   `json:"isBot"`
}

type RoomSummary struct {
	ID          int             `json:"id"`
	Status      string          `json:"status"`
	PlayerCount int             `json:"playerCount"`
	Players     []PlayerSummary `json:"players"`
	Scores      belote.Scores   `json:"scores"`
}

// Registry lazily creates one room actor per id.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[int]*room.Room
	engine   belote.Config
	log      *zap.Logger
	onChange func(roomID int)
}

func NewRegistry(engine belote.Config, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		rooms:  make(map[int]*room.Room),
		engine: engine,
		log:    logger,
	}
}

// SetOnChange installs the hook run after any room publishes an update.
func (l *Registry) SetOnChange(fn func(roomID int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = fn
}

func (l *Registry) notify(roomID int) {
	l.mu.RLock()
	fn := l.onChange
	l.mu.RUnlock()
	if fn != nil {
		fn(roomID)
	}
}

// GetRoom returns the room with the given id, creating it on first use.
func (l *Registry) GetRoom(id int) (*room.Room, error) {
	if id < MinRoomID || id > MaxRoomID {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRoomID, id)
	}

	l.mu.RLock()
	r := l.rooms[id]
	l.mu.RUnlock()
	if r != nil {
		return r, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if r = l.rooms[id]; r != nil {
		return r, nil
	}
	r, err := room.New(id, room.Options{
		Engine:   l.engine,
		Logger:   l.log,
		OnChange: l.notify,
	})
	if err != nil {
		return nil, err
	}
	l.rooms[id] = r
	l.log.Info("room opened", zap.Int("room", id))
	return r, nil
}

func (l *Registry) snapshotRooms() []*room.Room {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rooms := make([]*room.Room, 0, len(l.rooms))
	for _, r := range l.rooms {
		rooms = append(rooms, r)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms
}

func summarize(id int, snap belote.Snapshot) RoomSummary {
	s := RoomSummary{
		ID:          id,
		Status:      StatusWaiting,
		PlayerCount: len(snap.Players),
		Players:     make([]PlayerSummary, 0, len(snap.Players)),
		Scores:      snap.Scores,
	}
	if snap.Phase != belote.PhaseLobby {
		s.Status = StatusPlaying
	}
	for _, p := range snap.Players {
		s.Players = append(s.Players, PlayerSummary{ID: p.ID, Name: p.Name, Avatar: p.Avatar, Bot: p.Bot})
	}
	return s
}

// LobbyList returns the viewer's own room when they hold a seat somewhere;
// otherwise every non-empty room plus up to three empty placeholders.
func (l *Registry) LobbyList(viewerID string) []RoomSummary {
	var list []RoomSummary
	used := make(map[int]bool)
	for _, r := range l.snapshotRooms() {
		snap := r.Snapshot()
		if viewerID != "" {
			for _, p := range snap.Players {
				if p.ID == viewerID && !p.Bot {
					return []RoomSummary{summarize(r.ID, snap)}
				}
			}
		}
		if len(snap.Players) == 0 {
			continue
		}
		used[r.ID] = true
		list = append(list, summarize(r.ID, snap))
	}

	placeholders := 0
	for id := MinRoomID; id <= MaxRoomID && placeholders < maxPlaceholders; id++ {
		if used[id] {
			continue
		}
		list = append(list, RoomSummary{ID: id, Status: StatusEmpty, Players: []PlayerSummary{}})
		placeholders++
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// SweepAll runs the watchdog sweep on every open room.
func (l *Registry) SweepAll() {
	for _, r := range l.snapshotRooms() {
		if err := r.Sweep(); err != nil && !errors.Is(err, room.ErrRoomClosed) {
			l.log.Warn("sweep failed", zap.Int("room", r.ID), zap.Error(err))
		}
	}
}

// RunWatchdog sweeps every interval until ctx is done.
func (l *Registry) RunWatchdog(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.SweepAll()
		}
	}
}

// Close stops every room actor.
func (l *Registry) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, r := range l.rooms {
		r.Stop()
		delete(l.rooms, id)
	}
}
