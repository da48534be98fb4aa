// Package ledger records finished games, participant rating changes and
// current ratings, and serves match history.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"belote-lite/apps/server/internal/auth"
	"belote-lite/belote"
)

const (
	ModeMemory   = "memory"
	ModeSQLite   = "sqlite"
	ModePostgres = "postgres"

	defaultRecentLimit = 5
	maxRecentLimit     = 50
)

var (
	ErrUnratedPlayer = errors.New("player has no account")
	ErrDuplicateGame = errors.New("game already recorded")
	ErrUnknownGame   = errors.New("unknown game")
)

// Service persists settlements and answers rating/history queries.
type Service interface {
	belote.Recorder
	Rating(ctx context.Context, userID uint64) (rating int, ok bool, err error)
	RecentGames(ctx context.Context, userID uint64, limit int) ([]HistoryItem, error)
	Close() error
}

// HistoryItem is one finished game seen from a participant.
type HistoryItem struct {
	GameID       string        `json:"gameId"`
	FinishedAt   time.Time     `json:"finishedAt"`
	Winner       belote.Team   `json:"winner"`
	Scores       belote.Scores `json:"scores"`
	MyTeam       belote.Team   `json:"myTeam"`
	Won          bool          `json:"won"`
	RatingBefore int           `json:"ratingBefore"`
	RatingChange int           `json:"ratingChange"`
}

// Options selects and configures the ledger store.
type Options struct {
	Mode        string
	SQLitePath  string
	DatabaseURL string
}

func NewService(opts Options) (Service, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Mode)) {
	case ModeMemory:
		return NewMemoryService(), nil
	case ModeSQLite:
		svc, err := NewSQLiteService(opts.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite ledger: %w", err)
		}
		return svc, nil
	case ModePostgres:
		svc, err := NewPostgresService(opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres ledger: %w", err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("invalid ledger mode %q", opts.Mode)
	}
}

func accountOf(userID string) (uint64, error) {
	id, ok := auth.ParsePlayerID(userID)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnratedPlayer, userID)
	}
	return id, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultRecentLimit
	}
	if limit > maxRecentLimit {
		return maxRecentLimit
	}
	return limit
}

type gameRecord struct {
	ID         string
	Scores     belote.Scores
	Winner     belote.Team
	FinishedAt time.Time
}

type participantRecord struct {
	GameID       string
	Team         belote.Team
	RatingBefore int
	RatingChange int
}

// MemoryService keeps the ledger in process memory.
type MemoryService struct {
	mu           sync.Mutex
	now          func() time.Time
	games        map[string]gameRecord
	participants map[uint64][]participantRecord
	ratings      map[uint64]int
}

func NewMemoryService() *MemoryService {
	return &MemoryService{
		now:          time.Now,
		games:        make(map[string]gameRecord),
		participants: make(map[uint64][]participantRecord),
		ratings:      make(map[uint64]int),
	}
}

func (m *MemoryService) CreateGame(_ context.Context, gameID string, scores belote.Scores, winner belote.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[gameID]; exists {
		return ErrDuplicateGame
	}
	m.games[gameID] = gameRecord{ID: gameID, Scores: scores, Winner: winner, FinishedAt: m.now().UTC()}
	return nil
}

func (m *MemoryService) AddParticipant(_ context.Context, gameID, userID string, team belote.Team, ratingBefore, ratingChange int) error {
	accountID, err := accountOf(userID)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[gameID]; !exists {
		return ErrUnknownGame
	}
	m.participants[accountID] = append(m.participants[accountID], participantRecord{
		GameID:       gameID,
		Team:         team,
		RatingBefore: ratingBefore,
		RatingChange: ratingChange,
	})
	return nil
}

func (m *MemoryService) UpdateRating(_ context.Context, userID string, newRating int) error {
	accountID, err := accountOf(userID)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings[accountID] = newRating
	return nil
}

func (m *MemoryService) Rating(_ context.Context, userID uint64) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ratings[userID]
	return r, ok, nil
}

func (m *MemoryService) RecentGames(_ context.Context, userID uint64, limit int) ([]HistoryItem, error) {
	limit = clampLimit(limit)
	m.mu.Lock()
	defer m.mu.Unlock()

	records := m.participants[userID]
	items := make([]HistoryItem, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		p := records[i]
		g := m.games[p.GameID]
		items = append(items, HistoryItem{
			GameID:       g.ID,
			FinishedAt:   g.FinishedAt,
			Winner:       g.Winner,
			Scores:       g.Scores,
			MyTeam:       p.Team,
			Won:          g.Winner == p.Team,
			RatingBefore: p.RatingBefore,
			RatingChange: p.RatingChange,
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].FinishedAt.After(items[j].FinishedAt) })
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MemoryService) Close() error { return nil }
