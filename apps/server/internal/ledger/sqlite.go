package ledger

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"belote-lite/apps/server/internal/auth"
	"belote-lite/belote"
)

type SQLiteService struct {
	db *sql.DB
}

func NewSQLiteService(dbPath string) (*SQLiteService, error) {
	db, err := auth.OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ensureSQLiteLedgerSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteService{db: db}, nil
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteService) CreateGame(ctx context.Context, gameID string, scores belote.Scores, winner belote.Team) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO games (id, team1_score, team2_score, winner, finished_at_ms)
VALUES (?, ?, ?, ?, ?)
`, gameID, scores.Team1, scores.Team2, int(winner), time.Now().UTC().UnixMilli())
	if err != nil && isSQLiteUniqueViolation(err) {
		return ErrDuplicateGame
	}
	return err
}

func (s *SQLiteService) AddParticipant(ctx context.Context, gameID, userID string, team belote.Team, ratingBefore, ratingChange int) error {
	accountID, err := accountOf(userID)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO game_participants (game_id, user_id, team, rating_before, rating_change)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (game_id, user_id) DO UPDATE SET
    team = excluded.team,
    rating_before = excluded.rating_before,
    rating_change = excluded.rating_change
`, gameID, accountID, int(team), ratingBefore, ratingChange)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed") {
		return ErrUnknownGame
	}
	return err
}

func (s *SQLiteService) UpdateRating(ctx context.Context, userID string, newRating int) error {
	accountID, err := accountOf(userID)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO player_ratings (user_id, rating, updated_at_ms)
VALUES (?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    rating = excluded.rating,
    updated_at_ms = excluded.updated_at_ms
`, accountID, newRating, time.Now().UTC().UnixMilli())
	return err
}

func (s *SQLiteService) Rating(ctx context.Context, userID uint64) (int, bool, error) {
	var rating int
	err := s.db.QueryRowContext(ctx, `SELECT rating FROM player_ratings WHERE user_id = ?`, userID).Scan(&rating)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rating, true, nil
}

func (s *SQLiteService) RecentGames(ctx context.Context, userID uint64, limit int) ([]HistoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT g.id, g.finished_at_ms, g.winner, g.team1_score, g.team2_score,
       p.team, p.rating_before, p.rating_change
FROM game_participants AS p
JOIN games AS g ON g.id = p.game_id
WHERE p.user_id = ?
ORDER BY g.finished_at_ms DESC, g.rowid DESC
LIMIT ?
`, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]HistoryItem, 0)
	for rows.Next() {
		var (
			item         HistoryItem
			finishedAtMs int64
			winner, team int
		)
		if err := rows.Scan(
			&item.GameID, &finishedAtMs, &winner, &item.Scores.Team1, &item.Scores.Team2,
			&team, &item.RatingBefore, &item.RatingChange,
		); err != nil {
			return nil, err
		}
		item.FinishedAt = time.UnixMilli(finishedAtMs).UTC()
		item.Winner = belote.Team(winner)
		item.MyTeam = belote.Team(team)
		item.Won = item.Winner == item.MyTeam
		items = append(items, item)
	}
	return items, rows.Err()
}

func ensureSQLiteLedgerSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS games (
    id TEXT PRIMARY KEY,
    team1_score INTEGER NOT NULL,
    team2_score INTEGER NOT NULL,
    winner INTEGER NOT NULL,
    finished_at_ms INTEGER NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS game_participants (
    game_id TEXT NOT NULL,
    user_id INTEGER NOT NULL,
    team INTEGER NOT NULL,
    rating_before INTEGER NOT NULL,
    rating_change INTEGER NOT NULL,
    PRIMARY KEY (game_id, user_id),
    FOREIGN KEY(game_id) REFERENCES games(id) ON DELETE CASCADE
)`,
		`CREATE INDEX IF NOT EXISTS idx_game_participants_user ON game_participants(user_id)`,
		`
CREATE TABLE IF NOT EXISTS player_ratings (
    user_id INTEGER PRIMARY KEY,
    rating INTEGER NOT NULL,
    updated_at_ms INTEGER NOT NULL
)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func isSQLiteUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
