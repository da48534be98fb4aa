package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"belote-lite/apps/server/internal/auth"
	"belote-lite/belote"
)

type PostgresService struct {
	db *sql.DB
}

func NewPostgresService(dsn string) (*PostgresService, error) {
	db, err := auth.OpenPostgres(dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ensurePostgresLedgerSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresService{db: db}, nil
}

func (s *PostgresService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresService) CreateGame(ctx context.Context, gameID string, scores belote.Scores, winner belote.Team) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO games (id, team1_score, team2_score, winner, finished_at)
VALUES ($1, $2, $3, $4, NOW())
`, gameID, scores.Team1, scores.Team2, int(winner))
	if pqCode(err) == "23505" {
		return ErrDuplicateGame
	}
	return err
}

func (s *PostgresService) AddParticipant(ctx context.Context, gameID, userID string, team belote.Team, ratingBefore, ratingChange int) error {
	accountID, err := accountOf(userID)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO game_participants (game_id, user_id, team, rating_before, rating_change)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (game_id, user_id) DO UPDATE SET
    team = EXCLUDED.team,
    rating_before = EXCLUDED.rating_before,
    rating_change = EXCLUDED.rating_change
`, gameID, int64(accountID), int(team), ratingBefore, ratingChange)
	if pqCode(err) == "23503" {
		return ErrUnknownGame
	}
	return err
}

func (s *PostgresService) UpdateRating(ctx context.Context, userID string, newRating int) error {
	accountID, err := accountOf(userID)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO player_ratings (user_id, rating, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (user_id) DO UPDATE SET
    rating = EXCLUDED.rating,
    updated_at = NOW()
`, int64(accountID), newRating)
	return err
}

func (s *PostgresService) Rating(ctx context.Context, userID uint64) (int, bool, error) {
	var rating int
	err := s.db.QueryRowContext(ctx, `SELECT rating FROM player_ratings WHERE user_id = $1`, int64(userID)).Scan(&rating)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rating, true, nil
}

func (s *PostgresService) RecentGames(ctx context.Context, userID uint64, limit int) ([]HistoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT g.id, g.finished_at, g.winner, g.team1_score, g.team2_score,
       p.team, p.rating_before, p.rating_change
FROM game_participants AS p
JOIN games AS g ON g.id = p.game_id
WHERE p.user_id = $1
ORDER BY g.finished_at DESC
LIMIT $2
`, int64(userID), clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]HistoryItem, 0)
	for rows.Next() {
		var (
			item         HistoryItem
			winner, team int
		)
		if err := rows.Scan(
			&item.GameID, &item.FinishedAt, &winner, &item.Scores.Team1, &item.Scores.Team2,
			&team, &item.RatingBefore, &item.RatingChange,
		); err != nil {
			return nil, err
		}
		item.FinishedAt = item.FinishedAt.UTC()
		item.Winner = belote.Team(winner)
		item.MyTeam = belote.Team(team)
		item.Won = item.Winner == item.MyTeam
		items = append(items, item)
	}
	return items, rows.Err()
}

func ensurePostgresLedgerSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS games (
    id TEXT PRIMARY KEY,
    team1_score INTEGER NOT NULL,
    team2_score INTEGER NOT NULL,
    winner SMALLINT NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS game_participants (
    game_id TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL,
    team SMALLINT NOT NULL,
    rating_before INTEGER NOT NULL,
    rating_change INTEGER NOT NULL,
    PRIMARY KEY (game_id, user_id)
)`,
		`CREATE INDEX IF NOT EXISTS idx_game_participants_user ON game_participants(user_id)`,
		`
CREATE TABLE IF NOT EXISTS player_ratings (
    user_id BIGINT PRIMARY KEY,
    rating INTEGER NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}
