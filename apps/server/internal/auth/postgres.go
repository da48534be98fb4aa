package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

type PostgresManager struct {
	db         *sql.DB
	sessionTTL time.Duration
}

// OpenPostgres opens a lib/pq pool and checks connectivity.
func OpenPostgres(dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("empty postgres dsn")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func NewPostgresManager(dsn string, sessionTTL time.Duration) (*PostgresManager, error) {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	db, err := OpenPostgres(dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	if err := ensurePostgresAuthSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresManager{db: db, sessionTTL: sessionTTL}, nil
}

func (m *PostgresManager) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}

func (m *PostgresManager) Register(username, password string) (Account, string, error) {
	if err := validateUsername(username); err != nil {
		return Account{}, "", err
	}
	if err := validatePassword(password); err != nil {
		return Account{}, "", err
	}

	normalized := normalizeUsername(username)
	displayName := strings.TrimSpace(username)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return Account{}, "", err
	}
	defer tx.Rollback()

	account := Account{Username: normalized, DisplayName: displayName}
	if err := tx.QueryRowContext(ctx, `
INSERT INTO accounts (username, display_name, password_hash, last_login_at)
VALUES ($1, $2, $3, NOW())
RETURNING id
`, normalized, displayName, string(passwordHash)).Scan(&account.ID); err != nil {
		if isUniqueViolation(err) {
			return Account{}, "", ErrUsernameTaken
		}
		return Account{}, "", err
	}

	token, err := m.issueSessionTx(ctx, tx, account.ID)
	if err != nil {
		return Account{}, "", err
	}
	if err := tx.Commit(); err != nil {
		return Account{}, "", err
	}
	return account, token, nil
}

func (m *PostgresManager) Login(username, password string) (Account, string, error) {
	normalized := normalizeUsername(username)
	if normalized == "" || password == "" {
		return Account{}, "", ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var (
		account      Account
		passwordHash string
	)
	if err := m.db.QueryRowContext(ctx, `
SELECT id, username, display_name, avatar, password_hash
FROM accounts
WHERE username = $1
`, normalized).Scan(&account.ID, &account.Username, &account.DisplayName, &account.Avatar, &passwordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, "", ErrInvalidCredentials
		}
		return Account{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
		return Account{}, "", ErrInvalidCredentials
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return Account{}, "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
UPDATE accounts
SET last_login_at = NOW(),
    updated_at = NOW()
WHERE id = $1
`, account.ID); err != nil {
		return Account{}, "", err
	}

	token, err := m.issueSessionTx(ctx, tx, account.ID)
	if err != nil {
		return Account{}, "", err
	}
	if err := tx.Commit(); err != nil {
		return Account{}, "", err
	}
	return account, token, nil
}

func (m *PostgresManager) ResolveSession(token string) (Account, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Account{}, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var account Account
	expiresAt := time.Now().Add(m.sessionTTL)
	err := m.db.QueryRowContext(ctx, `
UPDATE auth_sessions AS s
SET last_seen_at = NOW(),
    expires_at = $2
FROM accounts AS a
WHERE s.token = $1
  AND s.account_id = a.id
  AND s.revoked_at IS NULL
  AND s.expires_at > NOW()
RETURNING a.id, a.username, a.display_name, a.avatar
`, token, expiresAt).Scan(&account.ID, &account.Username, &account.DisplayName, &account.Avatar)
	if err != nil {
		return Account{}, false
	}
	return account, true
}

func (m *PostgresManager) UpdateProfile(accountID uint64, displayName, avatar string) (Account, error) {
	displayName, avatar, err := normalizeProfile(displayName, avatar)
	if err != nil {
		return Account{}, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var account Account
	err = m.db.QueryRowContext(ctx, `
UPDATE accounts
SET display_name = $2,
    avatar = $3,
    updated_at = NOW()
WHERE id = $1
RETURNING id, username, display_name, avatar
`, accountID, displayName, avatar).Scan(&account.ID, &account.Username, &account.DisplayName, &account.Avatar)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return account, nil
}

func (m *PostgresManager) Logout(token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	_, _ = m.db.ExecContext(ctx, `
UPDATE auth_sessions
SET revoked_at = NOW()
WHERE token = $1
  AND revoked_at IS NULL
`, token)
}

func (m *PostgresManager) issueSessionTx(ctx context.Context, tx *sql.Tx, accountID uint64) (string, error) {
	expiresAt := time.Now().Add(m.sessionTTL)
	for i := 0; i < 5; i++ {
		token := mustToken()
		if _, err := tx.ExecContext(ctx, `
INSERT INTO auth_sessions (token, account_id, expires_at)
VALUES ($1, $2, $3)
`, token, accountID, expiresAt); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return "", err
		}
		return token, nil
	}
	return "", fmt.Errorf("failed to generate unique session token")
}

func ensurePostgresAuthSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS accounts (
    id BIGSERIAL PRIMARY KEY,
    username TEXT NOT NULL,
    display_name TEXT NOT NULL DEFAULT '',
    avatar TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_login_at TIMESTAMPTZ
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_accounts_username_ci ON accounts(lower(username))`,
		`
CREATE TABLE IF NOT EXISTS auth_sessions (
    token TEXT PRIMARY KEY,
    account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    issued_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ NOT NULL,
    revoked_at TIMESTAMPTZ,
    last_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE INDEX IF NOT EXISTS idx_auth_sessions_account ON auth_sessions(account_id, expires_at DESC)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
