package auth

import (
	"crypto/rand"
	"encoding/base64"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultSessionTTL = 30 * 24 * time.Hour
	tokenBytes        = 32
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.-]{2,31}$`)

// Manager keeps accounts and sessions in memory. Used for STORE_MODE=memory and tests.
type Manager struct {
	mu  sync.Mutex
	now func() time.Time

	nextAccountID uint64
	sessionTTL    time.Duration
	sessions      map[string]sessionRecord // token -> account
	accountsByID  map[uint64]accountRecord
	accountsByKey map[string]uint64 // normalized username -> account
}

type sessionRecord struct {
	AccountID uint64
	ExpiresAt time.Time
}

type accountRecord struct {
	Account
	PasswordHash  []byte
	LastLoginTime time.Time
}

func NewManager(sessionTTL time.Duration) *Manager {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &Manager{
		now:           time.Now,
		nextAccountID: 100000,
		sessionTTL:    sessionTTL,
		sessions:      make(map[string]sessionRecord),
		accountsByID:  make(map[uint64]accountRecord),
		accountsByKey: make(map[string]uint64),
	}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validateUsername(username string) error {
	if !usernamePattern.MatchString(strings.TrimSpace(username)) {
		return ErrInvalidUsername
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 || len(password) > 72 {
		return ErrInvalidPassword
	}
	return nil
}

func (m *Manager) issueSessionLocked(accountID uint64, now time.Time) string {
	token := mustToken()
	m.sessions[token] = sessionRecord{AccountID: accountID, ExpiresAt: now.Add(m.sessionTTL)}
	return token
}

func (m *Manager) Register(username, password string) (Account, string, error) {
	if err := validateUsername(username); err != nil {
		return Account{}, "", err
	}
	if err := validatePassword(password); err != nil {
		return Account{}, "", err
	}

	normalized := normalizeUsername(username)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accountsByKey[normalized]; exists {
		return Account{}, "", ErrUsernameTaken
	}

	m.nextAccountID++
	now := m.now()
	rec := accountRecord{
		Account: Account{
			ID:          m.nextAccountID,
			Username:    normalized,
			DisplayName: strings.TrimSpace(username),
		},
		PasswordHash:  passwordHash,
		LastLoginTime: now,
	}
	m.accountsByID[rec.ID] = rec
	m.accountsByKey[normalized] = rec.ID

	return rec.Account, m.issueSessionLocked(rec.ID, now), nil
}

func (m *Manager) Login(username, password string) (Account, string, error) {
	normalized := normalizeUsername(username)
	if normalized == "" || password == "" {
		return Account{}, "", ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	accountID, exists := m.accountsByKey[normalized]
	if !exists {
		return Account{}, "", ErrInvalidCredentials
	}
	rec := m.accountsByID[accountID]
	if bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(password)) != nil {
		return Account{}, "", ErrInvalidCredentials
	}

	now := m.now()
	rec.LastLoginTime = now
	m.accountsByID[accountID] = rec
	return rec.Account, m.issueSessionLocked(accountID, now), nil
}

// ResolveSession validates a token and slides its expiry forward.
func (m *Manager) ResolveSession(token string) (Account, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Account{}, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, exists := m.sessions[token]
	if !exists {
		return Account{}, false
	}
	now := m.now()
	if !now.Before(rec.ExpiresAt) {
		delete(m.sessions, token)
		return Account{}, false
	}
	rec.ExpiresAt = now.Add(m.sessionTTL)
	m.sessions[token] = rec

	account, ok := m.accountsByID[rec.AccountID]
	if !ok {
		return Account{}, false
	}
	return account.Account, true
}

func (m *Manager) UpdateProfile(accountID uint64, displayName, avatar string) (Account, error) {
	displayName, avatar, err := normalizeProfile(displayName, avatar)
	if err != nil {
		return Account{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.accountsByID[accountID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	rec.DisplayName = displayName
	rec.Avatar = avatar
	m.accountsByID[accountID] = rec
	return rec.Account, nil
}

func (m *Manager) Logout(token string) {
	if token == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

func (m *Manager) Close() error { return nil }

func mustToken() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
