package auth

import (
	"fmt"
	"strings"
	"time"
)

const (
	ModeMemory   = "memory"
	ModeSQLite   = "sqlite"
	ModePostgres = "postgres"
)

// Options selects and configures the account store.
type Options struct {
	Mode        string
	SQLitePath  string
	DatabaseURL string
	SessionTTL  time.Duration
}

func NewService(opts Options) (Service, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Mode)) {
	case ModeMemory:
		return NewManager(opts.SessionTTL), nil
	case ModeSQLite:
		manager, err := NewSQLiteManager(opts.SQLitePath, opts.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("open sqlite auth store: %w", err)
		}
		return manager, nil
	case ModePostgres:
		manager, err := NewPostgresManager(opts.DatabaseURL, opts.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("open postgres auth store: %w", err)
		}
		return manager, nil
	default:
		return nil, fmt.Errorf("invalid auth mode %q (supported: %s, %s, %s)", opts.Mode, ModeMemory, ModeSQLite, ModePostgres)
	}
}
