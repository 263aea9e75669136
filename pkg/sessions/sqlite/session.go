// Package sqlite provides a SQLite data session backed by the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/entconsole/pkg/session"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Session implements session.Session for SQLite.
type Session struct {
	session.BaseSession
}

// New creates a new SQLite session instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		BaseSession: session.BaseSession{
			Logger:   logger,
			Provider: "SQLite (modernc.org/sqlite)",
			Classify: classifyError,
		},
	}
}

// Connect opens the database file.
// Use ":memory:" (or an empty path) for an in-memory database.
func (s *Session) Connect(ctx context.Context, cfg session.Config) error {
	params, err := ParseParams(cfg.Options)
	if err != nil {
		return err
	}

	path := cfg.Database
	if path == "" {
		path = ":memory:"
	}
	s.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection keeps in-memory databases and pragmas alive.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return &session.ConnectivityError{Message: fmt.Sprintf("failed to open sqlite database %s: %v", path, err), Err: err}
	}
	for _, stmt := range params.statements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply %q: %w", stmt, err)
		}
	}

	s.DB = db
	s.Cfg = cfg
	return nil
}

// classifyError maps SQLite result codes that mean the database file is
// unusable onto connectivity failures.
func classifyError(err error, _ string) error {
	var se *sqlitedrv.Error
	if !errors.As(err, &se) {
		return nil
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_IOERR:
		return &session.ConnectivityError{
			Code:    fmt.Sprintf("SQLITE_%d", se.Code()),
			Message: se.Error(),
			Err:     err,
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
