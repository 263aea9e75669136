// Package duckdb provides a DuckDB data session.
package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/marcboeker/go-duckdb"

	"github.com/leapstack-labs/entconsole/pkg/session"
)

// Session implements session.Session for DuckDB.
type Session struct {
	session.BaseSession
}

// New creates a new DuckDB session instance.
func New(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		BaseSession: session.BaseSession{
			Logger:   logger,
			Provider: "DuckDB (go-duckdb)",
			Classify: classifyError,
		},
	}
}

// Connect establishes a connection to DuckDB.
// An empty path opens an in-memory database.
func (s *Session) Connect(ctx context.Context, cfg session.Config) error {
	params, err := ParseParams(cfg.Options)
	if err != nil {
		return err
	}

	s.Logger.Debug("connecting to duckdb", slog.String("path", cfg.Database))
	db, err := sql.Open("duckdb", params.dsn(cfg.Database))
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	// Transactions and session settings are per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return &session.ConnectivityError{Message: fmt.Sprintf("failed to open duckdb database: %v", err), Err: err}
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

func classifyError(err error, _ string) error {
	var de *duckdb.Error
	if !errors.As(err, &de) {
		return nil
	}
	switch de.Type {
	case duckdb.ErrorTypeConnection, duckdb.ErrorTypeNetwork, duckdb.ErrorTypeIO, duckdb.ErrorTypeFatal:
		return &session.ConnectivityError{Message: de.Msg, Err: err}
	}
	return nil
}
