// Package postgres provides a PostgreSQL data session.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"github.com/leapstack-labs/entconsole/pkg/session"
)

// Session implements session.Session for PostgreSQL.
type Session struct {
	session.BaseSession
}

// New creates a new PostgreSQL session instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		BaseSession: session.BaseSession{
			Logger:   logger,
			Provider: "PostgreSQL (pgx)",
			Classify: classifyError,
		},
	}
}

// Connect establishes a connection to PostgreSQL.
func (s *Session) Connect(ctx context.Context, cfg session.Config) error {
	params, err := ParseParams(cfg.Options)
	if err != nil {
		return err
	}
	dsn := buildPostgresDSN(cfg, params)

	s.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	// A transaction must stay on one connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		if classified := classifyError(err, ""); classified != nil {
			return classified
		}
		return &session.ConnectivityError{Message: fmt.Sprintf("failed to ping postgres: %v", err), Err: err}
	}

	s.DB = db
	s.Cfg = cfg
	return nil
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg session.Config, p *Params) string {
	// Build key=value format: host=localhost port=5432 user=postgres ...
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := p.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.User != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.User)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", quoteDSNValue(cfg.Password))
	}

	searchPath := p.SearchPath
	if searchPath == "" {
		searchPath = cfg.Schema
	}
	if searchPath != "" {
		dsn += fmt.Sprintf(" search_path=%s", quoteDSNValue(searchPath))
	}
	if p.ConnectTimeout > 0 {
		dsn += fmt.Sprintf(" connect_timeout=%d", p.ConnectTimeout)
	}
	if p.ApplicationName != "" {
		dsn += fmt.Sprintf(" application_name=%s", quoteDSNValue(p.ApplicationName))
	}
	return dsn
}

// quoteDSNValue quotes a keyword/value connection string value when it
// contains spaces, quotes or backslashes.
func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// classifyError maps server errors onto the session error taxonomy.
// SQLSTATE class 08 (connection exception) and 57P (operator intervention)
// are connectivity failures; positioned errors keep the caret column.
func classifyError(err error, sqlText string) error {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return &session.ConnectivityError{Message: connErr.Error(), Err: err}
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	if strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P") {
		return &session.ConnectivityError{Code: pgErr.Code, Message: pgErr.Message, Err: err}
	}
	if pgErr.Position > 0 && sqlText != "" {
		return &session.QueryError{Statement: sqlText, Column: int(pgErr.Position), Err: err}
	}
	return nil
}
