package session

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// BaseSession provides the database/sql machinery shared by every backend.
// Embed it in concrete session implementations to get transaction state,
// entity query translation and result materialization.
type BaseSession struct {
	DB       *sql.DB
	Cfg      Config
	Logger   *slog.Logger
	Provider string

	// Classify lets a backend turn its driver errors into QueryError or
	// ConnectivityError values. It returns nil for errors it does not know,
	// which are then classified generically.
	Classify func(err error, sqlText string) error

	tx *sql.Tx
}

// Close closes the database connection, rolling back any open transaction.
func (b *BaseSession) Close() error {
	if b.tx != nil {
		_ = b.tx.Rollback()
		b.tx = nil
	}
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// ProviderName returns the backend description shown in the startup banner.
func (b *BaseSession) ProviderName() string {
	return b.Provider
}

// ListManagedTypes returns the types declared in the session's catalog.
func (b *BaseSession) ListManagedTypes() []*EntityDescriptor {
	return b.Cfg.Catalog.Types()
}

// ListNamedQueries returns the catalog's named queries keyed by name, each
// with its translated SQL when the query translates cleanly.
func (b *BaseSession) ListNamedQueries() map[string]NamedQuery {
	out := make(map[string]NamedQuery)
	for _, nq := range b.Cfg.Catalog.NamedQueries() {
		if tr, err := translate(nq.Query, b.Cfg.Catalog); err == nil {
			nq.SQL = tr.SQL
		}
		out[nq.Name] = nq
	}
	return out
}

// Begin opens a transaction.
func (b *BaseSession) Begin(ctx context.Context) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	if b.tx != nil {
		return ErrTransactionActive
	}
	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return b.classify(fmt.Errorf("failed to begin transaction: %w", err), "")
	}
	b.tx = tx
	return nil
}

// Commit commits the open transaction. The transaction is closed even when
// the commit fails.
func (b *BaseSession) Commit() error {
	if b.tx == nil {
		return ErrNoTransaction
	}
	err := b.tx.Commit()
	b.tx = nil
	if err != nil {
		return b.classify(err, "")
	}
	return nil
}

// Rollback rolls back the open transaction.
func (b *BaseSession) Rollback() error {
	if b.tx == nil {
		return ErrNoTransaction
	}
	err := b.tx.Rollback()
	b.tx = nil
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return b.classify(err, "")
	}
	return nil
}

// IsTransactionActive reports whether a transaction is open.
func (b *BaseSession) IsTransactionActive() bool {
	return b.tx != nil
}

// ExecuteQuery translates and runs an entity query.
func (b *BaseSession) ExecuteQuery(ctx context.Context, text string) ([]any, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	tr, err := translate(text, b.Cfg.Catalog)
	if err != nil {
		return nil, err
	}
	b.debug("translated entity query", text, tr.SQL)
	return b.query(ctx, tr.SQL, tr.Projection)
}

// ExecuteNativeQuery runs a query in the backend's SQL dialect.
func (b *BaseSession) ExecuteNativeQuery(ctx context.Context, text string) ([]any, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	return b.query(ctx, text, nil)
}

// ExecuteUpdate translates and runs an update or delete statement inside
// the open transaction.
func (b *BaseSession) ExecuteUpdate(ctx context.Context, text string) (int64, error) {
	if b.tx == nil {
		return 0, ErrNoTransaction
	}
	tr, err := translate(text, b.Cfg.Catalog)
	if err != nil {
		return 0, err
	}
	b.debug("translated entity update", text, tr.SQL)

	start := time.Now()
	res, err := b.tx.ExecContext(ctx, tr.SQL)
	if err != nil {
		b.observe(tr.SQL, start, 0, err)
		return 0, b.classify(err, tr.SQL)
	}
	n, err := res.RowsAffected()
	if err != nil {
		b.observe(tr.SQL, start, 0, err)
		return 0, b.classify(err, tr.SQL)
	}
	b.observe(tr.SQL, start, n, nil)
	return n, nil
}

func (b *BaseSession) query(ctx context.Context, sqlText string, proj *projection) ([]any, error) {
	start := time.Now()
	var (
		rows *sql.Rows
		err  error
	)
	if b.tx != nil {
		rows, err = b.tx.QueryContext(ctx, sqlText)
	} else {
		rows, err = b.DB.QueryContext(ctx, sqlText)
	}
	if err != nil {
		b.observe(sqlText, start, 0, err)
		return nil, b.classify(err, sqlText)
	}
	defer func() { _ = rows.Close() }()

	results, err := materialize(rows, proj)
	if err != nil {
		b.observe(sqlText, start, int64(len(results)), err)
		return nil, b.classify(err, sqlText)
	}
	b.observe(sqlText, start, int64(len(results)), nil)
	return results, nil
}

// materialize reads every row. A single column yields a scalar per row,
// several columns yield a []any, and an entity projection yields a *Record.
func materialize(rows *sql.Rows, proj *projection) ([]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	if proj != nil && proj.width() != len(cols) {
		return nil, fmt.Errorf("entity %s maps to %d columns but the query returned %d", proj.entity.Name, proj.width(), len(cols))
	}

	results := []any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return results, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			if bs, ok := v.([]byte); ok {
				values[i] = string(bs)
			}
		}

		switch {
		case proj != nil:
			rec, _ := proj.record(values)
			results = append(results, rec)
		case len(values) == 1:
			results = append(results, values[0])
		default:
			results = append(results, values)
		}
	}
	if err := rows.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// classify maps a driver error onto the session error taxonomy.
func (b *BaseSession) classify(err error, sqlText string) error {
	var qe *QueryError
	var ce *ConnectivityError
	if errors.As(err, &qe) || errors.As(err, &ce) {
		return err
	}
	if b.Classify != nil {
		if classified := b.Classify(err, sqlText); classified != nil {
			return classified
		}
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return &ConnectivityError{Message: err.Error(), Err: err}
	}
	if sqlText == "" {
		return err
	}
	return &QueryError{Statement: sqlText, Err: err}
}

func (b *BaseSession) observe(sqlText string, start time.Time, rows int64, err error) {
	if b.Cfg.Observer == nil {
		return
	}
	b.Cfg.Observer.Observe(Event{
		SQL:      sqlText,
		Duration: time.Since(start),
		Rows:     rows,
		Err:      err,
	})
}

func (b *BaseSession) debug(msg, text, sqlText string) {
	if b.Logger != nil {
		b.Logger.Debug(msg, slog.String("query", text), slog.String("sql", sqlText))
	}
}
