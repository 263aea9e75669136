// Package session provides the data session contract used by the entconsole
// interpreter, together with the database/sql machinery shared by every
// backend implementation.
//
// The interpreter only ever talks to the Session interface. Concrete
// backends live in pkg/sessions/ subdirectories and register themselves by
// name; import one with a blank identifier to make it available:
//
//	import _ "github.com/leapstack-labs/entconsole/pkg/sessions/sqlite"
package session

import (
	"context"
	"time"
)

// Session is a connection to a managed data store that understands the
// entity query language and exposes the store's declared schema.
type Session interface {
	// ExecuteQuery runs an entity query and returns one value per result row.
	// A row is a *Record when the query selects a whole entity, a scalar when
	// it selects a single column, and a []any otherwise.
	ExecuteQuery(ctx context.Context, text string) ([]any, error)

	// ExecuteNativeQuery runs a query in the backend's own SQL dialect.
	ExecuteNativeQuery(ctx context.Context, text string) ([]any, error)

	// Begin opens a transaction. Only one transaction may be open at a time.
	Begin(ctx context.Context) error

	// Commit commits the open transaction.
	Commit() error

	// Rollback rolls back the open transaction.
	Rollback() error

	// IsTransactionActive reports whether a transaction is open.
	IsTransactionActive() bool

	// ExecuteUpdate runs an update or delete statement inside the open
	// transaction and returns the number of affected rows.
	ExecuteUpdate(ctx context.Context, text string) (int64, error)

	// ListManagedTypes returns every declared type, including mapped
	// superclasses that only exist to be inherited from.
	ListManagedTypes() []*EntityDescriptor

	// ProviderName identifies the backend for the startup banner.
	ProviderName() string

	// Close releases the underlying connection.
	Close() error
}

// NamedQuerier is implemented by sessions that can enumerate the named
// queries declared in their schema.
type NamedQuerier interface {
	ListNamedQueries() map[string]NamedQuery
}

// NamedQuery is a query declared by name in the schema manifest.
type NamedQuery struct {
	Name  string `yaml:"name" toml:"name"`
	Query string `yaml:"query" toml:"query"`

	// SQL is the statement the query translates to, when it can be derived.
	SQL string `yaml:"-" toml:"-"`
}

// Record is a materialized entity returned by an entity query.
type Record struct {
	Type   string
	Fields []Field
}

// Field is one attribute value of a Record.
type Field struct {
	Name  string
	Value any
}

// Get returns the value of the named field.
func (r *Record) Get(name string) (any, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Event describes one statement sent to the database.
type Event struct {
	SQL      string
	Duration time.Duration
	Rows     int64
	Err      error
}

// Observer receives an Event for every statement a session executes.
type Observer interface {
	Observe(Event)
}

// Config holds the configuration for opening a session.
type Config struct {
	// Driver selects the registered backend (e.g., "sqlite", "postgres").
	Driver string

	// Database is the file path for file-based stores or the database name
	// for network-based ones.
	Database string

	Host     string
	Port     int
	User     string
	Password string
	Schema   string

	// Options contains driver-specific settings decoded by each backend.
	Options map[string]any

	// Catalog holds the declared entity types. A nil catalog means only
	// native queries can be resolved.
	Catalog *Catalog

	// Observer, when set, is notified of every executed statement.
	Observer Observer
}
