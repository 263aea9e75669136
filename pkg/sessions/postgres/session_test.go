package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/entconsole/internal/testutil"
	"github.com/leapstack-labs/entconsole/pkg/session"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   session.Config
		params   Params
		expected string
	}{
		{
			name: "basic connection",
			config: session.Config{
				Host:     "localhost",
				Port:     5432,
				Database: "testdb",
				User:     "user",
				Password: "pass",
			},
			expected: "host=localhost port=5432 dbname=testdb sslmode=disable user=user password=pass",
		},
		{
			name: "with custom sslmode",
			config: session.Config{
				Host:     "prod.example.com",
				Port:     5432,
				Database: "proddb",
				User:     "admin",
			},
			params:   Params{SSLMode: "require"},
			expected: "host=prod.example.com port=5432 dbname=proddb sslmode=require user=admin",
		},
		{
			name: "defaults",
			config: session.Config{
				Database: "mydb",
			},
			expected: "host=localhost port=5432 dbname=mydb sslmode=disable",
		},
		{
			name: "schema becomes search path",
			config: session.Config{
				Database: "mydb",
				Schema:   "ventas",
			},
			params:   Params{ConnectTimeout: 5},
			expected: "host=localhost port=5432 dbname=mydb sslmode=disable search_path=ventas connect_timeout=5",
		},
		{
			name: "explicit search path and quoting",
			config: session.Config{
				Database: "mydb",
				Schema:   "ignored",
				Password: "p a'ss",
			},
			params:   Params{SearchPath: "a, b", ApplicationName: "entconsole"},
			expected: `host=localhost port=5432 dbname=mydb sslmode=disable password='p a\'ss' search_path='a, b' application_name=entconsole`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config, &tt.params))
		})
	}
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams(map[string]any{"sslmode": "verify-full", "connect_timeout": "10"})
	require.NoError(t, err)
	assert.Equal(t, &Params{SSLMode: "verify-full", ConnectTimeout: 10}, p)

	_, err = ParseParams(map[string]any{"pool_size": 3})
	assert.Error(t, err)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		sql          string
		connectivity bool
		column       int
		unclassified bool
	}{
		{
			name:         "connection exception",
			err:          &pgconn.PgError{Code: "08006", Message: "connection failure"},
			connectivity: true,
		},
		{
			name:         "admin shutdown",
			err:          &pgconn.PgError{Code: "57P01", Message: "terminating connection due to administrator command"},
			connectivity: true,
		},
		{
			name:   "positioned syntax error",
			err:    &pgconn.PgError{Code: "42601", Message: `syntax error at or near "FRM"`, Position: 10},
			sql:    "SELECT 1 FRM x",
			column: 10,
		},
		{
			name:         "unpositioned server error",
			err:          &pgconn.PgError{Code: "23505", Message: "duplicate key"},
			sql:          "UPDATE x SET a = 1",
			unclassified: true,
		},
		{
			name:         "other error",
			err:          errors.New("boom"),
			unclassified: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err, tt.sql)
			if tt.unclassified {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)

			if tt.connectivity {
				var ce *session.ConnectivityError
				require.True(t, errors.As(got, &ce))
				assert.Equal(t, tt.err.(*pgconn.PgError).Code, ce.Code)
				return
			}
			var qe *session.QueryError
			require.True(t, errors.As(got, &qe))
			assert.Equal(t, tt.column, qe.Column)
			assert.Equal(t, tt.sql, qe.Statement)
		})
	}
}

func TestSession_PositionedErrorThroughBase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	s := New(testutil.NewTestLogger(t))
	s.DB = db
	defer func() { _ = s.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FRM x")).
		WillReturnError(&pgconn.PgError{Code: "42601", Message: `syntax error at or near "FRM"`, Position: 10})
	mock.ExpectClose()

	_, err = s.ExecuteNativeQuery(context.Background(), "SELECT 1 FRM x")
	var qe *session.QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, 10, qe.Column)
	assert.Equal(t, "PostgreSQL (pgx)", s.ProviderName())
}
