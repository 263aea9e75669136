// Package sqlite provides a SQLite data session.
//
// This file registers the SQLite backend with the session registry.
// Import this package with a blank identifier to register it:
//
//	import _ "github.com/leapstack-labs/entconsole/pkg/sessions/sqlite"
package sqlite

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/entconsole/pkg/session"
)

func init() {
	session.Register("sqlite", func(ctx context.Context, cfg session.Config, logger *slog.Logger) (session.Session, error) {
		s := New(logger)
		if err := s.Connect(ctx, cfg); err != nil {
			return nil, err
		}
		return s, nil
	})
}
