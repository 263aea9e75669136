package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Opener connects a backend and returns a ready session.
type Opener func(ctx context.Context, cfg Config, logger *slog.Logger) (Session, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Opener)
)

// Register adds a backend to the registry.
// Called by backend implementations in their init() functions.
func Register(name string, open Opener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = open
}

// Get retrieves a backend opener by name.
func Get(name string) (Opener, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	o, ok := registry[name]
	return o, ok
}

// Open connects the backend selected by cfg.Driver.
// The logger is passed to the backend (nil uses a discard logger).
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Session, error) {
	if cfg.Driver == "" {
		return nil, fmt.Errorf("session driver not specified")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	open, ok := Get(cfg.Driver)
	if !ok {
		return nil, &UnknownBackendError{
			Driver:    cfg.Driver,
			Available: Backends(),
		}
	}
	return open(ctx, cfg, logger.With(slog.String("driver", cfg.Driver)))
}

// Backends returns all registered driver names (sorted).
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a driver is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}
