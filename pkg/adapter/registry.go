package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Factory builds an unconnected backend adapter. Backends pass a nil logger
// through to New, which substitutes a discard logger.
type Factory func(*slog.Logger) Adapter

// ErrNoBackend is returned by NewAdapter when Config.Type is empty.
var ErrNoBackend = errors.New("no backend selected")

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a backend available under name. The duckdb, postgres and
// sqlite packages call it from init, so a binary only offers the backends
// it blank-imports. Names are case-insensitive; registering a name twice
// replaces the earlier factory.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[backendKey(name)] = factory
}

// Get returns the factory registered under name.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[backendKey(name)]
	return f, ok
}

// IsRegistered reports whether name is a known backend.
func IsRegistered(name string) bool {
	_, ok := Get(name)
	return ok
}

// ListAdapters returns the registered backend names, sorted.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewAdapter builds the backend named by cfg.Type. Type is filled from the
// backend config key or the --backend flag; the rest of cfg is only read
// later by Connect. The returned adapter is not connected.
//
// An empty Type yields ErrNoBackend and a name nobody registered yields an
// *UnknownAdapterError listing the backends compiled into the binary.
func NewAdapter(cfg Config, logger *slog.Logger) (Adapter, error) {
	if strings.TrimSpace(cfg.Type) == "" {
		return nil, ErrNoBackend
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{
			Type:      cfg.Type,
			Available: ListAdapters(),
		}
	}
	return factory(logger), nil
}

// UnknownAdapterError reports a Config.Type that no backend package
// registered. Type is the name as configured; Available holds the
// registered names so the CLI can suggest a valid backend setting.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown backend %q\nAvailable backends: %s\nHint: set backend in sqlpad.yaml or pass --backend",
		e.Type, strings.Join(e.Available, ", "))
}

func backendKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
