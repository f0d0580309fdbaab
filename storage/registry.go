package storage

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrUnknownDialect = errors.New("unknown dialect")

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Dialect)
)

// Register is called by each dialect's init function.
func Register(d Dialect) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Name()] = d
}

// Lookup returns the dialect registered under name.
func Lookup(name string) (Dialect, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	d, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (not compiled in)", ErrUnknownDialect, name)
	}
	return d, nil
}

// Names returns the registered dialect names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
