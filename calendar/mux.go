package calendar

import (
	"fmt"
	"sync"

	"github.com/guilherme-santos/calendarhub/internal"
)

// Mux resolves the remote calendar provider registered for a platform,
// e.g. internal.GoogleProvider.
type Mux struct {
	mu        sync.RWMutex
	providers map[string]internal.Provider
}

func NewMux() *Mux {
	return &Mux{
		providers: make(map[string]internal.Provider),
	}
}

func (m *Mux) Get(platform string) (internal.Provider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	provider, ok := m.providers[platform]
	if !ok {
		return nil, fmt.Errorf("calendar %q is not implemented", platform)
	}
	return provider, nil
}

func (m *Mux) Register(platform string, provider internal.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.providers[platform] = provider
}
