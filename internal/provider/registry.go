package provider

import (
	"fmt"
	"sort"
	"sync"

	"waas-gateway-go/internal/models"

	"go.uber.org/zap"
)

// Factory builds a Service from configuration.
type Factory func(cfg *models.Config) (Service, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a provider implementation resolvable under id. Registering
// the same id twice replaces the earlier factory.
func Register(id string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[id] = factory
}

// Resolve returns the Service for the configured provider id, or
// ErrUnsupportedProvider when no implementation is registered under it.
// Resolution happens per logical operation so configuration changes take
// effect without a restart; callers reuse one handle across the steps of a
// single operation so they never switch providers mid-flow.
func Resolve(cfg *models.Config) (Service, error) {
	registryMu.RLock()
	factory, ok := registry[cfg.Provider.Id]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("provider %q (registered: %v): %w",
			cfg.Provider.Id, registeredIds(), ErrUnsupportedProvider)
	}

	svc, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing provider %q: %w", cfg.Provider.Id, err)
	}

	zap.L().Info("Resolved custodial provider", zap.String("provider", cfg.Provider.Id))
	return svc, nil
}

func registeredIds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
