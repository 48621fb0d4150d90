// Package mediaprovider adapts external media generation APIs to the
// generation.ProviderAdapter contract.
package mediaprovider

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
	"github.com/uniedit/reelforge/internal/infra/task"
)

// PresetOpenAI selects the synchronous OpenAI image adapter.
const PresetOpenAI = "openai"

// Registry holds provider adapters by id.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]generation.ProviderAdapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]generation.ProviderAdapter),
	}
}

// Build creates a registry from provider configs. Every adapter is wrapped
// in its own circuit breaker.
func Build(configs []Config, breaker *BreakerConfig, client *http.Client, poller *task.Poller, logger *zap.Logger) (*Registry, error) {
	r := NewRegistry()
	for _, cfg := range configs {
		var adapter generation.ProviderAdapter
		if cfg.Preset == PresetOpenAI {
			adapter = NewOpenAIAdapter(cfg, client)
		} else {
			a, err := NewTaskAPIAdapter(cfg, client, poller, logger)
			if err != nil {
				return nil, fmt.Errorf("provider %q: %w", cfg.ID, err)
			}
			adapter = a
		}
		if err := r.Register(WithBreaker(adapter, breaker, logger)); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an adapter. Ids must be unique.
func (r *Registry) Register(adapter generation.ProviderAdapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.adapters[adapter.ID()]; dup {
		return fmt.Errorf("provider %q already registered", adapter.ID())
	}
	r.adapters[adapter.ID()] = adapter
	return nil
}

// Get returns an adapter by provider id.
func (r *Registry) Get(providerID string) (generation.ProviderAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[providerID]
	return a, ok
}

// IDs returns every registered provider id in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Supporting returns the ids of adapters that generate kind, in sorted order.
func (r *Registry) Supporting(kind script.MediaKind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for id, a := range r.adapters {
		if a.Supports(kind) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Compile-time interface check
var _ generation.ProviderLookup = (*Registry)(nil)
