package ai

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps provider names to configured client instances.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]LLMClient
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]LLMClient)}
}

// Register binds name (case-insensitive) to client. A nil client is ignored.
func (r *Registry) Register(name string, client LLMClient) {
	if client == nil {
		return
	}
	name = normalizeProvider(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
}

// Get returns the client registered under name.
func (r *Registry) Get(name string) (LLMClient, error) {
	name = normalizeProvider(name)
	r.mu.RLock()
	client, ok := r.clients[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("ai: unknown provider %q", name)
	}
	return client, nil
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeProvider(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
