// Package plugins provides a registry of named message sources and record
// stores.
package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/ArionMiles/paysms/pkg/api"
	"github.com/ArionMiles/paysms/pkg/config"
)

// SourcePlugin builds a message source.
type SourcePlugin interface {
	// Name returns the plugin name (e.g., "jsonl", "gmail").
	Name() string
	// Description returns a human-readable description.
	Description() string
	// RequiredScopes returns the OAuth scopes needed by this plugin.
	RequiredScopes() []string
	// NewSource creates a source from cfg. httpClient is nil unless the
	// plugin requires OAuth scopes.
	NewSource(ctx context.Context, httpClient *http.Client, cfg config.Config, logger *slog.Logger) (api.Source, error)
}

// StorePlugin builds a record store.
type StorePlugin interface {
	Name() string
	Description() string
	NewStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (api.Store, error)
}

// Registry manages available source and store plugins.
type Registry struct {
	sources map[string]SourcePlugin
	stores  map[string]StorePlugin
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]SourcePlugin),
		stores:  make(map[string]StorePlugin),
	}
}

// RegisterSource registers a source plugin.
func (r *Registry) RegisterSource(plugin SourcePlugin) error {
	name := plugin.Name()
	if _, exists := r.sources[name]; exists {
		return fmt.Errorf("source plugin %q already registered", name)
	}
	r.sources[name] = plugin
	return nil
}

// RegisterStore registers a store plugin.
func (r *Registry) RegisterStore(plugin StorePlugin) error {
	name := plugin.Name()
	if _, exists := r.stores[name]; exists {
		return fmt.Errorf("store plugin %q already registered", name)
	}
	r.stores[name] = plugin
	return nil
}

// GetSource returns a source plugin by name.
func (r *Registry) GetSource(name string) (SourcePlugin, error) {
	plugin, exists := r.sources[name]
	if !exists {
		return nil, fmt.Errorf("source plugin %q not found", name)
	}
	return plugin, nil
}

// GetStore returns a store plugin by name.
func (r *Registry) GetStore(name string) (StorePlugin, error) {
	plugin, exists := r.stores[name]
	if !exists {
		return nil, fmt.Errorf("store plugin %q not found", name)
	}
	return plugin, nil
}

// ListSources returns all registered source plugins sorted by name.
func (r *Registry) ListSources() []SourcePlugin {
	plugins := make([]SourcePlugin, 0, len(r.sources))
	for _, plugin := range r.sources {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Name() < plugins[j].Name() })
	return plugins
}

// ListStores returns all registered store plugins sorted by name.
func (r *Registry) ListStores() []StorePlugin {
	plugins := make([]StorePlugin, 0, len(r.stores))
	for _, plugin := range r.stores {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Name() < plugins[j].Name() })
	return plugins
}

// Scopes returns the deduplicated OAuth scopes required by the named source
// plus any extra scopes.
func (r *Registry) Scopes(sourceName string, extra ...string) ([]string, error) {
	source, err := r.GetSource(sourceName)
	if err != nil {
		return nil, err
	}

	scopeSet := make(map[string]struct{})
	var scopes []string
	for _, scope := range append(source.RequiredScopes(), extra...) {
		if _, ok := scopeSet[scope]; ok {
			continue
		}
		scopeSet[scope] = struct{}{}
		scopes = append(scopes, scope)
	}
	return scopes, nil
}

// CreateSource creates a source instance from a plugin.
func (r *Registry) CreateSource(ctx context.Context, name string, httpClient *http.Client, cfg config.Config, logger *slog.Logger) (api.Source, error) {
	plugin, err := r.GetSource(name)
	if err != nil {
		return nil, err
	}
	return plugin.NewSource(ctx, httpClient, cfg, logger)
}

// CreateStore creates a store instance from a plugin.
func (r *Registry) CreateStore(ctx context.Context, name string, cfg config.Config, logger *slog.Logger) (api.Store, error) {
	plugin, err := r.GetStore(name)
	if err != nil {
		return nil, err
	}
	return plugin.NewStore(ctx, cfg, logger)
}
