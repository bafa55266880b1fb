package macros

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry provides macro management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups,
// because the gateway evaluates lighting macros on every relevant device
// fact and must not hit the database for each one.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by cache-invalidating CRUD operations.
//
// All public methods are thread-safe.
type Registry struct {
	repo    Repository
	cache   map[string]*Macro // Cached macros by ID
	cacheMu sync.RWMutex      // Protects cache
	logger  Logger
}

// NewRegistry creates a new macro registry.
// The repository is used for persistence; the registry adds caching.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Macro),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all macros from the repository into the cache.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	all, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading macros: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	// Clear and rebuild cache with deep copies
	r.cache = make(map[string]*Macro, len(all))
	for i := range all {
		m := all[i]
		r.cache[m.ID] = m.DeepCopy()
	}

	r.logger.Info("macro cache refreshed", "count", len(all))
	return nil
}

// GetMacro retrieves a macro by ID.
// The returned macro is a deep copy; callers can safely modify it.
func (r *Registry) GetMacro(_ context.Context, id string) (*Macro, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	cached, ok := r.cache[id]
	if !ok {
		return nil, ErrMacroNotFound
	}
	return cached.DeepCopy(), nil
}

// ListMacros retrieves all macros ordered by name.
// The returned macros are deep copies.
func (r *Registry) ListMacros(_ context.Context) []Macro {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	all := make([]Macro, 0, len(r.cache))
	for _, m := range r.cache {
		all = append(all, *m.DeepCopy())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// ListLightingMacros retrieves all lighting macros. This is the hot path
// the gateway walks on every button or sensor fact.
func (r *Registry) ListLightingMacros(_ context.Context) []Macro {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	var all []Macro
	for _, m := range r.cache {
		if m.Type == MacroTypeLighting {
			all = append(all, *m.DeepCopy())
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// CreateMacro validates and persists a new macro, then caches it.
func (r *Registry) CreateMacro(ctx context.Context, macro *Macro) error {
	if err := r.repo.Create(ctx, macro); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[macro.ID] = macro.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("macro created", "macro_id", macro.ID, "name", macro.Name)
	return nil
}

// UpdateMacro validates and persists macro changes, then refreshes the cache.
func (r *Registry) UpdateMacro(ctx context.Context, macro *Macro) error {
	if err := r.repo.Update(ctx, macro); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[macro.ID] = macro.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("macro updated", "macro_id", macro.ID, "name", macro.Name)
	return nil
}

// DeleteMacro removes a macro from the store and the cache.
func (r *Registry) DeleteMacro(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()

	r.logger.Info("macro deleted", "macro_id", id)
	return nil
}
