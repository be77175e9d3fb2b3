package workspace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/devplayground/playground/pkg/core"
)

// DefaultIdleTTL is how long an untouched workspace survives.
const DefaultIdleTTL = 2 * time.Hour

// Registry maps session ids to workspaces.
type Registry struct {
	mu      sync.Mutex
	items   map[string]*Workspace
	initial func() core.SourceBundle
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	onEvict []func(id string)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithIdleTTL sets the eviction threshold.
func WithIdleTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithInitial sets the bundle new workspaces start from.
func WithInitial(fn func() core.SourceBundle) RegistryOption {
	return func(r *Registry) { r.initial = fn }
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		items:   make(map[string]*Workspace),
		initial: func() core.SourceBundle { return core.SourceBundle{} },
		ttl:     DefaultIdleTTL,
		now:     time.Now,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the workspace for id, creating it on first use.
func (r *Registry) Get(id string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.items[id]; ok {
		return w
	}
	w := newWorkspace(r.initial(), r.now)
	r.items[id] = w
	return w
}

// Lookup returns the workspace for id without creating one.
func (r *Registry) Lookup(id string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[id]
	return w, ok
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// OnEvict registers a callback run after a workspace is evicted.
func (r *Registry) OnEvict(fn func(id string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEvict = append(r.onEvict, fn)
}

// Sweep evicts workspaces idle longer than the TTL and returns how many.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	var evicted []string
	for id, w := range r.items {
		if w.idleSince(now) > r.ttl {
			delete(r.items, id)
			evicted = append(evicted, id)
		}
	}
	hooks := append([]func(string){}, r.onEvict...)
	r.mu.Unlock()

	for _, id := range evicted {
		for _, fn := range hooks {
			fn(id)
		}
	}
	if len(evicted) > 0 {
		r.logger.Debug("evicted idle workspaces", slog.Int("count", len(evicted)))
	}
	return len(evicted)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = r.ttl / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}
