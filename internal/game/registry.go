package game

import "sync"

// Registry maps a game-type identifier to its rule module. It is populated
// by explicit Register calls during startup; there is no implicit discovery.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Engine
}

func NewRegistry() *Registry {
	return &Registry{engines: map[string]Engine{}}
}

// Register binds an engine to a game type. Registering the same type again
// silently replaces the previous engine; registration happens once per
// process in normal operation.
func (r *Registry) Register(gameType string, e Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[gameType] = e
}

// Lookup returns the engine for a game type, or nil when the type is
// unknown. Callers must treat nil as "unsupported game" and degrade
// gracefully.
func (r *Registry) Lookup(gameType string) Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.engines[gameType]
}

// Types lists the registered game types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.engines))
	for t := range r.engines {
		out = append(out, t)
	}
	return out
}
