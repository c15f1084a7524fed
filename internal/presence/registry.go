package presence

import "sync"

// Registry owns the process-wide connected count. The only writers are
// Connect and Disconnect; each returns the value to broadcast.
type Registry struct {
	mu    sync.Mutex
	count int
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Connect() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.count++
	return r.count
}

// Disconnect never takes the count below zero.
func (r *Registry) Disconnect() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count > 0 {
		r.count--
	}
	return r.count
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
