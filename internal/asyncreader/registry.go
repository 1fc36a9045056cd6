package asyncreader

import "sync"

// Registry tracks the outstanding requests of one dataset so that
// closing the dataset can force-cancel them instead of leaking backend
// sessions with callbacks pointing at freed state.
type Registry struct {
	mu   sync.Mutex
	reqs map[*Request]struct{}
}

func NewRegistry() *Registry {
	return &Registry{reqs: map[*Request]struct{}{}}
}

// Track registers req; its End will deregister it again.
func (g *Registry) Track(req *Request) {
	g.mu.Lock()
	g.reqs[req] = struct{}{}
	req.registry = g
	g.mu.Unlock()
}

func (g *Registry) remove(req *Request) {
	g.mu.Lock()
	delete(g.reqs, req)
	g.mu.Unlock()
}

// Len reports how many requests are still outstanding.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.reqs)
}

// CancelAll force-Ends every outstanding request. Safe against a
// consumer End racing in: Request.End is idempotent.
func (g *Registry) CancelAll() {
	g.mu.Lock()
	pending := make([]*Request, 0, len(g.reqs))
	for req := range g.reqs {
		pending = append(pending, req)
	}
	g.mu.Unlock()

	for _, req := range pending {
		req.End()
	}
}
