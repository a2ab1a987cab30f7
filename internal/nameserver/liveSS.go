package nameserver

import (
	"sync"

	"github.com/wolverine07/langos/internal/metrics"
	"github.com/wolverine07/langos/internal/wire"
)

// LiveSS is one connected Storage Server: its client-facing address, the
// open NM↔SS control channel, and the files it last advertised.
type LiveSS struct {
	Addr  string
	Conn  *wire.Conn
	Files []string
}

// ssRegistry tracks the currently live Storage Servers and performs
// round-robin CREATE placement over them. Grounded on
// original_source/src/name_server/name_server.c's live SS list plus a
// single round-robin counter.
type ssRegistry struct {
	mu      sync.Mutex
	order   []string
	servers map[string]*LiveSS
	next    int

	metrics *metrics.NameServerMetrics
}

func newSSRegistry(m *metrics.NameServerMetrics) *ssRegistry {
	return &ssRegistry{
		servers: make(map[string]*LiveSS),
		metrics: m,
	}
}

// Add registers (or replaces) a live SS.
func (r *ssRegistry) Add(ss *LiveSS) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.servers[ss.Addr]; !exists {
		r.order = append(r.order, ss.Addr)
	}
	r.servers[ss.Addr] = ss
	if r.metrics != nil {
		r.metrics.SetLiveSS(len(r.servers))
	}
}

// Remove drops a Storage Server from the live set, e.g. when its NM control
// channel disconnects.
func (r *ssRegistry) Remove(addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.servers[addr]; !exists {
		return
	}
	delete(r.servers, addr)
	for i, a := range r.order {
		if a == addr {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.metrics != nil {
		r.metrics.SetLiveSS(len(r.servers))
	}
}

// Get returns the live SS at addr, if any.
func (r *ssRegistry) Get(addr string) (*LiveSS, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ss, ok := r.servers[addr]
	return ss, ok
}

// Count returns the number of currently live Storage Servers.
func (r *ssRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// PickRoundRobin returns the next SS in round-robin order for CREATE
// placement, or false if no SS is live. Grounded on spec.md §4.4: "snap it
// to [0, count) and return the live SS at that position; increment."
func (r *ssRegistry) PickRoundRobin() (*LiveSS, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.order) == 0 {
		return nil, false
	}
	idx := r.next % len(r.order)
	r.next++
	addr := r.order[idx]
	if r.metrics != nil {
		r.metrics.RoundRobinAssignment(addr)
	}
	return r.servers[addr], true
}
