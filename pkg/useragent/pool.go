package useragent

import (
	"crypto/rand"
	"math/big"
	"sync/atomic"
)

// Default is a small fixed pool of current desktop browser User-Agents.
// Rotating across it keeps a collection run from presenting one static
// agent string to every host it touches.
var Default = []string{
	// Chrome
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	// Firefox
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
	// Safari
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	// Edge
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
}

// Pool hands out User-Agent strings either randomly or round-robin.
// It is safe for concurrent use.
type Pool struct {
	agents  []string
	counter atomic.Uint64
}

// NewPool builds a pool from the given agents, falling back to Default
// when the slice is empty. The input is copied.
func NewPool(agents []string) *Pool {
	if len(agents) == 0 {
		agents = Default
	}
	copied := make([]string, len(agents))
	copy(copied, agents)
	return &Pool{agents: copied}
}

// Random returns a uniformly random agent using crypto/rand.
func (p *Pool) Random() string {
	if len(p.agents) == 0 {
		return ""
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(p.agents))))
	if err != nil {
		return p.Next()
	}
	return p.agents[n.Int64()]
}

// Next returns agents in round-robin order.
func (p *Pool) Next() string {
	if len(p.agents) == 0 {
		return ""
	}
	idx := p.counter.Add(1) - 1
	return p.agents[idx%uint64(len(p.agents))]
}

// All returns a copy of the pool's agents.
func (p *Pool) All() []string {
	copied := make([]string, len(p.agents))
	copy(copied, p.agents)
	return copied
}
