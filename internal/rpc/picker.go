// Package rpc chooses which RPC endpoint serves the read calls of a project
// chain: custom endpoints, then the registry defaults.
package rpc

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrNoHealthyRPC is returned when no endpoint can serve the chain.
	ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")
	// ErrInvalidAlgorithm is returned by ParseAlgorithm.
	ErrInvalidAlgorithm = errors.New("rpc algorithm must be failover, fastest or round-robin")
)

// Algorithm defines how an RPC endpoint is selected.
type Algorithm string

const (
	// AlgorithmFailover takes the first healthy endpoint in configured order.
	AlgorithmFailover Algorithm = "failover"
	// AlgorithmFastest takes the lowest-latency endpoint that is not behind.
	AlgorithmFastest Algorithm = "fastest"
	// AlgorithmRoundRobin rotates over the healthy endpoints.
	AlgorithmRoundRobin Algorithm = "round-robin"

	// Nodes more than this many blocks behind the best are stale.
	staleBlockThreshold = 3
	// The fastest winner is reused for this long.
	cacheTTL = 5 * time.Minute
)

// ParseAlgorithm validates s. Empty means failover.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(s); a {
	case "":
		return AlgorithmFailover, nil
	case AlgorithmFailover, AlgorithmFastest, AlgorithmRoundRobin:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAlgorithm, s)
}

// Endpoint is one RPC URL with what a health check measured.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	ChainID     int64
	Healthy     bool // meaningful only when Checked
	Checked     bool
}

// Picker selects an endpoint according to its algorithm. A Picker keeps
// state between calls (round-robin position, fastest cache) and is safe for
// concurrent use.
type Picker struct {
	algo Algorithm

	mu          sync.Mutex
	next        int
	cachedURL   string
	cacheExpiry time.Time
}

// NewPicker creates a Picker.
func NewPicker(algo Algorithm) *Picker {
	return &Picker{algo: algo}
}

// Algorithm returns the picker's algorithm.
func (p *Picker) Algorithm() Algorithm { return p.algo }

// Pick selects an endpoint from endpoints.
func (p *Picker) Pick(endpoints []Endpoint) (*Endpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	candidates := usable(endpoints)
	if len(candidates) == 0 {
		return nil, ErrNoHealthyRPC
	}
	switch p.algo {
	case AlgorithmFastest:
		return p.fastest(candidates)
	case AlgorithmRoundRobin:
		e := candidates[p.next%len(candidates)]
		p.next = (p.next + 1) % len(candidates)
		return e, nil
	default:
		return candidates[0], nil
	}
}

func (p *Picker) fastest(candidates []*Endpoint) (*Endpoint, error) {
	if p.cachedURL != "" && time.Now().Before(p.cacheExpiry) {
		for _, e := range candidates {
			if e.URL == p.cachedURL {
				return e, nil
			}
		}
	}

	var best uint64
	for _, e := range candidates {
		best = max(best, e.BlockNumber)
	}

	var (
		winner    *Endpoint
		bestScore float64
	)
	for _, e := range candidates {
		if best-e.BlockNumber > staleBlockThreshold {
			continue
		}
		if s := score(e, best); winner == nil || s > bestScore {
			winner, bestScore = e, s
		}
	}
	if winner == nil {
		return nil, ErrNoHealthyRPC
	}

	p.cachedURL = winner.URL
	p.cacheExpiry = time.Now().Add(cacheTTL)
	return winner, nil
}

// score favours low latency, then recency.
func score(e *Endpoint, best uint64) float64 {
	var s float64
	if ms := e.Latency.Milliseconds(); ms > 0 {
		s += 1000.0 / float64(ms)
	} else if e.Latency > 0 {
		s += 1000.0
	}
	if best > 0 {
		s += float64(staleBlockThreshold) - float64(best-e.BlockNumber)
	}
	return s
}

// usable keeps the endpoints a pick may return, in order. Unchecked
// endpoints are always usable; checked ones only when healthy.
func usable(endpoints []Endpoint) []*Endpoint {
	out := make([]*Endpoint, 0, len(endpoints))
	for i := range endpoints {
		if e := &endpoints[i]; !e.Checked || e.Healthy {
			out = append(out, e)
		}
	}
	return out
}
