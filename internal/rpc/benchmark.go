package rpc

import (
	"context"
	"sync"
)

// Benchmark health-checks all urls in parallel. The result keeps the order
// of urls; failed checks come back as unhealthy endpoints.
func Benchmark(ctx context.Context, urls []string, chainID int64) []Endpoint {
	out := make([]Endpoint, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ep, err := HealthCheck(ctx, u, chainID, 0)
			if err != nil {
				ep.Healthy = false
			}
			out[i] = ep
		}()
	}
	wg.Wait()

	// Second pass: recency against the best block seen.
	var best uint64
	for _, e := range out {
		if e.Healthy {
			best = max(best, e.BlockNumber)
		}
	}
	for i := range out {
		if out[i].Healthy && out[i].BlockNumber+staleBlockThreshold < best {
			out[i].Healthy = false
		}
	}
	return out
}

// Best benchmarks urls and returns the one p picks. A single URL is
// returned without probing.
func Best(ctx context.Context, urls []string, chainID int64, p *Picker) (string, error) {
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}
	winner, err := p.Pick(Benchmark(ctx, urls, chainID))
	if err != nil {
		return "", err
	}
	return winner.URL, nil
}
