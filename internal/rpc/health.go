package rpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
)

// ErrWrongChain marks an endpoint that serves a different chain.
var ErrWrongChain = errors.New("endpoint serves a different chain")

// healthTimeout bounds one endpoint check.
const healthTimeout = 5 * time.Second

// HealthCheck pings url and reports whether it can serve chainID. A node is
// unhealthy when it does not answer within healthTimeout, answers for another
// chain, or is more than staleBlockThreshold blocks behind bestBlock. Pass 0
// to skip the chain or recency check.
func HealthCheck(ctx context.Context, url string, chainID int64, bestBlock uint64) (Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	c := chain.NewEVMClient(url)
	latency, block, err := c.Ping(ctx)
	ep := Endpoint{URL: url, Latency: latency, BlockNumber: block, Checked: true}
	if err != nil {
		return ep, err
	}

	if chainID > 0 {
		got, err := c.ChainID(ctx)
		if err != nil {
			return ep, err
		}
		ep.ChainID = got
		if got != chainID {
			return ep, fmt.Errorf("%w: %s reports %d, want %d", ErrWrongChain, url, got, chainID)
		}
	}

	ep.Healthy = bestBlock == 0 || block+staleBlockThreshold >= bestBlock
	return ep, nil
}
