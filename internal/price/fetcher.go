// Package price looks up the fiat value of a chain's gas token, so mint
// prices can be shown next to an estimate in the user's currency.
package price

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
)

// DefaultBaseURL is the CoinGecko API root.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// ErrNoPrice is returned for chains whose token has no market price, such as
// testnets.
var ErrNoPrice = errors.New("no market price")

// coinIDs maps registry chain names to CoinGecko coin IDs. Testnets are
// absent on purpose: their tokens have no value.
var coinIDs = map[string]string{
	"ethereum": "ethereum",
	"base":     "ethereum",
	"arbitrum": "ethereum",
	"optimism": "ethereum",
	"polygon":  "matic-network",
}

// Fetcher retrieves token prices from CoinGecko.
type Fetcher struct {
	client   *http.Client
	baseURL  string
	currency string
}

// NewFetcher creates a fetcher quoting in currency (default usd).
func NewFetcher(currency string) *Fetcher {
	if currency == "" {
		currency = "usd"
	}
	return &Fetcher{
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  DefaultBaseURL,
		currency: strings.ToLower(currency),
	}
}

// WithHTTPClient replaces the HTTP client.
func (f *Fetcher) WithHTTPClient(c *http.Client) *Fetcher {
	f.client = c
	return f
}

// WithBaseURL points the fetcher at another API root.
func (f *Fetcher) WithBaseURL(u string) *Fetcher {
	f.baseURL = strings.TrimRight(u, "/")
	return f
}

// Currency returns the quote currency, lowercased.
func (f *Fetcher) Currency() string { return f.currency }

// Price returns the price of one native token of the named chain.
func (f *Fetcher) Price(ctx context.Context, chainName string) (float64, error) {
	id, ok := coinIDs[strings.ToLower(chainName)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoPrice, chainName)
	}
	prices, err := f.fetch(ctx, id)
	if err != nil {
		return 0, err
	}
	p, ok := prices[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s in %s", ErrNoPrice, id, f.currency)
	}
	return p, nil
}

// Value converts wei of ch's native token to the quote currency.
func (f *Fetcher) Value(ctx context.Context, ch *chain.Chain, wei *big.Int) (float64, error) {
	if ch.Testnet {
		return 0, fmt.Errorf("%w: %s is a testnet", ErrNoPrice, ch.Name)
	}
	p, err := f.Price(ctx, ch.Name)
	if err != nil {
		return 0, err
	}
	ether, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e18)).Float64()
	return ether * p, nil
}

func (f *Fetcher) fetch(ctx context.Context, ids ...string) (map[string]float64, error) {
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", f.currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/simple/price?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching prices: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading price response: %w", err)
	}

	// {"ethereum":{"usd":1234.56}, ...}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing price response: %w", err)
	}
	out := make(map[string]float64, len(raw))
	for id, quotes := range raw {
		if p, ok := quotes[f.currency]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// Format renders v in currency: "$12.34" for usd, "12.34 EUR" otherwise.
func Format(v float64, currency string) string {
	if strings.EqualFold(currency, "usd") {
		return fmt.Sprintf("$%.2f", v)
	}
	return fmt.Sprintf("%.2f %s", v, strings.ToUpper(currency))
}
