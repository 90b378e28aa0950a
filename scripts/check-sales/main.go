// check-sales: loads a set of projects from the project API in parallel,
// reads each sale state from its contract and prints a summary table.
//
// Run from the module root:
//
//	go run ./scripts/check-sales genesis-drop other-drop
//	W3MINT_API_HOST=https://test-api.hang.xyz go run ./scripts/check-sales demo
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/Mohsinsiddi/w3mint/internal/mint"
)

const rpcTimeout = 20 * time.Second

// ── types ─────────────────────────────────────────────────────────────────────

type result struct {
	slug   string
	chain  string
	phase  string
	minted string
	price  string
	symbol string
	err    string
}

// ── main ──────────────────────────────────────────────────────────────────────

func main() {
	slugs := os.Args[1:]
	if len(slugs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: check-sales <slug>...")
		os.Exit(2)
	}
	host := os.Getenv("W3MINT_API_HOST")
	if host == "" {
		host = mint.DefaultAPIHost
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []result
	)

	for _, slug := range slugs {
		wg.Add(1)
		go func(slug string) {
			defer wg.Done()
			r := check(host, slug)
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		}(slug)
	}

	wg.Wait()

	printTable(results)
}

func check(host, slug string) result {
	r := result{slug: slug, chain: "—", phase: "—", minted: "—", price: "—"}

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	core := mint.New(mint.WithAPIHost(host))
	defer core.Close()

	if err := core.LoadMetadata(ctx, slug); err != nil {
		r.err = shortErr(err)
		return r
	}
	if ch, err := core.Chain(); err == nil {
		r.chain = ch.Name
		r.symbol = ch.NativeCurrency.Symbol
	}

	st, err := core.Status(ctx)
	if err != nil {
		r.err = shortErr(err)
		return r
	}
	switch {
	case st.PublicSaleActive:
		r.phase = "public"
	case st.PresaleActive:
		r.phase = "presale"
	default:
		r.phase = "closed"
	}
	r.minted = fmt.Sprintf("%s/%s", st.TotalMinted, st.TotalMintable)
	r.price = chain.FormatEther(st.Price)
	return r
}

// ── output ────────────────────────────────────────────────────────────────────

func printTable(results []result) {
	sort.Slice(results, func(i, j int) bool { return results[i].slug < results[j].slug })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "PROJECT\tCHAIN\tPHASE\tMINTED\tPRICE\tSYMBOL\tNOTE")
	fmt.Fprintln(w, strings.Repeat("-", 14)+"\t"+
		strings.Repeat("-", 10)+"\t"+
		strings.Repeat("-", 7)+"\t"+
		strings.Repeat("-", 11)+"\t"+
		strings.Repeat("-", 10)+"\t"+
		strings.Repeat("-", 6)+"\t"+
		strings.Repeat("-", 12))

	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.slug, r.chain, r.phase, r.minted, r.price, r.symbol, r.err)
	}
	w.Flush()
}

// ── helpers ───────────────────────────────────────────────────────────────────

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 40 {
		return s[:40] + "…"
	}
	return s
}
