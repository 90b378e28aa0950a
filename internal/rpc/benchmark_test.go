package rpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchmarkKeepsOrder(t *testing.T) {
	a := (&node{chainID: 137, block: 100}).serve(t)
	b := (&node{chainID: 1, block: 100}).serve(t)
	c := (&node{chainID: 137, block: 101}).serve(t)

	eps := Benchmark(context.Background(), []string{a.URL, b.URL, "http://127.0.0.1:19995", c.URL}, 137)
	require.Len(t, eps, 4)

	assert.Equal(t, a.URL, eps[0].URL)
	assert.True(t, eps[0].Healthy)
	assert.False(t, eps[1].Healthy, "wrong chain")
	assert.False(t, eps[2].Healthy, "unreachable")
	assert.True(t, eps[3].Healthy)
	for _, e := range eps {
		assert.True(t, e.Checked)
	}
}

func TestBenchmarkMarksStale(t *testing.T) {
	behind := (&node{chainID: 137, block: 90}).serve(t)
	ahead := (&node{chainID: 137, block: 100}).serve(t)

	eps := Benchmark(context.Background(), []string{behind.URL, ahead.URL}, 137)
	assert.False(t, eps[0].Healthy)
	assert.True(t, eps[1].Healthy)
}

func TestBestFailover(t *testing.T) {
	good := (&node{chainID: 137, block: 100}).serve(t)

	url, err := Best(context.Background(), []string{"http://127.0.0.1:19996", good.URL}, 137, NewPicker(AlgorithmFailover))
	require.NoError(t, err)
	assert.Equal(t, good.URL, url)
}

func TestBestSingleURLNotProbed(t *testing.T) {
	url, err := Best(context.Background(), []string{"http://127.0.0.1:19997"}, 137, NewPicker(AlgorithmFastest))
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:19997", url)
}

func TestBestNoURLs(t *testing.T) {
	_, err := Best(context.Background(), nil, 137, NewPicker(AlgorithmFailover))
	assert.ErrorIs(t, err, ErrNoHealthyRPC)
}

func TestBestAllDown(t *testing.T) {
	_, err := Best(context.Background(), []string{"http://127.0.0.1:19998", "http://127.0.0.1:19999"}, 137, NewPicker(AlgorithmFailover))
	assert.ErrorIs(t, err, ErrNoHealthyRPC)
}
