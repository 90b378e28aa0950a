package project

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProject = `{
  "nft_project": {
    "contract": {
      "abi": "",
      "address": "0xAB5a5aD2978204d0dD9F02d85b8DF60cA5977605",
      "chain": "mumbai",
      "chain_id": 80001,
      "id": 1,
      "platform": "ethereum",
      "whitelist": ["0x0000000000000000000000000000000000000001"],
      "crossmint": {"presale": "", "onsale": "cm-onsale"}
    },
    "pad_no_minted": 25,
    "enable_crossmint_checkout": true,
    "collection_label": "Genesis",
    "info": {"title": "", "image": "https://img/1.png"},
    "presale_price": "0.05",
    "price": "0.08"
  }
}`

// serveProject returns a test server answering every request with body/code.
func serveProject(t *testing.T, code int, body string, gotPath *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotPath != nil {
			*gotPath = r.URL.EscapedPath()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		w.Write([]byte(body)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchDecodesProject(t *testing.T) {
	var path string
	srv := serveProject(t, http.StatusOK, sampleProject, &path)

	m, err := NewLoader(srv.URL+"/").Fetch(context.Background(), "genesis-drop")
	require.NoError(t, err)

	assert.Equal(t, "/api/nft/genesis-drop", path)
	assert.Equal(t, int64(80001), m.Contract.ChainID)
	assert.Equal(t, "mumbai", m.Contract.Chain)
	assert.Equal(t, []string{"0x0000000000000000000000000000000000000001"}, m.Contract.Whitelist)
	assert.Equal(t, int64(25), m.PadNoMinted)
	assert.Equal(t, "0xAB5a5aD2978204d0dD9F02d85b8DF60cA5977605", m.ContractAddress().Hex())
	assert.Equal(t, "Genesis", m.Title(), "falls back to collection label")
	assert.True(t, m.CrossmintEnabled())
}

func TestFetchEscapesSlug(t *testing.T) {
	var path string
	srv := serveProject(t, http.StatusOK, sampleProject, &path)

	_, err := NewLoader(srv.URL).Fetch(context.Background(), "a b/c")
	require.NoError(t, err)
	assert.Equal(t, "/api/nft/a%20b%2Fc", path)
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		want error
	}{
		{"not found", http.StatusNotFound, `{"error":"nope"}`, ErrUnexpectedStatus},
		{"server error", http.StatusInternalServerError, ``, ErrUnexpectedStatus},
		{"no project", http.StatusOK, `{"other":1}`, ErrMissingProject},
		{"null project", http.StatusOK, `{"nft_project":null}`, ErrMissingProject},
		{"bad address", http.StatusOK, `{"nft_project":{"contract":{"address":"nope","chain_id":1}}}`, ErrInvalidMetadata},
		{"no chain", http.StatusOK, `{"nft_project":{"contract":{"address":"0x0000000000000000000000000000000000000001"}}}`, ErrInvalidMetadata},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serveProject(t, tt.code, tt.body, nil)
			_, err := NewLoader(srv.URL).Fetch(context.Background(), "x")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFetchBadJSON(t *testing.T) {
	srv := serveProject(t, http.StatusOK, `{not json`, nil)
	_, err := NewLoader(srv.URL).Fetch(context.Background(), "x")
	assert.ErrorContains(t, err, "parsing response")
}

func TestFetchEmptySlug(t *testing.T) {
	_, err := NewLoader("http://unused").Fetch(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptySlug)
}

type failingTransport struct{ err error }

func (f failingTransport) RoundTrip(*http.Request) (*http.Response, error) { return nil, f.err }

func TestFetchTransportError(t *testing.T) {
	down := errors.New("connection refused")
	l := NewLoader("http://api.invalid").WithHTTPClient(&http.Client{Transport: failingTransport{down}})
	_, err := l.Fetch(context.Background(), "x")
	assert.ErrorIs(t, err, down)
}

func TestCrossmintEnabled(t *testing.T) {
	m := &Metadata{EnableCrossmintCheckout: true}
	assert.False(t, m.CrossmintEnabled(), "no ids configured")

	m.Contract.Crossmint = &Crossmint{Presale: "p"}
	assert.True(t, m.CrossmintEnabled())

	m.EnableCrossmintCheckout = false
	assert.False(t, m.CrossmintEnabled())
}
