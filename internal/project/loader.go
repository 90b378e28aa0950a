package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrUnexpectedStatus is returned for non-2xx API responses.
	ErrUnexpectedStatus = errors.New("unexpected status from project API")
	// ErrMissingProject is returned when the response has no nft_project.
	ErrMissingProject = errors.New("response has no nft_project")
	// ErrEmptySlug is returned when no project slug is given.
	ErrEmptySlug = errors.New("project slug is empty")
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 8 << 20
)

// Loader fetches project metadata from the project API.
type Loader struct {
	host   string
	client *http.Client
}

// NewLoader creates a Loader for the API at host (scheme included).
func NewLoader(host string) *Loader {
	return &Loader{
		host:   strings.TrimRight(host, "/"),
		client: &http.Client{Timeout: defaultTimeout},
	}
}

// WithHTTPClient replaces the HTTP client.
func (l *Loader) WithHTTPClient(c *http.Client) *Loader {
	l.client = c
	return l
}

// Host returns the API host.
func (l *Loader) Host() string { return l.host }

// Fetch performs GET {host}/api/nft/{slug} and returns the validated project.
func (l *Loader) Fetch(ctx context.Context, slug string) (*Metadata, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrEmptySlug
	}

	endpoint := fmt.Sprintf("%s/api/nft/%s", l.host, url.PathEscape(slug))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching project %s: %w", slug, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var envelope struct {
		Project *Metadata `json:"nft_project"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if envelope.Project == nil {
		return nil, ErrMissingProject
	}
	if err := envelope.Project.Validate(); err != nil {
		return nil, err
	}
	return envelope.Project, nil
}
