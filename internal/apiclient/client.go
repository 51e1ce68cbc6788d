// Package apiclient is a thin client for the remote table service.
//
// Every call is a single request: no retries, no deduplication, and no
// timeout beyond what the caller's context or the configured http.Client
// imposes. Non-2xx responses surface as *StatusError.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/datatable/internal/logging"
)

// DefaultBaseURL is the production table service.
const DefaultBaseURL = "https://srv03.nopcoders.com"

const (
	listEndpoint     = "/dtables/list"
	fetchEndpoint    = "/dtables/fetch"
	entitiesEndpoint = "/entities"
	createEndpoint   = "/dtables/create"
)

// HTTPClient abstracts HTTP operations for dependency injection.
// *http.Client satisfies this interface.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the table service.
type Client struct {
	baseURL string
	http    HTTPClient
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets a per-request timeout on the default http.Client.
// Zero means no timeout. Ignored when WithHTTPClient supplied a custom client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if hc, ok := c.http.(*http.Client); ok {
			hc.Timeout = d
		}
	}
}

// New creates a Client. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListTableConfigs returns the custom tables visible to the caller.
func (c *Client) ListTableConfigs(ctx context.Context) ([]TableConfig, error) {
	var configs []TableConfig
	if err := c.get(ctx, listEndpoint, url.Values{}, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// FetchTable returns one page of a custom table.
func (c *Client) FetchTable(ctx context.Context, configID int, params FetchParams) (*Page[Record], error) {
	q := encodeParams(params)
	q.Set("config_id", strconv.Itoa(configID))

	var page Page[Record]
	if err := c.get(ctx, fetchEndpoint, q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FetchEntities returns one page of registered entities.
func (c *Client) FetchEntities(ctx context.Context, params FetchParams) (*Page[Entity], error) {
	var page Page[Entity]
	if err := c.get(ctx, entitiesEndpoint, encodeParams(params), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateTable creates a custom table from selected rows of a source table.
func (c *Client) CreateTable(ctx context.Context, req CreateTableRequest) (*CreateTableResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal create request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+createEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	logging.WithFields(ctx, "endpoint", createEndpoint, "name", req.Name, "rows", len(req.RowIDs)).
		Debug("api request")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, newStatusError(opCreate, resp)
	}

	var out CreateTableResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode create response: %w", err)
	}
	return &out, nil
}

// get issues a GET to endpoint with query q and decodes the JSON body into v.
func (c *Client) get(ctx context.Context, endpoint string, q url.Values, v any) error {
	u := c.baseURL + endpoint
	if encoded := q.Encode(); encoded != "" {
		u += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	logging.WithFields(ctx, "endpoint", endpoint, "status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds()).Debug("api request")

	if resp.StatusCode/100 != 2 {
		return newStatusError(opRequest, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// encodeParams builds the query for a paginated fetch. Only set values are
// included; column filters use "filters[<column>]" keys.
func encodeParams(p FetchParams) url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(p.PageSize))
	}
	if p.SortBy != "" {
		q.Set("sort_by", p.SortBy)
	}
	if p.SortDir != "" {
		q.Set("sort_dir", p.SortDir)
	}
	if p.Global != "" {
		q.Set("global", p.Global)
	}
	for col, val := range p.Filters {
		if val != "" {
			q.Add("filters["+col+"]", val)
		}
	}
	return q
}
