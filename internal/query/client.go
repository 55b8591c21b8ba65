// Package query provides the client for the third-party analytics query
// service that serves PMEX borrower address data.
package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Params carries the bind parameters for one query execution. Timestamps
// use the service's "YYYY-MM-DD HH:MM" layout.
type Params struct {
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

// Row is one result row. The service returns borrower addresses for a date
// window as a single comma-delimited field.
type Row struct {
	Addresses string `json:"addresses"`
}

// Runner executes a parameterized query and returns its result rows. Any
// implementation satisfying this contract (stub, live HTTP client) is
// substitutable.
type Runner interface {
	RunQuery(ctx context.Context, params Params) ([]Row, error)
}

// Compile-time interface check.
var _ Runner = (*Client)(nil)

// Client is the HTTP implementation of Runner.
type Client struct {
	baseURL    string
	apiKey     string
	queryID    string
	httpClient *http.Client
}

// NewClient creates a query client for the given service endpoint. timeout
// bounds each request; there are no retries.
func NewClient(baseURL, apiKey, queryID string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		queryID:    queryID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type runRequest struct {
	Parameters Params `json:"parameters"`
}

type runResponse struct {
	Rows []Row `json:"rows"`
}

// RunQuery executes the configured query with the given parameters and
// returns the decoded result rows.
func (c *Client) RunQuery(ctx context.Context, params Params) ([]Row, error) {
	body, err := json.Marshal(runRequest{Parameters: params})
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/api/v1/query/%s/results", c.baseURL, c.queryID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("query service status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var rr runResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}
	return rr.Rows, nil
}
