// Package graphql is a small GraphQL-over-HTTP client and the posts API used
// by the browser.
package graphql

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DefaultEndpoint is the public GraphQLZero API.
const DefaultEndpoint = "https://graphqlzero.almansi.me/api"

// maxErrorBody bounds how much of a failed response is kept in StatusError.
const maxErrorBody = 4096

// ErrPostNotFound is returned when the API has no post for an id.
var ErrPostNotFound = errors.New("graphql: post not found")

// ErrTransport wraps failures to reach the API, including timeouts.
var ErrTransport = errors.New("graphql: transport")

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("graphql: status %d", e.StatusCode)
	}
	return fmt.Sprintf("graphql: status %d: %s", e.StatusCode, e.Body)
}

// ResponseError carries the errors member of a GraphQL response.
type ResponseError struct {
	Messages []string
}

func (e *ResponseError) Error() string {
	return "graphql: " + strings.Join(e.Messages, "; ")
}

// Client posts GraphQL documents to a single endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// NewClient creates a client for endpoint. An empty endpoint selects
// DefaultEndpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL documents are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Do posts document with vars and returns the data member of the response.
func (c *Client) Do(ctx context.Context, document string, vars map[string]any) (gjson.Result, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "query", document)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("graphql: encode query: %w", err)
	}
	if len(vars) > 0 {
		body, err = sjson.SetBytes(body, "variables", vars)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("graphql: encode variables: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("graphql: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return gjson.Result{}, &StatusError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("graphql: read response: %w", err)
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, errors.New("graphql: response is not valid JSON")
	}

	doc := gjson.ParseBytes(raw)
	if errs := doc.Get("errors"); errs.IsArray() && len(errs.Array()) > 0 {
		var messages []string
		for _, e := range errs.Array() {
			messages = append(messages, e.Get("message").String())
		}
		return gjson.Result{}, &ResponseError{Messages: messages}
	}
	return doc.Get("data"), nil
}
