package triplestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/roach88/gravsearch/internal/queryerr"
	"github.com/roach88/gravsearch/internal/rdf"
)

const (
	contentTypeQuery  = "application/sparql-query"
	acceptSelect      = "application/sparql-results+json"
	acceptConstruct   = "application/n-triples"
	maxErrorBodyBytes = 512
)

// DefaultTimeout bounds a single round trip when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Triplestore runs generated queries. Implementations must be safe for
// concurrent use.
type Triplestore interface {
	// Select runs a SELECT query and returns its rows in store order.
	Select(ctx context.Context, query string) (*rdf.SelectResult, error)

	// Construct runs a CONSTRUCT query and returns its triples in store
	// order.
	Construct(ctx context.Context, query string) ([]rdf.Triple, error)
}

// HTTPClient talks to a SPARQL 1.1 query endpoint.
type HTTPClient struct {
	endpoint string
	user     string
	password string
	timeout  time.Duration
	client   *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithBasicAuth sends HTTP basic credentials with every query.
func WithBasicAuth(user, password string) Option {
	return func(c *HTTPClient) {
		c.user = user
		c.password = password
	}
}

// WithTimeout bounds each round trip.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client. Its own Timeout is
// kept if set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.client = hc
	}
}

// NewHTTPClient creates a client for the query endpoint at endpoint, e.g.
// http://localhost:3030/knora-test/query.
func NewHTTPClient(endpoint string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid triplestore url %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid triplestore url %q: scheme must be http or https", endpoint)
	}

	c := &HTTPClient{endpoint: endpoint, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{}
	}
	if c.client.Timeout == 0 {
		c.client.Timeout = c.timeout
	}
	return c, nil
}

// Endpoint returns the query endpoint URL.
func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

// Select implements Triplestore.
func (c *HTTPClient) Select(ctx context.Context, query string) (*rdf.SelectResult, error) {
	body, err := c.post(ctx, query, acceptSelect)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	res, err := decodeSelect(body)
	if err != nil {
		return nil, wrap(ctx, err, "decoding SELECT results")
	}
	return res, nil
}

// Construct implements Triplestore.
func (c *HTTPClient) Construct(ctx context.Context, query string) ([]rdf.Triple, error) {
	body, err := c.post(ctx, query, acceptConstruct)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	triples, err := decodeNTriples(body)
	if err != nil {
		return nil, wrap(ctx, err, "decoding CONSTRUCT results")
	}
	return triples, nil
}

// post sends query and returns the body of a successful response.
func (c *HTTPClient) post(ctx context.Context, query, accept string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(query))
	if err != nil {
		return nil, queryerr.StoreFailure(err, "building triplestore request")
	}
	req.Header.Set("Content-Type", contentTypeQuery)
	req.Header.Set("Accept", accept)
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, wrap(ctx, err, "querying triplestore")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		statusErr := fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusGatewayTimeout {
			return nil, queryerr.StoreTimeout(statusErr, "triplestore did not answer in time")
		}
		return nil, queryerr.StoreFailure(statusErr, "triplestore rejected query")
	}
	return resp.Body, nil
}

// Wrap classifies an error returned by a Triplestore implementation.
// Errors that already carry a query error code are returned unchanged;
// deadlines and network timeouts become STORE_TIMEOUT, everything else
// STORE_FAILURE.
func Wrap(ctx context.Context, err error, action string) error {
	if err == nil {
		return nil
	}
	if _, ok := queryerr.CodeOf(err); ok {
		return err
	}
	return wrap(ctx, err, action)
}

func wrap(ctx context.Context, err error, action string) error {
	if isTimeout(ctx, err) {
		return queryerr.StoreTimeout(err, "%s timed out", action)
	}
	return queryerr.StoreFailure(err, "%s failed", action)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
