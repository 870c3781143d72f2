// Package googleads provides a thin REST client for the Google Ads API.
// It exposes exactly the two operations the MCP tools need and performs no
// query parsing or response shaping of its own.
package googleads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	defaultBaseURL = "https://googleads.googleapis.com/v21"

	// MaxSearchRows is the hard cap on rows returned by Search regardless
	// of how many pages the API would serve.
	MaxSearchRows = 500

	// DefaultPageSize is used when the caller does not request a page size.
	DefaultPageSize = 50

	defaultMaxResponseSize int64 = 32 * 1024 * 1024
)

// Credentials holds the Google Ads API credential fields, forwarded
// unmodified from configuration.
type Credentials struct {
	DeveloperToken  string
	ClientID        string
	ClientSecret    string
	RefreshToken    string
	LoginCustomerID string
}

// Row is a single search result row, kept as raw JSON so field structure
// passes through to the caller untouched.
type Row = json.RawMessage

// Client is the surface the tool layer consumes.
type Client interface {
	// ListAccessibleCustomers returns the bare customer IDs the
	// authenticated user can access.
	ListAccessibleCustomers(ctx context.Context) ([]string, error)

	// Search runs a GAQL query against one customer account and returns up
	// to MaxSearchRows result rows.
	Search(ctx context.Context, customerID, query string, pageSize int) ([]Row, error)

	// Close releases any per-client resources.
	Close() error
}

// Factory creates a Client scoped to one acquisition. Callers must Close the
// returned client on every exit path.
type Factory interface {
	NewClient(ctx context.Context) (Client, error)
}

// RESTFactory builds REST clients that authenticate with an OAuth2
// refresh-token flow. The token source is shared across acquisitions so a
// cached access token is reused until it expires.
type RESTFactory struct {
	creds       Credentials
	baseURL     string
	tokenSource oauth2.TokenSource
}

// FactoryOption configures a RESTFactory.
type FactoryOption func(*RESTFactory)

// WithBaseURL overrides the API base URL, primarily for tests.
func WithBaseURL(url string) FactoryOption {
	return func(f *RESTFactory) { f.baseURL = strings.TrimRight(url, "/") }
}

// NewRESTFactory creates a factory for the given credentials.
func NewRESTFactory(creds Credentials, opts ...FactoryOption) *RESTFactory {
	f := &RESTFactory{
		creds:   creds,
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(f)
	}
	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     google.Endpoint,
	}
	f.tokenSource = conf.TokenSource(context.Background(), &oauth2.Token{
		RefreshToken: creds.RefreshToken,
	})
	return f
}

// NewClient acquires a client for one unit of work.
func (f *RESTFactory) NewClient(ctx context.Context) (Client, error) {
	return &restClient{
		creds:   f.creds,
		baseURL: f.baseURL,
		httpClient: &http.Client{
			Transport: &oauth2.Transport{
				Source: f.tokenSource,
				Base:   http.DefaultTransport,
			},
			Timeout: 60 * time.Second,
		},
	}, nil
}

type restClient struct {
	creds      Credentials
	baseURL    string
	httpClient *http.Client
}

func (c *restClient) ListAccessibleCustomers(ctx context.Context) ([]string, error) {
	var out struct {
		ResourceNames []string `json:"resourceNames"`
	}
	url := c.baseURL + "/customers:listAccessibleCustomers"
	if err := c.do(ctx, http.MethodGet, url, nil, &out); err != nil {
		return nil, fmt.Errorf("list accessible customers: %w", err)
	}
	ids := make([]string, 0, len(out.ResourceNames))
	for _, rn := range out.ResourceNames {
		// resource names look like "customers/1234567890"
		if i := strings.LastIndex(rn, "/"); i >= 0 {
			rn = rn[i+1:]
		}
		ids = append(ids, rn)
	}
	return ids, nil
}

func (c *restClient) Search(ctx context.Context, customerID, query string, pageSize int) ([]Row, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	url := fmt.Sprintf("%s/customers/%s/googleAds:search", c.baseURL, customerID)

	var rows []Row
	pageToken := ""
	for {
		body := map[string]any{
			"query":    query,
			"pageSize": pageSize,
		}
		if pageToken != "" {
			body["pageToken"] = pageToken
		}
		var page struct {
			Results       []json.RawMessage `json:"results"`
			NextPageToken string            `json:"nextPageToken"`
		}
		if err := c.do(ctx, http.MethodPost, url, body, &page); err != nil {
			return nil, fmt.Errorf("search customer %s: %w", customerID, err)
		}
		for _, r := range page.Results {
			rows = append(rows, Row(r))
			if len(rows) >= MaxSearchRows {
				return rows, nil
			}
		}
		if page.NextPageToken == "" {
			return rows, nil
		}
		pageToken = page.NextPageToken
	}
}

func (c *restClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *restClient) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("developer-token", c.creds.DeveloperToken)
	if c.creds.LoginCustomerID != "" {
		req.Header.Set("login-customer-id", c.creds.LoginCustomerID)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, defaultMaxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
