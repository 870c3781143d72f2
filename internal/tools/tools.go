// Package tools registers the Google Ads MCP tools and exposes the protocol
// handler the gateway delegates to.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ptmyrd/google-ads-mcp/internal/googleads"
	"github.com/ptmyrd/google-ads-mcp/internal/telemetry"
)

// ServerName is reported in the MCP handshake and the gateway probe body.
const ServerName = "google-ads-mcp"

const serverVersion = "0.1.0"

// Service owns the MCP server and its Google Ads tools. Clients are acquired
// from the factory per tool call and released on every exit path; nothing is
// shared across concurrent calls.
type Service struct {
	factory googleads.Factory
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics enables Google Ads call metrics.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates the tool service around a Google Ads client factory.
func NewService(factory googleads.Factory, opts ...Option) *Service {
	s := &Service{
		factory: factory,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the streamable HTTP handler for the gateway's delegate
// slot. A fresh MCP server is built per session.
func (s *Service) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.MCPServer()
	}, nil)
}

// MCPServer builds an MCP server with the Google Ads tools registered.
func (s *Service) MCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: serverVersion,
	}, &mcp.ServerOptions{HasTools: true})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_accessible_customers",
		Description: "List the Google Ads customer IDs accessible to the authenticated user",
	}, s.listAccessibleCustomers)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Description: "Execute a GAQL query against a customer account and return up to 500 result rows",
	}, s.search)

	return server
}

type listArgs struct{}

type searchArgs struct {
	CustomerID string `json:"customer_id" jsonschema:"Customer ID without dashes, e.g. 1234567890"`
	Query      string `json:"query" jsonschema:"GAQL query to execute"`
	PageSize   int    `json:"page_size,omitempty" jsonschema:"Rows requested per page, default 50"`
}

func (s *Service) listAccessibleCustomers(ctx context.Context, _ *mcp.CallToolRequest, _ listArgs) (*mcp.CallToolResult, any, error) {
	client, err := s.factory.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire google ads client: %w", err)
	}
	defer func() { _ = client.Close() }()

	start := time.Now()
	ids, err := client.ListAccessibleCustomers(ctx)
	s.record("list_accessible_customers", err, time.Since(start))
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("listed accessible customers", "count", len(ids))
	return textResult(ids)
}

func (s *Service) search(ctx context.Context, _ *mcp.CallToolRequest, args searchArgs) (*mcp.CallToolResult, any, error) {
	if args.CustomerID == "" {
		return nil, nil, fmt.Errorf("customer_id is required")
	}
	if args.Query == "" {
		return nil, nil, fmt.Errorf("query is required")
	}

	client, err := s.factory.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire google ads client: %w", err)
	}
	defer func() { _ = client.Close() }()

	start := time.Now()
	rows, err := client.Search(ctx, args.CustomerID, args.Query, args.PageSize)
	s.record("search", err, time.Since(start))
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("search completed", "customer_id", args.CustomerID, "rows", len(rows))
	return textResult(rows)
}

func (s *Service) record(operation string, err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.RecordAdsCall(operation, status, elapsed)
}

// textResult marshals v as JSON text content, the same shape FastMCP-style
// servers return for structured tool output.
func textResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
