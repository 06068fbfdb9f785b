package dns

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/dns-mcp/internal/common"
	"github.com/bobmcallan/dns-mcp/internal/tools"
)

// ToolName is the registered name of the lookup tool.
const ToolName = "dns_lookup"

// LookupTool queries the provider for DNS records of a domain.
//
// The provider's response body is returned verbatim as a single text block.
// Provider-side errors reported in the body (for example a rate-limit
// notice) are therefore indistinguishable from lookup data and surface as
// successful results.
type LookupTool struct {
	fetcher Fetcher
	baseURL *url.URL
	logger  *common.Logger
}

// NewLookupTool creates the lookup tool for the provider endpoint at baseURL.
func NewLookupTool(fetcher Fetcher, baseURL string, logger *common.Logger) (*LookupTool, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid provider url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid provider url %q: scheme and host are required", baseURL)
	}
	return &LookupTool{fetcher: fetcher, baseURL: u, logger: logger}, nil
}

// Schema implements tools.Tool.
func (t *LookupTool) Schema() tools.Schema {
	return tools.Schema{
		Name:        ToolName,
		Description: "Perform DNS lookup for a domain name",
		Fields: []tools.Field{
			{
				Name:        "domain",
				Type:        tools.TypeString,
				Required:    true,
				MinLength:   1,
				Description: "The domain name to lookup",
			},
		},
	}
}

// Invoke implements tools.Tool. args have already been validated.
func (t *LookupTool) Invoke(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	domain, _ := args["domain"].(string)

	body, err := t.fetcher.Fetch(ctx, t.lookupURL(domain))
	if err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) && fetchErr.Op == OpRead {
			return nil, tools.InternalError("Failed to read response: %w", fetchErr.Err)
		}
		if fetchErr != nil {
			return nil, tools.InternalError("Request failed: %w", fetchErr.Err)
		}
		return nil, tools.InternalError("Request failed: %w", err)
	}

	t.logger.Debug().Str("domain", domain).Int("bytes", len(body)).Msg("dns lookup complete")

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(body)},
	}, nil
}

// lookupURL places domain in the q query parameter of the provider URL.
func (t *LookupTool) lookupURL(domain string) string {
	u := *t.baseURL
	q := u.Query()
	q.Set("q", domain)
	u.RawQuery = q.Encode()
	return u.String()
}
