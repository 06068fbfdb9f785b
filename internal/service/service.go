// Package service binds the tool registry to an MCP server identity.
package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/dns-mcp/internal/common"
	"github.com/bobmcallan/dns-mcp/internal/config"
	"github.com/bobmcallan/dns-mcp/internal/dns"
	"github.com/bobmcallan/dns-mcp/internal/tools"
)

// Instructions is sent to clients during initialization.
const Instructions = "A DNS lookup service that queries domain information using the HackerTarget API. " +
	"Use the dns_lookup tool to perform DNS lookups for any domain name."

// Descriptor is what a client learns about the server during capability
// discovery, minus the negotiated protocol version.
type Descriptor struct {
	Capabilities mcp.ServerCapabilities
	ServerInfo   mcp.Implementation
	Instructions string
}

// Service owns a tool registry and answers discovery and invocation
// requests for one server identity. It is safe for concurrent use once
// constructed.
type Service struct {
	registry   *tools.Registry
	descriptor Descriptor
	mcpTools   []mcp.Tool
	logger     *common.Logger
}

// New creates a Service serving the tools in registry.
func New(registry *tools.Registry, name, version string, logger *common.Logger) *Service {
	schemas := registry.List()
	mcpTools := make([]mcp.Tool, 0, len(schemas))
	for _, s := range schemas {
		mcpTools = append(mcpTools, s.MCPTool())
	}

	return &Service{
		registry: registry,
		descriptor: Descriptor{
			Capabilities: mcp.ServerCapabilities{
				Tools: &struct {
					ListChanged bool `json:"listChanged,omitempty"`
				}{},
			},
			ServerInfo: mcp.Implementation{
				Name:    name,
				Version: version,
			},
			Instructions: Instructions,
		},
		mcpTools: mcpTools,
		logger:   logger,
	}
}

// NewDefault assembles the production service: an HTTP-backed dns_lookup
// tool registered under the configured server name.
func NewDefault(cfg *config.Config, logger *common.Logger) (*Service, error) {
	fetcher := dns.NewHTTPFetcher(
		cfg.Provider.GetTimeout(),
		cfg.Provider.MaxResponseBytes,
		config.UserAgent(),
		logger,
	)

	lookup, err := dns.NewLookupTool(fetcher, cfg.Provider.BaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s tool: %w", dns.ToolName, err)
	}

	registry := tools.NewRegistry()
	if err := registry.Register(lookup); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	logger.Info().
		Int("tools", registry.Len()).
		Str("provider_url", cfg.Provider.BaseURL).
		Dur("provider_timeout", cfg.Provider.GetTimeout()).
		Msg("service initialized")

	return New(registry, cfg.Server.Name, config.GetVersion(), logger), nil
}

// Describe returns a copy of the server descriptor fixed at construction.
// Changes made by the caller are not seen by later calls.
func (s *Service) Describe() Descriptor {
	d := s.descriptor
	if d.Capabilities.Tools != nil {
		tools := *d.Capabilities.Tools
		d.Capabilities.Tools = &tools
	}
	return d
}

// Name returns the implementation name reported to clients.
func (s *Service) Name() string {
	return s.descriptor.ServerInfo.Name
}

// Version returns the implementation version reported to clients.
func (s *Service) Version() string {
	return s.descriptor.ServerInfo.Version
}

// Instructions returns the instructions string reported to clients.
func (s *Service) Instructions() string {
	return s.descriptor.Instructions
}

// Initialize answers an initialize request. The client's protocol version
// is echoed back when supported, otherwise the latest version is offered.
func (s *Service) Initialize(requestedVersion string) mcp.InitializeResult {
	version := mcp.LATEST_PROTOCOL_VERSION
	if slices.Contains(mcp.ValidProtocolVersions, requestedVersion) {
		version = requestedVersion
	}
	d := s.Describe()
	return mcp.InitializeResult{
		ProtocolVersion: version,
		Capabilities:    d.Capabilities,
		ServerInfo:      d.ServerInfo,
		Instructions:    d.Instructions,
	}
}

// ListTools returns the registered tools in registration order.
func (s *Service) ListTools() []mcp.Tool {
	return slices.Clone(s.mcpTools)
}

// Invoke dispatches one tool call.
func (s *Service) Invoke(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	logger := s.logger.WithCorrelationId(uuid.New().String())

	start := time.Now()
	logger.Info().Str("tool", name).Msg("tool call")

	result, err := s.registry.Dispatch(ctx, name, args)
	duration := time.Since(start)

	if err != nil {
		logger.Warn().
			Str("tool", name).
			Int("code", tools.ErrorCode(err)).
			Int64("duration_ms", duration.Milliseconds()).
			Str("error", err.Error()).
			Msg("tool call failed")
		return nil, err
	}

	logger.Info().
		Str("tool", name).
		Int64("duration_ms", duration.Milliseconds()).
		Msg("tool call complete")
	return result, nil
}
