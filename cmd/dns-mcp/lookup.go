package main

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/bobmcallan/dns-mcp/internal/common"
	"github.com/bobmcallan/dns-mcp/internal/dns"
	"github.com/bobmcallan/dns-mcp/internal/service"
)

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <domain>",
		Short: "Run a single DNS lookup and print the provider response",
		Args:  cobra.ExactArgs(1),
		RunE:  runLookup,
	}
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "dns-mcp: %v\n", err)
		return err
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)
	shutdownTracing, err := startTracing(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer shutdownTracing()

	svc, err := service.NewDefault(cfg, logger)
	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("failed to initialize service")
		return err
	}

	result, err := svc.Invoke(cmd.Context(), dns.ToolName, map[string]any{"domain": args[0]})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "dns-mcp: %v\n", err)
		return err
	}

	out := cmd.OutOrStdout()
	for _, c := range result.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			fmt.Fprint(out, tc.Text)
		}
	}
	return nil
}
