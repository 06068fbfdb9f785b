package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/dns-mcp/internal/config"
)

const configFileName = "dns-mcp.toml"

// newRootCmd builds the command tree. Running the root command without a
// subcommand serves, as MCP clients launch the binary with no arguments.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dns-mcp",
		Short:         "MCP server exposing a dns_lookup tool",
		Long:          "dns-mcp serves a dns_lookup tool to MCP clients over stdio or streamable HTTP, backed by the HackerTarget DNS lookup API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runServe,
	}

	root.PersistentFlags().StringArrayP("config", "c", nil, "Configuration file path (repeatable, later files win)")
	addServeFlags(root)

	root.Version = config.GetVersion()
	root.SetVersionTemplate(fmt.Sprintf("dns-mcp version %s\n", config.GetFullVersion()))

	root.AddCommand(newServeCmd())
	root.AddCommand(newLookupCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dns-mcp version %s\n", config.GetFullVersion())
		},
	}
}

// loadConfig resolves configuration: defaults, config files, environment,
// then flags that exist on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, []string, error) {
	configFiles, _ := cmd.Flags().GetStringArray("config")
	if len(configFiles) == 0 {
		for _, path := range configSearchPaths() {
			if _, err := os.Stat(path); err == nil {
				configFiles = append(configFiles, path)
				break
			}
		}
	}

	cfg, err := config.LoadFromFiles(configFiles...)
	if err != nil {
		return nil, nil, err
	}

	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")
	config.ApplyFlagOverrides(cfg, transport, port, host)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, configFiles, nil
}

// configSearchPaths returns TOML files to auto-discover (first match wins).
// Binary-relative paths are tried before the working directory.
func configSearchPaths() []string {
	candidates := []string{
		configFileName,
		filepath.Join("config", configFileName),
	}

	exe, err := os.Executable()
	if err != nil {
		return candidates
	}
	binDir := filepath.Dir(exe)

	paths := []string{
		filepath.Join(binDir, configFileName),
		filepath.Join(binDir, "config", configFileName),
	}
	paths = append(paths, candidates...)

	seen := make(map[string]bool, len(paths))
	deduped := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		deduped = append(deduped, p)
	}
	return deduped
}
