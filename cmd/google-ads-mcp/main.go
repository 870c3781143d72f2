// Package main is the entry point for the google-ads-mcp server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var version = "0.1.0"

// Global flags.
var verbose bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "google-ads-mcp",
		Short: "Google Ads MCP server with a bearer-token gateway",
		Long: `google-ads-mcp serves Google Ads query tools over the MCP streamable
HTTP transport, behind a gateway that authenticates state-changing requests
with a bearer token while allowing unauthenticated liveness probes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
