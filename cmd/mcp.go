package cmd

import (
	"github.com/LaStefan/bpmn-process-optimization/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the bpo MCP server",
	Long:  `Launch an MCP server that allows AI agents to run admission simulations via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Run the normal setup so tools inherit config file and env
		// defaults; stdout stays reserved for the protocol itself.
		return sharedSetup(cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
