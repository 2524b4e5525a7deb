package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/o365-cli/internal/adapters/driving/mcpserver"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

var mcpLogProtocol bool

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout so AI assistants can
read mail, manage the calendar, use Teams chat, move OneDrive files and
fetch meeting recordings.

Example client configuration:

  {"mcpServers": {"o365": {"command": "o365", "args": ["mcp"]}}}

The server reloads the config and token files when they change, so
'o365 auth login' in another terminal takes effect without a restart.
Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().BoolVar(&mcpLogProtocol, "log-protocol", false, "copy every JSON-RPC message to stderr")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	if authService == nil || mailService == nil {
		return errors.New("services not configured")
	}
	srv := mcpserver.New(mcpserver.Services{
		Auth:       authService,
		Mail:       mailService,
		Calendar:   calendarService,
		Chat:       chatService,
		Files:      fileService,
		Contacts:   contactService,
		Recordings: recordingService,
		Config:     configHolder,
	}, version)

	logger.Debug("cli: starting MCP server (log protocol: %t)", mcpLogProtocol)
	return srv.Run(cmd.Context(), mcpserver.RunOptions{LogProtocol: mcpLogProtocol, Watch: true})
}
