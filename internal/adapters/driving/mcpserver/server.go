// Package mcpserver exposes o365 to AI assistants over the Model Context
// Protocol.
//
// Tools call the same driving services as the CLI, so a tool result carries
// the data a CLI listing prints. Results are JSON text: successes are
// {"status":"success",...} and failures are error results carrying
// {"error":{"code":...,"message":...,"data":{"suggestion":...}}}.
//
// The server speaks over stdio. Nothing is ever written to stdout except
// protocol frames; logs go to stderr.
package mcpserver

import (
	"context"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/o365-cli/internal/config"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driving"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Name is the server name announced during initialisation.
const Name = "o365"

const instructions = `Office 365 tools for mail, calendar, Teams chat, OneDrive files, contacts
and meeting recordings. Times accept expressions such as "2 days ago",
"tomorrow 14:00" or "2025-01-15". IDs returned by list and search tools
are accepted by the matching get, download and delete tools.`

// Services are the driving ports the tools call.
type Services struct {
	Auth       driving.AuthService
	Mail       driving.MailService
	Calendar   driving.CalendarService
	Chat       driving.ChatService
	Files      driving.FileService
	Contacts   driving.ContactService
	Recordings driving.RecordingService
	// Config is reloaded from disk while the server runs.
	Config *config.Holder
}

// Server is the o365 MCP server.
type Server struct {
	svc    Services
	server *mcp.Server
}

// New creates a server with every tool, resource and prompt registered.
func New(svc Services, version string) *Server {
	s := &Server{
		svc: svc,
		server: mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, &mcp.ServerOptions{
			Instructions: instructions,
		}),
	}
	s.registerTools()
	s.registerResources()
	s.registerPrompts()
	return s
}

// RunOptions control Run.
type RunOptions struct {
	// LogProtocol copies every JSON-RPC frame to stderr.
	LogProtocol bool
	// Watch reloads the config and token files when they change.
	Watch bool
}

// Run serves over stdio until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context, opts RunOptions) error {
	var transport mcp.Transport = &mcp.StdioTransport{}
	if opts.LogProtocol {
		transport = &mcp.LoggingTransport{Transport: transport, Writer: os.Stderr}
	}

	if opts.Watch && s.svc.Config != nil {
		w, err := config.NewWatcher(s.svc.Config, func(cfg *config.Config) {
			logger.Info("mcp: configuration reloaded from %s", cfg.Path)
		})
		if err != nil {
			logger.Warn("mcp: config watch disabled: %v", err)
		} else {
			go w.Run(ctx)
		}
	}

	logger.Info("mcp: serving %s over stdio", Name)
	return s.server.Run(ctx, transport)
}
