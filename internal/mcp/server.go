// ABOUTME: MCP server setup for the gymlog workout store.
// ABOUTME: Wraps the MCP server with the repository, state tracker, and analyzer.
package mcp

import (
	"context"

	"github.com/harperreed/gymlog/internal/analytics"
	"github.com/harperreed/gymlog/internal/storage"
	"github.com/harperreed/gymlog/internal/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"
)

// Options carries the per-user defaults the tools fall back to.
type Options struct {
	UserID         string
	Version        string
	WeekCount      int
	OverloadPoints int
}

// Server wraps the MCP server with storage access.
type Server struct {
	mcpServer *mcp.Server
	repo      storage.Repository
	tracker   *tracker.Tracker
	analyzer  *analytics.Analyzer
	opts      Options
}

// NewServer creates a new MCP server with the given storage.
func NewServer(repo storage.Repository, opts Options) (*Server, error) {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.WeekCount <= 0 {
		opts.WeekCount = 8
	}
	if opts.OverloadPoints <= 0 {
		opts.OverloadPoints = 8
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "gymlog",
			Version: opts.Version,
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		repo:      repo,
		tracker:   tracker.New(repo),
		analyzer:  analytics.NewAnalyzer(repo),
		opts:      opts,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	log.Info("mcp server listening on stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
