package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/dragmask/internal/config"
	"github.com/1broseidon/dragmask/internal/draggable"
	"github.com/1broseidon/dragmask/internal/platform"
)

const (
	ServerName    = "dragmask"
	ServerVersion = "0.1.0"
)

// Server exposes region composition as MCP tools.
type Server struct {
	mcpServer  *mcpsdk.Server
	backend    platform.Backend
	compositor *draggable.Compositor
}

// NewServer creates an MCP server. A nil backend leaves only compose_regions
// usable; the window tools then report an error.
func NewServer(cfg *config.Config, backend platform.Backend, logger *slog.Logger) *Server {
	tracer := draggable.SlogTracer{Logger: logger, Verbose: cfg.TraceRegions}
	s := &Server{
		backend:    backend,
		compositor: draggable.NewCompositor(draggable.WithTracer(tracer)),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "compose_regions",
		Description: "Compose an ordered list of draggable and excluded rectangles into a draggable region without touching any window. Returns the region as disjoint rectangles in top-to-bottom, left-to-right order.",
	}, s.handleComposeRegions)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "apply_regions",
		Description: "Compose an entry list and install the result as the draggable mask of a window. Windows with a native frame are left untouched and reported as framed.",
	}, s.handleApplyRegions)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_region",
		Description: "Read the draggable mask currently installed on a window.",
	}, s.handleGetRegion)
}
