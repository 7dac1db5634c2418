// Package mcp exposes the stored label hierarchy and example sets to AI
// tools over the Model Context Protocol.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/funsense/fewshot/internal/config"
	"github.com/funsense/fewshot/internal/logging"
	"github.com/funsense/fewshot/internal/store"
	"github.com/funsense/fewshot/internal/tokens"
)

// Server answers tool calls from the project store.
type Server struct {
	root    string
	cfg     config.GlobalConfig
	store   *store.Store
	counter tokens.Counter
	logger  *slog.Logger
	srv     *mcpserver.MCPServer
}

// NewServer creates a Server and registers its tools.
func NewServer(root string, cfg config.GlobalConfig, st *store.Store, counter tokens.Counter, version string, logger *slog.Logger) *Server {
	s := &Server{
		root:    root,
		cfg:     cfg,
		store:   st,
		counter: counter,
		logger:  logging.WithOperation(logging.OrDiscard(logger), "mcp"),
		srv: mcpserver.NewMCPServer("fewshot", version,
			mcpserver.WithToolCapabilities(true),
		),
	}
	s.registerTools()
	return s
}

// ServeStdio serves requests on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving on stdio", slog.String("root", s.root))
	return mcpserver.ServeStdio(s.srv)
}

func (s *Server) registerTools() {
	s.srv.AddTool(mcp.NewTool("list_labels",
		mcp.WithDescription("Show the label hierarchy built from the email dumps, with item counts per label"),
	), s.handleListLabels)

	s.srv.AddTool(mcp.NewTool("label_path",
		mcp.WithDescription("Show the path from a label up to its root label"),
		mcp.WithString("label", mcp.Required(), mcp.Description("Label name, e.g. \"evaluation\"")),
	), s.handleLabelPath)

	s.srv.AddTool(mcp.NewTool("item_paths",
		mcp.WithDescription("Show every label path an email belongs to"),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Email ID")),
	), s.handleItemPaths)

	s.srv.AddTool(mcp.NewTool("few_shot_prompt",
		mcp.WithDescription("Render a few-shot labelling prompt from the latest example set"),
		mcp.WithNumber("count", mcp.Description("Number of examples to include (default from config)")),
		mcp.WithNumber("seed", mcp.Description("Sampling seed; 0 picks a random one")),
	), s.handleFewShotPrompt)

	s.srv.AddTool(mcp.NewTool("item_labels",
		mcp.WithDescription("Show the labels an LLM assigned to an email"),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Email ID")),
	), s.handleItemLabels)

	s.srv.AddTool(mcp.NewTool("dataset_status",
		mcp.WithDescription("Summarise the stored hierarchies, example sets and labelled items"),
	), s.handleStatus)
}
