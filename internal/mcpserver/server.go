// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Furrow tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hallgard/furrow/internal/fieldservice"
)

// Server wraps the MCP server with Furrow tools. All tools operate on one
// session opened over the configured import root.
type Server struct {
	mcp       *server.MCPServer
	svc       *fieldservice.Service
	sessionID string
}

// New creates a new MCP server with all Furrow tools registered.
func New(svc *fieldservice.Service, sessionID string) *Server {
	s := &Server{svc: svc, sessionID: sessionID}

	s.mcp = server.NewMCPServer(
		"Furrow",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_farms",
		mcp.WithDescription("List the farm folders of the import root."),
	), s.listFarms)

	s.mcp.AddTool(mcp.NewTool("list_fields",
		mcp.WithDescription("List the fields of one farm."),
		mcp.WithString("farm", mcp.Required(), mcp.Description("Farm folder name")),
	), s.listFields)

	s.mcp.AddTool(mcp.NewTool("read_field",
		mcp.WithDescription("Read one field: boundary polygon, tracks in display order, "+
			"per-field notes and the dirty flag."),
		mcp.WithString("farm", mcp.Required(), mcp.Description("Farm folder name")),
		mcp.WithString("field", mcp.Required(), mcp.Description("Field name")),
	), s.readField)

	s.mcp.AddTool(mcp.NewTool("validate_structure",
		mcp.WithDescription("Check the import root's structure without converting anything. "+
			"Issues are fatal for the whole root; warnings are per-field conditions."),
	), s.validateStructure)

	s.mcp.AddTool(mcp.NewTool("export_all",
		mcp.WithDescription("Convert every field into the shapefile output tree described by "+
			"the furrow://export-layout resource and report the outcome."),
	), s.exportAll)

	s.mcp.AddTool(mcp.NewTool("get_export_layout",
		mcp.WithDescription("Returns the canonical layout of the exported shapefile tree."),
	), s.getExportLayout)

	// Resource: export tree layout.
	s.mcp.AddResource(
		mcp.NewResource("furrow://export-layout", "Export Tree Layout",
			mcp.WithResourceDescription("Canonical layout of the shapefile tree produced by export_all."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readExportLayoutResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listFarms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	farms, err := s.svc.Farms(ctx, s.sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(farms) == 0 {
		return mcp.NewToolResultText("no farms found"), nil
	}
	return mcp.NewToolResultText(strings.Join(farms, "\n")), nil
}

func (s *Server) listFields(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	farm, err := req.RequireString("farm")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fields, err := s.svc.Fields(ctx, s.sessionID, farm)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("farm not found: %s", farm)), nil
	}
	if len(fields) == 0 {
		return mcp.NewToolResultText("no fields found"), nil
	}
	return mcp.NewToolResultText(strings.Join(fields, "\n")), nil
}

func (s *Server) readField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	farm, err := req.RequireString("farm")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	field, err := req.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.Field(ctx, s.sessionID, farm, field)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("field not found: %s/%s", farm, field)), nil
	}
	out, _ := json.MarshalIndent(detail, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) validateStructure(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.svc.Validate(ctx, s.sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) exportAll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.svc.ExportAll(ctx, s.sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(report.Render()), nil
}

func (s *Server) getExportLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ExportLayoutContract), nil
}

func (s *Server) readExportLayoutResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "furrow://export-layout",
			MIMEType: "text/markdown",
			Text:     ExportLayoutContract,
		},
	}, nil
}
