package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hallgard/furrow/internal/fieldservice"
	"github.com/hallgard/furrow/internal/models"
	"github.com/hallgard/furrow/internal/session"
	"github.com/hallgard/furrow/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	mgr := session.NewManager()
	t.Cleanup(mgr.Close)
	svc := fieldservice.NewService(mgr, testutil.TestLedger(t), t.TempDir())

	b := testutil.NewLegacyRoot(t, "500000.0,5800000.0").
		AddField("Hof", "Nordacker",
			`{"contourTrueStr": "0,0,0,100,0,0,100,100,0,0,100,0"}`,
			"0,AB,Track1,0,0,0,100,0,0\n")
	sess, err := svc.OpenRoot(context.Background(), models.ModeCereaTxt, b.Root)
	if err != nil {
		t.Fatal(err)
	}
	return New(svc, sess.ID)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we test
	// through the tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_farms":
		result, err = srv.listFarms(ctx, req)
	case "list_fields":
		result, err = srv.listFields(ctx, req)
	case "read_field":
		result, err = srv.readField(ctx, req)
	case "validate_structure":
		result, err = srv.validateStructure(ctx, req)
	case "export_all":
		result, err = srv.exportAll(ctx, req)
	case "get_export_layout":
		result, err = srv.getExportLayout(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListFarmsAndFields(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "list_farms", map[string]interface{}{})
	if text := resultText(r); text != "Hof" {
		t.Errorf("list_farms = %q", text)
	}

	r = callTool(t, srv, "list_fields", map[string]interface{}{"farm": "Hof"})
	if text := resultText(r); text != "Nordacker" {
		t.Errorf("list_fields = %q", text)
	}

	r = callTool(t, srv, "list_fields", map[string]interface{}{"farm": "Nope"})
	if !r.IsError {
		t.Error("expected error for unknown farm")
	}
}

func TestReadField(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "read_field", map[string]interface{}{
		"farm":  "Hof",
		"field": "Nordacker",
	})
	text := resultText(r)
	if !strings.Contains(text, `"Track1"`) {
		t.Errorf("read_field missing track name: %q", text)
	}
	if !strings.Contains(text, `"polygon"`) {
		t.Errorf("read_field missing polygon: %q", text)
	}
}

func TestValidateStructure(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "validate_structure", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, `"farms": 1`) {
		t.Errorf("validate_structure = %q", text)
	}
}

func TestExportAll(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "export_all", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "Exported 1 field(s)") {
		t.Errorf("export_all = %q", text)
	}
}

func TestGetExportLayout(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "get_export_layout", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, "contours/") {
		t.Errorf("layout contract = %q", text)
	}
}
