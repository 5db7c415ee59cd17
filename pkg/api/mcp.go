package api

import (
	"encoding/json"
	"fmt"

	"github.com/hazyhaar/rebeauty/pkg/kit"
	"github.com/hazyhaar/rebeauty/pkg/note"
	"github.com/hazyhaar/rebeauty/pkg/search"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names.
const (
	ToolSearchCustomers = "search_customers"
	ToolEncodeNote      = "encode_note"
	ToolDecodeNote      = "decode_note"
)

// NewMCPServer creates an MCP server exposing the console tools.
func NewMCPServer(deps Deps, version string) *server.MCPServer {
	srv := server.NewMCPServer("rebeauty", version, server.WithToolCapabilities(false))
	RegisterMCPTools(srv, deps)
	return srv
}

// RegisterMCPTools registers the console MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, deps Deps) {
	logger := deps.logger()

	kit.RegisterMCPTool(srv, mcp.NewTool(ToolSearchCustomers,
		mcp.WithDescription("Search salon customers by id, name or phone. Matching ignores width, case and hiragana/katakana differences; any field may match. At most 20 results."),
		mcp.WithString("id", mcp.Description("Part of the customer number")),
		mcp.WithString("name", mcp.Description("Part of the name, kanji or kana")),
		mcp.WithString("phone", mcp.Description("Part of the phone number")),
	), kit.Logging(logger, ToolSearchCustomers)(searchEndpoint(deps.Index)), decodeSearch)

	kit.RegisterMCPTool(srv, mcp.NewTool(ToolEncodeNote,
		mcp.WithDescription("Encode a customer counseling profile into the note string stored on the customer record."),
		mcp.WithString("profile", mcp.Required(), mcp.Description(`Profile as JSON, e.g. {"skin_type":"乾燥肌","skin_concerns":["シミ"]}`)),
	), kit.Logging(logger, ToolEncodeNote)(encodeNoteEndpoint()), decodeEncodeNote)

	kit.RegisterMCPTool(srv, mcp.NewTool(ToolDecodeNote,
		mcp.WithDescription("Decode a customer note string into labelled fields and a structured profile."),
		mcp.WithString("note", mcp.Required(), mcp.Description("The note string")),
	), kit.Logging(logger, ToolDecodeNote)(decodeNoteEndpoint()), decodeDecodeNote)
}

func decodeSearch(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	args := req.GetArguments()
	id, _ := args["id"].(string)
	name, _ := args["name"].(string)
	phone, _ := args["phone"].(string)
	return &kit.MCPDecodeResult{Request: &searchReq{Query: search.Query{ByID: id, ByName: name, ByPhone: phone}}}, nil
}

func decodeEncodeNote(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var p note.Profile
	switch v := req.GetArguments()["profile"].(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			return nil, fmt.Errorf("profile: %w", err)
		}
	case map[string]any:
		data, _ := json.Marshal(v)
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("profile: %w", err)
		}
	default:
		return nil, fmt.Errorf("profile is required")
	}
	return &kit.MCPDecodeResult{Request: &encodeNoteReq{Profile: p}}, nil
}

func decodeDecodeNote(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	n, ok := req.GetArguments()["note"].(string)
	if !ok {
		return nil, fmt.Errorf("note is required")
	}
	return &kit.MCPDecodeResult{Request: &decodeNoteReq{Note: n}}, nil
}
