// Package mcp exposes the analysis engine as Model Context Protocol tools
// so assistants can rank, assess and ask about integration nodes.
package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/analysis"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/chat"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
	apperrors "github.com/doubletgeekedup/int-dashboard-sub000/pkg/errors"
)

// Analyzer is the local analysis surface exposed as tools.
type Analyzer interface {
	Similarity(ctx context.Context, target domain.NodePartial, threshold float64) ([]domain.SimilarityResult, error)
	AssessImpact(ctx context.Context, nodeID string) (*domain.ImpactAssessment, error)
	Dependencies(ctx context.Context, nodeID string) (analysis.Outcome[[]domain.DependencyRecord], error)
	Overview(ctx context.Context, prefix string) (*analysis.Overview, error)
	Sources() []domain.Source
}

// GraphAnalyzer is the graph-backed analysis surface.
type GraphAnalyzer interface {
	FindSimilarByStructure(ctx context.Context, nodeID string, maxHops int) analysis.Outcome[[]domain.SimilarityResult]
	AssessImpactByGraph(ctx context.Context, nodeID string) (analysis.Outcome[*analysis.GraphImpactAssessment], error)
}

// Interpreter answers free-text questions.
type Interpreter interface {
	Interpret(ctx context.Context, message, sourceCode string) (*chat.ChatResponse, error)
}

// ServerConfig holds the collaborators and identity of the MCP server.
type ServerConfig struct {
	Name        string
	Version     string
	Analyzer    Analyzer
	Graph       GraphAnalyzer
	Interpreter Interpreter
}

// NewServer creates an MCP server with all analysis tools and resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	name, ver := cfg.Name, cfg.Version
	if name == "" {
		name = "sot-analysis"
	}
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		name,
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	registerSimilarityTool(s, cfg.Analyzer)
	registerImpactTool(s, cfg.Analyzer)
	registerDependenciesTool(s, cfg.Analyzer)
	if cfg.Graph != nil {
		registerStructuralTool(s, cfg.Graph)
		registerGraphImpactTool(s, cfg.Graph)
	}
	if cfg.Interpreter != nil {
		registerAskTool(s, cfg.Interpreter)
	}
	registerSourcesResource(s, cfg.Analyzer)

	return s
}

// --- Tools ---

func registerSimilarityTool(s *server.MCPServer, a Analyzer) {
	tool := mcp.NewTool("sot_similarity",
		mcp.WithDescription("Rank stored nodes by property similarity to a target. Provide a node_id to compare against a stored node, or any of type, class, function_name and description."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("node_id", mcp.Description("Id or nodeKey of a stored node to use as the target")),
		mcp.WithString("type", mcp.Description("Node type, e.g. HH")),
		mcp.WithString("class", mcp.Description("Node class, e.g. CF")),
		mcp.WithString("function_name", mcp.Description("Function name")),
		mcp.WithString("description", mcp.Description("Free-text description")),
		mcp.WithNumber("threshold", mcp.Description("Minimum similarity in (0, 1] (default: 0.7)")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target := domain.NodePartial{
			ID:           optString(req, "node_id"),
			Type:         optString(req, "type"),
			Class:        optString(req, "class"),
			FunctionName: optString(req, "function_name"),
			Description:  optString(req, "description"),
		}
		threshold := 0.0
		if v, err := req.RequireFloat("threshold"); err == nil {
			if v <= 0 || v > 1 {
				return mcp.NewToolResultError("threshold must be in (0, 1]"), nil
			}
			threshold = v
		}

		results, err := a.Similarity(ctx, target, threshold)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(map[string]any{"results": results, "count": len(results)})
	})
}

func registerImpactTool(s *server.MCPServer, a Analyzer) {
	tool := mcp.NewTool("sot_impact",
		mcp.WithDescription("Estimate the blast radius of changing a node: affected nodes, severity and source breakdown, a 0-100 impact score and recommendations."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Id, nodeKey or numeric suffix of the node")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, ok := requireID(req)
		if !ok {
			return mcp.NewToolResultError("node_id is required"), nil
		}
		assessment, err := a.AssessImpact(ctx, id)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(assessment)
	})
}

func registerDependenciesTool(s *server.MCPServer, a Analyzer) {
	tool := mcp.NewTool("sot_dependencies",
		mcp.WithDescription("List nodes related to a node. Uses graph edges when available and otherwise nodes sharing its component or thread."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Id, nodeKey or numeric suffix of the node")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, ok := requireID(req)
		if !ok {
			return mcp.NewToolResultError("node_id is required"), nil
		}
		outcome, err := a.Dependencies(ctx, id)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(outcome)
	})
}

func registerStructuralTool(s *server.MCPServer, g GraphAnalyzer) {
	tool := mcp.NewTool("sot_structural_similarity",
		mcp.WithDescription("Rank nodes by neighbors shared with a node in the graph. Falls back to property similarity when the graph is unavailable; the status field says which path answered."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Graph id of the node")),
		mcp.WithNumber("max_hops", mcp.Description("Traversal depth (default: 2, max: 5)")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, ok := requireID(req)
		if !ok {
			return mcp.NewToolResultError("node_id is required"), nil
		}
		hops := 0
		if v, err := req.RequireFloat("max_hops"); err == nil {
			hops = min(max(int(v), 1), 5)
		}
		return jsonResult(g.FindSimilarByStructure(ctx, id, hops))
	})
}

func registerGraphImpactTool(s *server.MCPServer, g GraphAnalyzer) {
	tool := mcp.NewTool("sot_graph_impact",
		mcp.WithDescription("Score the risk of changing a node from its direct and two-hop reach and the number of systems it touches."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Graph id of the node")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, ok := requireID(req)
		if !ok {
			return mcp.NewToolResultError("node_id is required"), nil
		}
		outcome, err := g.AssessImpactByGraph(ctx, id)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(outcome)
	})
}

func registerAskTool(s *server.MCPServer, in Interpreter) {
	tool := mcp.NewTool("sot_ask",
		mcp.WithDescription("Ask a free-text question about the integration nodes, e.g. 'what is the impact of HH@id@934' or 'how many TX nodes'."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("message", mcp.Required(), mcp.Description("The question")),
		mcp.WithString("source", mcp.Description("Optional source code to scope counts, e.g. SCR")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil || strings.TrimSpace(message) == "" {
			return mcp.NewToolResultError("message is required"), nil
		}
		resp, err := in.Interpret(ctx, message, optString(req, "source"))
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(resp)
	})
}

// --- Resources ---

func registerSourcesResource(s *server.MCPServer, a Analyzer) {
	resource := mcp.NewResource(
		"sot://sources",
		"Sources of Truth",
		mcp.WithResourceDescription("Configured sources of truth with stored node counts."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ov, err := a.Overview(ctx, "")
		if err != nil {
			return nil, err
		}
		type sourceInfo struct {
			domain.Source
			Nodes int `json:"nodes"`
		}
		sources := a.Sources()
		items := make([]sourceInfo, 0, len(sources))
		for _, src := range sources {
			items = append(items, sourceInfo{Source: src, Nodes: ov.Sources[src.Code]})
		}
		data, _ := json.MarshalIndent(map[string]any{
			"sources": items,
			"threads": ov.Threads,
			"nodes":   ov.Nodes,
		}, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}

func optString(req mcp.CallToolRequest, key string) string {
	if v, err := req.RequireString(key); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}

func requireID(req mcp.CallToolRequest) (string, bool) {
	id, err := req.RequireString("node_id")
	if err != nil {
		return "", false
	}
	id = strings.TrimSpace(id)
	return id, id != ""
}

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(apperrors.Message(err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
