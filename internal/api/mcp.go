package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/threatpulse/internal/threat"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Analyzer    Analyzer
	Recommender Recommender
	Version     string
}

// NewMCPServer creates an MCP server with the threatpulse tools registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := server.NewMCPServer(
		"threatpulse",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions("threatpulse: classify traveler safety reports and suggest precautions."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("analyze_report",
			mcp.WithDescription("Classify a free-text safety report into a category, risk score, severity and actionable insights."),
			mcp.WithString("report", mcp.Description("The report text"), mcp.Required()),
			mcp.WithString("location", mcp.Description("Where the incident happened"), mcp.Required()),
		),
		mcpAnalyzeReport(deps),
	)

	s.AddTool(
		mcp.NewTool("recommend_safety",
			mcp.WithDescription("Suggest 3-5 safety recommendations for a traveler visiting a location."),
			mcp.WithString("location", mcp.Description("Destination"), mcp.Required()),
			mcp.WithString("travel_style", mcp.Description("solo, group or family"), mcp.Required()),
			mcp.WithString("experience", mcp.Description("beginner, intermediate or expert"), mcp.Required()),
			mcp.WithString("recent_threats", mcp.Description("Optional JSON array of {threatType, title} objects")),
		),
		mcpRecommendSafety(deps),
	)

	return s
}

func mcpAnalyzeReport(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		report, err := req.RequireString("report")
		if err != nil || blank(report) {
			return mcpError("report is required"), nil
		}
		location, err := req.RequireString("location")
		if err != nil || blank(location) {
			return mcpError("location is required"), nil
		}

		result, err := deps.Analyzer.Analyze(ctx, report, location)
		if err != nil {
			slog.Error("mcp analyze_report failed", "error", err)
			return mcpError(fmt.Sprintf("failed to analyze report: %v", err)), nil
		}

		b, err := json.Marshal(result)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal analysis: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpRecommendSafety(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		location, err := req.RequireString("location")
		if err != nil || blank(location) {
			return mcpError("location is required"), nil
		}
		style, err := req.RequireString("travel_style")
		if err != nil {
			return mcpError("travel_style is required"), nil
		}
		experience, err := req.RequireString("experience")
		if err != nil {
			return mcpError("experience is required"), nil
		}

		var recent []threat.ReportSummary
		if raw := req.GetString("recent_threats", ""); raw != "" {
			if err := json.Unmarshal([]byte(raw), &recent); err != nil {
				return mcpError(fmt.Sprintf("recent_threats must be a JSON array: %v", err)), nil
			}
		}

		profile := threat.TravelerProfile{
			TravelStyle: style,
			Experience:  experience,
		}
		recs := deps.Recommender.Recommend(ctx, location, profile, recent)

		b, err := json.Marshal(recs)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal recommendations: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
