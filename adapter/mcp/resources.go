package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterResources registers MCP resources that expose registry data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	tools := taskTools{app: deps.App}

	srv.Resource("taskboard://tasks").
		Name("Tasks").
		Description("Every task, highest AI score first").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			tasks, err := tools.list(ctx, taskListInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, tasks)
		})

	srv.Resource("taskboard://tasks/pending").
		Name("Pending Tasks").
		Description("Tasks that have not been started, highest AI score first").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			tasks, err := tools.list(ctx, taskListInput{Status: "pending"})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, tasks)
		})

	srv.Resource("taskboard://analytics").
		Name("Analytics").
		Description("Registry summary: totals, counts per status and average AI score").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			summary, err := tools.analytics(ctx, analyticsInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, summary)
		})

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}

