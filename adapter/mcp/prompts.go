package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common registry workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("triage").
		Description("Review the board and decide what to work on next.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Board Triage",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Help me triage my task board. Please:

1. Read the board from the taskboard://tasks resource (highest AI score first)
2. Read the summary from the taskboard://analytics resource

Then:
- Name the three tasks I should start with and why
- Point out pending tasks whose score looks too low for their due date
- Suggest tasks that could be marked completed or deleted

Use task.update to change priority, status or due date once I agree,
and score.explain if I ask why a task ranks where it does.`,
						},
					},
				},
			}, nil
		})

	srv.Prompt("task_breakdown").
		Description("Break down a complex task into smaller tasks on the board.").
		Argument("task_description", "Description of the task to break down", true).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			taskDesc := args["task_description"]
			if taskDesc == "" {
				taskDesc = "[Please describe the task you want to break down]"
			}

			return &mcp.PromptResult{
				Description: "Task Breakdown Assistant",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`Help me break down this task into smaller, actionable tasks:

**Task:** %s

Please:
1. Identify the main components of the task
2. Break it into 3-7 tasks that can each be finished in one sitting
3. For each one suggest a clear title, a priority (high, medium, low)
   and a due date if the order matters

Once I approve the breakdown, use the task.create tool to add each task.
Use a consistent naming pattern like "[Parent Task] - Step".`, taskDesc),
						},
					},
				},
			}, nil
		})

	return nil
}
