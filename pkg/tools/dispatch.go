package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

type toolError struct {
	Error    string `json:"error"`
	ToolName string `json:"tool_name"`
}

// ExecuteCalls dispatches the calls in order and formats their results into
// the block fed back to the model as the next user turn. Unknown tools and
// failing tools produce error JSON instead of aborting, so the model can
// recover within the same turn.
func ExecuteCalls(ctx context.Context, reg *Registry, calls []ToolCall) string {
	blocks := make([]string, 0, len(calls))
	for _, call := range calls {
		result := executeOne(ctx, reg, call)
		blocks = append(blocks, fmt.Sprintf("Tool '%s' returned:\n%s", call.Name, result))
	}
	return strings.Join(blocks, "\n\n")
}

func executeOne(ctx context.Context, reg *Registry, call ToolCall) string {
	tool, ok := reg.Get(call.Name)
	if !ok {
		slog.WarnContext(ctx, "Unknown tool call", "name", call.Name)
		return mustMarshal(toolError{Error: "Tool not found", ToolName: call.Name})
	}

	slog.InfoContext(ctx, "Executing tool", "name", call.Name, "args", call.Arguments)
	result, err := tool.Execute(ctx, call.Arguments)
	if err != nil {
		slog.ErrorContext(ctx, "Tool execution error", "name", call.Name, "error", err)
		return mustMarshal(toolError{Error: err.Error(), ToolName: call.Name})
	}
	if result == "" {
		return mustMarshal(toolError{Error: "tool returned no result", ToolName: call.Name})
	}
	return result
}

// mustMarshal serializes v, falling back to a bare error object when even
// that fails.
func mustMarshal(v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		return `{"error":"internal marshal failure"}`
	}
	return string(out)
}
