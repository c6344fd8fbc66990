package tools_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentcore/pkg/tools"
)

func echoTool(name string) tools.Tool {
	return tools.NewFunc(name, "echoes its arguments", `{"type":"object"}`,
		func(ctx context.Context, argsJSON string) (string, error) {
			return argsJSON, nil
		})
}

func TestExecuteCallsFraming(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(echoTool("echo"))

	out := tools.ExecuteCalls(context.Background(), reg, []tools.ToolCall{
		{Name: "echo", Arguments: `{"a":1}`},
	})
	assert.Equal(t, "Tool 'echo' returned:\n{\"a\":1}", out)
}

func TestExecuteCallsOrderAndSeparator(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(echoTool("one"))
	reg.Register(echoTool("two"))

	out := tools.ExecuteCalls(context.Background(), reg, []tools.ToolCall{
		{Name: "one", Arguments: `{"n":1}`},
		{Name: "two", Arguments: `{"n":2}`},
	})
	first := strings.Index(out, "Tool 'one'")
	second := strings.Index(out, "Tool 'two'")
	require.True(t, first >= 0 && second >= 0)
	assert.Less(t, first, second, "calls dispatch in parser order")
	assert.Contains(t, out, "\n\n", "blocks separated by a blank line")
}

func TestExecuteCallsUnknownTool(t *testing.T) {
	reg := tools.NewRegistry()

	out := tools.ExecuteCalls(context.Background(), reg, []tools.ToolCall{
		{Name: "ghost", Arguments: "{}"},
	})
	assert.Contains(t, out, `"error":"Tool not found"`)
	assert.Contains(t, out, `"tool_name":"ghost"`)
}

func TestExecuteCallsToolFailure(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(tools.NewFunc("bad", "always fails", `{}`,
		func(ctx context.Context, argsJSON string) (string, error) {
			return "", errors.New("exploded")
		}))
	reg.Register(tools.NewFunc("empty", "returns nothing", `{}`,
		func(ctx context.Context, argsJSON string) (string, error) {
			return "", nil
		}))

	out := tools.ExecuteCalls(context.Background(), reg, []tools.ToolCall{
		{Name: "bad", Arguments: "{}"},
		{Name: "empty", Arguments: "{}"},
	})
	assert.Contains(t, out, `"error":"exploded"`)
	assert.Contains(t, out, `"tool_name":"bad"`)
	assert.Contains(t, out, `"tool_name":"empty"`)
}

func TestRegistryOverwriteAndAll(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(echoTool("b"))
	reg.Register(echoTool("a"))
	reg.Register(tools.NewFunc("a", "replacement", `{}`,
		func(ctx context.Context, argsJSON string) (string, error) {
			return "replaced", nil
		}))

	assert.Equal(t, 2, reg.Len())
	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name(), "All is sorted by name")
	assert.Equal(t, "replacement", all[0].Description())
}

func TestPreambleListsToolsAndEnvelope(t *testing.T) {
	reg := tools.NewRegistry()
	assert.Empty(t, tools.Preamble(reg))

	reg.Register(echoTool("echo"))
	p := tools.Preamble(reg)
	assert.Contains(t, p, "Tool: echo")
	assert.Contains(t, p, "echoes its arguments")
	assert.Contains(t, p, `{"tool_calls": [{"name": "<tool_name>", "parameters": {<arguments>}}]}`)
}
