package tools

import (
	"fmt"
	"strings"
)

// Preamble renders the tool-schema block the engine injects right after the
// system message. It lists every registered tool and spells out the call
// envelope. Empty registry renders to "".
func Preamble(reg *Registry) string {
	all := reg.All()
	if len(all) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("You have access to the following tools:\n\n")
	for _, tool := range all {
		fmt.Fprintf(&sb, "Tool: %s\nDescription: %s\nParameters: %s\n\n",
			tool.Name(), tool.Description(), tool.Schema())
	}
	sb.WriteString("To call one or more tools, respond with only a JSON object of this exact form:\n")
	sb.WriteString(`{"tool_calls": [{"name": "<tool_name>", "parameters": {<arguments>}}]}`)
	sb.WriteString("\nDo not add any other text around the JSON. Otherwise, answer normally.")
	return sb.String()
}
