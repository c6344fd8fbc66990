package tools

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// ToolCall is one parsed call: a registered tool's name plus its arguments
// as a JSON string. Arguments always re-parse as valid JSON.
type ToolCall struct {
	Name      string
	Arguments string
}

type rawCall struct {
	Name       string              `json:"name"`
	Parameters jsoniter.RawMessage `json:"parameters"`
}

type callEnvelope struct {
	ToolCalls []rawCall `json:"tool_calls"`
}

// ParseCalls scans model output for the call envelope
//
//	{"tool_calls": [{"name": ..., "parameters": {...}}, ...]}
//
// or the single-call form {"name": ..., "parameters": {...}}. It extracts
// the first brace-matched JSON object (string literals and escapes
// respected) and returns the calls in order. Anything that is not a valid
// envelope yields nil rather than an error, so plain assistant replies pass
// through verbatim.
func ParseCalls(output string) []ToolCall {
	obj := extractObject(output)
	if obj == "" {
		return nil
	}

	var env callEnvelope
	if err := json.Unmarshal([]byte(obj), &env); err == nil && len(env.ToolCalls) > 0 {
		return convertCalls(env.ToolCalls)
	}

	var single rawCall
	if err := json.Unmarshal([]byte(obj), &single); err == nil && single.Name != "" {
		return convertCalls([]rawCall{single})
	}

	return nil
}

func convertCalls(raw []rawCall) []ToolCall {
	calls := make([]ToolCall, 0, len(raw))
	for _, rc := range raw {
		if rc.Name == "" {
			continue
		}
		args := string(rc.Parameters)
		if args == "" || args == "null" {
			args = "{}"
		}
		calls = append(calls, ToolCall{Name: rc.Name, Arguments: args})
	}
	if len(calls) == 0 {
		return nil
	}
	return calls
}

// extractObject returns the first brace-matched object in s, or "" when the
// braces never balance. Braces inside string literals don't count; escapes
// inside literals are honored.
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
