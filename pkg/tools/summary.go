package tools

import (
	"context"

	"agentcore/pkg/llm"
)

const summarySchema = `{
  "type": "object",
  "properties": {
    "operation": {
      "type": "string",
      "enum": ["status", "trigger", "enable", "disable"],
      "description": "Operation to perform"
    }
  },
  "required": ["operation"]
}`

// SummarizationTool exposes the conversation summarizer through the tool
// contract: the model (or the user, via a manual call) can inspect context
// occupancy, force a compaction, or toggle the automatic trigger.
type SummarizationTool struct {
	summarizer *llm.Summarizer
}

// NewSummarizationTool wraps an agent's summarizer.
func NewSummarizationTool(s *llm.Summarizer) *SummarizationTool {
	return &SummarizationTool{summarizer: s}
}

func (t *SummarizationTool) Name() string { return "summarization" }

func (t *SummarizationTool) Description() string {
	return "Control conversation summarization: status, trigger, enable, or disable"
}

func (t *SummarizationTool) Schema() string { return summarySchema }

func (t *SummarizationTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var args struct {
		Operation string `json:"operation"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return errResult("Summarization tool error: " + err.Error()), nil
	}

	switch args.Operation {
	case "status":
		return mustMarshal(t.summarizer.Status()), nil

	case "trigger":
		if err := t.summarizer.Trigger(ctx); err != nil {
			return errResult("Summarization failed: " + err.Error()), nil
		}
		return mustMarshal(map[string]any{
			"success": true,
			"message": "Conversation summarized",
		}), nil

	case "enable":
		t.summarizer.Enable()
		return mustMarshal(map[string]any{"success": true, "enabled": true}), nil

	case "disable":
		t.summarizer.Disable()
		return mustMarshal(map[string]any{"success": true, "enabled": false}), nil

	default:
		return errResult("Unknown operation: " + args.Operation), nil
	}
}
