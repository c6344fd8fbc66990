package agent

import (
	"agentcore/pkg/llm"
	"agentcore/pkg/tools"
)

// EnableTodoTool registers the built-in todo list, persisted at path (empty
// for memory only). The store is flushed and released when the agent closes.
func (a *Agent) EnableTodoTool(path string) error {
	t := tools.NewTodoTool(path)
	a.registry.Register(t)
	a.closers = append(a.closers, t)
	return nil
}

// EnableNotesTool registers the built-in notes store, persisted at path
// (empty for memory only).
func (a *Agent) EnableNotesTool(path string) error {
	t := tools.NewNotesTool(path)
	a.registry.Register(t)
	a.closers = append(a.closers, t)
	return nil
}

// EnableSummarization wires a summarizer onto the agent's history and
// registers the control tool. Automatic compaction then runs before each
// generation whenever the context reads as full.
func (a *Agent) EnableSummarization() error {
	if a.summarizer == nil {
		ctxSize := a.model.Info().ContextSize
		if ctxSize <= 0 {
			ctxSize = a.model.Config().ContextSize
		}
		a.summarizer = llm.NewSummarizer(a.history, a.model.Backend(), ctxSize, a.cfg.SummarizeThreshold)
	}
	a.registry.Register(tools.NewSummarizationTool(a.summarizer))
	return nil
}
