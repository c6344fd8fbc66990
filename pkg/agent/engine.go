// Package agent drives the conversational loop: render history into a
// prompt, generate, detect tool calls, execute them, and re-enter generation
// with the results until the model produces a plain reply.
package agent

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"agentcore/pkg/config"
	"agentcore/pkg/llm"
	"agentcore/pkg/tools"
	"agentcore/pkg/utils"
)

// Tool-loop bounds. A model stuck emitting tool calls is cut off after
// MaxToolDepth re-entries and its last raw response returned as-is.
const (
	defaultToolDepth = 5
	minToolDepth     = 3
)

// Config captures agent construction parameters. It is immutable once the
// agent exists; different settings mean a new agent.
type Config struct {
	// SystemPrompt is installed as the first history message and restored
	// by ClearHistory.
	SystemPrompt string
	// Temperature is the sampling temperature for every generation. 0
	// selects the default (0.7).
	Temperature float32
	// MaxTokens caps each generation; 0 means no explicit limit.
	MaxTokens int
	// EnableTools turns tool-call detection and dispatch on.
	EnableTools bool
	// EnableHistory keeps the conversation in the agent. Off, every call is
	// a one-shot prompt of system prompt plus the current turn.
	EnableHistory bool
	// EnableBuiltins registers the todo, notes and summarization tools with
	// memory-only stores at construction. Callers wanting persistence skip
	// this and call the Enable*Tool methods with a path instead.
	EnableBuiltins bool
	// MaxToolDepth bounds tool re-entries per turn. 0 picks the default;
	// values below the floor are raised to it.
	MaxToolDepth int
	// SummarizeThreshold is the context occupancy ratio that triggers
	// automatic summarization. 0 picks the default (0.75).
	SummarizeThreshold float64
	// History optionally injects an existing transcript, e.g. one managed
	// by an llm.SessionManager. Nil creates a fresh history.
	History *llm.ChatHistory
	// System supplies engine-level settings (retries, timeouts, debug). Nil
	// uses config.DefaultSystemConfig.
	System *config.SystemConfig
}

// DefaultConfig returns the stock agent configuration: tools and history on,
// builtins off.
func DefaultConfig() Config {
	return Config{
		Temperature:        llm.DefaultTemperature,
		EnableTools:        true,
		EnableHistory:      true,
		MaxToolDepth:       defaultToolDepth,
		SummarizeThreshold: llm.DefaultSummarizeThreshold,
	}
}

// Agent owns one conversation, one tool registry, and a reference to a
// Model. A single agent is a cooperative state machine and must not be
// driven from two call sites concurrently; separate agents are independent.
type Agent struct {
	model      *llm.Model
	cfg        Config
	sys        *config.SystemConfig
	history    *llm.ChatHistory
	registry   *tools.Registry
	summarizer *llm.Summarizer
	state      State
	closers    []io.Closer
}

// New builds an agent bound to model. Construction failures return no
// partial agent.
func New(model *llm.Model, cfg Config) (*Agent, error) {
	if model == nil {
		err := llm.Errorf(llm.KindInvalidParam, "agent requires a model")
		llm.Record(err)
		return nil, err
	}

	if cfg.Temperature == 0 {
		cfg.Temperature = llm.DefaultTemperature
	}
	if cfg.MaxToolDepth <= 0 {
		cfg.MaxToolDepth = defaultToolDepth
	} else if cfg.MaxToolDepth < minToolDepth {
		cfg.MaxToolDepth = minToolDepth
	}
	if cfg.SummarizeThreshold <= 0 {
		cfg.SummarizeThreshold = llm.DefaultSummarizeThreshold
	}

	sys := cfg.System
	if sys == nil {
		sys = config.DefaultSystemConfig()
	}

	history := cfg.History
	if history == nil {
		history = llm.NewChatHistory()
	}
	a := &Agent{
		model:    model,
		cfg:      cfg,
		sys:      sys,
		history:  history,
		registry: tools.NewRegistry(),
		state:    StateIdle,
	}
	a.history.EnsureSystemMessage(cfg.SystemPrompt)

	if cfg.EnableBuiltins {
		a.EnableTodoTool("")
		a.EnableNotesTool("")
		a.EnableSummarization()
	}

	llm.ClearLastError()
	return a, nil
}

// State reports where the turn state machine currently is. Outside a
// Respond call it is always StateIdle.
func (a *Agent) State() State {
	return a.state
}

// Model returns the referenced model. The agent does not own it.
func (a *Agent) Model() *llm.Model {
	return a.model
}

// History exposes the conversation transcript.
func (a *Agent) History() *llm.ChatHistory {
	return a.history
}

// Registry exposes the agent's tool registry.
func (a *Agent) Registry() *tools.Registry {
	return a.registry
}

// Summarizer returns the summarizer, or nil before EnableSummarization.
func (a *Agent) Summarizer() *llm.Summarizer {
	return a.summarizer
}

// RegisterTool adds a tool; re-registration under an existing name replaces.
func (a *Agent) RegisterTool(t tools.Tool) error {
	if t == nil || t.Name() == "" {
		err := llm.Errorf(llm.KindInvalidParam, "tool requires a name")
		llm.Record(err)
		return err
	}
	a.registry.Register(t)
	llm.ClearLastError()
	return nil
}

// AddMessage appends a message with an arbitrary role. The engine only
// assigns meaning to "system", "user" and "assistant".
func (a *Agent) AddMessage(role, content string) error {
	if role == "" {
		err := llm.Errorf(llm.KindInvalidParam, "message role is required")
		llm.Record(err)
		return err
	}
	a.history.Add(llm.Message{Role: role, Content: content})
	llm.ClearLastError()
	return nil
}

// ClearHistory drops the conversation and reinstates the configured system
// prompt as the sole entry.
func (a *Agent) ClearHistory() {
	a.history.Clear(a.cfg.SystemPrompt)
}

// HistoryJSON serializes the transcript as an indented array of
// {role, content} objects.
func (a *Agent) HistoryJSON() (string, error) {
	out, err := a.history.JSON()
	if err != nil {
		llm.Record(err)
		return "", err
	}
	llm.ClearLastError()
	return out, nil
}

// Close releases the agent's tool entries, flushing builtin stores. The
// model stays untouched; destroying it afterwards (or before) is safe.
func (a *Agent) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	for _, t := range a.registry.All() {
		a.registry.Unregister(t.Name())
	}
	a.state = StateIdle
	return firstErr
}

// Respond turns one user message into the final assistant reply, executing
// any tool calls the model emits along the way.
func (a *Agent) Respond(ctx context.Context, userMessage string) (string, error) {
	return a.respond(ctx, userMessage, nil)
}

// RespondStream is Respond with incremental delivery. Token-level streaming
// happens when no tool dispatch is possible this turn; otherwise fn receives
// the final text once (tool re-entry is blocking because the parser needs
// the complete response).
func (a *Agent) RespondStream(ctx context.Context, userMessage string, fn llm.StreamFunc) error {
	if fn == nil {
		err := llm.Errorf(llm.KindInvalidParam, "stream callback is required")
		llm.Record(err)
		return err
	}
	_, err := a.respond(ctx, userMessage, fn)
	return err
}

func (a *Agent) respond(ctx context.Context, userMessage string, fn llm.StreamFunc) (string, error) {
	defer func() { a.state = StateIdle }()

	if a.sys.DebugChunks && ctx.Value(llm.DebugDirContextKey) == nil {
		ctx = context.WithValue(ctx, llm.DebugDirContextKey, utils.GenerateID())
	}

	toolsActive := a.cfg.EnableTools && a.registry.Len() > 0
	preamble := ""
	if toolsActive {
		preamble = tools.Preamble(a.registry)
	}

	if a.cfg.EnableHistory {
		a.history.Add(llm.NewUserMessage(userMessage))
	}
	var oneShot []llm.Message
	if !a.cfg.EnableHistory {
		if a.cfg.SystemPrompt != "" {
			oneShot = append(oneShot, llm.NewSystemMessage(a.cfg.SystemPrompt))
		}
		oneShot = append(oneShot, llm.NewUserMessage(userMessage))
	}

	reentries := 0
	var response string
	for {
		a.maybeSummarize(ctx)

		var prompt string
		if a.cfg.EnableHistory {
			prompt = a.history.RenderWithPreamble(preamble)
		} else {
			prompt = llm.RenderMessages(oneShot, preamble)
		}

		a.state = StateAwaitingGeneration

		if fn != nil && !toolsActive {
			// No tool dispatch possible: stream tokens straight through.
			var sb strings.Builder
			err := a.generateStream(ctx, prompt, func(token string) {
				sb.WriteString(token)
				fn(token)
			})
			if err != nil {
				llm.Record(err)
				return "", err
			}
			a.state = StateResponding
			response = sb.String()
			break
		}

		text, err := a.generate(ctx, prompt)
		if err != nil {
			llm.Record(err)
			return "", err
		}
		a.state = StateResponding

		if toolsActive {
			calls := tools.ParseCalls(text)
			if len(calls) > 0 {
				if reentries >= a.cfg.MaxToolDepth {
					slog.WarnContext(ctx, "Tool recursion bound reached, returning raw response",
						"bound", a.cfg.MaxToolDepth)
					response = text
					break
				}
				a.state = StateDispatchingTools
				results := tools.ExecuteCalls(ctx, a.registry, calls)
				if a.cfg.EnableHistory {
					a.history.Add(llm.NewAssistantMessage(text))
					a.history.Add(llm.NewUserMessage(results))
				} else {
					oneShot = append(oneShot,
						llm.NewAssistantMessage(text),
						llm.NewUserMessage(results))
				}
				reentries++
				continue
			}
		}

		response = text
		break
	}

	if a.cfg.EnableHistory {
		a.history.Add(llm.NewAssistantMessage(response))
	}
	if fn != nil && toolsActive {
		// Degenerate stream: one callback with the full result.
		fn(response)
	}
	llm.ClearLastError()
	return response, nil
}

// generate runs one blocking backend call under the engine's timeout and
// transient-retry policy.
func (a *Agent) generate(ctx context.Context, prompt string) (string, error) {
	b := a.model.Backend()

	runCtx := ctx
	if a.sys.LLMTimeoutMs > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(a.sys.LLMTimeoutMs)*time.Millisecond)
		defer cancel()
	}

	retries := a.sys.MaxRetries
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if attempt > 1 {
			slog.WarnContext(runCtx, "Transient backend error, retrying",
				"attempt", attempt, "max", retries, "error", lastErr)
			select {
			case <-runCtx.Done():
				return "", runCtx.Err()
			case <-time.After(time.Duration(a.sys.RetryDelayMs) * time.Millisecond):
			}
		}
		text, err := b.Generate(runCtx, prompt, a.cfg.Temperature, a.cfg.MaxTokens)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !b.IsTransientError(err) {
			break
		}
	}
	return "", lastErr
}

// generateStream runs one streaming backend call. No retries: tokens may
// already have reached the caller.
func (a *Agent) generateStream(ctx context.Context, prompt string, fn llm.StreamFunc) error {
	runCtx := ctx
	if a.sys.LLMTimeoutMs > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(a.sys.LLMTimeoutMs)*time.Millisecond)
		defer cancel()
	}
	return a.model.Backend().GenerateStream(runCtx, prompt, a.cfg.Temperature, a.cfg.MaxTokens, fn)
}

// maybeSummarize compacts the history before a generation when the
// summarizer is on and the context reads as full.
func (a *Agent) maybeSummarize(ctx context.Context) {
	if a.summarizer == nil || !a.cfg.EnableHistory {
		return
	}
	if !a.summarizer.Enabled() || !a.summarizer.ShouldSummarize() {
		return
	}
	slog.InfoContext(ctx, "Context filling, summarizing history",
		"estimated_tokens", a.history.EstimateTokens())
	if err := a.summarizer.Compact(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to summarize history", "error", err)
	}
}
