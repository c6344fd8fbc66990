// Package llm holds the inference plumbing shared by every agent: the
// Backend contract with its factory registry, the Model wrapper, the
// conversation history with its prompt rendering and summarization, and the
// library's error taxonomy and diagnostics slot. Concrete backends live in
// the local, remote and gemini subpackages.
package llm

import "context"

// StreamFunc receives generated text fragments in order. A backend may call
// it once per token, once per chunk, or a single time with the full result.
type StreamFunc func(token string)

// Backend is the uniform inference contract. Exactly one Model owns a
// Backend; agents reference the Model. Implementations live in the local,
// remote and gemini subpackages and register themselves through
// RegisterBackend.
type Backend interface {
	// Generate produces a completion for the rendered prompt and blocks
	// until it is done. Temperature and maxTokens are per-call; backends
	// that cannot honor them must still accept them. maxTokens <= 0 means
	// no explicit limit.
	Generate(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error)

	// GenerateStream is Generate with incremental delivery. fn is invoked
	// zero or more times on the calling goroutine, then GenerateStream
	// returns.
	GenerateStream(ctx context.Context, prompt string, temperature float32, maxTokens int, fn StreamFunc) error

	// Info describes the running backend.
	Info() Info

	// Warmup runs one priming decode to populate caches. Optional; a
	// failure is advisory and callers should log it rather than abort.
	Warmup(ctx context.Context) error

	// IsTransientError reports whether err is worth retrying (connection
	// resets, timeouts, overload responses).
	IsTransientError(err error) bool

	// Close releases backend resources.
	Close() error
}

// Info describes a backend instance for diagnostics.
type Info struct {
	Backend     string `json:"backend"`      // implementation name, e.g. "ollama", "openai"
	Device      string `json:"device"`       // "GPU", "CPU", or "remote"
	Model       string `json:"model"`        // model identifier
	GPULayers   int    `json:"gpu_layers"`   // layers resident on the accelerator
	MemoryBytes uint64 `json:"memory_bytes"` // estimated resident memory
	ContextSize int    `json:"context_size"` // configured context window, tokens
}

// ModelConfig captures everything needed to construct a backend. It is
// immutable once a Model is built; changing parameters means a new Model.
type ModelConfig struct {
	// Model names the model: an Ollama tag for the local backend, an API
	// model id for remote ones.
	Model string `json:"model"`
	// BaseURL points at the serving endpoint. Empty selects the backend's
	// default (local Ollama instance, api.openai.com).
	BaseURL string `json:"base_url,omitempty"`
	// APIKey authenticates remote requests. Ignored by the local backend.
	APIKey string `json:"api_key,omitempty"`
	// GPULayers controls accelerator offload: -1 auto (everything if an
	// accelerator exists), 0 CPU only, N pins the count.
	GPULayers int `json:"gpu_layers,omitempty"`
	// ContextSize is the context window in tokens. 0 uses DefaultContextSize.
	ContextSize int `json:"context_size,omitempty"`
	// Threads is the CPU thread count, 0 auto-detects.
	Threads int `json:"threads,omitempty"`
}

// withDefaults normalizes zero values without mutating the original.
func (c ModelConfig) withDefaults() ModelConfig {
	if c.ContextSize <= 0 {
		c.ContextSize = DefaultContextSize
	}
	return c
}

// Model pairs one Backend with the configuration it was built from. Models
// may be shared by several agents; calls against a shared Model must be
// serialized by the caller unless the backend is known to be reentrant.
type Model struct {
	backend Backend
	cfg     ModelConfig
}

// NewModel wraps an already-constructed backend. Most callers go through
// NewFromConfig or a backend subpackage constructor instead.
func NewModel(b Backend, cfg ModelConfig) (*Model, error) {
	if b == nil {
		err := Errorf(KindInvalidParam, "nil backend")
		Record(err)
		return nil, err
	}
	ClearLastError()
	return &Model{backend: b, cfg: cfg.withDefaults()}, nil
}

// Backend exposes the underlying backend.
func (m *Model) Backend() Backend {
	return m.backend
}

// Config returns the construction-time configuration.
func (m *Model) Config() ModelConfig {
	return m.cfg
}

// Info reports backend diagnostics.
func (m *Model) Info() Info {
	return m.backend.Info()
}

// Warmup primes the backend. Failures are advisory (see Backend.Warmup).
func (m *Model) Warmup(ctx context.Context) error {
	return m.backend.Warmup(ctx)
}

// Close releases the backend. Safe to call after all agents referencing the
// model have been closed, in any order relative to their closing.
func (m *Model) Close() error {
	return m.backend.Close()
}
