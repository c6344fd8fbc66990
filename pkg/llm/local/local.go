// Package local implements the llm.Backend contract on top of a local
// Ollama runtime via github.com/ollama/ollama/api. Inference itself
// (quantized model loading, KV cache, accelerator offload) lives in the
// runtime; this backend maps ModelConfig onto runtime options and keeps the
// generate contract uniform with the remote backends.
package local

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"agentcore/pkg/config"
	"agentcore/pkg/llm"
)

// Backend drives one Ollama-served model.
type Backend struct {
	client *api.Client
	cfg    llm.ModelConfig
	debug  bool
}

// New verifies the model exists on the runtime and returns a ready backend.
// A model the runtime does not know yields KindModelNotFound; any other
// handshake failure yields KindBackendInit.
func New(cfg llm.ModelConfig, sys *config.SystemConfig) (*Backend, error) {
	if sys == nil {
		sys = config.DefaultSystemConfig()
	}
	if cfg.Model == "" {
		err := llm.Errorf(llm.KindInvalidParam, "model name is required")
		llm.Record(err)
		return nil, err
	}
	if cfg.ContextSize <= 0 {
		cfg.ContextSize = llm.DefaultContextSize
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = sys.OllamaDefaultURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		werr := llm.WrapError(llm.KindInvalidParam, err, "invalid base URL")
		llm.Record(werr)
		return nil, werr
	}

	// Connect timeout only; generation may legitimately run for minutes.
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	client := api.NewClient(u, &http.Client{Transport: transport})

	if _, err := client.Show(context.Background(), &api.ShowRequest{Model: cfg.Model}); err != nil {
		var werr *llm.Error
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			werr = llm.Errorf(llm.KindModelNotFound, "model %q not found: %v", cfg.Model, err)
		} else {
			werr = llm.WrapError(llm.KindBackendInit, err, "ollama handshake failed")
		}
		llm.Record(werr)
		return nil, werr
	}

	llm.ClearLastError()
	return &Backend{
		client: client,
		cfg:    cfg,
		debug:  sys.DebugChunks,
	}, nil
}

// requestOptions maps the model config plus per-call parameters onto runtime
// options. GPULayers -1 is left out entirely so the runtime auto-places all
// layers when an accelerator exists.
func (b *Backend) requestOptions(temperature float32, maxTokens int) map[string]any {
	opts := map[string]any{
		"temperature": temperature,
		"num_ctx":     b.cfg.ContextSize,
	}
	if b.cfg.GPULayers >= 0 {
		opts["num_gpu"] = b.cfg.GPULayers
	}
	if b.cfg.Threads > 0 {
		opts["num_thread"] = b.cfg.Threads
	}
	if maxTokens > 0 {
		opts["num_predict"] = maxTokens
	}
	return opts
}

func (b *Backend) Generate(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	dbg := llm.NewStreamDebugger(ctx, "ollama", b.debug)
	defer dbg.Close()
	dbg.WriteString("PROMPT:\n" + prompt)

	stream := false
	req := &api.GenerateRequest{
		Model:   b.cfg.Model,
		Prompt:  prompt,
		Raw:     true,
		Stream:  &stream,
		Options: b.requestOptions(temperature, maxTokens),
	}

	var sb strings.Builder
	err := b.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", llm.WrapError(llm.KindInference, err, "ollama generate")
	}

	dbg.WriteString("RESPONSE:\n" + sb.String())
	return sb.String(), nil
}

func (b *Backend) GenerateStream(ctx context.Context, prompt string, temperature float32, maxTokens int, fn llm.StreamFunc) error {
	dbg := llm.NewStreamDebugger(ctx, "ollama", b.debug)
	defer dbg.Close()
	dbg.WriteString("PROMPT:\n" + prompt)

	stream := true
	req := &api.GenerateRequest{
		Model:   b.cfg.Model,
		Prompt:  prompt,
		Raw:     true,
		Stream:  &stream,
		Options: b.requestOptions(temperature, maxTokens),
	}

	err := b.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		if resp.Response != "" {
			dbg.WriteString(resp.Response)
			fn(resp.Response)
		}
		return nil
	})
	if err != nil {
		return llm.WrapError(llm.KindInference, err, "ollama generate stream")
	}
	return nil
}

// Warmup runs one short decode so the runtime loads the model and fills its
// caches. Failure is advisory; callers should log it and carry on.
func (b *Backend) Warmup(ctx context.Context) error {
	stream := false
	req := &api.GenerateRequest{
		Model:  b.cfg.Model,
		Prompt: "Hello",
		Raw:    true,
		Stream: &stream,
		Options: map[string]any{
			"num_predict": 8,
			"num_ctx":     b.cfg.ContextSize,
		},
	}
	if err := b.client.Generate(ctx, req, func(api.GenerateResponse) error { return nil }); err != nil {
		return llm.WrapError(llm.KindInference, err, "warmup decode")
	}
	return nil
}

func (b *Backend) Info() llm.Info {
	info := llm.Info{
		Backend:     "ollama",
		Device:      "CPU",
		Model:       b.cfg.Model,
		GPULayers:   b.cfg.GPULayers,
		ContextSize: b.cfg.ContextSize,
	}

	// Best effort: the runtime only reports placement for loaded models.
	ps, err := b.client.ListRunning(context.Background())
	if err != nil {
		return info
	}
	for _, m := range ps.Models {
		if m.Name == b.cfg.Model || m.Model == b.cfg.Model {
			info.MemoryBytes = uint64(m.Size)
			if m.SizeVRAM > 0 {
				info.Device = "GPU"
			}
			break
		}
	}
	return info
}

func (b *Backend) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset") {
		return true
	}
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "overloaded") {
		return true
	}
	return false
}

// Close has nothing to release; the runtime owns the model.
func (b *Backend) Close() error {
	return nil
}
