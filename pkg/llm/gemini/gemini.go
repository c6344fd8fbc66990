// Package gemini implements the llm.Backend contract against the Google
// Gemini API. It is a second remote-family backend; the generate contract is
// identical to the OpenAI-compatible one.
package gemini

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"agentcore/pkg/config"
	"agentcore/pkg/llm"
)

// Backend drives one Gemini model.
type Backend struct {
	client *genai.Client
	cfg    llm.ModelConfig
	debug  bool
}

// New builds the client. The Gemini API has no model listing handshake worth
// paying for at construction; bad model names surface on the first generate.
func New(cfg llm.ModelConfig, sys *config.SystemConfig) (*Backend, error) {
	if sys == nil {
		sys = config.DefaultSystemConfig()
	}
	if cfg.Model == "" {
		err := llm.Errorf(llm.KindInvalidParam, "model name is required")
		llm.Record(err)
		return nil, err
	}
	if cfg.APIKey == "" {
		err := llm.Errorf(llm.KindInvalidParam, "API key is required for Gemini models")
		llm.Record(err)
		return nil, err
	}
	if cfg.ContextSize <= 0 {
		cfg.ContextSize = llm.DefaultContextSize
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		werr := llm.WrapError(llm.KindBackendInit, err, "create Gemini client")
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

func (b *Backend) generateConfig(temperature float32, maxTokens int) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}
	return cfg
}

func (b *Backend) Generate(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	dbg := llm.NewStreamDebugger(ctx, "gemini", b.debug)
	defer dbg.Close()
	dbg.WriteString("PROMPT:\n" + prompt)

	resp, err := b.client.Models.GenerateContent(ctx, b.cfg.Model,
		genai.Text(prompt), b.generateConfig(temperature, maxTokens))
	if err != nil {
		return "", llm.WrapError(llm.KindHTTP, err, "Gemini generate")
	}

	text := resp.Text()
	dbg.WriteString("RESPONSE:\n" + text)
	return text, nil
}

func (b *Backend) GenerateStream(ctx context.Context, prompt string, temperature float32, maxTokens int, fn llm.StreamFunc) error {
	dbg := llm.NewStreamDebugger(ctx, "gemini", b.debug)
	defer dbg.Close()
	dbg.WriteString("PROMPT:\n" + prompt)

	for resp, err := range b.client.Models.GenerateContentStream(ctx, b.cfg.Model,
		genai.Text(prompt), b.generateConfig(temperature, maxTokens)) {
		if err != nil {
			return llm.WrapError(llm.KindHTTP, err, "Gemini stream")
		}
		if text := resp.Text(); text != "" {
			dbg.WriteString(text)
			fn(text)
		}
	}
	return nil
}

// Warmup is a no-op for remote endpoints.
func (b *Backend) Warmup(ctx context.Context) error {
	return nil
}

func (b *Backend) Info() llm.Info {
	return llm.Info{
		Backend:     "gemini",
		Device:      "remote",
		Model:       b.cfg.Model,
		ContextSize: b.cfg.ContextSize,
	}
}

func (b *Backend) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "503") || strings.Contains(msg, "overloaded") {
		return true
	}
	if strings.Contains(msg, "429") || strings.Contains(msg, "resource exhausted") {
		return true
	}
	if strings.Contains(msg, "500") || strings.Contains(msg, "internal error") {
		return true
	}
	return false
}

func (b *Backend) Close() error {
	return nil
}
