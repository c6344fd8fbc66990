// Package remote implements the llm.Backend contract against any
// OpenAI-compatible chat-completion endpoint using the official SDK.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"agentcore/pkg/config"
	"agentcore/pkg/llm"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Timeouts per request mode. Streaming gets a longer window because tokens
// trickle for the whole generation.
const (
	connectTimeout   = 30 * time.Second
	requestTimeout   = 120 * time.Second
	streamingTimeout = 300 * time.Second
)

// Backend issues chat-completion requests for one model.
type Backend struct {
	client openai.Client
	cfg    llm.ModelConfig
	debug  bool
}

// New validates the configuration and builds the client. No network traffic
// happens until the first generate call; the endpoint may ignore temperature
// and max-tokens, which is allowed by the contract.
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
		err := llm.Errorf(llm.KindInvalidParam, "API key is required for remote models")
		llm.Record(err)
		return nil, err
	}
	if cfg.ContextSize <= 0 {
		cfg.ContextSize = llm.DefaultContextSize
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   connectTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:   true,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	llm.ClearLastError()
	return &Backend{
		client: client,
		cfg:    cfg,
		debug:  sys.DebugChunks,
	}, nil
}

func (b *Backend) params(prompt string, temperature float32, maxTokens int) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(float64(temperature)),
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}
	return params
}

func (b *Backend) Generate(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	dbg := llm.NewStreamDebugger(ctx, "openai", b.debug)
	defer dbg.Close()
	dbg.WriteString("PROMPT:\n" + prompt)

	completion, err := b.client.Chat.Completions.New(ctx, b.params(prompt, temperature, maxTokens),
		option.WithRequestTimeout(requestTimeout))
	if err != nil {
		return "", mapAPIError(err)
	}
	if len(completion.Choices) == 0 {
		return "", llm.Errorf(llm.KindInference, "no content in API response")
	}

	content := completion.Choices[0].Message.Content
	dbg.WriteString("RESPONSE:\n" + content)
	return content, nil
}

func (b *Backend) GenerateStream(ctx context.Context, prompt string, temperature float32, maxTokens int, fn llm.StreamFunc) error {
	dbg := llm.NewStreamDebugger(ctx, "openai", b.debug)
	defer dbg.Close()
	dbg.WriteString("PROMPT:\n" + prompt)

	stream := b.client.Chat.Completions.NewStreaming(ctx, b.params(prompt, temperature, maxTokens),
		option.WithRequestTimeout(streamingTimeout))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			dbg.WriteString(delta)
			fn(delta)
		}
	}
	if err := stream.Err(); err != nil {
		return mapAPIError(err)
	}
	return nil
}

// Warmup is a no-op for remote endpoints; there is no cache to prime.
func (b *Backend) Warmup(ctx context.Context) error {
	return nil
}

func (b *Backend) Info() llm.Info {
	return llm.Info{
		Backend:     "openai",
		Device:      "remote",
		Model:       b.cfg.Model,
		ContextSize: b.cfg.ContextSize,
	}
}

func (b *Backend) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable:
			return true
		}
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "overloaded")
}

func (b *Backend) Close() error {
	return nil
}

// mapAPIError turns SDK errors into typed HTTP failures, keeping the
// upstream error message when the body carried one.
func mapAPIError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		msg := apierr.Message
		if msg == "" {
			msg = apierr.Error()
		}
		return &llm.Error{
			Kind:    llm.KindHTTP,
			Message: fmt.Sprintf("API request failed with status %d: %s", apierr.StatusCode, msg),
			Err:     err,
		}
	}
	return llm.WrapError(llm.KindHTTP, err, "API request failed")
}
