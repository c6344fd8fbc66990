package config

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// Config is the application-level configuration, usually config.json. It
// holds what a program embedding the library decides: which backends to run
// and the agent persona.
type Config struct {
	// LLM holds the backend group array in raw JSON, consumed by
	// llm.NewFromConfig.
	LLM jsoniter.RawMessage `json:"llm"`
	// SystemPrompt is the persona string installed as the leading system
	// message of every conversation.
	SystemPrompt string `json:"system_prompt"`
	// Storage is the directory for persisted state: session histories and
	// builtin tool files. Empty keeps everything in memory.
	Storage string `json:"storage,omitempty"`
}

// Validate guards the mandatory fields before initialization proceeds.
func (c *Config) Validate() error {
	if len(c.LLM) == 0 {
		return fmt.Errorf("mandatory 'llm' configuration is missing or empty")
	}
	return nil
}

// SystemConfig carries engine-level technical parameters, usually
// system.json. These control reliability and diagnostics rather than
// behavior visible in conversations.
type SystemConfig struct {
	// MaxRetries is the total number of attempts per generation request,
	// the first one included; only transient backend errors are retried.
	// Values below 1 mean a single attempt.
	MaxRetries int `json:"max_retries"`
	// RetryDelayMs is the base wait between consecutive retries.
	RetryDelayMs int `json:"retry_delay_ms"`
	// LLMTimeoutMs is the hard cutoff for one generation request. 0 leaves
	// the backend's own timeouts in charge.
	LLMTimeoutMs int `json:"llm_timeout_ms"`
	// OllamaDefaultURL is the fallback endpoint for the local backend when
	// a model config gives none.
	OllamaDefaultURL string `json:"ollama_default_url"`
	// DebugChunks dumps every raw prompt and generation under debug/ for
	// troubleshooting.
	DebugChunks bool `json:"debug_chunks"`
	// LogLevel sets the minimum log severity: "debug", "info", "warn",
	// "error".
	LogLevel string `json:"log_level"`
}

// DefaultSystemConfig returns safe hardcoded defaults, used whenever
// system.json is missing or corrupt so the engine can always start.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		MaxRetries:       3,
		RetryDelayMs:     500,
		LLMTimeoutMs:     600000,
		OllamaDefaultURL: "http://localhost:11434",
		LogLevel:         "info",
	}
}

// Load reads and parses the application config at path.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file '%s' not found", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadSystemConfig loads engine settings, falling back to defaults when the
// file is absent or unparseable.
func LoadSystemConfig(path string) *SystemConfig {
	cfg := DefaultSystemConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, cfg); err != nil {
		return DefaultSystemConfig()
	}
	return cfg
}
