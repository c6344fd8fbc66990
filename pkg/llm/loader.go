package llm

import (
	"log/slog"

	jsoniter "github.com/json-iterator/go"

	"agentcore/pkg/config"
)

// BackendGroupConfig describes one entry of the "llm" config array: a backend
// type plus the models to instantiate on it.
type BackendGroupConfig struct {
	Type        string   `json:"type"`
	Models      []string `json:"models"`
	APIKeys     []string `json:"api_keys,omitempty"`
	BaseURL     string   `json:"base_url,omitempty"`
	GPULayers   int      `json:"gpu_layers,omitempty"`
	ContextSize int      `json:"context_size,omitempty"`
	Threads     int      `json:"threads,omitempty"`
}

// NewFromConfig builds a Model from raw "llm" configuration. A single
// resolved backend is used directly; several are wrapped in a
// FallbackBackend that tries them in order.
func NewFromConfig(raw jsoniter.RawMessage, sys *config.SystemConfig) (*Model, error) {
	if sys == nil {
		sys = config.DefaultSystemConfig()
	}
	if len(raw) == 0 {
		err := Errorf(KindInvalidParam, "missing 'llm' configuration")
		Record(err)
		return nil, err
	}

	var groups []BackendGroupConfig
	if err := json.Unmarshal(raw, &groups); err != nil {
		werr := WrapError(KindJSONParse, err, "parse 'llm' configuration")
		Record(werr)
		return nil, werr
	}

	var backends []Backend
	var firstCfg ModelConfig
	for _, group := range groups {
		factory, ok := GetBackendFactory(group.Type)
		if !ok {
			slog.Warn("Unknown backend type, skipping", "type", group.Type)
			continue
		}

		apiKey := ""
		if len(group.APIKeys) > 0 {
			apiKey = group.APIKeys[0]
		}

		for _, model := range group.Models {
			cfg := ModelConfig{
				Model:       model,
				BaseURL:     group.BaseURL,
				APIKey:      apiKey,
				GPULayers:   group.GPULayers,
				ContextSize: group.ContextSize,
				Threads:     group.Threads,
			}
			b, err := factory.Create(cfg, sys)
			if err != nil {
				slog.Warn("Failed to create backend", "type", group.Type, "model", model, "error", err)
				continue
			}
			if len(backends) == 0 {
				firstCfg = cfg
			}
			backends = append(backends, b)
		}
	}

	if len(backends) == 0 {
		err := Errorf(KindBackendInit, "no backends could be initialized")
		Record(err)
		return nil, err
	}

	slog.Info("Backends initialized", "count", len(backends))

	if len(backends) == 1 {
		return NewModel(backends[0], firstCfg)
	}
	return NewModel(NewFallbackBackend(backends, sys), firstCfg)
}
