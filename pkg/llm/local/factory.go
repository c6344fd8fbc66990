package local

import (
	"agentcore/pkg/config"
	"agentcore/pkg/llm"
)

// Factory builds local backends for the registry.
type Factory struct{}

// Create implements llm.BackendFactory.
func (Factory) Create(cfg llm.ModelConfig, sys *config.SystemConfig) (llm.Backend, error) {
	return New(cfg, sys)
}

func init() {
	llm.RegisterBackend("local", Factory{})
}
