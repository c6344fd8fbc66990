package llm

import (
	"agentcore/pkg/config"
)

// BackendFactory builds a backend from a model configuration. Engine-level
// settings (default endpoints, debug switches) come from the system config.
type BackendFactory interface {
	Create(cfg ModelConfig, sys *config.SystemConfig) (Backend, error)
}

// Global backend registry. Backend subpackages register themselves in their
// init functions; importing agentcore/pkg/llm/autoload pulls in the full set.
var backendRegistry = make(map[string]BackendFactory)

// RegisterBackend registers a factory under a type name ("local", "remote",
// "gemini"). Re-registration overwrites.
func RegisterBackend(name string, factory BackendFactory) {
	backendRegistry[name] = factory
}

// GetBackendFactory looks up a registered factory.
func GetBackendFactory(name string) (BackendFactory, bool) {
	f, ok := backendRegistry[name]
	return f, ok
}
