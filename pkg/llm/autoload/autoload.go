// Package autoload registers every built-in backend with the llm registry.
// Programs blank-import it once:
//
//	import _ "agentcore/pkg/llm/autoload"
package autoload

import (
	_ "agentcore/pkg/llm/gemini"
	_ "agentcore/pkg/llm/local"
	_ "agentcore/pkg/llm/remote"
)
