package remote

import (
	"io"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/openai/openai-go/v3/packages/ssestream"

	"agentcore/pkg/llm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// sseChunk is the slice of a streaming chat-completion payload we care about.
type sseChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// DecodeStream consumes a raw SSE body of a streaming chat-completion
// response and invokes fn with each content delta, in order. A `data:
// [DONE]` line ends the stream; payloads that fail to parse are skipped so
// one garbled chunk cannot kill the stream.
func DecodeStream(r io.Reader, fn llm.StreamFunc) error {
	decoder := ssestream.NewDecoder(&http.Response{Body: io.NopCloser(r)})

	for decoder.Next() {
		event := decoder.Event()
		data := strings.TrimSpace(string(event.Data))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return nil
		}

		var chunk sseChunk
		if err := json.Unmarshal(event.Data, &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			fn(delta)
		}
	}

	if err := decoder.Err(); err != nil {
		return llm.WrapError(llm.KindHTTP, err, "read SSE stream")
	}
	return nil
}
