package remote_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentcore/pkg/llm/remote"
)

func TestDecodeStreamDeltas(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"content\":\"hel\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n" +
		"data: [DONE]\n\n"

	var tokens []string
	err := remote.DecodeStream(strings.NewReader(body), func(token string) {
		tokens = append(tokens, token)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hel", "lo"}, tokens)
}

func TestDecodeStreamSkipsGarbledChunks(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n" +
		"data: {this is not json\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n\n" +
		"data: [DONE]\n\n"

	var tokens []string
	err := remote.DecodeStream(strings.NewReader(body), func(token string) {
		tokens = append(tokens, token)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tokens, "a garbled line must not end the stream")
}

func TestDecodeStreamIgnoresEmptyDeltas(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{}}]}\n\n" +
		"data: {\"choices\":[]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n" +
		"data: [DONE]\n\n"

	var tokens []string
	err := remote.DecodeStream(strings.NewReader(body), func(token string) {
		tokens = append(tokens, token)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, tokens)
}

func TestDecodeStreamWithoutDone(t *testing.T) {
	// A stream that just ends is treated as complete.
	body := "data: {\"choices\":[{\"delta\":{\"content\":\"end\"}}]}\n\n"

	var tokens []string
	err := remote.DecodeStream(strings.NewReader(body), func(token string) {
		tokens = append(tokens, token)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"end"}, tokens)
}
