package streaming

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fakeai-dev/fakeai/internal/fakeai"
)

func TestBuildRoleChunkHasAssistantRole(t *testing.T) {
	b := buildRoleChunk("chatcmpl-1", "gpt-4o", 1000)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(b, &parsed))
	choices := parsed["choices"].([]any)
	delta := choices[0].(map[string]any)["delta"].(map[string]any)
	require.Equal(t, "assistant", delta["role"])
}

func TestBuildDeltaChunkShape(t *testing.T) {
	b := buildDeltaChunk("chatcmpl-1", "gpt-4o", 1000, map[string]any{"content": "hi"}, "")
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(b, &parsed))
	require.Equal(t, "chat.completion.chunk", parsed["object"])
	choices := parsed["choices"].([]any)
	require.Len(t, choices, 1)
	choice := choices[0].(map[string]any)
	require.Nil(t, choice["finish_reason"])
}

func TestBuildDeltaChunkWithFinishReason(t *testing.T) {
	b := buildDeltaChunk("chatcmpl-1", "gpt-4o", 1000, map[string]any{}, "stop")
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(b, &parsed))
	choices := parsed["choices"].([]any)
	choice := choices[0].(map[string]any)
	require.Equal(t, "stop", choice["finish_reason"])
}

func TestBuildToolCallDeltaChunk(t *testing.T) {
	b := buildToolCallDeltaChunk("chatcmpl-1", "gpt-4o", 1000, 0, "get_weather", `{"city":`)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(b, &parsed))
	choices := parsed["choices"].([]any)
	delta := choices[0].(map[string]any)["delta"].(map[string]any)
	toolCalls := delta["tool_calls"].([]any)
	require.Len(t, toolCalls, 1)
	fn := toolCalls[0].(map[string]any)["function"].(map[string]any)
	require.Equal(t, "get_weather", fn["name"])
	require.Equal(t, `{"city":`, fn["arguments"])
}

func TestBuildUsageChunkCarriesTotals(t *testing.T) {
	b := buildUsageChunk("chatcmpl-1", "gpt-4o", 1000, fakeai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(b, &parsed))
	usage := parsed["usage"].(map[string]any)
	require.Equal(t, float64(15), usage["total_tokens"])
}
