package chatcore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fakeai-dev/fakeai/internal/fakeai"
)

var weatherTool = fakeai.Tool{
	Type: "function",
	Function: fakeai.ToolFunction{
		Name:       "get_weather",
		Parameters: []byte(`{"type":"object","properties":{"city":{"type":"string"}}}`),
	},
}

func TestDecideToolCallNoToolsReturnsNil(t *testing.T) {
	require.Nil(t, decideToolCall("req-1", nil, nil))
}

func TestDecideToolCallNoneForcesNil(t *testing.T) {
	require.Nil(t, decideToolCall("req-1", []fakeai.Tool{weatherTool}, []byte(`"none"`)))
}

func TestDecideToolCallRequiredAlwaysFires(t *testing.T) {
	tc := decideToolCall("req-1", []fakeai.Tool{weatherTool}, []byte(`"required"`))
	require.NotNil(t, tc)
	require.Equal(t, "get_weather", tc.Function.Name)
	require.Contains(t, tc.Function.Arguments, "city")
}

func TestDecideToolCallNamedChoiceForcesThatTool(t *testing.T) {
	other := fakeai.Tool{Type: "function", Function: fakeai.ToolFunction{Name: "other_tool"}}
	tc := decideToolCall("req-1", []fakeai.Tool{weatherTool, other}, []byte(`{"type":"function","function":{"name":"other_tool"}}`))
	require.NotNil(t, tc)
	require.Equal(t, "other_tool", tc.Function.Name)
}

func TestDecideToolCallDeterministicForSameRequestID(t *testing.T) {
	a := decideToolCall("req-fixed", []fakeai.Tool{weatherTool}, nil)
	b := decideToolCall("req-fixed", []fakeai.Tool{weatherTool}, nil)
	require.Equal(t, a == nil, b == nil)
}
