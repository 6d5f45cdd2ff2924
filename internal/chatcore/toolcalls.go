package chatcore

import (
	"encoding/json"
	"hash/fnv"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/fakeai-dev/fakeai/internal/fakeai"
)

// toolUseProbability is the deterministic-seed threshold at which a request
// carrying tools, with no forcing tool_choice, fabricates a tool call
// instead of plain content.
const toolUseProbability = 0.5

// decideToolCall picks, for requestID, whether this request's response
// should be a tool call, and if so which tool and with what arguments. A
// nil return means the response should be ordinary content.
func decideToolCall(requestID string, tools []fakeai.Tool, toolChoice json.RawMessage) *fakeai.ToolCall {
	if len(tools) == 0 {
		return nil
	}

	choice := string(toolChoice)
	switch {
	case choice == `"none"`:
		return nil
	case choice == `"auto"` || choice == "":
		if seedFraction(requestID) >= toolUseProbability {
			return nil
		}
		return buildToolCall(tools[0])
	case choice == `"required"`:
		return buildToolCall(tools[0])
	default:
		// {"type":"function","function":{"name":"..."}} forces a specific tool.
		name := gjson.GetBytes(toolChoice, "function.name").String()
		for _, t := range tools {
			if t.Function.Name == name {
				return buildToolCall(t)
			}
		}
		return buildToolCall(tools[0])
	}
}

func buildToolCall(t fakeai.Tool) *fakeai.ToolCall {
	return &fakeai.ToolCall{
		ID:   "call_" + uuid.NewString(),
		Type: "function",
		Function: fakeai.ToolCallFunction{
			Name:      t.Function.Name,
			Arguments: string(GenerateFromSchema(t.Function.Parameters)),
		},
	}
}

// seedFraction derives a stable value in [0,1) from requestID, used to make
// the tool-use decision reproducible for a given request id.
func seedFraction(requestID string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(requestID))
	return float64(h.Sum64()%1000) / 1000.0
}
