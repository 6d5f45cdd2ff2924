// schema.go implements structured-output and tool-call-argument fabrication:
// a small JSON-schema walker that generates a document conforming to a
// caller-supplied schema. gjson walks the *schema* document while a small
// encoding/json tree is built as the *generated* document.
package chatcore

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// GenerateFromSchema fabricates a JSON document conforming to the given
// JSON-Schema document's declared shape. Unsupported/absent schemas
// fall back to an empty object.
func GenerateFromSchema(schema json.RawMessage) json.RawMessage {
	if len(schema) == 0 || !gjson.ValidBytes(schema) {
		return json.RawMessage(`{}`)
	}
	root := gjson.ParseBytes(schema)
	v := generateValue(root)
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}

func generateValue(node gjson.Result) any {
	schemaType := node.Get("type").String()
	switch schemaType {
	case "object":
		return generateObject(node)
	case "array":
		return generateArray(node)
	case "string":
		return generateString(node)
	case "integer":
		return generateNumber(node, true)
	case "number":
		return generateNumber(node, false)
	case "boolean":
		return false
	default:
		if node.Get("properties").Exists() {
			return generateObject(node)
		}
		if node.Get("enum").Exists() {
			first := node.Get("enum.0")
			return first.Value()
		}
		return nil
	}
}

func generateObject(node gjson.Result) map[string]any {
	out := map[string]any{}
	props := node.Get("properties")
	if !props.Exists() {
		return out
	}
	props.ForEach(func(key, val gjson.Result) bool {
		out[key.String()] = generateValue(val)
		return true
	})
	return out
}

func generateArray(node gjson.Result) []any {
	items := node.Get("items")
	if !items.Exists() {
		return []any{}
	}
	minItems := int(node.Get("minItems").Int())
	n := minItems
	if n < 1 {
		n = 1
	}
	out := make([]any, n)
	for i := range out {
		out[i] = generateValue(items)
	}
	return out
}

func generateString(node gjson.Result) string {
	if enum := node.Get("enum"); enum.Exists() {
		return enum.Get("0").String()
	}
	if format := node.Get("format").String(); format != "" {
		switch format {
		case "date-time":
			return "2024-01-01T00:00:00Z"
		case "date":
			return "2024-01-01"
		case "email":
			return "user@example.com"
		case "uuid":
			return "00000000-0000-0000-0000-000000000000"
		}
	}
	return "example"
}

func generateNumber(node gjson.Result, integer bool) any {
	if minimum := node.Get("minimum"); minimum.Exists() {
		if integer {
			return int64(minimum.Int())
		}
		return minimum.Float()
	}
	if integer {
		return int64(1)
	}
	return 1.0
}
