package chatcore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestGenerateFromSchemaObjectHasAllProperties(t *testing.T) {
	schema := []byte(`{
		"type": "object",
		"properties": {
			"city": {"type": "string"},
			"days": {"type": "integer"},
			"precise": {"type": "boolean"}
		}
	}`)
	out := GenerateFromSchema(schema)
	require.True(t, gjson.ValidBytes(out))
	require.True(t, gjson.GetBytes(out, "city").Exists())
	require.True(t, gjson.GetBytes(out, "days").Exists())
	require.Equal(t, gjson.False, gjson.GetBytes(out, "precise").Type)
}

func TestGenerateFromSchemaArrayRespectsMinItems(t *testing.T) {
	schema := []byte(`{"type":"array","items":{"type":"string"},"minItems":3}`)
	out := GenerateFromSchema(schema)
	var arr []string
	require.NoError(t, json.Unmarshal(out, &arr))
	require.Len(t, arr, 3)
}

func TestGenerateFromSchemaEnumPicksFirst(t *testing.T) {
	schema := []byte(`{"type":"string","enum":["red","green","blue"]}`)
	out := GenerateFromSchema(schema)
	var s string
	require.NoError(t, json.Unmarshal(out, &s))
	require.Equal(t, "red", s)
}

func TestGenerateFromSchemaEmptyFallsBackToObject(t *testing.T) {
	out := GenerateFromSchema(nil)
	require.Equal(t, `{}`, string(out))
}

func TestGenerateFromSchemaNestedObject(t *testing.T) {
	schema := []byte(`{
		"type": "object",
		"properties": {
			"location": {
				"type": "object",
				"properties": {"lat": {"type": "number"}, "lon": {"type": "number"}}
			}
		}
	}`)
	out := GenerateFromSchema(schema)
	require.True(t, gjson.GetBytes(out, "location.lat").Exists())
}
