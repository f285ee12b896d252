package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleParams struct {
	Query    string  `json:"query" description:"Search query"`
	Limit    *int    `json:"limit" description:"Optional limit"`
	Optional float64 `json:"optional,omitempty"`
	hidden   string  //nolint:unused
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(sampleParams{})

	props, ok := schema["properties"].(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, props, "query")
	assert.Contains(t, props, "limit")
	assert.Contains(t, props, "optional")
	assert.NotContains(t, props, "hidden")

	query := props["query"].(map[string]any)
	assert.Equal(t, "string", query["type"])
	assert.Equal(t, "Search query", query["description"])

	// Required excludes pointers and omitempty fields.
	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"query"}, req)
}

func TestCreateSchemaNonStruct(t *testing.T) {
	schema := CreateSchema(42)
	assert.Equal(t, "object", schema["type"])
	assert.Empty(t, schema["properties"])
}

func TestValidateParametersRequired(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string"},
		},
		"required": []string{"query"},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"query": "go"}, schema))

	err := ValidateParameters(map[string]any{}, schema)
	assert.Error(t, err)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "query", vErr.Field)
}

func TestValidateParametersRequiredFromJSON(t *testing.T) {
	// Schemas decoded from JSON carry []any, not []string.
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
		},
		"required": []any{"x"},
	}

	assert.Error(t, ValidateParameters(map[string]any{}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"x": 1}, schema))
}

func TestValidateParametersTypes(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"count": map[string]any{"type": "integer"},
			"ratio": map[string]any{"type": "number"},
			"name":  map[string]any{"type": "string"},
			"flag":  map[string]any{"type": "boolean"},
			"tags":  map[string]any{"type": "array"},
			"meta":  map[string]any{"type": "object"},
		},
	}

	assert.NoError(t, ValidateParameters(map[string]any{
		"count": float64(3), // JSON decoding yields float64
		"ratio": 0.5,
		"name":  "x",
		"flag":  true,
		"tags":  []any{"a"},
		"meta":  map[string]any{},
	}, schema))

	assert.Error(t, ValidateParameters(map[string]any{"count": 2.5}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"name": 1}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"flag": "yes"}, schema))
}

func TestValidateParametersAllowsExtraFields(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
	assert.NoError(t, ValidateParameters(map[string]any{"anything": 1}, schema))
}

func TestNewID(t *testing.T) {
	a := NewID()
	b := NewID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
