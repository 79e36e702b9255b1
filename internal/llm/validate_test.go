package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSchema() *Schema {
	return &Schema{
		Name: "test-object",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":  map[string]any{"type": "string"},
				"age":   map[string]any{"type": "integer", "minimum": 0},
				"grade": map[string]any{"type": "string", "enum": []any{"A", "B", "C"}},
			},
			"required": []any{"name", "age"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"name":"Alice","age":10,"grade":"A"}`, false},
		{"optional omitted", `{"name":"Bob","age":8}`, false},
		{"missing required", `{"name":"Charlie"}`, true},
		{"wrong type", `{"name":"Dave","age":"ten"}`, true},
		{"enum violation", `{"name":"Eve","age":9,"grade":"Z"}`, true},
		{"not json", `{"name":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResponse(testSchema(), json.RawMessage(tt.raw))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var inv *ErrInvalidResponse
			assert.ErrorAs(t, err, &inv)
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	assert.NoError(t, ValidateResponse(nil, json.RawMessage(`not json at all`)))
}
