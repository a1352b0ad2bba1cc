package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameters_String(t *testing.T) {
	p := Parameters{"topic": "alerts", "count": 3, "nothing": nil}

	assert.Equal(t, "alerts", p.String("topic"))
	assert.Equal(t, "3", p.String("count"))
	assert.Equal(t, "", p.String("nothing"))
	assert.Equal(t, "", p.String("missing"))
}

func TestParameters_Bool(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    bool
		wantErr bool
	}{
		{name: "true", value: true, want: true},
		{name: "false", value: false, want: false},
		{name: "string true", value: "true", want: true},
		{name: "empty string", value: "", want: false},
		{name: "nil", value: nil, want: false},
		{name: "bad string", value: "maybe", wantErr: true},
		{name: "number", value: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parameters{"flag": tt.value}.Bool("flag")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := Parameters{}.Bool("missing")
	require.NoError(t, err)
	assert.False(t, got)
}

func testSchema() *OperationSchema {
	return &OperationSchema{
		Parameters: []ParameterInfo{
			{Name: "toggle", Type: "boolean", Default: false},
			{Name: "mode", Type: "options", Default: "a", DisplayWhen: map[string][]interface{}{"toggle": {true}}},
			{Name: "a_value", Type: "string", Default: "x", DisplayWhen: map[string][]interface{}{"toggle": {true}, "mode": {"a"}}},
			{Name: "b_value", Type: "string", Default: "y", DisplayWhen: map[string][]interface{}{"toggle": {true}, "mode": {"b"}}},
			{Name: "no_default", Type: "string"},
		},
	}
}

func TestApplyDefaults(t *testing.T) {
	t.Run("hidden parameters get no default", func(t *testing.T) {
		p := ApplyDefaults(testSchema(), map[string]interface{}{})

		assert.Equal(t, Parameters{"toggle": false}, p)
	})

	t.Run("defaults cascade through display conditions", func(t *testing.T) {
		p := ApplyDefaults(testSchema(), map[string]interface{}{"toggle": true})

		assert.Equal(t, "a", p["mode"])
		assert.Equal(t, "x", p["a_value"])
		assert.NotContains(t, p, "b_value")
		assert.NotContains(t, p, "no_default")
	})

	t.Run("explicit values are kept", func(t *testing.T) {
		inputs := map[string]interface{}{"toggle": true, "mode": "b"}
		p := ApplyDefaults(testSchema(), inputs)

		assert.Equal(t, "b", p["mode"])
		assert.Equal(t, "y", p["b_value"])
		assert.NotContains(t, p, "a_value")
		assert.NotContains(t, inputs, "b_value", "inputs must not be mutated")
	})

	t.Run("nil schema copies inputs", func(t *testing.T) {
		p := ApplyDefaults(nil, map[string]interface{}{"k": "v"})
		assert.Equal(t, Parameters{"k": "v"}, p)
	})
}

func TestOperationSchema_Parameter(t *testing.T) {
	s := testSchema()

	require.NotNil(t, s.Parameter("mode"))
	assert.Equal(t, "options", s.Parameter("mode").Type)
	assert.Nil(t, s.Parameter("missing"))
	assert.Nil(t, (*OperationSchema)(nil).Parameter("mode"))
}
