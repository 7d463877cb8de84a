package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"nil", nil, 0},
		{"float", 12.5, 12.5},
		{"grouped string", "1 234,5", 1234.5},
		{"non-breaking space", "10 000", 10000},
		{"garbage", "abc", 0},
		{"empty", "", 0},
		{"bool", true, 1},
		{"object", map[string]any{"a": 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToNumber(tt.in))
		})
	}
}

func TestParseFloatPrefix(t *testing.T) {
	assert.Equal(t, 12.5, ParseFloatPrefix("12.5 тг"))
	assert.Equal(t, 1234.0, ParseFloatPrefix("1 234"))
	assert.Equal(t, -3.0, ParseFloatPrefix("-3,25"))
	assert.Equal(t, 1.2, ParseFloatPrefix("1.2.3"))
	assert.Equal(t, 1000.0, ParseFloatPrefix("1e3"))
	assert.Equal(t, 2.5, ParseFloatPrefix("25e-1x"))
	assert.Equal(t, 7.0, ParseFloatPrefix("7e"))
	assert.Equal(t, 0.5, ParseFloatPrefix(".5"))
	assert.Equal(t, 0.0, ParseFloatPrefix("тг"))
	assert.Equal(t, 0.0, ParseFloatPrefix(""))
}

func TestParseDecimal(t *testing.T) {
	assert.Equal(t, -3.25, ParseDecimal("-3,25"))
	assert.Equal(t, 1500.5, ParseDecimal("1 500,5 тг"))
	assert.Equal(t, 0.0, ParseDecimal("abc"))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "5", ToString(5.0))
	assert.Equal(t, "0.1", ToString(0.1))
	assert.Equal(t, "true", ToString(true))
	assert.Equal(t, `{"a":1}`, ToString(map[string]any{"a": 1}))
}

func TestTruthyAndEqual(t *testing.T) {
	assert.False(t, Truthy(""))
	assert.False(t, Truthy(0.0))
	assert.False(t, Truthy(nil))
	assert.True(t, Truthy("0"))
	assert.True(t, Truthy([]any{}))

	assert.True(t, Equal("w1", "w1"))
	assert.False(t, Equal("1", 1.0))
	assert.False(t, Equal(map[string]any{}, map[string]any{}))
}
