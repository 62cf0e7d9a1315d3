package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  int64
		ok    bool
	}{
		{input: "30.000", want: 30000, ok: true},
		{input: "30,000", want: 30000, ok: true},
		{input: "Rp 1.250.000", want: 1250000, ok: true},
		{input: "  500 ", want: 500, ok: true},
		{input: "", want: 0, ok: false},
		{input: "abc", want: 0, ok: false},
		{input: "NaN", want: 0, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseAmount(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, decimal.NewFromInt(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestFormat_GroupsThousands(t *testing.T) {
	assert.Contains(t, Format(decimal.NewFromInt(30000)), "30.000")
	assert.Contains(t, Format(decimal.NewFromInt(1250000)), "1.250.000")
}

func TestFormat_DropsDecimals(t *testing.T) {
	got := Format(decimal.RequireFromString("999.6"))
	assert.Contains(t, got, "1.000")
	assert.NotContains(t, got, ",")
}

func TestFormat_Negative(t *testing.T) {
	assert.Equal(t, "-"+Format(decimal.NewFromInt(5000)), Format(decimal.NewFromInt(-5000)))
}
