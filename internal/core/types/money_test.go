package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyFromAny(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   string
		wantOK bool
	}{
		{name: "nil", in: nil, want: "0", wantOK: false},
		{name: "float", in: 100.5, want: "100.5", wantOK: true},
		{name: "int", in: 7, want: "7", wantOK: true},
		{name: "json number", in: json.Number("12.30"), want: "12.3", wantOK: true},
		{name: "string", in: " 99.99 ", want: "99.99", wantOK: true},
		{name: "empty string", in: "", want: "0", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := MoneyFromAny(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, MustMoney(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestMoneyFromAny_Invalid(t *testing.T) {
	_, _, err := MoneyFromAny("abc")
	assert.Error(t, err)

	_, _, err = MoneyFromAny([]int{1})
	assert.Error(t, err)
}
