package metadata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(date string) func() time.Time {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func TestDefaults_Eval(t *testing.T) {
	d, err := NewDefaults(fixedClock("2024-03-31"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		expr  string
		users map[string]string
		want  string
	}{
		{name: "today", expr: "today()", want: "2024-03-31"},
		{name: "month back clamps to leap day", expr: "add_months(today(), -1)", want: "2024-02-29"},
		{name: "add days", expr: "add_days(today(), 1)", want: "2024-04-01"},
		{name: "user company", expr: `user_defaults.?company.orValue("")`, users: map[string]string{"company": "Acme"}, want: "Acme"},
		{name: "user company absent", expr: `user_defaults.?company.orValue("")`, want: ""},
		{name: "literal", expr: `"UnPaid"`, want: "UnPaid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Eval(tt.expr, tt.users)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaults_CompileErrors(t *testing.T) {
	d, err := NewDefaults(nil)
	require.NoError(t, err)

	_, err = d.Compile("add_months(today())")
	assert.Error(t, err)

	_, err = d.Compile("unknown_fn()")
	assert.Error(t, err)
}

func TestDefaults_BadDate(t *testing.T) {
	d, err := NewDefaults(nil)
	require.NoError(t, err)

	_, err = d.Eval(`add_days("31/03/2024", 1)`, nil)
	assert.Error(t, err)
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		from string
		n    int
		want string
	}{
		{"2024-01-31", 1, "2024-02-29"},
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-03-15", -1, "2024-02-15"},
		{"2024-01-10", -1, "2023-12-10"},
		{"2024-05-31", -13, "2023-04-30"},
	}
	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			from, err := time.Parse(DateLayout, tt.from)
			require.NoError(t, err)
			assert.Equal(t, tt.want, AddMonths(from, tt.n).Format(DateLayout))
		})
	}
}
