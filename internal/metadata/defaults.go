package metadata

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// DateLayout is the wire format of Date fields.
const DateLayout = "2006-01-02"

// Defaults compiles and evaluates filter default expressions.
//
// Expressions are CEL with the desk date helpers:
//
//	today()                       current date
//	add_months(date, n)           date shifted by n months, clamped to month end
//	add_days(date, n)             date shifted by n days
//	user_defaults                 map of the session user's defaults
//
// Programs are cached by source text.
type Defaults struct {
	env *cel.Env
	now func() time.Time

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewDefaults creates the engine. now is the clock behind today(); nil means time.Now.
func NewDefaults(now func() time.Time) (*Defaults, error) {
	if now == nil {
		now = time.Now
	}
	d := &Defaults{
		now:      now,
		programs: make(map[string]cel.Program),
	}

	env, err := cel.NewEnv(
		cel.OptionalTypes(),
		cel.Variable("user_defaults", cel.MapType(cel.StringType, cel.StringType)),
		cel.Function("today",
			cel.Overload("today_void", []*cel.Type{}, cel.StringType,
				cel.FunctionBinding(func(...ref.Val) ref.Val {
					return types.String(d.now().Format(DateLayout))
				}),
			),
		),
		cel.Function("add_months",
			cel.Overload("add_months_string_int", []*cel.Type{cel.StringType, cel.IntType}, cel.StringType,
				cel.BinaryBinding(func(date, n ref.Val) ref.Val {
					return shiftDate(date, n, AddMonths)
				}),
			),
		),
		cel.Function("add_days",
			cel.Overload("add_days_string_int", []*cel.Type{cel.StringType, cel.IntType}, cel.StringType,
				cel.BinaryBinding(func(date, n ref.Val) ref.Val {
					return shiftDate(date, n, func(t time.Time, k int) time.Time { return t.AddDate(0, 0, k) })
				}),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build default expression env: %w", err)
	}
	d.env = env
	return d, nil
}

// Compile parses and checks expr, caching the program.
func (d *Defaults) Compile(expr string) (cel.Program, error) {
	d.mu.RLock()
	prg, ok := d.programs[expr]
	d.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, iss := d.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, iss.Err())
	}
	prg, err := d.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}

	d.mu.Lock()
	d.programs[expr] = prg
	d.mu.Unlock()
	return prg, nil
}

// Eval evaluates expr for a user's defaults and returns the value as text.
func (d *Defaults) Eval(expr string, userDefaults map[string]string) (string, error) {
	prg, err := d.Compile(expr)
	if err != nil {
		return "", err
	}
	if userDefaults == nil {
		userDefaults = map[string]string{}
	}
	out, _, err := prg.Eval(map[string]any{"user_defaults": userDefaults})
	if err != nil {
		return "", fmt.Errorf("eval %q: %w", expr, err)
	}
	if s, ok := out.Value().(string); ok {
		return s, nil
	}
	return fmt.Sprint(out.Value()), nil
}

// AddMonths shifts t by n months. The day is clamped to the last day of the
// target month, so Jan 31 + 1 month is Feb 28/29.
func AddMonths(t time.Time, n int) time.Time {
	y, m, day := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

func shiftDate(date, n ref.Val, shift func(time.Time, int) time.Time) ref.Val {
	s, ok := date.(types.String)
	if !ok {
		return types.MaybeNoSuchOverloadErr(date)
	}
	k, ok := n.(types.Int)
	if !ok {
		return types.MaybeNoSuchOverloadErr(n)
	}
	t, err := time.Parse(DateLayout, string(s))
	if err != nil {
		return types.NewErr("invalid date %q", string(s))
	}
	return types.String(shift(t, int(k)).Format(DateLayout))
}
