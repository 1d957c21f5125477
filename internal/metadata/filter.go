package metadata

// FilterDef describes one report input control.
// Fieldname must match the parameter name the server-side report query reads.
type FilterDef struct {
	Fieldname string    `json:"fieldname" validate:"required"`
	Label     string    `json:"label" validate:"required"`
	Fieldtype FieldType `json:"fieldtype" validate:"required,oneof=Link Date Data Select"`

	// Options is the link target doctype for Link filters.
	Options string `json:"options,omitempty" validate:"required_if=Fieldtype Link"`

	// Choices are the selectable values of a Select filter.
	Choices []string `json:"choices,omitempty"`

	// Default is a literal default value.
	Default string `json:"default,omitempty"`

	// DefaultExpr computes the default when a form is built, e.g.
	// `add_months(today(), -1)` or `user_defaults.?company.orValue("")`.
	DefaultExpr string `json:"default_expr,omitempty"`

	Reqd     bool   `json:"reqd,omitempty"`
	ReadOnly bool   `json:"read_only,omitempty"`
	Width    string `json:"width,omitempty"`

	// OnChange names a change callback bound by the report runtime.
	OnChange string `json:"on_change,omitempty"`
}

// HasDefault reports whether the filter is seeded with a value.
func (f FilterDef) HasDefault() bool {
	return f.Default != "" || f.DefaultExpr != ""
}

func (f FilterDef) clone() FilterDef {
	if f.Choices != nil {
		choices := make([]string, len(f.Choices))
		copy(choices, f.Choices)
		f.Choices = choices
	}
	return f
}

// ReportDef is a report registration: a name and its ordered filters.
type ReportDef struct {
	Name       string      `json:"name" validate:"required"`
	RefDoctype string      `json:"ref_doctype,omitempty"`
	Filters    []FilterDef `json:"filters" validate:"min=1,dive"`
}

// Filter returns the filter with the given fieldname.
func (r ReportDef) Filter(fieldname string) (FilterDef, bool) {
	for _, f := range r.Filters {
		if f.Fieldname == fieldname {
			return f, true
		}
	}
	return FilterDef{}, false
}

// Clone returns a deep copy; the copy shares no slices with r.
func (r ReportDef) Clone() ReportDef {
	out := r
	out.Filters = make([]FilterDef, len(r.Filters))
	for i, f := range r.Filters {
		out.Filters[i] = f.clone()
	}
	return out
}

// RequiredWithoutDefault lists required filters that start empty.
// The report runtime refuses to run until the caller fills them.
func (r ReportDef) RequiredWithoutDefault() []string {
	var out []string
	for _, f := range r.Filters {
		if f.Reqd && !f.HasDefault() {
			out = append(out, f.Fieldname)
		}
	}
	return out
}

// Extend builds a new report from a copy of base with extra filters appended
// after all base filters, in the given order. base is left untouched.
func Extend(base ReportDef, name string, extra ...FilterDef) ReportDef {
	out := base.Clone()
	out.Name = name
	for _, f := range extra {
		out.Filters = append(out.Filters, f.clone())
	}
	return out
}
